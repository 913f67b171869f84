package launchpad

// Key addresses a pad in programmer mode: 10*y + x with x, y in 1..9.
// Row 9 holds the top control buttons and column 9 the side buttons.
type Key uint8

// Grid bounds.
const (
	MinKey Key = 11
	MaxKey Key = 99
	// GridMax is the top-right pad of the 8x8 note grid.
	GridMax Key = 88
	// CenterKey is the fallback focus for animations.
	CenterKey Key = 55
)

// CoordsToKey converts column/row coordinates into a key.
func CoordsToKey(x, y uint8) Key {
	return Key(10*y + x)
}

// KeyToCoords splits a key into column and row.
func KeyToCoords(k Key) (x, y uint8) {
	return uint8(k % 10), uint8(k / 10)
}

// Valid reports whether k addresses a physical pad.
func Valid(k Key) bool {
	return k >= MinKey && k <= MaxKey && k%10 != 0
}

// Rect returns the keys of the rectangle spanned by a (bottom-left) and b
// (top-right), row by row starting at a's row.
func Rect(a, b Key) []Key {
	x0, y0 := KeyToCoords(a)
	x1, y1 := KeyToCoords(b)
	if x0 > x1 || y0 > y1 {
		return nil
	}
	keys := make([]Key, 0, int(x1-x0+1)*int(y1-y0+1))
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			keys = append(keys, CoordsToKey(x, y))
		}
	}
	return keys
}

// AllKeys returns every addressable pad including the control row and column.
func AllKeys() []Key {
	return Rect(MinKey, MaxKey)
}

// GridKeys returns the 64 pads of the note grid.
func GridKeys() []Key {
	return Rect(MinKey, GridMax)
}
