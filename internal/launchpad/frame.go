package launchpad

// Frame holds one colour per pad.
type Frame map[Key]Color

// NewFrame returns a frame with every pad off.
func NewFrame() Frame {
	f := make(Frame, MaxColorEntries)
	f.Clear()
	return f
}

// Clear turns every pad off.
func (f Frame) Clear() {
	for _, k := range AllKeys() {
		f[k] = Off
	}
}

// Set colours a pad. Keys outside the grid are ignored.
func (f Frame) Set(k Key, c Color) {
	if Valid(k) {
		f[k] = c
	}
}

// Get returns the colour of a pad, Off if unset.
func (f Frame) Get(k Key) Color {
	if c, ok := f[k]; ok {
		return c
	}
	return Off
}

// Clone returns an independent copy.
func (f Frame) Clone() Frame {
	out := make(Frame, len(f))
	for k, c := range f {
		out[k] = c
	}
	return out
}
