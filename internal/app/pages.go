package app

import (
	"context"
	"strconv"

	"github.com/smazurov/padnode/internal/events"
	"github.com/smazurov/padnode/internal/launchpad"
	"github.com/smazurov/padnode/internal/synth"
	"github.com/smazurov/padnode/internal/ui"
)

// Pages selected by the tab strip on 95..98.
const (
	pageDesktop = iota
	pagePalette
	pageKeyboard
	pageSettings
	pageCount
)

var (
	awakeColor   = launchpad.Simple(47)
	shiftIdle    = launchpad.Simple(2)
	shiftHeld    = launchpad.Simple(3)
	mediaPlaying = launchpad.Simple(21)
	mediaPaused  = launchpad.Simple(23)
	whiteKey     = launchpad.Simple(92)
	whitePressed = launchpad.Simple(91)
	blackKey     = launchpad.Simple(94)
	blackPressed = launchpad.Simple(93)
	letterL      = launchpad.Simple(40)
	letterE      = launchpad.Simple(113)
)

// octaves are the frequency multipliers of the keyboard page rows.
var octaves = [...]float64{0.5, 1, 2, 4}

// "L" and "D" drawn in one colour, "E" in another.
var (
	lettersLD = []launchpad.Key{81, 71, 61, 51, 52, 86, 87, 76, 78, 66, 68, 56, 57}
	lettersE  = []launchpad.Key{83, 84, 85, 73, 74, 63, 53, 54, 55}
)

// render draws the whole UI for ev into the frame.
func (a *App) render(ctx context.Context, ev events.Event) {
	u := a.ui
	u.Begin(ev)
	a.voices = a.voices[:0]

	if u.Awake("awake", 19, awakeColor) {
		switch u.Tabs("page", 95, pageCount) {
		case pageDesktop:
			a.desktopPage(ctx, u)
		case pagePalette:
			a.palettePage(u)
		case pageKeyboard:
			a.keyboardPage(u)
		case pageSettings:
			a.settingsPage(u)
		}
	}

	// Notes whose keys were not drawn this frame stop sounding.
	a.synth.ReleaseExcept(a.voices)
}

func (a *App) desktopPage(ctx context.Context, u *ui.UI) {
	shift := u.Holdable("shift", 53, shiftIdle, shiftHeld)
	a.desktop.Render(ctx, u, shift)

	if a.mic != nil {
		u.StaticColor(88, a.mic.Color(ctx, a.desktop.Layout().MicUSBID))
	}
	if a.media != nil {
		u.PlayPause(ctx, "media", 58, mediaPlaying, mediaPaused, a.media)
	}
	a.piano(u, 11, 22, 100, 200, 1)
}

func (a *App) palettePage(u *ui.UI) {
	base := u.Counter("palette", 93, 2) * 64
	for i, k := range launchpad.GridKeys() {
		n := uint8(base + i)
		u.Info(k, launchpad.Simple(n), strconv.Itoa(int(n)))
	}
}

func (a *App) keyboardPage(u *ui.UI) {
	for row, mult := range octaves {
		r := launchpad.Key(row)
		a.piano(u, 11+20*r, 22+20*r, 1000+100*row, 2000+100*row, mult)
	}
}

func (a *App) settingsPage(u *ui.UI) {
	for _, k := range lettersLD {
		u.StaticColor(k, letterL)
	}
	for _, k := range lettersE {
		u.StaticColor(k, letterE)
	}
	u.LEDSlider("brightness", 31)
	u.ExitButton(18)
}

// piano draws one octave: white keys from white, black keys from black
// with the gap between E and F left dark. Voice ids start at whiteID and
// blackID.
func (a *App) piano(u *ui.UI, white, black launchpad.Key, whiteID, blackID int, mult float64) {
	for i, freq := range synth.WhiteKeys {
		a.key(u, white+launchpad.Key(i), whiteID+i, freq*mult, whiteKey, whitePressed)
	}
	for i, freq := range synth.BlackKeys {
		if freq == 0 {
			continue
		}
		a.key(u, black+launchpad.Key(i), blackID+i, freq*mult, blackKey, blackPressed)
	}
}

func (a *App) key(u *ui.UI, k launchpad.Key, id int, freq float64, c, pressed launchpad.Color) {
	held := u.Holdable("voice."+strconv.Itoa(id), k, c, pressed)
	a.synth.SetHeld(id, freq, held)
	a.voices = append(a.voices, id)
}
