package ui

import (
	"context"
	"math"
	"strconv"

	"github.com/smazurov/padnode/internal/events"
	"github.com/smazurov/padnode/internal/launchpad"
)

// Colours used by the stock widgets.
var (
	tabSelected   = launchpad.Simple(20)
	tabIdle       = launchpad.Simple(1)
	counterIdle   = launchpad.Simple(1)
	counterActive = launchpad.Simple(2)
	sliderLit     = launchpad.Simple(113)
	sliderDim     = launchpad.Simple(104)
	exitColor     = launchpad.Simple(6)
)

// InfoText is the colour of text scrolled by Info.
var InfoText = launchpad.PaletteText(3)

// InfoSpeed is the scroll speed used by Info.
const InfoSpeed = 15

// Media controls the desktop media player.
type Media interface {
	Playing(ctx context.Context) bool
	Play(ctx context.Context) error
	Pause(ctx context.Context) error
}

// Tabs draws n tab buttons from start and returns the selected index.
func (u *UI) Tabs(id string, start launchpad.Key, n int) int {
	tab := slot(u, id, zero[int])
	if ev, ok := u.event.(events.KeyDownEvent); ok && ev.Key >= start && int(ev.Key-start) < n {
		*tab = int(ev.Key - start)
	}
	for i := range n {
		c := tabIdle
		if i == *tab {
			c = tabSelected
		}
		u.frame.Set(start+launchpad.Key(i), c)
	}
	return *tab
}

// StaticColor draws an inert pad.
func (u *UI) StaticColor(k launchpad.Key, c launchpad.Color) {
	u.frame.Set(k, c)
}

// Toggle flips on each press and returns the current value.
func (u *UI) Toggle(id string, k launchpad.Key, off, on launchpad.Color) bool {
	enabled := slot(u, id, zero[bool])
	if u.KeyDown(k) {
		*enabled = !*enabled
	}
	if *enabled {
		u.frame.Set(k, on)
	} else {
		u.frame.Set(k, off)
	}
	return *enabled
}

// Counter draws a decrement button at start and an increment button at
// start+1. The value wraps within [0,size).
func (u *UI) Counter(id string, start launchpad.Key, size int) int {
	n := slot(u, id, zero[int])
	switch {
	case u.KeyDown(start):
		*n--
	case u.KeyDown(start + 1):
		*n++
	}
	if size > 0 {
		*n = ((*n % size) + size) % size
	}
	for _, k := range []launchpad.Key{start, start + 1} {
		if u.KeyDown(k) {
			u.frame.Set(k, counterActive)
		} else {
			u.frame.Set(k, counterIdle)
		}
	}
	return *n
}

// Info scrolls text across the grid when pressed.
func (u *UI) Info(k launchpad.Key, c launchpad.Color, text string) {
	u.frame.Set(k, c)
	if u.KeyDown(k) {
		u.send(launchpad.NewScrollText(text, false, InfoSpeed, InfoText))
	}
}

// track updates the held state of k and draws it.
func (u *UI) track(id string, k launchpad.Key, c, pressed launchpad.Color) bool {
	held := slot(u, id, zero[bool])
	switch {
	case u.KeyDown(k):
		*held = true
	case u.KeyUp(k):
		*held = false
	}
	if *held {
		u.frame.Set(k, pressed)
	} else {
		u.frame.Set(k, c)
	}
	return *held
}

// Impulse returns true once, on the press of k.
func (u *UI) Impulse(id string, k launchpad.Key, c, pressed launchpad.Color) bool {
	u.track(id, k, c, pressed)
	return u.KeyDown(k)
}

// PressRelease reports presses and releases of k. ok is false when the
// current event does not involve k.
func (u *UI) PressRelease(id string, k launchpad.Key, c, pressed launchpad.Color) (down, ok bool) {
	u.track(id, k, c, pressed)
	switch {
	case u.KeyDown(k):
		return true, true
	case u.KeyUp(k):
		return false, true
	}
	return false, false
}

// Holdable returns whether k is held down.
func (u *UI) Holdable(id string, k launchpad.Key, c, pressed launchpad.Color) bool {
	return u.track(id, k, c, pressed)
}

// Monostable returns true exactly once each time val becomes true. The
// first call only records val.
func (u *UI) Monostable(id string, val bool) bool {
	prev := slot(u, id, func() bool { return val })
	fire := val && !*prev
	*prev = val
	return fire
}

// SliderLevel maps slider pad i (0..7) to a device brightness. The device
// reports 0, 18, 36, 54, 72, 91, 109 and 127 for its eight steps.
func SliderLevel(i int) uint8 {
	return uint8(math.Round(float64(i)*127/7 - 0.1))
}

// LEDSlider draws an eight-pad brightness slider starting at a pad in the
// first column.
func (u *UI) LEDSlider(id string, start launchpad.Key) {
	if start%10 != 1 {
		u.logger.Warn("LED slider must start in the first column", "key", start)
		return
	}
	if ev, ok := u.event.(events.BrightnessEvent); ok {
		u.brightness = ev.Level
		u.brightnessKnown = true
	}
	if !u.brightnessKnown {
		u.send(launchpad.GetBrightness{})
	}
	for i := range 8 {
		k := start + launchpad.Key(i)
		c := sliderDim
		if u.brightnessKnown && int(u.brightness/16) == i {
			c = sliderLit
		}
		if u.Impulse(id+"."+strconv.Itoa(i), k, c, c) {
			u.send(launchpad.SetBrightness{Level: SliderLevel(i)})
			u.send(launchpad.GetBrightness{})
		}
	}
}

// Brightness returns the last brightness reported by the device.
func (u *UI) Brightness() (uint8, bool) {
	return u.brightness, u.brightnessKnown
}

// ExitButton queues an ExitEvent when pressed.
func (u *UI) ExitButton(k launchpad.Key) {
	if u.Impulse("exit", k, exitColor, exitColor) {
		u.emit(events.ExitEvent{Reason: "exit button"})
	}
}

// Awake is a sleep button meant to wrap the whole UI. Pressing k puts the
// UI to sleep. While asleep the first press anywhere wakes it and is
// rewritten into a redraw so no other widget sees it.
func (u *UI) Awake(id string, k launchpad.Key, c launchpad.Color) bool {
	awake := slot(u, id, func() bool { return true })
	if ev, ok := u.event.(events.KeyDownEvent); ok {
		switch {
		case !*awake:
			*awake = true
			u.event = events.RedrawEvent{Reason: "wake"}
		case ev.Key == k:
			*awake = false
		}
	}
	if *awake {
		u.frame.Set(k, c)
	} else {
		u.frame.Set(k, launchpad.Off)
	}
	return *awake
}

// PlayPause toggles media playback. Its state follows MediaPlayingEvent.
func (u *UI) PlayPause(ctx context.Context, id string, k launchpad.Key, playing, paused launchpad.Color, media Media) {
	state := slot(u, id, func() bool { return media.Playing(ctx) })
	if ev, ok := u.event.(events.MediaPlayingEvent); ok {
		*state = ev.Playing
	}
	c := paused
	if *state {
		c = playing
	}
	if !u.Impulse(id+".button", k, c, c) {
		return
	}
	var err error
	if *state {
		err = media.Pause(ctx)
	} else {
		err = media.Play(ctx)
	}
	if err != nil {
		u.logger.Warn("Media control failed", "error", err)
	}
}
