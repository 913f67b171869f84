// Package animation plays the blocking startup, shutdown and alert
// sequences by sending commands straight to the device.
package animation

import (
	"context"
	"time"

	"github.com/smazurov/padnode/internal/launchpad"
	"github.com/smazurov/padnode/internal/metrics"
)

// Palette entries of the stripe flag.
const (
	TransBlue  uint8 = 37
	TransPink  uint8 = 52
	TransWhite uint8 = 3

	alertColor uint8 = 9
)

const (
	frameDelay = 50 * time.Millisecond
	alertHold  = 900 * time.Millisecond
)

// Sender writes commands to the device.
type Sender interface {
	Send(cmd launchpad.Command) error
}

// SleepFunc pauses between frames. It returns early with ctx's error.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Player runs animations on a device.
type Player struct {
	dev   Sender
	sleep SleepFunc
	now   func() time.Time
}

// Option configures a Player.
type Option func(*Player)

// WithSleep replaces the frame timer.
func WithSleep(fn SleepFunc) Option {
	return func(p *Player) { p.sleep = fn }
}

// WithClock replaces the clock used to subtract drawing time from frame
// delays.
func WithClock(now func() time.Time) Option {
	return func(p *Player) { p.now = now }
}

// New returns a player for dev.
func New(dev Sender, opts ...Option) *Player {
	p := &Player{dev: dev, sleep: sleepContext, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (p *Player) on(k launchpad.Key, c launchpad.Color) error {
	return p.dev.Send(launchpad.KeyOn{Key: k, Color: c})
}

func (p *Player) off(k launchpad.Key) error {
	return p.dev.Send(launchpad.KeyOff{Key: k})
}

func (p *Player) clearAll() error {
	for _, k := range launchpad.AllKeys() {
		if err := p.off(k); err != nil {
			return err
		}
	}
	return nil
}

// frame waits out the rest of a frame that started at start.
func (p *Player) frame(ctx context.Context, start time.Time) error {
	return p.sleep(ctx, frameDelay-p.now().Sub(start))
}

func (p *Player) observe(name string, start time.Time) {
	metrics.AnimationPlayed(name, p.now().Sub(start))
}

// upLeftFrom walks the diagonal towards the top-left corner.
func upLeftFrom(start launchpad.Key) []launchpad.Key {
	x, y := launchpad.KeyToCoords(start)
	keys := []launchpad.Key{start}
	for x != 1 && y != 9 {
		x, y = x-1, y+1
		keys = append(keys, launchpad.CoordsToKey(x, y))
	}
	return keys
}

// alongBottomRight lists the bottom row left to right, then the right
// column bottom to top.
func alongBottomRight() []launchpad.Key {
	keys := make([]launchpad.Key, 0, 17)
	for k := launchpad.Key(11); k < 19; k++ {
		keys = append(keys, k)
	}
	for k := launchpad.Key(19); k <= 99; k += 10 {
		keys = append(keys, k)
	}
	return keys
}

// rotate turns a pad a quarter turn about the centre.
func rotate(x, y uint8) (uint8, uint8) {
	return 10 - y, x
}

// sweep draws one stripe per colour on successive slots. Frame n gives
// colour i to slot n+i. Empty slots delay the stripes behind them.
func sweep[T any](ctx context.Context, p *Player, stripes []uint8, slots []*T, draw func(T, launchpad.Color) error) error {
	for n := 0; ; n++ {
		start := p.now()
		for i, c := range stripes {
			if j := n + i; j < len(slots) && slots[j] != nil {
				if err := draw(*slots[j], launchpad.Simple(c)); err != nil {
					return err
				}
			}
		}
		if n >= len(slots) {
			return nil
		}
		if err := p.frame(ctx, start); err != nil {
			return err
		}
	}
}

// Startup sweeps the stripe flag diagonally across the grid from the
// bottom-right corner.
func (p *Player) Startup(ctx context.Context) error {
	stripes := []uint8{0, TransBlue, TransBlue, TransPink, TransPink, TransWhite, TransWhite, TransPink, TransPink, TransBlue, TransBlue}
	defer p.observe("startup", p.now())

	edge := alongBottomRight()
	slots := make([]*launchpad.Key, len(stripes)-1, len(stripes)-1+len(edge))
	for i := len(edge) - 1; i >= 0; i-- {
		slots = append(slots, &edge[i])
	}
	return sweep(ctx, p, stripes, slots, func(start launchpad.Key, c launchpad.Color) error {
		for _, k := range upLeftFrom(start) {
			if err := p.on(k, c); err != nil {
				return err
			}
		}
		return nil
	})
}

type ring struct {
	n     int
	start launchpad.Key
}

// Shutdown clears the grid and closes a four-fold symmetric ring of
// stripes onto the centre.
func (p *Player) Shutdown(ctx context.Context) error {
	stripes := []uint8{0, TransBlue, TransPink, TransWhite, TransPink, TransBlue}
	defer p.observe("shutdown", p.now())

	if err := p.clearAll(); err != nil {
		return err
	}
	rings := []ring{{1, 99}, {2, 89}, {3, 79}, {4, 69}, {4, 59}, {3, 58}, {2, 57}, {1, 56}, {1, 55}}
	slots := make([]*ring, len(stripes)-1, len(stripes)-1+len(rings))
	for i := range rings {
		slots = append(slots, &rings[i])
	}
	return sweep(ctx, p, stripes, slots, func(r ring, c launchpad.Color) error {
		keys := upLeftFrom(r.start)
		if len(keys) > r.n {
			keys = keys[:r.n]
		}
		for _, k := range keys {
			if err := p.on(k, c); err != nil {
				return err
			}
			x, y := launchpad.KeyToCoords(k)
			for range 3 {
				x, y = rotate(x, y)
				if err := p.on(launchpad.CoordsToKey(x, y), c); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// bounds is one expansion step: the new edge in each direction, 0 once a
// direction has reached the border.
type bounds struct {
	top, bottom, left, right uint8
}

// Alert clears the grid, pulses focus and floods the grid from it before
// contracting back. A nil focus uses the centre pad, which is turned off
// again at the end.
func (p *Player) Alert(ctx context.Context, focus *launchpad.Key) error {
	defer p.observe("alert", p.now())

	center := launchpad.CenterKey
	if focus != nil {
		center = *focus
	}
	fx, fy := launchpad.KeyToCoords(center)

	if err := p.clearAll(); err != nil {
		return err
	}
	if err := p.on(center, launchpad.Pulse(alertColor)); err != nil {
		return err
	}

	var steps []bounds
	for i := uint8(1); ; i++ {
		var b bounds
		if fy+i <= 9 {
			b.top = fy + i
		}
		if fy > i {
			b.bottom = fy - i
		}
		if fx > i {
			b.left = fx - i
		}
		if fx+i <= 9 {
			b.right = fx + i
		}
		if b == (bounds{}) {
			break
		}
		steps = append(steps, b)
	}

	fill := launchpad.Simple(alertColor)
	top, bottom, left, right := fy, fy, fx, fx
	for _, b := range steps {
		if err := p.sleep(ctx, frameDelay); err != nil {
			return err
		}
		top, bottom = max(top, b.top), orKeep(b.bottom, bottom)
		left, right = orKeep(b.left, left), max(right, b.right)
		for x := left; x <= right; x++ {
			for y := bottom; y <= top; y++ {
				if x == fx && y == fy {
					continue
				}
				if err := p.on(launchpad.CoordsToKey(x, y), fill); err != nil {
					return err
				}
			}
		}
	}
	if err := p.sleep(ctx, frameDelay); err != nil {
		return err
	}

	if err := p.sleep(ctx, alertHold); err != nil {
		return err
	}

	for i := len(steps) - 1; i >= 0; i-- {
		b := steps[i]
		for _, y := range []uint8{b.top, b.bottom} {
			if y != 0 {
				if err := p.offRow(y); err != nil {
					return err
				}
			}
		}
		for _, x := range []uint8{b.left, b.right} {
			if x != 0 {
				if err := p.offColumn(x); err != nil {
					return err
				}
			}
		}
		if err := p.sleep(ctx, frameDelay); err != nil {
			return err
		}
	}

	if focus == nil {
		return p.off(center)
	}
	return nil
}

func orKeep(v, keep uint8) uint8 {
	if v == 0 {
		return keep
	}
	return v
}

func (p *Player) offRow(y uint8) error {
	for x := uint8(1); x <= 9; x++ {
		if err := p.off(launchpad.CoordsToKey(x, y)); err != nil {
			return err
		}
	}
	return nil
}

func (p *Player) offColumn(x uint8) error {
	for y := uint8(1); y <= 9; y++ {
		if err := p.off(launchpad.CoordsToKey(x, y)); err != nil {
			return err
		}
	}
	return nil
}
