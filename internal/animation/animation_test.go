package animation

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/smazurov/padnode/internal/launchpad"
)

type recorder struct {
	cmds []launchpad.Command
}

func (r *recorder) Send(cmd launchpad.Command) error {
	r.cmds = append(r.cmds, cmd)
	return nil
}

// replay applies the recorded commands to an empty frame.
func (r *recorder) replay() launchpad.Frame {
	f := launchpad.NewFrame()
	for _, cmd := range r.cmds {
		switch c := cmd.(type) {
		case launchpad.KeyOn:
			f[c.Key] = c.Color
		case launchpad.KeyOff:
			f[c.Key] = launchpad.Off
		}
	}
	return f
}

func newTestPlayer() (*Player, *recorder, *[]time.Duration) {
	rec := &recorder{}
	var sleeps []time.Duration
	fixed := time.Unix(0, 0)
	p := New(rec,
		WithSleep(func(ctx context.Context, d time.Duration) error {
			sleeps = append(sleeps, d)
			return ctx.Err()
		}),
		WithClock(func() time.Time { return fixed }),
	)
	return p, rec, &sleeps
}

func repeat(d time.Duration, n int) []time.Duration {
	out := make([]time.Duration, n)
	for i := range out {
		out[i] = d
	}
	return out
}

func TestUpLeftFrom(t *testing.T) {
	tests := []struct {
		start launchpad.Key
		want  []launchpad.Key
	}{
		{19, []launchpad.Key{19, 28, 37, 46, 55, 64, 73, 82, 91}},
		{55, []launchpad.Key{55, 64, 73, 82, 91}},
		{11, []launchpad.Key{11}},
		{99, []launchpad.Key{99}},
	}
	for _, tt := range tests {
		if got := upLeftFrom(tt.start); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("upLeftFrom(%d) = %v, want %v", tt.start, got, tt.want)
		}
	}
}

func TestAlongBottomRight(t *testing.T) {
	keys := alongBottomRight()
	if len(keys) != 17 || keys[0] != 11 || keys[7] != 18 || keys[8] != 19 || keys[16] != 99 {
		t.Errorf("alongBottomRight() = %v", keys)
	}
}

func TestRotate(t *testing.T) {
	x, y := uint8(9), uint8(9)
	var got []launchpad.Key
	for range 4 {
		x, y = rotate(x, y)
		got = append(got, launchpad.CoordsToKey(x, y))
	}
	want := []launchpad.Key{91, 11, 19, 99}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("rotations of 99 = %v, want %v", got, want)
	}
}

func TestStartup(t *testing.T) {
	p, rec, sleeps := newTestPlayer()
	if err := p.Startup(context.Background()); err != nil {
		t.Fatal(err)
	}

	if want := repeat(frameDelay, 27); !reflect.DeepEqual(*sleeps, want) {
		t.Errorf("sleeps = %v, want 27 frames of %v", *sleeps, frameDelay)
	}
	first := launchpad.KeyOn{Key: 99, Color: launchpad.Simple(TransBlue)}
	if len(rec.cmds) == 0 || rec.cmds[0] != first {
		t.Errorf("first command = %v, want %v", rec.cmds[0], first)
	}
	for k, c := range rec.replay() {
		if c != launchpad.Off {
			t.Errorf("pad %d left at %v", k, c)
		}
	}
}

func TestStartupSubtractsDrawTime(t *testing.T) {
	rec := &recorder{}
	var sleeps []time.Duration
	now := time.Unix(0, 0)
	p := New(rec,
		WithSleep(func(_ context.Context, d time.Duration) error {
			sleeps = append(sleeps, d)
			return nil
		}),
		WithClock(func() time.Time {
			now = now.Add(10 * time.Millisecond)
			return now
		}),
	)
	if err := p.Startup(context.Background()); err != nil {
		t.Fatal(err)
	}
	for i, d := range sleeps {
		if d != 40*time.Millisecond {
			t.Fatalf("sleep %d = %v, want 40ms", i, d)
		}
	}
}

func TestShutdown(t *testing.T) {
	p, rec, sleeps := newTestPlayer()
	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatal(err)
	}

	for i := range 81 {
		if _, ok := rec.cmds[i].(launchpad.KeyOff); !ok {
			t.Fatalf("command %d = %v, want KeyOff", i, rec.cmds[i])
		}
	}
	blue := launchpad.Simple(TransBlue)
	want := []launchpad.Command{
		launchpad.KeyOn{Key: 99, Color: blue},
		launchpad.KeyOn{Key: 91, Color: blue},
		launchpad.KeyOn{Key: 11, Color: blue},
		launchpad.KeyOn{Key: 19, Color: blue},
	}
	if got := rec.cmds[81:85]; !reflect.DeepEqual(got, want) {
		t.Errorf("first ring = %v, want %v", got, want)
	}
	if want := repeat(frameDelay, 14); !reflect.DeepEqual(*sleeps, want) {
		t.Errorf("sleeps = %v", *sleeps)
	}
	for k, c := range rec.replay() {
		if c != launchpad.Off {
			t.Errorf("pad %d left at %v", k, c)
		}
	}
}

func TestShutdownIsSymmetric(t *testing.T) {
	p, rec, _ := newTestPlayer()
	if err := p.Shutdown(context.Background()); err != nil {
		t.Fatal(err)
	}
	lit := map[launchpad.Key]bool{}
	for _, cmd := range rec.cmds {
		if on, ok := cmd.(launchpad.KeyOn); ok {
			lit[on.Key] = true
		}
	}
	for k := range lit {
		x, y := rotate(launchpad.KeyToCoords(k))
		if !lit[launchpad.CoordsToKey(x, y)] {
			t.Errorf("pad %d lit but its rotation %d is not", k, launchpad.CoordsToKey(x, y))
		}
	}
}

func TestAlertWithoutFocus(t *testing.T) {
	p, rec, sleeps := newTestPlayer()
	if err := p.Alert(context.Background(), nil); err != nil {
		t.Fatal(err)
	}

	pulse := launchpad.KeyOn{Key: 55, Color: launchpad.Pulse(alertColor)}
	if rec.cmds[81] != pulse {
		t.Errorf("command after clear = %v, want %v", rec.cmds[81], pulse)
	}
	want := append(repeat(frameDelay, 5), alertHold)
	want = append(want, repeat(frameDelay, 4)...)
	if !reflect.DeepEqual(*sleeps, want) {
		t.Errorf("sleeps = %v, want %v", *sleeps, want)
	}
	for k, c := range rec.replay() {
		if c != launchpad.Off {
			t.Errorf("pad %d left at %v", k, c)
		}
	}
}

func TestAlertFloodsGrid(t *testing.T) {
	rec := &recorder{}
	var snapshot launchpad.Frame
	p := New(rec, WithSleep(func(_ context.Context, d time.Duration) error {
		if d == alertHold {
			snapshot = rec.replay()
		}
		return nil
	}))
	focus := launchpad.Key(81)
	if err := p.Alert(context.Background(), &focus); err != nil {
		t.Fatal(err)
	}

	for k, c := range snapshot {
		want := launchpad.Simple(alertColor)
		if k == focus {
			want = launchpad.Pulse(alertColor)
		}
		if c != want {
			t.Errorf("pad %d = %v during hold, want %v", k, c, want)
		}
	}
	for k, c := range rec.replay() {
		want := launchpad.Off
		if k == focus {
			want = launchpad.Pulse(alertColor)
		}
		if c != want {
			t.Errorf("pad %d = %v after alert, want %v", k, c, want)
		}
	}
}

func TestAlertCancelled(t *testing.T) {
	p, _, _ := newTestPlayer()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.Alert(ctx, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("Alert() = %v, want context.Canceled", err)
	}
}

func TestSleepContext(t *testing.T) {
	if err := sleepContext(context.Background(), -time.Second); err != nil {
		t.Errorf("negative sleep = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	if err := sleepContext(ctx, time.Minute); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled sleep = %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("sleep ignored cancellation")
	}
}
