package launchpad

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"
)

type fakePort struct {
	mu       sync.Mutex
	written  [][]byte
	writeErr error

	in     chan []byte
	closed chan struct{}
	once   sync.Once
}

func newFakePort() *fakePort {
	return &fakePort{in: make(chan []byte, 8), closed: make(chan struct{})}
}

func (p *fakePort) ReadMessage(ctx context.Context) ([]byte, error) {
	select {
	case msg, ok := <-p.in:
		if !ok {
			return nil, io.EOF
		}
		return msg, nil
	case <-p.closed:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *fakePort) WriteMessage(msg []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.writeErr != nil {
		return p.writeErr
	}
	p.written = append(p.written, bytes.Clone(msg))
	return nil
}

func (p *fakePort) Close() error {
	p.once.Do(func() { close(p.closed) })
	return nil
}

func (p *fakePort) take() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := p.written
	p.written = nil
	return out
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openTest(t *testing.T, handler Handler) (*Device, *fakePort) {
	t.Helper()
	port := newFakePort()
	d, err := Open(port, handler, discard())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d, port
}

func TestOpenEntersProgrammerMode(t *testing.T) {
	_, port := openTest(t, nil)

	got := port.take()
	if len(got) != 1 || !bytes.Equal(got[0], sysex(0x0e, 0x01)) {
		t.Errorf("written = % x, want programmer mode on", got)
	}
}

func TestOpenFailsWhenPortRejectsWrites(t *testing.T) {
	port := newFakePort()
	port.writeErr = errors.New("broken pipe")

	if _, err := Open(port, nil, discard()); err == nil {
		t.Fatal("Open succeeded with a failing port")
	}
}

func TestFullUpdateSendsOnlyChanges(t *testing.T) {
	d, port := openTest(t, nil)
	port.take()

	frame := NewFrame()
	frame.Set(11, Simple(5))
	frame.Set(12, Pulse(9))
	frame.Set(13, RGBColor(1, 2, 3))
	frame.Set(14, Flash(9, 0))

	if err := d.FullUpdate(frame); err != nil {
		t.Fatalf("FullUpdate: %v", err)
	}

	got := port.take()
	want := [][]byte{
		{0x90, 11, 5},
		{0x92, 12, 9},
		sysex(0x03, 3, 13, 1, 2, 3, 1, 14, 9, 0),
	}
	if len(got) != len(want) {
		t.Fatalf("wrote %d messages, want %d: % x", len(got), len(want), got)
	}
	for i := range want {
		if !bytes.Equal(got[i], want[i]) {
			t.Errorf("message %d = % x, want % x", i, got[i], want[i])
		}
	}

	// Same frame again: nothing to send.
	if err := d.FullUpdate(frame); err != nil {
		t.Fatal(err)
	}
	if got := port.take(); len(got) != 0 {
		t.Errorf("unchanged frame wrote % x", got)
	}

	// Turning one pad off sends a single note.
	frame.Set(11, Off)
	if err := d.FullUpdate(frame); err != nil {
		t.Fatal(err)
	}
	got = port.take()
	if len(got) != 1 || !bytes.Equal(got[0], []byte{0x90, 11, 0}) {
		t.Errorf("wrote % x, want single off note", got)
	}
}

func TestSendMirrorsFrame(t *testing.T) {
	d, port := openTest(t, nil)
	port.take()

	if err := d.Send(KeyOn{Key: 55, Color: Simple(3)}); err != nil {
		t.Fatal(err)
	}
	if err := d.Send(SetColors{Entries: []ColorEntry{{Key: 56, Color: RGBColor(9, 9, 9)}}}); err != nil {
		t.Fatal(err)
	}

	cur := d.Current()
	if cur.Get(55) != Simple(3) || cur.Get(56) != RGBColor(9, 9, 9) {
		t.Errorf("mirror = %v / %v", cur.Get(55), cur.Get(56))
	}

	// The mirror already matches, so a frame with the same pads sends nothing.
	frame := NewFrame()
	frame.Set(55, Simple(3))
	frame.Set(56, RGBColor(9, 9, 9))
	if err := d.FullUpdate(frame); err != nil {
		t.Fatal(err)
	}
	if got := port.take(); len(got) != 2 {
		t.Errorf("expected only the two Send writes, got % x", got)
	}

	if err := d.Send(KeyOff{Key: 55}); err != nil {
		t.Fatal(err)
	}
	if d.Current().Get(55) != Off {
		t.Error("KeyOff not mirrored")
	}
}

func TestSendInvalidKeyWritesNothing(t *testing.T) {
	d, port := openTest(t, nil)
	port.take()

	err := d.Send(KeyOn{Key: 10, Color: Simple(1)})
	if !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("err = %v, want ErrInvalidKey", err)
	}
	if got := port.take(); len(got) != 0 {
		t.Errorf("wrote % x after encode error", got)
	}
}

func TestHandlerReceivesDecodedMessages(t *testing.T) {
	got := make(chan Message, 4)
	_, port := openTest(t, func(m Message) { got <- m })

	port.in <- []byte{0xf8}
	port.in <- []byte{0x90, 44, 127}
	port.in <- sysex(0x08, 36)

	want := []Message{KeyDown{Key: 44}, Brightness{Level: 36}}
	for _, w := range want {
		select {
		case m := <-got:
			if m != w {
				t.Errorf("handler got %#v, want %#v", m, w)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for %#v", w)
		}
	}
}

func TestDisconnectClosesDone(t *testing.T) {
	d, port := openTest(t, nil)
	close(port.in)

	select {
	case <-d.Done():
	case <-time.After(time.Second):
		t.Fatal("Done not closed after EOF")
	}
	if !errors.Is(d.Err(), io.EOF) {
		t.Errorf("Err = %v, want EOF", d.Err())
	}
}

func TestCloseLeavesProgrammerMode(t *testing.T) {
	port := newFakePort()
	d, err := Open(port, nil, discard())
	if err != nil {
		t.Fatal(err)
	}
	port.take()

	if err := d.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	got := port.take()
	if len(got) != 1 || !bytes.Equal(got[0], sysex(0x0e, 0x00)) {
		t.Errorf("Close wrote % x, want programmer mode off", got)
	}
	if d.Err() != nil {
		t.Errorf("Err after Close = %v, want nil", d.Err())
	}
	if err := d.Send(GetBrightness{}); !errors.Is(err, ErrClosed) {
		t.Errorf("Send after Close = %v, want ErrClosed", err)
	}
	// Second Close is a no-op.
	if err := d.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}
