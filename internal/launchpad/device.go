package launchpad

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/smazurov/padnode/internal/logging"
	"github.com/smazurov/padnode/internal/metrics"
)

var (
	// ErrNotFound is returned when no Launchpad port can be located.
	ErrNotFound = errors.New("launchpad not found")
	// ErrClosed is returned when sending to a closed device.
	ErrClosed = errors.New("launchpad closed")
)

// Port is a bidirectional MIDI message transport.
type Port interface {
	// ReadMessage blocks until a complete message arrives or ctx is done.
	ReadMessage(ctx context.Context) ([]byte, error)
	WriteMessage(msg []byte) error
	Close() error
}

// Handler receives decoded inbound messages on the reader goroutine.
type Handler func(Message)

// Device drives a Launchpad in programmer mode and mirrors what is lit.
type Device struct {
	port    Port
	handler Handler
	logger  logging.Logger

	mu      sync.Mutex
	sendBuf []byte
	batch   []ColorEntry
	current Frame
	closed  bool

	cancel    context.CancelFunc
	done      chan struct{}
	readErr   error
	closeOnce sync.Once
}

// Open switches the device behind port into programmer mode and starts
// delivering inbound messages to handler.
func Open(port Port, handler Handler, logger logging.Logger) (*Device, error) {
	ctx, cancel := context.WithCancel(context.Background())
	d := &Device{
		port:    port,
		handler: handler,
		logger:  logger,
		sendBuf: make([]byte, 0, 16),
		batch:   make([]ColorEntry, 0, MaxColorEntries),
		current: NewFrame(),
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	if err := d.Send(SetProgrammerMode{Enabled: true}); err != nil {
		cancel()
		close(d.done)
		return nil, fmt.Errorf("enter programmer mode: %w", err)
	}

	go d.readLoop(ctx)
	metrics.DeviceConnected()
	return d, nil
}

func (d *Device) readLoop(ctx context.Context) {
	defer close(d.done)
	for {
		raw, err := d.port.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() == nil && !errors.Is(err, ErrClosed) {
				d.readErr = err
				if errors.Is(err, io.EOF) {
					d.logger.Warn("Launchpad disconnected")
				} else {
					d.logger.Error("Failed to read from Launchpad", "error", err)
				}
			}
			return
		}
		msg := Decode(raw)
		metrics.MIDIIn(msg.Kind())
		if u, ok := msg.(UnknownMessage); ok {
			d.logger.Debug("Ignoring unknown message", "raw", fmt.Sprintf("% x", u.Raw))
			continue
		}
		if d.handler != nil {
			d.handler(msg)
		}
	}
}

// Done is closed when the reader stops, either on Close or on disconnect.
func (d *Device) Done() <-chan struct{} {
	return d.done
}

// Err returns the read error that stopped the reader, if any.
func (d *Device) Err() error {
	select {
	case <-d.done:
		return d.readErr
	default:
		return nil
	}
}

// Send encodes and writes one command. KeyOn, KeyOff and SetColors are
// mirrored into the device frame.
func (d *Device) Send(cmd Command) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sendLocked(cmd)
}

func (d *Device) sendLocked(cmd Command) error {
	if d.closed {
		return ErrClosed
	}
	buf, err := AppendCommand(d.sendBuf[:0], cmd)
	if err != nil {
		return err
	}
	d.sendBuf = buf
	if err := d.port.WriteMessage(buf); err != nil {
		return fmt.Errorf("send %s: %w", cmd.Name(), err)
	}
	metrics.MIDIOut(cmd.Name(), len(buf))

	switch c := cmd.(type) {
	case KeyOn:
		d.current[c.Key] = c.Color
	case KeyOff:
		d.current[c.Key] = Off
	case SetColors:
		for _, e := range c.Entries {
			d.current[e.Key] = e.Color
		}
	}
	return nil
}

// FullUpdate brings the device in line with frame, sending only pads that
// changed. Simple colours go out one note each; complex colours share a
// single SetColors message.
func (d *Device) FullUpdate(frame Frame) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.batch = d.batch[:0]
	changed := 0
	for _, k := range AllKeys() {
		want := frame.Get(k)
		if want == d.current[k] {
			continue
		}
		changed++
		if want.Complex {
			d.batch = append(d.batch, ColorEntry{Key: k, Color: want})
			continue
		}
		if err := d.sendLocked(KeyOn{Key: k, Color: want}); err != nil {
			return err
		}
	}
	if len(d.batch) > 0 {
		if err := d.sendLocked(SetColors{Entries: d.batch}); err != nil {
			return err
		}
	}
	metrics.FrameUpdated(changed)
	return nil
}

// Current returns a copy of what the device is believed to show.
func (d *Device) Current() Frame {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current.Clone()
}

// Close leaves programmer mode and releases the port.
func (d *Device) Close() error {
	var err error
	d.closeOnce.Do(func() {
		if sendErr := d.Send(SetProgrammerMode{Enabled: false}); sendErr != nil {
			d.logger.Warn("Could not deinitialise Launchpad", "error", sendErr)
		}
		d.mu.Lock()
		d.closed = true
		d.mu.Unlock()

		d.cancel()
		err = d.port.Close()
		<-d.done
		metrics.DeviceDisconnected()
	})
	return err
}
