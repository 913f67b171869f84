package midi

import (
	"context"
	"errors"
	"io"
	"sync"
)

// ErrClosed is returned by ReadMessage after Close.
var ErrClosed = errors.New("midi stream closed")

// Stream turns a raw MIDI byte device into a message transport. A
// goroutine reads the device and frames messages; ReadMessage hands them
// out and honours context cancellation.
type Stream struct {
	rwc  io.ReadWriteCloser
	msgs chan []byte
	done chan struct{}

	wmu sync.Mutex

	err       error
	closeOnce sync.Once
	closeErr  error
}

// NewStream starts reading from rwc.
func NewStream(rwc io.ReadWriteCloser) *Stream {
	s := &Stream{
		rwc:  rwc,
		msgs: make(chan []byte, 64),
		done: make(chan struct{}),
	}
	go s.readLoop()
	return s
}

func (s *Stream) readLoop() {
	defer close(s.msgs)

	var parser Parser
	buf := make([]byte, 256)
	for {
		n, err := s.rwc.Read(buf)
		for _, msg := range parser.Feed(buf[:n]) {
			select {
			case s.msgs <- msg:
			case <-s.done:
				return
			}
		}
		if err != nil {
			s.err = err
			return
		}
	}
}

// ReadMessage returns the next complete message. It returns io.EOF once
// the device is gone and ErrClosed after Close.
func (s *Stream) ReadMessage(ctx context.Context) ([]byte, error) {
	select {
	case msg, ok := <-s.msgs:
		if !ok {
			return nil, s.readErr()
		}
		return msg, nil
	case <-s.done:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Stream) readErr() error {
	select {
	case <-s.done:
		return ErrClosed
	default:
	}
	if s.err == nil || errors.Is(s.err, io.EOF) {
		return io.EOF
	}
	return s.err
}

// WriteMessage writes one complete message.
func (s *Stream) WriteMessage(msg []byte) error {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	for len(msg) > 0 {
		n, err := s.rwc.Write(msg)
		if err != nil {
			return err
		}
		msg = msg[n:]
	}
	return nil
}

// Close closes the underlying device and stops the reader.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		s.closeErr = s.rwc.Close()
	})
	return s.closeErr
}
