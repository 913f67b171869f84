package wm

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/smazurov/padnode/internal/events"
	"github.com/smazurov/padnode/internal/logging"
	"github.com/smazurov/padnode/pkg/i3ipc"
)

// Publisher receives workspace change events.
type Publisher interface {
	Publish(ev events.Event)
}

// SubscribeFunc opens an event subscription. The channel closes when the
// connection is lost or ctx is done.
type SubscribeFunc func(ctx context.Context, types ...i3ipc.EventType) (<-chan i3ipc.Event, error)

// PathSubscriber subscribes on the i3 socket found by i3ipc.SocketPath.
func PathSubscriber(ctx context.Context, types ...i3ipc.EventType) (<-chan i3ipc.Event, error) {
	path, err := i3ipc.SocketPath(ctx)
	if err != nil {
		return nil, err
	}
	return i3ipc.SubscribePath(ctx, path, types...)
}

// Watcher turns i3 workspace and output events into
// WorkspacesChangedEvent, resubscribing when i3 restarts.
type Watcher struct {
	subscribe  SubscribeFunc
	bus        Publisher
	logger     logging.Logger
	minBackoff time.Duration
	maxBackoff time.Duration
}

// NewWatcher creates a watcher. A nil subscribe uses PathSubscriber.
func NewWatcher(subscribe SubscribeFunc, bus Publisher, logger logging.Logger) *Watcher {
	if subscribe == nil {
		subscribe = PathSubscriber
	}
	return &Watcher{
		subscribe:  subscribe,
		bus:        bus,
		logger:     logger,
		minBackoff: 250 * time.Millisecond,
		maxBackoff: 10 * time.Second,
	}
}

// Run watches until ctx is done.
func (w *Watcher) Run(ctx context.Context) {
	backoff := w.minBackoff
	for {
		ch, err := w.subscribe(ctx, i3ipc.WorkspaceEvent, i3ipc.OutputEvent)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			w.logger.Warn("i3 subscribe failed", "error", err, "retry_in", backoff)
		} else {
			w.logger.Info("Subscribed to i3 events")
			backoff = w.minBackoff
			// Anything loaded before this subscription may be stale.
			w.bus.Publish(events.WorkspacesChangedEvent{Change: "subscribe"})
			for ev := range ch {
				w.logger.Debug("i3 event", "type", ev.Type.String(), "change", ev.Change)
				w.bus.Publish(events.WorkspacesChangedEvent{Change: ev.Change})
			}
			if ctx.Err() != nil {
				return
			}
			w.logger.Warn("i3 event stream closed", "retry_in", backoff)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, w.maxBackoff)
	}
}

// DialFunc opens a command connection.
type DialFunc func(ctx context.Context) (*i3ipc.Client, error)

// PathDialer dials the i3 socket found by i3ipc.SocketPath.
func PathDialer(ctx context.Context) (*i3ipc.Client, error) {
	path, err := i3ipc.SocketPath(ctx)
	if err != nil {
		return nil, err
	}
	return i3ipc.Dial(ctx, path)
}

// Conn is a Client that redials once when a request fails on a broken
// connection, for example after `i3-msg restart`.
type Conn struct {
	dial DialFunc

	mu     sync.Mutex
	client *i3ipc.Client
}

// NewConn returns a lazily connected Client. A nil dial uses PathDialer.
func NewConn(dial DialFunc) *Conn {
	if dial == nil {
		dial = PathDialer
	}
	return &Conn{dial: dial}
}

func (c *Conn) do(fn func(*i3ipc.Client) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for attempt := 0; ; attempt++ {
		if c.client == nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			client, err := c.dial(ctx)
			cancel()
			if err != nil {
				return err
			}
			c.client = client
		}
		err := fn(c.client)
		if err == nil || errors.Is(err, i3ipc.ErrCommandFailed) || attempt > 0 {
			return err
		}
		_ = c.client.Close()
		c.client = nil
	}
}

// RunCommand implements Client.
func (c *Conn) RunCommand(cmd string) (res []i3ipc.CommandResult, err error) {
	err = c.do(func(cl *i3ipc.Client) error {
		res, err = cl.RunCommand(cmd)
		return err
	})
	return res, err
}

// GetWorkspaces implements Client.
func (c *Conn) GetWorkspaces() (ws []i3ipc.Workspace, err error) {
	err = c.do(func(cl *i3ipc.Client) error {
		ws, err = cl.GetWorkspaces()
		return err
	})
	return ws, err
}

// GetOutputs implements Client.
func (c *Conn) GetOutputs() (outs []i3ipc.Output, err error) {
	err = c.do(func(cl *i3ipc.Client) error {
		outs, err = cl.GetOutputs()
		return err
	})
	return outs, err
}

// Close closes the current connection, if any.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client == nil {
		return nil
	}
	err := c.client.Close()
	c.client = nil
	return err
}
