package i3ipc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// ErrCommandFailed is returned when i3 rejects a command.
var ErrCommandFailed = errors.New("i3ipc: command failed")

// SocketPath returns $I3SOCK, or asks i3 for its socket path.
func SocketPath(ctx context.Context) (string, error) {
	if p := os.Getenv("I3SOCK"); p != "" {
		return p, nil
	}
	out, err := exec.CommandContext(ctx, "i3", "--get-socketpath").Output()
	if err != nil {
		return "", fmt.Errorf("i3 --get-socketpath: %w", err)
	}
	p := strings.TrimSpace(string(out))
	if p == "" {
		return "", errors.New("i3 --get-socketpath: empty output")
	}
	return p, nil
}

// Client issues requests over one IPC connection. Requests are serialised.
type Client struct {
	mu      sync.Mutex
	conn    net.Conn
	buf     []byte
	timeout time.Duration
}

// DefaultTimeout bounds a single request and its reply.
const DefaultTimeout = 5 * time.Second

// Dial connects to the i3 socket at path.
func Dial(ctx context.Context, path string) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", path)
	if err != nil {
		return nil, fmt.Errorf("dial i3: %w", err)
	}
	return NewClient(conn), nil
}

// NewClient wraps an established connection.
func NewClient(conn net.Conn) *Client {
	return &Client{conn: conn, timeout: DefaultTimeout}
}

// SetTimeout changes how long a request may wait for its reply.
// Zero disables the deadline.
func (c *Client) SetTimeout(d time.Duration) {
	c.mu.Lock()
	c.timeout = d
	c.mu.Unlock()
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) roundTrip(t MessageType, payload []byte, reply any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.timeout > 0 {
		if err := c.conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
			return fmt.Errorf("set deadline: %w", err)
		}
		defer c.conn.SetDeadline(time.Time{})
	}

	c.buf = appendMessage(c.buf[:0], t, payload)
	if _, err := c.conn.Write(c.buf); err != nil {
		return fmt.Errorf("write request %d: %w", t, err)
	}
	for {
		rt, body, err := readMessage(c.conn)
		if err != nil {
			return fmt.Errorf("read reply %d: %w", t, err)
		}
		// i3 does not send events on a connection that never subscribed,
		// but skip them rather than misparse.
		if rt&eventBit != 0 {
			continue
		}
		if MessageType(rt) != t {
			return fmt.Errorf("i3ipc: reply type %d for request %d", rt, t)
		}
		if err := json.Unmarshal(body, reply); err != nil {
			return fmt.Errorf("decode reply %d: %w", t, err)
		}
		return nil
	}
}

// RunCommand runs an i3 command string. It returns ErrCommandFailed
// if any of the (possibly ;-separated) commands failed.
func (c *Client) RunCommand(cmd string) ([]CommandResult, error) {
	var results []CommandResult
	if err := c.roundTrip(RunCommand, []byte(cmd), &results); err != nil {
		return nil, err
	}
	var msgs []string
	for _, r := range results {
		if !r.Success {
			msgs = append(msgs, r.Error)
		}
	}
	if len(msgs) > 0 {
		return results, fmt.Errorf("%w: %q: %s", ErrCommandFailed, cmd, strings.Join(msgs, "; "))
	}
	return results, nil
}

// GetWorkspaces lists workspaces.
func (c *Client) GetWorkspaces() ([]Workspace, error) {
	var ws []Workspace
	if err := c.roundTrip(GetWorkspaces, nil, &ws); err != nil {
		return nil, err
	}
	return ws, nil
}

// GetOutputs lists outputs, including inactive ones.
func (c *Client) GetOutputs() ([]Output, error) {
	var outs []Output
	if err := c.roundTrip(GetOutputs, nil, &outs); err != nil {
		return nil, err
	}
	return outs, nil
}

// Subscribe sends a SUBSCRIBE request on conn and then streams events from
// it until ctx is done or the connection fails. conn is owned by the
// subscription and closed when the channel closes.
func Subscribe(ctx context.Context, conn net.Conn, types ...EventType) (<-chan Event, error) {
	names := make([]string, 0, len(types))
	for _, t := range types {
		n, ok := eventNames[t]
		if !ok {
			conn.Close()
			return nil, fmt.Errorf("i3ipc: unknown event type %s", t)
		}
		names = append(names, n)
	}
	payload, err := json.Marshal(names)
	if err != nil {
		conn.Close()
		return nil, err
	}

	var reply struct {
		Success bool `json:"success"`
	}
	c := NewClient(conn)
	if err := c.roundTrip(SubscribeType, payload, &reply); err != nil {
		conn.Close()
		return nil, err
	}
	if !reply.Success {
		conn.Close()
		return nil, fmt.Errorf("%w: subscribe %s", ErrCommandFailed, payload)
	}

	events := make(chan Event, 16)
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	go func() {
		defer close(events)
		defer stop()
		defer conn.Close()
		for {
			rt, body, err := readMessage(conn)
			if err != nil {
				return
			}
			if rt&eventBit == 0 {
				continue
			}
			ev := Event{Type: EventType(rt), Payload: body}
			var head struct {
				Change string `json:"change"`
			}
			if json.Unmarshal(body, &head) == nil {
				ev.Change = head.Change
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return events, nil
}

// SubscribePath dials path and subscribes on the new connection.
func SubscribePath(ctx context.Context, path string, types ...EventType) (<-chan Event, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", path)
	if err != nil {
		return nil, fmt.Errorf("dial i3: %w", err)
	}
	return Subscribe(ctx, conn, types...)
}
