package wm

import (
	"context"
	"encoding/binary"
	"errors"
	"io"
	"log/slog"
	"net"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/smazurov/padnode/internal/events"
	"github.com/smazurov/padnode/internal/launchpad"
	"github.com/smazurov/padnode/internal/layout"
	"github.com/smazurov/padnode/internal/ui"
	"github.com/smazurov/padnode/pkg/i3ipc"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func strp(s string) *string { return &s }

type fakeClient struct {
	mu         sync.Mutex
	workspaces []i3ipc.Workspace
	outputs    []i3ipc.Output
	commands   []string
	err        error
}

func (c *fakeClient) RunCommand(cmd string) ([]i3ipc.CommandResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.commands = append(c.commands, cmd)
	return []i3ipc.CommandResult{{Success: true}}, nil
}

func (c *fakeClient) GetWorkspaces() ([]i3ipc.Workspace, error) {
	return c.workspaces, c.err
}

func (c *fakeClient) GetOutputs() ([]i3ipc.Output, error) {
	return c.outputs, c.err
}

func (c *fakeClient) takeCommands() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	cmds := c.commands
	c.commands = nil
	return cmds
}

type nopDevice struct{}

func (nopDevice) Send(launchpad.Command) error { return nil }

// twoScreens has DP-2 above DP-1, workspace 1 focused on DP-1, 3 visible
// on DP-2, 2 hidden on DP-1 and 4 urgent on DP-2.
func twoScreens() *fakeClient {
	return &fakeClient{
		workspaces: []i3ipc.Workspace{
			{Num: 1, Name: "1", Visible: true, Focused: true, Output: "DP-1"},
			{Num: 2, Name: "2", Output: "DP-1"},
			{Num: 3, Name: "3", Visible: true, Output: "DP-2"},
			{Num: 4, Name: "4", Urgent: true, Output: "DP-2"},
		},
		outputs: []i3ipc.Output{
			{Name: "xroot-0", Active: false},
			{Name: "DP-1", Active: true, CurrentWorkspace: strp("1"), Rect: i3ipc.Rect{X: 0, Y: 1080}},
			{Name: "DP-2", Active: true, CurrentWorkspace: strp("3"), Rect: i3ipc.Rect{X: 0, Y: 0}},
		},
	}
}

func TestNewSnapshot(t *testing.T) {
	c := twoScreens()
	c.workspaces = append(c.workspaces, i3ipc.Workspace{Num: 1, Name: "1:dup", Output: "DP-2"})
	s := NewSnapshot(c.workspaces, c.outputs)

	if s.Workspaces[1].Name != "1" {
		t.Errorf("duplicate number replaced first workspace: %+v", s.Workspaces[1])
	}
	if want := []int{1, 2}; !reflect.DeepEqual(s.PerOutput["DP-1"], want) {
		t.Errorf("PerOutput[DP-1] = %v, want %v", s.PerOutput["DP-1"], want)
	}
	if len(s.Outputs) != 2 || s.Outputs[0].Name != "DP-2" || s.Outputs[1].Name != "DP-1" {
		t.Errorf("Outputs = %+v", s.Outputs)
	}
}

func TestOutputsSortYThenX(t *testing.T) {
	outs := []i3ipc.Output{
		{Name: "c", Active: true, Rect: i3ipc.Rect{X: 1920, Y: 0}},
		{Name: "d", Active: true, Rect: i3ipc.Rect{X: 0, Y: 1080}},
		{Name: "a", Active: true, Rect: i3ipc.Rect{X: 0, Y: 0}},
	}
	s := NewSnapshot(nil, outs)
	var names []string
	for _, o := range s.Outputs {
		names = append(names, o.Name)
	}
	if want := []string{"a", "c", "d"}; !reflect.DeepEqual(names, want) {
		t.Errorf("order = %v, want %v", names, want)
	}
}

func TestCurrentWorkspace(t *testing.T) {
	s := NewSnapshot(twoScreens().workspaces, nil)
	if w, ok := s.CurrentWorkspace(i3ipc.Output{CurrentWorkspace: strp("3")}); !ok || w.Num != 3 {
		t.Errorf("CurrentWorkspace(3) = %+v, %v", w, ok)
	}
	for _, cur := range []*string{nil, strp("mail"), strp("9")} {
		if _, ok := s.CurrentWorkspace(i3ipc.Output{CurrentWorkspace: cur}); ok {
			t.Errorf("CurrentWorkspace(%v) found a workspace", cur)
		}
	}
}

func TestWorkspaceKey(t *testing.T) {
	want := map[int]launchpad.Key{0: 81, 4: 85, 5: 71, 9: 75, 10: 61, 14: 65}
	for n, k := range want {
		if got := WorkspaceKey(n); got != k {
			t.Errorf("WorkspaceKey(%d) = %d, want %d", n, got, k)
		}
	}
	if OutputKey(0) != 89 || OutputKey(6) != 29 {
		t.Errorf("OutputKey(0) = %d, OutputKey(6) = %d", OutputKey(0), OutputKey(6))
	}
}

func TestOutputColor(t *testing.T) {
	l := layout.Default()
	if got := OutputColor(l, "DP-2"); got != 21 {
		t.Errorf("DP-2 = %d, want 21", got)
	}
	got := OutputColor(l, "eDP-1")
	if got != OutputColor(l, "eDP-1") {
		t.Error("hashed colour is not stable")
	}
	switch got {
	case 21, 29, 37, 45:
	default:
		t.Errorf("hashed colour %d not in palette", got)
	}
}

func TestWorkspaceColor(t *testing.T) {
	l := layout.Default()
	tests := []struct {
		w    i3ipc.Workspace
		want uint8
	}{
		{i3ipc.Workspace{Output: "DP-1", Visible: true, Focused: true}, 28},
		{i3ipc.Workspace{Output: "DP-1", Visible: true}, 29},
		{i3ipc.Workspace{Output: "DP-1"}, 31},
	}
	for _, tt := range tests {
		if got := WorkspaceColor(l, tt.w); got != launchpad.Simple(tt.want) {
			t.Errorf("WorkspaceColor(%+v) = %v, want %d", tt.w, got, tt.want)
		}
	}
}

func TestCommands(t *testing.T) {
	tests := []struct{ got, want string }{
		{FocusCommand("up", false), "focus up"},
		{FocusCommand("left", true), "move left"},
		{WorkspaceCommand(3, false), "workspace number 3"},
		{WorkspaceCommand(3, true), "move container to workspace number 3; workspace number 3"},
		{OutputCommand("DP-1", false), "focus output DP-1"},
		{OutputCommand("DP-1", true), "move container to output DP-1; focus output DP-1"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("got %q, want %q", tt.got, tt.want)
		}
	}
}

func TestSwapCommand(t *testing.T) {
	s := NewSnapshot(twoScreens().workspaces, nil)
	got := SwapCommand(s, "DP-1", "DP-2", "3")
	want := "workspace 1, move workspace to output DP-2, workspace 2, move workspace to output DP-2, " +
		"workspace 3, move workspace to output DP-1, workspace 4, move workspace to output DP-1, " +
		"workspace 1, workspace 3"
	if got != want {
		t.Errorf("SwapCommand =\n%q\nwant\n%q", got, want)
	}
}

func newTestDesktop(t *testing.T, c *fakeClient) (*Desktop, *ui.UI) {
	t.Helper()
	d := NewDesktop(c, layout.Default(), testLogger())
	if err := d.Refresh(); err != nil {
		t.Fatal(err)
	}
	return d, ui.New(nopDevice{}, func(events.Event) {}, testLogger())
}

func render(d *Desktop, u *ui.UI, ev events.Event, shift bool) {
	u.Begin(ev)
	d.Render(context.Background(), u, shift)
}

func TestRenderDrawsState(t *testing.T) {
	c := twoScreens()
	d, u := newTestDesktop(t, c)
	var alerts []launchpad.Key
	d.OnUrgent(func(k launchpad.Key) { alerts = append(alerts, k) })

	render(d, u, events.RedrawEvent{}, false)
	f := u.Frame()
	checks := map[launchpad.Key]launchpad.Color{
		WorkspaceKey(0): launchpad.Off,
		WorkspaceKey(1): launchpad.Simple(28),
		WorkspaceKey(2): launchpad.Simple(31),
		WorkspaceKey(3): launchpad.Simple(21),
		WorkspaceKey(4): launchpad.Pulse(9),
		OutputKey(0):    launchpad.Simple(23),
		OutputKey(1):    launchpad.Simple(29),
		OutputKey(2):    launchpad.Off,
		91:              arrowIdle,
		68:              launchpad.Simple(92),
	}
	for k, want := range checks {
		if got := f.Get(k); got != want {
			t.Errorf("pad %d = %v, want %v", k, got, want)
		}
	}

	// Workspace 4 was already urgent on the first render.
	if len(alerts) != 0 {
		t.Errorf("alerts on first render = %v", alerts)
	}
	c.workspaces[1].Urgent = true
	if err := d.Refresh(); err != nil {
		t.Fatal(err)
	}
	render(d, u, events.WorkspacesChangedEvent{}, false)
	render(d, u, events.RedrawEvent{}, false)
	if want := []launchpad.Key{WorkspaceKey(2)}; !reflect.DeepEqual(alerts, want) {
		t.Errorf("alerts = %v, want %v", alerts, want)
	}
	if len(c.takeCommands()) != 0 {
		t.Error("redraws ran commands")
	}
}

func TestRenderCommands(t *testing.T) {
	c := twoScreens()
	d, u := newTestDesktop(t, c)

	tests := []struct {
		name  string
		key   launchpad.Key
		shift bool
		want  string
	}{
		{"arrow", 93, false, "focus left"},
		{"arrow shift", 94, true, "move right"},
		{"workspace", WorkspaceKey(7), false, "workspace number 7"},
		{"workspace shift", WorkspaceKey(2), true, "move container to workspace number 2; workspace number 2"},
		{"output", OutputKey(1), false, "focus output DP-1"},
		{"output shift", OutputKey(0), true, "move container to output DP-2; focus output DP-2"},
		{"shortcut", 51, false, "exec --no-startup-id lock"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			render(d, u, events.KeyDownEvent{Key: tt.key}, tt.shift)
			render(d, u, events.KeyUpEvent{Key: tt.key}, tt.shift)
			got := c.takeCommands()
			if len(got) != 1 || got[0] != tt.want {
				t.Errorf("commands = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFocusedUrgentWorkspace(t *testing.T) {
	c := twoScreens()
	c.workspaces[0].Urgent = true
	d, u := newTestDesktop(t, c)
	render(d, u, events.KeyDownEvent{Key: WorkspaceKey(1)}, false)
	if got := c.takeCommands(); len(got) != 1 || got[0] != UrgentCommand {
		t.Errorf("commands = %q", got)
	}
}

func TestOutputSwap(t *testing.T) {
	c := twoScreens()
	d, u := newTestDesktop(t, c)

	render(d, u, events.KeyDownEvent{Key: OutputKey(1)}, false)
	c.takeCommands()
	render(d, u, events.KeyDownEvent{Key: OutputKey(0)}, false)

	got := c.takeCommands()
	want := []string{SwapCommand(d.Snapshot(), "DP-1", "DP-2", "3"), "focus output DP-2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("commands = %q, want %q", got, want)
	}

	render(d, u, events.KeyUpEvent{Key: OutputKey(1)}, false)
	render(d, u, events.KeyUpEvent{Key: OutputKey(0)}, false)
	render(d, u, events.KeyDownEvent{Key: OutputKey(0)}, false)
	if got := c.takeCommands(); len(got) != 1 || got[0] != "focus output DP-2" {
		t.Errorf("after release commands = %q", got)
	}
}

type fakeUnits struct {
	calls chan string
}

func (f *fakeUnits) Do(_ context.Context, unit, action string) error {
	f.calls <- action + " " + unit
	return nil
}

func TestUnitShortcut(t *testing.T) {
	c := twoScreens()
	d, u := newTestDesktop(t, c)
	l := layout.Default()
	l.Shortcuts = []layout.Shortcut{{Key: 41, Color: 5, Pressed: 6, Unit: "kanshi.service", Action: "restart"}}
	d.SetLayout(l)

	render(d, u, events.KeyDownEvent{Key: 41}, false)

	units := &fakeUnits{calls: make(chan string, 1)}
	d.SetUnits(units)
	render(d, u, events.KeyDownEvent{Key: 41}, false)
	select {
	case got := <-units.calls:
		if got != "restart kanshi.service" {
			t.Errorf("unit call = %q", got)
		}
	case <-time.After(time.Second):
		t.Fatal("unit action not run")
	}
	if len(c.takeCommands()) != 0 {
		t.Error("unit shortcut ran an i3 command")
	}
}

func TestRefreshKeepsSnapshotOnError(t *testing.T) {
	c := twoScreens()
	d, _ := newTestDesktop(t, c)
	c.err = errors.New("broken pipe")
	if err := d.Refresh(); err == nil {
		t.Fatal("expected error")
	}
	if len(d.Snapshot().Workspaces) != 4 {
		t.Error("snapshot dropped on error")
	}
}

type chanPublisher chan events.Event

func (c chanPublisher) Publish(ev events.Event) { c <- ev }

func TestWatcherResubscribes(t *testing.T) {
	bus := make(chanPublisher, 16)
	var mu sync.Mutex
	attempts := 0
	subscribe := func(_ context.Context, types ...i3ipc.EventType) (<-chan i3ipc.Event, error) {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		if !reflect.DeepEqual(types, []i3ipc.EventType{i3ipc.WorkspaceEvent, i3ipc.OutputEvent}) {
			t.Errorf("types = %v", types)
		}
		if attempts == 2 {
			return nil, errors.New("connection refused")
		}
		ch := make(chan i3ipc.Event, 1)
		ch <- i3ipc.Event{Type: i3ipc.WorkspaceEvent, Change: "focus"}
		close(ch)
		return ch, nil
	}
	w := NewWatcher(subscribe, bus, testLogger())
	w.minBackoff = time.Millisecond
	w.maxBackoff = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	var changes []string
	for len(changes) < 4 {
		select {
		case ev := <-bus:
			changes = append(changes, ev.(events.WorkspacesChangedEvent).Change)
		case <-time.After(2 * time.Second):
			t.Fatalf("timeout, changes = %v", changes)
		}
	}
	want := []string{"subscribe", "focus", "subscribe", "focus"}
	if !reflect.DeepEqual(changes, want) {
		t.Errorf("changes = %v, want %v", changes, want)
	}
}

// serveOnce answers one GET_WORKSPACES request on conn, or closes it
// immediately when broken is set.
func serveOnce(conn net.Conn, broken bool) {
	defer conn.Close()
	if broken {
		return
	}
	header := make([]byte, 14)
	if _, err := io.ReadFull(conn, header); err != nil {
		return
	}
	if _, err := io.CopyN(io.Discard, conn, int64(binary.LittleEndian.Uint32(header[6:]))); err != nil {
		return
	}
	payload := []byte(`[{"num":5,"name":"5","output":"DP-1"}]`)
	reply := append([]byte("i3-ipc"), make([]byte, 8)...)
	binary.LittleEndian.PutUint32(reply[6:], uint32(len(payload)))
	binary.LittleEndian.PutUint32(reply[10:], uint32(i3ipc.GetWorkspaces))
	_, _ = conn.Write(append(reply, payload...))
}

func TestConnRedials(t *testing.T) {
	dials := 0
	c := NewConn(func(context.Context) (*i3ipc.Client, error) {
		dials++
		client, server := net.Pipe()
		go serveOnce(server, dials == 1)
		return i3ipc.NewClient(client), nil
	})
	defer c.Close()

	ws, err := c.GetWorkspaces()
	if err != nil {
		t.Fatalf("GetWorkspaces: %v", err)
	}
	if len(ws) != 1 || ws[0].Num != 5 {
		t.Errorf("workspaces = %+v", ws)
	}
	if dials != 2 {
		t.Errorf("dials = %d, want 2", dials)
	}
}

func TestConnDialError(t *testing.T) {
	boom := errors.New("no socket")
	c := NewConn(func(context.Context) (*i3ipc.Client, error) { return nil, boom })
	if _, err := c.RunCommand("nop"); !errors.Is(err, boom) {
		t.Errorf("RunCommand = %v, want %v", err, boom)
	}
}
