// Package wm draws the i3 desktop page: workspace grid, output buttons,
// focus arrows and shortcuts.
package wm

import (
	"cmp"
	"fmt"
	"hash/fnv"
	"slices"
	"strconv"

	"github.com/smazurov/padnode/internal/launchpad"
	"github.com/smazurov/padnode/internal/layout"
	"github.com/smazurov/padnode/pkg/i3ipc"
)

// Client is the part of an i3 connection the desktop page needs.
type Client interface {
	RunCommand(cmd string) ([]i3ipc.CommandResult, error)
	GetWorkspaces() ([]i3ipc.Workspace, error)
	GetOutputs() ([]i3ipc.Output, error)
}

// Snapshot is the window manager state the page is drawn from.
type Snapshot struct {
	// Workspaces by number. The first workspace wins on duplicates.
	Workspaces map[int]i3ipc.Workspace
	// PerOutput lists workspace numbers per output in i3's order.
	PerOutput map[string][]int
	// Outputs are the active outputs, top to bottom then left to right.
	Outputs []i3ipc.Output
}

// NewSnapshot indexes workspaces and outputs.
func NewSnapshot(workspaces []i3ipc.Workspace, outputs []i3ipc.Output) Snapshot {
	s := Snapshot{
		Workspaces: make(map[int]i3ipc.Workspace, len(workspaces)),
		PerOutput:  make(map[string][]int),
	}
	for _, w := range workspaces {
		s.PerOutput[w.Output] = append(s.PerOutput[w.Output], w.Num)
		if _, ok := s.Workspaces[w.Num]; !ok {
			s.Workspaces[w.Num] = w
		}
	}
	for _, o := range outputs {
		if o.Active {
			s.Outputs = append(s.Outputs, o)
		}
	}
	slices.SortStableFunc(s.Outputs, func(a, b i3ipc.Output) int {
		return cmp.Or(cmp.Compare(a.Rect.Y, b.Rect.Y), cmp.Compare(a.Rect.X, b.Rect.X))
	})
	return s
}

// Load queries i3 for a fresh snapshot.
func Load(c Client) (Snapshot, error) {
	ws, err := c.GetWorkspaces()
	if err != nil {
		return Snapshot{}, fmt.Errorf("get workspaces: %w", err)
	}
	outs, err := c.GetOutputs()
	if err != nil {
		return Snapshot{}, fmt.Errorf("get outputs: %w", err)
	}
	return NewSnapshot(ws, outs), nil
}

// CurrentWorkspace returns the workspace shown on o, if i3 reported one
// with a numeric name.
func (s Snapshot) CurrentWorkspace(o i3ipc.Output) (i3ipc.Workspace, bool) {
	if o.CurrentWorkspace == nil {
		return i3ipc.Workspace{}, false
	}
	n, err := strconv.Atoi(*o.CurrentWorkspace)
	if err != nil {
		return i3ipc.Workspace{}, false
	}
	w, ok := s.Workspaces[n]
	return w, ok
}

// WorkspaceKey places workspace n (0..14) on the grid: three rows of
// five, top row first, starting at pad 81.
func WorkspaceKey(n int) launchpad.Key {
	return launchpad.Key(81 - (n/5)*10 + n%5)
}

// OutputKey is the side button for the i-th active output.
func OutputKey(i int) launchpad.Key {
	return launchpad.Key(89 - 10*i)
}

// MaxOutputs is the number of output buttons in the side column.
const MaxOutputs = 7

var hashColors = [...]uint8{21, 29, 37, 45}

// OutputColor is the base colour of an output: the configured one, or a
// stable pick from four hues.
func OutputColor(l layout.Layout, name string) uint8 {
	if c, ok := l.OutputColor(name); ok {
		return c
	}
	h := fnv.New32a()
	h.Write([]byte(name))
	return hashColors[h.Sum32()%uint32(len(hashColors))]
}

// WorkspaceColor is the pad colour of a workspace that is not urgent.
func WorkspaceColor(l layout.Layout, w i3ipc.Workspace) launchpad.Color {
	c := OutputColor(l, w.Output)
	switch {
	case !w.Visible:
		c += 2
	case w.Focused && c > 0:
		c--
	}
	return launchpad.Simple(c)
}

// outputColor is the pad colour of an output button.
func (s Snapshot) outputColor(l layout.Layout, o i3ipc.Output) launchpad.Color {
	w, ok := s.CurrentWorkspace(o)
	if !ok {
		return launchpad.Simple(6)
	}
	c := OutputColor(l, w.Output)
	if !w.Focused {
		c += 2
	}
	return launchpad.Simple(c)
}
