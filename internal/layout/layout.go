// Package layout loads the user-editable part of the desktop page: shortcut
// buttons, output colours and the workspace grid size.
package layout

import (
	"bytes"
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"

	"github.com/pelletier/go-toml/v2"
	"github.com/smazurov/padnode/internal/launchpad"
)

// MaxWorkspaces is the size of the workspace grid (three rows of five).
const MaxWorkspaces = 15

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid layout")

// Shortcut is a pad that runs an i3 command, or acts on a systemd user
// unit, when pressed.
type Shortcut struct {
	Key     launchpad.Key `toml:"key"`
	Color   uint8         `toml:"color"`
	Pressed uint8         `toml:"pressed"`
	Command string        `toml:"command"`
	Unit    string        `toml:"unit"`
	Action  string        `toml:"action"`
}

// UnitActions are the accepted values of Shortcut.Action.
var UnitActions = []string{"start", "stop", "restart"}

// Layout is the parsed layout.toml.
type Layout struct {
	Workspaces   int              `toml:"workspaces"`
	MicUSBID     string           `toml:"mic_usb_id"`
	OutputColors map[string]uint8 `toml:"output_colors"`
	Shortcuts    []Shortcut       `toml:"shortcuts"`
}

// reserved lists pads drawn by fixed desktop-page widgets.
var reserved = func() map[launchpad.Key]string {
	m := map[launchpad.Key]string{
		19: "sleep", 53: "shift", 58: "play/pause", 88: "mic indicator",
		91: "arrow", 92: "arrow", 93: "arrow", 94: "arrow",
		95: "tab", 96: "tab", 97: "tab", 98: "tab",
	}
	for _, k := range launchpad.Rect(11, 18) {
		m[k] = "piano"
	}
	for _, k := range launchpad.Rect(22, 27) {
		m[k] = "piano"
	}
	for _, k := range launchpad.Rect(61, 85) {
		m[k] = "workspace"
	}
	for y := uint8(2); y <= 8; y++ {
		m[launchpad.CoordsToKey(9, y)] = "output"
	}
	return m
}()

// Default returns the built-in layout.
func Default() Layout {
	return Layout{
		Workspaces: MaxWorkspaces,
		MicUSBID:   "17a0:0304",
		OutputColors: map[string]uint8{
			"DP-1":   29,
			"DP-2":   21,
			"HDMI-1": 37,
			"HDMI-2": 45,
		},
		Shortcuts: []Shortcut{
			{Key: 68, Color: 92, Pressed: 92, Command: "exec --no-startup-id i3-workspace-swap"},
			{Key: 51, Color: 109, Pressed: 109, Command: "exec --no-startup-id lock"},
			{Key: 67, Color: 70, Pressed: 71, Command: "exec --no-startup-id iot big-lamp on"},
			{Key: 57, Color: 70, Pressed: 71, Command: "exec --no-startup-id iot big-lamp off"},
			{Key: 52, Color: 110, Pressed: 110, Command: "exec --no-startup-id xset dpms force off"},
		},
	}
}

// Load reads a layout file. Sections missing from the file keep their
// defaults. An empty path returns Default.
func Load(path string) (Layout, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Layout{}, fmt.Errorf("read layout: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates layout TOML.
func Parse(data []byte) (Layout, error) {
	var l Layout
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&l); err != nil {
		return Layout{}, fmt.Errorf("parse layout: %w", err)
	}

	def := Default()
	if l.Workspaces == 0 {
		l.Workspaces = def.Workspaces
	}
	if l.MicUSBID == "" {
		l.MicUSBID = def.MicUSBID
	}
	if l.OutputColors == nil {
		l.OutputColors = def.OutputColors
	}
	if l.Shortcuts == nil {
		l.Shortcuts = def.Shortcuts
	}

	if err := l.Validate(); err != nil {
		return Layout{}, err
	}
	return l, nil
}

// Validate checks workspace count, colours and shortcut placement.
func (l Layout) Validate() error {
	if l.Workspaces < 1 || l.Workspaces > MaxWorkspaces {
		return fmt.Errorf("%w: workspaces %d not in 1..%d", ErrInvalid, l.Workspaces, MaxWorkspaces)
	}
	for _, name := range slices.Sorted(maps.Keys(l.OutputColors)) {
		if c := l.OutputColors[name]; c > 125 {
			// Output colours are shifted by up to +2 for unfocused outputs.
			return fmt.Errorf("%w: output %s colour %d > 125", ErrInvalid, name, c)
		}
	}

	seen := make(map[launchpad.Key]bool, len(l.Shortcuts))
	for i, s := range l.Shortcuts {
		switch {
		case !launchpad.Valid(s.Key):
			return fmt.Errorf("%w: shortcut %d: key %d", ErrInvalid, i, s.Key)
		case reserved[s.Key] != "":
			return fmt.Errorf("%w: shortcut %d: key %d is the %s button", ErrInvalid, i, s.Key, reserved[s.Key])
		case seen[s.Key]:
			return fmt.Errorf("%w: shortcut %d: key %d used twice", ErrInvalid, i, s.Key)
		case s.Color > 127 || s.Pressed > 127:
			return fmt.Errorf("%w: shortcut %d: colour out of range", ErrInvalid, i)
		case s.Command == "" && s.Unit == "":
			return fmt.Errorf("%w: shortcut %d: needs a command or a unit", ErrInvalid, i)
		case s.Command != "" && s.Unit != "":
			return fmt.Errorf("%w: shortcut %d: command and unit are exclusive", ErrInvalid, i)
		case s.Unit != "" && !slices.Contains(UnitActions, s.Action):
			return fmt.Errorf("%w: shortcut %d: unit action %q not one of %v", ErrInvalid, i, s.Action, UnitActions)
		}
		seen[s.Key] = true
	}
	return nil
}

// Units returns the systemd units referenced by shortcuts, sorted.
func (l Layout) Units() []string {
	var units []string
	for _, s := range l.Shortcuts {
		if s.Unit != "" && !slices.Contains(units, s.Unit) {
			units = append(units, s.Unit)
		}
	}
	slices.Sort(units)
	return units
}

// OutputColor returns the configured colour for an output.
func (l Layout) OutputColor(name string) (uint8, bool) {
	c, ok := l.OutputColors[name]
	return c, ok
}
