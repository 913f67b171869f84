package systemd

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/coreos/go-systemd/v22/dbus"
)

// ErrUnitNotAllowed is returned for units outside the manager's allowlist.
var ErrUnitNotAllowed = errors.New("unit not allowed")

// Manager controls user systemd units via D-Bus. Only units named at
// construction may be touched.
type Manager struct {
	conn    *dbus.Conn
	allowed []string
}

// NewManager creates a new systemd manager with a user-level D-Bus connection.
func NewManager(ctx context.Context, allowed []string) (*Manager, error) {
	conn, err := dbus.NewUserConnectionContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("connect user bus: %w", err)
	}
	return &Manager{conn: conn, allowed: allowed}, nil
}

// Units returns the allowlisted unit names.
func (m *Manager) Units() []string {
	return slices.Clone(m.allowed)
}

func (m *Manager) check(unit string) error {
	if !slices.Contains(m.allowed, unit) {
		return fmt.Errorf("%w: %s", ErrUnitNotAllowed, unit)
	}
	return nil
}

// UnitStatus retrieves the ActiveState property of a unit.
func (m *Manager) UnitStatus(ctx context.Context, unit string) (string, error) {
	if err := m.check(unit); err != nil {
		return "", err
	}
	prop, err := m.conn.GetUnitPropertyContext(ctx, unit, "ActiveState")
	if err != nil {
		return "", err
	}
	if state, ok := prop.Value.Value().(string); ok {
		return state, nil
	}
	return prop.Value.String(), nil
}

// Do runs action (start, stop, restart) on unit in replace mode and waits
// for the job result.
func (m *Manager) Do(ctx context.Context, unit, action string) error {
	if err := m.check(unit); err != nil {
		return err
	}
	done := make(chan string, 1)
	var err error
	switch action {
	case "start":
		_, err = m.conn.StartUnitContext(ctx, unit, "replace", done)
	case "stop":
		_, err = m.conn.StopUnitContext(ctx, unit, "replace", done)
	case "restart":
		_, err = m.conn.RestartUnitContext(ctx, unit, "replace", done)
	default:
		return fmt.Errorf("unknown unit action %q", action)
	}
	if err != nil {
		return fmt.Errorf("%s %s: %w", action, unit, err)
	}
	select {
	case result := <-done:
		if result != "done" {
			return fmt.Errorf("%s %s: job %s", action, unit, result)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close cleanly closes the D-Bus connection.
func (m *Manager) Close() {
	if m.conn != nil {
		m.conn.Close()
	}
}
