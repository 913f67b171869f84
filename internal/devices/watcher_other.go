//go:build !linux

package devices

import (
	"context"
	"errors"
)

// ErrUnsupported is returned by Run on platforms without kernel uevents.
var ErrUnsupported = errors.New("hotplug monitoring not supported on this platform")

func (w *Watcher) run(_ context.Context) error {
	return ErrUnsupported
}
