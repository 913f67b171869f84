// Package devices publishes sound card hotplug events on the bus.
package devices

import (
	"context"
	"time"

	"github.com/smazurov/padnode/internal/events"
	"github.com/smazurov/padnode/internal/logging"
)

// Publisher receives hotplug events.
type Publisher interface {
	Publish(ev events.Event)
}

// Watcher forwards add and remove events of sound cards.
type Watcher struct {
	pub    Publisher
	logger logging.Logger
	now    func() time.Time
}

// NewWatcher creates a watcher publishing to pub.
func NewWatcher(pub Publisher, logger logging.Logger) *Watcher {
	return &Watcher{pub: pub, logger: logger, now: time.Now}
}

// Run watches until ctx is done. It returns ErrUnsupported where kernel
// events are not available.
func (w *Watcher) Run(ctx context.Context) error {
	return w.run(ctx)
}

func relevantAction(action string) bool {
	return action == "add" || action == "remove"
}
