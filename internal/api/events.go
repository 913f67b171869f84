package api

import (
	"context"
	"maps"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"
	"github.com/smazurov/padnode/internal/events"
	"github.com/smazurov/padnode/internal/version"
)

// ConnectedEvent is the first message on every event stream.
type ConnectedEvent struct {
	Message   string `json:"message" example:"SSE connection established" doc:"Greeting"`
	Version   string `json:"version" example:"v0.3.1" doc:"Server version"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Connection time"`
}

func streamEventTypes() map[string]any {
	types := map[string]any{"connected": ConnectedEvent{}}
	maps.Copy(types, events.Names())
	// Logs have their own stream
	delete(types, events.Name(events.LogEntryEvent{}))
	return types
}

func (s *Server) subscribeAll(ch chan<- any) []func() {
	return []func(){
		events.SubscribeToChannel[events.KeyDownEvent](s.eventBus, ch),
		events.SubscribeToChannel[events.KeyUpEvent](s.eventBus, ch),
		events.SubscribeToChannel[events.BrightnessEvent](s.eventBus, ch),
		events.SubscribeToChannel[events.WorkspacesChangedEvent](s.eventBus, ch),
		events.SubscribeToChannel[events.MediaPlayingEvent](s.eventBus, ch),
		events.SubscribeToChannel[events.RedrawEvent](s.eventBus, ch),
		events.SubscribeToChannel[events.ExitEvent](s.eventBus, ch),
		events.SubscribeToChannel[events.TextRequestedEvent](s.eventBus, ch),
		events.SubscribeToChannel[events.BrightnessRequestedEvent](s.eventBus, ch),
		events.SubscribeToChannel[events.DeviceHotplugEvent](s.eventBus, ch),
	}
}

// registerSSERoutes registers the native Huma SSE endpoint.
func (s *Server) registerSSERoutes() {
	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Server-Sent Events Stream",
		Description: "Real-time stream of device input, window manager changes and control requests",
		Tags:        []string{"events"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, streamEventTypes(), func(ctx context.Context, _ *struct{}, send sse.Sender) {
		eventCh := make(chan any, 32)

		unsubscribers := s.subscribeAll(eventCh)
		defer func() {
			for _, unsub := range unsubscribers {
				unsub()
			}
		}()

		if err := send.Data(ConnectedEvent{
			Message:   "SSE connection established",
			Version:   version.Get().Version,
			Timestamp: time.Now().Format(time.RFC3339),
		}); err != nil {
			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventCh:
				if err := send.Data(event); err != nil {
					return
				}
			}
		}
	})
}
