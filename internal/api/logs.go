package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"
	"github.com/smazurov/padnode/internal/api/models"
	"github.com/smazurov/padnode/internal/events"
	"github.com/smazurov/padnode/internal/logging"
)

func bufferedLogs(tail int) []logging.LogEntry {
	buffer := logging.GetBuffer()
	if buffer == nil {
		return nil
	}
	if tail > 0 {
		return buffer.Tail(tail)
	}
	return buffer.ReadAll()
}

// LogEvent converts a buffered entry for the event stream.
func LogEvent(entry logging.LogEntry) events.LogEntryEvent {
	return events.LogEntryEvent{
		Timestamp:  entry.Timestamp.Format(time.RFC3339Nano),
		Level:      entry.Level,
		Module:     entry.Module,
		Message:    entry.Message,
		Attributes: entry.Attributes,
	}
}

// registerLogRoutes registers the log endpoints.
func (s *Server) registerLogRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-logs",
		Method:      http.MethodGet,
		Path:        "/api/logs",
		Summary:     "Logs",
		Description: "Recent log entries from the in-memory ring buffer",
		Tags:        []string{"logs"},
		Security:    withAuth(),
		Errors:      []int{401, 422},
	}, func(_ context.Context, input *models.LogsRequest) (*models.LogsResponse, error) {
		entries := bufferedLogs(input.Tail)
		out := make([]models.LogEntry, len(entries))
		for i, entry := range entries {
			out[i] = models.LogEntry(LogEvent(entry))
		}
		return &models.LogsResponse{
			Body: models.LogsData{Entries: out, Count: len(out)},
		}, nil
	})

	sse.Register(s.api, huma.Operation{
		OperationID: "logs-stream",
		Method:      http.MethodGet,
		Path:        "/api/logs/stream",
		Summary:     "Log Stream",
		Description: "Real-time log streaming via Server-Sent Events. Sends historical logs first, then streams new logs.",
		Tags:        []string{"logs"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, map[string]any{
		"message": events.LogEntryEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		// Subscribe before replaying so nothing falls in between
		eventCh := make(chan any, 100)
		unsubscribe := events.SubscribeToChannel[events.LogEntryEvent](s.eventBus, eventCh)
		defer unsubscribe()

		for _, entry := range bufferedLogs(0) {
			if err := send.Data(LogEvent(entry)); err != nil {
				return
			}
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
