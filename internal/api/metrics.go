package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/padnode/internal/api/models"
	"github.com/smazurov/padnode/internal/metrics"
)

// registerMetricsRoutes registers the status endpoint backed by the
// Prometheus counters.
func (s *Server) registerMetricsRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-status",
		Method:      http.MethodGet,
		Path:        "/api/status",
		Summary:     "Status",
		Description: "Device connection state and traffic counters",
		Tags:        []string{"system"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, func(_ context.Context, _ *struct{}) (*models.StatusResponse, error) {
		stats := metrics.Snapshot()
		return &models.StatusResponse{
			Body: models.StatusData{
				Connected:        stats.Connected,
				MessagesReceived: stats.MessagesReceived,
				MessagesSent:     stats.MessagesSent,
				BytesSent:        stats.BytesSent,
				Frames:           stats.Frames,
				Events:           stats.Events,
				Uptime:           time.Since(s.started).Truncate(time.Second).String(),
			},
		}, nil
	})
}
