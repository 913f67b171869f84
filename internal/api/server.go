// Package api serves the HTTP control surface: status, device requests,
// logs, the event stream and unit control.
package api

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/smazurov/padnode/internal/api/models"
	"github.com/smazurov/padnode/internal/events"
	"github.com/smazurov/padnode/internal/logging"
	"github.com/smazurov/padnode/internal/version"
)

// Server represents the Huma v2 API server
type Server struct {
	api        huma.API
	mux        *http.ServeMux
	httpServer *http.Server
	eventBus   *events.Bus
	options    *Options
	started    time.Time
	logger     *slog.Logger
}

// UnitController starts and stops the units named in the layout.
type UnitController interface {
	Units() []string
	UnitStatus(ctx context.Context, unit string) (string, error)
	Do(ctx context.Context, unit, action string) error
}

// Options configures the server.
type Options struct {
	AuthUsername      string
	AuthPassword      string
	EventBus          *events.Bus
	Units             UnitController // Optional, enables /api/systemd
	PrometheusHandler http.Handler   // Optional Prometheus metrics handler
}

// NewServer creates a new API server with Huma v2 using Go 1.22+ native routing
func NewServer(opts *Options) *Server {
	mux := http.NewServeMux()

	cors := defaultCORSPolicy()
	mux.HandleFunc("OPTIONS /", cors.preflight)

	config := huma.DefaultConfig("padnode API", version.Get().Version)
	config.Info.Description = "Control API for the Launchpad desktop controller"
	// Empty servers list will make OpenAPI use relative paths, working with any host
	config.Servers = []*huma.Server{}
	config.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"basicAuth": {
			Type:   "http",
			Scheme: "basic",
		},
	}

	api := humago.New(mux, config)

	server := &Server{
		api:      api,
		mux:      mux,
		eventBus: opts.EventBus,
		options:  opts,
		started:  time.Now(),
		logger:   logging.GetLogger("api"),
	}
	server.httpServer = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// CORS first, then request logging, then auth
	api.UseMiddleware(cors.middleware)
	api.UseMiddleware(HTTPLoggingMiddleware)
	if opts.AuthUsername != "" && opts.AuthPassword != "" {
		api.UseMiddleware(basicAuth(api, opts.AuthUsername, opts.AuthPassword))
	}

	// Registered on the mux directly so scrapers need no credentials
	if opts.PrometheusHandler != nil {
		mux.Handle("GET /metrics", opts.PrometheusHandler)
	}

	server.registerRoutes()

	return server
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// GetAPI returns the Huma API instance
func (s *Server) GetAPI() huma.API {
	return s.api
}

// Start serves on addr until Stop. Stop may run concurrently, even before
// Start has bound the listener; Start then returns http.ErrServerClosed.
func (s *Server) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.logger.Info("Starting padnode API server", "addr", ln.Addr().String())
	s.logger.Info("OpenAPI documentation available", "url", "http://"+ln.Addr().String()+"/docs")
	return s.httpServer.Serve(ln)
}

// Stop closes the listener and every open connection, SSE streams included.
func (s *Server) Stop() error {
	s.logger.Info("Stopping API server")
	return s.httpServer.Close()
}

// registerRoutes sets up all API endpoints
func (s *Server) registerRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "health-check",
		Method:      http.MethodGet,
		Path:        "/api/health",
		Summary:     "Health",
		Description: "Check API health status",
		Tags:        []string{"health"},
		Security:    []map[string][]string{}, // Empty security = no auth required
	}, func(_ context.Context, _ *struct{}) (*models.HealthResponse, error) {
		return &models.HealthResponse{
			Body: models.HealthData{
				Status:  "ok",
				Message: "API is healthy",
			},
		}, nil
	})

	huma.Register(s.api, huma.Operation{
		OperationID: "get-version",
		Method:      http.MethodGet,
		Path:        "/api/version",
		Summary:     "Version",
		Description: "Get application version information",
		Tags:        []string{"system"},
		Security:    []map[string][]string{},
	}, func(_ context.Context, _ *struct{}) (*models.VersionResponse, error) {
		return &models.VersionResponse{Body: version.Get()}, nil
	})

	s.registerMetricsRoutes()
	s.registerDeviceRoutes()
	s.registerLogRoutes()
	s.registerSSERoutes()
	s.registerSystemdRoutes()
}

// withAuth returns security requirement for basic auth
func withAuth() []map[string][]string {
	return []map[string][]string{
		{"basicAuth": {}},
	}
}
