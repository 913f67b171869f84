package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/padnode/internal/logging"
)

// requestLevel picks the log level for a finished request. Stream
// endpoints stay at debug since clients reconnect often.
func requestLevel(method, path string, status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	case method == http.MethodOptions, strings.HasSuffix(path, "/stream"), path == "/api/events":
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// HTTPLoggingMiddleware logs each request on the "http" module logger.
func HTTPLoggingMiddleware(ctx huma.Context, next func(huma.Context)) {
	start := time.Now()
	next(ctx)

	u := ctx.URL()
	status := ctx.Status()
	attrs := []slog.Attr{
		slog.String("method", ctx.Method()),
		slog.String("path", u.Path),
		slog.Int("status", status),
		slog.Duration("duration", time.Since(start)),
		slog.String("remote_addr", ctx.RemoteAddr()),
	}
	if u.RawQuery != "" && !strings.Contains(u.RawQuery, "auth=") {
		attrs = append(attrs, slog.String("query", u.RawQuery))
	}

	level := requestLevel(ctx.Method(), u.Path, status)
	logging.GetLogger("http").LogAttrs(ctx.Context(), level, "Request served", attrs...)
}
