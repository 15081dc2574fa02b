package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/smazurov/lightnode/internal/logging"
	"github.com/smazurov/lightnode/internal/metrics"
)

// quietRoutes are polled by the page or held open as streams; a successful
// request there logs at debug.
var quietRoutes = map[string]bool{
	"/api/status":        true,
	"/api/health":        true,
	"/api/logs":          true,
	"/api/events":        true,
	"/api/metrics":       true,
	"/api/logs/stream":   true,
	"/api/update/status": true,
}

// HTTPLoggingMiddleware logs each request at a level picked from its status
// and counts it by operation.
func HTTPLoggingMiddleware(ctx huma.Context, next func(huma.Context)) {
	start := time.Now()
	logger := logging.GetLogger("http")

	method := ctx.Method()
	path := ctx.URL().Path

	next(ctx)

	status := ctx.Status()
	if status == 0 {
		status = http.StatusOK
	}
	route := path
	if op := ctx.Operation(); op != nil {
		route = op.OperationID
	}
	metrics.ObserveHTTPRequest(route, status)

	attrs := []slog.Attr{
		slog.String("method", method),
		slog.String("path", path),
		slog.String("remote_addr", ctx.RemoteAddr()),
		slog.Int("status", status),
		slog.Duration("duration", time.Since(start)),
	}
	if query := ctx.URL().RawQuery; query != "" {
		attrs = append(attrs, slog.String("query", query))
	}

	logger.LogAttrs(ctx.Context(), requestLevel(method, path, status), "HTTP request completed", attrs...)
}

func requestLevel(method, path string, status int) slog.Level {
	switch {
	case status >= 500:
		return slog.LevelError
	case status >= 400:
		return slog.LevelWarn
	case method == http.MethodOptions, quietRoutes[path]:
		return slog.LevelDebug
	}
	return slog.LevelInfo
}
