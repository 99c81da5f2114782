package httpd

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/marmos91/ccserver/internal/logger"
	"github.com/marmos91/ccserver/internal/telemetry"
)

// newRouter creates the chi router with middleware and routes.
//
// Routes:
//   - GET /health - Liveness probe
//   - GET /health/ready - Readiness probe
//   - GET /api/v1/status - Connection counters
//   - GET /metrics - Prometheus metrics (when enabled)
func newRouter(h *Httpd) http.Handler {
	r := chi.NewRouter()

	// Middleware stack - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	handler := newStatusHandler(h)

	r.Route("/health", func(r chi.Router) {
		r.Get("/", handler.Liveness)
		r.Get("/ready", handler.Readiness)
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/health", http.StatusTemporaryRedirect)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", handler.Status)
	})

	if h.metrics != nil {
		r.Method(http.MethodGet, h.cfg.Metrics.Path, h.metrics.Handler())
	}

	return r
}

// requestLogger logs requests using the internal logger and records them in
// the loop-owned counters and the metrics.
//
// It logs:
//   - Request start (DEBUG level): method, path, remote addr
//   - Request completion (INFO level): method, path, status, duration
//   - Healthcheck and metrics scrapes are logged at DEBUG level to reduce noise
func (h *Httpd) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		logger.Debug("Request started",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
		)

		ctx, span := telemetry.StartHTTPSpan(r.Context(), r.Method, r.RemoteAddr)
		defer span.End()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r.WithContext(ctx))

		duration := time.Since(start)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		span.SetAttributes(
			telemetry.Route(route),
			telemetry.StatusCode(status),
			telemetry.RequestID(requestID),
		)
		h.metrics.observeRequest(route, status, duration)
		h.countRequest()

		logArgs := []any{
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", duration.String(),
		}

		if h.isQuietPath(r.URL.Path) {
			logger.Debug("Request completed", logArgs...)
		} else {
			logger.Info("Request completed", logArgs...)
		}
	})
}

func (h *Httpd) isQuietPath(path string) bool {
	if strings.HasPrefix(path, "/health") {
		return true
	}
	return h.metrics != nil && path == h.cfg.Metrics.Path
}
