package httpd

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/marmos91/ccserver/internal/logger"
)

// statusTimeout bounds how long /api/v1/status waits for the event loop.
const statusTimeout = 2 * time.Second

// Response represents the standard response wrapper.
//
//   - Status indicates the overall result ("healthy", "unhealthy")
//   - Timestamp provides response time for debugging and caching
//   - Data contains the response payload (optional)
//   - Error contains error details when Status indicates failure (optional)
type Response struct {
	Status    string      `json:"status"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
}

type statusHandler struct {
	h         *Httpd
	startTime time.Time
}

func newStatusHandler(h *Httpd) *statusHandler {
	return &statusHandler{h: h, startTime: time.Now()}
}

// Liveness handles GET /health. It succeeds as long as the server answers.
func (s *statusHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	uptime := time.Since(s.startTime)
	writeJSON(w, http.StatusOK, healthyResponse(map[string]interface{}{
		"service":    "ccserver",
		"started_at": s.startTime.UTC().Format(time.RFC3339),
		"uptime":     uptime.Round(time.Second).String(),
		"uptime_sec": int64(uptime.Seconds()),
	}))
}

// Readiness handles GET /health/ready. The server is ready while the event
// loop is running and no stop has been requested.
func (s *statusHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	select {
	case <-s.h.stopCh:
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse("server is stopping"))
		return
	default:
	}
	if s.h.loop.Closed() {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse("event loop closed"))
		return
	}
	writeJSON(w, http.StatusOK, healthyResponse(map[string]interface{}{
		"tls": s.h.cfg.UseTLS(),
	}))
}

// Status handles GET /api/v1/status with the connection counters.
func (s *statusHandler) Status(w http.ResponseWriter, r *http.Request) {
	stats, err := s.h.Snapshot(statusTimeout)
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, unhealthyResponse(err.Error()))
		return
	}

	data := map[string]interface{}{
		"address": "",
		"tls":     s.h.cfg.UseTLS(),
		"stats":   stats,
	}
	if addr := s.h.Addr(); addr != nil {
		data["address"] = addr.String()
	}
	writeJSON(w, http.StatusOK, healthyResponse(data))
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Debug("Failed to write response", "error", err)
	}
}

func healthyResponse(data interface{}) Response {
	return Response{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

func unhealthyResponse(errMsg string) Response {
	return Response{
		Status:    "unhealthy",
		Timestamp: time.Now().UTC(),
		Error:     errMsg,
	}
}
