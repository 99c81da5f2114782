package httpd

import (
	"errors"
	"net"
	"net/http"
	"time"
)

// errLoopStopped is returned when the event loop no longer accepts work.
var errLoopStopped = errors.New("event loop stopped")

// connStats is mutated only by callbacks running on the event loop.
type connStats struct {
	accepted uint64
	active   int64
	requests uint64
}

// Stats is a point-in-time copy of the connection counters.
type Stats struct {
	ConnectionsAccepted uint64 `json:"connections_accepted"`
	ConnectionsActive   int64  `json:"connections_active"`
	Requests            uint64 `json:"requests"`
}

// trackConn is the http.Server ConnState hook. The counters are updated on
// the loop, never on the connection goroutine.
func (h *Httpd) trackConn(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		h.loop.Post(func() {
			h.stats.accepted++
			h.stats.active++
			h.metrics.connOpened(h.stats.active)
		})
	case http.StateClosed, http.StateHijacked:
		h.loop.Post(func() {
			h.stats.active--
			h.metrics.connClosed(h.stats.active)
		})
	}
}

// countRequest records a finished request on the loop.
func (h *Httpd) countRequest() {
	h.loop.Post(func() { h.stats.requests++ })
}

// Snapshot reads the counters on the loop and waits at most timeout for
// the answer.
func (h *Httpd) Snapshot(timeout time.Duration) (Stats, error) {
	reply := make(chan Stats, 1)
	if !h.loop.Post(func() {
		reply <- Stats{
			ConnectionsAccepted: h.stats.accepted,
			ConnectionsActive:   h.stats.active,
			Requests:            h.stats.requests,
		}
	}) {
		return Stats{}, errLoopStopped
	}

	select {
	case s := <-reply:
		return s, nil
	case <-h.loop.Done():
		return Stats{}, errLoopStopped
	case <-time.After(timeout):
		return Stats{}, errors.New("timed out waiting for event loop")
	}
}
