// Hand-rolled Server-Sent Events rather than a streaming framework: the
// stream is one subscriber loop over the transport endpoint plus a
// heartbeat, and session filtering happens upstream in the coordinator.
package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/beam-dev/beam/internal/logging"
	"github.com/beam-dev/beam/internal/protocol"
)

// SSEHeartbeatInterval is the interval for SSE heartbeat comments.
const SSEHeartbeatInterval = 30 * time.Second

// sseWriter wraps http.ResponseWriter for SSE.
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	rc      *http.ResponseController
}

func newSSEWriter(w http.ResponseWriter) (*sseWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}
	return &sseWriter{w: w, flusher: flusher, rc: http.NewResponseController(w)}, nil
}

// writeEvent writes one SSE record and flushes it.
func (s *sseWriter) writeEvent(data []byte) error {
	if _, err := fmt.Fprintf(s.w, "event: message\ndata: %s\n\n", data); err != nil {
		return err
	}
	// ResponseController flushes through middleware wrappers; fall back to
	// the plain flusher if it cannot.
	if err := s.rc.Flush(); err != nil {
		s.flusher.Flush()
	}
	return nil
}

func (s *sseWriter) writeHeartbeat() {
	fmt.Fprintf(s.w, ": heartbeat\n\n")
	s.flusher.Flush()
}

// events streams the host event feed to one client. On connect the client
// receives a restoreHistory snapshot, then live events in emit order.
func (s *Server) events(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // disable nginx buffering

	sse, err := newSSEWriter(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}

	w.WriteHeader(http.StatusOK)
	sse.flusher.Flush()

	log := logging.For("sse")

	events, err := s.ui.Receive(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("event subscribe failed")
		return
	}

	// Snapshot after subscribing so this client cannot miss it.
	s.coord.Attach()

	ticker := time.NewTicker(SSEHeartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			payload, err := protocol.Marshal(ev)
			if err != nil {
				log.Warn().Err(err).Str("type", string(ev.Type)).Msg("skipping unencodable event")
				continue
			}
			if err := sse.writeEvent(payload); err != nil {
				return
			}
		case <-ticker.C:
			sse.writeHeartbeat()
		}
	}
}
