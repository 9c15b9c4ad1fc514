package httpadapter

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/voyantlabs/voyant-agent/internal/domain"
	"github.com/voyantlabs/voyant-agent/internal/observability"
)

// eventPayload is the SSE data frame for one session event.
type eventPayload struct {
	Sequence  int            `json:"sequence"`
	Type      string         `json:"type"`
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// handleStream serves the session's event log as Server-Sent Events. The
// full log is replayed first, then live events follow; the stream ends
// after a terminal event or when the client disconnects.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request, id domain.SessionID) {
	sess, err := s.ctrl.Get(id)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		internalError(w, fmt.Errorf("streaming unsupported"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	sub := sess.Emitter().Subscribe()
	defer sub.Cancel()

	log := observability.LoggerFromContext(r.Context())
	log.Info("stream opened", "session_id", id)

	for {
		select {
		case <-r.Context().Done():
			log.Info("stream client disconnected", "session_id", id)
			return

		case ev, open := <-sub.Events():
			if !open {
				return
			}
			if err := writeSSE(w, ev); err != nil {
				return
			}
			flusher.Flush()
			if ev.Type.Terminal() {
				return
			}
		}
	}
}

// writeSSE frames one event as "event: <type>\ndata: <json>\n\n".
func writeSSE(w http.ResponseWriter, ev domain.Event) error {
	data, err := json.Marshal(eventPayload{
		Sequence:  ev.Sequence,
		Type:      string(ev.Type),
		Content:   ev.Content,
		Metadata:  ev.Metadata,
		Timestamp: ev.Timestamp,
	})
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
	return err
}
