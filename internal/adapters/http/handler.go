package httpadapter

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/voyantlabs/voyant-agent/internal/app/session"
	"github.com/voyantlabs/voyant-agent/internal/domain"
)

type Server struct {
	ctrl *session.Controller
}

func NewServer(ctrl *session.Controller) http.Handler {
	s := &Server{ctrl: ctrl}
	mux := http.NewServeMux()

	// /api/chat           → POST: send message (new or existing session)
	//                     → GET:  list sessions
	mux.HandleFunc("/api/chat", s.handleChat)

	// /api/chat/{id}        → GET: session detail, DELETE: destroy session
	// /api/chat/{id}/stream → GET: SSE event stream
	mux.HandleFunc("/api/chat/", s.handleChatWithID)

	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/", s.handleRoot)
	mux.Handle("/metrics", promhttp.Handler())

	return chainMiddlewares(mux, withLogging, withCORS)
}

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type chatRequest struct {
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message"`
}

type chatResponse struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
	StreamURL string `json:"stream_url"`
}

type messageResponse struct {
	ID         string    `json:"id"`
	Role       string    `json:"role"`
	Text       string    `json:"text"`
	EventStamp int       `json:"event_stamp"`
	CreatedAt  time.Time `json:"created_at"`
}

type sessionSummaryResponse struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Status       string    `json:"status"`
	MessageCount int       `json:"message_count"`
	HasPlan      bool      `json:"has_plan"`
}

type sessionDetailResponse struct {
	sessionSummaryResponse
	Messages  []messageResponse `json:"messages"`
	TripInfo  domain.TripStore  `json:"trip_info"`
	FinalPlan string            `json:"final_plan,omitempty"`
}

// ─────────────────────────────────────────────
// Basic routing
// ─────────────────────────────────────────────

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleSendMessage(w, r)
	case http.MethodGet:
		s.handleListSessions(w, r)
	default:
		methodNotAllowed(w)
	}
}

// /api/chat/{id} or /api/chat/{id}/stream
func (s *Server) handleChatWithID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/chat/")
	if path == "" {
		http.NotFound(w, r)
		return
	}

	parts := strings.Split(path, "/")
	id := domain.SessionID(parts[0])
	if id == "" {
		http.NotFound(w, r)
		return
	}

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			s.handleGetSession(w, r, id)
		case http.MethodDelete:
			s.handleDeleteSession(w, r, id)
		default:
			methodNotAllowed(w)
		}
		return
	}

	if len(parts) == 2 && parts[1] == "stream" {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		s.handleStream(w, r, id)
		return
	}

	http.NotFound(w, r)
}

// ─────────────────────────────────────────────
// Concrete handlers
// ─────────────────────────────────────────────

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	text := strings.TrimSpace(req.Message)
	if text == "" {
		badRequest(w, "message is required")
		return
	}

	out, err := s.ctrl.Submit(r.Context(), domain.SessionID(req.SessionID), text)
	if err != nil {
		writeSubmitError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, chatResponse{
		SessionID: string(out.SessionID),
		Status:    string(out.Status),
		StreamURL: "/api/chat/" + string(out.SessionID) + "/stream",
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request, id domain.SessionID) {
	sess, err := s.ctrl.Get(id)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	detail := sess.Detail()
	msgs := make([]messageResponse, 0, len(detail.Messages))
	for _, m := range detail.Messages {
		msgs = append(msgs, messageResponse{
			ID:         string(m.ID),
			Role:       string(m.Role),
			Text:       m.Text,
			EventStamp: m.EventStamp,
			CreatedAt:  m.CreatedAt,
		})
	}

	writeJSON(w, http.StatusOK, sessionDetailResponse{
		sessionSummaryResponse: sessionSummaryResponse{
			ID:           string(detail.ID),
			CreatedAt:    detail.CreatedAt,
			UpdatedAt:    detail.UpdatedAt,
			Status:       string(detail.Status),
			MessageCount: detail.MessageCount,
			HasPlan:      detail.HasPlan,
		},
		Messages:  msgs,
		TripInfo:  detail.Trip,
		FinalPlan: detail.FinalPlan,
	})
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request, id domain.SessionID) {
	if !s.ctrl.Delete(id) {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleListSessions(w http.ResponseWriter, _ *http.Request) {
	summaries := s.ctrl.List()
	out := make([]sessionSummaryResponse, 0, len(summaries))
	for _, sum := range summaries {
		out = append(out, sessionSummaryResponse{
			ID:           string(sum.ID),
			CreatedAt:    sum.CreatedAt,
			UpdatedAt:    sum.UpdatedAt,
			Status:       string(sum.Status),
			MessageCount: sum.MessageCount,
			HasPlan:      sum.HasPlan,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"app":    "Voyant Travel Guide API",
	})
}

// ─────────────────────────────────────────────
// HTTP Helpers
// ─────────────────────────────────────────────

func writeSubmitError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrTurnInProgress):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, domain.ErrSessionClosed):
		writeJSON(w, http.StatusGone, map[string]string{"error": err.Error()})
	default:
		internalError(w, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{
		"error": msg,
	})
}

func internalError(w http.ResponseWriter, _ error) {
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error": "internal server error",
	})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{
		"error": "method not allowed",
	})
}
