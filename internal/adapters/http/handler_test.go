package httpadapter_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/voyantlabs/voyant-agent/internal/adapters/http"
	"github.com/voyantlabs/voyant-agent/internal/adapters/llm"
	"github.com/voyantlabs/voyant-agent/internal/adapters/search"
	memstore "github.com/voyantlabs/voyant-agent/internal/adapters/storage/memory"
	"github.com/voyantlabs/voyant-agent/internal/app/flow"
	"github.com/voyantlabs/voyant-agent/internal/app/session"
	"github.com/voyantlabs/voyant-agent/internal/domain"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()

	engine, err := flow.NewTravelGraph(llm.NewMockLLM(), search.NewMockSearch(), flow.Config{
		MaxClarificationRounds: 2,
		MaxPlanRevisions:       3,
		Workers:                2,
		Retries:                1,
	})
	require.NoError(t, err)

	ctrl := session.NewController(memstore.NewSessionStore(), engine, nil, session.Options{})
	return httpadapter.NewServer(ctrl)
}

func postChat(t *testing.T, srv http.Handler, sessionID, message string) (int, map[string]any) {
	t.Helper()

	body, err := json.Marshal(map[string]string{"session_id": sessionID, "message": message})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewReader(body))
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w.Code, out
}

func getDetail(t *testing.T, srv http.Handler, sessionID string) (int, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/api/chat/"+sessionID, nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w.Code, out
}

func waitForSessionStatus(t *testing.T, srv http.Handler, sessionID, want string) map[string]any {
	t.Helper()

	var detail map[string]any
	require.Eventually(t, func() bool {
		code, body := getDetail(t, srv, sessionID)
		if code != http.StatusOK {
			return false
		}
		detail = body
		return body["status"] == want
	}, 3*time.Second, 10*time.Millisecond, "session never reached status %s", want)
	return detail
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()

	srv.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSendMessageValidation(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	code, _ := postChat(t, srv, "", "   ")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestConversationOverHTTP(t *testing.T) {
	srv := newTestServer(t)

	code, body := postChat(t, srv, "", "2 days in Paris for 2, mid-range, food and museums")
	require.Equal(t, http.StatusOK, code)
	sessionID, _ := body["session_id"].(string)
	require.NotEmpty(t, sessionID)
	assert.Equal(t, "/api/chat/"+sessionID+"/stream", body["stream_url"])

	// The run pauses for plan feedback.
	detail := waitForSessionStatus(t, srv, sessionID, string(domain.StatusAwaitingInput))
	assert.Equal(t, true, detail["has_plan"])
	assert.NotEmpty(t, detail["final_plan"])

	// Accepting completes the session.
	code, _ = postChat(t, srv, sessionID, "yes")
	require.Equal(t, http.StatusOK, code)
	detail = waitForSessionStatus(t, srv, sessionID, string(domain.StatusComplete))

	// Two user messages plus the assistant message carrying the final guide.
	msgs, ok := detail["messages"].([]any)
	require.True(t, ok)
	assert.Len(t, msgs, 3)

	// A message after completion is gone.
	code, _ = postChat(t, srv, sessionID, "one more")
	assert.Equal(t, http.StatusGone, code)
}

func TestStreamReplaysFullLog(t *testing.T) {
	handler := newTestServer(t)
	ts := httptest.NewServer(handler)
	defer ts.Close()

	code, body := postChat(t, handler, "", "2 days in Paris, mid-range")
	require.Equal(t, http.StatusOK, code)
	sessionID := body["session_id"].(string)

	waitForSessionStatus(t, handler, sessionID, string(domain.StatusAwaitingInput))
	code, _ = postChat(t, handler, sessionID, "done")
	require.Equal(t, http.StatusOK, code)
	waitForSessionStatus(t, handler, sessionID, string(domain.StatusComplete))

	// A late subscriber sees the whole log and the stream ends after the
	// terminal event.
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/chat/"+sessionID+"/stream", nil)
	require.NoError(t, err)

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	var types []string
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "event: ") {
			types = append(types, strings.TrimPrefix(line, "event: "))
		}
	}

	require.NotEmpty(t, types)
	assert.Equal(t, "thinking", types[0])
	assert.Equal(t, "complete", types[len(types)-1])

	hasPlan := false
	for _, typ := range types {
		if typ == "plan" {
			hasPlan = true
		}
	}
	assert.True(t, hasPlan)
}

func TestUnknownSessionRoutes(t *testing.T) {
	srv := newTestServer(t)

	code, _ := getDetail(t, srv, "no-such-session")
	assert.Equal(t, http.StatusNotFound, code)

	req := httptest.NewRequest(http.MethodGet, "/api/chat/no-such-session/stream", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	req = httptest.NewRequest(http.MethodDelete, "/api/chat/no-such-session", nil)
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	code, _ = postChat(t, srv, "no-such-session", "hello")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestListAndDeleteSessions(t *testing.T) {
	srv := newTestServer(t)

	code, body := postChat(t, srv, "", "2 days in Paris")
	require.Equal(t, http.StatusOK, code)
	sessionID := body["session_id"].(string)
	waitForSessionStatus(t, srv, sessionID, string(domain.StatusAwaitingInput))

	req := httptest.NewRequest(http.MethodGet, "/api/chat", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var list []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, sessionID, list[0]["id"])

	req = httptest.NewRequest(http.MethodDelete, "/api/chat/"+sessionID, nil)
	w = httptest.NewRecorder()
	srv.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	code, _ = getDetail(t, srv, sessionID)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPut, "/api/chat", nil)
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
