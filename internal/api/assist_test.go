package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsdesk/opsdesk/internal/assist"
	"github.com/opsdesk/opsdesk/internal/session"
)

func TestChatEndpoint(t *testing.T) {
	var gotQuery, gotSession string
	stub := &stubAssist{
		chatFn: func(_ context.Context, query, sessionID string) assist.Outcome {
			gotQuery, gotSession = query, sessionID
			return assist.Outcome{Answer: "You have 3 jobs.", Type: assist.OutcomeDatabaseQuery, RowCount: 1}
		},
	}
	srv := newTestServer(t, stub)

	body := `{"message":"how many jobs","sessionId":"abc-123"}`
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/assist/chat", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "how many jobs", gotQuery)
	assert.Equal(t, "abc-123", gotSession)

	var resp chatResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "abc-123", resp.SessionID)
	assert.Equal(t, assist.OutcomeDatabaseQuery, resp.Result.Type)
	assert.Equal(t, "You have 3 jobs.", resp.Result.Answer)
}

func TestChatEndpoint_GeneratesSessionID(t *testing.T) {
	stub := &stubAssist{}
	srv := newTestServer(t, stub)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/assist/chat",
		strings.NewReader(`{"message":"hello"}`)))

	require.Equal(t, http.StatusOK, w.Code)

	var resp chatResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	// A fresh session id is generated and echoed back.
	_, err := uuid.Parse(resp.SessionID)
	assert.NoError(t, err)
}

func TestChatEndpoint_MissingMessage(t *testing.T) {
	srv := newTestServer(t, &stubAssist{})

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/assist/chat",
		strings.NewReader(`{"sessionId":"abc"}`)))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "missing_message")
}

func TestChatEndpoint_InvalidBody(t *testing.T) {
	srv := newTestServer(t, &stubAssist{})

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/assist/chat",
		strings.NewReader(`not json`)))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFollowUpEndpointRoutesSeparately(t *testing.T) {
	var followUpCalled bool
	stub := &stubAssist{
		followFn: func(context.Context, string, string) assist.Outcome {
			followUpCalled = true
			return assist.Outcome{Answer: "ok", Type: assist.OutcomeDatabaseQuery}
		},
	}
	srv := newTestServer(t, stub)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/assist/chat/followup",
		strings.NewReader(`{"message":"what about last week?","sessionId":"abc"}`)))

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, followUpCalled)
}

func TestStatusEndpoint(t *testing.T) {
	stub := &stubAssist{
		statusResult: assist.Status{Database: assist.DatabaseConnected, LLM: "ready", Sessions: 2},
	}
	srv := newTestServer(t, stub)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/assist/status", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var st assist.Status
	require.NoError(t, json.NewDecoder(w.Body).Decode(&st))
	assert.Equal(t, assist.DatabaseConnected, st.Database)
	assert.Equal(t, 2, st.Sessions)
}

func TestHistoryEndpoint(t *testing.T) {
	stub := &stubAssist{
		history: []session.Turn{
			{Role: session.RoleUser, Content: "hi", Timestamp: time.Now()},
			{Role: session.RoleAssistant, Content: "hello", Timestamp: time.Now()},
		},
	}
	srv := newTestServer(t, stub)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/assist/history/abc-123?limit=5", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		SessionID string         `json:"sessionId"`
		Turns     []session.Turn `json:"turns"`
		Count     int            `json:"count"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, "abc-123", resp.SessionID)
	assert.Equal(t, 2, resp.Count)
}

func TestHistoryEndpoint_InvalidLimit(t *testing.T) {
	srv := newTestServer(t, &stubAssist{})

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/assist/history/abc?limit=zero", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportEndpoint_CSV(t *testing.T) {
	stub := &stubAssist{exported: "\"timestamp\",\"role\",\"content\""}
	srv := newTestServer(t, stub)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/assist/history/abc/export?format=csv", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "history-abc.csv")
	assert.Contains(t, w.Body.String(), `"timestamp"`)
}

func TestExportEndpoint_DefaultsToJSON(t *testing.T) {
	stub := &stubAssist{exported: "[]"}
	srv := newTestServer(t, stub)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/assist/history/abc/export", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
}

func TestExportEndpoint_UnknownFormat(t *testing.T) {
	stub := &stubAssist{exportErr: session.ErrUnknownFormat}
	srv := newTestServer(t, stub)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/assist/history/abc/export?format=xml", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_format")
}

func TestClearHistoryEndpoint(t *testing.T) {
	stub := &stubAssist{}
	srv := newTestServer(t, stub)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/assist/history/abc-123", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "abc-123", stub.clearedSession)
}

func TestClearCachesEndpoint(t *testing.T) {
	stub := &stubAssist{}
	srv := newTestServer(t, stub)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/assist/clear-caches", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, stub.clearedAll)
}
