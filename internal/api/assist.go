package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/opsdesk/opsdesk/internal/assist"
	"github.com/opsdesk/opsdesk/internal/log"
	"github.com/opsdesk/opsdesk/internal/session"
)

// assistHandler serves the conversational query endpoints.
type assistHandler struct {
	assistant AssistService
	logger    log.Logger
}

// chatRequest is the body for both chat endpoints. A missing sessionId
// starts a fresh session whose generated id is echoed in the response.
type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
}

// chatResponse wraps the assistant outcome with the session identifier.
type chatResponse struct {
	SessionID string         `json:"sessionId"`
	Result    assist.Outcome `json:"result"`
}

// chatFunc abstracts over Chat and ChatWithFollowUp.
type chatFunc func(ctx context.Context, query, sessionID string) assist.Outcome

func (h *assistHandler) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.logger, http.StatusOK, h.assistant.Status(r.Context()))
}

func (h *assistHandler) chat(w http.ResponseWriter, r *http.Request) {
	h.serveChat(w, r, h.assistant.Chat)
}

func (h *assistHandler) chatFollowUp(w http.ResponseWriter, r *http.Request) {
	h.serveChat(w, r, h.assistant.ChatWithFollowUp)
}

func (h *assistHandler) serveChat(w http.ResponseWriter, r *http.Request, fn chatFunc) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "invalid_body", "request body must be JSON")
		return
	}
	if req.Message == "" {
		writeError(w, h.logger, http.StatusBadRequest, "missing_message", "message is required")
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	outcome := fn(r.Context(), req.Message, req.SessionID)
	writeJSON(w, h.logger, http.StatusOK, chatResponse{
		SessionID: req.SessionID,
		Result:    outcome,
	})
}

func (h *assistHandler) history(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionID")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, h.logger, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	turns := h.assistant.History(sessionID, limit)
	writeJSON(w, h.logger, http.StatusOK, map[string]any{
		"sessionId": sessionID,
		"turns":     turns,
		"count":     len(turns),
	})
}

func (h *assistHandler) export(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionID")
	format := r.URL.Query().Get("format")
	if format == "" {
		format = session.FormatJSON
	}

	data, err := h.assistant.Export(sessionID, format)
	if err != nil {
		if errors.Is(err, session.ErrUnknownFormat) {
			writeError(w, h.logger, http.StatusBadRequest, "invalid_format", "format must be json or csv")
			return
		}
		writeError(w, h.logger, http.StatusInternalServerError, "export_failed", "exporting history failed")
		return
	}

	contentType := "application/json"
	if format == session.FormatCSV {
		contentType = "text/csv"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="history-`+sessionID+`.`+format+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(data)); err != nil {
		h.logger.Debug("writing export body", "error", err)
	}
}

func (h *assistHandler) clearHistory(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionID")
	h.assistant.ClearHistory(sessionID)
	writeJSON(w, h.logger, http.StatusOK, map[string]string{"status": "cleared"})
}

func (h *assistHandler) clearCaches(w http.ResponseWriter, _ *http.Request) {
	h.assistant.ClearAll()
	writeJSON(w, h.logger, http.StatusOK, map[string]string{"status": "cleared"})
}
