// Package api exposes the assistant and the business CRUD surface as a
// JSON HTTP API.
//
// Routes are registered on a method-aware http.ServeMux. Health probes sit
// outside the middleware stack so orchestrators are not subject to request
// logging; everything else passes through recovery, request-ID and logging
// middleware, outermost first.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/opsdesk/opsdesk/internal/assist"
	"github.com/opsdesk/opsdesk/internal/log"
	"github.com/opsdesk/opsdesk/internal/ops"
	"github.com/opsdesk/opsdesk/internal/session"
)

// AssistService is the slice of the assistant the HTTP layer exposes.
type AssistService interface {
	Chat(ctx context.Context, query, sessionID string) assist.Outcome
	ChatWithFollowUp(ctx context.Context, query, sessionID string) assist.Outcome
	Status(ctx context.Context) assist.Status
	History(sessionID string, limit int) []session.Turn
	Export(sessionID, format string) (string, error)
	ClearHistory(sessionID string)
	ClearAll()
}

// Readiness reports whether the backing store finished its connection probe.
type Readiness interface {
	Ready(ctx context.Context) error
}

// ServerConfig contains configuration for creating the API server.
type ServerConfig struct {
	Logger    log.Logger
	Assistant AssistService // Required
	Repo      *ops.Repo     // Optional: nil disables the CRUD surface
	Store     Readiness     // Optional: nil makes /ready always succeed
}

// Server is the JSON API HTTP server.
type Server struct {
	mux *http.ServeMux
}

// NewServer creates an API server with all routes configured.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Assistant == nil {
		return nil, errors.New("assistant is required")
	}
	if cfg.Logger == nil {
		return nil, errors.New("logger is required")
	}

	ah := &assistHandler{assistant: cfg.Assistant, logger: cfg.Logger}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/assist/status", ah.status)
	mux.HandleFunc("POST /api/assist/chat", ah.chat)
	mux.HandleFunc("POST /api/assist/chat/followup", ah.chatFollowUp)
	mux.HandleFunc("GET /api/assist/history/{sessionID}", ah.history)
	mux.HandleFunc("GET /api/assist/history/{sessionID}/export", ah.export)
	mux.HandleFunc("DELETE /api/assist/history/{sessionID}", ah.clearHistory)
	mux.HandleFunc("POST /api/assist/clear-caches", ah.clearCaches)

	if cfg.Repo != nil {
		oh := &opsHandler{repo: cfg.Repo, logger: cfg.Logger}
		mux.HandleFunc("POST /api/customers", oh.createCustomer)
		mux.HandleFunc("GET /api/customers", oh.listCustomers)
		mux.HandleFunc("GET /api/customers/{id}", oh.getCustomer)
		mux.HandleFunc("POST /api/jobs", oh.createJob)
		mux.HandleFunc("GET /api/jobs", oh.listJobs)
		mux.HandleFunc("POST /api/bookings", oh.createBooking)
		mux.HandleFunc("GET /api/bookings", oh.listBookings)
		mux.HandleFunc("DELETE /api/admin/data", oh.purgeAll)
	}

	// Middleware stack, outermost first: Recovery, RequestID, Logging.
	var handler http.Handler = mux
	handler = loggingMiddleware(cfg.Logger)(handler)
	handler = requestIDMiddleware()(handler)
	handler = recoveryMiddleware(cfg.Logger)(handler)

	// Health probes bypass the middleware stack.
	topMux := http.NewServeMux()
	topMux.HandleFunc("GET /health", health(cfg.Logger))
	topMux.HandleFunc("GET /ready", readiness(cfg.Store, cfg.Logger))
	topMux.Handle("/", handler)

	return &Server{mux: topMux}, nil
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}
