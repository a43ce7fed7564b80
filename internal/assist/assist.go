package assist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/opsdesk/opsdesk/internal/log"
	"github.com/opsdesk/opsdesk/internal/oracle"
	"github.com/opsdesk/opsdesk/internal/session"
	"github.com/opsdesk/opsdesk/internal/store"
)

// OutcomeType classifies how a chat invocation was resolved.
type OutcomeType string

const (
	OutcomeConversational OutcomeType = "conversational"
	OutcomeDatabaseQuery  OutcomeType = "database_query"
	OutcomeError          OutcomeType = "error"
)

// Outcome is the structured result of one chat invocation. The zero Rows
// slice is omitted for conversational and error outcomes.
type Outcome struct {
	Answer   string      `json:"answer"`
	Type     OutcomeType `json:"type"`
	Rows     []store.Row `json:"data,omitempty"`
	RowCount int         `json:"rowCount,omitempty"`
	Intent   Intent      `json:"intent,omitempty"`
	Entities []string    `json:"entities,omitempty"`
	Err      string      `json:"error,omitempty"`
}

// Database connectivity values reported by Status.
const (
	DatabaseConnected    = "connected"
	DatabaseFailed       = "failed"
	DatabaseDisconnected = "disconnected"
)

// Status is the assistant's component health snapshot.
type Status struct {
	Database string `json:"database"`
	LLM      string `json:"llm"`
	Sessions int    `json:"sessions"`
}

// answerContextTurns bounds how much history feeds answer narration.
const answerContextTurns = 5

// conversationalFallback is returned when the small-talk reply itself fails.
const conversationalFallback = "Hello! I can help you look up customers, jobs and bookings. Ask me anything about your data."

// Config contains the required parameters for an Assistant.
type Config struct {
	Oracle   oracle.Oracle
	Store    QueryStore
	Sessions session.Store
	Logger   log.Logger

	// Classifier routes queries before any model call.
	// Nil uses PatternClassifier.
	Classifier Classifier
}

// Assistant orchestrates classification, follow-up resolution, the SQL
// pipeline and answer narration for one deployment. It is safe for
// concurrent use; all per-request state lives on the stack.
type Assistant struct {
	oracle     oracle.Oracle
	store      QueryStore
	sessions   session.Store
	classifier Classifier
	pipeline   *Pipeline
	logger     log.Logger
}

func New(cfg Config) (*Assistant, error) {
	if cfg.Oracle == nil {
		return nil, errors.New("oracle is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("query store is required")
	}
	if cfg.Sessions == nil {
		return nil, errors.New("session store is required")
	}
	if cfg.Logger == nil {
		return nil, errors.New("logger is required")
	}

	classifier := cfg.Classifier
	if classifier == nil {
		classifier = PatternClassifier{}
	}

	return &Assistant{
		oracle:     cfg.Oracle,
		store:      cfg.Store,
		sessions:   cfg.Sessions,
		classifier: classifier,
		pipeline:   NewPipeline(cfg.Oracle, cfg.Store, cfg.Logger),
		logger:     cfg.Logger,
	}, nil
}

// Chat resolves one user query within a session. Exactly one user turn and
// one assistant turn are appended regardless of outcome, and errors are
// folded into the returned Outcome rather than propagated.
func (a *Assistant) Chat(ctx context.Context, query, sessionID string) Outcome {
	a.sessions.Append(sessionID, session.RoleUser, query)

	if a.classifier.Conversational(query) {
		answer, err := a.converse(ctx, query)
		if err != nil {
			a.logger.Debug("conversational reply failed, using fallback", "error", err)
			answer = conversationalFallback
		}
		a.sessions.Append(sessionID, session.RoleAssistant, answer)
		return Outcome{Answer: answer, Type: OutcomeConversational}
	}

	if err := a.store.Ready(ctx); err != nil {
		return a.fail(sessionID, fmt.Errorf("database unavailable: %w", err))
	}

	u := a.understand(ctx, query)

	rows, err := a.pipeline.Run(ctx, query)
	if err != nil {
		return a.fail(sessionID, err)
	}

	answer, err := a.narrate(ctx, query, u, rows, sessionID)
	if err != nil {
		return a.fail(sessionID, err)
	}

	a.sessions.Append(sessionID, session.RoleAssistant, answer)
	return Outcome{
		Answer:   answer,
		Type:     OutcomeDatabaseQuery,
		Rows:     rows,
		RowCount: len(rows),
		Intent:   u.Intent,
		Entities: u.Entities,
	}
}

// ChatWithFollowUp is Chat with follow-up resolution in front: when the
// session has enough history and the query looks like a continuation, it is
// rewritten into a standalone question first.
func (a *Assistant) ChatWithFollowUp(ctx context.Context, query, sessionID string) Outcome {
	history := a.sessions.Get(sessionID, followUpHistoryLimit)
	if len(history) < 2 {
		return a.Chat(ctx, query, sessionID)
	}

	if a.classifier.FollowUp(query) {
		rewritten := a.resolveFollowUp(ctx, query, history)
		if rewritten != query {
			a.logger.Debug("resolved follow-up", "session_id", sessionID)
		}
		query = rewritten
	}
	return a.Chat(ctx, query, sessionID)
}

// Status reports component health. Database state reflects the one-time
// connection probe: connected, failed, or disconnected when no store is
// attached.
func (a *Assistant) Status(ctx context.Context) Status {
	db := DatabaseDisconnected
	if a.store != nil {
		if err := a.store.Ready(ctx); err != nil {
			db = DatabaseFailed
		} else {
			db = DatabaseConnected
		}
	}
	return Status{Database: db, LLM: "ready", Sessions: a.sessions.Count()}
}

// History returns the most recent turns for a session.
func (a *Assistant) History(sessionID string, limit int) []session.Turn {
	return a.sessions.Get(sessionID, limit)
}

// Export serializes a session's history in the given format.
func (a *Assistant) Export(sessionID, format string) (string, error) {
	return a.sessions.Export(sessionID, format)
}

// ClearHistory discards one session's turns.
func (a *Assistant) ClearHistory(sessionID string) {
	a.sessions.Clear(sessionID)
}

// ClearAll discards every session.
func (a *Assistant) ClearAll() {
	a.sessions.ClearAll()
}

func (a *Assistant) fail(sessionID string, err error) Outcome {
	a.logger.Error("chat failed", "session_id", sessionID, "error", err)
	answer := fmt.Sprintf("I encountered an error: %v. Please try rephrasing your question.", err)
	a.sessions.Append(sessionID, session.RoleAssistant, answer)
	return Outcome{Answer: answer, Type: OutcomeError, Err: err.Error()}
}

const conversationalPromptFmt = `You are a helpful assistant for a field-service business database. The user said: %q

This is a greeting or conversational message, not a database query.

Respond in a friendly, helpful way and let them know you can help them query customers, jobs and bookings.

Response:`

func (a *Assistant) converse(ctx context.Context, query string) (string, error) {
	return a.oracle.Complete(ctx, fmt.Sprintf(conversationalPromptFmt, query))
}

const answerPromptFmt = `You are a helpful assistant answering questions about business data.

Question intent: %s
Entities: %s%s
Rows returned: %d

Query results (JSON):
%s

Recent conversation:
%s

The user asked: %q

Answer the question conversationally using the results above. Mention concrete
names and numbers. If no rows were returned, say so plainly.`

// narrate turns retrieved rows into a natural-language answer. Serialization
// of the rows is a hard error here: an answer narrated from unserializable
// data would be fabricated.
func (a *Assistant) narrate(ctx context.Context, query string, u Understanding, rows []store.Row, sessionID string) (string, error) {
	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return "", fmt.Errorf("serializing query results: %w", err)
	}

	var history strings.Builder
	for _, turn := range a.sessions.Get(sessionID, answerContextTurns) {
		fmt.Fprintf(&history, "%s: %s\n", turn.Role, turn.Content)
	}

	timeframe := ""
	if u.Timeframe != "" {
		timeframe = fmt.Sprintf("\nTimeframe: %s", u.Timeframe)
	}

	prompt := fmt.Sprintf(answerPromptFmt,
		u.Intent, strings.Join(u.Entities, ", "), timeframe,
		len(rows), data, history.String(), query)

	answer, err := a.oracle.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("narrating answer: %w", err)
	}
	return answer, nil
}
