// Package session provides per-session conversation history for the
// assistant.
//
// A session is an ordered log of turns exchanged between the user and the
// assistant, keyed by an opaque session identifier. Sessions are created
// implicitly on first append and retain at most MaxTurns turns; once the
// bound is exceeded the oldest turns are evicted first.
//
// The [Store] interface exists so the in-memory implementation can later be
// swapped for a persistent or distributed backing store without touching the
// assistant orchestrator.
package session

import (
	"errors"
	"time"
)

// Role constants define valid turn roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Export format identifiers accepted by [Store.Export].
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// History bounds.
const (
	// MaxTurns is the maximum number of turns retained per session.
	// Appending beyond this evicts the oldest turn (FIFO).
	MaxTurns = 50

	// DefaultGetLimit is the number of turns returned by Get when the
	// caller does not specify a limit.
	DefaultGetLimit = 20
)

// ErrUnknownFormat indicates an export format other than json or csv.
var ErrUnknownFormat = errors.New("unknown export format")

// Turn is one message in a session's conversation log.
// Turns are immutable once appended; ordering is insertion order.
// The timestamp is informational only.
type Turn struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Store is the session history abstraction used by the assistant.
//
// Implementations must be safe for concurrent use. Append order between
// concurrent requests on the same session is whatever order their calls
// arrive in; the assistant does not serialize requests per session.
type Store interface {
	// Append adds a turn to the session's log, creating the log if absent,
	// and truncates from the front once MaxTurns is exceeded.
	Append(sessionID, role, content string)

	// Get returns the most recent limit turns in chronological order.
	// A non-positive limit means DefaultGetLimit. Unknown sessions yield
	// an empty slice.
	Get(sessionID string, limit int) []Turn

	// Clear deletes the session's log entirely. No-op if absent.
	Clear(sessionID string)

	// ClearAll empties every session's log.
	ClearAll()

	// Count returns the number of live sessions.
	Count() int

	// Export serializes the full retained log as FormatJSON or FormatCSV.
	Export(sessionID, format string) (string, error)
}
