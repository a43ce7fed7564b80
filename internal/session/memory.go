package session

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store implementation.
//
// All logs live in process memory; restarting the process loses history.
// A RWMutex guards the map, since Go maps do not tolerate unsynchronized
// mutation. No ordering is imposed between concurrent appenders on the
// same session beyond arrival order at the lock.
type MemoryStore struct {
	mu   sync.RWMutex
	logs map[string][]Turn
	now  func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		logs: make(map[string][]Turn),
		now:  time.Now,
	}
}

// Append adds a turn stamped with the current time, evicting the oldest
// turn once the session exceeds MaxTurns.
func (s *MemoryStore) Append(sessionID, role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := append(s.logs[sessionID], Turn{
		Role:      role,
		Content:   content,
		Timestamp: s.now(),
	})
	if len(log) > MaxTurns {
		log = log[len(log)-MaxTurns:]
	}
	s.logs[sessionID] = log
}

// Get returns a copy of the most recent limit turns in chronological order.
func (s *MemoryStore) Get(sessionID string, limit int) []Turn {
	if limit <= 0 {
		limit = DefaultGetLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	log := s.logs[sessionID]
	if len(log) > limit {
		log = log[len(log)-limit:]
	}
	out := make([]Turn, len(log))
	copy(out, log)
	return out
}

// Clear deletes the session's log entirely.
func (s *MemoryStore) Clear(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.logs, sessionID)
}

// ClearAll empties every session's log.
func (s *MemoryStore) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = make(map[string][]Turn)
}

// Count returns the number of live sessions.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.logs)
}

// Export serializes the full retained log.
//
// JSON output is an indented array of turns. CSV output carries a
// "timestamp","role","content" header row; timestamps are Unix
// milliseconds and embedded double quotes are escaped by doubling.
func (s *MemoryStore) Export(sessionID, format string) (string, error) {
	s.mu.RLock()
	log := s.logs[sessionID]
	turns := make([]Turn, len(log))
	copy(turns, log)
	s.mu.RUnlock()

	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(turns, "", "  ")
		if err != nil {
			return "", fmt.Errorf("marshaling history: %w", err)
		}
		return string(data), nil

	case FormatCSV:
		var b strings.Builder
		b.WriteString(`"timestamp","role","content"`)
		for _, t := range turns {
			b.WriteString("\n")
			b.WriteString(`"` + strconv.FormatInt(t.Timestamp.UnixMilli(), 10) + `",`)
			b.WriteString(`"` + csvEscape(t.Role) + `",`)
			b.WriteString(`"` + csvEscape(t.Content) + `"`)
		}
		return b.String(), nil

	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// csvEscape doubles embedded double quotes per RFC 4180.
func csvEscape(s string) string {
	return strings.ReplaceAll(s, `"`, `""`)
}
