package assist

import (
	"context"
	"fmt"
	"strings"

	"github.com/opsdesk/opsdesk/internal/session"
)

const (
	// followUpHistoryLimit bounds how many turns are fetched when deciding
	// whether a query continues the conversation.
	followUpHistoryLimit = 10

	// rewriteContextTurns bounds how many of those turns feed the rewrite
	// prompt itself.
	rewriteContextTurns = 4
)

const rewritePromptFmt = `Given this conversation history:
%s

The user now asks: %q

If this is a follow-up question referencing previous context, rewrite it as a complete standalone question.
If it is already complete, return it as-is.

Return ONLY the question, nothing else.`

// resolveFollowUp rewrites a contextual continuation into a standalone
// question using the most recent turns. This path never fails the request:
// oracle failure or an empty rewrite falls back to the original query.
func (a *Assistant) resolveFollowUp(ctx context.Context, query string, history []session.Turn) string {
	if len(history) > rewriteContextTurns {
		history = history[len(history)-rewriteContextTurns:]
	}

	var b strings.Builder
	for _, turn := range history {
		fmt.Fprintf(&b, "%s: %s\n", turn.Role, turn.Content)
	}

	out, err := a.oracle.Complete(ctx, fmt.Sprintf(rewritePromptFmt, b.String(), query))
	if err != nil {
		a.logger.Debug("follow-up rewrite failed, using original query", "error", err)
		return query
	}
	rewritten := strings.TrimSpace(out)
	if rewritten == "" {
		return query
	}
	return rewritten
}
