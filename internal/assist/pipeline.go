package assist

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/opsdesk/opsdesk/internal/log"
	"github.com/opsdesk/opsdesk/internal/oracle"
	"github.com/opsdesk/opsdesk/internal/store"
)

// ErrEmptySQL is returned when sanitizing the model response leaves nothing
// executable.
var ErrEmptySQL = errors.New("model returned no executable SQL")

// QueryStore is the relational store surface the engine drives.
type QueryStore interface {
	// Ready blocks until the store's one-time connection probe resolves.
	Ready(ctx context.Context) error

	// Execute runs one statement and returns generic rows.
	Execute(ctx context.Context, query string) ([]store.Row, error)

	// DescribeSchema returns a textual description of the live schema.
	DescribeSchema(ctx context.Context) (string, error)
}

// pipelineState identifies which arm of the generation machine is running.
type pipelineState int

const (
	// stateInitial generates from static schema hints.
	stateInitial pipelineState = iota

	// stateCorrective regenerates from the failed statement, the store
	// error and the live schema. Entered at most once per invocation.
	stateCorrective
)

// sqlKeywords mark the first statement line when the model prefixes a
// corrected answer with acknowledgement text.
var sqlKeywords = []string{"SELECT", "INSERT", "UPDATE", "DELETE", "WITH"}

// Pipeline turns a natural-language question into executed rows:
// generate, sanitize, execute, with exactly one correction retry on
// execution failure. A second failure is terminal.
type Pipeline struct {
	oracle oracle.Oracle
	store  QueryStore
	hints  string
	logger log.Logger
}

func NewPipeline(o oracle.Oracle, qs QueryStore, logger log.Logger) *Pipeline {
	return &Pipeline{oracle: o, store: qs, hints: SchemaHints(), logger: logger}
}

// Run executes the two-state generation machine for one question.
func (p *Pipeline) Run(ctx context.Context, question string) ([]store.Row, error) {
	var (
		stmt    string
		lastErr error
	)
	for state := stateInitial; state <= stateCorrective; state++ {
		var err error
		switch state {
		case stateInitial:
			stmt, err = p.generate(ctx, question)
		case stateCorrective:
			stmt, err = p.correct(ctx, question, stmt, lastErr)
		}
		if err != nil {
			return nil, err
		}

		rows, execErr := p.store.Execute(ctx, stmt)
		if execErr == nil {
			return rows, nil
		}
		p.logger.Warn("statement execution failed",
			"corrective", state == stateCorrective, "error", execErr)
		lastErr = execErr
	}
	return nil, fmt.Errorf("query failed after correction: %w", lastErr)
}

func (p *Pipeline) generate(ctx context.Context, question string) (string, error) {
	prompt := fmt.Sprintf(
		"%s\n\nUser question: %s\n\nIMPORTANT: Return ONLY the SQL query, nothing else. No explanations, no markdown, just the SQL.",
		p.hints, question)

	raw, err := p.oracle.GenerateSQL(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("generating SQL: %w", err)
	}
	stmt := SanitizeSQL(raw)
	if stmt == "" {
		return "", ErrEmptySQL
	}
	return stmt, nil
}

const correctionPromptFmt = `The following SQL query failed:
%s

Error: %s

Database schema:
%s

Generate a corrected PostgreSQL query for: %s

CRITICAL RULES:
1. Return ONLY the SQL query
2. No explanations or text
3. No markdown formatting
4. Use double quotes for table/column names if needed
5. PostgreSQL syntax only

Corrected SQL query:`

// correct builds the recovery statement from the live schema rather than the
// static hints, since the failure often means the hints were wrong.
func (p *Pipeline) correct(ctx context.Context, question, failed string, execErr error) (string, error) {
	schema, err := p.store.DescribeSchema(ctx)
	if err != nil {
		return "", fmt.Errorf("describing schema for correction: %w", err)
	}

	raw, err := p.oracle.Complete(ctx, fmt.Sprintf(correctionPromptFmt, failed, execErr, schema, question))
	if err != nil {
		return "", fmt.Errorf("generating corrected SQL: %w", err)
	}

	stmt := firstStatement(SanitizeSQL(raw))
	if stmt == "" {
		return "", ErrEmptySQL
	}
	return stmt, nil
}

// firstStatement drops any lines before the first one that starts with a
// SQL statement keyword. Input without any keyword passes through intact.
func firstStatement(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		upper := strings.ToUpper(strings.TrimSpace(line))
		for _, kw := range sqlKeywords {
			if strings.HasPrefix(upper, kw) {
				return strings.TrimSpace(strings.Join(lines[i:], "\n"))
			}
		}
	}
	return s
}
