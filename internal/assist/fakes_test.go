package assist

import (
	"context"

	"github.com/opsdesk/opsdesk/internal/store"
)

// fakeOracle scripts model behavior per prompt and records every call.
type fakeOracle struct {
	completeFn func(ctx context.Context, prompt string) (string, error)
	generateFn func(ctx context.Context, question string) (string, error)

	completeCalls []string
	generateCalls []string
}

func (f *fakeOracle) Complete(ctx context.Context, prompt string) (string, error) {
	f.completeCalls = append(f.completeCalls, prompt)
	if f.completeFn == nil {
		return "", nil
	}
	return f.completeFn(ctx, prompt)
}

func (f *fakeOracle) GenerateSQL(ctx context.Context, question string) (string, error) {
	f.generateCalls = append(f.generateCalls, question)
	if f.generateFn == nil {
		return "", nil
	}
	return f.generateFn(ctx, question)
}

// fakeQueryStore scripts store behavior and records executed statements.
type fakeQueryStore struct {
	readyErr  error
	executeFn func(ctx context.Context, query string) ([]store.Row, error)
	schema    string
	schemaErr error

	executed []string
}

func (f *fakeQueryStore) Ready(ctx context.Context) error {
	return f.readyErr
}

func (f *fakeQueryStore) Execute(ctx context.Context, query string) ([]store.Row, error) {
	f.executed = append(f.executed, query)
	if f.executeFn == nil {
		return []store.Row{}, nil
	}
	return f.executeFn(ctx, query)
}

func (f *fakeQueryStore) DescribeSchema(ctx context.Context) (string, error) {
	return f.schema, f.schemaErr
}
