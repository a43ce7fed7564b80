// Package oracle wraps the external language model behind the two
// capabilities the assistant consumes: free-text prompt completion and
// schema-bound natural-language-to-SQL generation.
//
// The model is treated as unreliable, latent and non-deterministic; callers
// own all degradation policy. This package only assembles prompts, applies
// proactive rate limiting, and returns the model's text.
package oracle

import (
	"context"
	"errors"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"golang.org/x/time/rate"

	"github.com/opsdesk/opsdesk/internal/log"
)

// DefaultModel is the provider-qualified model used when none is configured.
const DefaultModel = "googleai/gemini-2.5-flash"

// Oracle is the language-model boundary consumed by the assistant.
type Oracle interface {
	// Complete sends a free-text prompt and returns the model's text.
	Complete(ctx context.Context, prompt string) (string, error)

	// GenerateSQL translates a natural-language question into a single
	// PostgreSQL statement. The implementation is bound to a store handle
	// and injects the live schema into the generation prompt.
	GenerateSQL(ctx context.Context, question string) (string, error)
}

// SchemaDescriber is the slice of the relational store the SQL chain needs.
type SchemaDescriber interface {
	DescribeSchema(ctx context.Context) (string, error)
}

// sqlSystemPrompt instructs the model for the SQL generation chain.
const sqlSystemPrompt = "You translate natural language questions into a single PostgreSQL query " +
	"against the schema provided. Return ONLY the SQL query. No markdown, no explanation."

// Config contains the required parameters for the Genkit-backed oracle.
type Config struct {
	Genkit    *genkit.Genkit
	ModelName string // Provider-qualified model name; empty means DefaultModel
	Schema    SchemaDescriber
	Logger    log.Logger

	// RateLimiter is applied before every model call.
	// Nil uses a default of 10 req/s sustained with a burst of 30.
	RateLimiter *rate.Limiter
}

// Genkit is the production Oracle backed by a Genkit instance.
type Genkit struct {
	g       *genkit.Genkit
	model   string
	schema  SchemaDescriber
	logger  log.Logger
	limiter *rate.Limiter
}

// New creates a Genkit-backed oracle.
func New(cfg Config) (*Genkit, error) {
	if cfg.Genkit == nil {
		return nil, errors.New("genkit instance is required")
	}
	if cfg.Schema == nil {
		return nil, errors.New("schema describer is required")
	}
	if cfg.Logger == nil {
		return nil, errors.New("logger is required")
	}

	model := cfg.ModelName
	if model == "" {
		model = DefaultModel
	}
	limiter := cfg.RateLimiter
	if limiter == nil {
		limiter = rate.NewLimiter(10, 30)
	}

	return &Genkit{
		g:       cfg.Genkit,
		model:   model,
		schema:  cfg.Schema,
		logger:  cfg.Logger,
		limiter: limiter,
	}, nil
}

// Complete sends a free-text prompt and returns the model's text output.
func (o *Genkit) Complete(ctx context.Context, prompt string) (string, error) {
	if err := o.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	resp, err := genkit.Generate(ctx, o.g,
		ai.WithModelName(o.model),
		ai.WithPrompt(prompt),
	)
	if err != nil {
		return "", fmt.Errorf("generating completion: %w", err)
	}
	return resp.Text(), nil
}

// GenerateSQL runs the schema-bound SQL generation chain: the live schema
// description is fetched from the bound store and injected alongside the
// question.
func (o *Genkit) GenerateSQL(ctx context.Context, question string) (string, error) {
	schema, err := o.schema.DescribeSchema(ctx)
	if err != nil {
		return "", fmt.Errorf("describing schema for SQL generation: %w", err)
	}

	if err := o.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	resp, err := genkit.Generate(ctx, o.g,
		ai.WithModelName(o.model),
		ai.WithSystem(sqlSystemPrompt),
		ai.WithPrompt("Database schema:\n%s\n\nQuestion: %s", schema, question),
	)
	if err != nil {
		return "", fmt.Errorf("generating SQL: %w", err)
	}

	o.logger.Debug("generated SQL candidate", "model", o.model, "length", len(resp.Text()))
	return resp.Text(), nil
}
