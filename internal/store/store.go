// Package store provides the relational store boundary for the assistant.
//
// The assistant's SQL pipeline needs exactly two capabilities from the
// database: execute an arbitrary generated statement and return its rows
// with no static schema knowledge, and describe the live schema as text for
// correction prompts. Both are served here over database/sql with the pgx
// stdlib driver.
//
// # Readiness
//
// Opening the handle is cheap; the connectivity probe runs once,
// asynchronously, at construction. [Store.Ready] blocks until that one-time
// initialization resolves and every caller observes the same outcome; the
// probe is never re-attempted.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver

	"github.com/opsdesk/opsdesk/internal/log"
)

// Row is one record returned by Execute. Column names are whatever the
// generated statement selected; values are driver-decoded.
type Row = map[string]any

// initTimeout bounds the one-time connectivity probe.
const initTimeout = 10 * time.Second

// ErrMissingDSN indicates the store was configured without a connection string.
var ErrMissingDSN = errors.New("store DSN is required")

// Config holds connection pool settings.
type Config struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
}

// Store wraps a Postgres handle behind the two operations the SQL pipeline
// consumes. Safe for concurrent use.
type Store struct {
	db     *sql.DB
	logger log.Logger

	// ready is closed exactly once when the initialization probe resolves;
	// initErr is written before the close and read only after it.
	ready   chan struct{}
	initErr error
}

// New opens the database handle and starts the one-time asynchronous
// initialization probe.
func New(cfg Config, logger log.Logger) (*Store, error) {
	if cfg.DSN == "" {
		return nil, ErrMissingDSN
	}

	db, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	return NewWithDB(db, logger), nil
}

// NewWithDB wraps an existing handle and starts the initialization probe.
// Used by New and by tests that substitute a mock handle.
func NewWithDB(db *sql.DB, logger log.Logger) *Store {
	s := &Store{
		db:     db,
		logger: logger,
		ready:  make(chan struct{}),
	}
	go s.initialize()
	return s
}

// initialize performs the one-time connectivity probe and resolves the
// readiness future.
func (s *Store) initialize() {
	defer close(s.ready)

	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		s.initErr = fmt.Errorf("connecting to database: %w", err)
		s.logger.Error("database initialization failed", "error", err)
		return
	}
	s.logger.Info("database connection established")
}

// Ready blocks until the one-time initialization resolves, returning its
// outcome. A context error is returned if ctx is done first; the probe
// itself keeps running and later callers still observe its result.
func (s *Store) Ready(ctx context.Context) error {
	select {
	case <-s.ready:
		return s.initErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Execute runs a SQL statement and returns its rows as generic records.
// The schema is not statically known at this layer; columns are whatever
// the statement produced. Byte slices are decoded to strings so results
// serialize cleanly into prompts and JSON responses.
func (s *Store) Execute(ctx context.Context, query string) ([]Row, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("reading columns: %w", err)
	}

	out := make([]Row, 0)
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		rec := make(Row, len(cols))
		for i, col := range cols {
			v := values[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			rec[col] = v
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return out, nil
}

// schemaQuery lists every public column in declaration order.
const schemaQuery = `SELECT table_name, column_name, data_type
FROM information_schema.columns
WHERE table_schema = 'public'
ORDER BY table_name, ordinal_position`

// DescribeSchema returns a textual description of the live schema, one
// table per block, for use in SQL correction prompts.
func (s *Store) DescribeSchema(ctx context.Context) (string, error) {
	rows, err := s.db.QueryContext(ctx, schemaQuery)
	if err != nil {
		return "", fmt.Errorf("describing schema: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var b strings.Builder
	current := ""
	for rows.Next() {
		var table, column, dataType string
		if err := rows.Scan(&table, &column, &dataType); err != nil {
			return "", fmt.Errorf("scanning schema row: %w", err)
		}
		if table != current {
			if current != "" {
				b.WriteString("\n")
			}
			b.WriteString("TABLE " + table + "\n")
			current = table
		}
		b.WriteString("  " + column + " " + dataType + "\n")
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("iterating schema rows: %w", err)
	}
	return b.String(), nil
}

// DB exposes the underlying handle for collaborators that manage their own
// statements (CRUD repositories).
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
