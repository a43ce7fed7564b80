// Package ops provides typed repositories over the business tables the
// query engine fronts: customers, jobs and bookings.
//
// The assistant reads these tables through generated SQL; this package is
// the structured write and admin path. Both share one database handle.
package ops

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/opsdesk/opsdesk/internal/log"
)

var (
	// ErrNotFound indicates a lookup by identifier matched nothing.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidInput indicates a create request missing required fields.
	ErrInvalidInput = errors.New("invalid input")
)

// Repo executes structured reads and writes against the business tables.
type Repo struct {
	db     *sql.DB
	logger log.Logger
}

func NewRepo(db *sql.DB, logger log.Logger) *Repo {
	return &Repo{db: db, logger: logger}
}

// PurgeAll deletes every booking, job and customer in one transaction,
// child tables first so foreign keys hold at each step.
func (r *Repo) PurgeAll(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning purge: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"bookings", "jobs", "customers"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("purging %s: %w", table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing purge: %w", err)
	}

	r.logger.Info("purged all business data")
	return nil
}
