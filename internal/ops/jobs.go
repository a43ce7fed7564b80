package ops

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DefaultJobStatus is assigned when a create request omits the status.
const DefaultJobStatus = "new"

// Job is one job record. Jobs belong to a customer and may have bookings.
type Job struct {
	ID         uuid.UUID `json:"id"`
	CustomerID uuid.UUID `json:"customerId"`
	JobType    string    `json:"jobType"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
}

// JobInput carries the caller-supplied fields for a new job.
type JobInput struct {
	CustomerID uuid.UUID `json:"customerId"`
	JobType    string    `json:"jobType"`
	Status     string    `json:"status"`
}

// CreateJob inserts a job for an existing customer.
func (r *Repo) CreateJob(ctx context.Context, in JobInput) (Job, error) {
	if in.CustomerID == uuid.Nil {
		return Job{}, fmt.Errorf("%w: customer id is required", ErrInvalidInput)
	}
	if in.JobType == "" {
		return Job{}, fmt.Errorf("%w: job type is required", ErrInvalidInput)
	}
	status := in.Status
	if status == "" {
		status = DefaultJobStatus
	}

	j := Job{CustomerID: in.CustomerID, JobType: in.JobType, Status: status}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO jobs (customer_id, job_type, status)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		in.CustomerID, in.JobType, status,
	).Scan(&j.ID, &j.CreatedAt)
	if err != nil {
		return Job{}, fmt.Errorf("creating job: %w", err)
	}

	r.logger.Debug("job created", "job_id", j.ID, "customer_id", j.CustomerID)
	return j, nil
}

// ListJobs returns jobs most recent first, optionally filtered by status.
func (r *Repo) ListJobs(ctx context.Context, status string) ([]Job, error) {
	query := `SELECT id, customer_id, job_type, status, created_at
	          FROM jobs`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing jobs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]Job, 0)
	for rows.Next() {
		var j Job
		if err := rows.Scan(&j.ID, &j.CustomerID, &j.JobType, &j.Status, &j.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning job: %w", err)
		}
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing jobs: %w", err)
	}
	return out, nil
}
