package ops

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Booking schedules a technician against a job on a given date.
type Booking struct {
	ID            uuid.UUID `json:"id"`
	JobID         uuid.UUID `json:"jobId"`
	Technician    string    `json:"technician"`
	ScheduledDate time.Time `json:"scheduledDate"`
}

// BookingInput carries the caller-supplied fields for a new booking.
type BookingInput struct {
	JobID         uuid.UUID `json:"jobId"`
	Technician    string    `json:"technician"`
	ScheduledDate time.Time `json:"scheduledDate"`
}

// CreateBooking inserts a booking for an existing job.
func (r *Repo) CreateBooking(ctx context.Context, in BookingInput) (Booking, error) {
	if in.JobID == uuid.Nil {
		return Booking{}, fmt.Errorf("%w: job id is required", ErrInvalidInput)
	}
	if in.Technician == "" {
		return Booking{}, fmt.Errorf("%w: technician is required", ErrInvalidInput)
	}
	if in.ScheduledDate.IsZero() {
		return Booking{}, fmt.Errorf("%w: scheduled date is required", ErrInvalidInput)
	}

	b := Booking{JobID: in.JobID, Technician: in.Technician, ScheduledDate: in.ScheduledDate}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO bookings (job_id, technician, scheduled_date)
		 VALUES ($1, $2, $3)
		 RETURNING id`,
		in.JobID, in.Technician, in.ScheduledDate,
	).Scan(&b.ID)
	if err != nil {
		return Booking{}, fmt.Errorf("creating booking: %w", err)
	}

	r.logger.Debug("booking created", "booking_id", b.ID, "job_id", b.JobID)
	return b, nil
}

// ListBookings returns bookings ordered by scheduled date ascending.
func (r *Repo) ListBookings(ctx context.Context) ([]Booking, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, job_id, technician, scheduled_date
		 FROM bookings
		 ORDER BY scheduled_date ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing bookings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]Booking, 0)
	for rows.Next() {
		var b Booking
		if err := rows.Scan(&b.ID, &b.JobID, &b.Technician, &b.ScheduledDate); err != nil {
			return nil, fmt.Errorf("scanning booking: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing bookings: %w", err)
	}
	return out, nil
}
