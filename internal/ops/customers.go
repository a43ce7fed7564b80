package ops

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Customer is one customer record.
type Customer struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// CustomerSummary is a customer with aggregate activity counts.
type CustomerSummary struct {
	Customer
	Jobs     int `json:"jobs"`
	Bookings int `json:"bookings"`
}

// CustomerInput carries the caller-supplied fields for a new customer.
type CustomerInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// CreateCustomer inserts a customer and returns the stored record.
func (r *Repo) CreateCustomer(ctx context.Context, in CustomerInput) (Customer, error) {
	if in.Name == "" {
		return Customer{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	c := Customer{
		Name:    in.Name,
		Email:   in.Email,
		Phone:   in.Phone,
		Address: in.Address,
	}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO customers (name, email, phone, address)
		 VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), NULLIF($4, ''))
		 RETURNING id, created_at`,
		in.Name, in.Email, in.Phone, in.Address,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return Customer{}, fmt.Errorf("creating customer: %w", err)
	}

	r.logger.Debug("customer created", "customer_id", c.ID)
	return c, nil
}

// GetCustomer looks up one customer by id.
func (r *Repo) GetCustomer(ctx context.Context, id uuid.UUID) (Customer, error) {
	var (
		c     Customer
		email sql.NullString
		phone sql.NullString
		addr  sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, email, phone, address, created_at
		 FROM customers WHERE id = $1`, id,
	).Scan(&c.ID, &c.Name, &email, &phone, &addr, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Customer{}, fmt.Errorf("customer %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Customer{}, fmt.Errorf("fetching customer: %w", err)
	}

	c.Email, c.Phone, c.Address = email.String, phone.String, addr.String
	return c, nil
}

// ListCustomers returns every customer with job and booking counts,
// most recent first.
func (r *Repo) ListCustomers(ctx context.Context) ([]CustomerSummary, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT c.id, c.name, COALESCE(c.email, ''), COALESCE(c.phone, ''),
		        COALESCE(c.address, ''), c.created_at,
		        count(DISTINCT j.id) AS jobs, count(DISTINCT b.id) AS bookings
		 FROM customers c
		 LEFT JOIN jobs j ON j.customer_id = c.id
		 LEFT JOIN bookings b ON b.job_id = j.id
		 GROUP BY c.id
		 ORDER BY c.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing customers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make([]CustomerSummary, 0)
	for rows.Next() {
		var s CustomerSummary
		if err := rows.Scan(&s.ID, &s.Name, &s.Email, &s.Phone, &s.Address,
			&s.CreatedAt, &s.Jobs, &s.Bookings); err != nil {
			return nil, fmt.Errorf("scanning customer: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing customers: %w", err)
	}
	return out, nil
}
