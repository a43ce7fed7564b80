package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/opsdesk/opsdesk/internal/log"
	"github.com/opsdesk/opsdesk/internal/ops"
)

// opsHandler serves the structured CRUD surface over the business tables.
type opsHandler struct {
	repo   *ops.Repo
	logger log.Logger
}

// writeRepoError maps repository errors onto HTTP statuses.
func (h *opsHandler) writeRepoError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ops.ErrInvalidInput):
		writeError(w, h.logger, http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, ops.ErrNotFound):
		writeError(w, h.logger, http.StatusNotFound, "not_found", err.Error())
	default:
		h.logger.Error("repository operation failed", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "internal_error", "operation failed")
	}
}

func (h *opsHandler) createCustomer(w http.ResponseWriter, r *http.Request) {
	var in ops.CustomerInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "invalid_body", "request body must be JSON")
		return
	}

	c, err := h.repo.CreateCustomer(r.Context(), in)
	if err != nil {
		h.writeRepoError(w, err)
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, c)
}

func (h *opsHandler) listCustomers(w http.ResponseWriter, r *http.Request) {
	out, err := h.repo.ListCustomers(r.Context())
	if err != nil {
		h.writeRepoError(w, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]any{"customers": out, "count": len(out)})
}

func (h *opsHandler) getCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "invalid_id", "id must be a UUID")
		return
	}

	c, err := h.repo.GetCustomer(r.Context(), id)
	if err != nil {
		h.writeRepoError(w, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, c)
}

func (h *opsHandler) createJob(w http.ResponseWriter, r *http.Request) {
	var in ops.JobInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "invalid_body", "request body must be JSON")
		return
	}

	j, err := h.repo.CreateJob(r.Context(), in)
	if err != nil {
		h.writeRepoError(w, err)
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, j)
}

func (h *opsHandler) listJobs(w http.ResponseWriter, r *http.Request) {
	out, err := h.repo.ListJobs(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		h.writeRepoError(w, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]any{"jobs": out, "count": len(out)})
}

func (h *opsHandler) createBooking(w http.ResponseWriter, r *http.Request) {
	var in ops.BookingInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "invalid_body", "request body must be JSON")
		return
	}

	b, err := h.repo.CreateBooking(r.Context(), in)
	if err != nil {
		h.writeRepoError(w, err)
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, b)
}

func (h *opsHandler) listBookings(w http.ResponseWriter, r *http.Request) {
	out, err := h.repo.ListBookings(r.Context())
	if err != nil {
		h.writeRepoError(w, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]any{"bookings": out, "count": len(out)})
}

func (h *opsHandler) purgeAll(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.PurgeAll(r.Context()); err != nil {
		h.writeRepoError(w, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, map[string]string{"status": "purged"})
}
