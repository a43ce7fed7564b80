package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsdesk/opsdesk/internal/log"
	"github.com/opsdesk/opsdesk/internal/ops"
)

func newOpsServer(t *testing.T) (*Server, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	srv, err := NewServer(ServerConfig{
		Logger:    log.NewNop(),
		Assistant: &stubAssist{},
		Repo:      ops.NewRepo(db, log.NewNop()),
	})
	require.NoError(t, err)
	return srv, mock
}

func TestCreateCustomerEndpoint(t *testing.T) {
	srv, mock := newOpsServer(t)

	id := uuid.New()
	mock.ExpectQuery("INSERT INTO customers").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(id, time.Now()))

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/customers",
		strings.NewReader(`{"name":"Priya Shah","email":"priya@example.com"}`)))

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), id.String())
	assert.Contains(t, w.Body.String(), "Priya Shah")
}

func TestCreateCustomerEndpoint_MissingName(t *testing.T) {
	srv, _ := newOpsServer(t)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/customers",
		strings.NewReader(`{"email":"priya@example.com"}`)))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_input")
}

func TestGetCustomerEndpoint_NotFound(t *testing.T) {
	srv, mock := newOpsServer(t)

	id := uuid.New()
	mock.ExpectQuery("SELECT id, name, email, phone, address, created_at").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "phone", "address", "created_at"}))

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/customers/"+id.String(), nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetCustomerEndpoint_InvalidID(t *testing.T) {
	srv, _ := newOpsServer(t)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/customers/not-a-uuid", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListJobsEndpoint_StatusFilter(t *testing.T) {
	srv, mock := newOpsServer(t)

	mock.ExpectQuery("FROM jobs").
		WithArgs("open").
		WillReturnRows(sqlmock.NewRows([]string{"id", "customer_id", "job_type", "status", "created_at"}).
			AddRow(uuid.New(), uuid.New(), "plumbing", "open", time.Now()))

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/jobs?status=open", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)
	assert.Contains(t, w.Body.String(), "plumbing")
}

func TestCreateBookingEndpoint(t *testing.T) {
	srv, mock := newOpsServer(t)

	jobID := uuid.New()
	bookingID := uuid.New()
	mock.ExpectQuery("INSERT INTO bookings").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(bookingID))

	body := `{"jobId":"` + jobID.String() + `","technician":"Marcus","scheduledDate":"2026-03-02T09:00:00Z"}`
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/bookings", strings.NewReader(body)))

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), bookingID.String())
}

func TestPurgeEndpoint(t *testing.T) {
	srv, mock := newOpsServer(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM bookings").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM jobs").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM customers").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/admin/data", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpsRoutesAbsentWithoutRepo(t *testing.T) {
	srv := newTestServer(t, &stubAssist{})

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/customers", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}
