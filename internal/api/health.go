package api

import (
	"context"
	"net/http"
	"time"

	"github.com/opsdesk/opsdesk/internal/log"
)

// readyTimeout bounds how long a readiness probe may wait on the store.
const readyTimeout = 2 * time.Second

// health reports process liveness for container probes.
func health(logger log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, logger, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// readiness reports whether the store's connection probe succeeded.
func readiness(store Readiness, logger log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store != nil {
			ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
			defer cancel()
			if err := store.Ready(ctx); err != nil {
				writeJSON(w, logger, http.StatusServiceUnavailable, map[string]string{
					"status": "unavailable",
					"reason": err.Error(),
				})
				return
			}
		}
		writeJSON(w, logger, http.StatusOK, map[string]string{"status": "ready"})
	}
}
