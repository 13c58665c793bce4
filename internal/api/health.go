package api

import (
	"database/sql"
	"net/http"
	"time"
)

// HealthHandler handles the unauthenticated liveness probe.
type HealthHandler struct {
	DB *sql.DB
}

// Health handles GET /api/health.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.DB.PingContext(r.Context()); err != nil {
		jsonResponse(w, http.StatusInternalServerError, map[string]any{
			"status":    "ERROR",
			"database":  "disconnected",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}

	jsonResponse(w, http.StatusOK, map[string]any{
		"status":    "OK",
		"database":  "connected",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
