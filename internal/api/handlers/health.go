package handlers

import (
	"net/http"
	"time"
)

// HealthHandler reports liveness and whether stage-2 enrichment is configured
type HealthHandler struct {
	secondaryEnabled bool
	now              func() time.Time
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(secondaryEnabled bool) *HealthHandler {
	return &HealthHandler{secondaryEnabled: secondaryEnabled, now: time.Now}
}

// GetHealth returns server health status
// GET /health, /api/health
func (h *HealthHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"ok":             true,
		"ts":             h.now().UTC().Format(time.RFC3339),
		"finmindEnabled": h.secondaryEnabled,
	})
}
