package handlers

import (
	"context"
	"net/http"

	"github.com/wonny/twpicks/internal/s1_universe"
	"github.com/wonny/twpicks/pkg/logger"
)

// PoolInspector reports how the universe was filtered
type PoolInspector interface {
	Inspect(ctx context.Context) (*s1_universe.Diagnostics, error)
}

// DebugHandler serves diagnostics endpoints
type DebugHandler struct {
	inspector PoolInspector
	logger    *logger.Logger
}

// NewDebugHandler creates a new debug handler
func NewDebugHandler(inspector PoolInspector, log *logger.Logger) *DebugHandler {
	return &DebugHandler{
		inspector: inspector,
		logger:    log.WithField("handler", "debug"),
	}
}

// GetPool returns the universe diagnostics
// GET /api/debug/pool
func (h *DebugHandler) GetPool(w http.ResponseWriter, r *http.Request) {
	diag, err := h.inspector.Inspect(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to inspect pool")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, struct {
		OK bool `json:"ok"`
		*s1_universe.Diagnostics
	}{true, diag})
}
