package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/wonny/twpicks/internal/brain"
	"github.com/wonny/twpicks/internal/contracts"
	"github.com/wonny/twpicks/internal/selection"
	"github.com/wonny/twpicks/pkg/logger"
)

// PicksRunner runs the screening pipeline on demand
type PicksRunner interface {
	Run(ctx context.Context, cfg brain.RunConfig) (*brain.RunResult, error)
}

// PicksHandler serves the pick list and the last recorded run
// ⭐ SSOT: 추천 API 핸들러는 이 구조체에서만
type PicksHandler struct {
	runner   PicksRunner
	recorder contracts.RunRecorder // nil ⇒ 기록 없음
	logger   *logger.Logger
}

// NewPicksHandler creates a new picks handler
func NewPicksHandler(runner PicksRunner, recorder contracts.RunRecorder, log *logger.Logger) *PicksHandler {
	return &PicksHandler{
		runner:   runner,
		recorder: recorder,
		logger:   log.WithField("handler", "picks"),
	}
}

// GetPicks runs the pipeline and returns the picks
// GET /api/picks?window=10&bucket=all|lt100|100_300|300_600|600_1000|gt1000&topK=40&perBucket=0
func (h *PicksHandler) GetPicks(w http.ResponseWriter, r *http.Request) {
	cfg := brain.RunConfig{
		WindowDays: queryInt(r, "window", 0),
		TopK:       queryInt(r, "topK", 0),
		Bucket:     r.URL.Query().Get("bucket"),
		PerBucket:  queryInt(r, "perBucket", 0),
	}
	if cfg.WindowDays < 0 {
		respondError(w, http.StatusBadRequest, "window must be positive")
		return
	}

	res, err := h.runner.Run(r.Context(), cfg)
	if err != nil {
		h.logger.WithError(err).Error("Pipeline run failed")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if h.recorder != nil && res.Result != nil {
		// 기록 실패는 응답에 영향 없음
		if err := h.recorder.SaveRun(r.Context(), res.Result); err != nil {
			h.logger.WithError(err).WithField("run_id", res.RunID).Warn("Failed to record run")
		}
	}

	respondJSON(w, http.StatusOK, res.Result)
}

// GetLatestRun returns the most recently recorded run
// GET /api/runs/latest
func (h *PicksHandler) GetLatestRun(w http.ResponseWriter, r *http.Request) {
	if h.recorder == nil {
		respondError(w, http.StatusNotFound, "run recording is disabled")
		return
	}

	result, err := h.recorder.LatestRun(r.Context())
	if errors.Is(err, selection.ErrNoRuns) {
		respondError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to load latest run")
		respondError(w, http.StatusInternalServerError, "Failed to load latest run")
		return
	}

	respondJSON(w, http.StatusOK, result)
}
