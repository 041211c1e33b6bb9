package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/twpicks/internal/api/handlers"
	"github.com/wonny/twpicks/internal/brain"
	"github.com/wonny/twpicks/internal/contracts"
	"github.com/wonny/twpicks/internal/s1_universe"
	"github.com/wonny/twpicks/internal/selection"
	"github.com/wonny/twpicks/pkg/logger"
)

// =============================================================================
// Fakes
// =============================================================================

type fakeRunner struct {
	got    brain.RunConfig
	result *contracts.PickResult
	err    error
}

func (f *fakeRunner) Run(ctx context.Context, cfg brain.RunConfig) (*brain.RunResult, error) {
	f.got = cfg
	if f.err != nil {
		return nil, f.err
	}
	return &brain.RunResult{RunID: f.result.RunID, Success: true, Result: f.result}, nil
}

type fakeRecorder struct {
	saved   []*contracts.PickResult
	saveErr error
}

func (f *fakeRecorder) SaveRun(ctx context.Context, r *contracts.PickResult) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, r)
	return nil
}

func (f *fakeRecorder) LatestRun(ctx context.Context) (*contracts.PickResult, error) {
	if len(f.saved) == 0 {
		return nil, selection.ErrNoRuns
	}
	return f.saved[len(f.saved)-1], nil
}

type fakeScorer struct {
	rec *contracts.ScoreRecord
	err error
}

func (f *fakeScorer) ScoreSymbol(ctx context.Context, symbol string, windowDays int) (*contracts.ScoreRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	rec := *f.rec
	rec.Symbol = symbol
	return &rec, nil
}

func (f *fakeScorer) SecondaryEnabled() bool { return false }

type fakeInspector struct {
	diag *s1_universe.Diagnostics
	err  error
}

func (f *fakeInspector) Inspect(ctx context.Context) (*s1_universe.Diagnostics, error) {
	return f.diag, f.err
}

type panicRunner struct{}

func (panicRunner) Run(ctx context.Context, cfg brain.RunConfig) (*brain.RunResult, error) {
	panic("boom")
}

// =============================================================================
// Helpers
// =============================================================================

type testDeps struct {
	runner    handlers.PicksRunner
	recorder  contracts.RunRecorder
	scorer    *fakeScorer
	inspector *fakeInspector
}

func newTestRouter(d testDeps) http.Handler {
	log := logger.Nop()
	if d.scorer == nil {
		d.scorer = &fakeScorer{rec: &contracts.ScoreRecord{Name: "台積電", Score: 12.3456, Passed: true}}
	}
	if d.inspector == nil {
		d.inspector = &fakeInspector{diag: &s1_universe.Diagnostics{Source: "openapi", RawCount: 1200, PoolCount: 600}}
	}
	return NewRouter(Handlers{
		Health: handlers.NewHealthHandler(true),
		Picks:  handlers.NewPicksHandler(d.runner, d.recorder, log),
		Stock:  handlers.NewStockHandler(d.scorer, log),
		Debug:  handlers.NewDebugHandler(d.inspector, log),
	}, log)
}

func get(t *testing.T, h http.Handler, target string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return rec, body
}

func samplePickResult() *contracts.PickResult {
	return &contracts.PickResult{
		OK:         true,
		RunID:      "run-1",
		Date:       "2026-01-09",
		WindowDays: 10,
		Bucket:     selection.ParseBucket("all"),
		Picks: []contracts.Pick{
			{Symbol: "2330", Name: "台積電", Score: 20.5, PickType: contracts.PickPrimary, Passed: true},
		},
	}
}

// =============================================================================
// Tests
// =============================================================================

func TestRouter_Health(t *testing.T) {
	h := newTestRouter(testDeps{runner: &fakeRunner{result: samplePickResult()}})

	for _, path := range []string{"/health", "/api/health"} {
		rec, body := get(t, h, path)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, true, body["ok"])
		assert.Equal(t, true, body["finmindEnabled"])
		assert.NotEmpty(t, body["ts"])
	}
}

func TestRouter_GetPicks(t *testing.T) {
	runner := &fakeRunner{result: samplePickResult()}
	recorder := &fakeRecorder{}
	h := newTestRouter(testDeps{runner: runner, recorder: recorder})

	rec, body := get(t, h, "/api/picks?window=5&bucket=100_300&topK=20&perBucket=2")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, 5, runner.got.WindowDays)
	assert.Equal(t, "100_300", runner.got.Bucket)
	assert.Equal(t, 20, runner.got.TopK)
	assert.Equal(t, 2, runner.got.PerBucket)

	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "run-1", body["runId"])
	picks := body["picks"].([]interface{})
	require.Len(t, picks, 1)
	assert.Equal(t, "主推", picks[0].(map[string]interface{})["pickType"])

	bucket := body["bucket"].(map[string]interface{})
	assert.Equal(t, "all", bucket["key"])
	assert.Nil(t, bucket["min"])

	require.Len(t, recorder.saved, 1)
}

func TestRouter_GetPicks_MalformedParamsUseDefaults(t *testing.T) {
	runner := &fakeRunner{result: samplePickResult()}
	h := newTestRouter(testDeps{runner: runner})

	rec, _ := get(t, h, "/api/picks?window=abc&topK=")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, runner.got.WindowDays)
	assert.Equal(t, 0, runner.got.TopK)

	rec, body := get(t, h, "/api/picks?window=-3")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, body["ok"])
}

func TestRouter_GetPicks_Errors(t *testing.T) {
	t.Run("pipeline error", func(t *testing.T) {
		h := newTestRouter(testDeps{runner: &fakeRunner{err: errors.New("universe: context canceled")}})
		rec, body := get(t, h, "/api/picks")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, false, body["ok"])
		assert.Contains(t, body["error"], "canceled")
	})

	t.Run("recorder failure does not fail the request", func(t *testing.T) {
		h := newTestRouter(testDeps{
			runner:   &fakeRunner{result: samplePickResult()},
			recorder: &fakeRecorder{saveErr: errors.New("db down")},
		})
		rec, _ := get(t, h, "/api/picks")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("panic is recovered", func(t *testing.T) {
		h := newTestRouter(testDeps{runner: panicRunner{}})
		rec, body := get(t, h, "/api/picks")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Internal server error", body["error"])
	})
}

func TestRouter_GetLatestRun(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		h := newTestRouter(testDeps{runner: &fakeRunner{result: samplePickResult()}})
		rec, _ := get(t, h, "/api/runs/latest")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("empty", func(t *testing.T) {
		h := newTestRouter(testDeps{runner: &fakeRunner{result: samplePickResult()}, recorder: &fakeRecorder{}})
		rec, _ := get(t, h, "/api/runs/latest")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("after a run", func(t *testing.T) {
		recorder := &fakeRecorder{}
		h := newTestRouter(testDeps{runner: &fakeRunner{result: samplePickResult()}, recorder: recorder})
		get(t, h, "/api/picks")

		rec, body := get(t, h, "/api/runs/latest")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "run-1", body["runId"])
	})
}

func TestRouter_GetStock(t *testing.T) {
	h := newTestRouter(testDeps{runner: &fakeRunner{result: samplePickResult()}})

	rec, body := get(t, h, "/api/stock/2330?window=5")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "2330", body["symbol"])
	assert.Equal(t, "台積電", body["name"])
	assert.Equal(t, 12.3456, body["score"])
	assert.Equal(t, false, body["finmindEnabled"])

	rec, _ = get(t, h, "/api/stock/bad!")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_GetStock_Errors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"short history", brain.ErrInsufficientHistory, http.StatusNotFound},
		{"upstream failure", errors.New("fetch bars 2330: status 503"), http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestRouter(testDeps{runner: &fakeRunner{result: samplePickResult()}, scorer: &fakeScorer{err: tt.err}})
			rec, body := get(t, h, "/api/stock/2330")
			assert.Equal(t, tt.want, rec.Code)
			assert.Equal(t, false, body["ok"])
		})
	}
}

func TestRouter_DebugPool(t *testing.T) {
	h := newTestRouter(testDeps{runner: &fakeRunner{result: samplePickResult()}})

	rec, body := get(t, h, "/api/debug/pool")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "openapi", body["source"])
	assert.Equal(t, float64(1200), body["rawCount"])
	assert.Equal(t, float64(600), body["poolCount"])

	h = newTestRouter(testDeps{
		runner:    &fakeRunner{result: samplePickResult()},
		inspector: &fakeInspector{err: context.Canceled},
	})
	rec, _ = get(t, h, "/api/debug/pool")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRouter_NotFound(t *testing.T) {
	h := newTestRouter(testDeps{runner: &fakeRunner{result: samplePickResult()}})
	rec, body := get(t, h, "/api/nope")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, body["error"], "/api/nope")
}
