package selection

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/twpicks/internal/contracts"
	"github.com/wonny/twpicks/pkg/database"
)

func sampleResult(runID string, at time.Time) *contracts.PickResult {
	return &contracts.PickResult{
		OK:          true,
		RunID:       runID,
		Date:        at.Format("2006-01-02"),
		GeneratedAt: at,
		Pool:        contracts.PoolInfo{Type: "TWSE_TOP_VOLUME", Size: 600},
		WindowDays:  10,
		Bucket:      ParseBucket("100_300"),
		Picks: []contracts.Pick{
			{Symbol: "2317", Name: "鴻海", Score: 12.3, PickType: contracts.PickPrimary, LastClose: 180},
			{Symbol: "2303", Name: "聯電", Score: 4.1, PickType: contracts.PickFallback, FallbackReason: "法人不穩", LastClose: 120},
		},
	}
}

func TestSQLiteRecorder(t *testing.T) {
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "runs", "picks.db"))
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	rec := NewSQLiteRecorder(db)
	require.NoError(t, rec.Migrate(ctx))
	require.NoError(t, rec.Migrate(ctx)) // idempotent

	_, err = rec.LatestRun(ctx)
	assert.ErrorIs(t, err, ErrNoRuns)

	base := time.Date(2026, 1, 5, 7, 10, 0, 0, time.UTC)
	require.NoError(t, rec.SaveRun(ctx, sampleResult("run-1", base)))
	require.NoError(t, rec.SaveRun(ctx, sampleResult("run-2", base.Add(24*time.Hour))))

	latest, err := rec.LatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, "run-2", latest.RunID)
	assert.Equal(t, "100_300", latest.Bucket.Key)
	require.Len(t, latest.Picks, 2)
	assert.Equal(t, contracts.PickFallback, latest.Picks[1].PickType)

	// 같은 run id 재저장은 실패하고 롤백
	assert.Error(t, rec.SaveRun(ctx, sampleResult("run-1", base)))

	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM picks").Scan(&n))
	assert.Equal(t, 4, n)
}

func TestPostgresRecorder(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, url)
	require.NoError(t, err)
	defer pool.Close()

	rec := NewPostgresRecorder(pool)
	require.NoError(t, rec.Migrate(ctx))

	runID := "test-" + time.Now().Format("20060102150405.000000")
	require.NoError(t, rec.SaveRun(ctx, sampleResult(runID, time.Now().Add(time.Hour))))
	defer pool.Exec(ctx, "DELETE FROM selection.pick_runs WHERE run_id = $1", runID)

	latest, err := rec.LatestRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, runID, latest.RunID)
}
