package selection

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/twpicks/internal/contracts"
)

// ErrNoRuns is returned when no run has been recorded yet
var ErrNoRuns = errors.New("no recorded runs")

// PostgresRecorder persists pick results to PostgreSQL
// ⭐ SSOT: 실행 결과 저장/조회는 여기서만 (PostgreSQL)
type PostgresRecorder struct {
	pool *pgxpool.Pool
}

// NewPostgresRecorder creates a new recorder
func NewPostgresRecorder(pool *pgxpool.Pool) *PostgresRecorder {
	return &PostgresRecorder{pool: pool}
}

const postgresSchema = `
	CREATE SCHEMA IF NOT EXISTS selection;
	CREATE TABLE IF NOT EXISTS selection.pick_runs (
		run_id        TEXT PRIMARY KEY,
		run_date      DATE NOT NULL,
		generated_at  TIMESTAMPTZ NOT NULL,
		strategy_hash TEXT NOT NULL DEFAULT '',
		bucket        TEXT NOT NULL,
		pool_size     INT NOT NULL,
		result        JSONB NOT NULL
	);
	CREATE TABLE IF NOT EXISTS selection.picks (
		run_id     TEXT NOT NULL REFERENCES selection.pick_runs(run_id) ON DELETE CASCADE,
		position   INT NOT NULL,
		symbol     TEXT NOT NULL,
		name       TEXT NOT NULL,
		pick_type  TEXT NOT NULL,
		score      DOUBLE PRECISION NOT NULL,
		last_close DOUBLE PRECISION NOT NULL,
		PRIMARY KEY (run_id, position)
	);
	CREATE INDEX IF NOT EXISTS idx_pick_runs_generated ON selection.pick_runs (generated_at DESC);
`

// Migrate creates the tables if missing
func (r *PostgresRecorder) Migrate(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("failed to migrate selection schema: %w", err)
	}
	return nil
}

// SaveRun saves a run and its picks in one transaction
func (r *PostgresRecorder) SaveRun(ctx context.Context, result *contracts.PickResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	runDate, err := time.Parse("2006-01-02", result.Date)
	if err != nil {
		return fmt.Errorf("invalid run date %q: %w", result.Date, err)
	}

	// Begin transaction
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO selection.pick_runs (
			run_id, run_date, generated_at, strategy_hash, bucket, pool_size, result
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, result.RunID, runDate, result.GeneratedAt, result.StrategyHash,
		result.Bucket.Key, result.Pool.Size, resultJSON)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	for i, p := range result.Picks {
		_, err := tx.Exec(ctx, `
			INSERT INTO selection.picks (
				run_id, position, symbol, name, pick_type, score, last_close
			) VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, result.RunID, i+1, p.Symbol, p.Name, string(p.PickType), p.Score, p.LastClose)
		if err != nil {
			return fmt.Errorf("failed to insert pick: %w", err)
		}
	}

	// Commit transaction
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// LatestRun retrieves the most recently generated run
func (r *PostgresRecorder) LatestRun(ctx context.Context) (*contracts.PickResult, error) {
	var raw []byte
	err := r.pool.QueryRow(ctx, `
		SELECT result FROM selection.pick_runs
		ORDER BY generated_at DESC
		LIMIT 1
	`).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNoRuns
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest run: %w", err)
	}
	return decodeResult(raw)
}

// SQLiteRecorder persists pick results to a local SQLite archive
// PostgreSQL 미설정 시 로컬 보관용
type SQLiteRecorder struct {
	db *sql.DB
}

// NewSQLiteRecorder creates a new recorder over an open database
func NewSQLiteRecorder(db *sql.DB) *SQLiteRecorder {
	return &SQLiteRecorder{db: db}
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS pick_runs (
		run_id        TEXT PRIMARY KEY,
		run_date      TEXT NOT NULL,
		generated_at  TEXT NOT NULL,
		strategy_hash TEXT NOT NULL DEFAULT '',
		bucket        TEXT NOT NULL,
		pool_size     INTEGER NOT NULL,
		result        TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS picks (
		run_id     TEXT NOT NULL REFERENCES pick_runs(run_id) ON DELETE CASCADE,
		position   INTEGER NOT NULL,
		symbol     TEXT NOT NULL,
		name       TEXT NOT NULL,
		pick_type  TEXT NOT NULL,
		score      REAL NOT NULL,
		last_close REAL NOT NULL,
		PRIMARY KEY (run_id, position)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_pick_runs_generated ON pick_runs (generated_at DESC)`,
}

// Migrate creates the tables if missing
func (r *SQLiteRecorder) Migrate(ctx context.Context) error {
	for _, stmt := range sqliteSchema {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate sqlite schema: %w", err)
		}
	}
	return nil
}

// SaveRun saves a run and its picks in one transaction
func (r *SQLiteRecorder) SaveRun(ctx context.Context, result *contracts.PickResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// RFC3339Nano UTC 문자열은 사전순 = 시간순
	_, err = tx.ExecContext(ctx, `
		INSERT INTO pick_runs (run_id, run_date, generated_at, strategy_hash, bucket, pool_size, result)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, result.RunID, result.Date, result.GeneratedAt.UTC().Format("2006-01-02T15:04:05.000000000Z"),
		result.StrategyHash, result.Bucket.Key, result.Pool.Size, string(resultJSON))
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	for i, p := range result.Picks {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO picks (run_id, position, symbol, name, pick_type, score, last_close)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, result.RunID, i+1, p.Symbol, p.Name, string(p.PickType), p.Score, p.LastClose)
		if err != nil {
			return fmt.Errorf("failed to insert pick: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// LatestRun retrieves the most recently generated run
func (r *SQLiteRecorder) LatestRun(ctx context.Context) (*contracts.PickResult, error) {
	var raw string
	err := r.db.QueryRowContext(ctx, `
		SELECT result FROM pick_runs ORDER BY generated_at DESC LIMIT 1
	`).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoRuns
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest run: %w", err)
	}
	return decodeResult([]byte(raw))
}

func decodeResult(raw []byte) (*contracts.PickResult, error) {
	var result contracts.PickResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %w", err)
	}
	return &result, nil
}
