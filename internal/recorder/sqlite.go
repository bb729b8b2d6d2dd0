package recorder

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"MarketSnapshot/internal/logger"
	"MarketSnapshot/internal/model"
)

// SQLiteRecorder persists snapshot runs and their rows to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets dashboards read while a run writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	logger.GetLogger().WithComponent("recorder").WithFields(logger.Fields{"path": dbPath}).Info("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS snapshot_runs (
			run_id      TEXT PRIMARY KEY,
			timestamp   INTEGER NOT NULL,
			as_of_utc   TEXT NOT NULL,
			interval    TEXT,
			period      TEXT,
			risk_free   REAL,
			row_count   INTEGER,
			duration_ms INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_ts ON snapshot_runs(timestamp)`,

		`CREATE TABLE IF NOT EXISTS snapshot_rows (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id        TEXT NOT NULL,
			symbol        TEXT NOT NULL,
			price         REAL,
			ret1d         REAL,
			ret5d         REAL,
			rsi14         REAL,
			vol_z         REAL,
			sharpe        REAL,
			iv30          REAL,
			iv_rank       REAL,
			iv_percentile REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_rows_run ON snapshot_rows(run_id)`,
		`CREATE INDEX IF NOT EXISTS idx_rows_symbol ON snapshot_rows(symbol)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordSnapshot stores the run header and every row in one transaction.
// Undefined values are stored as NULL.
func (r *SQLiteRecorder) RecordSnapshot(snap *model.Snapshot, took time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO snapshot_runs
		(run_id, timestamp, as_of_utc, interval, period, risk_free, row_count, duration_ms)
		VALUES (?,?,?,?,?,?,?,?)`,
		snap.RunID, time.Now().Unix(), snap.AsOfUTC, snap.Interval, snap.Period,
		snap.RiskFree, snap.Count, took.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO snapshot_rows
		(run_id, symbol, price, ret1d, ret5d, rsi14, vol_z, sharpe, iv30, iv_rank, iv_percentile)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare rows: %w", err)
	}
	defer stmt.Close()

	for _, row := range snap.Data {
		if _, err := stmt.Exec(snap.RunID, row.Symbol,
			row.Price, row.Ret1, row.Ret5, row.RSI14, row.VolZ, row.Sharpe,
			row.IV30, row.IVRank, row.IVPercentile,
		); err != nil {
			return fmt.Errorf("insert row %s: %w", row.Symbol, err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) LatestRun() (*RunSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var s RunSummary
	var ms int64
	err := r.db.QueryRow(`SELECT run_id, as_of_utc, interval, period, risk_free, row_count, duration_ms
		FROM snapshot_runs ORDER BY timestamp DESC, rowid DESC LIMIT 1`).
		Scan(&s.RunID, &s.AsOfUTC, &s.Interval, &s.Period, &s.RiskFree, &s.Count, &ms)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query latest run: %w", err)
	}
	s.Duration = time.Duration(ms) * time.Millisecond
	return &s, nil
}

func (r *SQLiteRecorder) Close() error {
	return r.db.Close()
}
