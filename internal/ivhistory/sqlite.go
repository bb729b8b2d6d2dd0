package ivhistory

import (
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

// SQLiteBackend stores history rows (symbol, seq, value) in SQLite.
type SQLiteBackend struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteBackend opens (or creates) the database and its table.
func NewSQLiteBackend(dbPath string) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS iv_history (
		symbol TEXT    NOT NULL,
		seq    INTEGER NOT NULL,
		value  REAL    NOT NULL,
		PRIMARY KEY (symbol, seq)
	)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate iv_history: %w", err)
	}
	return &SQLiteBackend{db: db}, nil
}

func (b *SQLiteBackend) Name() string { return "sqlite" }

func (b *SQLiteBackend) Load() (map[string][]float64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	rows, err := b.db.Query(`SELECT symbol, value FROM iv_history ORDER BY symbol, seq`)
	if err != nil {
		return nil, fmt.Errorf("query iv_history: %w", err)
	}
	defer rows.Close()

	hist := map[string][]float64{}
	for rows.Next() {
		var sym string
		var v float64
		if err := rows.Scan(&sym, &v); err != nil {
			return nil, fmt.Errorf("scan iv_history: %w", err)
		}
		hist[sym] = append(hist[sym], v)
	}
	return hist, rows.Err()
}

// Save replaces the stored history in one transaction.
func (b *SQLiteBackend) Save(hist map[string][]float64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	tx, err := b.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM iv_history`); err != nil {
		return fmt.Errorf("clear iv_history: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO iv_history (symbol, seq, value) VALUES (?,?,?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()
	for sym, vals := range hist {
		for i, v := range vals {
			if _, err := stmt.Exec(sym, i, v); err != nil {
				return fmt.Errorf("insert %s: %w", sym, err)
			}
		}
	}
	return tx.Commit()
}

func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}
