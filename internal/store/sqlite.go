package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/deep6750/ExchangeMore/internal/market"
)

// Store persists a rolling history of synthesized quotes in sqlite.
type Store struct {
	db *sql.DB
}

// QuoteRecord is one historical row as served by the history endpoint.
type QuoteRecord struct {
	ID            int64   `json:"id"`
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
	Volume        int64   `json:"volume"`
	TS            int64   `json:"timestamp"`
	CreatedAt     string  `json:"created_at"`
}

// Open opens (creating if needed) the sqlite database at path and runs
// migrations. The parent directory is created automatically.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	const schema = `
CREATE TABLE IF NOT EXISTS quote_history (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	symbol         TEXT NOT NULL,
	price          REAL NOT NULL,
	change         REAL NOT NULL,
	change_percent REAL NOT NULL,
	volume         INTEGER NOT NULL,
	ts             INTEGER NOT NULL,
	created_at     TEXT NOT NULL DEFAULT (datetime('now'))
);
CREATE INDEX IF NOT EXISTS idx_quote_history_symbol_ts ON quote_history(symbol, ts DESC);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// InsertQuote appends one quote to the history table.
func (s *Store) InsertQuote(q market.Quote) error {
	_, err := s.db.Exec(
		`INSERT INTO quote_history (symbol, price, change, change_percent, volume, ts, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		q.Symbol, q.Price, q.Change, q.ChangePercent, q.Volume, q.TS,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert quote %s: %w", q.Symbol, err)
	}
	return nil
}

// RecentQuotes returns up to limit rows for symbol, newest first.
func (s *Store) RecentQuotes(symbol string, limit int) ([]QuoteRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, symbol, price, change, change_percent, volume, ts, created_at
		 FROM quote_history WHERE symbol = ? ORDER BY ts DESC, id DESC LIMIT ?`,
		symbol, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query history %s: %w", symbol, err)
	}
	defer rows.Close()

	out := make([]QuoteRecord, 0, limit)
	for rows.Next() {
		var r QuoteRecord
		if err := rows.Scan(&r.ID, &r.Symbol, &r.Price, &r.Change, &r.ChangePercent, &r.Volume, &r.TS, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Prune deletes rows older than the cutoff, returning the number removed.
func (s *Store) Prune(before time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM quote_history WHERE ts < ?`, before.Unix())
	if err != nil {
		return 0, fmt.Errorf("prune history: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) Close() error {
	return s.db.Close()
}
