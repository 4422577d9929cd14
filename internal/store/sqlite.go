package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/settlerhq/settler/internal/model"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS markets (
    id TEXT PRIMARY KEY,
    resolved INTEGER NOT NULL DEFAULT 0,
    resolved_outcome INTEGER,
    last_checked_at TEXT,
    doc TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_markets_resolved ON markets(resolved);
`

// SQLiteStore keeps each market as a JSON document alongside a few
// extracted columns for querying outside the oracle. The document is the
// source of truth; the columns are denormalized on every save.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite creates or opens the database at path with WAL mode enabled
// and runs the idempotent schema migration.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func migrate(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	if _, err := db.Exec(`INSERT OR IGNORE INTO schema_version (version) VALUES (1)`); err != nil {
		return fmt.Errorf("recording schema version: %w", err)
	}
	return nil
}

// Load returns every stored market, ordered by id for stable output.
func (s *SQLiteStore) Load(ctx context.Context) ([]model.Market, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT doc FROM markets ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying markets: %w", err)
	}
	defer rows.Close()

	var markets []model.Market
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scanning market row: %w", err)
		}
		var m model.Market
		if err := json.Unmarshal([]byte(doc), &m); err != nil {
			return nil, fmt.Errorf("parsing market document: %w", err)
		}
		markets = append(markets, m)
	}
	return markets, rows.Err()
}

// Save replaces the stored set in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, markets []model.Market) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM markets`); err != nil {
		return fmt.Errorf("clearing markets: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO markets (id, resolved, resolved_outcome, last_checked_at, doc)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, m := range markets {
		doc, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("encoding market %s: %w", m.ID, err)
		}
		var lastChecked any
		if m.Oracle != nil && m.Oracle.LastCheckedAt != nil {
			lastChecked = m.Oracle.LastCheckedAt.UTC().Format(time.RFC3339)
		}
		var outcome any
		if m.ResolvedOutcome != nil {
			outcome = *m.ResolvedOutcome
		}
		if _, err := stmt.ExecContext(ctx, m.ID, boolToInt(m.Resolved), outcome, lastChecked, string(doc)); err != nil {
			return fmt.Errorf("inserting market %s: %w", m.ID, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
