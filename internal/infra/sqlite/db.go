// Package sqlite provides SQLite-based persistent storage for Rover.
// Uses WAL mode for concurrent reads and crash-safe writes.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)
)

// DB wraps a SQLite connection with WAL mode and migrations.
type DB struct {
	db *sql.DB
}

// Open creates or opens the SQLite database at dir/state.db.
// Enables WAL mode, foreign keys, and 5-second busy timeout.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dir, "state.db")
	dsn := dbPath + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// SQLite is single-writer; one connection also serializes the
	// create/claim transactions across overlapping poll ticks.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	d := &DB{db: db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return d, nil
}

// Close cleanly shuts down the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Ping checks database connectivity.
func (d *DB) Ping() error {
	return d.db.Ping()
}

// migrate runs idempotent schema migrations.
func (d *DB) migrate() error {
	migrations := []string{
		// Expeditions — one row per timed commitment. The (owner_id,
		// completed, ends_at) index serves both the duplicate-check on
		// create and the due scan.
		`CREATE TABLE IF NOT EXISTS expeditions (
			id                  TEXT PRIMARY KEY,
			owner_id            TEXT NOT NULL,
			category            TEXT NOT NULL,
			duration_units      REAL NOT NULL,
			party_id            TEXT,
			started_at          INTEGER NOT NULL,
			ends_at             INTEGER NOT NULL,
			completed           BOOLEAN NOT NULL DEFAULT 0,
			outcome_item_id     TEXT,
			outcome_name        TEXT,
			outcome_rarity      TEXT,
			outcome_resolved_at INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_expeditions_owner ON expeditions(owner_id, completed, ends_at)`,
		`CREATE INDEX IF NOT EXISTS idx_expeditions_due ON expeditions(completed, ends_at)`,

		// Per-explorer aggregates, mutated only by the completion transaction.
		`CREATE TABLE IF NOT EXISTS explorer_profiles (
			owner_id           TEXT PRIMARY KEY,
			total_completed    INTEGER NOT NULL DEFAULT 0,
			last_completion_at INTEGER
		)`,

		// Append-only loot history. item_id is the catalog identity captured
		// at resolution time; display names may drift later.
		`CREATE TABLE IF NOT EXISTS loot_history (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			owner_id    TEXT NOT NULL,
			item_id     TEXT NOT NULL,
			item_name   TEXT NOT NULL,
			rarity      TEXT NOT NULL,
			category    TEXT NOT NULL,
			resolved_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_loot_owner ON loot_history(owner_id, resolved_at)`,

		// Parties — durable so a restarted poller can rediscover
		// resolved-but-uncompleted groups and finish the fan-out.
		// started=1 implies the outcome columns are authoritative (all NULL
		// means the party came back empty-handed).
		`CREATE TABLE IF NOT EXISTS parties (
			id                  TEXT PRIMARY KEY,
			creator_id          TEXT NOT NULL,
			category            TEXT NOT NULL,
			duration_units      REAL NOT NULL,
			join_deadline       INTEGER NOT NULL,
			started             BOOLEAN NOT NULL DEFAULT 0,
			ends_at             INTEGER,
			outcome_item_id     TEXT,
			outcome_name        TEXT,
			outcome_rarity      TEXT,
			outcome_resolved_at INTEGER,
			completed           BOOLEAN NOT NULL DEFAULT 0,
			created_at          INTEGER NOT NULL,
			completed_at        INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_parties_unfinished ON parties(completed, join_deadline)`,

		`CREATE TABLE IF NOT EXISTS party_members (
			party_id      TEXT NOT NULL,
			owner_id      TEXT NOT NULL,
			joined_at     INTEGER NOT NULL,
			expedition_id TEXT,
			PRIMARY KEY (party_id, owner_id)
		)`,
	}

	for _, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}

// ─── Helpers ────────────────────────────────────────────────────────────────

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func nullableUnix(t time.Time) sql.NullInt64 {
	if t.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}

func nullStr(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
