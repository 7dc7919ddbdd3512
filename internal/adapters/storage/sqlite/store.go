// Package sqlite persists the journal and the usage streak in a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/PabloGalante/onestep/internal/domain"
)

const (
	currentSchemaVersion = 1
	fileName             = "onestep.db"
)

// Store implements domain.JournalStore and domain.UsageStore.
type Store struct {
	conn *sql.DB
	path string
}

// Open creates dataDir if needed and opens (or creates) the database in it.
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, fileName)
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	// One writer keeps SQLITE_BUSY out of the picture.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	s := &Store{conn: conn, path: dbPath}
	if err := s.initSchema(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}
	return s, nil
}

func (s *Store) Path() string { return s.path }

func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) initSchema() error {
	tx, err := s.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`CREATE TABLE IF NOT EXISTS schema_meta (key TEXT PRIMARY KEY, value TEXT NOT NULL)`); err != nil {
		return err
	}

	version, err := readSchemaVersion(tx)
	if err != nil {
		return err
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("db schema version %d is newer than runtime version %d", version, currentSchemaVersion)
	}

	for version < currentSchemaVersion {
		next, err := applyNextMigration(tx, version)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(
			`INSERT INTO schema_meta(key, value) VALUES('schema_version', ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
			strconv.Itoa(next),
		); err != nil {
			return err
		}
		version = next
	}

	return tx.Commit()
}

func readSchemaVersion(tx *sql.Tx) (int, error) {
	var text string
	err := tx.QueryRow(`SELECT value FROM schema_meta WHERE key = 'schema_version'`).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	version, err := strconv.Atoi(text)
	if err != nil {
		return 0, fmt.Errorf("parse schema version %q: %w", text, err)
	}
	return version, nil
}

func applyNextMigration(tx *sql.Tx, version int) (int, error) {
	switch version {
	case 0:
		stmts := []string{
			`CREATE TABLE IF NOT EXISTS journal_entries (
				seq INTEGER PRIMARY KEY AUTOINCREMENT,
				id TEXT NOT NULL UNIQUE,
				task TEXT NOT NULL,
				message_count INTEGER NOT NULL,
				date TEXT NOT NULL,
				created_at INTEGER NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_journal_created ON journal_entries(created_at DESC, seq DESC)`,
			`CREATE TABLE IF NOT EXISTS usage (
				key TEXT PRIMARY KEY,
				last_used_date TEXT NOT NULL,
				streak INTEGER NOT NULL
			)`,
		}
		for _, stmt := range stmts {
			if _, err := tx.Exec(stmt); err != nil {
				return 0, fmt.Errorf("migration 1: %w", err)
			}
		}
		return 1, nil
	default:
		return 0, fmt.Errorf("no migration from schema version %d", version)
	}
}

// ─────────────────────────────────────────
// JournalStore implementation
// ─────────────────────────────────────────

func (s *Store) AppendJournalEntry(ctx context.Context, e *domain.JournalEntry) error {
	if e == nil {
		return nil
	}
	if e.ID == "" {
		e.ID = domain.JournalEntryID(uuid.NewString())
	}

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO journal_entries(id, task, message_count, date, created_at) VALUES(?, ?, ?, ?, ?)`,
		string(e.ID), e.Task, e.MessageCount, e.Date, e.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("sqlite AppendJournalEntry: %w", err)
	}
	return nil
}

func (s *Store) RemoveJournalEntry(ctx context.Context, id domain.JournalEntryID) error {
	if _, err := s.conn.ExecContext(ctx, `DELETE FROM journal_entries WHERE id = ?`, string(id)); err != nil {
		return fmt.Errorf("sqlite RemoveJournalEntry: %w", err)
	}
	return nil
}

func (s *Store) ListJournalEntries(ctx context.Context) ([]*domain.JournalEntry, error) {
	rows, err := s.conn.QueryContext(ctx,
		`SELECT id, task, message_count, date, created_at FROM journal_entries ORDER BY created_at DESC, seq DESC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite ListJournalEntries: %w", err)
	}
	defer rows.Close()

	out := []*domain.JournalEntry{}
	for rows.Next() {
		var (
			e       domain.JournalEntry
			id      string
			created int64
		)
		if err := rows.Scan(&id, &e.Task, &e.MessageCount, &e.Date, &created); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		e.ID = domain.JournalEntryID(id)
		e.CreatedAt = time.Unix(0, created).UTC()
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite ListJournalEntries: %w", err)
	}
	return out, nil
}

// ─────────────────────────────────────────
// UsageStore implementation
// ─────────────────────────────────────────

const usageKey = "default"

func (s *Store) GetUsage(ctx context.Context) (domain.Usage, error) {
	var u domain.Usage
	err := s.conn.QueryRowContext(ctx,
		`SELECT last_used_date, streak FROM usage WHERE key = ?`, usageKey,
	).Scan(&u.LastUsedDate, &u.Streak)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Usage{}, nil
	}
	if err != nil {
		return domain.Usage{}, fmt.Errorf("sqlite GetUsage: %w", err)
	}
	return u, nil
}

func (s *Store) SaveUsage(ctx context.Context, u domain.Usage) error {
	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO usage(key, last_used_date, streak) VALUES(?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET last_used_date = excluded.last_used_date, streak = excluded.streak`,
		usageKey, u.LastUsedDate, u.Streak,
	)
	if err != nil {
		return fmt.Errorf("sqlite SaveUsage: %w", err)
	}
	return nil
}
