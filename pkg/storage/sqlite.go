package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/levenlabs/go-lflag"
	_ "modernc.org/sqlite"

	"github.com/aqualedger/aqualedger/pkg/types"
)

// SQLiteProvider implements Database on a local SQLite file.
type SQLiteProvider struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

func configuredSQLite() *SQLiteProvider {
	path := lflag.String("sqlite-path", "aqualedger.db", "Path of the SQLite database when storage-provider is sqlite")

	s := &SQLiteProvider{}
	lflag.Do(func() {
		s.path = *path
	})
	return s
}

// NewSQLiteProvider opens (or creates) the database at path and runs
// migrations.
func NewSQLiteProvider(path string) (*SQLiteProvider, error) {
	s := &SQLiteProvider{path: path}
	if err := s.Init(); err != nil {
		return nil, err
	}
	return s, nil
}

// Init opens the database and runs migrations.
func (s *SQLiteProvider) Init() error {
	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("failed to open sqlite %s: %w", s.path, err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return fmt.Errorf("failed to set WAL mode: %w", err)
	}
	s.db = db
	if err := s.migrate(); err != nil {
		db.Close()
		s.db = nil
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}

func (s *SQLiteProvider) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS settings (
			id      INTEGER PRIMARY KEY CHECK (id = 1),
			version INTEGER NOT NULL,
			json    TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS manual_entries (
			date  TEXT PRIMARY KEY,
			total REAL NOT NULL,
			night REAL NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS reports (
			id   INTEGER PRIMARY KEY CHECK (id = 1),
			json TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS cycle_history (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			completed_at INTEGER NOT NULL,
			json         TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cycle_completed ON cycle_history(completed_at)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("exec %q: %w", stmt[:40], err)
		}
	}
	return nil
}

// Close closes the database.
func (s *SQLiteProvider) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteProvider) GetSettings(ctx context.Context) (types.Settings, int, error) {
	var version int
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT version, json FROM settings WHERE id = 1`).Scan(&version, &raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Settings{}, 0, nil
		}
		return types.Settings{}, 0, fmt.Errorf("failed to query settings: %w", err)
	}
	var settings types.Settings
	if err := json.Unmarshal([]byte(raw), &settings); err != nil {
		return types.Settings{}, 0, fmt.Errorf("failed to unmarshal settings json: %w", err)
	}
	return settings, version, nil
}

func (s *SQLiteProvider) SetSettings(ctx context.Context, settings types.Settings, version int) error {
	b, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO settings (id, version, json) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET version = excluded.version, json = excluded.json`,
		version, string(b),
	)
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

func (s *SQLiteProvider) GetManualEntries(ctx context.Context) (map[string]types.ManualEntry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT date, total, night FROM manual_entries`)
	if err != nil {
		return nil, fmt.Errorf("failed to query manual entries: %w", err)
	}
	defer rows.Close()

	entries := map[string]types.ManualEntry{}
	for rows.Next() {
		var date string
		var e types.ManualEntry
		if err := rows.Scan(&date, &e.Total, &e.Night); err != nil {
			return nil, fmt.Errorf("failed to scan manual entry: %w", err)
		}
		entries[date] = e
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating manual entries: %w", err)
	}
	return entries, nil
}

func (s *SQLiteProvider) UpsertManualEntry(ctx context.Context, date string, entry types.ManualEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO manual_entries (date, total, night) VALUES (?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET total = excluded.total, night = excluded.night`,
		date, entry.Total, entry.Night,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert manual entry %s: %w", date, err)
	}
	return nil
}

func (s *SQLiteProvider) DeleteManualEntry(ctx context.Context, date string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.ExecContext(ctx, `DELETE FROM manual_entries WHERE date = ?`, date); err != nil {
		return fmt.Errorf("failed to delete manual entry %s: %w", date, err)
	}
	return nil
}

func (s *SQLiteProvider) GetLatestReport(ctx context.Context) ([]string, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT json FROM reports WHERE id = 1`).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query latest report: %w", err)
	}
	var lines []string
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report json: %w", err)
	}
	return lines, nil
}

func (s *SQLiteProvider) SetLatestReport(ctx context.Context, lines []string) error {
	b, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO reports (id, json) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET json = excluded.json`,
		string(b),
	)
	if err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}
	return nil
}

func (s *SQLiteProvider) InsertCycle(ctx context.Context, record types.CycleRecord) error {
	b, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal cycle: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO cycle_history (completed_at, json) VALUES (?, ?)`,
		record.CompletedAt.UnixNano(), string(b),
	)
	if err != nil {
		return fmt.Errorf("failed to insert cycle: %w", err)
	}
	return nil
}

func (s *SQLiteProvider) GetCycleHistory(ctx context.Context, start, end time.Time) ([]types.CycleRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT json FROM cycle_history WHERE completed_at >= ? AND completed_at < ? ORDER BY completed_at, id`,
		start.UnixNano(), end.UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query cycle history: %w", err)
	}
	defer rows.Close()

	var records []types.CycleRecord
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan cycle: %w", err)
		}
		var r types.CycleRecord
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			return nil, fmt.Errorf("failed to unmarshal cycle: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cycles: %w", err)
	}
	return records, nil
}

var _ Database = (*SQLiteProvider)(nil)
