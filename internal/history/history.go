// Package history keeps a queryable log of engine events in SQLite.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"github.com/Nixie-Tech-LLC/minbar/internal/model"
)

const (
	defaultRecent = 50
	maxRecent     = 500
	writeTimeout  = 2 * time.Second
)

// Entry is one stored event.
type Entry struct {
	ID int64 `json:"id"`
	model.Event
}

// SQLiteStore appends engine events and serves the most recent ones.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore opens the history database. Use ":memory:" for an in-memory store.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// a single connection keeps ":memory:" databases shared
	db.SetMaxOpenConns(1)

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		kind TEXT NOT NULL,
		from_state TEXT NOT NULL DEFAULT '',
		to_state TEXT NOT NULL DEFAULT '',
		prayer TEXT NOT NULL DEFAULT '',
		sequence_id TEXT NOT NULL DEFAULT '',
		detail TEXT NOT NULL DEFAULT '',
		at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_events_kind ON events(kind);
	CREATE INDEX IF NOT EXISTS idx_events_at ON events(at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Append stores one event.
func (s *SQLiteStore) Append(ctx context.Context, ev model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO events (kind, from_state, to_state, prayer, sequence_id, detail, at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		string(ev.Kind), ev.From, ev.To, string(ev.Prayer), ev.SequenceID, ev.Detail, ev.At.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// Recent returns up to limit events, newest first. An empty kind matches every kind.
func (s *SQLiteStore) Recent(ctx context.Context, kind model.EventKind, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultRecent
	}
	if limit > maxRecent {
		limit = maxRecent
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT id, kind, from_state, to_state, prayer, sequence_id, detail, at FROM events"
	args := []any{}
	if kind != "" {
		query += " WHERE kind = ?"
		args = append(args, string(kind))
	}
	query += " ORDER BY id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var (
			e      Entry
			kindS  string
			prayer string
			at     int64
		)
		if err := rows.Scan(&e.ID, &kindS, &e.From, &e.To, &prayer, &e.SequenceID, &e.Detail, &at); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.Kind = model.EventKind(kindS)
		e.Prayer = model.PrayerName(prayer)
		e.At = time.UnixMilli(at).UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return entries, nil
}

// Prune deletes events older than before and reports how many were removed.
func (s *SQLiteStore) Prune(ctx context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM events WHERE at < ?", before.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("prune events: %w", err)
	}
	return res.RowsAffected()
}

// OnEvent records engine events; tick notices are not worth keeping.
func (s *SQLiteStore) OnEvent(ev model.Event) {
	if ev.Kind == model.EventTick && ev.Detail == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := s.Append(ctx, ev); err != nil {
		log.Error().Err(err).Str("kind", string(ev.Kind)).Msg("failed to record event history")
	}
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
