// Package db keeps the settings object in PostgreSQL.
package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Nixie-Tech-LLC/minbar/internal/model"
	"github.com/Nixie-Tech-LLC/minbar/internal/storage"
)

// SettingsStore stores one settings document per name as jsonb and keeps every saved
// version in settings_history.
type SettingsStore struct {
	db   *sqlx.DB
	name string
}

// compile-time check that SettingsStore implements storage.Storage
var _ storage.Storage = (*SettingsStore)(nil)

func NewSettingsStore(db *sqlx.DB, name string) *SettingsStore {
	if name == "" {
		name = "default"
	}
	return &SettingsStore{db: db, name: name}
}

func (s *SettingsStore) Load(ctx context.Context) (model.Settings, error) {
	var raw []byte
	err := s.db.GetContext(ctx, &raw, `SELECT data FROM settings WHERE name = $1`, s.name)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Settings{}, storage.ErrNotFound
	}
	if err != nil {
		return model.Settings{}, fmt.Errorf("failed to load settings %q: %w", s.name, err)
	}
	var out model.Settings
	if err := json.Unmarshal(raw, &out); err != nil {
		return model.Settings{}, fmt.Errorf("failed to decode settings %q: %w", s.name, err)
	}
	return out, nil
}

func (s *SettingsStore) Save(ctx context.Context, settings model.Settings) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO settings (name, data, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`,
		s.name, raw,
	); err != nil {
		return fmt.Errorf("failed to save settings %q: %w", s.name, err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO settings_history (name, data) VALUES ($1, $2)`, s.name, raw,
	); err != nil {
		return fmt.Errorf("failed to record settings history: %w", err)
	}
	return tx.Commit()
}

// Revision is one saved version of the settings.
type Revision struct {
	ID      int64     `db:"id" json:"id"`
	SavedAt time.Time `db:"saved_at" json:"saved_at"`
	Data    []byte    `db:"data" json:"-"`
}

// Revisions lists the most recent saved versions, newest first.
func (s *SettingsStore) Revisions(ctx context.Context, limit int) ([]Revision, error) {
	if limit <= 0 {
		limit = 20
	}
	revs := []Revision{}
	err := s.db.SelectContext(ctx, &revs,
		`SELECT id, saved_at, data FROM settings_history WHERE name = $1 ORDER BY saved_at DESC, id DESC LIMIT $2`,
		s.name, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list settings revisions: %w", err)
	}
	return revs, nil
}
