package db

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

const (
	maxRetries    = 10
	retryInterval = 2 * time.Second
)

// Open connects to PostgreSQL, retrying while the database comes up.
func Open(databaseURL string) (*sqlx.DB, error) {
	var (
		db  *sqlx.DB
		err error
	)
	for attempt := 1; attempt <= maxRetries; attempt++ {
		db, err = sqlx.Connect("postgres", databaseURL)
		if err == nil {
			log.Info().Msg("connected to database")
			return db, nil
		}

		log.Error().Err(err).
			Int("attempt", attempt).
			Msgf("failed to connect to database, retrying in %s", retryInterval)

		time.Sleep(retryInterval)
	}

	return nil, fmt.Errorf("could not connect to database after %d attempts: %w", maxRetries, err)
}

// upMigrations lists the "*.up.sql" files in migrationsPath sorted by name.
func upMigrations(migrationsPath string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(migrationsPath, "*.up.sql"))
	if err != nil {
		return nil, fmt.Errorf("failed to glob migrations: %w", err)
	}
	sort.Strings(files)
	return files, nil
}

// RunMigrations executes every "*.up.sql" file not yet recorded in schema_migrations,
// in name order, each inside its own transaction.
func RunMigrations(db *sqlx.DB, migrationsPath string) error {
	files, err := upMigrations(migrationsPath)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return nil
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version TEXT PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	var applied []string
	if err := db.Select(&applied, `SELECT version FROM schema_migrations`); err != nil {
		return fmt.Errorf("failed to list applied migrations: %w", err)
	}
	done := make(map[string]bool, len(applied))
	for _, v := range applied {
		done[v] = true
	}

	for _, file := range files {
		version := strings.TrimSuffix(filepath.Base(file), ".up.sql")
		if done[version] {
			continue
		}
		sqlBytes, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("could not read migration %q: %w", file, err)
		}
		if strings.TrimSpace(string(sqlBytes)) == "" {
			continue
		}

		tx, err := db.Beginx()
		if err != nil {
			return fmt.Errorf("failed to begin migration %q: %w", version, err)
		}
		if _, err := tx.Exec(string(sqlBytes)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("error executing migration %q: %w", file, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations (version) VALUES ($1)`, version); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %q: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %q: %w", version, err)
		}
		log.Info().Str("version", version).Msg("applied migration")
	}
	return nil
}
