package main

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"github.com/Nixie-Tech-LLC/minbar/internal/db"
	"github.com/Nixie-Tech-LLC/minbar/internal/storage"
)

// settingsBackend is the configured settings store. local is set only for the file
// backend, which is the one that can be watched.
type settingsBackend struct {
	store storage.Storage
	local *storage.LocalStorage
	db    *sqlx.DB
}

func (b settingsBackend) Close() {
	if b.db != nil {
		_ = b.db.Close()
	}
}

// InitStorage selects and returns the configured settings backend.
func InitStorage(env Environment) (settingsBackend, error) {
	switch env.SettingsBackend {
	case "spaces":
		spacesStorage, err := storage.NewSpacesStorage(
			env.SpacesEndpoint,
			env.SpacesRegion,
			env.SpacesBucket,
			env.SpacesKey,
			env.SpacesAccessKey,
			env.SpacesSecretKey,
		)
		if err != nil {
			return settingsBackend{}, fmt.Errorf("failed to initialize Spaces storage: %w", err)
		}
		log.Info().Str("bucket", env.SpacesBucket).Str("key", env.SpacesKey).Msg("using Spaces settings storage")
		return settingsBackend{store: spacesStorage}, nil

	case "postgres":
		conn, err := db.Open(env.DatabaseURL)
		if err != nil {
			return settingsBackend{}, err
		}
		if err := db.RunMigrations(conn, env.MigrationsPath); err != nil {
			_ = conn.Close()
			return settingsBackend{}, fmt.Errorf("db migrate: %w", err)
		}
		log.Info().Str("name", env.SettingsName).Msg("using PostgreSQL settings storage")
		return settingsBackend{store: db.NewSettingsStore(conn, env.SettingsName), db: conn}, nil
	}

	local := storage.NewLocalStorage(afero.NewOsFs(), env.SettingsPath)
	log.Info().Str("path", env.SettingsPath).Msg("using local settings file")
	return settingsBackend{store: local, local: local}, nil
}
