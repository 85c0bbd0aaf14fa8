// Package storage persists the settings object. The engine loads it once at startup and
// saves it on every operator change.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/minbar/internal/config"
	"github.com/Nixie-Tech-LLC/minbar/internal/model"
)

var ErrNotFound = errors.New("settings not found")

type Storage interface {
	// Load returns ErrNotFound when nothing has been saved yet.
	Load(ctx context.Context) (model.Settings, error)
	Save(ctx context.Context, s model.Settings) error
}

// LoadOrDefault falls back to config.Default when the store is empty.
func LoadOrDefault(ctx context.Context, st Storage) (model.Settings, error) {
	s, err := st.Load(ctx)
	if errors.Is(err, ErrNotFound) {
		log.Info().Msg("no saved settings, using defaults")
		return config.Default(), nil
	}
	if err != nil {
		return model.Settings{}, fmt.Errorf("failed to load settings: %w", err)
	}
	return config.Normalize(s), nil
}
