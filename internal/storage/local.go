package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/Nixie-Tech-LLC/minbar/internal/model"
)

// LocalStorage keeps settings in a YAML (or .json) file.
type LocalStorage struct {
	fs   afero.Fs
	path string
}

func NewLocalStorage(fs afero.Fs, path string) *LocalStorage {
	return &LocalStorage{fs: fs, path: path}
}

func (ls *LocalStorage) Path() string { return ls.path }

func (ls *LocalStorage) isJSON() bool {
	return strings.EqualFold(filepath.Ext(ls.path), ".json")
}

func (ls *LocalStorage) Load(_ context.Context) (model.Settings, error) {
	raw, err := afero.ReadFile(ls.fs, ls.path)
	if os.IsNotExist(err) {
		return model.Settings{}, ErrNotFound
	}
	if err != nil {
		return model.Settings{}, fmt.Errorf("failed to read %s: %w", ls.path, err)
	}

	var s model.Settings
	if ls.isJSON() {
		err = json.Unmarshal(raw, &s)
	} else {
		err = yaml.Unmarshal(raw, &s)
	}
	if err != nil {
		return model.Settings{}, fmt.Errorf("failed to parse %s: %w", ls.path, err)
	}
	return s, nil
}

// Save writes to a temporary file and renames it over the target so readers never
// see a partial file.
func (ls *LocalStorage) Save(_ context.Context, s model.Settings) error {
	var (
		raw []byte
		err error
	)
	if ls.isJSON() {
		raw, err = json.MarshalIndent(s, "", "  ")
	} else {
		raw, err = yaml.Marshal(s)
	}
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}

	dir := filepath.Dir(ls.path)
	if err := ls.fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}
	tmp := ls.path + ".tmp"
	if err := afero.WriteFile(ls.fs, tmp, raw, 0644); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	if err := ls.fs.Rename(tmp, ls.path); err != nil {
		return fmt.Errorf("failed to replace settings file: %w", err)
	}
	log.Debug().Str("path", ls.path).Int("bytes", len(raw)).Msg("settings saved")
	return nil
}
