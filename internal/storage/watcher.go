package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"reflect"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/minbar/internal/config"
	"github.com/Nixie-Tech-LLC/minbar/internal/model"
)

const defaultDebounce = 500 * time.Millisecond

// ApplyFunc installs reloaded settings.
type ApplyFunc func(ctx context.Context, s model.Settings) error

// Watcher reloads a LocalStorage file when it changes on disk.
type Watcher struct {
	store    *LocalStorage
	apply    ApplyFunc
	current  func() model.Settings
	watcher  *fsnotify.Watcher
	debounce time.Duration

	stopOnce sync.Once
	stop     chan struct{}
	reload   chan struct{}
	done     sync.WaitGroup
}

// NewWatcher watches store's file. current, when set, suppresses reloads that would
// not change anything, such as the write behind an API save.
func NewWatcher(store *LocalStorage, apply ApplyFunc, current func() model.Settings) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	return &Watcher{
		store:    store,
		apply:    apply,
		current:  current,
		watcher:  w,
		debounce: defaultDebounce,
		stop:     make(chan struct{}),
		reload:   make(chan struct{}, 1),
	}, nil
}

// Start watches the directory holding the file, which survives editors that replace
// the file instead of writing it.
func (w *Watcher) Start(ctx context.Context) error {
	dir := filepath.Dir(w.store.Path())
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch settings directory %s: %w", dir, err)
	}
	log.Info().Str("path", w.store.Path()).Msg("watching settings file")

	w.done.Add(2)
	go w.watchLoop(ctx)
	go w.reloadLoop(ctx)
	return nil
}

func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.stop)
		err = w.watcher.Close()
		w.done.Wait()
	})
	return err
}

func (w *Watcher) watchLoop(ctx context.Context) {
	defer w.done.Done()
	name := filepath.Base(w.store.Path())
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stop:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != name {
				continue
			}
			switch {
			case ev.Has(fsnotify.Write), ev.Has(fsnotify.Create), ev.Has(fsnotify.Rename):
				w.trigger()
			case ev.Has(fsnotify.Remove):
				log.Warn().Str("path", ev.Name).Msg("settings file removed, keeping running settings")
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Error().Err(err).Msg("settings watcher error")
		}
	}
}

func (w *Watcher) trigger() {
	select {
	case w.reload <- struct{}{}:
	default:
	}
}

func (w *Watcher) reloadLoop(ctx context.Context) {
	defer w.done.Done()
	var timer *time.Timer
	fire := make(chan struct{}, 1)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case <-w.stop:
			if timer != nil {
				timer.Stop()
			}
			return
		case <-w.reload:
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(w.debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})
		case <-fire:
			if err := w.performReload(ctx); err != nil {
				log.Error().Err(err).Msg("failed to reload settings")
			}
		}
	}
}

func (w *Watcher) performReload(ctx context.Context) error {
	s, err := w.store.Load(ctx)
	if err != nil {
		return err
	}
	s = config.Normalize(s)
	if w.current != nil && reflect.DeepEqual(s, config.Normalize(w.current())) {
		log.Debug().Msg("settings file unchanged")
		return nil
	}
	if err := w.apply(ctx, s); err != nil {
		return fmt.Errorf("failed to apply reloaded settings: %w", err)
	}
	log.Info().Str("path", w.store.Path()).Msg("settings reloaded")
	return nil
}
