package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/minbar/internal/broadcast"
	"github.com/Nixie-Tech-LLC/minbar/internal/engine"
	"github.com/Nixie-Tech-LLC/minbar/internal/history"
	displayapi "github.com/Nixie-Tech-LLC/minbar/internal/http/api/display/endpoints"
	"github.com/Nixie-Tech-LLC/minbar/internal/metrics"
	"github.com/Nixie-Tech-LLC/minbar/internal/redis"
	"github.com/Nixie-Tech-LLC/minbar/internal/storage"
)

const (
	startupTimeout  = 30 * time.Second
	shutdownTimeout = 10 * time.Second
	redisTimeout    = 3 * time.Second
)

// ServeCmd runs the engine and the HTTP API until SIGINT/SIGTERM.
type ServeCmd struct{}

func (c *ServeCmd) Run(env Environment) error {
	if err := env.Validate(); err != nil {
		return err
	}
	if env.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	backend, err := InitStorage(env)
	if err != nil {
		return err
	}
	defer backend.Close()

	loadCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	settings, err := storage.LoadOrDefault(loadCtx, backend.store)
	cancel()
	if err != nil {
		return err
	}

	var rdb *redis.Client
	if env.RedisAddress != "" {
		rdb = redis.New(env.RedisAddress, env.RedisUsername, env.RedisPassword, "minbar")
		pingCtx, cancel := context.WithTimeout(ctx, redisTimeout)
		if err := rdb.Ping(pingCtx); err != nil {
			log.Warn().Err(err).Str("address", env.RedisAddress).Msg("redis unreachable, continuing; cache calls will retry")
		}
		cancel()
		defer func() { _ = rdb.Close() }()
	}

	pub, err := newPublisher(env)
	if err != nil {
		return err
	}
	if pub != nil {
		defer func() { _ = pub.Close() }()
	}

	audioPlayer, closePlayer, err := newPlayer(env, pub)
	if err != nil {
		return err
	}
	defer closePlayer()

	reg := prom.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	eng, err := engine.New(ctx, settings, engine.Options{
		Calculator: newCalculator(env, rdb),
		Player:     audioPlayer,
		Clock:      clockwork.NewRealClock(),
		Recorder:   metrics.NewPrometheusRecorder(reg),
	})
	if err != nil {
		return err
	}

	hub := displayapi.NewHub(eng.Snapshot)
	eng.Subscribe(hub)

	deps := routeDeps{Engine: eng, Store: backend.store, Hub: hub, Registry: reg}

	hist, err := history.NewSQLiteStore(env.HistoryPath)
	if err != nil {
		log.Warn().Err(err).Str("path", env.HistoryPath).Msg("event history disabled")
	} else {
		defer func() { _ = hist.Close() }()
		eng.Subscribe(hist)
		deps.History = hist

		pruner, err := startHistoryPruner(hist, env.HistoryRetention)
		if err != nil {
			return err
		}
		defer func() { _ = pruner.Shutdown() }()
	}

	if pub != nil {
		eng.Subscribe(broadcast.NewFanout(pub, env.ScreenID))
	}
	if rdb != nil {
		eng.Subscribe(rdb.SnapshotWriter(env.ScreenID))
	}

	if err := eng.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := eng.Stop(); err != nil {
			log.Error().Err(err).Msg("engine shutdown")
		}
	}()

	if backend.local != nil && env.WatchSettings {
		watcher, err := storage.NewWatcher(backend.local, eng.Apply, eng.Settings)
		if err != nil {
			return err
		}
		if err := watcher.Start(ctx); err != nil {
			log.Warn().Err(err).Msg("settings file watcher disabled")
		} else {
			defer func() { _ = watcher.Stop() }()
		}
	}

	r := gin.New()
	r.Use(gin.Recovery())
	RegisterRoutes(r, env, deps)

	srv := &http.Server{
		Addr:              env.ServerAddress,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("address", env.ServerAddress).Str("screen", env.ScreenID).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// startHistoryPruner deletes history older than retention once an hour.
func startHistoryPruner(hist *history.SQLiteStore, retention time.Duration) (gocron.Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}
	_, err = s.NewJob(
		gocron.DurationJob(time.Hour),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			n, err := hist.Prune(ctx, time.Now().Add(-retention))
			if err != nil {
				log.Warn().Err(err).Msg("failed to prune event history")
				return
			}
			if n > 0 {
				log.Info().Int64("deleted", n).Msg("pruned event history")
			}
		}),
		gocron.WithName("history-prune"),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, err
	}
	s.Start()
	return s, nil
}
