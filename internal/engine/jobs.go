package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

const refreshTimeout = 20 * time.Second

// jobs wraps the gocron scheduler driving the engine's periodic tasks.
type jobs struct {
	scheduler gocron.Scheduler

	mu  sync.Mutex
	ids []uuid.UUID
}

func newJobs(clock clockwork.Clock) (*jobs, error) {
	s, err := gocron.NewScheduler(gocron.WithClock(clock))
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	return &jobs{scheduler: s}, nil
}

// register replaces any existing engine jobs with fresh 1s, 10s and 60s tasks.
func (j *jobs) register(e *Engine) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.clear()

	specs := []struct {
		name      string
		interval  time.Duration
		immediate bool
		task      func()
	}{
		{"tick-1s", time.Second, false, func() { e.Tick1s(e.clock.Now()) }},
		{"screensaver-10s", 10 * time.Second, true, func() { e.Tick10s(e.clock.Now()) }},
		{"table-60s", time.Minute, false, func() {
			ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
			defer cancel()
			e.Tick60s(ctx, e.clock.Now())
		}},
	}

	for _, spec := range specs {
		opts := []gocron.JobOption{
			gocron.WithName(spec.name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		}
		if spec.immediate {
			opts = append(opts, gocron.WithStartAt(gocron.WithStartImmediately()))
		}
		job, err := j.scheduler.NewJob(
			gocron.DurationJob(spec.interval),
			gocron.NewTask(spec.task),
			opts...,
		)
		if err != nil {
			j.clear()
			return fmt.Errorf("failed to create %s job: %w", spec.name, err)
		}
		j.ids = append(j.ids, job.ID())
	}
	return nil
}

// clear removes the registered jobs; callers hold mu.
func (j *jobs) clear() {
	for _, id := range j.ids {
		if err := j.scheduler.RemoveJob(id); err != nil {
			log.Warn().Err(err).Str("job_id", id.String()).Msg("failed to remove engine job")
		}
	}
	j.ids = nil
}

func (j *jobs) count() int {
	return len(j.scheduler.Jobs())
}

func (j *jobs) start() {
	j.scheduler.Start()
}

func (j *jobs) stop() error {
	return j.scheduler.Shutdown()
}
