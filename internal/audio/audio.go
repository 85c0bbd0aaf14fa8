// Package audio decides which recorded cue should be playing each second.
package audio

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/minbar/internal/model"
)

// Player plays one source at a time. Implementations must not block on playback.
type Player interface {
	Play(src string) error
	Stop() error
}

// Resolve returns the cue due at now. Entries are scanned in order and a later match
// replaces an earlier one; within a prayer the call wins over the prelude and lead-in.
func Resolve(entries []model.PrayerInstant, configs map[model.PrayerName]model.AudioCueConfig, now time.Time) model.Cue {
	cue := model.Cue{State: model.AudioIdle}
	for _, e := range entries {
		if !e.Name.IsCanonical() {
			continue
		}
		cfg, ok := configs[e.Name]
		if !ok || !cfg.Enabled {
			continue
		}
		if state := window(e.Time, cfg, now); state != model.AudioIdle {
			cue = model.Cue{State: state, Prayer: e.Name, Src: cfg.SourceFor(state)}
		}
	}
	return cue
}

func window(t time.Time, cfg model.AudioCueConfig, now time.Time) model.AudioState {
	callEnd := t.Add(time.Duration(cfg.AdzanDuration) * time.Second)
	preludeStart := t.Add(-time.Duration(cfg.TarhimDuration) * time.Second)
	leadInStart := t.Add(-time.Duration(cfg.TartilOffset) * time.Minute)

	switch {
	case within(now, t, callEnd):
		return model.AudioCall
	case within(now, preludeStart, t):
		return model.AudioPrelude
	case within(now, leadInStart, preludeStart):
		return model.AudioLeadIn
	}
	return model.AudioIdle
}

// within reports start <= now < end.
func within(now, start, end time.Time) bool {
	return !now.Before(start) && now.Before(end)
}

// Transition describes a cue change applied to the player.
type Transition struct {
	From model.Cue
	To   model.Cue
	// Err is the playback error, if any. The cue still counts as current.
	Err error
}

// Scheduler tracks the current cue and edge-triggers the player. It is not safe for
// concurrent use; the engine serialises access.
type Scheduler struct {
	player  Player
	current model.Cue
	testing bool
}

func NewScheduler(p Player) *Scheduler {
	return &Scheduler{player: p, current: model.Cue{State: model.AudioIdle}}
}

func (s *Scheduler) Current() model.Cue { return s.current }
func (s *Scheduler) Testing() bool      { return s.testing }

// Tick resolves the cue for now. It reports false when nothing changed or a test
// cue is holding the player.
func (s *Scheduler) Tick(entries []model.PrayerInstant, configs map[model.PrayerName]model.AudioCueConfig, now time.Time) (Transition, bool) {
	if s.testing {
		return Transition{}, false
	}
	next := Resolve(entries, configs, now)
	if next.Same(s.current) {
		return Transition{}, false
	}
	return s.switchTo(next), true
}

// Test forces a cue until StopTest. An empty src is looked up from the prayer's config.
func (s *Scheduler) Test(state model.AudioState, prayer model.PrayerName, src string, configs map[model.PrayerName]model.AudioCueConfig) Transition {
	if src == "" {
		src = configs[prayer].SourceFor(state)
	}
	s.testing = true
	return s.switchTo(model.Cue{State: state, Prayer: prayer, Src: src})
}

// StopTest leaves test mode and silences the player; the next Tick resumes scheduling.
func (s *Scheduler) StopTest() Transition {
	s.testing = false
	return s.switchTo(model.Cue{State: model.AudioIdle})
}

// Reset silences the player without touching test mode, used on shutdown.
func (s *Scheduler) Reset() Transition {
	return s.switchTo(model.Cue{State: model.AudioIdle})
}

func (s *Scheduler) switchTo(next model.Cue) Transition {
	tr := Transition{From: s.current, To: next}

	if s.current.State != model.AudioIdle {
		if err := s.player.Stop(); err != nil {
			log.Warn().Err(err).Str("state", string(s.current.State)).Msg("failed to stop audio cue")
		}
	}
	if next.State != model.AudioIdle && next.Src != "" {
		if err := s.player.Play(next.Src); err != nil {
			log.Error().Err(err).
				Str("state", string(next.State)).
				Str("prayer", string(next.Prayer)).
				Str("src", next.Src).
				Msg("failed to play audio cue")
			tr.Err = err
		}
	}

	s.current = next
	return tr
}
