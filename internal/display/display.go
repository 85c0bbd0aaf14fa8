// Package display runs the full-screen mode state machine.
package display

import (
	"time"

	"github.com/google/uuid"

	"github.com/Nixie-Tech-LLC/minbar/internal/config"
	"github.com/Nixie-Tech-LLC/minbar/internal/model"
)

// ArrivalWindow is how long after a prayer instant an arrival still fires.
const ArrivalWindow = 5 * time.Second

// Config is the slice of settings the state machine reads.
type Config struct {
	Fullscreen model.FullscreenSettings
	Audio      map[model.PrayerName]model.AudioCueConfig
	Location   *time.Location
}

// ConfigFromSettings builds a Config; loc is the configured zone.
func ConfigFromSettings(s model.Settings, loc *time.Location) Config {
	if loc == nil {
		loc = time.UTC
	}
	return Config{Fullscreen: s.Fullscreen, Audio: s.Audio, Location: loc}
}

func (c Config) zone() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}

// Durations returns a prayer's phase durations with unset values defaulted.
func (c Config) Durations(p model.PrayerName) model.PrayerDurations {
	d := c.Fullscreen.Prayers[p]
	if d.AdzanDuration <= 0 {
		d.AdzanDuration = config.DefaultAdzanDuration
	}
	if d.IqamahWaitDuration <= 0 {
		d.IqamahWaitDuration = config.DefaultIqamahWaitDuration
	}
	if d.SholatDuration <= 0 {
		d.SholatDuration = config.DefaultSholatDuration
	}
	return d
}

// CallDuration prefers the audio call length when that prayer's audio is enabled.
func (c Config) CallDuration(p model.PrayerName) int {
	if a, ok := c.Audio[p]; ok && a.Enabled && a.AdzanDuration > 0 {
		return a.AdzanDuration
	}
	return c.Durations(p).AdzanDuration
}

func (c Config) preSermon() int {
	if c.Fullscreen.PreKhutbahDuration > 0 {
		return c.Fullscreen.PreKhutbahDuration
	}
	return config.DefaultPreKhutbahDuration
}

func (c Config) sermon() int {
	if c.Fullscreen.KhutbahDuration > 0 {
		return c.Fullscreen.KhutbahDuration
	}
	return config.DefaultKhutbahDuration
}

// phaseDuration is the length of an automatically entered phase.
func (c Config) phaseDuration(mode model.DisplayMode, p model.PrayerName) int {
	switch mode {
	case model.ModeCallToPrayer:
		return c.CallDuration(p)
	case model.ModeCongregationalWait:
		return c.Durations(p).IqamahWaitDuration
	case model.ModePrayer:
		return c.Durations(p).SholatDuration
	case model.ModePreSermon:
		return c.preSermon()
	case model.ModeSermon:
		return c.sermon()
	}
	return 0
}

// OverrideDuration is the length of a manually forced mode.
func (c Config) OverrideDuration(mode model.DisplayMode, p model.PrayerName) int {
	d := c.Fullscreen.Prayers[p]
	switch mode {
	case model.ModeNone:
		return 0
	case model.ModeCallToPrayer:
		if a := c.Audio[p]; a.AdzanDuration > 0 {
			return a.AdzanDuration
		}
		if d.AdzanDuration > 0 {
			return d.AdzanDuration
		}
		return config.DefaultAdzanDuration
	case model.ModeCongregationalWait, model.ModePrayer, model.ModePreSermon, model.ModeSermon:
		return c.phaseDuration(mode, p)
	}
	return config.DefaultOverrideDuration
}

// InScreensaverWindow reports whether now falls in [start, end) at minute granularity,
// wrapping past midnight when start is after end.
func (c Config) InScreensaverWindow(now time.Time) bool {
	start, err := config.ParseClock(c.Fullscreen.ScreenSaverStart)
	if err != nil {
		return false
	}
	end, err := config.ParseClock(c.Fullscreen.ScreenSaverEnd)
	if err != nil {
		return false
	}
	local := now.In(c.zone())
	cur := local.Hour()*60 + local.Minute()
	if start > end {
		return cur >= start || cur < end
	}
	return cur >= start && cur < end
}

// Change is one applied transition.
type Change struct {
	Event Event
	From  model.SchedulerState
	To    model.SchedulerState
}

// Scheduler owns the SchedulerState. It is not safe for concurrent use.
type Scheduler struct {
	state         model.SchedulerState
	suppressUntil time.Time
	newID         func() string
}

func NewScheduler() *Scheduler {
	return &Scheduler{state: model.IdleState(), newID: uuid.NewString}
}

func (s *Scheduler) State() model.SchedulerState { return s.state }

// CheckArrivals starts a sequence when a canonical prayer instant passed less than
// ArrivalWindow ago. Only the idle state reacts, and the first match wins.
func (s *Scheduler) CheckArrivals(entries []model.PrayerInstant, cfg Config, now time.Time) (Change, bool) {
	if s.state.Mode != model.ModeNone || now.Before(s.suppressUntil) {
		return Change{}, false
	}
	for _, e := range entries {
		if !e.Name.IsCanonical() {
			continue
		}
		d := now.Sub(e.Time)
		if d < 0 || d >= ArrivalWindow {
			continue
		}

		ev := EventArrival
		if e.Name == model.Dzuhur && now.In(cfg.zone()).Weekday() == time.Friday {
			ev = EventFridayArrival
		}
		mode, _ := Next(s.state.Mode, ev)
		return s.enter(ev, mode, e.Name, cfg.phaseDuration(mode, e.Name), s.newID(), now), true
	}
	return Change{}, false
}

// Countdown decrements the remaining time of a timed phase and advances it once the
// phase has run for its full duration.
func (s *Scheduler) Countdown(cfg Config, now time.Time) (Change, bool) {
	if s.state.Mode == model.ModeNone || s.state.Duration == 0 {
		return Change{}, false
	}
	if s.state.Remaining > 1 {
		s.state.Remaining--
		return Change{}, false
	}

	mode, ok := Next(s.state.Mode, EventExpire)
	if !ok {
		return Change{}, false
	}
	if mode == model.ModeNone {
		return s.reset(EventExpire), true
	}
	prayer := model.Subuh
	if s.state.Prayer != nil {
		prayer = *s.state.Prayer
	}
	return s.enter(EventExpire, mode, prayer, cfg.phaseDuration(mode, prayer), s.state.SequenceID, now), true
}

// CheckScreensaver enters the untimed screensaver from idle inside the window and
// leaves it outside. Sequences are never preempted.
func (s *Scheduler) CheckScreensaver(cfg Config, now time.Time) (Change, bool) {
	inside := cfg.InScreensaverWindow(now)
	switch {
	case s.state.Mode == model.ModeNone && inside:
		from := s.state
		s.state = model.SchedulerState{
			Mode:       model.ModeScreensaver,
			StartedAt:  &now,
			SequenceID: s.newID(),
		}
		return Change{Event: EventScreensaverEnter, From: from, To: s.state}, true
	case s.state.Mode == model.ModeScreensaver && s.state.Duration == 0 && !inside:
		return s.reset(EventScreensaverLeave), true
	}
	return Change{}, false
}

// Override forces mode immediately. prayer defaults to Subuh. Arrival detection is
// held off for ArrivalWindow so a prayer instant in the same window cannot undo it.
func (s *Scheduler) Override(mode model.DisplayMode, prayer *model.PrayerName, cfg Config, now time.Time) Change {
	s.suppressUntil = now.Add(ArrivalWindow)
	if mode == model.ModeNone {
		return s.reset(EventOverride)
	}
	p := model.Subuh
	if prayer != nil {
		p = *prayer
	}
	return s.enter(EventOverride, mode, p, cfg.OverrideDuration(mode, p), s.newID(), now)
}

func (s *Scheduler) enter(ev Event, mode model.DisplayMode, prayer model.PrayerName, duration int, seq string, now time.Time) Change {
	from := s.state
	s.state = model.SchedulerState{
		Mode:       mode,
		Prayer:     &prayer,
		StartedAt:  &now,
		Duration:   duration,
		Remaining:  duration,
		SequenceID: seq,
	}
	return Change{Event: ev, From: from, To: s.state}
}

func (s *Scheduler) reset(ev Event) Change {
	from := s.state
	s.state = model.IdleState()
	return Change{Event: ev, From: from, To: s.state}
}
