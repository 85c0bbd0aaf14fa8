// Package engine owns the prayer table, the audio cue scheduler and the display state
// machine, and drives them from a single clock.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/minbar/internal/audio"
	"github.com/Nixie-Tech-LLC/minbar/internal/config"
	"github.com/Nixie-Tech-LLC/minbar/internal/display"
	"github.com/Nixie-Tech-LLC/minbar/internal/metrics"
	"github.com/Nixie-Tech-LLC/minbar/internal/model"
	"github.com/Nixie-Tech-LLC/minbar/internal/prayertime"
)

const defaultEventBuffer = 256

var ErrInvalidRequest = errors.New("invalid request")

type Options struct {
	Calculator  prayertime.Calculator
	Player      audio.Player
	Clock       clockwork.Clock
	Recorder    metrics.Recorder
	EventBuffer int
}

// Engine is the single owner of scheduling state. All mutation happens under mu.
type Engine struct {
	mu       sync.Mutex
	clock    clockwork.Clock
	calc     prayertime.Calculator
	recorder metrics.Recorder

	settings   model.Settings
	inputs     prayertime.Inputs
	displayCfg display.Config
	generation uint64

	table prayertime.Table
	// prev is the table replaced at the last date change; its trailing windows
	// (Isya's call) are still evaluated.
	prev prayertime.Table

	audio    *audio.Scheduler
	display  *display.Scheduler
	lastTick time.Time
	snapshot model.Snapshot

	notices   chan notice
	obsMu     sync.RWMutex
	observers []Observer

	jobs    *jobs
	started bool
	wg      sync.WaitGroup
	cancel  context.CancelFunc
}

// New validates settings and builds the first table. The periodic tasks do not run
// until Start.
func New(ctx context.Context, settings model.Settings, opts Options) (*Engine, error) {
	if opts.Calculator == nil {
		return nil, errors.New("engine: calculator is required")
	}
	if opts.Player == nil {
		return nil, errors.New("engine: player is required")
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}
	if opts.EventBuffer <= 0 {
		opts.EventBuffer = defaultEventBuffer
	}

	settings = config.Normalize(settings)
	inputs, err := checkSettings(settings)
	if err != nil {
		return nil, err
	}

	j, err := newJobs(opts.Clock)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		clock:      opts.Clock,
		calc:       opts.Calculator,
		recorder:   opts.Recorder,
		settings:   settings,
		inputs:     inputs,
		displayCfg: display.ConfigFromSettings(settings, inputs.Location),
		table:      prayertime.EmptyTable(),
		prev:       prayertime.EmptyTable(),
		audio:      audio.NewScheduler(opts.Player),
		display:    display.NewScheduler(),
		notices:    make(chan notice, opts.EventBuffer),
		jobs:       j,
	}
	if err := e.Refresh(ctx, e.clock.Now()); err != nil {
		log.Warn().Err(err).Msg("starting without a prayer schedule")
	}
	return e, nil
}

func checkSettings(s model.Settings) (prayertime.Inputs, error) {
	if err := config.Validate(s); err != nil {
		return prayertime.Inputs{}, err
	}
	inputs, err := prayertime.InputsFromSettings(s)
	if err != nil {
		return prayertime.Inputs{}, fmt.Errorf("%w: %w", config.ErrInvalidSettings, err)
	}
	return inputs, nil
}

// Start registers the periodic tasks and the observer dispatcher.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return nil
	}
	if err := e.jobs.register(e); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.dispatch(ctx)
	}()

	e.jobs.start()
	e.started = true
	log.Info().Int("jobs", e.jobs.count()).Msg("engine started")
	return nil
}

// Stop shuts the periodic tasks down and silences the player.
func (e *Engine) Stop() error {
	e.mu.Lock()
	if !e.started {
		e.mu.Unlock()
		return nil
	}
	e.started = false
	e.mu.Unlock()

	err := e.jobs.stop()

	e.mu.Lock()
	e.audio.Reset()
	e.mu.Unlock()

	e.cancel()
	e.wg.Wait()
	log.Info().Msg("engine stopped")
	return err
}

// Tick1s runs countdown, arrival detection and cue resolution, then publishes a snapshot.
func (e *Engine) Tick1s(now time.Time) {
	e.mu.Lock()

	if !e.lastTick.IsZero() && now.Sub(e.lastTick) > display.ArrivalWindow {
		gap := now.Sub(e.lastTick)
		log.Warn().Dur("gap", gap).Time("last_tick", e.lastTick).Msg("missed tick, arrivals in the gap are not caught up")
		e.recorder.IncMissedTick()
		e.emit(model.Event{Kind: model.EventTick, Detail: fmt.Sprintf("missed %s", gap.Round(time.Second)), At: now})
	}
	e.lastTick = now

	entries := e.entries()
	if ch, ok := e.display.Countdown(e.displayCfg, now); ok {
		e.recordDisplay(ch, now)
	}
	if ch, ok := e.display.CheckArrivals(entries, e.displayCfg, now); ok {
		if ch.To.Prayer != nil {
			e.recorder.IncArrival(string(*ch.To.Prayer))
		}
		e.recordDisplay(ch, now)
	}
	if tr, ok := e.audio.Tick(entries, e.settings.Audio, now); ok {
		e.recordAudio(tr, now)
	}

	snap := e.buildSnapshot(now)
	e.snapshot = snap
	stale := snap.NextPrayer != nil && !snap.NextPrayer.Time.After(now)
	e.mu.Unlock()

	e.publish(snap)

	if stale {
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()
		if err := e.Refresh(ctx, now); err != nil {
			log.Warn().Err(err).Msg("prayer table refresh after next entry passed failed")
		}
	}
}

// Tick10s enters or leaves the screensaver.
func (e *Engine) Tick10s(now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if ch, ok := e.display.CheckScreensaver(e.displayCfg, now); ok {
		e.recordDisplay(ch, now)
		e.snapshot = e.buildSnapshot(now)
	}
}

// Tick60s rebuilds the prayer table.
func (e *Engine) Tick60s(ctx context.Context, now time.Time) {
	if err := e.Refresh(ctx, now); err != nil {
		log.Error().Err(err).Msg("prayer table refresh failed")
	}
}

// Refresh computes a table outside the lock and swaps it in. A failed build leaves
// an empty table so the snapshot reports no schedule.
func (e *Engine) Refresh(ctx context.Context, now time.Time) error {
	e.mu.Lock()
	in, gen := e.inputs, e.generation
	e.mu.Unlock()

	start := time.Now()
	table, err := prayertime.Build(ctx, e.calc, in, now)
	e.recorder.ObserveTableRefresh(time.Since(start), err == nil)

	e.mu.Lock()
	defer e.mu.Unlock()
	if gen != e.generation {
		// settings changed while computing; the newer refresh owns the table
		return nil
	}
	e.swapTable(table, err, now)
	e.snapshot = e.buildSnapshot(now)
	return err
}

func (e *Engine) swapTable(table prayertime.Table, err error, now time.Time) {
	old := e.table
	switch {
	case err != nil:
		e.prev = prayertime.EmptyTable()
	case old.Available() && old.Date != table.Date:
		e.prev = old
	}
	e.table = table

	if old.Date == table.Date && old.NextIndex == table.NextIndex && old.Available() == table.Available() {
		return
	}
	ev := model.Event{Kind: model.EventTable, From: old.Date, To: table.Date, At: now}
	if err != nil {
		ev.Detail = err.Error()
	} else if next := table.Next(); next != nil {
		ev.Prayer = next.Name
		ev.Detail = "next " + next.Time.Format(time.RFC3339)
	}
	log.Info().Str("date", table.Date).Int("next_index", table.NextIndex).Bool("available", table.Available()).Msg("prayer table updated")
	e.emit(ev)
}

// entries are the previous day's entries followed by the active table.
func (e *Engine) entries() []model.PrayerInstant {
	if !e.prev.Available() {
		return e.table.Entries
	}
	out := make([]model.PrayerInstant, 0, len(e.prev.Entries)+len(e.table.Entries))
	out = append(out, e.prev.Entries...)
	return append(out, e.table.Entries...)
}

// Apply validates and installs new settings, rebuilds the table and re-registers the
// periodic tasks. Rejected settings leave the running configuration untouched.
func (e *Engine) Apply(ctx context.Context, settings model.Settings) error {
	settings = config.Normalize(settings)
	inputs, err := checkSettings(settings)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.settings = settings
	e.inputs = inputs
	e.displayCfg = display.ConfigFromSettings(settings, inputs.Location)
	e.generation++
	e.prev = prayertime.EmptyTable()
	started := e.started
	e.mu.Unlock()

	now := e.clock.Now()
	if err := e.Refresh(ctx, now); err != nil {
		log.Warn().Err(err).Msg("settings applied but no prayer schedule could be computed")
	}

	if started {
		if err := e.jobs.register(e); err != nil {
			return err
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.snapshot = e.buildSnapshot(now)
	log.Info().Str("method", settings.Location.Method).Str("timezone", settings.Location.Timezone).Msg("settings applied")
	return nil
}

// OverrideMode forces a display mode. prayer may be nil.
func (e *Engine) OverrideMode(mode model.DisplayMode, prayer *model.PrayerName) (model.Snapshot, error) {
	if prayer != nil && !prayer.IsCanonical() {
		return model.Snapshot{}, fmt.Errorf("%w: %q is not a daily prayer", ErrInvalidRequest, *prayer)
	}
	now := e.clock.Now()

	e.mu.Lock()
	defer e.mu.Unlock()
	ch := e.display.Override(mode, prayer, e.displayCfg, now)
	e.recordDisplay(ch, now)
	e.snapshot = e.buildSnapshot(now)
	log.Info().Str("mode", string(mode)).Int("duration", ch.To.Duration).Msg("manual display override")
	return e.snapshot, nil
}

// TestAudioCue plays a cue until StopTest. An empty src is taken from the prayer's config.
func (e *Engine) TestAudioCue(state model.AudioState, prayer model.PrayerName, src string) (model.Snapshot, error) {
	if state == model.AudioIdle {
		return model.Snapshot{}, fmt.Errorf("%w: cannot test the idle state", ErrInvalidRequest)
	}
	if !prayer.IsCanonical() {
		return model.Snapshot{}, fmt.Errorf("%w: %q is not a daily prayer", ErrInvalidRequest, prayer)
	}
	now := e.clock.Now()

	e.mu.Lock()
	defer e.mu.Unlock()
	tr := e.audio.Test(state, prayer, src, e.settings.Audio)
	e.recordAudio(tr, now)
	e.snapshot = e.buildSnapshot(now)
	return e.snapshot, nil
}

// StopTest leaves audio test mode; scheduling resumes on the next tick.
func (e *Engine) StopTest() model.Snapshot {
	now := e.clock.Now()

	e.mu.Lock()
	defer e.mu.Unlock()
	tr := e.audio.StopTest()
	e.recordAudio(tr, now)
	e.snapshot = e.buildSnapshot(now)
	return e.snapshot
}

// Snapshot returns the view published by the last tick.
func (e *Engine) Snapshot() model.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return copySnapshot(e.snapshot)
}

// Table returns the active prayer table.
func (e *Engine) Table() prayertime.Table {
	e.mu.Lock()
	defer e.mu.Unlock()
	t := e.table
	t.Entries = append([]model.PrayerInstant(nil), e.table.Entries...)
	return t
}

// Settings returns a copy of the running settings.
func (e *Engine) Settings() model.Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settings.Clone()
}

// Location is the configured time zone.
func (e *Engine) Location() *time.Location {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.inputs.Location
}

func (e *Engine) Now() time.Time {
	return e.clock.Now()
}

func (e *Engine) buildSnapshot(now time.Time) model.Snapshot {
	st := e.display.State()
	cue := e.audio.Current()

	snap := model.Snapshot{
		Mode:              st.Mode,
		PrayerName:        st.Prayer,
		Remaining:         st.Remaining,
		Total:             st.Duration,
		SequenceID:        st.SequenceID,
		AudioState:        cue.State,
		AudioSrc:          cue.Src,
		AudioTest:         e.audio.Testing(),
		ScheduleAvailable: e.table.Available(),
		NextIndex:         e.table.NextIndex,
		NextPrayer:        e.table.Next(),
		Table:             append([]model.PrayerInstant{}, e.table.Entries...),
		At:                now,
	}
	if cue.Prayer != "" {
		p := cue.Prayer
		snap.AudioPrayer = &p
	}
	if snap.NextPrayer != nil {
		e.recorder.SetSecondsToNextPrayer(snap.NextPrayer.Time.Sub(now).Seconds())
	}
	return snap
}

func copySnapshot(s model.Snapshot) model.Snapshot {
	s.Table = append([]model.PrayerInstant{}, s.Table...)
	return s
}

func (e *Engine) recordDisplay(ch display.Change, now time.Time) {
	kind := model.EventDisplay
	if ch.Event == display.EventOverride {
		kind = model.EventOverride
	}
	ev := model.Event{
		Kind:       kind,
		From:       string(ch.From.Mode),
		To:         string(ch.To.Mode),
		SequenceID: ch.To.SequenceID,
		Detail:     string(ch.Event),
		At:         now,
	}
	if ev.SequenceID == "" {
		ev.SequenceID = ch.From.SequenceID
	}
	switch {
	case ch.To.Prayer != nil:
		ev.Prayer = *ch.To.Prayer
	case ch.From.Prayer != nil:
		ev.Prayer = *ch.From.Prayer
	}

	log.Info().
		Str("event", string(ch.Event)).
		Str("from", ev.From).
		Str("to", ev.To).
		Str("prayer", string(ev.Prayer)).
		Int("duration", ch.To.Duration).
		Msg("display transition")
	e.recorder.IncTransition(string(kind), ev.From, ev.To)
	e.recorder.SetDisplayMode(ev.To)
	e.emit(ev)
}

func (e *Engine) recordAudio(tr audio.Transition, now time.Time) {
	ev := model.Event{
		Kind:   model.EventAudio,
		From:   string(tr.From.State),
		To:     string(tr.To.State),
		Prayer: tr.To.Prayer,
		Detail: tr.To.Src,
		At:     now,
	}
	if ev.Prayer == "" {
		ev.Prayer = tr.From.Prayer
	}
	if tr.Err != nil {
		e.recorder.IncPlaybackError()
		ev.Detail = tr.Err.Error()
	}

	log.Info().
		Str("from", ev.From).
		Str("to", ev.To).
		Str("prayer", string(ev.Prayer)).
		Str("src", tr.To.Src).
		Msg("audio cue change")
	e.recorder.IncTransition(string(model.EventAudio), ev.From, ev.To)
	e.recorder.SetAudioState(ev.To)
	e.emit(ev)
}
