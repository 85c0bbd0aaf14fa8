// Package prayertime builds the daily prayer table the engine schedules against.
package prayertime

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/Nixie-Tech-LLC/minbar/internal/model"
)

var (
	ErrNoSchedule         = errors.New("no prayer schedule")
	ErrInvalidCoordinates = errors.New("invalid coordinates")
)

const (
	imsakLead  = 10 * time.Minute
	dhuhaDelay = 15 * time.Minute
)

// Params identifies a calculation independent of the date.
type Params struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Method    string  `json:"method"`
	Madhab    string  `json:"madhab"`
}

// Validate checks the coordinates are usable.
func (p Params) Validate() error {
	if math.IsNaN(p.Latitude) || math.IsNaN(p.Longitude) ||
		p.Latitude < -90 || p.Latitude > 90 ||
		p.Longitude < -180 || p.Longitude > 180 {
		return fmt.Errorf("%w: %v,%v", ErrInvalidCoordinates, p.Latitude, p.Longitude)
	}
	return nil
}

// Times are the six instants a Calculator produces for one day.
type Times struct {
	Fajr    time.Time `json:"fajr"`
	Sunrise time.Time `json:"sunrise"`
	Dhuhr   time.Time `json:"dhuhr"`
	Asr     time.Time `json:"asr"`
	Maghrib time.Time `json:"maghrib"`
	Isha    time.Time `json:"isha"`
}

// In returns a copy with every instant converted to loc.
func (t Times) In(loc *time.Location) Times {
	return Times{
		Fajr:    t.Fajr.In(loc),
		Sunrise: t.Sunrise.In(loc),
		Dhuhr:   t.Dhuhr.In(loc),
		Asr:     t.Asr.In(loc),
		Maghrib: t.Maghrib.In(loc),
		Isha:    t.Isha.In(loc),
	}
}

// Calculator computes prayer instants for the calendar day of date, in date's location.
type Calculator interface {
	Compute(ctx context.Context, p Params, date time.Time) (Times, error)
}

// Inputs is everything a table depends on besides the reference time.
type Inputs struct {
	Params
	Location *time.Location
	Offsets  map[model.PrayerName]int // minutes
	Ihtiati  int                      // minutes
}

// InputsFromSettings extracts the table inputs from settings.
func InputsFromSettings(s model.Settings) (Inputs, error) {
	loc, err := time.LoadLocation(s.Location.Timezone)
	if err != nil {
		return Inputs{}, fmt.Errorf("load timezone %q: %w", s.Location.Timezone, err)
	}
	offsets := make(map[model.PrayerName]int, len(s.PrayerTimeOffsets))
	for k, v := range s.PrayerTimeOffsets {
		offsets[k] = v
	}
	return Inputs{
		Params: Params{
			Latitude:  s.Location.Latitude,
			Longitude: s.Location.Longitude,
			Method:    s.Location.Method,
			Madhab:    s.Location.Madhab,
		},
		Location: loc,
		Offsets:  offsets,
		Ihtiati:  s.Ihtiati,
	}, nil
}

// Table is one day's ordered prayer instants. An empty table means "no schedule".
type Table struct {
	Date      string                `json:"date"`
	Entries   []model.PrayerInstant `json:"entries"`
	NextIndex int                   `json:"next_index"`
}

// EmptyTable is what callers get when no schedule could be computed.
func EmptyTable() Table {
	return Table{Entries: []model.PrayerInstant{}, NextIndex: -1}
}

func (t Table) Available() bool {
	return len(t.Entries) > 0
}

// Next returns the flagged entry, or nil for an empty table.
func (t Table) Next() *model.PrayerInstant {
	if t.NextIndex < 0 || t.NextIndex >= len(t.Entries) {
		return nil
	}
	next := t.Entries[t.NextIndex]
	return &next
}

// Instant looks up the time of a named entry.
func (t Table) Instant(name model.PrayerName) (time.Time, bool) {
	for _, e := range t.Entries {
		if e.Name == name {
			return e.Time, true
		}
	}
	return time.Time{}, false
}

// Build computes the table for the day of now in the configured zone. When every entry
// of today is already past, tomorrow's table is returned with Imsak flagged next.
// On failure the returned table is EmptyTable and the error wraps ErrNoSchedule.
func Build(ctx context.Context, calc Calculator, in Inputs, now time.Time) (Table, error) {
	if in.Location == nil {
		in.Location = time.UTC
	}
	if err := in.Params.Validate(); err != nil {
		return EmptyTable(), fmt.Errorf("%w: %w", ErrNoSchedule, err)
	}

	local := now.In(in.Location)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, in.Location)

	entries, err := buildDay(ctx, calc, in, day)
	if err != nil {
		return EmptyTable(), err
	}
	for i, e := range entries {
		if e.Time.After(now) {
			entries[i].IsNext = true
			return Table{Date: day.Format(time.DateOnly), Entries: entries, NextIndex: i}, nil
		}
	}

	day = day.AddDate(0, 0, 1)
	entries, err = buildDay(ctx, calc, in, day)
	if err != nil {
		return EmptyTable(), err
	}
	entries[0].IsNext = true
	return Table{Date: day.Format(time.DateOnly), Entries: entries, NextIndex: 0}, nil
}

func buildDay(ctx context.Context, calc Calculator, in Inputs, day time.Time) ([]model.PrayerInstant, error) {
	times, err := calc.Compute(ctx, in.Params, day)
	if err != nil {
		return nil, fmt.Errorf("%w: compute %s: %w", ErrNoSchedule, day.Format(time.DateOnly), err)
	}
	times = times.In(in.Location)

	raw := map[model.PrayerName]time.Time{
		model.Imsak:   times.Fajr.Add(-imsakLead),
		model.Subuh:   times.Fajr,
		model.Syuruq:  times.Sunrise,
		model.Dhuha:   times.Sunrise.Add(dhuhaDelay),
		model.Dzuhur:  times.Dhuhr,
		model.Ashar:   times.Asr,
		model.Maghrib: times.Maghrib,
		model.Isya:    times.Isha,
	}

	entries := make([]model.PrayerInstant, 0, len(model.TableOrder))
	for _, name := range model.TableOrder {
		t := raw[name]
		if t.IsZero() {
			return nil, fmt.Errorf("%w: calculator returned no %s for %s", ErrNoSchedule, name, day.Format(time.DateOnly))
		}
		shift := time.Duration(in.Offsets[name]+in.Ihtiati) * time.Minute
		entries = append(entries, model.PrayerInstant{Name: name, Time: t.Add(shift)})
	}
	return entries, nil
}
