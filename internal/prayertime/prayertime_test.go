package prayertime

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/minbar/internal/model"
)

// fixedCalc returns the same clock times every day.
type fixedCalc struct {
	mu    sync.Mutex
	calls int
	err   error
}

func at(day time.Time, hh, mm int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hh, mm, 0, 0, day.Location())
}

func (f *fixedCalc) Compute(_ context.Context, _ Params, date time.Time) (Times, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return Times{}, f.err
	}
	return Times{
		Fajr:    at(date, 4, 40),
		Sunrise: at(date, 5, 55),
		Dhuhr:   at(date, 11, 58),
		Asr:     at(date, 15, 20),
		Maghrib: at(date, 17, 55),
		Isha:    at(date, 19, 5),
	}, nil
}

func jakarta(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)
	return loc
}

func testInputs(t *testing.T) Inputs {
	return Inputs{
		Params:   Params{Latitude: -6.2088, Longitude: 106.8456, Method: "Singapore", Madhab: "Shafi"},
		Location: jakarta(t),
		Offsets:  map[model.PrayerName]int{},
	}
}

func TestBuildOrderAndNext(t *testing.T) {
	in := testInputs(t)
	now := time.Date(2025, 8, 5, 11, 0, 0, 0, in.Location)

	table, err := Build(context.Background(), &fixedCalc{}, in, now)
	require.NoError(t, err)

	require.Len(t, table.Entries, 8)
	assert.Equal(t, "2025-08-05", table.Date)
	for i, name := range model.TableOrder {
		assert.Equal(t, name, table.Entries[i].Name)
		if i > 0 {
			assert.True(t, table.Entries[i].Time.After(table.Entries[i-1].Time), "entry %d not chronological", i)
		}
	}

	flagged := 0
	for _, e := range table.Entries {
		if e.IsNext {
			flagged++
		}
	}
	assert.Equal(t, 1, flagged)
	assert.Equal(t, 4, table.NextIndex)
	require.NotNil(t, table.Next())
	assert.Equal(t, model.Dzuhur, table.Next().Name)

	imsak, _ := table.Instant(model.Imsak)
	assert.Equal(t, at(now, 4, 30), imsak)
	dhuha, _ := table.Instant(model.Dhuha)
	assert.Equal(t, at(now, 6, 10), dhuha)
}

func TestBuildAppliesOffsetsAndIhtiati(t *testing.T) {
	in := testInputs(t)
	in.Offsets[model.Subuh] = 2
	in.Offsets[model.Isya] = -3
	in.Ihtiati = 1
	now := time.Date(2025, 8, 5, 1, 0, 0, 0, in.Location)

	table, err := Build(context.Background(), &fixedCalc{}, in, now)
	require.NoError(t, err)

	subuh, _ := table.Instant(model.Subuh)
	assert.Equal(t, at(now, 4, 43), subuh)
	// derived before offsets, so Subuh's own offset does not move Imsak
	imsak, _ := table.Instant(model.Imsak)
	assert.Equal(t, at(now, 4, 31), imsak)
	isya, _ := table.Instant(model.Isya)
	assert.Equal(t, at(now, 19, 3), isya)
	assert.Equal(t, 0, table.NextIndex)
}

func TestBuildRollsOverAfterIsya(t *testing.T) {
	in := testInputs(t)
	now := time.Date(2025, 8, 5, 23, 0, 0, 0, in.Location)

	table, err := Build(context.Background(), &fixedCalc{}, in, now)
	require.NoError(t, err)

	assert.Equal(t, "2025-08-06", table.Date)
	assert.Equal(t, 0, table.NextIndex)
	assert.True(t, table.Entries[0].IsNext)
	assert.Equal(t, model.Imsak, table.Entries[0].Name)
	assert.True(t, table.Entries[0].Time.After(now))
	assert.Equal(t, 6, table.Entries[0].Time.Day())
}

func TestBuildUsesZoneDay(t *testing.T) {
	in := testInputs(t)
	// 20:00 UTC on the 4th is already 03:00 on the 5th in Jakarta.
	now := time.Date(2025, 8, 4, 20, 0, 0, 0, time.UTC)

	table, err := Build(context.Background(), &fixedCalc{}, in, now)
	require.NoError(t, err)
	assert.Equal(t, "2025-08-05", table.Date)
	assert.Equal(t, 0, table.NextIndex)
}

func TestBuildFailures(t *testing.T) {
	t.Run("calculator error", func(t *testing.T) {
		in := testInputs(t)
		table, err := Build(context.Background(), &fixedCalc{err: errors.New("unknown method")}, in, time.Now())
		require.ErrorIs(t, err, ErrNoSchedule)
		assert.False(t, table.Available())
		assert.Equal(t, -1, table.NextIndex)
		assert.Nil(t, table.Next())
	})

	t.Run("invalid coordinates", func(t *testing.T) {
		in := testInputs(t)
		in.Latitude = 123
		calc := &fixedCalc{}
		table, err := Build(context.Background(), calc, in, time.Now())
		require.ErrorIs(t, err, ErrInvalidCoordinates)
		require.ErrorIs(t, err, ErrNoSchedule)
		assert.Empty(t, table.Entries)
		assert.Zero(t, calc.calls)
	})
}

func TestBuildIsIdempotent(t *testing.T) {
	in := testInputs(t)
	calc := NewCachedCalculator(&fixedCalc{}, nil)
	now := time.Date(2025, 8, 5, 13, 30, 12, 0, in.Location)

	a, err := Build(context.Background(), calc, in, now)
	require.NoError(t, err)
	b, err := Build(context.Background(), calc, in, now)
	require.NoError(t, err)

	ja, err := json.Marshal(a)
	require.NoError(t, err)
	jb, err := json.Marshal(b)
	require.NoError(t, err)
	assert.Equal(t, string(ja), string(jb))
}

func TestInputsFromSettings(t *testing.T) {
	s := model.Settings{
		Location:          model.Location{Latitude: 21.42, Longitude: 39.82, Method: "UmmAlQura", Madhab: "Shafi", Timezone: "Asia/Riyadh"},
		PrayerTimeOffsets: map[model.PrayerName]int{model.Maghrib: 2},
		Ihtiati:           2,
	}
	in, err := InputsFromSettings(s)
	require.NoError(t, err)
	assert.Equal(t, "Asia/Riyadh", in.Location.String())
	assert.Equal(t, 2, in.Offsets[model.Maghrib])
	assert.Equal(t, "UmmAlQura", in.Method)

	s.Location.Timezone = "Nowhere/Special"
	_, err = InputsFromSettings(s)
	assert.Error(t, err)
}
