package hijri

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromGregorian(t *testing.T) {
	tests := []struct {
		greg time.Time
		want Date
	}{
		{time.Date(2025, 8, 5, 12, 0, 0, 0, time.UTC), Date{1447, 2, 10}},
		{time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), Date{1446, 9, 1}},
		{time.Date(2025, 3, 30, 0, 0, 0, 0, time.UTC), Date{1446, 9, 30}},
		{time.Date(2024, 7, 7, 0, 0, 0, 0, time.UTC), Date{1445, 12, 30}},
		{time.Date(2026, 2, 18, 0, 0, 0, 0, time.UTC), Date{1447, 9, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.greg.Format(time.DateOnly), func(t *testing.T) {
			assert.Equal(t, tt.want, FromGregorian(tt.greg))
		})
	}
}

func TestRoundTrip(t *testing.T) {
	day := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3*366; i++ {
		got := ToGregorian(FromGregorian(day), time.UTC)
		if !assert.True(t, got.Equal(day), day.Format(time.DateOnly)) {
			return
		}
		day = day.AddDate(0, 0, 1)
	}
}

func TestString(t *testing.T) {
	assert.Equal(t, "10 Safar 1447", Date{1447, 2, 10}.String())
	assert.Equal(t, "", Date{1447, 13, 1}.MonthName())
}

func TestNextHoliday(t *testing.T) {
	// 10 Safar 1447: next is the Prophet's birthday on 12 Rabiul Awal
	ev := NextHoliday(time.Date(2025, 8, 5, 9, 0, 0, 0, time.UTC))
	assert.Equal(t, "Maulid Nabi Muhammad SAW", ev.Name)
	assert.Equal(t, TypeHoliday, ev.Type)
	assert.Equal(t, Date{1447, 3, 12}, ev.Hijri)
	assert.Equal(t, "12 Rabiul Awal 1447", ev.HijriText)
	assert.Equal(t, ToGregorian(ev.Hijri, time.UTC), ev.Date)
	assert.Positive(t, ev.DaysAway)

	// the observance day itself counts
	eid := ToGregorian(Date{1446, 10, 1}, time.UTC)
	ev = NextHoliday(eid.Add(8 * time.Hour))
	assert.Equal(t, "Hari Raya Idul Fitri", ev.Name)
	assert.Zero(t, ev.DaysAway)

	// after Idul Adha the year wraps to 1 Muharram
	ev = NextHoliday(ToGregorian(Date{1446, 12, 20}, time.UTC))
	assert.Equal(t, Date{1447, 1, 1}, ev.Hijri)
}

func TestNextSunnahFast(t *testing.T) {
	tests := []struct {
		day  time.Time
		name string
		days int
	}{
		{time.Date(2025, 8, 4, 10, 0, 0, 0, time.UTC), "Puasa Sunnah Kamis", 3},  // Monday
		{time.Date(2025, 8, 5, 10, 0, 0, 0, time.UTC), "Puasa Sunnah Kamis", 2},  // Tuesday
		{time.Date(2025, 8, 7, 10, 0, 0, 0, time.UTC), "Puasa Sunnah Senin", 4},  // Thursday
		{time.Date(2025, 8, 10, 10, 0, 0, 0, time.UTC), "Puasa Sunnah Senin", 1}, // Sunday
	}
	for _, tt := range tests {
		t.Run(tt.day.Weekday().String(), func(t *testing.T) {
			ev := NextSunnahFast(tt.day)
			assert.Equal(t, tt.name, ev.Name)
			assert.Equal(t, tt.days, ev.DaysAway)
			assert.Equal(t, TypeFasting, ev.Type)
			assert.Equal(t, 0, ev.Date.Hour())
		})
	}
}
