package astro

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/minbar/internal/prayertime"
)

func clock(t time.Time) time.Duration {
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute
}

func hm(h, m int) time.Duration {
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute
}

func TestComputeJakarta(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)
	date := time.Date(2025, 8, 5, 0, 0, 0, 0, loc)
	p := prayertime.Params{Latitude: -6.2088, Longitude: 106.8456, Method: "Singapore", Madhab: "Shafi"}

	got, err := New().Compute(context.Background(), p, date)
	require.NoError(t, err)

	tolerance := 2 * time.Minute
	assert.InDelta(t, hm(4, 42), clock(got.Fajr), float64(tolerance), "fajr %s", got.Fajr)
	assert.InDelta(t, hm(6, 3), clock(got.Sunrise), float64(tolerance), "sunrise %s", got.Sunrise)
	assert.InDelta(t, hm(12, 0), clock(got.Dhuhr), float64(tolerance), "dhuhr %s", got.Dhuhr)
	assert.InDelta(t, hm(15, 21), clock(got.Asr), float64(tolerance), "asr %s", got.Asr)
	assert.InDelta(t, hm(17, 55), clock(got.Maghrib), float64(tolerance), "maghrib %s", got.Maghrib)
	assert.InDelta(t, hm(19, 6), clock(got.Isha), float64(tolerance), "isha %s", got.Isha)

	assert.Equal(t, loc, got.Dhuhr.Location())
	assert.Zero(t, got.Dhuhr.Second())
	assert.Equal(t, 5, got.Fajr.Day())
}

func TestComputeHanafiAsrIsLater(t *testing.T) {
	date := time.Date(2025, 1, 15, 0, 0, 0, 0, time.FixedZone("PKT", 5*3600))
	p := prayertime.Params{Latitude: 24.86, Longitude: 67.01, Method: "Karachi", Madhab: "Shafi"}

	shafi, err := New().Compute(context.Background(), p, date)
	require.NoError(t, err)
	p.Madhab = "Hanafi"
	hanafi, err := New().Compute(context.Background(), p, date)
	require.NoError(t, err)

	assert.True(t, hanafi.Asr.Sub(shafi.Asr) > 30*time.Minute)
	assert.Equal(t, shafi.Dhuhr, hanafi.Dhuhr)
}

func TestComputeIshaInterval(t *testing.T) {
	date := time.Date(2025, 3, 20, 0, 0, 0, 0, time.FixedZone("AST", 3*3600))
	p := prayertime.Params{Latitude: 21.4225, Longitude: 39.8262, Method: "UmmAlQura"}

	got, err := New().Compute(context.Background(), p, date)
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, got.Isha.Sub(got.Maghrib))
}

func TestComputeHighLatitude(t *testing.T) {
	date := time.Date(2025, 6, 21, 0, 0, 0, 0, time.FixedZone("BST", 3600))
	p := prayertime.Params{Latitude: 51.5074, Longitude: -0.1278, Method: "MWL"}

	got, err := New().Compute(context.Background(), p, date)
	require.NoError(t, err)
	assert.True(t, got.Fajr.Before(got.Sunrise))
	assert.True(t, got.Sunrise.Before(got.Dhuhr))
	assert.True(t, got.Dhuhr.Before(got.Asr))
	assert.True(t, got.Asr.Before(got.Maghrib))
	assert.True(t, got.Maghrib.Before(got.Isha))
}

func TestComputeErrors(t *testing.T) {
	date := time.Date(2025, 8, 5, 0, 0, 0, 0, time.UTC)

	_, err := New().Compute(context.Background(), prayertime.Params{Latitude: 95, Method: "MWL"}, date)
	assert.ErrorIs(t, err, prayertime.ErrInvalidCoordinates)

	_, err = New().Compute(context.Background(), prayertime.Params{Method: "Atlantis"}, date)
	assert.ErrorIs(t, err, ErrUnknownMethod)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = New().Compute(ctx, prayertime.Params{Method: "MWL"}, date)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLookupMethod(t *testing.T) {
	m, err := LookupMethod("singapore")
	require.NoError(t, err)
	assert.Equal(t, "Singapore", m.Name)

	m, err = LookupMethod("NorthAmerica")
	require.NoError(t, err)
	assert.Equal(t, "ISNA", m.Name)

	assert.Contains(t, MethodNames(), "Kemenag")
	assert.Len(t, MethodNames(), 13)
}
