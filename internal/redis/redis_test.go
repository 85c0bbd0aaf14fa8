package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/minbar/internal/prayertime"
)

func TestKeys(t *testing.T) {
	c := New("127.0.0.1:0", "", "", "")
	t.Cleanup(func() { _ = c.Close() })

	assert.Equal(t, "minbar:day:abc", c.key("day", "abc"))
	assert.Equal(t, "minbar:hall:snapshot", c.key("hall", "snapshot"))

	custom := New("127.0.0.1:0", "", "", "masjid")
	t.Cleanup(func() { _ = custom.Close() })
	assert.Equal(t, "masjid:hall:last_event", custom.key("hall", "last_event"))
}

func TestUnreachableServerReturnsErrors(t *testing.T) {
	c := New("127.0.0.1:1", "", "", "")
	t.Cleanup(func() { _ = c.Close() })
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, ok, err := c.GetDay(ctx, "k")
	assert.Error(t, err)
	assert.False(t, ok)
	assert.Error(t, c.PutDay(ctx, "k", prayertime.Times{}))

	// the cached calculator degrades to computing locally
	calc := prayertime.NewCachedCalculator(stubCalc{}, c)
	loc := time.FixedZone("WIB", 7*3600)
	got, err := calc.Compute(ctx, prayertime.Params{Latitude: -6.2, Longitude: 106.8}, time.Date(2025, 8, 5, 0, 0, 0, 0, loc))
	require.NoError(t, err)
	assert.Equal(t, 11, got.Dhuhr.Hour())
}

type stubCalc struct{}

func (stubCalc) Compute(_ context.Context, _ prayertime.Params, d time.Time) (prayertime.Times, error) {
	at := func(h, m int) time.Time { return time.Date(d.Year(), d.Month(), d.Day(), h, m, 0, 0, d.Location()) }
	return prayertime.Times{Fajr: at(4, 40), Sunrise: at(5, 55), Dhuhr: at(11, 58), Asr: at(15, 20), Maghrib: at(17, 55), Isha: at(19, 5)}, nil
}
