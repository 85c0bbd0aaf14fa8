package prayertime

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// maxCachedDays bounds the in-memory memo; a running engine only ever needs today and tomorrow.
const maxCachedDays = 32

// DayCache is a shared store for computed days, e.g. redis for a fleet of screens.
type DayCache interface {
	GetDay(ctx context.Context, key string) (Times, bool, error)
	PutDay(ctx context.Context, key string, t Times) error
}

// CachedCalculator memoises another Calculator per (params, date) so rebuilding a
// table in the same second yields identical output.
type CachedCalculator struct {
	next   Calculator
	remote DayCache

	mu   sync.Mutex
	days map[string]Times
}

// NewCachedCalculator wraps next. remote may be nil.
func NewCachedCalculator(next Calculator, remote DayCache) *CachedCalculator {
	return &CachedCalculator{
		next:   next,
		remote: remote,
		days:   make(map[string]Times),
	}
}

// DayKey identifies one computed day.
func DayKey(p Params, date time.Time) string {
	return fmt.Sprintf("%.5f:%.5f:%s:%s:%s:%s",
		p.Latitude, p.Longitude, p.Method, p.Madhab,
		date.Location().String(), date.Format(time.DateOnly))
}

func (c *CachedCalculator) Compute(ctx context.Context, p Params, date time.Time) (Times, error) {
	key := DayKey(p, date)

	c.mu.Lock()
	t, ok := c.days[key]
	c.mu.Unlock()
	if ok {
		return t, nil
	}

	if c.remote != nil {
		t, ok, err := c.remote.GetDay(ctx, key)
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("day cache lookup failed")
		} else if ok {
			t = t.In(date.Location())
			c.store(key, t)
			return t, nil
		}
	}

	t, err := c.next.Compute(ctx, p, date)
	if err != nil {
		return Times{}, err
	}
	c.store(key, t)

	if c.remote != nil {
		if err := c.remote.PutDay(ctx, key, t); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("day cache write failed")
		}
	}
	return t, nil
}

func (c *CachedCalculator) store(key string, t Times) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.days) >= maxCachedDays {
		c.days = make(map[string]Times)
	}
	c.days[key] = t
}
