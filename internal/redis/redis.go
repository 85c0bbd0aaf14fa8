// Package redis shares computed prayer days and the live snapshot through Redis.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/minbar/internal/model"
	"github.com/Nixie-Tech-LLC/minbar/internal/prayertime"
)

const (
	dayTTL       = 48 * time.Hour
	snapshotTTL  = 10 * time.Second
	writeTimeout = time.Second
)

type Client struct {
	rdb    *redis.Client
	prefix string
}

var _ prayertime.DayCache = (*Client)(nil)

// New creates a client; keys are namespaced under prefix (e.g. "minbar").
func New(address, username, password, prefix string) *Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     address,
		Username: username,
		Password: password,
		DB:       0,
	})
	if prefix == "" {
		prefix = "minbar"
	}
	return &Client{rdb: rdb, prefix: prefix}
}

func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

func (c *Client) key(parts ...string) string {
	k := c.prefix
	for _, p := range parts {
		k += ":" + p
	}
	return k
}

// Set stores a JSON encoded value.
func (c *Client) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := c.rdb.Set(ctx, key, payload, expiration).Err(); err != nil {
		return fmt.Errorf("failed to add %s to redis: %w", key, err)
	}
	return nil
}

func (c *Client) GetDay(ctx context.Context, key string) (prayertime.Times, bool, error) {
	raw, err := c.rdb.Get(ctx, c.key("day", key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return prayertime.Times{}, false, nil
	}
	if err != nil {
		return prayertime.Times{}, false, fmt.Errorf("failed to read day %s: %w", key, err)
	}
	var t prayertime.Times
	if err := json.Unmarshal(raw, &t); err != nil {
		return prayertime.Times{}, false, fmt.Errorf("failed to decode day %s: %w", key, err)
	}
	return t, true, nil
}

func (c *Client) PutDay(ctx context.Context, key string, t prayertime.Times) error {
	return c.Set(ctx, c.key("day", key), t, dayTTL)
}

// Snapshot returns the latest snapshot published for screen.
func (c *Client) Snapshot(ctx context.Context, screen string) (model.Snapshot, bool, error) {
	raw, err := c.rdb.Get(ctx, c.key(screen, "snapshot")).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Snapshot{}, false, nil
	}
	if err != nil {
		return model.Snapshot{}, false, err
	}
	var s model.Snapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return model.Snapshot{}, false, err
	}
	return s, true, nil
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

// SnapshotWriter keeps "<prefix>:<screen>:snapshot" and ":last_event" current so
// other processes can read the screen state.
type SnapshotWriter struct {
	client *Client
	screen string
}

func (c *Client) SnapshotWriter(screen string) *SnapshotWriter {
	return &SnapshotWriter{client: c, screen: screen}
}

func (w *SnapshotWriter) OnEvent(ev model.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := w.client.Set(ctx, w.client.key(w.screen, "last_event"), ev, 0); err != nil {
		log.Warn().Err(err).Msg("failed to store last event")
	}
}

func (w *SnapshotWriter) OnSnapshot(s model.Snapshot) {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if err := w.client.Set(ctx, w.client.key(w.screen, "snapshot"), s, snapshotTTL); err != nil {
		log.Debug().Err(err).Msg("failed to store snapshot")
	}
}
