// Package broadcast forwards engine snapshots and events to screens over a message bus.
package broadcast

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/minbar/internal/model"
)

const (
	ChannelState  = "state"
	ChannelEvents = "events"
	ChannelAudio  = "audio"
)

// Publisher sends a payload on a named channel of one screen.
type Publisher interface {
	Publish(screen, channel string, payload []byte, retain bool) error
	Close() error
}

// Fanout publishes every engine event and snapshot for one screen.
type Fanout struct {
	pub    Publisher
	screen string

	mu       sync.Mutex
	lastMode model.DisplayMode
	failing  bool
}

func NewFanout(pub Publisher, screen string) *Fanout {
	return &Fanout{pub: pub, screen: screen}
}

func (f *Fanout) OnEvent(ev model.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Msg("failed to encode event for broadcast")
		return
	}
	f.send(ChannelEvents, payload, false)
}

// OnSnapshot publishes the state retained so late subscribers get the current screen.
func (f *Fanout) OnSnapshot(s model.Snapshot) {
	payload, err := json.Marshal(s)
	if err != nil {
		log.Error().Err(err).Msg("failed to encode snapshot for broadcast")
		return
	}
	f.mu.Lock()
	changed := s.Mode != f.lastMode
	f.lastMode = s.Mode
	f.mu.Unlock()
	if changed {
		log.Debug().Str("screen", f.screen).Str("mode", string(s.Mode)).Msg("broadcasting new display mode")
	}
	f.send(ChannelState, payload, true)
}

// send logs the first failure of a run and the recovery, not every second in between.
func (f *Fanout) send(channel string, payload []byte, retain bool) {
	err := f.pub.Publish(f.screen, channel, payload, retain)

	f.mu.Lock()
	defer f.mu.Unlock()
	switch {
	case err != nil && !f.failing:
		f.failing = true
		log.Warn().Err(err).Str("screen", f.screen).Str("channel", channel).Msg("broadcast failed")
	case err == nil && f.failing:
		f.failing = false
		log.Info().Str("screen", f.screen).Msg("broadcast recovered")
	}
}

// Multi publishes to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(screen, channel string, payload []byte, retain bool) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(screen, channel, payload, retain); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("publish to %d of %d backends failed: %v", len(errs), len(m), errs)
	}
	return nil
}

func (m Multi) Close() error {
	for _, p := range m {
		if err := p.Close(); err != nil {
			return err
		}
	}
	return nil
}
