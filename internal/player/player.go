// Package player provides audio.Player implementations.
package player

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/minbar/internal/broadcast"
)

// Nop logs cues without playing them, for screens without speakers.
type Nop struct{}

func (Nop) Play(src string) error {
	log.Info().Str("src", src).Msg("audio cue (no player configured)")
	return nil
}

func (Nop) Stop() error { return nil }

// Command is the message a Remote player sends to the screen.
type Command struct {
	Action string `json:"action"` // "play" or "stop"
	Src    string `json:"src,omitempty"`
}

// Remote forwards play and stop commands to the screen's own audio client.
type Remote struct {
	pub    broadcast.Publisher
	screen string
}

func NewRemote(pub broadcast.Publisher, screen string) *Remote {
	return &Remote{pub: pub, screen: screen}
}

func (r *Remote) Play(src string) error {
	return r.send(Command{Action: "play", Src: src})
}

func (r *Remote) Stop() error {
	return r.send(Command{Action: "stop"})
}

func (r *Remote) send(cmd Command) error {
	payload, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("failed to encode audio command: %w", err)
	}
	if err := r.pub.Publish(r.screen, broadcast.ChannelAudio, payload, false); err != nil {
		return fmt.Errorf("failed to send %s command: %w", cmd.Action, err)
	}
	return nil
}
