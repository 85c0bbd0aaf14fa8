package model

import "fmt"

type AudioState string

const (
	AudioIdle    AudioState = "Idle"
	AudioLeadIn  AudioState = "Tartil"
	AudioPrelude AudioState = "Tarhim"
	AudioCall    AudioState = "Adzan"
)

// ParseAudioState accepts both the glossary names and the English aliases.
func ParseAudioState(s string) (AudioState, error) {
	switch s {
	case "Idle", "idle", "":
		return AudioIdle, nil
	case "Tartil", "LeadIn", "lead_in":
		return AudioLeadIn, nil
	case "Tarhim", "Prelude", "prelude":
		return AudioPrelude, nil
	case "Adzan", "Call", "call":
		return AudioCall, nil
	}
	return AudioIdle, fmt.Errorf("unknown audio state %q", s)
}

// AudioCueConfig is the per-prayer audio configuration.
type AudioCueConfig struct {
	Enabled        bool   `json:"enabled" yaml:"enabled"`
	TartilSrc      string `json:"tartilSrc" yaml:"tartilSrc"`
	TartilOffset   int    `json:"tartilOffset" yaml:"tartilOffset"` // minutes before the prayer
	TarhimSrc      string `json:"tarhimSrc" yaml:"tarhimSrc"`
	TarhimDuration int    `json:"tarhimDuration" yaml:"tarhimDuration"` // seconds
	AdzanSrc       string `json:"adzanSrc" yaml:"adzanSrc"`
	AdzanDuration  int    `json:"adzanDuration" yaml:"adzanDuration"` // seconds
}

// SourceFor returns the configured source for a cue state.
func (c AudioCueConfig) SourceFor(state AudioState) string {
	switch state {
	case AudioLeadIn:
		return c.TartilSrc
	case AudioPrelude:
		return c.TarhimSrc
	case AudioCall:
		return c.AdzanSrc
	}
	return ""
}

// Cue is the resolved audio decision for one tick.
type Cue struct {
	State  AudioState `json:"state"`
	Prayer PrayerName `json:"prayer,omitempty"`
	Src    string     `json:"src,omitempty"`
}

// Same reports whether two cues are the same for edge detection.
func (c Cue) Same(o Cue) bool {
	return c.State == o.State && c.Prayer == o.Prayer
}
