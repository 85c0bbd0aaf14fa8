package model

import "time"

// Snapshot is the read-only view handed to the presentation layer every second.
type Snapshot struct {
	Mode              DisplayMode     `json:"mode"`
	PrayerName        *PrayerName     `json:"prayer_name"`
	Remaining         int             `json:"remaining_seconds"`
	Total             int             `json:"total_seconds"`
	SequenceID        string          `json:"sequence_id,omitempty"`
	AudioState        AudioState      `json:"audio_state"`
	AudioPrayer       *PrayerName     `json:"audio_prayer"`
	AudioSrc          string          `json:"audio_src,omitempty"`
	AudioTest         bool            `json:"audio_test"`
	ScheduleAvailable bool            `json:"schedule_available"`
	NextIndex         int             `json:"next_index"`
	NextPrayer        *PrayerInstant  `json:"next_prayer"`
	Table             []PrayerInstant `json:"table"`
	At                time.Time       `json:"at"`
}

type EventKind string

const (
	EventDisplay  EventKind = "display"
	EventAudio    EventKind = "audio"
	EventTable    EventKind = "table"
	EventOverride EventKind = "override"
	EventTick     EventKind = "tick"
)

// Event is an observable engine occurrence.
type Event struct {
	Kind       EventKind  `json:"kind"`
	From       string     `json:"from,omitempty"`
	To         string     `json:"to,omitempty"`
	Prayer     PrayerName `json:"prayer,omitempty"`
	SequenceID string     `json:"sequence_id,omitempty"`
	Detail     string     `json:"detail,omitempty"`
	At         time.Time  `json:"at"`
}
