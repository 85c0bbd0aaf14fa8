package model

import (
	"fmt"
	"time"
)

type DisplayMode string

const (
	ModeNone               DisplayMode = "None"
	ModePreAnnounce        DisplayMode = "PreAdzan"
	ModeCallToPrayer       DisplayMode = "Adzan"
	ModeCongregationalWait DisplayMode = "IqamahWait"
	ModePrayer             DisplayMode = "Sholat"
	ModeScreensaver        DisplayMode = "ScreenSaver"
	ModeFridayAnnounce     DisplayMode = "JumaatTime"
	ModePreSermon          DisplayMode = "PreKhutbah"
	ModeSermon             DisplayMode = "Khutbah"
)

// DisplayModes lists every mode, None first.
var DisplayModes = []DisplayMode{
	ModeNone,
	ModePreAnnounce,
	ModeCallToPrayer,
	ModeCongregationalWait,
	ModePrayer,
	ModeScreensaver,
	ModeFridayAnnounce,
	ModePreSermon,
	ModeSermon,
}

var displayModeAliases = map[string]DisplayMode{
	"PreAnnounce":        ModePreAnnounce,
	"CallToPrayer":       ModeCallToPrayer,
	"CongregationalWait": ModeCongregationalWait,
	"Prayer":             ModePrayer,
	"Screensaver":        ModeScreensaver,
	"FridayAnnounce":     ModeFridayAnnounce,
	"PreSermon":          ModePreSermon,
	"Sermon":             ModeSermon,
}

// ParseDisplayMode accepts the wire names ("Khutbah") and the English names ("Sermon").
func ParseDisplayMode(s string) (DisplayMode, error) {
	for _, m := range DisplayModes {
		if string(m) == s {
			return m, nil
		}
	}
	if m, ok := displayModeAliases[s]; ok {
		return m, nil
	}
	if s == "" {
		return ModeNone, nil
	}
	return ModeNone, fmt.Errorf("unknown display mode %q", s)
}

// PrayerDurations holds the per-prayer phase durations in seconds.
type PrayerDurations struct {
	AdzanDuration      int `json:"adzanDuration" yaml:"adzanDuration"`
	IqamahWaitDuration int `json:"iqamahWaitDuration" yaml:"iqamahWaitDuration"`
	SholatDuration     int `json:"sholatDuration" yaml:"sholatDuration"`
}

// FullscreenSettings configures the display choreography.
type FullscreenSettings struct {
	Prayers            map[PrayerName]PrayerDurations `json:"prayers" yaml:"prayers"`
	ScreenSaverStart   string                         `json:"screenSaverStart" yaml:"screenSaverStart"` // "HH:MM"
	ScreenSaverEnd     string                         `json:"screenSaverEnd" yaml:"screenSaverEnd"`
	PreKhutbahDuration int                            `json:"preKhutbahDuration" yaml:"preKhutbahDuration"`
	KhutbahDuration    int                            `json:"khutbahDuration" yaml:"khutbahDuration"`
	TartilMediaURL     string                         `json:"tartilMediaUrl" yaml:"tartilMediaUrl"`
	TarhimMediaURL     string                         `json:"tarhimMediaUrl" yaml:"tarhimMediaUrl"`
}

// SchedulerState is the display state machine's only state.
type SchedulerState struct {
	Mode       DisplayMode `json:"mode"`
	Prayer     *PrayerName `json:"prayer_name"`
	StartedAt  *time.Time  `json:"started_at"`
	Duration   int         `json:"duration_seconds"`
	Remaining  int         `json:"remaining_seconds"`
	SequenceID string      `json:"sequence_id,omitempty"`
}

// IdleState is the None variant.
func IdleState() SchedulerState {
	return SchedulerState{Mode: ModeNone}
}
