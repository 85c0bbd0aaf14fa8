package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/minbar/internal/model"
)

var ErrInvalidSettings = errors.New("invalid settings")

// fallbacks used when a duration is unset or non-positive
const (
	DefaultAdzanDuration      = 300
	DefaultIqamahWaitDuration = 600
	DefaultSholatDuration     = 900
	DefaultPreKhutbahDuration = 900
	DefaultKhutbahDuration    = 1800
	DefaultTarhimDuration     = 300
	DefaultTartilOffset       = 20
	DefaultOverrideDuration   = 300
)

// Default returns settings for a Jakarta mosque on the Singapore method.
func Default() model.Settings {
	s := model.Settings{
		Mosque: model.Mosque{Name: "Masjid", City: "JAKARTA"},
		Location: model.Location{
			Latitude:  -6.2088,
			Longitude: 106.8456,
			Method:    "Singapore",
			Madhab:    "Shafi",
			Timezone:  "Asia/Jakarta",
		},
		PrayerTimeOffsets: map[model.PrayerName]int{},
		Audio:             map[model.PrayerName]model.AudioCueConfig{},
		Fullscreen: model.FullscreenSettings{
			Prayers:            map[model.PrayerName]model.PrayerDurations{},
			ScreenSaverStart:   "22:00",
			ScreenSaverEnd:     "03:00",
			PreKhutbahDuration: DefaultPreKhutbahDuration,
			KhutbahDuration:    DefaultKhutbahDuration,
		},
	}
	for _, p := range model.CanonicalPrayers {
		s.Audio[p] = model.AudioCueConfig{
			Enabled:        true,
			TartilOffset:   DefaultTartilOffset,
			TarhimDuration: DefaultTarhimDuration,
			AdzanDuration:  DefaultAdzanDuration,
		}
		s.Fullscreen.Prayers[p] = model.PrayerDurations{
			AdzanDuration:      DefaultAdzanDuration,
			IqamahWaitDuration: DefaultIqamahWaitDuration,
			SholatDuration:     DefaultSholatDuration,
		}
	}
	return s
}

// Normalize fills unset fields from Default without touching explicit values.
func Normalize(s model.Settings) model.Settings {
	d := Default()
	out := s.Clone()
	if out.Location.Method == "" {
		out.Location.Method = d.Location.Method
	}
	if out.Location.Madhab == "" {
		out.Location.Madhab = d.Location.Madhab
	}
	if out.Location.Timezone == "" {
		out.Location.Timezone = d.Location.Timezone
	}
	if out.Fullscreen.ScreenSaverStart == "" && out.Fullscreen.ScreenSaverEnd == "" {
		out.Fullscreen.ScreenSaverStart = d.Fullscreen.ScreenSaverStart
		out.Fullscreen.ScreenSaverEnd = d.Fullscreen.ScreenSaverEnd
	}
	if out.Fullscreen.PreKhutbahDuration <= 0 {
		out.Fullscreen.PreKhutbahDuration = DefaultPreKhutbahDuration
	}
	if out.Fullscreen.KhutbahDuration <= 0 {
		out.Fullscreen.KhutbahDuration = DefaultKhutbahDuration
	}
	for _, p := range model.CanonicalPrayers {
		if _, ok := out.Audio[p]; !ok {
			out.Audio[p] = d.Audio[p]
		}
		durations := out.Fullscreen.Prayers[p]
		if durations.AdzanDuration <= 0 {
			durations.AdzanDuration = DefaultAdzanDuration
		}
		if durations.IqamahWaitDuration <= 0 {
			durations.IqamahWaitDuration = DefaultIqamahWaitDuration
		}
		if durations.SholatDuration <= 0 {
			durations.SholatDuration = DefaultSholatDuration
		}
		out.Fullscreen.Prayers[p] = durations
	}
	return out
}

// Validate rejects settings the engine cannot run with. Coordinates are not checked
// here: an unusable location degrades to "no schedule" instead of being rejected.
func Validate(s model.Settings) error {
	var problems []string

	if _, err := time.LoadLocation(s.Location.Timezone); err != nil {
		problems = append(problems, fmt.Sprintf("timezone %q: %v", s.Location.Timezone, err))
	}
	for name, offset := range s.PrayerTimeOffsets {
		if !name.Valid() {
			problems = append(problems, fmt.Sprintf("offset for unknown prayer %q", name))
		}
		if offset < -120 || offset > 120 {
			problems = append(problems, fmt.Sprintf("offset for %s out of range: %d", name, offset))
		}
	}
	if s.Ihtiati < 0 || s.Ihtiati > 30 {
		problems = append(problems, fmt.Sprintf("ihtiati out of range: %d", s.Ihtiati))
	}
	for name, cfg := range s.Audio {
		if !name.IsCanonical() {
			problems = append(problems, fmt.Sprintf("audio config for non-canonical prayer %q", name))
			continue
		}
		if cfg.TartilOffset < 0 || cfg.TarhimDuration < 0 || cfg.AdzanDuration < 0 {
			problems = append(problems, fmt.Sprintf("audio config for %s has negative durations", name))
		}
		if cfg.Enabled && cfg.TartilOffset*60 < cfg.TarhimDuration {
			log.Warn().
				Str("prayer", string(name)).
				Int("tartil_offset_min", cfg.TartilOffset).
				Int("tarhim_duration_s", cfg.TarhimDuration).
				Msg("tartil starts after tarhim, lead-in window will be empty")
		}
	}
	if (s.Fullscreen.ScreenSaverStart == "") != (s.Fullscreen.ScreenSaverEnd == "") {
		problems = append(problems, "screensaver window needs both start and end")
	} else if s.Fullscreen.ScreenSaverStart != "" {
		if _, err := ParseClock(s.Fullscreen.ScreenSaverStart); err != nil {
			problems = append(problems, err.Error())
		}
		if _, err := ParseClock(s.Fullscreen.ScreenSaverEnd); err != nil {
			problems = append(problems, err.Error())
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidSettings, strings.Join(problems, "; "))
	}
	return nil
}

// ParseClock parses "HH:MM" into minutes after midnight.
func ParseClock(v string) (int, error) {
	parts := strings.Split(v, ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("time of day %q: want HH:MM", v)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("time of day %q: bad hour", v)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("time of day %q: bad minute", v)
	}
	return h*60 + m, nil
}
