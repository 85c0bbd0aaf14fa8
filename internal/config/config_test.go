package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/minbar/internal/model"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Validate(Default()))
}

func TestNormalizeFillsGaps(t *testing.T) {
	s := model.Settings{
		Location: model.Location{Latitude: 1, Longitude: 2},
		Fullscreen: model.FullscreenSettings{
			Prayers: map[model.PrayerName]model.PrayerDurations{
				model.Dzuhur: {AdzanDuration: 120},
			},
		},
	}

	out := Normalize(s)

	assert.Equal(t, "Asia/Jakarta", out.Location.Timezone)
	assert.Equal(t, 1.0, out.Location.Latitude)
	assert.Equal(t, 120, out.Fullscreen.Prayers[model.Dzuhur].AdzanDuration)
	assert.Equal(t, DefaultIqamahWaitDuration, out.Fullscreen.Prayers[model.Dzuhur].IqamahWaitDuration)
	assert.Equal(t, DefaultKhutbahDuration, out.Fullscreen.KhutbahDuration)
	assert.Len(t, out.Audio, len(model.CanonicalPrayers))

	// input untouched
	assert.Nil(t, s.Audio)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.Settings)
		ok     bool
	}{
		{"default", func(*model.Settings) {}, true},
		{"bad timezone", func(s *model.Settings) { s.Location.Timezone = "Mars/Olympus" }, false},
		{"offset unknown prayer", func(s *model.Settings) { s.PrayerTimeOffsets["Tahajud"] = 1 }, false},
		{"offset out of range", func(s *model.Settings) { s.PrayerTimeOffsets[model.Subuh] = 500 }, false},
		{"negative ihtiati", func(s *model.Settings) { s.Ihtiati = -1 }, false},
		{"audio for sunrise", func(s *model.Settings) { s.Audio[model.Syuruq] = model.AudioCueConfig{} }, false},
		{"half screensaver", func(s *model.Settings) { s.Fullscreen.ScreenSaverEnd = "" }, false},
		{"bad screensaver clock", func(s *model.Settings) { s.Fullscreen.ScreenSaverStart = "25:00" }, false},
		{"no screensaver", func(s *model.Settings) {
			s.Fullscreen.ScreenSaverStart = ""
			s.Fullscreen.ScreenSaverEnd = ""
		}, true},
		{"tarhim longer than tartil offset only warns", func(s *model.Settings) {
			cfg := s.Audio[model.Subuh]
			cfg.TartilOffset = 1
			cfg.TarhimDuration = 600
			s.Audio[model.Subuh] = cfg
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Default()
			tt.mutate(&s)
			err := Validate(s)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidSettings)
		})
	}
}

func TestParseClock(t *testing.T) {
	m, err := ParseClock("22:30")
	require.NoError(t, err)
	assert.Equal(t, 22*60+30, m)

	for _, bad := range []string{"", "22", "24:00", "10:60", "ab:cd"} {
		_, err := ParseClock(bad)
		assert.Error(t, err, bad)
	}
}
