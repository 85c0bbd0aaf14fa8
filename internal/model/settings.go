package model

type Location struct {
	Latitude  float64 `json:"latitude" yaml:"latitude"`
	Longitude float64 `json:"longitude" yaml:"longitude"`
	Method    string  `json:"method" yaml:"method"`
	Madhab    string  `json:"madhab" yaml:"madhab"`
	Timezone  string  `json:"timezone" yaml:"timezone"`
}

type Mosque struct {
	Name string `json:"name" yaml:"name"`
	City string `json:"city" yaml:"city"`
}

// Settings is the serializable configuration object persisted by the settings store.
type Settings struct {
	Mosque            Mosque                        `json:"mosque" yaml:"mosque"`
	Location          Location                      `json:"location" yaml:"location"`
	PrayerTimeOffsets map[PrayerName]int            `json:"prayerTimeOffsets" yaml:"prayerTimeOffsets"` // minutes
	Ihtiati           int                           `json:"ihtiati" yaml:"ihtiati"`                     // minutes
	Audio             map[PrayerName]AudioCueConfig `json:"audio" yaml:"audio"`
	Fullscreen        FullscreenSettings            `json:"fullscreen" yaml:"fullscreen"`
}

// Clone returns a deep copy so callers can mutate maps freely.
func (s Settings) Clone() Settings {
	out := s
	out.PrayerTimeOffsets = make(map[PrayerName]int, len(s.PrayerTimeOffsets))
	for k, v := range s.PrayerTimeOffsets {
		out.PrayerTimeOffsets[k] = v
	}
	out.Audio = make(map[PrayerName]AudioCueConfig, len(s.Audio))
	for k, v := range s.Audio {
		out.Audio[k] = v
	}
	out.Fullscreen.Prayers = make(map[PrayerName]PrayerDurations, len(s.Fullscreen.Prayers))
	for k, v := range s.Fullscreen.Prayers {
		out.Fullscreen.Prayers[k] = v
	}
	return out
}
