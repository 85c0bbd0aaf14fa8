package packets

import (
	"github.com/Nixie-Tech-LLC/minbar/internal/hijri"
	"github.com/Nixie-Tech-LLC/minbar/internal/model"
)

type TableResponse struct {
	Date              string                `json:"date"`
	Timezone          string                `json:"timezone"`
	ScheduleAvailable bool                  `json:"schedule_available"`
	NextIndex         int                   `json:"next_index"`
	Entries           []model.PrayerInstant `json:"entries"`
}

type CalendarResponse struct {
	Today      hijri.Date  `json:"today"`
	TodayText  string      `json:"today_text"`
	Holiday    hijri.Event `json:"holiday"`
	SunnahFast hijri.Event `json:"sunnah_fast"`
}
