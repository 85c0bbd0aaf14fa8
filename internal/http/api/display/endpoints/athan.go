package endpoints

import (
	"strings"
	"time"

	"github.com/Nixie-Tech-LLC/minbar/internal/config"
	"github.com/Nixie-Tech-LLC/minbar/internal/hijri"
	"github.com/Nixie-Tech-LLC/minbar/internal/model"
	"github.com/Nixie-Tech-LLC/minbar/internal/prayertime"
)

// AthanPage renders the table for the athan board: 12-hour times, and the iqamah time
// (call plus congregational wait) for the five daily prayers.
func AthanPage(settings model.Settings, table prayertime.Table, now time.Time) model.AthanPageData {
	settings = config.Normalize(settings)

	prayers := make([]model.Prayer, 0, len(table.Entries))
	for i, e := range table.Entries {
		t, period := clock12(e.Time)
		p := model.Prayer{
			Name:   strings.ToUpper(string(e.Name)),
			Time:   t,
			Period: period,
			IsNext: i == table.NextIndex,
		}
		if e.Name.IsCanonical() {
			d := settings.Fullscreen.Prayers[e.Name]
			iqama, _ := clock12(e.Time.Add(time.Duration(d.AdzanDuration+d.IqamahWaitDuration) * time.Second))
			p.Iqama = iqama
		}
		prayers = append(prayers, p)
	}

	return model.AthanPageData{
		Mosque:  settings.Mosque.Name,
		City:    strings.ToUpper(settings.Mosque.City),
		Date:    strings.ToUpper(now.Format("January 2, 2006")),
		Hijri:   hijri.FromGregorian(now).String(),
		Prayers: prayers,
	}
}

// clock12 converts 17:30 to ("05:30", "PM").
func clock12(t time.Time) (string, string) {
	return t.Format("03:04"), t.Format("PM")
}
