package hijri

import "time"

const (
	TypeHoliday = "Holiday"
	TypeFasting = "Fasting"
)

// Event is an upcoming observance.
type Event struct {
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Date        time.Time `json:"date"`
	Hijri       Date      `json:"hijri"`
	HijriText   string    `json:"hijri_text"`
	DaysAway    int       `json:"days_away"`
	Description string    `json:"description,omitempty"`
}

type observance struct {
	month, day int
	name       string
}

// Holidays in calendar order.
var holidays = []observance{
	{1, 1, "Tahun Baru Islam"},
	{3, 12, "Maulid Nabi Muhammad SAW"},
	{7, 27, "Isra' Mi'raj"},
	{9, 1, "Awal Ramadhan"},
	{9, 17, "Nuzulul Qur'an"},
	{10, 1, "Hari Raya Idul Fitri"},
	{12, 10, "Hari Raya Idul Adha"},
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func daysBetween(from, to time.Time) int {
	// calendar days; rounding absorbs DST shifts
	return int(to.Sub(from).Round(24*time.Hour) / (24 * time.Hour))
}

// NextHoliday returns the first observance on or after today's Hijri date.
func NextHoliday(now time.Time) Event {
	today := FromGregorian(now)

	target := Date{Year: today.Year + 1, Month: holidays[0].month, Day: holidays[0].day}
	name := holidays[0].name
	for _, h := range holidays {
		d := Date{Year: today.Year, Month: h.month, Day: h.day}
		if !d.before(today) {
			target, name = d, h.name
			break
		}
	}

	date := ToGregorian(target, now.Location())
	return Event{
		Name:        name,
		Type:        TypeHoliday,
		Date:        date,
		Hijri:       target,
		HijriText:   target.String(),
		DaysAway:    daysBetween(midnight(now), date),
		Description: "Mari persiapkan diri menyambut hari besar ini.",
	}
}

// NextSunnahFast returns the next Monday or Thursday after today.
func NextSunnahFast(now time.Time) Event {
	today := midnight(now)
	wd := int(today.Weekday())

	untilMonday := (int(time.Monday) - wd + 7) % 7
	if untilMonday == 0 {
		untilMonday = 7
	}
	untilThursday := (int(time.Thursday) - wd + 7) % 7
	if untilThursday == 0 {
		untilThursday = 7
	}

	days, name := untilThursday, "Puasa Sunnah Kamis"
	if untilMonday < untilThursday {
		days, name = untilMonday, "Puasa Sunnah Senin"
	}
	date := today.AddDate(0, 0, days)
	h := FromGregorian(date)
	return Event{
		Name:        name,
		Type:        TypeFasting,
		Date:        date,
		Hijri:       h,
		HijriText:   h.String(),
		DaysAway:    days,
		Description: "Disunnahkan berpuasa pada hari Senin dan Kamis.",
	}
}
