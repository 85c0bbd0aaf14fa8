// Package hijri converts between the Gregorian and the tabular (islamic-civil) Hijri
// calendars and finds upcoming observances.
package hijri

import (
	"fmt"
	"time"
)

// civil epoch, 1 Muharram 1 AH, as a Julian day number
const epoch = 1948440

var monthNames = [12]string{
	"Muharram", "Safar", "Rabiul Awal", "Rabiul Akhir", "Jumadil Awal", "Jumadil Akhir",
	"Rajab", "Sya'ban", "Ramadhan", "Syawal", "Dzulkaidah", "Dzulhijjah",
}

type Date struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

func (d Date) MonthName() string {
	if d.Month < 1 || d.Month > 12 {
		return ""
	}
	return monthNames[d.Month-1]
}

// String formats as "10 Safar 1447".
func (d Date) String() string {
	return fmt.Sprintf("%d %s %d", d.Day, d.MonthName(), d.Year)
}

func (d Date) before(o Date) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}

// FromGregorian converts the calendar day of t in t's location.
func FromGregorian(t time.Time) Date {
	return fromJDN(gregorianToJDN(t.Year(), int(t.Month()), t.Day()))
}

// ToGregorian returns midnight in loc of the day d falls on.
func ToGregorian(d Date, loc *time.Location) time.Time {
	y, m, day := jdnToGregorian(toJDN(d))
	return time.Date(y, time.Month(m), day, 0, 0, 0, 0, loc)
}

func toJDN(d Date) int {
	return d.Day + ceilDiv(59*(d.Month-1), 2) + (d.Year-1)*354 + (3+11*d.Year)/30 + epoch - 1
}

func fromJDN(j int) Date {
	year := (30*(j-epoch) + 10646) / 10631
	month := ceilDiv(2*(j-(29+toJDN(Date{Year: year, Month: 1, Day: 1}))), 59) + 1
	if month > 12 {
		month = 12
	}
	day := j - toJDN(Date{Year: year, Month: month, Day: 1}) + 1
	return Date{Year: year, Month: month, Day: day}
}

func gregorianToJDN(y, m, d int) int {
	a := (14 - m) / 12
	y2 := y + 4800 - a
	m2 := m + 12*a - 3
	return d + (153*m2+2)/5 + 365*y2 + y2/4 - y2/100 + y2/400 - 32045
}

func jdnToGregorian(j int) (int, int, int) {
	a := j + 32044
	b := (4*a + 3) / 146097
	c := a - 146097*b/4
	d := (4*c + 3) / 1461
	e := c - 1461*d/4
	m := (5*e + 2) / 153
	return 100*b + d - 4800 + m/10, m + 3 - 12*(m/10), e - (153*m+2)/5 + 1
}

// ceilDiv rounds a/b up for b > 0; Go's truncation already does that for a <= 0.
func ceilDiv(a, b int) int {
	if a <= 0 {
		return a / b
	}
	return (a + b - 1) / b
}
