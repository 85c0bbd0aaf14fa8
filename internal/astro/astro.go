// Package astro computes prayer instants offline from solar position.
package astro

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/Nixie-Tech-LLC/minbar/internal/prayertime"
)

const (
	sunriseAngle = 0.833 // refraction plus solar radius
	j2000        = 2451545.0
)

// Calculator implements prayertime.Calculator without network access.
type Calculator struct{}

func New() *Calculator {
	return &Calculator{}
}

var _ prayertime.Calculator = (*Calculator)(nil)

func (c *Calculator) Compute(ctx context.Context, p prayertime.Params, date time.Time) (prayertime.Times, error) {
	if err := ctx.Err(); err != nil {
		return prayertime.Times{}, err
	}
	if err := p.Validate(); err != nil {
		return prayertime.Times{}, err
	}
	method, err := LookupMethod(p.Method)
	if err != nil {
		return prayertime.Times{}, err
	}

	s := solarDay{
		jd:  julian(date.Year(), int(date.Month()), date.Day()) - p.Longitude/(15*24),
		lat: p.Latitude,
	}
	asrFactor := AsrFactor(p.Madhab)

	// hours of local mean time, refined once from rough guesses
	guess := [6]float64{5, 6, 12, 13, 18, 18}
	var h [6]float64
	for pass := 0; pass < 2; pass++ {
		h[0] = s.angleTime(method.FajrAngle, guess[0]/24, true)
		h[1] = s.angleTime(sunriseAngle, guess[1]/24, true)
		h[2] = s.midDay(guess[2] / 24)
		h[3] = s.asrTime(asrFactor, guess[3]/24)
		if method.MaghribAngle > 0 {
			h[4] = s.angleTime(method.MaghribAngle, guess[4]/24, false)
		} else {
			h[4] = s.angleTime(sunriseAngle, guess[4]/24, false)
		}
		h[5] = s.angleTime(method.IshaAngle, guess[5]/24, false)
		guess = h
	}

	if math.IsNaN(h[1]) || math.IsNaN(h[4]) {
		return prayertime.Times{}, fmt.Errorf("no sunrise or sunset at latitude %.4f on %s", p.Latitude, date.Format(time.DateOnly))
	}
	sunset := s.angleTime(sunriseAngle, h[4]/24, false)
	h = adjustHighLatitude(h, method, sunset)

	if method.IshaInterval > 0 {
		h[5] = h[4] + float64(method.IshaInterval)/60
	}

	adj := method.Adjust
	mins := [6]int{adj.Fajr, adj.Sunrise, adj.Dhuhr, adj.Asr, adj.Maghrib, adj.Isha}

	loc := date.Location()
	midnight := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	var out [6]time.Time
	for i := range h {
		utcHours := h[i] - p.Longitude/15
		t := midnight.Add(time.Duration(utcHours * float64(time.Hour)))
		t = t.Add(time.Duration(mins[i]) * time.Minute)
		out[i] = t.Round(time.Minute).In(loc)
	}

	return prayertime.Times{
		Fajr:    out[0],
		Sunrise: out[1],
		Dhuhr:   out[2],
		Asr:     out[3],
		Maghrib: out[4],
		Isha:    out[5],
	}, nil
}

// adjustHighLatitude caps fajr and isha at a night portion proportional to the twilight
// angle, the "angle-based" rule used where twilight never ends.
func adjustHighLatitude(h [6]float64, m Method, sunset float64) [6]float64 {
	night := 24 - (sunset - h[1])

	fajrPortion := m.FajrAngle / 60 * night
	if math.IsNaN(h[0]) || h[1]-h[0] > fajrPortion {
		h[0] = h[1] - fajrPortion
	}
	if m.IshaInterval == 0 {
		ishaPortion := m.IshaAngle / 60 * night
		if math.IsNaN(h[5]) || h[5]-sunset > ishaPortion {
			h[5] = sunset + ishaPortion
		}
	}
	return h
}

type solarDay struct {
	jd  float64
	lat float64
}

// position returns the sun's declination and the equation of time for a day fraction.
func (s solarDay) position(t float64) (decl, eqt float64) {
	d := s.jd + t - j2000
	g := fixAngle(357.529 + 0.98560028*d)
	q := fixAngle(280.459 + 0.98564736*d)
	l := fixAngle(q + 1.915*dsin(g) + 0.020*dsin(2*g))
	e := 23.439 - 0.00000036*d

	ra := darctan2(dcos(e)*dsin(l), dcos(l)) / 15
	eqt = q/15 - fixHour(ra)
	decl = darcsin(dsin(e) * dsin(l))
	return decl, eqt
}

func (s solarDay) midDay(t float64) float64 {
	_, eqt := s.position(t)
	return fixHour(12 - eqt)
}

// angleTime is the time the sun is angle degrees below the horizon, before noon when ccw.
func (s solarDay) angleTime(angle, t float64, ccw bool) float64 {
	decl, _ := s.position(t)
	noon := s.midDay(t)
	x := (-dsin(angle) - dsin(decl)*dsin(s.lat)) / (dcos(decl) * dcos(s.lat))
	if x < -1 || x > 1 {
		return math.NaN()
	}
	dt := darccos(x) / 15
	if ccw {
		return noon - dt
	}
	return noon + dt
}

func (s solarDay) asrTime(factor, t float64) float64 {
	decl, _ := s.position(t)
	angle := -darccot(factor + dtan(math.Abs(s.lat-decl)))
	return s.angleTime(angle, t, false)
}

func julian(year, month, day int) float64 {
	if month <= 2 {
		year--
		month += 12
	}
	a := math.Floor(float64(year) / 100)
	b := 2 - a + math.Floor(a/4)
	return math.Floor(365.25*float64(year+4716)) + math.Floor(30.6001*float64(month+1)) + float64(day) + b - 1524.5
}

func rad(d float64) float64 { return d * math.Pi / 180 }
func deg(r float64) float64 { return r * 180 / math.Pi }

func dsin(d float64) float64        { return math.Sin(rad(d)) }
func dcos(d float64) float64        { return math.Cos(rad(d)) }
func dtan(d float64) float64        { return math.Tan(rad(d)) }
func darcsin(x float64) float64     { return deg(math.Asin(x)) }
func darccos(x float64) float64     { return deg(math.Acos(x)) }
func darctan2(y, x float64) float64 { return deg(math.Atan2(y, x)) }
func darccot(x float64) float64     { return deg(math.Atan(1 / x)) }
func fixAngle(a float64) float64    { return fix(a, 360) }
func fixHour(a float64) float64     { return fix(a, 24) }

func fix(a, mod float64) float64 {
	a = a - mod*math.Floor(a/mod)
	if a < 0 {
		a += mod
	}
	return a
}
