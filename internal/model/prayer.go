package model

import "time"

type PrayerName string

const (
	Imsak   PrayerName = "Imsak"
	Subuh   PrayerName = "Subuh"
	Syuruq  PrayerName = "Syuruq"
	Dhuha   PrayerName = "Dhuha"
	Dzuhur  PrayerName = "Dzuhur"
	Ashar   PrayerName = "Ashar"
	Maghrib PrayerName = "Maghrib"
	Isya    PrayerName = "Isya"
)

// TableOrder is the fixed chronological order of a daily table.
var TableOrder = []PrayerName{Imsak, Subuh, Syuruq, Dhuha, Dzuhur, Ashar, Maghrib, Isya}

// CanonicalPrayers are the five daily prayers that carry audio and display sequences.
var CanonicalPrayers = []PrayerName{Subuh, Dzuhur, Ashar, Maghrib, Isya}

// IsCanonical reports whether name is one of the five daily prayers.
func (n PrayerName) IsCanonical() bool {
	for _, c := range CanonicalPrayers {
		if c == n {
			return true
		}
	}
	return false
}

// Valid reports whether name is part of the daily table.
func (n PrayerName) Valid() bool {
	for _, c := range TableOrder {
		if c == n {
			return true
		}
	}
	return false
}

type PrayerInstant struct {
	Name   PrayerName `json:"name"`
	Time   time.Time  `json:"time"`
	IsNext bool       `json:"is_next"`
}
