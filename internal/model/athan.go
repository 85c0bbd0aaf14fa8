package model

type Prayer struct {
	Name   string `json:"name"`   // "SUBUH", "DZUHUR", ...
	Time   string `json:"time"`   // "05:12"
	Period string `json:"period"` // "AM" or "PM"
	Iqama  string `json:"iqama"`  // adzan + iqamah wait, empty for non-canonical entries
	IsNext bool   `json:"is_next"`
}

type AthanPageData struct {
	Mosque  string   `json:"mosque"`
	City    string   `json:"city"`
	Date    string   `json:"date"`  // "AUGUST 5, 2025"
	Hijri   string   `json:"hijri"` // "10 Safar 1447"
	Prayers []Prayer `json:"prayers"`
}
