package packets

import "github.com/Nixie-Tech-LLC/minbar/internal/model"

type LoginRequest struct {
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// OverrideRequest forces a display mode; Mode accepts "Khutbah" as well as "Sermon".
type OverrideRequest struct {
	Mode   string            `json:"mode"`
	Prayer *model.PrayerName `json:"prayer"`
}

// AudioTestRequest plays a cue until audio/stop. Src defaults to the prayer's configured source.
type AudioTestRequest struct {
	State  string           `json:"state" binding:"required"`
	Prayer model.PrayerName `json:"prayer" binding:"required"`
	Src    string           `json:"src"`
}
