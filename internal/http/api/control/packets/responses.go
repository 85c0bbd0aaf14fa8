package packets

import "github.com/Nixie-Tech-LLC/minbar/internal/model"

type LoginResponse struct {
	Token string `json:"token"`
}

type SettingsResponse struct {
	Settings model.Settings `json:"settings"`
	Saved    bool           `json:"saved"`
}
