package endpoints

import (
	"context"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/minbar/internal/config"
	"github.com/Nixie-Tech-LLC/minbar/internal/engine"
	"github.com/Nixie-Tech-LLC/minbar/internal/http/api"
	"github.com/Nixie-Tech-LLC/minbar/internal/http/api/control/packets"
	"github.com/Nixie-Tech-LLC/minbar/internal/model"
	"github.com/Nixie-Tech-LLC/minbar/internal/storage"
)

// Engine is the part of *engine.Engine the control surface drives.
type Engine interface {
	OverrideMode(mode model.DisplayMode, prayer *model.PrayerName) (model.Snapshot, error)
	TestAudioCue(state model.AudioState, prayer model.PrayerName, src string) (model.Snapshot, error)
	StopTest() model.Snapshot
	Settings() model.Settings
	Apply(ctx context.Context, s model.Settings) error
}

var _ Engine = (*engine.Engine)(nil)

type ControlManager struct {
	engine Engine
	store  storage.Storage
}

// ControlModule mounts the authenticated operator endpoints. store may be nil, in which case
// settings changes are applied but not persisted.
func ControlModule(eng Engine, store storage.Storage) api.Module {
	ctl := &ControlManager{engine: eng, store: store}
	return api.ModuleFunc(func(c *api.Controller) {
		c.POST("/override", ctl.override)
		c.POST("/audio/test", ctl.testAudio)
		c.POST("/audio/stop", ctl.stopAudio)

		c.GET("/settings", ctl.getSettings)
		c.PUT("/settings", ctl.updateSettings)
	})
}

func engineError(err error) *api.APIError {
	if errors.Is(err, engine.ErrInvalidRequest) || errors.Is(err, config.ErrInvalidSettings) {
		return api.BadRequest(err.Error())
	}
	return api.Internal(err.Error())
}

// POST /api/control/override
func (m *ControlManager) override(ctx *gin.Context, op *model.Operator) (any, *api.APIError) {
	var request packets.OverrideRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}
	mode, err := model.ParseDisplayMode(request.Mode)
	if err != nil {
		return nil, api.BadRequest(err.Error())
	}

	snap, err := m.engine.OverrideMode(mode, request.Prayer)
	if err != nil {
		return nil, engineError(err)
	}
	log.Info().Str("operator", op.Name).Str("mode", string(mode)).Msg("display override requested")
	return snap, nil
}

// POST /api/control/audio/test
func (m *ControlManager) testAudio(ctx *gin.Context, op *model.Operator) (any, *api.APIError) {
	var request packets.AudioTestRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}
	state, err := model.ParseAudioState(request.State)
	if err != nil {
		return nil, api.BadRequest(err.Error())
	}

	snap, err := m.engine.TestAudioCue(state, request.Prayer, request.Src)
	if err != nil {
		return nil, engineError(err)
	}
	log.Info().Str("operator", op.Name).Str("state", string(state)).Str("prayer", string(request.Prayer)).Msg("audio test started")
	return snap, nil
}

// POST /api/control/audio/stop
func (m *ControlManager) stopAudio(_ *gin.Context, op *model.Operator) (any, *api.APIError) {
	log.Info().Str("operator", op.Name).Msg("audio test stopped")
	return m.engine.StopTest(), nil
}

// GET /api/control/settings
func (m *ControlManager) getSettings(_ *gin.Context, _ *model.Operator) (any, *api.APIError) {
	return packets.SettingsResponse{Settings: m.engine.Settings(), Saved: m.store != nil}, nil
}

// PUT /api/control/settings applies the new settings and then persists them.
func (m *ControlManager) updateSettings(ctx *gin.Context, op *model.Operator) (any, *api.APIError) {
	var request model.Settings
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, api.BadRequest(err.Error())
	}

	if err := m.engine.Apply(ctx.Request.Context(), request); err != nil {
		return nil, engineError(err)
	}
	applied := m.engine.Settings()

	saved := false
	if m.store != nil {
		if err := m.store.Save(ctx.Request.Context(), applied); err != nil {
			log.Error().Err(err).Str("operator", op.Name).Msg("settings applied but not saved")
			return nil, api.Internal(fmt.Sprintf("settings applied but not saved: %v", err))
		}
		saved = true
	}

	log.Info().Str("operator", op.Name).Bool("saved", saved).Msg("settings updated")
	return packets.SettingsResponse{Settings: applied, Saved: saved}, nil
}
