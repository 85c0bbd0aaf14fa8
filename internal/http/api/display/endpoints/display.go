package endpoints

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/minbar/internal/engine"
	"github.com/Nixie-Tech-LLC/minbar/internal/hijri"
	"github.com/Nixie-Tech-LLC/minbar/internal/history"
	"github.com/Nixie-Tech-LLC/minbar/internal/http/api"
	"github.com/Nixie-Tech-LLC/minbar/internal/http/api/display/packets"
	"github.com/Nixie-Tech-LLC/minbar/internal/model"
	"github.com/Nixie-Tech-LLC/minbar/internal/prayertime"
)

// Engine is the read side of *engine.Engine used by display clients.
type Engine interface {
	Snapshot() model.Snapshot
	Table() prayertime.Table
	Settings() model.Settings
	Location() *time.Location
	Now() time.Time
}

var _ Engine = (*engine.Engine)(nil)

// History serves stored engine events.
type History interface {
	Recent(ctx context.Context, kind model.EventKind, limit int) ([]history.Entry, error)
}

type DisplayManager struct {
	engine Engine
	events History
}

// DisplayModule mounts the public read-only endpoints. hist may be nil.
func DisplayModule(eng Engine, hist History) api.Module {
	ctl := &DisplayManager{engine: eng, events: hist}
	return api.ModuleFunc(func(c *api.Controller) {
		c.PUBLIC_GET("/snapshot", ctl.snapshot)
		c.PUBLIC_GET("/table", ctl.table)
		c.PUBLIC_GET("/athan", ctl.athan)
		c.PUBLIC_GET("/calendar", ctl.calendar)
		c.PUBLIC_GET("/history", ctl.recent)
	})
}

// GET /api/display/snapshot
func (d *DisplayManager) snapshot(_ *gin.Context) (any, *api.APIError) {
	return d.engine.Snapshot(), nil
}

// GET /api/display/table
func (d *DisplayManager) table(_ *gin.Context) (any, *api.APIError) {
	t := d.engine.Table()
	tz := ""
	if loc := d.engine.Location(); loc != nil {
		tz = loc.String()
	}
	return packets.TableResponse{
		Date:              t.Date,
		Timezone:          tz,
		ScheduleAvailable: t.Available(),
		NextIndex:         t.NextIndex,
		Entries:           t.Entries,
	}, nil
}

// GET /api/display/athan
func (d *DisplayManager) athan(_ *gin.Context) (any, *api.APIError) {
	return AthanPage(d.engine.Settings(), d.engine.Table(), d.engine.Now().In(d.location())), nil
}

// GET /api/display/calendar
func (d *DisplayManager) calendar(_ *gin.Context) (any, *api.APIError) {
	now := d.engine.Now().In(d.location())
	today := hijri.FromGregorian(now)
	return packets.CalendarResponse{
		Today:      today,
		TodayText:  today.String(),
		Holiday:    hijri.NextHoliday(now),
		SunnahFast: hijri.NextSunnahFast(now),
	}, nil
}

// GET /api/display/history?kind=display&limit=50
func (d *DisplayManager) recent(ctx *gin.Context) (any, *api.APIError) {
	if d.events == nil {
		return nil, &api.APIError{Code: http.StatusServiceUnavailable, Message: "history is not enabled"}
	}

	kind := model.EventKind(ctx.Query("kind"))
	switch kind {
	case "", model.EventDisplay, model.EventAudio, model.EventTable, model.EventOverride, model.EventTick:
	default:
		return nil, api.BadRequest("unknown event kind")
	}

	limit := 0
	if raw := ctx.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return nil, api.BadRequest("limit must be a non-negative integer")
		}
		limit = n
	}

	entries, err := d.events.Recent(ctx.Request.Context(), kind, limit)
	if err != nil {
		log.Error().Err(err).Msg("failed to read event history")
		return nil, api.Internal("failed to read history")
	}
	return entries, nil
}

func (d *DisplayManager) location() *time.Location {
	if loc := d.engine.Location(); loc != nil {
		return loc
	}
	return time.UTC
}
