package main

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/Nixie-Tech-LLC/minbar/internal/engine"
	"github.com/Nixie-Tech-LLC/minbar/internal/http/api"
	controlapi "github.com/Nixie-Tech-LLC/minbar/internal/http/api/control/endpoints"
	displayapi "github.com/Nixie-Tech-LLC/minbar/internal/http/api/display/endpoints"
	"github.com/Nixie-Tech-LLC/minbar/internal/metrics"
	"github.com/Nixie-Tech-LLC/minbar/internal/storage"
)

// routeDeps is everything the HTTP surface reads from or drives.
type routeDeps struct {
	Engine   *engine.Engine
	Store    storage.Storage
	History  displayapi.History
	Hub      *displayapi.Hub
	Registry *prom.Registry
}

// RegisterRoutes sets up all application routes
func RegisterRoutes(r *gin.Engine, env Environment, deps routeDeps) {
	// CORS
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool { return true },
		AllowMethods: []string{
			"GET",
			"POST",
			"PUT",
			"OPTIONS",
			"HEAD",
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Authorization",
			"Accept",
		},
		ExposeHeaders: []string{
			"Content-Length",
		},
		AllowCredentials: false,
	}))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "schedule_available": deps.Engine.Snapshot().ScheduleAvailable})
	})
	if deps.Registry != nil {
		r.GET("/metrics", gin.WrapH(metrics.Handler(deps.Registry)))
	}

	api.MountGroup(r, api.GroupConfig{
		Prefix: "/api/control",
	},
		controlapi.AuthPublicModule(env.SecretKey, controlapi.Credentials{
			Name:         env.OperatorName,
			PasswordHash: env.OperatorPasswordHash,
		}),
	)

	api.MountGroup(r, api.GroupConfig{
		Prefix:    "/api/control",
		Auth:      true,
		SecretKey: env.SecretKey,
	},
		controlapi.ControlModule(deps.Engine, deps.Store),
	)

	display := []api.Module{displayapi.DisplayModule(deps.Engine, deps.History)}
	if deps.Hub != nil {
		display = append(display, displayapi.SocketModule(deps.Hub))
	}
	api.MountGroup(r, api.GroupConfig{
		Prefix: "/api/display",
	}, display...)

	// Media for remote players and browser displays
	r.Static("/media", env.MediaRoot)
}
