package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Nixie-Tech-LLC/minbar/internal/astro"
	"github.com/Nixie-Tech-LLC/minbar/internal/config"
	"github.com/Nixie-Tech-LLC/minbar/internal/engine"
	"github.com/Nixie-Tech-LLC/minbar/internal/http/middleware"
	"github.com/Nixie-Tech-LLC/minbar/internal/metrics"
	"github.com/Nixie-Tech-LLC/minbar/internal/model"
	"github.com/Nixie-Tech-LLC/minbar/internal/player"
	"github.com/Nixie-Tech-LLC/minbar/internal/prayertime"
	"github.com/Nixie-Tech-LLC/minbar/internal/storage"
)

func testEnv() Environment {
	return Environment{
		SecretKey:       "server-secret",
		OperatorName:    "takmir",
		SettingsBackend: "local",
		Calculator:      "local",
		Player:          "none",
		MediaRoot:       "./media",
	}
}

func newTestServer(t *testing.T) (*gin.Engine, *engine.Engine, *storage.LocalStorage) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	jakarta, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)
	clock := clockwork.NewFakeClockAt(time.Date(2025, time.August, 5, 9, 0, 0, 0, jakarta))

	reg := prom.NewRegistry()
	eng, err := engine.New(context.Background(), config.Default(), engine.Options{
		Calculator: prayertime.NewCachedCalculator(astro.New(), nil),
		Player:     player.Nop{},
		Clock:      clock,
		Recorder:   metrics.NewPrometheusRecorder(reg),
	})
	require.NoError(t, err)

	store := storage.NewLocalStorage(afero.NewMemMapFs(), "/etc/minbar/settings.yaml")

	env := testEnv()
	hash, err := middleware.HashPassword("sabar")
	require.NoError(t, err)
	env.OperatorPasswordHash = hash

	r := gin.New()
	RegisterRoutes(r, env, routeDeps{Engine: eng, Store: store, Registry: reg})
	return r, eng, store
}

func request(r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestPublicRoutes(t *testing.T) {
	r, _, _ := newTestServer(t)

	rec := request(r, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"schedule_available":true`)

	rec = request(r, http.MethodGet, "/api/display/table", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var table struct {
		Entries []model.PrayerInstant `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &table))
	assert.Len(t, table.Entries, 8)

	rec = request(r, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "minbar_table_refresh_duration_seconds"))

	// no history store configured
	assert.Equal(t, http.StatusServiceUnavailable, request(r, http.MethodGet, "/api/display/history", "", nil).Code)
}

func TestOperatorFlow(t *testing.T) {
	r, eng, store := newTestServer(t)

	assert.Equal(t, http.StatusUnauthorized, request(r, http.MethodPost, "/api/control/override", "", gin.H{"mode": "Khutbah"}).Code)

	rec := request(r, http.MethodPost, "/api/control/auth/login", "", gin.H{"name": "takmir", "password": "sabar"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &login))

	rec = request(r, http.MethodPost, "/api/control/override", login.Token, gin.H{"mode": "Khutbah"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, model.ModeSermon, eng.Snapshot().Mode)

	next := config.Default()
	next.Ihtiati = 2
	rec = request(r, http.MethodPut, "/api/control/settings", login.Token, next)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 2, eng.Settings().Ihtiati)

	saved, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, saved.Ihtiati)
}

func TestEnvironmentValidate(t *testing.T) {
	assert.NoError(t, testEnv().Validate())

	env := testEnv()
	env.SecretKey = ""
	assert.ErrorContains(t, env.Validate(), "JWT_SECRET")

	env = testEnv()
	env.SettingsBackend = "postgres"
	assert.ErrorContains(t, env.Validate(), "DATABASE_URL")

	env = testEnv()
	env.Player = "remote"
	assert.ErrorContains(t, env.Validate(), "MQTT_BROKER_URL")

	env = testEnv()
	env.Calculator = "guess"
	assert.Error(t, env.Validate())
}

func TestLoadEnvironmentDefaults(t *testing.T) {
	t.Setenv("SERVER_ADDRESS", "")
	t.Setenv("CALCULATOR", "")
	t.Setenv("HISTORY_RETENTION", "48h")
	t.Setenv("WATCH_SETTINGS", "false")

	env := LoadEnvironment()
	assert.Equal(t, ":8080", env.ServerAddress)
	assert.Equal(t, "local", env.Calculator)
	assert.Equal(t, 48*time.Hour, env.HistoryRetention)
	assert.False(t, env.WatchSettings)
}

func TestPrintTable(t *testing.T) {
	jakarta, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)
	inputs, err := prayertime.InputsFromSettings(config.Default())
	require.NoError(t, err)

	now := time.Date(2025, time.August, 5, 0, 0, 0, 0, jakarta)
	table, err := prayertime.Build(context.Background(), astro.New(), inputs, now)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, printTable(&out, "Masjid", table, now))
	assert.Contains(t, out.String(), "2025-08-05")
	assert.Contains(t, out.String(), "10 Safar 1447")
	assert.Contains(t, out.String(), "Dzuhur")
	assert.Contains(t, out.String(), "<- next")

	assert.Error(t, printTable(&out, "Masjid", prayertime.EmptyTable(), now))
}
