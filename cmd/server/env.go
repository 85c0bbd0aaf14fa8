package main

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Environment struct {
	Environment   string
	LogLevel      string
	ServerAddress string
	SecretKey     string
	ScreenID      string

	OperatorName         string
	OperatorPasswordHash string

	SettingsBackend string // local | postgres | spaces
	SettingsPath    string
	SettingsName    string
	WatchSettings   bool

	DatabaseURL    string
	MigrationsPath string

	RedisAddress  string
	RedisUsername string
	RedisPassword string

	SpacesEndpoint  string
	SpacesRegion    string
	SpacesBucket    string
	SpacesKey       string
	SpacesAccessKey string
	SpacesSecretKey string

	Calculator     string // local | aladhan
	AladhanURL     string
	AladhanTimeout time.Duration

	Player    string // speaker | remote | none
	MediaRoot string

	MQTTBrokerURL string
	MQTTUsername  string
	MQTTPassword  string
	NATSURL       string

	HistoryPath      string
	HistoryRetention time.Duration
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("invalid duration, using default")
		return fallback
	}
	return d
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("invalid boolean, using default")
		return fallback
	}
	return b
}

// LoadEnvironment reads env vars, after loading .env if present.
func LoadEnvironment() Environment {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("could not load .env file")
	}

	return Environment{
		Environment:   getenv("APP_ENV", "production"),
		LogLevel:      getenv("LOG_LEVEL", "info"),
		ServerAddress: getenv("SERVER_ADDRESS", ":8080"),
		SecretKey:     os.Getenv("JWT_SECRET"),
		ScreenID:      getenv("SCREEN_ID", "main"),

		OperatorName:         getenv("OPERATOR_NAME", "admin"),
		OperatorPasswordHash: os.Getenv("OPERATOR_PASSWORD_HASH"),

		SettingsBackend: getenv("SETTINGS_BACKEND", "local"),
		SettingsPath:    getenv("SETTINGS_PATH", "./settings.yaml"),
		SettingsName:    getenv("SETTINGS_NAME", "default"),
		WatchSettings:   getBool("WATCH_SETTINGS", true),

		DatabaseURL:    os.Getenv("DATABASE_URL"),
		MigrationsPath: getenv("MIGRATIONS_PATH", "./migrations"),

		RedisAddress:  os.Getenv("REDIS_ADDRESS"),
		RedisUsername: os.Getenv("REDIS_USERNAME"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		SpacesEndpoint:  os.Getenv("SPACES_ENDPOINT"),
		SpacesRegion:    getenv("SPACES_REGION", "us-east-1"),
		SpacesBucket:    os.Getenv("SPACES_BUCKET"),
		SpacesKey:       getenv("SPACES_KEY", "minbar/settings.json"),
		SpacesAccessKey: os.Getenv("SPACES_ACCESS_KEY"),
		SpacesSecretKey: os.Getenv("SPACES_SECRET_KEY"),

		Calculator:     getenv("CALCULATOR", "local"),
		AladhanURL:     os.Getenv("ALADHAN_URL"),
		AladhanTimeout: getDuration("ALADHAN_TIMEOUT", 10*time.Second),

		Player:    getenv("PLAYER", "none"),
		MediaRoot: getenv("MEDIA_ROOT", "./media"),

		MQTTBrokerURL: os.Getenv("MQTT_BROKER_URL"),
		MQTTUsername:  os.Getenv("MQTT_USERNAME"),
		MQTTPassword:  os.Getenv("MQTT_PASSWORD"),
		NATSURL:       os.Getenv("NATS_URL"),

		HistoryPath:      getenv("HISTORY_PATH", "./minbar-history.db"),
		HistoryRetention: getDuration("HISTORY_RETENTION", 30*24*time.Hour),
	}
}

// Validate checks the variables the serve command cannot run without.
func (env Environment) Validate() error {
	var problems []string
	if env.SecretKey == "" {
		problems = append(problems, "JWT_SECRET is required")
	}
	switch env.SettingsBackend {
	case "local":
	case "postgres":
		if env.DatabaseURL == "" {
			problems = append(problems, "DATABASE_URL is required for the postgres settings backend")
		}
	case "spaces":
		if env.SpacesBucket == "" || env.SpacesEndpoint == "" {
			problems = append(problems, "SPACES_ENDPOINT and SPACES_BUCKET are required for the spaces settings backend")
		}
	default:
		problems = append(problems, "SETTINGS_BACKEND must be local, postgres or spaces")
	}
	switch env.Calculator {
	case "local", "aladhan":
	default:
		problems = append(problems, "CALCULATOR must be local or aladhan")
	}
	switch env.Player {
	case "none", "speaker":
	case "remote":
		if env.MQTTBrokerURL == "" {
			problems = append(problems, "MQTT_BROKER_URL is required for the remote player")
		}
	default:
		problems = append(problems, "PLAYER must be none, speaker or remote")
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}
