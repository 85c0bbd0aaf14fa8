package main

import (
	"os"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// CLI is the command tree; each command has a Run method.
type CLI struct {
	Serve        ServeCmd        `cmd:"" default:"1" help:"Run the scheduling engine and HTTP API"`
	Table        TableCmd        `cmd:"" help:"Print the prayer table for a date"`
	HashPassword HashPasswordCmd `cmd:"" help:"Hash an operator password for OPERATOR_PASSWORD_HASH"`
}

// setupLogging configures the global zerolog logger: console output in development,
// JSON otherwise.
func setupLogging(env Environment) {
	level, err := zerolog.ParseLevel(strings.ToLower(env.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	if env.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

func main() {
	env := LoadEnvironment()
	setupLogging(env)

	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("minbar"),
		kong.Description("Prayer-time scheduling engine for mosque signage."),
		kong.UsageOnError(),
		kong.Bind(env),
	)
	if err := ctx.Run(); err != nil {
		log.Fatal().Err(err).Str("command", ctx.Command()).Msg("command failed")
	}
}
