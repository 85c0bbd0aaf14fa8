package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"github.com/Nixie-Tech-LLC/minbar/internal/aladhan"
	"github.com/Nixie-Tech-LLC/minbar/internal/astro"
	"github.com/Nixie-Tech-LLC/minbar/internal/audio"
	"github.com/Nixie-Tech-LLC/minbar/internal/broadcast"
	"github.com/Nixie-Tech-LLC/minbar/internal/player"
	"github.com/Nixie-Tech-LLC/minbar/internal/prayertime"
	"github.com/Nixie-Tech-LLC/minbar/internal/redis"
)

// newCalculator picks the local or AlAdhan calculator and memoises it, sharing days
// through redis when a client is given.
func newCalculator(env Environment, rdb *redis.Client) prayertime.Calculator {
	var calc prayertime.Calculator
	switch env.Calculator {
	case "aladhan":
		calc = aladhan.New(env.AladhanURL, env.AladhanTimeout)
		log.Info().Str("url", env.AladhanURL).Msg("using AlAdhan calculator")
	default:
		calc = astro.New()
		log.Info().Msg("using local astronomical calculator")
	}

	if rdb == nil {
		return prayertime.NewCachedCalculator(calc, nil)
	}
	return prayertime.NewCachedCalculator(calc, rdb)
}

// newPublisher connects the configured brokers. It returns nil when none is configured.
func newPublisher(env Environment) (broadcast.Publisher, error) {
	var pubs broadcast.Multi

	if env.MQTTBrokerURL != "" {
		client, err := broadcast.NewMQTTClient(env.MQTTBrokerURL, fmt.Sprintf("minbar-%s", env.ScreenID), env.MQTTUsername, env.MQTTPassword)
		if err != nil {
			return nil, err
		}
		pubs = append(pubs, broadcast.NewMQTTPublisher(client))
	}
	if env.NATSURL != "" {
		nc, err := broadcast.NewNATSPublisher(env.NATSURL, fmt.Sprintf("minbar-%s", env.ScreenID))
		if err != nil {
			_ = pubs.Close()
			return nil, err
		}
		pubs = append(pubs, nc)
	}

	switch len(pubs) {
	case 0:
		return nil, nil
	case 1:
		return pubs[0], nil
	}
	return pubs, nil
}

// newPlayer builds the audio player. The remote player needs an MQTT publisher.
func newPlayer(env Environment, pub broadcast.Publisher) (audio.Player, func(), error) {
	switch env.Player {
	case "speaker":
		sp, err := player.NewSpeaker(afero.NewOsFs(), env.MediaRoot, player.DefaultSampleRate)
		if err != nil {
			return nil, nil, err
		}
		return sp, sp.Close, nil
	case "remote":
		if pub == nil {
			return nil, nil, fmt.Errorf("remote player needs a broker")
		}
		return player.NewRemote(pub, env.ScreenID), func() {}, nil
	}
	return player.Nop{}, func() {}, nil
}
