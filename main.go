package main

import (
	"github.com/rs/zerolog/log"

	"github.com/whaleradar/whaleradar/app"
	"github.com/whaleradar/whaleradar/config"
	"github.com/whaleradar/whaleradar/logging"
)

func main() {
	logging.Init()
	cfg := config.LoadFromEnv()

	application := app.New(cfg)
	if err := application.Start(); err != nil {
		log.Fatal().Err(err).Msg("whaleradar exited")
	}
}
