package main

import (
	"github.com/rs/zerolog/log"

	"github.com/kaizau/pinyin-ktv-replit/internal/app"
	"github.com/kaizau/pinyin-ktv-replit/internal/config"
)

func main() {
	cfg := config.Load()
	app := app.New(cfg)
	if err := app.Run(); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}
