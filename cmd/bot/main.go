package main

import (
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/setpieces/tetryon/bot"
	"github.com/setpieces/tetryon/config"
)

func main() {
	ex, err := os.Executable()
	if err != nil {
		panic(err)
	}
	exPath := filepath.Dir(ex)

	cfg := &config.Config{}
	if err := cfg.Load(os.Args[1:]); err != nil {
		log.Fatal().Err(err).Msg("could not load config")
	}
	log.Info().Msgf("Loaded config: %v, exPath: %v", cfg.SanitizedSettings(), exPath)
	cfg.AdjustRelativePaths(exPath)

	if cfg.GetBool("debug") {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	idleConnsClosed := make(chan struct{})
	sig := make(chan os.Signal, 1)
	go func() {
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Info().Msg("got quit signal...")
		close(idleConnsClosed)
	}()

	b, err := bot.NewBot(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("could not create bot")
	}
	go bot.Main("tetryon.bot", b)

	<-idleConnsClosed
	log.Info().Msg("server gracefully shutting down")
}
