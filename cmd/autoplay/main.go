package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/setpieces/tetryon/automatic"
	"github.com/setpieces/tetryon/config"
)

var (
	numGames  = flag.Int("numgames", 100, "number of games to play")
	threads   = flag.Int("threads", 0, "worker count; 0 uses one worker")
	preset    = flag.String("preset", "", "difficulty preset; empty uses the configured default")
	compare   = flag.String("compare", "", "second preset to replay every seed against")
	maxTurns  = flag.Int("maxturns", 400, "turn cap per game")
	logFile   = flag.String("logfile", "", "CSV turn log path")
	storePath = flag.String("store", "", "sqlite game store path")
	seedsFile = flag.String("seeds", "", "seed file from a previous run")
	histBins  = flag.Int("bins", 10, "score histogram bin count")
	debug     = flag.Bool("debug", false, "debug logging")
)

func main() {
	flag.Parse()

	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	cfg := &config.Config{}
	if err := cfg.Load(flag.Args()); err != nil {
		log.Fatal().Err(err).Msg("could not load config")
	}

	opts := automatic.Options{
		NumGames:      *numGames,
		Threads:       *threads,
		Preset:        *preset,
		ComparePreset: *compare,
		MaxTurns:      *maxTurns,
		LogFilename:   *logFile,
		StorePath:     *storePath,
	}
	if *seedsFile != "" {
		seeds, err := automatic.LoadSeeds(*seedsFile)
		if err != nil {
			log.Fatal().Err(err).Msg("could not load seeds")
		}
		opts.Seeds = seeds
	}

	ctx, cancel := context.WithCancel(context.Background())
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info().Msg("got quit signal, stopping after in-flight games...")
		cancel()
	}()

	summary, err := automatic.RunBatch(ctx, cfg, opts)
	if err != nil {
		log.Fatal().Err(err).Msg("batch failed")
	}
	fmt.Print(summary.String())

	for name := range summary.ByPreset {
		hist, err := summary.ScoreHistogram(name, *histBins)
		if err != nil {
			log.Err(err).Str("preset", name).Msg("histogram-failed")
			continue
		}
		fmt.Printf("\nscores (%s):\n%s", name, hist)
	}
}
