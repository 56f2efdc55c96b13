package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sethoscope/wordle-brute/config"
	"github.com/sethoscope/wordle-brute/distributed"
	"github.com/sethoscope/wordle-brute/subtree"
)

func main() {
	cfg := config.DefaultConfig()
	if err := cfg.Load(os.Args[1:]); err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.GetBool(config.ConfigDebug) {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	log.Info().Interface("config", cfg.SanitizedSettings()).Msg("loaded-config")

	nc, err := nats.Connect(cfg.GetString(config.ConfigNatsURL), nats.Name("wordle-brute-worker"))
	if err != nil {
		log.Fatal().Err(err).Msg("nats-connect-failed")
	}
	defer nc.Close()

	h := distributed.NewHandler(subtree.Policy{
		MinSetSize:     cfg.GetInt(config.ConfigCacheMinSetSize),
		MaxSetSize:     cfg.GetInt(config.ConfigCacheMaxSetSize),
		MemoryFraction: cfg.GetFloat64(config.ConfigCacheMemoryFraction),
	}, cfg.GetInt(config.ConfigThreads))
	w := distributed.NewWorker(nc, h,
		cfg.GetString(config.ConfigNatsSubject), cfg.GetString(config.ConfigNatsQueue))
	if err := w.Start(); err != nil {
		log.Fatal().Err(err).Msg("worker-start-failed")
	}
	log.Info().Str("subject", cfg.GetString(config.ConfigNatsSubject)).
		Str("queue", cfg.GetString(config.ConfigNatsQueue)).Msg("solver-worker-started")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Info().Msg("received shutdown signal")
	if err := w.Stop(); err != nil {
		log.Err(err).Msg("worker-drain-failed")
	}
	log.Info().Msg("solver worker stopped")
}
