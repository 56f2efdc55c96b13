package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sethoscope/wordle-brute/config"
	"github.com/sethoscope/wordle-brute/distributed"
	"github.com/sethoscope/wordle-brute/subtree"
)

var cfg *config.Config
var nc *nats.Conn
var handler *distributed.Handler

func newHandler(cfg *config.Config) *distributed.Handler {
	return distributed.NewHandler(subtree.Policy{
		MinSetSize:     cfg.GetInt(config.ConfigCacheMinSetSize),
		MaxSetSize:     cfg.GetInt(config.ConfigCacheMaxSetSize),
		MemoryFraction: cfg.GetFloat64(config.ConfigCacheMemoryFraction),
	}, cfg.GetInt(config.ConfigThreads))
}

// HandleRequest scores the event's openers. A warm Lambda container
// keeps its handler, so repeated word lists reuse their caches.
func HandleRequest(ctx context.Context, evt distributed.LambdaEvent) (distributed.SolveResponse, error) {
	if handler == nil {
		handler = newHandler(cfg)
	}
	var requester distributed.Requester
	if nc != nil {
		requester = nc
	}
	return handler.HandleLambda(ctx, requester, evt)
}

func main() {
	ex, err := os.Executable()
	if err != nil {
		panic(err)
	}
	exPath := filepath.Dir(ex)

	cfg = &config.Config{}
	if err := cfg.Load(os.Args[1:]); err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	log.Info().Interface("config", cfg.SanitizedSettings()).Msg("loaded-config")
	cfg.AdjustRelativePaths(exPath)
	if cfg.GetBool(config.ConfigDebug) {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if url := cfg.GetString(config.ConfigNatsURL); url != "" {
		nc, err = nats.Connect(url)
		if err != nil {
			log.Fatal().AnErr("natsConnectErr", err).Msg(":(")
		}
	}

	lambda.Start(HandleRequest)
}
