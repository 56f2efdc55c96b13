package main

import (
	"testing"

	"github.com/matryer/is"

	"github.com/sethoscope/wordle-brute/config"
)

func TestLocalOnly(t *testing.T) {
	is := is.New(t)
	cfg := &config.Config{}
	is.NoErr(cfg.Load([]string{"--distributed", "words.txt"}))
	is.Equal(len(localOnly(cfg)), 0)

	cfg = &config.Config{}
	is.NoErr(cfg.Load([]string{"--distributed", "--time-budget", "1m",
		"--cache-in", "a.gob", "--verify-cache", "words.txt"}))
	is.Equal(localOnly(cfg), []string{config.ConfigTimeBudget, config.ConfigCacheIn, config.ConfigVerifyCache})
}
