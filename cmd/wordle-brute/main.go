package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"
	"strings"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/sethoscope/wordle-brute/config"
	"github.com/sethoscope/wordle-brute/distributed"
	"github.com/sethoscope/wordle-brute/lexicon"
	"github.com/sethoscope/wordle-brute/orchestrator"
	"github.com/sethoscope/wordle-brute/persist"
	"github.com/sethoscope/wordle-brute/report"
	"github.com/sethoscope/wordle-brute/subtree"
)

var (
	GitVersion string
)

const defaultRequestTimeout = 10 * time.Minute

func setupLogging(debug bool) {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	output.FormatLevel = func(i interface{}) string {
		return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
	}
	output.FormatMessage = func(i interface{}) string {
		return fmt.Sprintf("%s", i)
	}
	output.FormatFieldName = func(i interface{}) string {
		return fmt.Sprintf("%s:", i)
	}
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	logger := zerolog.New(output).Level(level).With().Timestamp().Logger()
	zerolog.DefaultContextLogger = &logger
	log.Logger = logger
}

func main() {
	cfg := &config.Config{}
	if err := cfg.Load(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			fmt.Fprint(os.Stderr, "usage: wordle-brute [flags] <wordfile> [opener...]\n\n"+cfg.Usage())
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	setupLogging(cfg.GetBool(config.ConfigDebug))
	log.Debug().Interface("config", cfg.SanitizedSettings()).Str("version", GitVersion).Msg("loaded-config")

	if cfg.GetString(config.ConfigWordList) == "" {
		fmt.Fprint(os.Stderr, "usage: wordle-brute [flags] <wordfile> [opener...]\n\n"+cfg.Usage())
		os.Exit(2)
	}

	if path := cfg.GetString(config.ConfigCPUProfile); path != "" {
		f, err := os.Create(path)
		if err != nil {
			panic("could not create CPU profile: " + err.Error())
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			panic("could not start CPU profile: " + err.Error())
		}
		defer pprof.StopCPUProfile()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Error().Err(err).Msg("wordle-brute-failed")
		pprof.StopCPUProfile()
		os.Exit(1)
	}

	if path := cfg.GetString(config.ConfigMemProfile); path != "" {
		f, err := os.Create(path)
		if err != nil {
			panic("could not create memory profile: " + err.Error())
		}
		defer f.Close()
		memstats := &runtime.MemStats{}
		runtime.ReadMemStats(memstats)
		log.Info().Interface("memstats", memstats).Msg("memory-stats")
		if err := pprof.WriteHeapProfile(f); err != nil {
			panic("could not write memory profile: " + err.Error())
		}
		log.Info().Msg("wrote memory profile")
	}
}

func policyFrom(cfg *config.Config) subtree.Policy {
	return subtree.Policy{
		MinSetSize:     cfg.GetInt(config.ConfigCacheMinSetSize),
		MaxSetSize:     cfg.GetInt(config.ConfigCacheMaxSetSize),
		MemoryFraction: cfg.GetFloat64(config.ConfigCacheMemoryFraction),
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	lex, err := lexicon.Load(cfg.GetString(config.ConfigWordList))
	if err != nil {
		return err
	}
	openers := cfg.GetStringSlice(config.ConfigOpener)

	var summary *orchestrator.Summary
	if cfg.GetBool(config.ConfigDistributed) {
		summary, err = runDistributed(ctx, cfg, lex, openers)
	} else {
		summary, err = runLocal(ctx, cfg, lex, openers)
	}
	if err != nil {
		return err
	}

	top := summary.Results
	if n := cfg.GetInt(config.ConfigTop); n > 0 && n < len(top) {
		top = top[:n]
	}
	if err := report.WriteLines(os.Stdout, top); err != nil {
		return err
	}
	if cfg.GetBool(config.ConfigHistogram) {
		if err := report.WriteTable(os.Stdout, summary, cfg.GetInt(config.ConfigTop)); err != nil {
			return err
		}
		if best, ok := summary.Best(); ok {
			if err := report.WriteHistogram(os.Stdout, best.Histogram, cfg.GetInt(config.ConfigHistogramWidth)); err != nil {
				return err
			}
		}
	}
	if path := cfg.GetString(config.ConfigOutput); path != "" {
		if err := report.WriteFile(path, summary); err != nil {
			return err
		}
		log.Info().Str("path", path).Msg("wrote-report")
	}
	return saveCaches(cfg, lex, summary)
}

func runLocal(ctx context.Context, cfg *config.Config, lex *lexicon.Lexicon, openers []string) (*orchestrator.Summary, error) {
	ocfg := orchestrator.Config{
		Openers:               openers,
		Threads:               cfg.GetInt(config.ConfigThreads),
		SolverThreads:         cfg.GetInt(config.ConfigSolverThreads),
		Policy:                policyFrom(cfg),
		ShareCache:            cfg.GetBool(config.ConfigShareCache),
		VerifyWarm:            cfg.GetBool(config.ConfigVerifyCache),
		Shuffle:               cfg.GetBool(config.ConfigShuffleOpeners),
		Budget:                cfg.GetDuration(config.ConfigTimeBudget),
		FeedbackTableMaxWords: cfg.GetInt(config.ConfigFeedbackTableMaxWords),
		Progress:              cfg.GetBool(config.ConfigProgress),
	}
	r, err := orchestrator.NewRunner(ctx, lex, ocfg)
	if err != nil {
		return nil, err
	}
	if paths := cfg.GetStringSlice(config.ConfigCacheIn); len(paths) > 0 {
		base, err := persist.LoadTable(lex, paths, r.Zobrist().Hash, ocfg.Policy)
		if err != nil {
			return nil, err
		}
		ocfg.Base = base
		r = orchestrator.NewRunnerWith(lex, r.Source(), r.Zobrist(), ocfg)
	}
	summary, err := r.Run(ctx)
	if err != nil {
		return nil, err
	}
	if summary.Mismatches > 0 {
		log.Warn().Uint64("mismatches", summary.Mismatches).Msg("cache-in-had-wrong-entries")
	}
	return summary, nil
}

// localOnly lists the set settings that only apply to a local run.
func localOnly(cfg *config.Config) []string {
	var keys []string
	if cfg.GetDuration(config.ConfigTimeBudget) > 0 {
		keys = append(keys, config.ConfigTimeBudget)
	}
	if len(cfg.GetStringSlice(config.ConfigCacheIn)) > 0 {
		keys = append(keys, config.ConfigCacheIn)
	}
	if cfg.GetBool(config.ConfigVerifyCache) {
		keys = append(keys, config.ConfigVerifyCache)
	}
	if cfg.GetBool(config.ConfigShareCache) {
		keys = append(keys, config.ConfigShareCache)
	}
	return keys
}

func runDistributed(ctx context.Context, cfg *config.Config, lex *lexicon.Lexicon, openers []string) (*orchestrator.Summary, error) {
	if ignored := localOnly(cfg); len(ignored) > 0 {
		log.Warn().Strs("settings", ignored).Msg("ignored-in-distributed-mode")
	}
	nc, err := nats.Connect(cfg.GetString(config.ConfigNatsURL))
	if err != nil {
		return nil, err
	}
	defer nc.Close()

	timeout := cfg.GetDuration(config.ConfigRequestTimeout)
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	d := distributed.NewDispatcher(nc, distributed.DispatcherConfig{
		Subject:       cfg.GetString(config.ConfigNatsSubject),
		Timeout:       timeout,
		Attempts:      cfg.GetUint(config.ConfigRequestAttempts),
		Parallel:      cfg.GetInt(config.ConfigThreads),
		Batch:         1,
		SolverThreads: cfg.GetInt(config.ConfigSolverThreads),
		Progress:      cfg.GetBool(config.ConfigProgress),
	})
	if len(openers) == 0 {
		openers = lex.Words()
	}
	return d.Run(ctx, lex, openers)
}

func saveCaches(cfg *config.Config, lex *lexicon.Lexicon, summary *orchestrator.Summary) error {
	save := func(path string, includeBase bool) error {
		if path == "" {
			return nil
		}
		records := summary.Records(includeBase)
		if len(records) == 0 && cfg.GetBool(config.ConfigDistributed) {
			log.Warn().Str("path", path).Msg("remote-runs-leave-no-local-cache")
			return nil
		}
		if err := persist.SaveFile(lex, path, records); err != nil {
			return err
		}
		log.Info().Int("records", len(records)).Str("path", path).Msg("saved-cache")
		return nil
	}
	if err := save(cfg.GetString(config.ConfigCacheOut), true); err != nil {
		return err
	}
	return save(cfg.GetString(config.ConfigCacheOutUpdates), false)
}
