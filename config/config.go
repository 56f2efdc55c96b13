package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	ConfigWordList              = "word-list"
	ConfigOpener                = "opener"
	ConfigThreads               = "threads"
	ConfigSolverThreads         = "solver-threads"
	ConfigCacheIn               = "cache-in"
	ConfigCacheOut              = "cache-out"
	ConfigCacheOutUpdates       = "cache-out-updates"
	ConfigCacheMinSetSize       = "cache-min-set-size"
	ConfigCacheMaxSetSize       = "cache-max-set-size"
	ConfigCacheMemoryFraction   = "cache-memory-fraction"
	ConfigShareCache            = "share-cache"
	ConfigVerifyCache           = "verify-cache"
	ConfigShuffleOpeners        = "shuffle-openers"
	ConfigTimeBudget            = "time-budget"
	ConfigFeedbackTableMaxWords = "feedback-table-max-words"
	ConfigHistogram             = "histogram"
	ConfigHistogramWidth        = "histogram-width"
	ConfigTop                   = "top"
	ConfigOutput                = "output"
	ConfigProgress              = "progress"
	ConfigDebug                 = "debug"
	ConfigCPUProfile            = "cpu-profile"
	ConfigMemProfile            = "mem-profile"
	ConfigNatsURL               = "nats-url"
	ConfigNatsSubject           = "nats-subject"
	ConfigNatsQueue             = "nats-queue"
	ConfigRequestTimeout        = "request-timeout"
	ConfigRequestAttempts       = "request-attempts"
	ConfigDistributed           = "distributed"
	ConfigConfigFile            = "config"
)

const EnvPrefix = "WORDLE_BRUTE"

// Config is every setting, from (in increasing priority) defaults, a
// config file, the environment, flags and positional arguments.
type Config struct {
	viper.Viper
	flags *pflag.FlagSet
}

func flagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.String(ConfigWordList, "", "file of candidate words, one per line")
	fs.StringSlice(ConfigOpener, nil, "openers to score (default: every word)")
	fs.Int(ConfigThreads, runtime.NumCPU(), "openers scored at once")
	fs.Int(ConfigSolverThreads, 1, "threads inside each opener's search")
	fs.StringSlice(ConfigCacheIn, nil, "cache files to warm start from (.gob, .db)")
	fs.String(ConfigCacheOut, "", "save every cache entry to this file")
	fs.String(ConfigCacheOutUpdates, "", "save only entries not loaded from cache-in to this file")
	fs.Int(ConfigCacheMinSetSize, 3, "smallest candidate set worth caching")
	fs.Int(ConfigCacheMaxSetSize, 0, "largest candidate set worth caching (0: no limit)")
	fs.Float64(ConfigCacheMemoryFraction, 0, "share of system memory each cache may use (0: no limit)")
	fs.Bool(ConfigShareCache, false, "all workers share one cache")
	fs.Bool(ConfigVerifyCache, false, "recompute and compare entries loaded from cache-in (on by default when cache-in is set; off, only their structure is checked)")
	fs.Bool(ConfigShuffleOpeners, true, "score openers in random order")
	fs.Duration(ConfigTimeBudget, 0, "stop starting new openers after this long (0: no limit)")
	fs.Int(ConfigFeedbackTableMaxWords, 20000, "above this many words, compute feedback on demand")
	fs.Bool(ConfigHistogram, false, "draw the best opener's guess histogram")
	fs.Int(ConfigHistogramWidth, 72, "histogram width")
	fs.Int(ConfigTop, 1, "how many openers to print")
	fs.String(ConfigOutput, "", "write a report (.yaml, .parquet)")
	fs.Bool(ConfigProgress, true, "show a progress bar")
	fs.Bool(ConfigDebug, false, "debug logging")
	fs.String(ConfigCPUProfile, "", "write a CPU profile")
	fs.String(ConfigMemProfile, "", "write a memory profile")
	fs.String(ConfigNatsURL, "nats://localhost:4222", "NATS server")
	fs.String(ConfigNatsSubject, "wordle.solve", "NATS subject for solve requests")
	fs.String(ConfigNatsQueue, "wordle-solvers", "NATS queue group for workers")
	fs.Duration(ConfigRequestTimeout, 0, "timeout for a single remote request (0: 10m)")
	fs.Uint(ConfigRequestAttempts, 3, "attempts per remote request")
	fs.Bool(ConfigDistributed, false, "send openers to remote workers over NATS")
	fs.String(ConfigConfigFile, "", "YAML config file")
	return fs
}

// DefaultConfig is a config with only defaults.
func DefaultConfig() *Config {
	c := &Config{}
	if err := c.Load(nil); err != nil {
		panic(err)
	}
	return c
}

// Load parses args: flags, then an optional word list and openers.
func (c *Config) Load(args []string) error {
	c.Viper = *viper.New()
	c.flags = flagSet("wordle-brute")
	if err := c.flags.Parse(args); err != nil {
		return err
	}
	if err := c.BindPFlags(c.flags); err != nil {
		return err
	}
	c.SetEnvPrefix(EnvPrefix)
	c.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.AutomaticEnv()

	if path := c.GetString(ConfigConfigFile); path != "" {
		c.SetConfigFile(path)
		if err := c.ReadInConfig(); err != nil {
			return err
		}
	}

	pos := c.flags.Args()
	if len(pos) > 0 {
		c.Set(ConfigWordList, pos[0])
	}
	if len(pos) > 1 {
		c.Set(ConfigOpener, pos[1:])
	}
	// loaded caches are checked unless the user says otherwise
	if len(c.GetStringSlice(ConfigCacheIn)) > 0 && !c.IsSet(ConfigVerifyCache) {
		c.Set(ConfigVerifyCache, true)
	}
	return nil
}

// Usage describes the flags.
func (c *Config) Usage() string {
	if c.flags == nil {
		return ""
	}
	return c.flags.FlagUsages()
}

// SanitizedSettings is every setting, safe to log.
func (c *Config) SanitizedSettings() map[string]any {
	settings := c.AllSettings()
	if u, ok := settings[ConfigNatsURL].(string); ok {
		if at := strings.LastIndex(u, "@"); at >= 0 {
			if scheme := strings.Index(u, "://"); scheme >= 0 && scheme < at {
				settings[ConfigNatsURL] = u[:scheme+3] + "****" + u[at:]
			}
		}
	}
	return settings
}

// AdjustRelativePaths resolves relative file settings against basepath
// when they do not exist relative to the working directory.
func (c *Config) AdjustRelativePaths(basepath string) {
	adjust := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		if _, err := os.Stat(p); err == nil {
			return p
		}
		return filepath.Join(basepath, p)
	}
	c.Set(ConfigWordList, adjust(c.GetString(ConfigWordList)))
	in := c.GetStringSlice(ConfigCacheIn)
	for i := range in {
		in[i] = adjust(in[i])
	}
	c.Set(ConfigCacheIn, in)
}
