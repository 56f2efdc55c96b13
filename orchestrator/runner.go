// Package orchestrator scores many openers, each on its own worker with its
// own solver, and collects the results.
package orchestrator

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/schollz/progressbar/v3"
	"gonum.org/v1/gonum/stat"
	"lukechampine.com/frand"

	"github.com/sethoscope/wordle-brute/candidates"
	"github.com/sethoscope/wordle-brute/feedback"
	"github.com/sethoscope/wordle-brute/lexicon"
	"github.com/sethoscope/wordle-brute/solver"
	"github.com/sethoscope/wordle-brute/subtree"
	"github.com/sethoscope/wordle-brute/zobrist"
)

var (
	ErrUnknownOpener = errors.New("opener is not in the word list")
)

type Config struct {
	// Openers to score; empty means every word.
	Openers []string
	// Threads is the number of workers. 0 means one per CPU.
	Threads int
	// SolverThreads parallelizes inside each opener.
	SolverThreads int
	Policy        subtree.Policy
	// Base is a preloaded, read-only cache shared by all workers.
	Base *subtree.Table
	// ShareCache gives every worker the same table instead of one each.
	ShareCache bool
	VerifyWarm bool
	Shuffle    bool
	// Budget stops queueing new openers once it has elapsed. 0 means no
	// limit.
	Budget                time.Duration
	FeedbackTableMaxWords int
	Progress              bool
}

// Result is how well one opener does.
type Result struct {
	Opener       string
	Guess        int
	TotalGuesses int
	Average      float64
	StdDev       float64
	Histogram    []int
	Nodes        uint64
	Elapsed      time.Duration
}

func (r Result) MaxGuesses() int {
	return subtree.Entry{Histogram: r.Histogram}.MaxGuesses()
}

type Summary struct {
	Lexicon  string
	NumWords int
	// Results are sorted best first.
	Results []Result
	// Complete is false when the budget ran out before every opener was
	// scored.
	Complete   bool
	Elapsed    time.Duration
	Mismatches uint64
	tables     []*subtree.Table
}

// Best is the opener with the fewest total guesses.
func (s *Summary) Best() (Result, bool) {
	if len(s.Results) == 0 {
		return Result{}, false
	}
	return MinBy(s.Results, func(r Result) int { return r.TotalGuesses }), true
}

// Records merges every worker's cache. Local entries come first, so an
// entry a worker recomputed replaces the base entry it shadows.
// Duplicate local entries are identical by construction.
func (s *Summary) Records(includeBase bool) []subtree.Record {
	seen := map[string]bool{}
	var out []subtree.Record
	add := func(records []subtree.Record) {
		for _, r := range records {
			k := subtree.Key(r.Members)
			if !seen[k] {
				seen[k] = true
				out = append(out, r)
			}
		}
	}
	var bases []*subtree.Table
	for _, t := range s.tables {
		add(t.Records(false))
		if b := t.Base(); b != nil && !slices.Contains(bases, b) {
			bases = append(bases, b)
		}
	}
	if includeBase {
		for _, b := range bases {
			add(b.Records(true))
		}
	}
	return out
}

// CacheStats sums the workers' cache counters.
func (s *Summary) CacheStats() subtree.Stats {
	var total subtree.Stats
	for _, t := range s.tables {
		st := t.Stats()
		total.Entries += st.Entries
		total.BytesUsed += st.BytesUsed
		total.Lookups += st.Lookups
		total.Hits += st.Hits
		total.BaseHits += st.BaseHits
		total.Stores += st.Stores
		total.Rejected += st.Rejected
		total.Collisions += st.Collisions
	}
	return total
}

type Runner struct {
	lex *lexicon.Lexicon
	cfg Config
	src feedback.Source
	z   *zobrist.Zobrist
}

// NewRunner precomputes what every worker shares: the feedback source and
// the zobrist keys.
func NewRunner(ctx context.Context, lex *lexicon.Lexicon, cfg Config) (*Runner, error) {
	if cfg.Threads < 1 {
		cfg.Threads = runtime.NumCPU()
	}
	cfg.SolverThreads = max(1, cfg.SolverThreads)
	src, err := feedback.NewSource(ctx, lex.MachineWords(), cfg.Threads, cfg.FeedbackTableMaxWords)
	if err != nil {
		return nil, err
	}
	z := &zobrist.Zobrist{}
	z.Initialize(lex.Len())
	return &Runner{lex: lex, cfg: cfg, src: src, z: z}, nil
}

// NewRunnerWith reuses an already built feedback source and keys.
func NewRunnerWith(lex *lexicon.Lexicon, src feedback.Source, z *zobrist.Zobrist, cfg Config) *Runner {
	if cfg.Threads < 1 {
		cfg.Threads = runtime.NumCPU()
	}
	cfg.SolverThreads = max(1, cfg.SolverThreads)
	return &Runner{lex: lex, cfg: cfg, src: src, z: z}
}

func (r *Runner) Lexicon() *lexicon.Lexicon { return r.lex }
func (r *Runner) Source() feedback.Source   { return r.src }
func (r *Runner) Zobrist() *zobrist.Zobrist { return r.z }
func (r *Runner) Config() Config            { return r.cfg }

// Full is the starting candidate set.
func (r *Runner) Full() candidates.Set {
	return candidates.Full(r.z, r.lex.Len())
}

// Openers resolves the configured openers to word indices.
func (r *Runner) Openers() ([]int, error) {
	if len(r.cfg.Openers) == 0 {
		return lo.Range(r.lex.Len()), nil
	}
	idx := make([]int, 0, len(r.cfg.Openers))
	for _, o := range r.cfg.Openers {
		i, ok := r.lex.Index(o)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownOpener, o)
		}
		idx = append(idx, i)
	}
	return lo.Uniq(idx), nil
}

// NewTable makes a cache layer with the configured policy over the
// configured base.
func (r *Runner) NewTable() *subtree.Table {
	return subtree.NewTable(r.cfg.Policy, r.cfg.Base)
}

// NewSolver makes a solver over table configured like the runner's
// workers.
func (r *Runner) NewSolver(table *subtree.Table) *solver.Solver {
	s := solver.New(r.src, r.z, table)
	s.SetThreads(r.cfg.SolverThreads)
	s.SetVerifyWarm(r.cfg.VerifyWarm)
	s.SetWordNames(r.lex.Word)
	return s
}

// SolveOpener scores a single opener with the given solver.
func (r *Runner) SolveOpener(s *solver.Solver, opener string) (Result, error) {
	i, ok := r.lex.Index(opener)
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownOpener, opener)
	}
	return r.evaluate(s, i), nil
}

func (r *Runner) evaluate(s *solver.Solver, guess int) Result {
	tstart := time.Now()
	nodes := s.Nodes()
	e := s.Evaluate(r.Full(), guess)
	return NewResult(r.lex.Word(guess), guess, e, s.Nodes()-nodes, time.Since(tstart))
}

// NewResult summarizes the entry for an opener.
func NewResult(opener string, guess int, e subtree.Entry, nodes uint64, elapsed time.Duration) Result {
	x := make([]float64, len(e.Histogram))
	w := make([]float64, len(e.Histogram))
	for k, c := range e.Histogram {
		x[k], w[k] = float64(k), float64(c)
	}
	_, std := stat.PopMeanStdDev(x, w)
	return Result{
		Opener:       opener,
		Guess:        guess,
		TotalGuesses: e.TotalGuesses,
		Average:      e.Average(),
		StdDev:       std,
		Histogram:    e.Histogram,
		Nodes:        nodes,
		Elapsed:      elapsed,
	}
}

// SortResults orders by total guesses, then by opener.
func SortResults(results []Result) {
	slices.SortFunc(results, func(a, b Result) int {
		return cmp.Or(cmp.Compare(a.TotalGuesses, b.TotalGuesses), cmp.Compare(a.Opener, b.Opener))
	})
}

// Run scores every opener. Cancelling ctx, or running out of budget, stops
// new openers from being queued; openers already started finish.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	openers, err := r.Openers()
	if err != nil {
		return nil, err
	}
	if r.cfg.Shuffle {
		frand.Shuffle(len(openers), func(i, j int) {
			openers[i], openers[j] = openers[j], openers[i]
		})
	}
	if r.cfg.Budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Budget)
		defer cancel()
	}
	threads := min(r.cfg.Threads, len(openers))
	log.Info().Int("num-openers", len(openers)).Int("threads", threads).
		Int("solver-threads", r.cfg.SolverThreads).
		Int("num-words", r.lex.Len()).Msg("starting-run")

	var bar *progressbar.ProgressBar
	if r.cfg.Progress {
		bar = progressbar.Default(int64(len(openers)), "openers")
	} else {
		bar = progressbar.DefaultSilent(int64(len(openers)))
	}

	summary := &Summary{Lexicon: r.lex.Name(), NumWords: r.lex.Len(), Complete: true}
	var shared *subtree.Table
	if r.cfg.ShareCache {
		shared = r.NewTable()
		summary.tables = append(summary.tables, shared)
	}

	tstart := time.Now()
	jobs := make(chan int, threads)
	results := make(chan Result, threads)
	var wg sync.WaitGroup
	var mu sync.Mutex
	wg.Add(threads)
	for i := 0; i < threads; i++ {
		table := shared
		if table == nil {
			table = r.NewTable()
			summary.tables = append(summary.tables, table)
		}
		go func() {
			defer wg.Done()
			s := r.NewSolver(table)
			for guess := range jobs {
				results <- r.evaluate(s, guess)
			}
			mu.Lock()
			summary.Mismatches += s.Mismatches()
			mu.Unlock()
		}()
	}

	go func() {
	queueLoop:
		for i, guess := range openers {
			if ctx.Err() == nil {
				select {
				case <-ctx.Done():
				case jobs <- guess:
					continue
				}
			}
			log.Info().Int("queued", i).Int("num-openers", len(openers)).
				Msg("stopped-queueing")
			break queueLoop
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	for res := range results {
		summary.Results = append(summary.Results, res)
		bar.Add(1)
		log.Debug().Str("opener", res.Opener).Int("total-guesses", res.TotalGuesses).
			Float64("average", res.Average).Uint64("nodes", res.Nodes).
			Float64("time-elapsed-sec", res.Elapsed.Seconds()).Msg("opener-scored")
	}
	bar.Finish()
	summary.Elapsed = time.Since(tstart)
	summary.Complete = len(summary.Results) == len(openers)
	SortResults(summary.Results)
	log.Info().Int("scored", len(summary.Results)).Bool("complete", summary.Complete).
		Float64("time-elapsed-sec", summary.Elapsed.Seconds()).Msg("run-finished")
	return summary, nil
}
