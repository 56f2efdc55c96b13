package orchestrator

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"
	"lukechampine.com/frand"

	"github.com/sethoscope/wordle-brute/candidates"
	"github.com/sethoscope/wordle-brute/lexicon"
	"github.com/sethoscope/wordle-brute/subtree"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

func randomLexicon(t *testing.T, n int) *lexicon.Lexicon {
	t.Helper()
	letters := []byte("abcdef")
	seen := map[string]bool{}
	var words []string
	for len(words) < n {
		b := make([]byte, 4)
		for i := range b {
			b[i] = letters[frand.Intn(len(letters))]
		}
		if !seen[string(b)] {
			seen[string(b)] = true
			words = append(words, string(b))
		}
	}
	lex, err := lexicon.New("test", words)
	if err != nil {
		t.Fatal(err)
	}
	return lex
}

func run(t *testing.T, lex *lexicon.Lexicon, cfg Config) (*Runner, *Summary) {
	t.Helper()
	r, err := NewRunner(context.Background(), lex, cfg)
	if err != nil {
		t.Fatal(err)
	}
	summary, err := r.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	return r, summary
}

func TestRunAllOpeners(t *testing.T) {
	is := is.New(t)
	lex := randomLexicon(t, 30)
	r, summary := run(t, lex, Config{Threads: 3, Policy: subtree.DefaultPolicy(), Shuffle: true})
	is.True(summary.Complete)
	is.Equal(len(summary.Results), lex.Len())
	for i := 1; i < len(summary.Results); i++ {
		a, b := summary.Results[i-1], summary.Results[i]
		is.True(a.TotalGuesses < b.TotalGuesses ||
			(a.TotalGuesses == b.TotalGuesses && a.Opener < b.Opener))
	}

	s := r.NewSolver(r.NewTable())
	opt := s.Solve(r.Full())
	best, ok := summary.Best()
	is.True(ok)
	is.Equal(best.TotalGuesses, opt.TotalGuesses)
	is.Equal(best.Opener, lex.Word(opt.BestGuess))
	is.Equal(best, summary.Results[0])

	for _, res := range summary.Results {
		want, err := r.SolveOpener(s, res.Opener)
		is.NoErr(err)
		is.Equal(want.TotalGuesses, res.TotalGuesses)
		is.Equal(want.Histogram, res.Histogram)
	}
	is.True(len(summary.Records(false)) > 0)
}

func TestUnknownOpener(t *testing.T) {
	is := is.New(t)
	lex := randomLexicon(t, 10)
	r, err := NewRunner(context.Background(), lex, Config{Openers: []string{lex.Word(0), "zzzz"}})
	is.NoErr(err)
	_, err = r.Run(context.Background())
	is.True(errors.Is(err, ErrUnknownOpener))
	_, err = r.SolveOpener(r.NewSolver(r.NewTable()), "zzzz")
	is.True(errors.Is(err, ErrUnknownOpener))
}

func TestStatistics(t *testing.T) {
	is := is.New(t)
	lex, err := lexicon.New("pair", []string{"abce", "abcd"})
	is.NoErr(err)
	_, summary := run(t, lex, Config{Openers: []string{"abcd"}})
	is.Equal(len(summary.Results), 1)
	res := summary.Results[0]
	is.Equal(res.TotalGuesses, 3)
	is.Equal(res.Average, 1.5)
	is.Equal(res.StdDev, 0.5)
	is.Equal(res.MaxGuesses(), 2)
}

func TestWarmStartMatchesCold(t *testing.T) {
	is := is.New(t)
	lex := randomLexicon(t, 40)
	r, cold := run(t, lex, Config{Threads: 2, Policy: subtree.DefaultPolicy()})

	base := subtree.NewTable(subtree.DefaultPolicy(), nil)
	base.Load(cold.Records(false), r.Zobrist().Hash)
	warmRunner := NewRunnerWith(lex, r.Source(), r.Zobrist(),
		Config{Threads: 2, Policy: subtree.DefaultPolicy(), Base: base, VerifyWarm: true})
	warm, err := warmRunner.Run(context.Background())
	is.NoErr(err)
	is.Equal(len(warm.Results), len(cold.Results))
	for i := range cold.Results {
		is.Equal(warm.Results[i].Opener, cold.Results[i].Opener)
		is.Equal(warm.Results[i].TotalGuesses, cold.Results[i].TotalGuesses)
	}
	is.Equal(warm.Mismatches, uint64(0))

	shared := NewRunnerWith(lex, r.Source(), r.Zobrist(),
		Config{Threads: 3, Policy: subtree.DefaultPolicy(), Base: base, ShareCache: true})
	summary, err := shared.Run(context.Background())
	is.NoErr(err)
	is.Equal(summary.Results[0].TotalGuesses, cold.Results[0].TotalGuesses)
	is.True(summary.CacheStats().BaseHits > 0)
}

func TestRecordsPreferRecomputedEntries(t *testing.T) {
	is := is.New(t)
	lex := randomLexicon(t, 10)
	r, err := NewRunner(context.Background(), lex, Config{Threads: 1, Policy: subtree.DefaultPolicy()})
	is.NoErr(err)
	set := candidates.New(r.Zobrist(), []int{0, 1, 2})
	want := r.NewSolver(r.NewTable()).Solve(set)

	stale := want
	stale.TotalGuesses++
	base := subtree.NewTable(subtree.DefaultPolicy(), nil)
	base.Load([]subtree.Record{{Members: set.Members(), Entry: stale}}, r.Zobrist().Hash)

	// only the second worker has seen, and corrected, the entry
	t0 := subtree.NewTable(subtree.DefaultPolicy(), base)
	t1 := subtree.NewTable(subtree.DefaultPolicy(), base)
	t1.Override(set, want)

	summary := &Summary{tables: []*subtree.Table{t0, t1}}
	records := summary.Records(true)
	is.Equal(len(records), 1)
	is.True(records[0].Entry.Equal(want))

	summary = &Summary{tables: []*subtree.Table{t1, t0}}
	records = summary.Records(true)
	is.Equal(len(records), 1)
	is.True(records[0].Entry.Equal(want))

	summary = &Summary{tables: []*subtree.Table{t0}}
	records = summary.Records(true)
	is.Equal(len(records), 1)
	is.Equal(records[0].Entry.TotalGuesses, stale.TotalGuesses)
	is.Equal(len(summary.Records(false)), 0)
}

func TestVerifiedRunSavesCorrectedEntries(t *testing.T) {
	is := is.New(t)
	lex := randomLexicon(t, 40)
	r, cold := run(t, lex, Config{Threads: 2, Policy: subtree.DefaultPolicy()})

	records := cold.Records(false)
	is.True(len(records) > 0)
	for i := range records {
		records[i].Entry.TotalGuesses++
	}
	base := subtree.NewTable(subtree.DefaultPolicy(), nil)
	base.Load(records, r.Zobrist().Hash)

	warmRunner := NewRunnerWith(lex, r.Source(), r.Zobrist(),
		Config{Threads: 2, Policy: subtree.DefaultPolicy(), Base: base, VerifyWarm: true})
	warm, err := warmRunner.Run(context.Background())
	is.NoErr(err)
	is.True(warm.Mismatches > 0)
	for i := range cold.Results {
		is.Equal(warm.Results[i].Opener, cold.Results[i].Opener)
		is.Equal(warm.Results[i].TotalGuesses, cold.Results[i].TotalGuesses)
	}

	check := r.NewSolver(r.NewTable())
	saved := warm.Records(true)
	is.True(len(saved) >= len(records))
	for _, rec := range saved {
		idx := make([]int, len(rec.Members))
		for i, m := range rec.Members {
			idx[i] = int(m)
		}
		want := check.Solve(candidates.New(r.Zobrist(), idx))
		is.Equal(rec.Entry.TotalGuesses, want.TotalGuesses)
	}
}

func TestCancelledRun(t *testing.T) {
	is := is.New(t)
	lex := randomLexicon(t, 20)
	r, err := NewRunner(context.Background(), lex, Config{Threads: 2})
	is.NoErr(err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	summary, err := r.Run(ctx)
	is.NoErr(err)
	is.True(!summary.Complete)
	is.Equal(len(summary.Results), 0)
}

func TestMinBy(t *testing.T) {
	is := is.New(t)
	is.Equal(MinBy([]string{"ccc", "a", "bb", "d"}, func(s string) int { return len(s) }), "a")
	is.Equal(MinBy([]int{3, 1, 1, 2}, func(i int) int { return i }), 1)
}
