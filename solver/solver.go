// Package solver finds, for a set of candidate secrets, the guess that
// minimizes the total number of guesses needed over every possible secret,
// assuming optimal play after it.
package solver

import (
	"errors"
	"math"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/sethoscope/wordle-brute/candidates"
	"github.com/sethoscope/wordle-brute/feedback"
	"github.com/sethoscope/wordle-brute/subtree"
	"github.com/sethoscope/wordle-brute/zobrist"
)

var (
	ErrEmptyCandidates = errors.New("cannot solve an empty candidate set")
	ErrNotCandidate    = errors.New("guess is not in the candidate set")
)

// Solver is an exhaustive search over guesses drawn from the candidate set.
// Ties between equally good guesses go to the lowest word index, which is
// the lexically smallest word.
type Solver struct {
	src   feedback.Source
	z     *zobrist.Zobrist
	cache subtree.Cache
	// set when the cache has a base layer to verify.
	layered subtree.Layered

	allExact feedback.Pattern
	threads  int
	verify   bool

	flight     singleflight.Group
	nodes      atomic.Uint64
	mismatches atomic.Uint64
	wordOf     func(int) string
}

func New(src feedback.Source, z *zobrist.Zobrist, cache subtree.Cache) *Solver {
	s := &Solver{
		src:      src,
		z:        z,
		cache:    cache,
		allExact: feedback.AllExact(src.WordLength()),
		threads:  1,
	}
	if l, ok := cache.(subtree.Layered); ok {
		s.layered = l
	}
	return s
}

// SetThreads sets how many root guesses are evaluated at once.
func (s *Solver) SetThreads(threads int) {
	s.threads = max(1, threads)
}

func (s *Solver) Threads() int {
	return s.threads
}

// SetVerifyWarm makes every hit in the cache's base layer be recomputed
// and compared.
func (s *Solver) SetVerifyWarm(v bool) {
	s.verify = v
}

// SetWordNames is only used to make log messages readable.
func (s *Solver) SetWordNames(wordOf func(int) string) {
	s.wordOf = wordOf
}

func (s *Solver) Cache() subtree.Cache {
	return s.cache
}

// Nodes is the number of sets searched so far, not counting cache hits
// and single words.
func (s *Solver) Nodes() uint64 {
	return s.nodes.Load()
}

// Mismatches is the number of warm cache entries that disagreed with a
// fresh computation.
func (s *Solver) Mismatches() uint64 {
	return s.mismatches.Load()
}

// Solve returns the optimal entry for set. It panics if set is empty.
func (s *Solver) Solve(set candidates.Set) subtree.Entry {
	if set.Len() == 0 {
		panic(ErrEmptyCandidates)
	}
	if set.Len() == 1 {
		return subtree.Leaf(set.Member(0))
	}
	if e, ok := s.lookup(set); ok {
		return e
	}
	if s.threads == 1 {
		return s.compute(set)
	}
	tstart := time.Now()
	nodes := s.nodes.Load()
	e := s.computeParallel(set)
	log.Debug().Int("set-size", set.Len()).
		Uint64("nodes", s.nodes.Load()-nodes).
		Float64("time-elapsed-sec", time.Since(tstart).Seconds()).
		Str("best-guess", s.name(e.BestGuess)).
		Int("total-guesses", e.TotalGuesses).
		Msg("root-solved")
	return e
}

// Evaluate scores a fixed first guess, playing optimally afterwards. The
// result is not cached, since it is generally not the set's optimum.
func (s *Solver) Evaluate(set candidates.Set, guess int) subtree.Entry {
	if set.Len() == 0 {
		panic(ErrEmptyCandidates)
	}
	if !set.Contains(guess) {
		panic(ErrNotCandidate)
	}
	groups := candidates.Partition(s.src, s.z, guess, set)
	if s.threads == 1 {
		e, _ := s.score(set.Len(), guess, groups, func() int { return math.MaxInt })
		return e
	}
	// the groups are independent, so solve them side by side.
	children := make([]subtree.Entry, len(groups))
	var g errgroup.Group
	g.SetLimit(s.threads)
	for i, grp := range groups {
		if grp.Pattern == s.allExact {
			continue
		}
		g.Go(func() error {
			children[i] = s.solve(grp.Set)
			return nil
		})
	}
	g.Wait()
	return s.combine(set.Len(), guess, groups, children)
}

func (s *Solver) name(word int) string {
	if s.wordOf == nil {
		return ""
	}
	return s.wordOf(word)
}

// solve is Solve below the root.
func (s *Solver) solve(set candidates.Set) subtree.Entry {
	if set.Len() == 1 {
		return subtree.Leaf(set.Member(0))
	}
	if e, ok := s.lookup(set); ok {
		return e
	}
	if s.threads == 1 {
		return s.compute(set)
	}
	// Waiters only ever wait on strictly smaller sets than the one they
	// are computing, so this cannot deadlock.
	v, _, _ := s.flight.Do(set.Key(), func() (any, error) {
		if e, ok := s.cache.Lookup(set); ok {
			return e, nil
		}
		return s.compute(set), nil
	})
	return v.(subtree.Entry)
}

func (s *Solver) lookup(set candidates.Set) (subtree.Entry, bool) {
	if !s.verify || s.layered == nil {
		return s.cache.Lookup(set)
	}
	if e, ok := s.layered.LookupLocal(set); ok {
		return e, true
	}
	warm, ok := s.layered.LookupBase(set)
	if !ok {
		return subtree.Entry{}, false
	}
	// The fresh entry goes in the local layer even if the policy would not
	// admit it, so a bad base entry is checked once.
	fresh := s.search(set)
	s.layered.Override(set, fresh)
	if !fresh.Equal(warm) {
		s.mismatches.Add(1)
		log.Warn().Int("set-size", set.Len()).
			Str("cached-guess", s.name(warm.BestGuess)).
			Int("cached-total", warm.TotalGuesses).
			Str("computed-guess", s.name(fresh.BestGuess)).
			Int("computed-total", fresh.TotalGuesses).
			Msg("warm-cache-mismatch")
	}
	return fresh, true
}

// compute searches set and caches the result.
func (s *Solver) compute(set candidates.Set) subtree.Entry {
	e := s.search(set)
	s.cache.Store(set, e)
	return e
}

// search tries every guess in index order.
func (s *Solver) search(set candidates.Set) subtree.Entry {
	s.nodes.Add(1)
	best := math.MaxInt
	var bestEntry subtree.Entry
	bound := func() int { return best }
	for i := range set.Len() {
		guess := set.Member(i)
		groups := candidates.Partition(s.src, s.z, guess, set)
		e, ok := s.score(set.Len(), guess, groups, bound)
		if ok && e.TotalGuesses < best {
			best = e.TotalGuesses
			bestEntry = e
		}
	}
	return bestEntry
}

// computeParallel searches the root guesses concurrently. A guess is only
// abandoned once it is strictly worse than the best seen, so the earliest
// optimal guess always survives and the reduction below picks the same
// guess a sequential search would.
func (s *Solver) computeParallel(set candidates.Set) subtree.Entry {
	s.nodes.Add(1)
	n := set.Len()
	results := make([]subtree.Entry, n)
	found := make([]bool, n)
	var best atomic.Int64
	best.Store(math.MaxInt64)
	bound := func() int {
		b := best.Load()
		if b == math.MaxInt64 {
			return math.MaxInt
		}
		return int(b) + 1
	}

	var g errgroup.Group
	g.SetLimit(s.threads)
	for i := range n {
		g.Go(func() error {
			guess := set.Member(i)
			groups := candidates.Partition(s.src, s.z, guess, set)
			e, ok := s.score(n, guess, groups, bound)
			if !ok {
				return nil
			}
			results[i], found[i] = e, true
			for {
				cur := best.Load()
				if int64(e.TotalGuesses) >= cur || best.CompareAndSwap(cur, int64(e.TotalGuesses)) {
					break
				}
			}
			return nil
		})
	}
	g.Wait()

	bi := -1
	for i := range n {
		if found[i] && (bi < 0 || results[i].TotalGuesses < results[bi].TotalGuesses) {
			bi = i
		}
	}
	s.cache.Store(set, results[bi])
	return results[bi]
}

// childBound is the least total any set of this size can have: one word
// is guessed outright and every other takes at least two guesses.
func childBound(size int) int {
	return 2*size - 1
}

// score totals a guess's groups. It gives up, returning false, as soon as
// the guess provably cannot score below bound().
func (s *Solver) score(size, guess int, groups []candidates.Group, bound func() int) (subtree.Entry, bool) {
	lb := size
	for _, grp := range groups {
		if grp.Pattern != s.allExact {
			lb += childBound(grp.Set.Len())
		}
	}
	if lb >= bound() {
		return subtree.Entry{}, false
	}
	children := make([]subtree.Entry, len(groups))
	for i, grp := range groups {
		if grp.Pattern == s.allExact {
			continue
		}
		children[i] = s.solve(grp.Set)
		lb += children[i].TotalGuesses - childBound(grp.Set.Len())
		if lb >= bound() {
			return subtree.Entry{}, false
		}
	}
	return s.combine(size, guess, groups, children), true
}

// combine builds the entry for guess from its groups' solutions. Every
// secret pays for the first guess; the guessed word itself is done there.
func (s *Solver) combine(size, guess int, groups []candidates.Group, children []subtree.Entry) subtree.Entry {
	e := subtree.Entry{BestGuess: guess, TotalGuesses: size, Histogram: []int{0, 0}}
	for i, grp := range groups {
		if grp.Pattern == s.allExact {
			e.Histogram[1]++
			continue
		}
		c := children[i]
		e.TotalGuesses += c.TotalGuesses
		for k, cnt := range c.Histogram {
			for len(e.Histogram) <= k+1 {
				e.Histogram = append(e.Histogram, 0)
			}
			e.Histogram[k+1] += cnt
		}
	}
	return e
}
