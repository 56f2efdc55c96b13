package subtree

import (
	"errors"
	"fmt"
	"slices"
)

var (
	ErrInconsistentEntry = errors.New("inconsistent subtree entry")
)

// Entry is the optimal result for a candidate set.
type Entry struct {
	// BestGuess is the word index of the optimal guess.
	BestGuess int
	// TotalGuesses sums, over every member as the secret, the guesses
	// needed under optimal play starting with BestGuess.
	TotalGuesses int
	// Histogram[k] is the number of secrets solved in exactly k guesses.
	Histogram []int
}

// Leaf is the entry for a single remaining word.
func Leaf(word int) Entry {
	return Entry{BestGuess: word, TotalGuesses: 1, Histogram: []int{0, 1}}
}

func (e Entry) Equal(o Entry) bool {
	return e.BestGuess == o.BestGuess && e.TotalGuesses == o.TotalGuesses &&
		slices.Equal(e.Histogram, o.Histogram)
}

// Secrets is the size of the candidate set this entry was computed for.
func (e Entry) Secrets() int {
	n := 0
	for _, c := range e.Histogram {
		n += c
	}
	return n
}

// Average is the expected number of guesses with a uniformly random secret.
func (e Entry) Average() float64 {
	n := e.Secrets()
	if n == 0 {
		return 0
	}
	return float64(e.TotalGuesses) / float64(n)
}

// MaxGuesses is the worst case number of guesses.
func (e Entry) MaxGuesses() int {
	for k := len(e.Histogram) - 1; k >= 0; k-- {
		if e.Histogram[k] > 0 {
			return k
		}
	}
	return 0
}

// Validate checks an entry that did not come from this process against the
// set it claims to describe.
func (e Entry) Validate(setSize int, contains func(word int) bool) error {
	if setSize == 0 {
		return fmt.Errorf("%w: empty set", ErrInconsistentEntry)
	}
	if !contains(e.BestGuess) {
		return fmt.Errorf("%w: best guess is not a candidate", ErrInconsistentEntry)
	}
	if len(e.Histogram) < 2 || e.Histogram[0] != 0 || e.Histogram[1] != 1 {
		return fmt.Errorf("%w: histogram %v must start with [0 1]", ErrInconsistentEntry, e.Histogram)
	}
	total := 0
	for k, c := range e.Histogram {
		if c < 0 {
			return fmt.Errorf("%w: negative histogram count", ErrInconsistentEntry)
		}
		total += k * c
	}
	if n := e.Secrets(); n != setSize {
		return fmt.Errorf("%w: histogram covers %d secrets, set has %d", ErrInconsistentEntry, n, setSize)
	}
	if total != e.TotalGuesses {
		return fmt.Errorf("%w: histogram sums to %d guesses, entry says %d", ErrInconsistentEntry, total, e.TotalGuesses)
	}
	return nil
}
