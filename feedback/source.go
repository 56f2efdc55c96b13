package feedback

import (
	"context"
	"runtime"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/sethoscope/wordle-brute/alphabet"
)

// Source answers feedback queries by word index.
type Source interface {
	Pattern(guess, secret int) Pattern
	NumWords() int
	WordLength() int
}

// Direct computes every pattern on demand.
type Direct struct {
	words  []alphabet.MachineWord
	length int
}

func NewDirect(words []alphabet.MachineWord) *Direct {
	d := &Direct{words: words}
	if len(words) > 0 {
		d.length = len(words[0])
	}
	return d
}

func (d *Direct) Pattern(guess, secret int) Pattern {
	return Compute(d.words[guess], d.words[secret])
}

func (d *Direct) NumWords() int   { return len(d.words) }
func (d *Direct) WordLength() int { return d.length }

// Table holds every guess/secret pattern, one row per guess.
type Table struct {
	n        int
	length   int
	patterns []Pattern
}

// NewTable fills the table, one row per goroutine task.
func NewTable(ctx context.Context, words []alphabet.MachineWord, threads int) (*Table, error) {
	if threads < 1 {
		threads = runtime.NumCPU()
	}
	n := len(words)
	t := &Table{n: n, patterns: make([]Pattern, n*n)}
	if n > 0 {
		t.length = len(words[0])
	}
	tstart := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(threads)
	for guess := range words {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			row := t.patterns[guess*n : (guess+1)*n]
			for secret := range words {
				row[secret] = Compute(words[guess], words[secret])
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	log.Debug().Int("num-words", n).
		Int("table-bytes", n*n*4).
		Float64("time-elapsed-sec", time.Since(tstart).Seconds()).
		Msg("feedback-table-built")
	return t, nil
}

func (t *Table) Pattern(guess, secret int) Pattern {
	return t.patterns[guess*t.n+secret]
}

func (t *Table) NumWords() int   { return t.n }
func (t *Table) WordLength() int { return t.length }

// NewSource builds a Table unless the word list is larger than
// maxTableWords, in which case patterns are computed on demand.
// maxTableWords <= 0 always builds a table.
func NewSource(ctx context.Context, words []alphabet.MachineWord, threads, maxTableWords int) (Source, error) {
	if maxTableWords > 0 && len(words) > maxTableWords {
		log.Info().Int("num-words", len(words)).Int("max-table-words", maxTableWords).
			Msg("feedback-table-skipped")
		return NewDirect(words), nil
	}
	return NewTable(ctx, words, threads)
}
