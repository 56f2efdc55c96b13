// Package persist saves subtree caches to disk and reads them back. Sets
// are keyed by their words rather than word indices, so a cache stays
// valid across machines and across word lists that share words.
package persist

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/sethoscope/wordle-brute/lexicon"
	"github.com/sethoscope/wordle-brute/subtree"
)

var (
	ErrUnknownWord = errors.New("record mentions a word not in the word list")
)

// Record is the on-disk form of one cache entry.
type Record struct {
	Candidates   []string
	BestGuess    string
	TotalGuesses int
	Histogram    []int
}

func (r Record) Key() string {
	return strings.Join(r.Candidates, ",")
}

// ToRecords converts table records to words, ordered by key.
func ToRecords(lex *lexicon.Lexicon, records []subtree.Record) []Record {
	out := make([]Record, len(records))
	for i, r := range records {
		words := make([]string, len(r.Members))
		for j, m := range r.Members {
			words[j] = lex.Word(int(m))
		}
		out[i] = Record{
			Candidates:   words,
			BestGuess:    lex.Word(r.Entry.BestGuess),
			TotalGuesses: r.Entry.TotalGuesses,
			Histogram:    r.Entry.Histogram,
		}
	}
	slices.SortFunc(out, func(a, b Record) int { return strings.Compare(a.Key(), b.Key()) })
	return out
}

func fromRecord(lex *lexicon.Lexicon, r Record) (subtree.Record, error) {
	members := make([]uint16, 0, len(r.Candidates))
	for _, w := range r.Candidates {
		i, ok := lex.Index(w)
		if !ok {
			return subtree.Record{}, fmt.Errorf("%w: %q", ErrUnknownWord, w)
		}
		members = append(members, uint16(i))
	}
	slices.Sort(members)
	members = slices.Compact(members)
	best, ok := lex.Index(r.BestGuess)
	if !ok {
		return subtree.Record{}, fmt.Errorf("%w: %q", ErrUnknownWord, r.BestGuess)
	}
	e := subtree.Entry{BestGuess: best, TotalGuesses: r.TotalGuesses, Histogram: r.Histogram}
	contains := func(w int) bool {
		_, found := slices.BinarySearch(members, uint16(w))
		return found
	}
	if err := e.Validate(len(members), contains); err != nil {
		return subtree.Record{}, err
	}
	return subtree.Record{Members: members, Entry: e}, nil
}

// FromRecords maps words back to indices. Records that do not fit the
// word list, or are internally inconsistent, are skipped with a warning.
func FromRecords(lex *lexicon.Lexicon, records []Record) ([]subtree.Record, int) {
	out := make([]subtree.Record, 0, len(records))
	skipped := 0
	for _, r := range records {
		sr, err := fromRecord(lex, r)
		if err != nil {
			skipped++
			if skipped <= 10 {
				log.Warn().Err(err).Int("set-size", len(r.Candidates)).Msg("skipping-cache-record")
			}
			continue
		}
		out = append(out, sr)
	}
	if skipped > 0 {
		log.Warn().Int("skipped", skipped).Int("num-records", len(records)).Msg("cache-records-skipped")
	}
	return out, skipped
}
