package candidates

import (
	"testing"

	"github.com/matryer/is"
	"lukechampine.com/frand"

	"github.com/sethoscope/wordle-brute/feedback"
	"github.com/sethoscope/wordle-brute/lexicon"
	"github.com/sethoscope/wordle-brute/zobrist"
)

func setup(t *testing.T, words []string) (*lexicon.Lexicon, feedback.Source, *zobrist.Zobrist) {
	t.Helper()
	lex, err := lexicon.New("test", words)
	if err != nil {
		t.Fatal(err)
	}
	z := &zobrist.Zobrist{}
	z.Initialize(lex.Len())
	return lex, feedback.NewDirect(lex.MachineWords()), z
}

func randomWordList(n int) []string {
	letters := []byte("abcde")
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
	return words
}

func TestSetBasics(t *testing.T) {
	is := is.New(t)
	z := &zobrist.Zobrist{}
	z.Initialize(10)
	s := New(z, []int{7, 2, 5, 2})
	is.Equal(s.Len(), 3)
	is.Equal(s.Members(), []uint16{2, 5, 7})
	is.True(s.Contains(5))
	is.True(!s.Contains(3))
	is.True(s.Equal(New(z, []int{5, 7, 2})))
	is.True(!s.Equal(New(z, []int{5, 7})))
	is.Equal(s.Key(), New(z, []int{2, 7, 5}).Key())
	is.Equal(len(s.Key()), 6)
	is.Equal(Full(z, 10).Len(), 10)
}

func TestPartitionCoversExactly(t *testing.T) {
	is := is.New(t)
	lex, src, z := setup(t, randomWordList(120))
	full := Full(z, lex.Len())
	for guess := 0; guess < lex.Len(); guess++ {
		groups := Partition(src, z, guess, full)
		seen := map[uint16]bool{}
		total := 0
		for i, g := range groups {
			if i > 0 {
				is.True(groups[i-1].Pattern < g.Pattern)
			}
			is.Equal(g.Set.Hash(), z.Hash(g.Set.Members()))
			for _, m := range g.Set.Members() {
				is.True(!seen[m]) // groups are disjoint
				seen[m] = true
				is.True(full.Contains(int(m)))
				is.Equal(src.Pattern(guess, int(m)), g.Pattern)
			}
			total += g.Set.Len()
			if g.Pattern == feedback.AllExact(lex.WordLength()) {
				is.Equal(g.Set.Members(), []uint16{uint16(guess)})
			}
		}
		is.Equal(total, full.Len())
	}
}

func TestFilter(t *testing.T) {
	is := is.New(t)
	lex, src, z := setup(t, []string{"abcd", "abce", "abdc", "dcba"})
	full := Full(z, lex.Len())
	guess, _ := lex.Index("abcd")
	p, _, err := feedback.Parse("OOO.")
	is.NoErr(err)
	remaining := Filter(src, z, full, guess, p)
	is.Equal(remaining.Words(lex.Word), []string{"abce"})
	is.Equal(remaining.Hash(), z.Hash(remaining.Members()))
}
