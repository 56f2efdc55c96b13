package candidates

import (
	"errors"
	"fmt"
	"sort"

	"github.com/sethoscope/wordle-brute/feedback"
	"github.com/sethoscope/wordle-brute/zobrist"
)

var (
	ErrPartitionCoverage = errors.New("partition does not cover its candidate set")
)

// Group is the part of a candidate set that answers a guess with Pattern.
type Group struct {
	Pattern feedback.Pattern
	Set     Set
}

// Partition groups the candidates by the feedback each would give for
// guess. Groups are ordered by pattern; each is a subset of s and together
// they cover s exactly.
func Partition(src feedback.Source, z *zobrist.Zobrist, guess int, s Set) []Group {
	slot := make(map[feedback.Pattern]int, 32)
	var groups []Group
	for _, c := range s.members {
		p := src.Pattern(guess, int(c))
		gi, ok := slot[p]
		if !ok {
			gi = len(groups)
			slot[p] = gi
			groups = append(groups, Group{Pattern: p})
		}
		g := &groups[gi]
		g.Set.members = append(g.Set.members, c)
		g.Set.hash = z.Toggle(g.Set.hash, c)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Pattern < groups[j].Pattern })

	covered := 0
	for _, g := range groups {
		covered += g.Set.Len()
	}
	if covered != s.Len() {
		panic(fmt.Errorf("%w: guess %d covered %d of %d", ErrPartitionCoverage, guess, covered, s.Len()))
	}
	return groups
}

// Filter keeps the candidates that would answer guess with pattern.
func Filter(src feedback.Source, z *zobrist.Zobrist, s Set, guess int, pattern feedback.Pattern) Set {
	var out Set
	for _, c := range s.members {
		if src.Pattern(guess, int(c)) == pattern {
			out.members = append(out.members, c)
			out.hash = z.Toggle(out.hash, c)
		}
	}
	return out
}
