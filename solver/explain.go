package solver

import (
	"github.com/sethoscope/wordle-brute/candidates"
	"github.com/sethoscope/wordle-brute/feedback"
	"github.com/sethoscope/wordle-brute/subtree"
)

// Branch is what happens after the best guess when the host answers with
// Pattern.
type Branch struct {
	Pattern    feedback.Pattern
	Candidates candidates.Set
	// Next is the optimal continuation; for the all-exact branch it is the
	// solved guess itself.
	Next subtree.Entry
}

// Explain solves set and breaks the best guess down by feedback.
func (s *Solver) Explain(set candidates.Set) (subtree.Entry, []Branch) {
	best := s.Solve(set)
	return best, s.ExplainGuess(set, best.BestGuess)
}

// ExplainGuess breaks an arbitrary candidate guess down by feedback.
func (s *Solver) ExplainGuess(set candidates.Set, guess int) []Branch {
	if !set.Contains(guess) {
		panic(ErrNotCandidate)
	}
	groups := candidates.Partition(s.src, s.z, guess, set)
	branches := make([]Branch, len(groups))
	for i, grp := range groups {
		branches[i] = Branch{Pattern: grp.Pattern, Candidates: grp.Set}
		if grp.Pattern == s.allExact {
			branches[i].Next = subtree.Leaf(guess)
		} else {
			branches[i].Next = s.Solve(grp.Set)
		}
	}
	return branches
}
