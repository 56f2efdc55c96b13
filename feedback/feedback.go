// Package feedback computes the per-letter response to a guess.
package feedback

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sethoscope/wordle-brute/alphabet"
)

// Mark is the response for a single letter of a guess.
type Mark uint8

const (
	Absent Mark = iota
	Present
	Exact
)

var (
	ErrBadPattern = errors.New("unrecognized feedback pattern")
)

// Pattern packs one Mark per letter, base 3, with the first letter in the
// most significant digit.
type Pattern uint32

// Compute returns the feedback a player sees after guessing guess when the
// secret is secret. Exact matches are resolved first; the remaining letters
// of the guess are then marked present, left to right, only while the
// secret still has unconsumed copies of that letter.
func Compute(guess, secret alphabet.MachineWord) Pattern {
	if len(guess) != len(secret) {
		panic(fmt.Sprintf("feedback: guess has %d letters, secret has %d", len(guess), len(secret)))
	}
	var avail [alphabet.MaxAlphabetSize]uint8
	var exact uint32
	for i := range guess {
		if guess[i] == secret[i] {
			exact |= 1 << i
		} else {
			avail[secret[i]]++
		}
	}
	var p Pattern
	for i, ml := range guess {
		m := Absent
		switch {
		case exact&(1<<i) != 0:
			m = Exact
		case avail[ml] > 0:
			avail[ml]--
			m = Present
		}
		p = p*3 + Pattern(m)
	}
	return p
}

// AllExact is the pattern of a correct guess.
func AllExact(length int) Pattern {
	var p Pattern
	for i := 0; i < length; i++ {
		p = p*3 + Pattern(Exact)
	}
	return p
}

// NumPatterns is 3^length.
func NumPatterns(length int) int {
	n := 1
	for i := 0; i < length; i++ {
		n *= 3
	}
	return n
}

func FromMarks(marks []Mark) Pattern {
	var p Pattern
	for _, m := range marks {
		p = p*3 + Pattern(m)
	}
	return p
}

func (p Pattern) Marks(length int) []Mark {
	marks := make([]Mark, length)
	for i := length - 1; i >= 0; i-- {
		marks[i] = Mark(p % 3)
		p /= 3
	}
	return marks
}

var debugChars = [3]rune{'.', 'x', 'O'}

var squares = [3]string{"⬜", "\U0001f7e8", "\U0001f7e9"}

// Format renders the pattern with . for absent, x for present, O for exact.
func (p Pattern) Format(length int) string {
	var sb strings.Builder
	for _, m := range p.Marks(length) {
		sb.WriteRune(debugChars[m])
	}
	return sb.String()
}

// Squares renders the pattern as the colored squares players share.
func (p Pattern) Squares(length int) string {
	var sb strings.Builder
	for _, m := range p.Marks(length) {
		sb.WriteString(squares[m])
	}
	return sb.String()
}

func markFor(r rune) (Mark, bool) {
	switch r {
	case '.', '-', '0', 'b', 'B', '⬜', '⬛':
		return Absent, true
	case 'x', 'X', 'y', 'Y', '1', '?', '\U0001f7e8':
		return Present, true
	case 'O', 'o', 'g', 'G', '2', '+', '\U0001f7e9':
		return Exact, true
	}
	return Absent, false
}

// Parse reads a pattern written with any of the accepted mark characters
// and returns it along with its length.
func Parse(s string) (Pattern, int, error) {
	var marks []Mark
	for _, r := range strings.TrimSpace(s) {
		m, ok := markFor(r)
		if !ok {
			return 0, 0, fmt.Errorf("%w: %q (bad character %q)", ErrBadPattern, s, r)
		}
		marks = append(marks, m)
	}
	if len(marks) == 0 {
		return 0, 0, fmt.Errorf("%w: empty", ErrBadPattern)
	}
	return FromMarks(marks), len(marks), nil
}
