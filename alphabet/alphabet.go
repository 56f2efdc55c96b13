package alphabet

import (
	"errors"
	"fmt"
	"sort"
)

const (
	// MaxAlphabetSize is the maximum number of distinct letters a word list
	// may use. Feedback accounting keeps one counter per letter, so this also
	// bounds the size of those arrays.
	MaxAlphabetSize = 64
)

var (
	ErrAlphabetTooLarge = errors.New("word list uses too many distinct letters")
)

// MachineLetter is a machine-only representation of a letter. It goes from
// 0 to the size of the alphabet minus one.
type MachineLetter uint8

// MachineWord is a slice of MachineLetter; it is a machine-only representation
// of a word.
type MachineWord []MachineLetter

// Alphabet maps the letters of a word list to machine letters. Letters are
// numbered in rune order, so the numbering does not depend on the order in
// which words were seen.
type Alphabet struct {
	vals    map[rune]MachineLetter
	letters []rune
}

// FromWords builds an alphabet from every rune used in words.
func FromWords(words []string) (*Alphabet, error) {
	seen := map[rune]bool{}
	for _, w := range words {
		for _, r := range w {
			seen[r] = true
		}
	}
	if len(seen) > MaxAlphabetSize {
		return nil, fmt.Errorf("%w: %d (max %d)", ErrAlphabetTooLarge, len(seen), MaxAlphabetSize)
	}
	a := &Alphabet{vals: make(map[rune]MachineLetter, len(seen))}
	for r := range seen {
		a.letters = append(a.letters, r)
	}
	sort.Slice(a.letters, func(i, j int) bool { return a.letters[i] < a.letters[j] })
	for idx, r := range a.letters {
		a.vals[r] = MachineLetter(idx)
	}
	return a, nil
}

// Val returns the machine letter for this rune.
func (a *Alphabet) Val(r rune) (MachineLetter, error) {
	val, ok := a.vals[r]
	if ok {
		return val, nil
	}
	return 0, fmt.Errorf("letter %q not found in alphabet", r)
}

// Letter returns the rune that this machine letter corresponds to.
func (a *Alphabet) Letter(ml MachineLetter) rune {
	return a.letters[ml]
}

// NumLetters returns the number of letters in this alphabet.
func (a *Alphabet) NumLetters() int {
	return len(a.letters)
}

// ToMachineWord converts a user-visible word into a machine word.
func (a *Alphabet) ToMachineWord(word string) (MachineWord, error) {
	mw := make(MachineWord, 0, len(word))
	for _, r := range word {
		ml, err := a.Val(r)
		if err != nil {
			return nil, err
		}
		mw = append(mw, ml)
	}
	return mw, nil
}

// UserVisible turns the machine word back into a string.
func (mw MachineWord) UserVisible(a *Alphabet) string {
	runes := make([]rune, len(mw))
	for i, ml := range mw {
		runes[i] = a.Letter(ml)
	}
	return string(runes)
}
