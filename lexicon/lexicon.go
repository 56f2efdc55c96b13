// Package lexicon loads the word list that defines both the candidate
// secrets and the legal guesses.
package lexicon

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cespare/xxhash"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/sethoscope/wordle-brute/alphabet"
)

const (
	// MaxWordLength keeps a feedback pattern inside a uint32 (3^20 < 2^32).
	MaxWordLength = 20
	// MaxWords keeps word indices inside a uint16.
	MaxWords = 1<<16 - 1
)

var (
	ErrEmptyWordList    = errors.New("word list is empty")
	ErrNonUniformLength = errors.New("word list has words of different lengths")
	ErrWordTooLong      = errors.New("word is too long")
	ErrTooManyWords     = errors.New("word list has too many words")
	ErrMalformedWord    = errors.New("word contains whitespace")
)

var lower = cases.Lower(language.Und)

// Lexicon is an immutable, lexically sorted list of distinct words of equal
// length. A word's index in this list is its identity everywhere else.
type Lexicon struct {
	name         string
	words        []string
	machineWords []alphabet.MachineWord
	index        map[string]int
	alph         *alphabet.Alphabet
	length       int
	fingerprint  uint64
}

// Normalize puts a word in the canonical form used for comparisons.
func Normalize(word string) string {
	return lower.String(norm.NFC.String(strings.TrimSpace(word)))
}

// New validates and indexes a word list. Words are normalized, duplicates
// are dropped and the result is sorted, so that index order is lexical order.
func New(name string, words []string) (*Lexicon, error) {
	normalized := make([]string, 0, len(words))
	for _, w := range words {
		w = Normalize(w)
		if w == "" {
			continue
		}
		if strings.ContainsFunc(w, unicode.IsSpace) {
			return nil, fmt.Errorf("%w: %q", ErrMalformedWord, w)
		}
		normalized = append(normalized, w)
	}
	if len(normalized) == 0 {
		return nil, ErrEmptyWordList
	}
	uniq := lo.Uniq(normalized)
	if dropped := len(normalized) - len(uniq); dropped > 0 {
		log.Warn().Int("duplicates", dropped).Str("lexicon", name).Msg("dropped-duplicate-words")
	}
	if len(uniq) > MaxWords {
		return nil, fmt.Errorf("%w: %d (max %d)", ErrTooManyWords, len(uniq), MaxWords)
	}
	sort.Strings(uniq)

	length := utf8.RuneCountInString(uniq[0])
	if length > MaxWordLength {
		return nil, fmt.Errorf("%w: %q has %d letters (max %d)", ErrWordTooLong, uniq[0], length, MaxWordLength)
	}
	for _, w := range uniq[1:] {
		if n := utf8.RuneCountInString(w); n != length {
			return nil, fmt.Errorf("%w: %q has %d letters, %q has %d",
				ErrNonUniformLength, uniq[0], length, w, n)
		}
	}

	alph, err := alphabet.FromWords(uniq)
	if err != nil {
		return nil, err
	}
	lex := &Lexicon{
		name:         name,
		words:        uniq,
		machineWords: make([]alphabet.MachineWord, len(uniq)),
		index:        make(map[string]int, len(uniq)),
		alph:         alph,
		length:       length,
		fingerprint:  xxhash.Sum64String(strings.Join(uniq, "\n")),
	}
	for i, w := range uniq {
		mw, err := alph.ToMachineWord(w)
		if err != nil {
			return nil, err
		}
		lex.machineWords[i] = mw
		lex.index[w] = i
	}
	return lex, nil
}

// Read parses one word per line. Blank lines and lines starting with # are
// ignored. A line holding more than one word is malformed.
func Read(name string, r io.Reader) (*Lexicon, error) {
	var words []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return New(name, words)
}

// Load reads a word list file.
func Load(path string) (*Lexicon, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	lex, err := Read(filepath.Base(path), f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	log.Info().Str("path", path).Int("num-words", lex.Len()).
		Int("word-length", lex.WordLength()).
		Str("fingerprint", lex.FingerprintString()).Msg("lexicon-loaded")
	return lex, nil
}

func (l *Lexicon) Name() string {
	return l.name
}

// Len returns the number of words.
func (l *Lexicon) Len() int {
	return len(l.words)
}

// WordLength returns the number of letters in every word.
func (l *Lexicon) WordLength() int {
	return l.length
}

func (l *Lexicon) Word(idx int) string {
	return l.words[idx]
}

func (l *Lexicon) Words() []string {
	return l.words
}

func (l *Lexicon) MachineWord(idx int) alphabet.MachineWord {
	return l.machineWords[idx]
}

func (l *Lexicon) MachineWords() []alphabet.MachineWord {
	return l.machineWords
}

func (l *Lexicon) Alphabet() *alphabet.Alphabet {
	return l.alph
}

// Index returns the index of a word, normalizing it first.
func (l *Lexicon) Index(word string) (int, bool) {
	idx, ok := l.index[Normalize(word)]
	return idx, ok
}

// Fingerprint identifies the exact word list. Two processes agree on word
// indices iff their fingerprints match.
func (l *Lexicon) Fingerprint() uint64 {
	return l.fingerprint
}

func (l *Lexicon) FingerprintString() string {
	return fmt.Sprintf("%016x", l.fingerprint)
}
