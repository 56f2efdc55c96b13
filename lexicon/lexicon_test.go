package lexicon

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matryer/is"
)

func TestNewSortsAndDedupes(t *testing.T) {
	is := is.New(t)
	lex, err := New("test", []string{"Crane", "adieu", "crane", "  slate ", ""})
	is.NoErr(err)
	is.Equal(lex.Words(), []string{"adieu", "crane", "slate"})
	is.Equal(lex.WordLength(), 5)
	idx, ok := lex.Index("SLATE")
	is.True(ok)
	is.Equal(idx, 2)
	is.Equal(lex.MachineWord(idx).UserVisible(lex.Alphabet()), "slate")
}

func TestMalformed(t *testing.T) {
	is := is.New(t)
	_, err := New("empty", nil)
	is.True(errors.Is(err, ErrEmptyWordList))

	_, err = New("blank", []string{"", "   "})
	is.True(errors.Is(err, ErrEmptyWordList))

	_, err = New("ragged", []string{"abcd", "abcde"})
	is.True(errors.Is(err, ErrNonUniformLength))

	_, err = New("long", []string{strings.Repeat("a", MaxWordLength+1)})
	is.True(errors.Is(err, ErrWordTooLong))

	_, err = New("spaced", []string{"ab cd", "abcd"})
	is.True(errors.Is(err, ErrMalformedWord))
}

func TestRead(t *testing.T) {
	is := is.New(t)
	src := "# five letter words\n  slate\t\n\ncrane\n"
	lex, err := Read("inline", strings.NewReader(src))
	is.NoErr(err)
	is.Equal(lex.Len(), 2)
	is.Equal(lex.Word(0), "crane")

	// a line is one word, not a word and its first field
	_, err = Read("two-words", strings.NewReader("abcd\nab cd\n"))
	is.True(errors.Is(err, ErrMalformedWord))
	_, err = Read("scored", strings.NewReader("slate 100\ncrane 90\n"))
	is.True(errors.Is(err, ErrMalformedWord))
}

func TestLoad(t *testing.T) {
	is := is.New(t)
	path := filepath.Join(t.TempDir(), "words.txt")
	is.NoErr(os.WriteFile(path, []byte("abcd\nabce\n"), 0o644))
	lex, err := Load(path)
	is.NoErr(err)
	is.Equal(lex.Name(), "words.txt")
	is.Equal(lex.Len(), 2)

	_, err = Load(filepath.Join(t.TempDir(), "missing.txt"))
	is.True(err != nil)
}

func TestFingerprint(t *testing.T) {
	is := is.New(t)
	a, err := New("a", []string{"abcd", "abce"})
	is.NoErr(err)
	b, err := New("b", []string{"ABCE", "abcd"})
	is.NoErr(err)
	c, err := New("c", []string{"abcd", "abcf"})
	is.NoErr(err)
	is.Equal(a.Fingerprint(), b.Fingerprint())
	is.True(a.Fingerprint() != c.Fingerprint())
	is.Equal(len(a.FingerprintString()), 16)
}
