package feedback

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"
	"lukechampine.com/frand"

	"github.com/sethoscope/wordle-brute/alphabet"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

func machineWords(t *testing.T, words ...string) []alphabet.MachineWord {
	t.Helper()
	alph, err := alphabet.FromWords(words)
	if err != nil {
		t.Fatal(err)
	}
	mws := make([]alphabet.MachineWord, len(words))
	for i, w := range words {
		mws[i], err = alph.ToMachineWord(w)
		if err != nil {
			t.Fatal(err)
		}
	}
	return mws
}

func randomWords(n, length, letters int) []alphabet.MachineWord {
	words := make([]alphabet.MachineWord, n)
	for i := range words {
		words[i] = make(alphabet.MachineWord, length)
		for j := range words[i] {
			words[i][j] = alphabet.MachineLetter(frand.Intn(letters))
		}
	}
	return words
}

func TestCompute(t *testing.T) {
	is := is.New(t)
	type tc struct {
		guess, secret string
		expected      string
	}
	cases := []tc{
		{"crane", "crane", "OOOOO"},
		{"speed", "abide", "..x.x"},
		{"abbey", "kebab", "xxOx."},
		{"eerie", "there", "x.x.O"},
		{"llama", "hello", "xx..."},
		{"hello", "llama", "..xx."},
		{"aaaaa", "abaca", "O.O.O"},
		{"abcd", "abce", "OOO."},
		{"wxyz", "wxyz", "OOOO"},
	}
	for _, c := range cases {
		mws := machineWords(t, c.guess, c.secret)
		p := Compute(mws[0], mws[1])
		is.Equal(p.Format(len(c.guess)), c.expected)
	}
}

func TestSelfIsAllExact(t *testing.T) {
	is := is.New(t)
	for length := 1; length <= 8; length++ {
		for _, w := range randomWords(50, length, 4) {
			is.Equal(Compute(w, w), AllExact(length))
		}
	}
}

// The number of present marks for a letter is the smaller of its unmatched
// occurrences in the guess and in the secret.
func TestDuplicateLetterAccounting(t *testing.T) {
	is := is.New(t)
	const length = 5
	const letters = 3
	words := randomWords(200, length, letters)
	for i := 0; i+1 < len(words); i += 2 {
		guess, secret := words[i], words[i+1]
		marks := Compute(guess, secret).Marks(length)
		var guessLeft, secretLeft, present, marked, inSecret [letters]int
		for j := 0; j < length; j++ {
			inSecret[secret[j]]++
			if marks[j] != Absent {
				marked[guess[j]]++
			}
			if guess[j] == secret[j] {
				is.Equal(marks[j], Exact)
				continue
			}
			is.True(marks[j] != Exact)
			guessLeft[guess[j]]++
			secretLeft[secret[j]]++
			if marks[j] == Present {
				present[guess[j]]++
			}
		}
		for l := 0; l < letters; l++ {
			is.Equal(present[l], min(guessLeft[l], secretLeft[l]))
			is.True(marked[l] <= inSecret[l])
		}
	}
}

func TestMarksRoundTrip(t *testing.T) {
	is := is.New(t)
	marks := []Mark{Exact, Absent, Present, Present, Exact}
	p := FromMarks(marks)
	is.Equal(p.Marks(5), marks)
	is.Equal(p.Format(5), "O.xxO")
	is.Equal(NumPatterns(5), 243)
}

func TestParse(t *testing.T) {
	is := is.New(t)
	for _, s := range []string{"O.xxO", "g-yyg", "20112", "+b??+", "🟩⬜🟨🟨🟩"} {
		p, n, err := Parse(s)
		is.NoErr(err)
		is.Equal(n, 5)
		is.Equal(p.Format(n), "O.xxO")
	}
	_, _, err := Parse("O.zxO")
	is.True(errors.Is(err, ErrBadPattern))
	_, _, err = Parse("")
	is.True(errors.Is(err, ErrBadPattern))
}

func TestSquares(t *testing.T) {
	is := is.New(t)
	p, _, err := Parse("O.x")
	is.NoErr(err)
	is.Equal(p.Squares(3), "🟩⬜🟨")
}

func TestTableMatchesDirect(t *testing.T) {
	is := is.New(t)
	words := randomWords(60, 5, 6)
	tbl, err := NewTable(context.Background(), words, 4)
	is.NoErr(err)
	d := NewDirect(words)
	is.Equal(tbl.NumWords(), d.NumWords())
	is.Equal(tbl.WordLength(), 5)
	for g := range words {
		for s := range words {
			is.Equal(tbl.Pattern(g, s), d.Pattern(g, s))
		}
	}
}

func TestNewSource(t *testing.T) {
	is := is.New(t)
	words := randomWords(10, 4, 5)
	src, err := NewSource(context.Background(), words, 2, 5)
	is.NoErr(err)
	_, ok := src.(*Direct)
	is.True(ok)

	src, err = NewSource(context.Background(), words, 2, 0)
	is.NoErr(err)
	_, ok = src.(*Table)
	is.True(ok)
}

func TestTableCanceled(t *testing.T) {
	is := is.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewTable(ctx, randomWords(30, 5, 5), 2)
	is.True(errors.Is(err, context.Canceled))
}
