package report

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/parquet-go/parquet-go"
	"gopkg.in/yaml.v3"

	"github.com/sethoscope/wordle-brute/orchestrator"
)

func summary() *orchestrator.Summary {
	return &orchestrator.Summary{
		Lexicon:  "test",
		NumWords: 5,
		Complete: true,
		Elapsed:  1500 * time.Millisecond,
		Results: []orchestrator.Result{
			{Opener: "crane", TotalGuesses: 9, Average: 1.8, StdDev: 0.4, Histogram: []int{0, 1, 4}, Nodes: 3},
			{Opener: "slate", TotalGuesses: 10, Average: 2, StdDev: 0.6324555, Histogram: []int{0, 1, 3, 1}, Nodes: 7},
		},
	}
}

func TestWriteLines(t *testing.T) {
	is := is.New(t)
	var buf bytes.Buffer
	is.NoErr(WriteLines(&buf, summary().Results))
	is.Equal(buf.String(), "1.80000 crane\n2.00000 slate\n")
}

func TestWriteTable(t *testing.T) {
	is := is.New(t)
	var buf bytes.Buffer
	is.NoErr(WriteTable(&buf, summary(), 1))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	is.Equal(len(lines), 3)
	is.True(strings.HasPrefix(lines[0], "5 words, 2 openers scored in 1.50s"))
	is.True(strings.Contains(lines[2], "crane"))
	is.True(!strings.Contains(buf.String(), "slate"))

	s := summary()
	s.Complete = false
	buf.Reset()
	is.NoErr(WriteTable(&buf, s, 0))
	is.True(strings.Contains(buf.String(), "(incomplete)"))
	is.True(strings.Contains(buf.String(), "slate"))
}

func TestChart(t *testing.T) {
	is := is.New(t)
	h := Chart([]int{0, 1, 3, 0, 2})
	is.Equal(len(h.Buckets), 4)
	is.Equal(h.Count, 6)
	is.Equal(h.Max, 3)
	is.Equal(h.Buckets[0].Min, 1.0)
	is.Equal(Chart([]int{0, 0}).Count, 0)

	var buf bytes.Buffer
	is.NoErr(WriteHistogram(&buf, []int{0, 1, 3, 0, 2}, 20))
	is.Equal(len(strings.Split(strings.TrimSpace(buf.String()), "\n")), 4)
}

func TestWriteYAML(t *testing.T) {
	is := is.New(t)
	var buf bytes.Buffer
	is.NoErr(WriteYAML(&buf, summary()))
	var rep yamlReport
	is.NoErr(yaml.Unmarshal(buf.Bytes(), &rep))
	is.Equal(rep.NumWords, 5)
	is.Equal(len(rep.Results), 2)
	is.Equal(rep.Results[1].Opener, "slate")
	is.Equal(rep.Results[1].MaxGuesses, 3)
	is.Equal(rep.Results[1].Histogram, []int{0, 1, 3, 1})
}

func TestWriteParquet(t *testing.T) {
	is := is.New(t)
	path := filepath.Join(t.TempDir(), "out", "results.parquet")
	is.NoErr(WriteFile(path, summary()))
	rows, err := parquet.ReadFile[ResultRow](path)
	is.NoErr(err)
	is.Equal(len(rows), 2)
	is.Equal(rows[0].Opener, "crane")
	is.Equal(rows[0].TotalGuesses, int64(9))
	is.Equal(rows[1].Histogram, []int32{0, 1, 3, 1})
	is.Equal(rows[1].Lexicon, "test")
}

func TestUnknownFormat(t *testing.T) {
	is := is.New(t)
	err := WriteFile(filepath.Join(t.TempDir(), "out.csv"), summary())
	is.True(errors.Is(err, ErrUnknownFormat))
}
