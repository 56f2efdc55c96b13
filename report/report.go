// Package report formats orchestrator summaries for people and for
// downstream analysis.
package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/samber/lo"

	"github.com/sethoscope/wordle-brute/orchestrator"
)

var (
	ErrUnknownFormat = errors.New("unknown report format")
)

// WriteLines writes one "average opener" line per result.
func WriteLines(w io.Writer, results []orchestrator.Result) error {
	for _, r := range results {
		if _, err := fmt.Fprintf(w, "%.5f %s\n", r.Average, r.Opener); err != nil {
			return err
		}
	}
	return nil
}

// WriteTable writes the best top results. top <= 0 writes them all.
func WriteTable(w io.Writer, s *orchestrator.Summary, top int) error {
	results := s.Results
	if top > 0 && top < len(results) {
		results = results[:top]
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d words, %d openers scored", s.NumWords, len(s.Results))
	if !s.Complete {
		sb.WriteString(" (incomplete)")
	}
	fmt.Fprintf(&sb, " in %.2fs\n", s.Elapsed.Seconds())
	fmt.Fprintf(&sb, "%-4s %-12s %8s %9s %7s %5s %12s\n", "Rank", "Opener", "Total", "Average", "StdDev", "Max", "Nodes")
	for i, r := range results {
		fmt.Fprintf(&sb, "%-4d %-12s %8d %9.5f %7.4f %5d %12d\n",
			i+1, r.Opener, r.TotalGuesses, r.Average, r.StdDev, r.MaxGuesses(), r.Nodes)
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// Chart turns a guess-count histogram into a plottable one, one bucket
// per number of guesses.
func Chart(counts []int) histogram.Histogram {
	h := histogram.Histogram{}
	nonzero := lo.Filter(lo.Range(len(counts)), func(k, _ int) bool { return counts[k] > 0 })
	if len(nonzero) == 0 {
		return h
	}
	first, last := nonzero[0], nonzero[len(nonzero)-1]
	for k := first; k <= last; k++ {
		h.Buckets = append(h.Buckets, histogram.Bucket{
			Count: counts[k], Min: float64(k), Max: float64(k + 1),
		})
		h.Count += counts[k]
		h.Max = max(h.Max, counts[k])
	}
	return h
}

// WriteHistogram draws how many secrets take each number of guesses.
func WriteHistogram(w io.Writer, counts []int, width int) error {
	h := Chart(counts)
	if h.Count == 0 {
		return nil
	}
	return histogram.Fprintf(w, h, histogram.Linear(width), func(v float64) string {
		return strconv.Itoa(int(v))
	})
}

// WriteFile writes the summary in the format named by the extension:
// .yaml, .yml or .parquet.
func WriteFile(path string, s *orchestrator.Summary) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := WriteYAML(f, s); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	case ".parquet":
		return WriteParquet(path, s)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownFormat, path)
	}
}
