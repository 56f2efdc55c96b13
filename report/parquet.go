package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"
	"github.com/samber/lo"

	"github.com/sethoscope/wordle-brute/orchestrator"
)

// ResultRow is one opener in a Parquet report.
type ResultRow struct {
	Lexicon      string  `parquet:"lexicon,dict"`
	Opener       string  `parquet:"opener"`
	TotalGuesses int64   `parquet:"total_guesses"`
	Average      float64 `parquet:"average"`
	StdDev       float64 `parquet:"stddev"`
	MaxGuesses   int32   `parquet:"max_guesses"`
	Histogram    []int32 `parquet:"histogram"`
	Nodes        int64   `parquet:"nodes"`
	ElapsedSec   float64 `parquet:"elapsed_sec"`
}

func Rows(s *orchestrator.Summary) []ResultRow {
	return lo.Map(s.Results, func(r orchestrator.Result, _ int) ResultRow {
		return ResultRow{
			Lexicon:      s.Lexicon,
			Opener:       r.Opener,
			TotalGuesses: int64(r.TotalGuesses),
			Average:      r.Average,
			StdDev:       r.StdDev,
			MaxGuesses:   int32(r.MaxGuesses()),
			Histogram:    lo.Map(r.Histogram, func(c, _ int) int32 { return int32(c) }),
			Nodes:        int64(r.Nodes),
			ElapsedSec:   r.Elapsed.Seconds(),
		}
	})
}

func WriteParquet(outPath string, s *orchestrator.Summary) error {
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	tmpPath := outPath + ".tmp"
	_ = os.Remove(tmpPath)

	if err := parquet.WriteFile(tmpPath, Rows(s),
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.KeyValueMetadata("schema", "opener_result_v1"),
	); err != nil {
		return fmt.Errorf("write parquet: %w", err)
	}
	if err := os.Rename(tmpPath, outPath); err != nil {
		return fmt.Errorf("rename parquet: %w", err)
	}
	return nil
}
