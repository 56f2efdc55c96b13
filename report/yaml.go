package report

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/sethoscope/wordle-brute/orchestrator"
)

type yamlResult struct {
	Opener       string  `yaml:"opener"`
	TotalGuesses int     `yaml:"total-guesses"`
	Average      float64 `yaml:"average"`
	StdDev       float64 `yaml:"stddev"`
	MaxGuesses   int     `yaml:"max-guesses"`
	Histogram    []int   `yaml:"histogram,flow"`
	Nodes        uint64  `yaml:"nodes"`
	ElapsedSec   float64 `yaml:"elapsed-sec"`
}

type yamlReport struct {
	Lexicon    string       `yaml:"lexicon"`
	NumWords   int          `yaml:"num-words"`
	Complete   bool         `yaml:"complete"`
	ElapsedSec float64      `yaml:"elapsed-sec"`
	Mismatches uint64       `yaml:"cache-mismatches"`
	Results    []yamlResult `yaml:"results"`
}

func WriteYAML(w io.Writer, s *orchestrator.Summary) error {
	rep := yamlReport{
		Lexicon:    s.Lexicon,
		NumWords:   s.NumWords,
		Complete:   s.Complete,
		ElapsedSec: s.Elapsed.Seconds(),
		Mismatches: s.Mismatches,
	}
	for _, r := range s.Results {
		rep.Results = append(rep.Results, yamlResult{
			Opener:       r.Opener,
			TotalGuesses: r.TotalGuesses,
			Average:      r.Average,
			StdDev:       r.StdDev,
			MaxGuesses:   r.MaxGuesses(),
			Histogram:    r.Histogram,
			Nodes:        r.Nodes,
			ElapsedSec:   r.Elapsed.Seconds(),
		})
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(rep); err != nil {
		return err
	}
	return enc.Close()
}
