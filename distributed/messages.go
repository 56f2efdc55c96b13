// Package distributed spreads opener scoring over processes. A dispatcher
// sends batches of openers over NATS; workers in a queue group score them
// and reply. The same handler also serves AWS Lambda invocations.
package distributed

import (
	"errors"
	"time"

	"github.com/sethoscope/wordle-brute/lexicon"
	"github.com/sethoscope/wordle-brute/orchestrator"
	"github.com/sethoscope/wordle-brute/subtree"
)

const (
	DefaultSubject = "wordle.solve"
	DefaultQueue   = "wordle-solvers"
)

var (
	ErrFingerprintMismatch = errors.New("word list does not match its fingerprint")
	ErrNoOpeners           = errors.New("request has no openers")
	ErrRemote              = errors.New("worker failed")
)

// SolveRequest asks a worker to score openers against a word list.
type SolveRequest struct {
	Words         []string `json:"words"`
	Fingerprint   string   `json:"fingerprint"`
	Openers       []string `json:"openers"`
	SolverThreads int      `json:"solver_threads,omitempty"`
}

type OpenerResult struct {
	Opener       string  `json:"opener"`
	TotalGuesses int     `json:"total_guesses"`
	Histogram    []int   `json:"histogram"`
	Nodes        uint64  `json:"nodes"`
	ElapsedSec   float64 `json:"elapsed_sec"`
}

type SolveResponse struct {
	Fingerprint string         `json:"fingerprint"`
	Results     []OpenerResult `json:"results,omitempty"`
	Error       string         `json:"error,omitempty"`
}

// NewRequest builds a request for openers against lex.
func NewRequest(lex *lexicon.Lexicon, openers []string, solverThreads int) SolveRequest {
	return SolveRequest{
		Words:         lex.Words(),
		Fingerprint:   lex.FingerprintString(),
		Openers:       openers,
		SolverThreads: solverThreads,
	}
}

func fromResult(r orchestrator.Result) OpenerResult {
	return OpenerResult{
		Opener:       r.Opener,
		TotalGuesses: r.TotalGuesses,
		Histogram:    r.Histogram,
		Nodes:        r.Nodes,
		ElapsedSec:   r.Elapsed.Seconds(),
	}
}

func (o OpenerResult) toResult(lex *lexicon.Lexicon) (orchestrator.Result, error) {
	guess, ok := lex.Index(o.Opener)
	if !ok {
		return orchestrator.Result{}, orchestrator.ErrUnknownOpener
	}
	e := subtree.Entry{BestGuess: guess, TotalGuesses: o.TotalGuesses, Histogram: o.Histogram}
	return orchestrator.NewResult(o.Opener, guess, e, o.Nodes,
		time.Duration(o.ElapsedSec*float64(time.Second))), nil
}
