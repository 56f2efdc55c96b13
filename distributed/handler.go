package distributed

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/sethoscope/wordle-brute/cache"
	"github.com/sethoscope/wordle-brute/lexicon"
	"github.com/sethoscope/wordle-brute/orchestrator"
	"github.com/sethoscope/wordle-brute/subtree"
)

// Handler scores requests. Word lists it has seen before are reused, along
// with their subtree caches, so a worker gets faster as it goes.
type Handler struct {
	policy  subtree.Policy
	threads int
}

type prepared struct {
	runner *orchestrator.Runner
	table  *subtree.Table
}

// NewHandler makes a handler whose caches follow policy. threads bounds
// the feedback table build.
func NewHandler(policy subtree.Policy, threads int) *Handler {
	return &Handler{policy: policy, threads: threads}
}

func (h *Handler) prepare(ctx context.Context, req SolveRequest) (*prepared, error) {
	lex, err := lexicon.New(req.Fingerprint, req.Words)
	if err != nil {
		return nil, err
	}
	if lex.FingerprintString() != req.Fingerprint {
		return nil, fmt.Errorf("%w: got %s, computed %s", ErrFingerprintMismatch,
			req.Fingerprint, lex.FingerprintString())
	}
	return cache.Get("wordlist:"+req.Fingerprint, func(string) (*prepared, error) {
		r, err := orchestrator.NewRunner(ctx, lex, orchestrator.Config{
			Threads: h.threads,
			Policy:  h.policy,
		})
		if err != nil {
			return nil, err
		}
		return &prepared{runner: r, table: r.NewTable()}, nil
	})
}

// Handle scores every opener in the request.
func (h *Handler) Handle(ctx context.Context, req SolveRequest) (SolveResponse, error) {
	resp := SolveResponse{Fingerprint: req.Fingerprint}
	if len(req.Openers) == 0 {
		return resp, ErrNoOpeners
	}
	p, err := h.prepare(ctx, req)
	if err != nil {
		return resp, err
	}
	s := p.runner.NewSolver(p.table)
	s.SetThreads(req.SolverThreads)
	for _, opener := range req.Openers {
		if err := ctx.Err(); err != nil {
			return resp, err
		}
		res, err := p.runner.SolveOpener(s, opener)
		if err != nil {
			return resp, err
		}
		log.Debug().Str("opener", opener).Int("total-guesses", res.TotalGuesses).
			Float64("time-elapsed-sec", res.Elapsed.Seconds()).Msg("opener-scored")
		resp.Results = append(resp.Results, fromResult(res))
	}
	return resp, nil
}
