package distributed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"

	"github.com/sethoscope/wordle-brute/lexicon"
	"github.com/sethoscope/wordle-brute/orchestrator"
)

// Requester is the part of a NATS connection the dispatcher uses.
type Requester interface {
	Request(subj string, data []byte, timeout time.Duration) (*nats.Msg, error)
}

type DispatcherConfig struct {
	Subject string
	// Timeout for a single request.
	Timeout time.Duration
	// Attempts per request, including the first.
	Attempts uint
	// Parallel is how many requests may be outstanding at once.
	Parallel int
	// Batch is how many openers go in each request.
	Batch         int
	SolverThreads int
	Progress      bool
}

type Dispatcher struct {
	nc  Requester
	cfg DispatcherConfig
}

func NewDispatcher(nc Requester, cfg DispatcherConfig) *Dispatcher {
	if cfg.Subject == "" {
		cfg.Subject = DefaultSubject
	}
	cfg.Attempts = max(1, cfg.Attempts)
	cfg.Parallel = max(1, cfg.Parallel)
	cfg.Batch = max(1, cfg.Batch)
	return &Dispatcher{nc: nc, cfg: cfg}
}

func retryable(err error) bool {
	return errors.Is(err, nats.ErrTimeout) || errors.Is(err, nats.ErrNoResponders)
}

func (d *Dispatcher) request(ctx context.Context, req SolveRequest) (SolveResponse, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return SolveResponse{}, err
	}
	var resp SolveResponse
	err = retry.Do(
		func() error {
			msg, err := d.nc.Request(d.cfg.Subject, data, d.cfg.Timeout)
			if err != nil {
				return err
			}
			resp = SolveResponse{}
			if err := json.Unmarshal(msg.Data, &resp); err != nil {
				return retry.Unrecoverable(err)
			}
			if resp.Error != "" {
				return retry.Unrecoverable(fmt.Errorf("%w: %s", ErrRemote, resp.Error))
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(d.cfg.Attempts),
		retry.LastErrorOnly(true),
		retry.RetryIf(retryable),
		retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
			log.Err(err).Uint("n", n).Strs("openers", req.Openers).
				Msg("did-not-receive-reply-try-again")
			return retry.BackOffDelay(n, err, config)
		}),
	)
	return resp, err
}

// Run scores openers on remote workers and collects the results the way
// a local run would.
func (d *Dispatcher) Run(ctx context.Context, lex *lexicon.Lexicon, openers []string) (*orchestrator.Summary, error) {
	if len(openers) == 0 {
		openers = lex.Words()
	}
	for _, o := range openers {
		if _, ok := lex.Index(o); !ok {
			return nil, fmt.Errorf("%w: %q", orchestrator.ErrUnknownOpener, o)
		}
	}
	batches := lo.Chunk(openers, d.cfg.Batch)
	log.Info().Int("num-openers", len(openers)).Int("num-requests", len(batches)).
		Str("subject", d.cfg.Subject).Msg("dispatching")

	var bar *progressbar.ProgressBar
	if d.cfg.Progress {
		bar = progressbar.Default(int64(len(openers)), "openers")
	} else {
		bar = progressbar.DefaultSilent(int64(len(openers)))
	}

	tstart := time.Now()
	summary := &orchestrator.Summary{Lexicon: lex.Name(), NumWords: lex.Len()}
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.Parallel)
	for _, batch := range batches {
		g.Go(func() error {
			resp, err := d.request(gctx, NewRequest(lex, batch, d.cfg.SolverThreads))
			if err != nil {
				return err
			}
			if resp.Fingerprint != lex.FingerprintString() {
				return ErrFingerprintMismatch
			}
			mu.Lock()
			defer mu.Unlock()
			for _, o := range resp.Results {
				res, err := o.toResult(lex)
				if err != nil {
					return err
				}
				summary.Results = append(summary.Results, res)
			}
			bar.Add(len(resp.Results))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	bar.Finish()
	orchestrator.SortResults(summary.Results)
	summary.Complete = len(summary.Results) == len(openers)
	summary.Elapsed = time.Since(tstart)
	return summary, nil
}
