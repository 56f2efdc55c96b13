package distributed

import (
	"context"
	"encoding/json"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog/log"
)

// LambdaEvent is a solve request delivered by AWS Lambda. When
// ReplyChannel is set the response is also sent there over NATS, since the
// caller may not be waiting on the invocation itself.
type LambdaEvent struct {
	SolveRequest
	ReplyChannel string `json:"reply_channel,omitempty"`
}

// HandleLambda scores the event's openers. nc may be nil if no replies go
// over NATS.
func (h *Handler) HandleLambda(ctx context.Context, nc Requester, evt LambdaEvent) (SolveResponse, error) {
	logger := log.With().Str("fingerprint", evt.Fingerprint).Int("openers", len(evt.Openers)).Logger()
	resp, err := h.Handle(ctx, evt.SolveRequest)
	if err != nil {
		resp.Error = err.Error()
	}
	if evt.ReplyChannel == "" || nc == nil {
		return resp, err
	}
	data, merr := json.Marshal(resp)
	if merr != nil {
		return resp, merr
	}
	logger.Info().Str("reply-channel", evt.ReplyChannel).Msg("sending-results-via-nats")
	rerr := retry.Do(
		func() error {
			// Only an acknowledgement is expected back.
			_, err := nc.Request(evt.ReplyChannel, data, 3*time.Second)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.LastErrorOnly(true),
		retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
			logger.Err(err).Uint("n", n).Msg("did-not-receive-ack-try-again")
			return retry.BackOffDelay(n, err, config)
		}),
	)
	if rerr != nil {
		logger.Err(rerr).Msg("sending-results-failed")
		if err == nil {
			err = rerr
		}
	}
	logger.Info().Msg("exiting-fn")
	return resp, err
}
