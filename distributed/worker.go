package distributed

import (
	"context"
	"encoding/json"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

// Worker answers solve requests from a NATS queue group, so any number of
// workers can share the load.
type Worker struct {
	nc      *nats.Conn
	handler *Handler
	subject string
	queue   string
	sub     *nats.Subscription
}

func NewWorker(nc *nats.Conn, handler *Handler, subject, queue string) *Worker {
	return &Worker{nc: nc, handler: handler, subject: subject, queue: queue}
}

func (w *Worker) Start() error {
	sub, err := w.nc.QueueSubscribe(w.subject, w.queue, func(m *nats.Msg) {
		log.Info().Int("bytes", len(m.Data)).Str("subject", m.Subject).Msg("request-received")
		if err := m.Respond(w.respond(context.Background(), m.Data)); err != nil {
			log.Err(err).Msg("respond-failed")
		}
	})
	if err != nil {
		return err
	}
	w.sub = sub
	if err := w.nc.Flush(); err != nil {
		return err
	}
	log.Info().Str("subject", w.subject).Str("queue", w.queue).Msg("listening")
	return nil
}

// respond turns a raw request into a raw reply. Failures are reported in
// the reply rather than dropped, so the dispatcher does not wait for a
// timeout.
func (w *Worker) respond(ctx context.Context, data []byte) []byte {
	var req SolveRequest
	var resp SolveResponse
	err := json.Unmarshal(data, &req)
	if err == nil {
		resp, err = w.handler.Handle(ctx, req)
	}
	if err != nil {
		log.Err(err).Str("fingerprint", req.Fingerprint).Msg("request-failed")
		resp.Error = err.Error()
	}
	out, err := json.Marshal(resp)
	if err != nil {
		// Should never happen, but we need to send something back.
		return []byte(`{"error":"` + err.Error() + `"}`)
	}
	return out
}

// Stop finishes in-flight requests and unsubscribes.
func (w *Worker) Stop() error {
	if w.sub == nil {
		return nil
	}
	return w.sub.Drain()
}
