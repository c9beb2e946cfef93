// Package realtime delivers chat messages to connected websocket clients.
//
// Both ingress paths (REST and websocket frames) submit through Router, which
// persists the message, suppresses duplicate fingerprints and fans the event
// out through the Registry.
package realtime

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"socialhub/internal/apperr"
	"socialhub/internal/metrics"
	"socialhub/internal/model"
	"socialhub/internal/store"
)

const defaultStoreTimeout = 5 * time.Second

// Router is the single entry point for submitted messages.
type Router struct {
	store    store.MessageStore
	dedup    *DedupCache
	registry Broadcaster
	metrics  *metrics.Metrics
	log      *slog.Logger

	now          func() time.Time
	storeTimeout time.Duration
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) RouterOption {
	return func(r *Router) { r.now = now }
}

// WithStoreTimeout bounds each AppendMessage call.
func WithStoreTimeout(d time.Duration) RouterOption {
	return func(r *Router) {
		if d > 0 {
			r.storeTimeout = d
		}
	}
}

// NewRouter wires a router over its collaborators.
func NewRouter(st store.MessageStore, dedup *DedupCache, registry Broadcaster, m *metrics.Metrics, log *slog.Logger, opts ...RouterOption) *Router {
	r := &Router{
		store:        st,
		dedup:        dedup,
		registry:     registry,
		metrics:      m,
		log:          log,
		now:          time.Now,
		storeTimeout: defaultStoreTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Submit stamps, stores and broadcasts one message. A store failure is
// returned and nothing is broadcast. A message whose fingerprint was already
// broadcast is stored but not broadcast again.
func (r *Router) Submit(ctx context.Context, ingress, sender, receiver, body string) (model.Message, error) {
	sender = strings.TrimSpace(sender)
	receiver = strings.TrimSpace(receiver)
	switch {
	case sender == "":
		return model.Message{}, apperr.ValidationError{Op: "router.submit", Field: "sender"}
	case receiver == "":
		return model.Message{}, apperr.ValidationError{Op: "router.submit", Field: "receiver"}
	case body == "":
		return model.Message{}, apperr.ValidationError{Op: "router.submit", Field: "message"}
	}

	msg := model.Message{
		Sender:    sender,
		Receiver:  receiver,
		Body:      body,
		Timestamp: r.now().UTC().Truncate(time.Millisecond),
	}

	storeCtx, cancel := context.WithTimeout(ctx, r.storeTimeout)
	defer cancel()
	if err := r.store.AppendMessage(storeCtx, msg); err != nil {
		r.metrics.StoreErrors.WithLabelValues("messages.append").Inc()
		r.log.Error("router.append.fail",
			slog.String("ingress", ingress),
			slog.String("sender", sender),
			slog.String("receiver", receiver),
			slog.String("error", err.Error()),
		)
		return model.Message{}, apperr.Store("router.append", err)
	}
	r.metrics.MessagesSubmitted.WithLabelValues(ingress).Inc()

	if r.dedup.CheckAndRecord(msg.Fingerprint()) {
		r.metrics.MessagesDuplicate.Inc()
		r.log.Info("router.duplicate",
			slog.String("ingress", ingress),
			slog.String("sender", sender),
			slog.String("receiver", receiver),
		)
		return msg, nil
	}

	delivered := r.registry.Broadcast(model.NewBroadcastEvent(msg))
	r.metrics.MessagesBroadcast.Inc()
	r.log.Debug("router.broadcast",
		slog.String("ingress", ingress),
		slog.Int("delivered", delivered),
	)
	return msg, nil
}
