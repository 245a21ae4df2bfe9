// Package realtime pushes events to connected users. Delivery is best effort:
// state has already been persisted by the caller, so a dropped event only
// costs the recipient a refresh.
package realtime

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/devconnect-api/internal/presence"
)

// Fanout forwards envelopes for users not connected to this instance.
type Fanout interface {
	Publish(ctx context.Context, env Envelope) error
}

type Options struct {
	Fanout         Fanout
	Origin         string // instance id stamped on forwarded envelopes
	Metrics        *Metrics
	Logger         *slog.Logger
	PublishTimeout time.Duration
}

type Relay struct {
	registry       *presence.Registry
	fanout         Fanout
	origin         string
	metrics        *Metrics
	log            *slog.Logger
	publishTimeout time.Duration
	wg             sync.WaitGroup
}

func NewRelay(registry *presence.Registry, opts Options) *Relay {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.PublishTimeout <= 0 {
		opts.PublishTimeout = 2 * time.Second
	}
	return &Relay{
		registry:       registry,
		fanout:         opts.Fanout,
		origin:         opts.Origin,
		metrics:        opts.Metrics,
		log:            opts.Logger,
		publishTimeout: opts.PublishTimeout,
	}
}

func (r *Relay) Registry() *presence.Registry { return r.registry }

func (r *Relay) Origin() string { return r.origin }

// Send pushes event to userID if they are connected here. It never blocks on
// the recipient and never fails; the result only says whether a local socket
// accepted the frame.
func (r *Relay) Send(ctx context.Context, userID, event string, payload any) bool {
	frame, err := EncodeFrame(event, payload)
	if err != nil {
		r.log.Error("relay: encode frame", "event", event, "error", err)
		r.metrics.observe(event, outcomeDropped)
		return false
	}
	if r.registry.Deliver(userID, frame) {
		r.metrics.observe(event, outcomeDelivered)
		return true
	}
	if r.fanout == nil {
		r.metrics.observe(event, outcomeDropped)
		r.log.Debug("relay: recipient offline", "event", event, "user_id", userID)
		return false
	}

	env := Envelope{Origin: r.origin, UserID: userID, Event: event, Frame: frame}
	r.metrics.observe(event, outcomeForwarded)
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.publishTimeout)
		defer cancel()
		if err := r.fanout.Publish(pctx, env); err != nil {
			r.log.Warn("relay: publish to peers", "event", event, "user_id", userID, "error", err)
		}
	}()
	return false
}

// DeliverRemote hands an envelope received from a peer to a local socket.
// Envelopes stamped with this instance's origin are ignored.
func (r *Relay) DeliverRemote(env Envelope) bool {
	if env.Origin == r.origin {
		return false
	}
	if r.registry.Deliver(env.UserID, env.Frame) {
		r.metrics.observe(env.Event, outcomeDelivered)
		return true
	}
	return false
}

// Wait blocks until in-flight peer publishes finish.
func (r *Relay) Wait() { r.wg.Wait() }
