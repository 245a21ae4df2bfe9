// Package redisinfra forwards realtime envelopes between API instances over
// Redis Pub/Sub so a user connected to another node still gets the event.
package redisinfra

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/devconnect-api/internal/realtime"
	"github.com/redis/go-redis/v9"
)

// NewClient parses a redis:// URL and pings the server.
func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

type Fanout struct {
	client  *redis.Client
	channel string
	log     *slog.Logger
}

func NewFanout(client *redis.Client, channel string, log *slog.Logger) *Fanout {
	return &Fanout{client: client, channel: channel, log: log}
}

func (f *Fanout) Publish(ctx context.Context, env realtime.Envelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	return f.client.Publish(ctx, f.channel, payload).Err()
}

// Run subscribes to the relay channel and hands each envelope to deliver
// until ctx is cancelled.
func (f *Fanout) Run(ctx context.Context, deliver func(realtime.Envelope) bool) error {
	sub := f.client.Subscribe(ctx, f.channel)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", f.channel, err)
	}

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			env, err := decodeEnvelope(msg.Payload)
			if err != nil {
				f.log.Warn("fanout: bad envelope", "error", err)
				continue
			}
			deliver(env)
		}
	}
}

func decodeEnvelope(payload string) (realtime.Envelope, error) {
	var env realtime.Envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		return env, err
	}
	if env.UserID == "" || len(env.Frame) == 0 {
		return env, fmt.Errorf("envelope missing user or frame")
	}
	return env, nil
}
