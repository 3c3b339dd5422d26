package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sentinelai/sentinel-alerts/internal/models"
	"github.com/sirupsen/logrus"
)

// Bus carries alert events to the live viewers of every replica
type Bus interface {
	Publish(ctx context.Context, event models.AlertEvent) error
	Close() error
}

// LocalBus delivers straight to the in-process hub
type LocalBus struct {
	hub *Hub
}

// NewLocalBus creates a bus for a single replica
func NewLocalBus(hub *Hub) *LocalBus {
	return &LocalBus{hub: hub}
}

// Publish broadcasts the event to the local hub
func (b *LocalBus) Publish(_ context.Context, event models.AlertEvent) error {
	b.hub.Broadcast(event)
	return nil
}

// Close is a no-op
func (b *LocalBus) Close() error { return nil }

// RedisBus fans events out through a redis pub/sub channel so that every
// replica's hub receives them
type RedisBus struct {
	rdb     *redis.Client
	channel string
}

// NewRedisBus connects to redis and verifies the connection
func NewRedisBus(ctx context.Context, addr, password, channel string) (*RedisBus, error) {
	if addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}
	if channel == "" {
		channel = "alert_events"
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    password,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisBus{rdb: rdb, channel: channel}, nil
}

// Publish sends the event to the redis channel
func (b *RedisBus) Publish(ctx context.Context, event models.AlertEvent) error {
	raw, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode alert event: %w", err)
	}
	if err := b.rdb.Publish(ctx, b.channel, raw).Err(); err != nil {
		return fmt.Errorf("failed to publish alert event: %w", err)
	}
	return nil
}

// StartForwarder subscribes to the channel and hands every event to the hub
// until ctx is cancelled
func (b *RedisBus) StartForwarder(ctx context.Context, hub *Hub) error {
	sub := b.rdb.Subscribe(ctx, b.channel)

	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					return
				}
				var event models.AlertEvent
				if err := json.Unmarshal([]byte(m.Payload), &event); err != nil {
					logrus.WithError(err).Warn("Ignoring malformed alert event from redis")
					continue
				}
				hub.Broadcast(event)
			}
		}
	}()

	logrus.Infof("Forwarding live alert events from redis channel %s", b.channel)
	return nil
}

// Close releases the redis client
func (b *RedisBus) Close() error {
	return b.rdb.Close()
}
