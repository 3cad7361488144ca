package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/mbctherapy/clinic-dashboard/internal/observability/metrics"
	"github.com/mbctherapy/clinic-dashboard/pkg/logging"
)

const redisChannel = "clinic:events"

// RedisBus fans events out across dashboard instances through Redis
// pub/sub, so views mounted in separate processes stay in sync. Delivery
// is asynchronous per subscriber; acceptable because every handler is a
// full re-fetch.
type RedisBus struct {
	client  *redis.Client
	logger  *logging.Logger
	metrics *metrics.BusMetrics

	mu     sync.Mutex
	closed bool
	subs   []*redisSubscription
}

type redisSubscription struct {
	pubsub *redis.PubSub
	cancel context.CancelFunc
	done   chan struct{}
}

// NewRedisBus creates the Redis-backed bus.
func NewRedisBus(client *redis.Client, logger *logging.Logger, m *metrics.BusMetrics) *RedisBus {
	if client == nil {
		panic("events: redis client cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &RedisBus{
		client:  client,
		logger:  logger,
		metrics: m,
	}
}

// Publish serializes the envelope onto the shared channel.
func (b *RedisBus) Publish(ctx context.Context, env Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("events: marshal envelope: %w", err)
	}
	if err := b.client.Publish(ctx, redisChannel, data).Err(); err != nil {
		return fmt.Errorf("events: redis publish: %w", err)
	}
	b.metrics.ObservePublish(string(env.Type))
	return nil
}

// Subscribe starts a receive loop filtered to the given types. The
// returned func stops the loop and closes the underlying subscription.
func (b *RedisBus) Subscribe(types []Type, h Handler) func() {
	set := make(map[Type]struct{}, len(types))
	for _, t := range types {
		set[t] = struct{}{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	pubsub := b.client.Subscribe(ctx, redisChannel)
	sub := &redisSubscription{pubsub: pubsub, cancel: cancel, done: make(chan struct{})}

	b.mu.Lock()
	b.subs = append(b.subs, sub)
	b.mu.Unlock()

	go func() {
		defer close(sub.done)
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var env Envelope
				if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
					b.logger.Warn("dropping malformed bus event", "error", err)
					continue
				}
				if _, want := set[env.Type]; !want {
					continue
				}
				b.metrics.ObserveDelivery(string(env.Type))
				h(env)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			sub.cancel()
			_ = sub.pubsub.Close()
			<-sub.done
		})
	}
}

// Close shuts down every open subscription.
func (b *RedisBus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	subs := b.subs
	b.subs = nil
	b.mu.Unlock()

	for _, sub := range subs {
		sub.cancel()
		_ = sub.pubsub.Close()
		<-sub.done
	}
	return nil
}
