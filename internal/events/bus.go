package events

import (
	"context"
	"sync"

	"github.com/mbctherapy/clinic-dashboard/internal/observability/metrics"
	"github.com/mbctherapy/clinic-dashboard/pkg/logging"
)

// Handler reacts to one delivered event. Handlers are expected to be
// idempotent full re-fetches, so redundant deliveries are harmless.
type Handler func(Envelope)

// Bus is the publish/subscribe channel between mounted views. Subscribe
// returns an unsubscribe func the view must call on unmount.
type Bus interface {
	Publish(ctx context.Context, env Envelope) error
	Subscribe(types []Type, h Handler) (unsubscribe func())
}

// Publish builds an envelope for a payload and publishes it. Convenience
// for the create flows.
func Publish(ctx context.Context, bus Bus, t Type, payload interface{}) error {
	env, err := NewEnvelope(t, payload)
	if err != nil {
		return err
	}
	return bus.Publish(ctx, env)
}

type subscription struct {
	types   map[Type]struct{}
	handler Handler
}

// MemoryBus dispatches synchronously to every matching subscriber in the
// publishing goroutine, mirroring browser event dispatch: by the time
// Publish returns, every mounted view has run its re-fetch handler.
type MemoryBus struct {
	logger  *logging.Logger
	metrics *metrics.BusMetrics

	mu     sync.Mutex
	nextID int
	subs   map[int]subscription
}

// NewMemoryBus creates the in-process bus.
func NewMemoryBus(logger *logging.Logger, m *metrics.BusMetrics) *MemoryBus {
	if logger == nil {
		logger = logging.Default()
	}
	return &MemoryBus{
		logger:  logger,
		metrics: m,
		subs:    map[int]subscription{},
	}
}

// Publish delivers the envelope to every subscriber registered for its type.
func (b *MemoryBus) Publish(_ context.Context, env Envelope) error {
	b.metrics.ObservePublish(string(env.Type))

	b.mu.Lock()
	handlers := make([]Handler, 0, len(b.subs))
	for _, sub := range b.subs {
		if _, ok := sub.types[env.Type]; ok {
			handlers = append(handlers, sub.handler)
		}
	}
	b.mu.Unlock()

	for _, h := range handlers {
		b.metrics.ObserveDelivery(string(env.Type))
		h(env)
	}
	return nil
}

// Subscribe registers a handler for the given types. The returned func
// removes the registration; calling it more than once is safe.
func (b *MemoryBus) Subscribe(types []Type, h Handler) func() {
	set := make(map[Type]struct{}, len(types))
	for _, t := range types {
		set[t] = struct{}{}
	}

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = subscription{types: set, handler: h}
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}
