// Package stream pushes dashboard events to connected browsers over
// WebSocket, so open tabs refresh without polling.
package stream

import (
	"net/http"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/net/websocket"

	"github.com/mbctherapy/clinic-dashboard/internal/events"
	"github.com/mbctherapy/clinic-dashboard/pkg/logging"
)

// sendBuffer bounds the per-connection queue. A browser that stops
// reading loses events rather than stalling every other connection.
const sendBuffer = 32

// Broker fans bus events out to every connected WebSocket client.
type Broker struct {
	bus    events.Bus
	logger *logging.Logger

	mu    sync.Mutex
	conns map[string]chan events.Envelope

	unsub func()
}

func NewBroker(bus events.Bus, logger *logging.Logger) *Broker {
	if bus == nil {
		panic("stream: nil bus")
	}
	if logger == nil {
		logger = logging.Default()
	}
	b := &Broker{
		bus:    bus,
		logger: logger.Component("stream"),
		conns:  map[string]chan events.Envelope{},
	}
	b.unsub = bus.Subscribe(events.AllTypes(), b.broadcast)
	return b
}

// Close detaches the broker from the bus. Open connections drain their
// queued events and close on the next read.
func (b *Broker) Close() {
	b.unsub()
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.conns {
		close(ch)
		delete(b.conns, id)
	}
}

// Handler returns the HTTP handler that upgrades to WebSocket.
func (b *Broker) Handler() http.Handler {
	return websocket.Handler(b.serve)
}

// ConnCount reports the number of attached clients.
func (b *Broker) ConnCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.conns)
}

func (b *Broker) broadcast(env events.Envelope) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.conns {
		select {
		case ch <- env:
		default:
			b.logger.Warn("dropping event for slow client", "conn_id", id, "event_type", string(env.Type))
		}
	}
}

func (b *Broker) serve(conn *websocket.Conn) {
	id := uuid.NewString()
	ch := make(chan events.Envelope, sendBuffer)

	b.mu.Lock()
	b.conns[id] = ch
	b.mu.Unlock()

	b.logger.Info("client connected", "conn_id", id)

	defer func() {
		b.mu.Lock()
		if _, ok := b.conns[id]; ok {
			delete(b.conns, id)
			close(ch)
		}
		b.mu.Unlock()
		b.logger.Info("client disconnected", "conn_id", id)
	}()

	// Reads only detect the close; clients never send payloads we use.
	readClosed := make(chan struct{})
	go func() {
		defer close(readClosed)
		var discard string
		for {
			if err := websocket.Message.Receive(conn, &discard); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case env, ok := <-ch:
			if !ok {
				return
			}
			if err := websocket.JSON.Send(conn, env); err != nil {
				return
			}
		case <-readClosed:
			return
		}
	}
}
