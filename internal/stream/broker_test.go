package stream

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"

	"github.com/mbctherapy/clinic-dashboard/internal/events"
	"github.com/mbctherapy/clinic-dashboard/pkg/logging"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, err := websocket.Dial(url, "", srv.URL)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForConns(t *testing.T, b *Broker, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if b.ConnCount() == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected %d connections, have %d", want, b.ConnCount())
}

func TestBrokerForwardsEvents(t *testing.T) {
	bus := events.NewMemoryBus(nil, nil)
	broker := NewBroker(bus, logging.New("error"))
	defer broker.Close()

	srv := httptest.NewServer(broker.Handler())
	defer srv.Close()

	conn := dial(t, srv)
	waitForConns(t, broker, 1)

	require.NoError(t, events.Publish(context.Background(), bus, events.NoteCreated, map[string]string{"id": "n1"}))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var env events.Envelope
	require.NoError(t, websocket.JSON.Receive(conn, &env))
	assert.Equal(t, events.NoteCreated, env.Type)
	assert.Contains(t, string(env.Payload), "n1")
}

func TestBrokerFansOutToEveryClient(t *testing.T) {
	bus := events.NewMemoryBus(nil, nil)
	broker := NewBroker(bus, logging.New("error"))
	defer broker.Close()

	srv := httptest.NewServer(broker.Handler())
	defer srv.Close()

	first := dial(t, srv)
	second := dial(t, srv)
	waitForConns(t, broker, 2)

	require.NoError(t, events.Publish(context.Background(), bus, events.AppointmentCreated, map[string]string{"id": "a1"}))

	for _, conn := range []*websocket.Conn{first, second} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var env events.Envelope
		require.NoError(t, websocket.JSON.Receive(conn, &env))
		assert.Equal(t, events.AppointmentCreated, env.Type)
	}
}

func TestBrokerDropsDisconnectedClients(t *testing.T) {
	bus := events.NewMemoryBus(nil, nil)
	broker := NewBroker(bus, logging.New("error"))
	defer broker.Close()

	srv := httptest.NewServer(broker.Handler())
	defer srv.Close()

	conn := dial(t, srv)
	waitForConns(t, broker, 1)

	conn.Close()
	waitForConns(t, broker, 0)

	// Publishing with nobody attached is fine.
	assert.NoError(t, events.Publish(context.Background(), bus, events.TaskCreated, map[string]string{"id": "t1"}))
}
