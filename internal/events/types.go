// Package events is the cross-view notification bus. Creating an entity in
// one mounted view publishes a typed event; every other mounted view
// re-fetches its collections in response. Handlers never receive partial
// diffs: the payload is informational, the contract is "go re-fetch".
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Type names a cross-view event topic.
type Type string

const (
	ClientCreated      Type = "client:created"
	AppointmentCreated Type = "appointment:created"
	NoteCreated        Type = "note:created"
	NoteUpdated        Type = "note:updated"
	NoteDeleted        Type = "note:deleted"
	TaskCreated        Type = "task:created"
)

// AllTypes lists every topic, for subscribers that mirror the whole stream
// (the websocket fan-out).
func AllTypes() []Type {
	return []Type{ClientCreated, AppointmentCreated, NoteCreated, NoteUpdated, NoteDeleted, TaskCreated}
}

// Envelope carries one published event.
type Envelope struct {
	EventID    uuid.UUID       `json:"event_id"`
	Type       Type            `json:"event_type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

var nowFunc = time.Now

// NewEnvelope wraps a payload (the affected record, or just its id) in an
// envelope ready to publish.
func NewEnvelope(t Type, payload interface{}) (Envelope, error) {
	if t == "" {
		return Envelope{}, fmt.Errorf("events: event type required")
	}
	env := Envelope{
		EventID:    uuid.New(),
		Type:       t,
		OccurredAt: nowFunc().UTC(),
	}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return Envelope{}, fmt.Errorf("events: marshal payload: %w", err)
		}
		env.Payload = data
	}
	return env, nil
}
