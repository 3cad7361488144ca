package notes

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbctherapy/clinic-dashboard/internal/clinicapi"
	"github.com/mbctherapy/clinic-dashboard/internal/events"
	"github.com/mbctherapy/clinic-dashboard/pkg/logging"
)

type fakeAPI struct {
	created   []clinicapi.NewNote
	completed []string
	deleted   []string
	err       error
}

func (f *fakeAPI) CreateNote(_ context.Context, in clinicapi.NewNote) (*clinicapi.Note, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, in)
	return &clinicapi.Note{
		ID: "note-1", NoteType: in.NoteType, Content: in.Content,
		ClientID: in.ClientID, ReminderDate: in.ReminderDate, ReminderTime: in.ReminderTime,
	}, nil
}

func (f *fakeAPI) CompleteNote(_ context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	f.completed = append(f.completed, id)
	return nil
}

func (f *fakeAPI) DeleteNote(_ context.Context, id string) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func newTestService(t *testing.T, api *fakeAPI) (*Service, *events.MemoryBus) {
	t.Helper()
	bus := events.NewMemoryBus(nil, nil)
	s := NewService(api, bus, logging.New("error"))
	s.now = func() time.Time { return time.Date(2026, 1, 28, 10, 0, 0, 0, time.UTC) }
	return s, bus
}

func TestCreateDefaultsNoteType(t *testing.T) {
	api := &fakeAPI{}
	s, bus := newTestService(t, api)

	var got []events.Envelope
	bus.Subscribe([]events.Type{events.NoteCreated}, func(env events.Envelope) {
		got = append(got, env)
	})

	note, err := s.Create(context.Background(), Request{Content: "follow up on intake form"})
	require.NoError(t, err)
	assert.Equal(t, DefaultNoteType, note.NoteType)
	require.Len(t, got, 1)

	var carried clinicapi.Note
	require.NoError(t, json.Unmarshal(got[0].Payload, &carried))
	assert.Equal(t, note.ID, carried.ID)
	assert.Equal(t, "follow up on intake form", carried.Content)
}

func TestCreateEmptyContent(t *testing.T) {
	s, _ := newTestService(t, &fakeAPI{})
	_, err := s.Create(context.Background(), Request{NoteType: "Treatment Plan"})
	assert.ErrorIs(t, err, ErrEmptyContent)
}

func TestCreateReminderValidation(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want error
	}{
		{"time without date", Request{Content: "x", ReminderTime: "11:00"}, ErrReminderTimeOnly},
		{"date without time", Request{Content: "x", ReminderDate: "2026-01-29"}, ErrReminderDateOnly},
		{"past date", Request{Content: "x", ReminderDate: "2026-01-27", ReminderTime: "11:00"}, ErrReminderDateIsPast},
		{"past time today", Request{Content: "x", ReminderDate: "2026-01-28", ReminderTime: "09:30"}, ErrReminderTimeIsPast},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			api := &fakeAPI{}
			s, _ := newTestService(t, api)
			_, err := s.Create(context.Background(), tc.req)
			assert.ErrorIs(t, err, tc.want)
			assert.Empty(t, api.created)
		})
	}
}

func TestCreateFutureReminderToday(t *testing.T) {
	api := &fakeAPI{}
	s, _ := newTestService(t, api)

	// Equal to the current clock counts as passed.
	_, err := s.Create(context.Background(), Request{
		Content: "call pharmacy", ReminderDate: "2026-01-28", ReminderTime: "10:00",
	})
	assert.ErrorIs(t, err, ErrReminderTimeIsPast)

	_, err = s.Create(context.Background(), Request{
		Content: "call pharmacy", ReminderDate: "2026-01-28", ReminderTime: "10:01",
	})
	assert.NoError(t, err)
}

func TestCompletePublishesUpdate(t *testing.T) {
	api := &fakeAPI{}
	s, bus := newTestService(t, api)

	var got []events.Envelope
	bus.Subscribe([]events.Type{events.NoteUpdated}, func(env events.Envelope) {
		got = append(got, env)
	})

	require.NoError(t, s.Complete(context.Background(), "note-7"))
	assert.Equal(t, []string{"note-7"}, api.completed)

	require.Len(t, got, 1)
	var payload struct {
		ID        string `json:"id"`
		Completed bool   `json:"completed"`
	}
	require.NoError(t, json.Unmarshal(got[0].Payload, &payload))
	assert.Equal(t, "note-7", payload.ID)
	assert.True(t, payload.Completed)
}

func TestDeletePublishesDeleted(t *testing.T) {
	api := &fakeAPI{}
	s, bus := newTestService(t, api)

	var got []events.Envelope
	bus.Subscribe([]events.Type{events.NoteDeleted}, func(env events.Envelope) {
		got = append(got, env)
	})

	require.NoError(t, s.Delete(context.Background(), "note-7"))
	assert.Equal(t, []string{"note-7"}, api.deleted)
	require.Len(t, got, 1)
}

func TestBackendFailureNoEvent(t *testing.T) {
	api := &fakeAPI{err: errors.New("503 from backend")}
	s, bus := newTestService(t, api)

	fired := 0
	bus.Subscribe(events.AllTypes(), func(events.Envelope) { fired++ })

	_, err := s.Create(context.Background(), Request{Content: "x"})
	require.Error(t, err)
	require.Error(t, s.Complete(context.Background(), "n"))
	require.Error(t, s.Delete(context.Background(), "n"))
	assert.Zero(t, fired)
}
