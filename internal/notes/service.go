// Package notes manages staff notes and their dashboard reminders.
package notes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mbctherapy/clinic-dashboard/internal/clinicapi"
	"github.com/mbctherapy/clinic-dashboard/internal/events"
	"github.com/mbctherapy/clinic-dashboard/internal/schedule"
	"github.com/mbctherapy/clinic-dashboard/pkg/logging"
)

// DefaultNoteType is applied when a request carries no note type.
const DefaultNoteType = "Progress Note"

var (
	ErrEmptyContent       = errors.New("notes: content is required")
	ErrReminderDateIsPast = errors.New("notes: reminder date is in the past")
	ErrReminderTimeIsPast = errors.New("notes: reminder time has already passed today")
	ErrReminderTimeOnly   = errors.New("notes: reminder time requires a reminder date")
	ErrReminderDateOnly   = errors.New("notes: reminder date requires a reminder time")
)

// Request describes the note to create. ReminderDate (YYYY-MM-DD) and
// ReminderTime (HH:MM) must be set together or not at all.
type Request struct {
	NoteType     string
	Content      string
	ClientID     *string
	ReminderDate string
	ReminderTime string
}

type api interface {
	CreateNote(ctx context.Context, in clinicapi.NewNote) (*clinicapi.Note, error)
	CompleteNote(ctx context.Context, id string) error
	DeleteNote(ctx context.Context, id string) error
}

// Service creates, completes and deletes notes, announcing each change
// on the event bus so mounted views refresh.
type Service struct {
	api    api
	bus    events.Bus
	logger *logging.Logger
	now    func() time.Time
}

func NewService(api api, bus events.Bus, logger *logging.Logger) *Service {
	if api == nil {
		panic("notes: nil api")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		api:    api,
		bus:    bus,
		logger: logger.Component("notes"),
		now:    time.Now,
	}
}

func (s *Service) Create(ctx context.Context, req Request) (*clinicapi.Note, error) {
	if req.Content == "" {
		return nil, ErrEmptyContent
	}
	if req.NoteType == "" {
		req.NoteType = DefaultNoteType
	}
	if err := s.validateReminder(req); err != nil {
		return nil, err
	}

	note, err := s.api.CreateNote(ctx, clinicapi.NewNote{
		NoteType:     req.NoteType,
		Content:      req.Content,
		ClientID:     req.ClientID,
		ReminderDate: req.ReminderDate,
		ReminderTime: req.ReminderTime,
	})
	if err != nil {
		return nil, fmt.Errorf("notes: create: %w", err)
	}

	s.logger.Info("note created", "note_id", note.ID, "note_type", note.NoteType)
	s.announce(ctx, events.NoteCreated, note)
	return note, nil
}

// Complete marks the note done on the backend and announces the update.
func (s *Service) Complete(ctx context.Context, id string) error {
	if err := s.api.CompleteNote(ctx, id); err != nil {
		return fmt.Errorf("notes: complete %s: %w", id, err)
	}
	s.announce(ctx, events.NoteUpdated, map[string]any{"id": id, "completed": true})
	return nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.api.DeleteNote(ctx, id); err != nil {
		return fmt.Errorf("notes: delete %s: %w", id, err)
	}
	s.announce(ctx, events.NoteDeleted, map[string]any{"id": id})
	return nil
}

func (s *Service) validateReminder(req Request) error {
	if req.ReminderDate == "" && req.ReminderTime == "" {
		return nil
	}
	if req.ReminderDate == "" {
		return ErrReminderTimeOnly
	}
	if req.ReminderTime == "" {
		return ErrReminderDateOnly
	}

	now := s.now()
	today := schedule.DateString(now)
	if req.ReminderDate < today {
		return ErrReminderDateIsPast
	}
	if req.ReminderDate == today && req.ReminderTime <= schedule.ClockString(now) {
		return ErrReminderTimeIsPast
	}
	return nil
}

func (s *Service) announce(ctx context.Context, t events.Type, payload any) {
	if s.bus == nil {
		return
	}
	if err := events.Publish(ctx, s.bus, t, payload); err != nil {
		s.logger.Error("publish failed", "event_type", string(t), "error", err)
	}
}
