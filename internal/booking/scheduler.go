// Package booking runs the appointment creation flow: validate the
// request, pre-flight the doctor's availability, then create. The
// availability check always happens before the create call, so a
// conflicting slot is rejected without ever hitting the write endpoint.
package booking

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

const (
	// DefaultDuration is applied when a request carries no duration.
	DefaultDuration = 60
	// DefaultPurpose is applied when a request carries no purpose.
	DefaultPurpose = "Therapy Session"
)

var validDurations = map[int]bool{30: true, 45: true, 60: true, 90: true}

var (
	ErrNoDoctor        = errors.New("booking: doctor is required")
	ErrNoClient        = errors.New("booking: client is required")
	ErrNoDate          = errors.New("booking: date is required")
	ErrNoTime          = errors.New("booking: time is required")
	ErrPastDate        = errors.New("booking: date is in the past")
	ErrPastTime        = errors.New("booking: time has already passed today")
	ErrInvalidDuration = errors.New("booking: duration must be 30, 45, 60 or 90 minutes")
)

// UnavailableError reports a slot conflict found by the pre-flight check.
type UnavailableError struct {
	Message string
}

func (e *UnavailableError) Error() string {
	if e.Message == "" {
		return "booking: requested slot is not available"
	}
	return "booking: " + e.Message
}

// Request describes the appointment to create. Date is YYYY-MM-DD and
// Time is HH:MM, both compared as strings against today's values.
type Request struct {
	Doctor   string
	Client   string
	Date     string
	Time     string
	Duration int
	Purpose  string
}

type api interface {
	CheckAvailability(ctx context.Context, doctor, datetime string, duration int) (*clinicapi.AvailabilityResult, error)
	CreateAppointment(ctx context.Context, in clinicapi.NewAppointment) (*clinicapi.Appointment, error)
}

// Scheduler books appointments against the clinic backend and announces
// successful creations on the event bus.
type Scheduler struct {
	api    api
	bus    events.Bus
	logger *logging.Logger
	now    func() time.Time
}

func NewScheduler(api api, bus events.Bus, logger *logging.Logger) *Scheduler {
	if api == nil {
		panic("booking: nil api")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Scheduler{
		api:    api,
		bus:    bus,
		logger: logger.Component("booking"),
		now:    time.Now,
	}
}

// Book validates req, checks availability and creates the appointment.
// Any availability failure, including a transport error on the check
// itself, aborts before the create request is sent.
func (s *Scheduler) Book(ctx context.Context, req Request) (*clinicapi.Appointment, error) {
	req = s.applyDefaults(req)
	if err := s.validate(req); err != nil {
		return nil, err
	}

	datetime := req.Date + "T" + req.Time + ":00Z"

	avail, err := s.api.CheckAvailability(ctx, req.Doctor, datetime, req.Duration)
	if err != nil {
		return nil, fmt.Errorf("booking: availability check: %w", err)
	}
	if !avail.Available {
		s.logger.Info("slot unavailable", "doctor", req.Doctor, "datetime", datetime)
		return nil, &UnavailableError{Message: avail.Message}
	}

	appt, err := s.api.CreateAppointment(ctx, clinicapi.NewAppointment{
		Doctor:   req.Doctor,
		Client:   req.Client,
		Datetime: datetime,
		Purpose:  req.Purpose,
		Duration: req.Duration,
	})
	if err != nil {
		return nil, fmt.Errorf("booking: create appointment: %w", err)
	}

	s.logger.Info("appointment booked",
		"appointment_id", appt.ID, "doctor", appt.Doctor, "datetime", appt.Datetime)

	if s.bus != nil {
		if err := events.Publish(ctx, s.bus, events.AppointmentCreated, appt); err != nil {
			// The appointment exists either way; stale views recover on
			// their next refetch.
			s.logger.Error("publish appointment:created failed", "error", err)
		}
	}

	return appt, nil
}

func (s *Scheduler) applyDefaults(req Request) Request {
	if req.Duration == 0 {
		req.Duration = DefaultDuration
	}
	if req.Purpose == "" {
		req.Purpose = DefaultPurpose
	}
	return req
}

func (s *Scheduler) validate(req Request) error {
	switch {
	case req.Doctor == "":
		return ErrNoDoctor
	case req.Client == "":
		return ErrNoClient
	case req.Date == "":
		return ErrNoDate
	case req.Time == "":
		return ErrNoTime
	}
	if !validDurations[req.Duration] {
		return ErrInvalidDuration
	}

	now := s.now()
	today := schedule.DateString(now)
	if req.Date < today {
		return ErrPastDate
	}
	if req.Date == today && req.Time <= schedule.ClockString(now) {
		return ErrPastTime
	}
	return nil
}
