// Package views holds the server-side view models the dashboard UI
// renders. Each view caches the backend collections it shows, refetches
// them when a relevant event arrives, and derives its aggregates from
// the caches at snapshot time.
package views

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/mbctherapy/clinic-dashboard/internal/clinicapi"
	"github.com/mbctherapy/clinic-dashboard/internal/events"
	"github.com/mbctherapy/clinic-dashboard/internal/schedule"
	"github.com/mbctherapy/clinic-dashboard/pkg/logging"
)

type readAPI interface {
	ListClients(ctx context.Context) ([]clinicapi.Client, error)
	ListDoctors(ctx context.Context) ([]clinicapi.Doctor, error)
	ListRegistrations(ctx context.Context) ([]clinicapi.Registration, error)
	ListAppointments(ctx context.Context) ([]clinicapi.Appointment, error)
	ListNotes(ctx context.Context) ([]clinicapi.Note, error)
	ListTasks(ctx context.Context) ([]clinicapi.Task, error)
}

// DashboardSnapshot is the front-desk dashboard payload.
type DashboardSnapshot struct {
	Clients       []clinicapi.Client       `json:"clients"`
	Doctors       []clinicapi.Doctor       `json:"doctors"`
	Registrations []clinicapi.Registration `json:"registrations"`
	Tasks         []clinicapi.Task         `json:"tasks"`

	TodaySessions  []schedule.Session `json:"today_sessions"`
	TodayReminders []clinicapi.Note   `json:"today_reminders"`

	Week                schedule.WeekStats `json:"week"`
	ActivePlans         int                `json:"active_plans"`
	PlansEndingThisWeek int                `json:"plans_ending_this_week"`
}

// DashboardView is the front-desk view. Mount fetches every collection
// once; afterwards the event subscriptions keep the caches current.
type DashboardView struct {
	api    readAPI
	bus    events.Bus
	logger *logging.Logger
	now    func() time.Time

	mu            sync.RWMutex
	clients       []clinicapi.Client
	doctors       []clinicapi.Doctor
	registrations []clinicapi.Registration
	appointments  []clinicapi.Appointment
	notes         []clinicapi.Note
	tasks         []clinicapi.Task

	unsubs []func()
}

func NewDashboardView(api readAPI, bus events.Bus, logger *logging.Logger) *DashboardView {
	if api == nil {
		panic("views: nil api")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &DashboardView{
		api:    api,
		bus:    bus,
		logger: logger.Component("dashboard_view"),
		now:    time.Now,
	}
}

// Mount loads every collection concurrently and registers the event
// subscriptions. A failed collection logs and leaves its cache empty;
// the other collections still populate.
func (v *DashboardView) Mount(ctx context.Context) {
	var wg sync.WaitGroup
	for _, fetch := range []func(context.Context){
		v.refetchClients,
		v.refetchDoctors,
		v.refetchRegistrations,
		v.refetchAppointments,
		v.refetchNotes,
		v.refetchTasks,
	} {
		wg.Add(1)
		go func(f func(context.Context)) {
			defer wg.Done()
			f(ctx)
		}(fetch)
	}
	wg.Wait()

	if v.bus == nil {
		return
	}
	v.unsubs = append(v.unsubs,
		v.bus.Subscribe([]events.Type{events.ClientCreated}, func(events.Envelope) {
			ctx := context.Background()
			v.refetchClients(ctx)
			v.refetchRegistrations(ctx)
			v.refetchTasks(ctx)
		}),
		v.bus.Subscribe([]events.Type{events.AppointmentCreated}, func(events.Envelope) {
			v.refetchAppointments(context.Background())
		}),
		v.bus.Subscribe([]events.Type{events.NoteCreated, events.NoteUpdated, events.NoteDeleted}, func(events.Envelope) {
			v.refetchNotes(context.Background())
		}),
		v.bus.Subscribe([]events.Type{events.TaskCreated}, func(events.Envelope) {
			v.refetchTasks(context.Background())
		}),
	)
}

// Unmount drops the event subscriptions. Safe to call more than once.
func (v *DashboardView) Unmount() {
	for _, unsub := range v.unsubs {
		unsub()
	}
}

// Snapshot derives the dashboard payload from the current caches.
func (v *DashboardView) Snapshot() DashboardSnapshot {
	v.mu.RLock()
	defer v.mu.RUnlock()

	now := v.now()
	plans := schedule.ActivePlans(v.notes)

	return DashboardSnapshot{
		Clients:       v.clients,
		Doctors:       v.doctors,
		Registrations: v.registrations,
		Tasks:         v.tasks,

		TodaySessions:  schedule.TodaySessions(v.appointments, now),
		TodayReminders: schedule.TodayReminders(v.notes, now),

		Week:                schedule.WeekSessions(v.appointments, now),
		ActivePlans:         len(plans),
		PlansEndingThisWeek: schedule.PlansEndingThisWeek(plans, now),
	}
}

// SearchClients filters the cached roster by a case-insensitive substring
// match on name, id, email or phone. An empty query returns everything.
func (v *DashboardView) SearchClients(query string) []clinicapi.Client {
	v.mu.RLock()
	defer v.mu.RUnlock()

	if query == "" {
		return v.clients
	}
	q := strings.ToLower(query)
	var hits []clinicapi.Client
	for _, c := range v.clients {
		name := strings.ToLower(c.FirstName + " " + c.LastName)
		if strings.Contains(name, q) ||
			strings.Contains(strings.ToLower(c.ID), q) ||
			strings.Contains(strings.ToLower(c.Email), q) ||
			strings.Contains(c.Phone, q) {
			hits = append(hits, c)
		}
	}
	return hits
}

// RemoveNote drops a note from the cache without a refetch. Used after a
// complete or delete so the reminder disappears immediately even if the
// follow-up event is lost.
func (v *DashboardView) RemoveNote(id string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	// Filter into a fresh slice: the old backing array may still be held
	// by a snapshot that is being encoded.
	kept := make([]clinicapi.Note, 0, len(v.notes))
	for _, n := range v.notes {
		if n.ID != id {
			kept = append(kept, n)
		}
	}
	v.notes = kept
}

// RemoveTask drops a completed task from the cache without a refetch.
func (v *DashboardView) RemoveTask(id string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	kept := make([]clinicapi.Task, 0, len(v.tasks))
	for _, t := range v.tasks {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	v.tasks = kept
}

func (v *DashboardView) refetchClients(ctx context.Context) {
	out, err := v.api.ListClients(ctx)
	if err != nil {
		v.logger.Error("refetch clients failed", "error", err)
		return
	}
	v.mu.Lock()
	v.clients = out
	v.mu.Unlock()
}

func (v *DashboardView) refetchDoctors(ctx context.Context) {
	out, err := v.api.ListDoctors(ctx)
	if err != nil {
		v.logger.Error("refetch doctors failed", "error", err)
		return
	}
	v.mu.Lock()
	v.doctors = out
	v.mu.Unlock()
}

func (v *DashboardView) refetchRegistrations(ctx context.Context) {
	out, err := v.api.ListRegistrations(ctx)
	if err != nil {
		v.logger.Error("refetch registrations failed", "error", err)
		return
	}
	v.mu.Lock()
	v.registrations = out
	v.mu.Unlock()
}

func (v *DashboardView) refetchAppointments(ctx context.Context) {
	out, err := v.api.ListAppointments(ctx)
	if err != nil {
		v.logger.Error("refetch appointments failed", "error", err)
		return
	}
	v.mu.Lock()
	v.appointments = out
	v.mu.Unlock()
}

func (v *DashboardView) refetchNotes(ctx context.Context) {
	out, err := v.api.ListNotes(ctx)
	if err != nil {
		v.logger.Error("refetch notes failed", "error", err)
		return
	}
	v.mu.Lock()
	v.notes = out
	v.mu.Unlock()
}

func (v *DashboardView) refetchTasks(ctx context.Context) {
	out, err := v.api.ListTasks(ctx)
	if err != nil {
		v.logger.Error("refetch tasks failed", "error", err)
		return
	}
	v.mu.Lock()
	v.tasks = out
	v.mu.Unlock()
}
