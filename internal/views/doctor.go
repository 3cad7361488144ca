package views

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mbctherapy/clinic-dashboard/internal/clinicapi"
	"github.com/mbctherapy/clinic-dashboard/internal/events"
	"github.com/mbctherapy/clinic-dashboard/internal/schedule"
	"github.com/mbctherapy/clinic-dashboard/pkg/logging"
)

// DoctorSnapshot is one practitioner's schedule payload.
type DoctorSnapshot struct {
	Doctor        string             `json:"doctor"`
	TodaySessions []schedule.Session `json:"today_sessions"`
	Week          schedule.WeekStats `json:"week"`
	Weekdays      []schedule.Day     `json:"weekdays"`
	MyClients     []string           `json:"my_clients"`
}

// DoctorView shows a single doctor's appointments. The appointment cache
// holds the full collection; filtering happens at snapshot time so a
// refetch never needs to know whose view triggered it.
type DoctorView struct {
	api    readAPI
	bus    events.Bus
	logger *logging.Logger
	now    func() time.Time
	doctor string

	mu           sync.RWMutex
	appointments []clinicapi.Appointment

	unsubs []func()
}

func NewDoctorView(api readAPI, bus events.Bus, doctor string, logger *logging.Logger) *DoctorView {
	if api == nil {
		panic("views: nil api")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &DoctorView{
		api:    api,
		bus:    bus,
		logger: logger.Component("doctor_view"),
		now:    time.Now,
		doctor: doctor,
	}
}

// Mount loads the appointment collection and subscribes to bookings.
func (v *DoctorView) Mount(ctx context.Context) {
	v.refetch(ctx)
	if v.bus == nil {
		return
	}
	v.unsubs = append(v.unsubs,
		v.bus.Subscribe([]events.Type{events.AppointmentCreated}, func(events.Envelope) {
			v.refetch(context.Background())
		}),
	)
}

// Unmount drops the event subscriptions. Safe to call more than once.
func (v *DoctorView) Unmount() {
	for _, unsub := range v.unsubs {
		unsub()
	}
}

// Snapshot derives the doctor's schedule from the cache.
func (v *DoctorView) Snapshot() DoctorSnapshot {
	v.mu.RLock()
	defer v.mu.RUnlock()

	now := v.now()
	mine := schedule.FilterByDoctor(v.appointments, v.doctor)

	return DoctorSnapshot{
		Doctor:        v.doctor,
		TodaySessions: schedule.TodaySessions(mine, now),
		Week:          schedule.WeekSessions(mine, now),
		Weekdays:      schedule.WeekdayStrip(mine, now),
		MyClients:     clientNames(mine),
	}
}

// clientNames returns the distinct client names across the appointments,
// sorted for a stable payload.
func clientNames(appts []clinicapi.Appointment) []string {
	seen := map[string]struct{}{}
	var names []string
	for _, a := range appts {
		if a.Client == "" {
			continue
		}
		if _, ok := seen[a.Client]; ok {
			continue
		}
		seen[a.Client] = struct{}{}
		names = append(names, a.Client)
	}
	sort.Strings(names)
	return names
}

func (v *DoctorView) refetch(ctx context.Context) {
	out, err := v.api.ListAppointments(ctx)
	if err != nil {
		v.logger.Error("refetch appointments failed", "doctor", v.doctor, "error", err)
		return
	}
	v.mu.Lock()
	v.appointments = out
	v.mu.Unlock()
}
