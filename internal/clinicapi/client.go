// Package clinicapi is the typed client for the clinic backend REST API.
// Every collection the dashboard shows is owned by the backend; this client
// only reads and creates records, it never caches.
package clinicapi

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/mbctherapy/clinic-dashboard/internal/gateway"
)

// API wraps the gateway with the backend's endpoint surface.
type API struct {
	gw *gateway.Gateway
}

// New constructs the typed backend client.
func New(gw *gateway.Gateway) *API {
	if gw == nil {
		panic("clinicapi: gateway required")
	}
	return &API{gw: gw}
}

// ListClients returns the full client roster.
func (a *API) ListClients(ctx context.Context) ([]Client, error) {
	var out []Client
	if err := a.gw.DoJSON(ctx, http.MethodGet, "/api/clients", nil, &out); err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	return out, nil
}

// CreateClient registers a new client.
func (a *API) CreateClient(ctx context.Context, req NewClient) (*Client, error) {
	var out Client
	if err := a.gw.DoJSON(ctx, http.MethodPost, "/api/clients", req, &out); err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	return &out, nil
}

// ListDoctors returns the doctor roster.
func (a *API) ListDoctors(ctx context.Context) ([]Doctor, error) {
	var out []Doctor
	if err := a.gw.DoJSON(ctx, http.MethodGet, "/api/doctors", nil, &out); err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	return out, nil
}

// ListRegistrations returns external-site signups.
func (a *API) ListRegistrations(ctx context.Context) ([]Registration, error) {
	var out []Registration
	if err := a.gw.DoJSON(ctx, http.MethodGet, "/api/registrations", nil, &out); err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	return out, nil
}

// ListAppointments returns all appointments; callers filter client-side.
func (a *API) ListAppointments(ctx context.Context) ([]Appointment, error) {
	var out []Appointment
	if err := a.gw.DoJSON(ctx, http.MethodGet, "/api/appointments", nil, &out); err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return out, nil
}

// CheckAvailability asks the backend whether the (doctor, datetime,
// duration) tuple conflicts with an existing booking. datetime must be the
// Z-suffixed ISO form the backend stores.
func (a *API) CheckAvailability(ctx context.Context, doctor, datetime string, duration int) (*AvailabilityResult, error) {
	q := url.Values{}
	q.Set("doctor", doctor)
	q.Set("datetime_str", datetime)
	q.Set("duration", strconv.Itoa(duration))

	var out AvailabilityResult
	path := "/api/appointments/check-availability?" + q.Encode()
	if err := a.gw.DoJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, fmt.Errorf("check availability: %w", err)
	}
	return &out, nil
}

// CreateAppointment books an appointment. Callers are expected to have run
// the availability pre-flight first.
func (a *API) CreateAppointment(ctx context.Context, req NewAppointment) (*Appointment, error) {
	var out Appointment
	if err := a.gw.DoJSON(ctx, http.MethodPost, "/api/appointments", req, &out); err != nil {
		return nil, fmt.Errorf("create appointment: %w", err)
	}
	return &out, nil
}

// ListNotes returns all notes.
func (a *API) ListNotes(ctx context.Context) ([]Note, error) {
	var out []Note
	if err := a.gw.DoJSON(ctx, http.MethodGet, "/api/notes", nil, &out); err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return out, nil
}

// CreateNote stores a note.
func (a *API) CreateNote(ctx context.Context, req NewNote) (*Note, error) {
	var out Note
	if err := a.gw.DoJSON(ctx, http.MethodPost, "/api/notes", req, &out); err != nil {
		return nil, fmt.Errorf("create note: %w", err)
	}
	return &out, nil
}

// CompleteNote marks a note completed.
func (a *API) CompleteNote(ctx context.Context, id string) error {
	path := fmt.Sprintf("/api/notes/%s/complete", url.PathEscape(id))
	if err := a.gw.DoJSON(ctx, http.MethodPatch, path, nil, nil); err != nil {
		return fmt.Errorf("complete note: %w", err)
	}
	return nil
}

// DeleteNote removes a note.
func (a *API) DeleteNote(ctx context.Context, id string) error {
	path := fmt.Sprintf("/api/notes/%s", url.PathEscape(id))
	if err := a.gw.DoJSON(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	return nil
}

// ListTasks returns pending tasks.
func (a *API) ListTasks(ctx context.Context) ([]Task, error) {
	var out []Task
	if err := a.gw.DoJSON(ctx, http.MethodGet, "/api/tasks", nil, &out); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return out, nil
}

// CreateTask stores a task.
func (a *API) CreateTask(ctx context.Context, req NewTask) (*Task, error) {
	var out Task
	if err := a.gw.DoJSON(ctx, http.MethodPost, "/api/tasks", req, &out); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return &out, nil
}

// CompleteTask flags a task done via the query-string toggle.
func (a *API) CompleteTask(ctx context.Context, id string) error {
	path := fmt.Sprintf("/api/tasks/%s?completed=true", url.PathEscape(id))
	if err := a.gw.DoJSON(ctx, http.MethodPatch, path, nil, nil); err != nil {
		return fmt.Errorf("complete task: %w", err)
	}
	return nil
}
