package views

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/mbctherapy/clinic-dashboard/internal/booking"
	"github.com/mbctherapy/clinic-dashboard/internal/clinicapi"
	"github.com/mbctherapy/clinic-dashboard/internal/events"
	"github.com/mbctherapy/clinic-dashboard/internal/gateway"
	"github.com/mbctherapy/clinic-dashboard/internal/notes"
	"github.com/mbctherapy/clinic-dashboard/internal/observability/metrics"
	"github.com/mbctherapy/clinic-dashboard/internal/tasks"
	"github.com/mbctherapy/clinic-dashboard/pkg/logging"
)

type bookingService interface {
	Book(ctx context.Context, req booking.Request) (*clinicapi.Appointment, error)
}

type notesService interface {
	Create(ctx context.Context, req notes.Request) (*clinicapi.Note, error)
	Complete(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

type tasksService interface {
	Create(ctx context.Context, req tasks.Request) (*clinicapi.Task, error)
	Complete(ctx context.Context, id string) error
}

type clientCreator interface {
	CreateClient(ctx context.Context, req clinicapi.NewClient) (*clinicapi.Client, error)
}

// Handler serves the view snapshots and the write-through operations.
type Handler struct {
	dashboard *DashboardView
	api       readAPI
	clients   clientCreator
	booking   bookingService
	notes     notesService
	tasks     tasksService
	bus       events.Bus
	gatherer  prometheus.Gatherer
	logger    *logging.Logger
}

type HandlerConfig struct {
	Dashboard *DashboardView
	API       readAPI
	Clients   clientCreator
	Booking   bookingService
	Notes     notesService
	Tasks     tasksService
	Bus       events.Bus
	Gatherer  prometheus.Gatherer
	Logger    *logging.Logger
}

func NewHandler(cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		dashboard: cfg.Dashboard,
		api:       cfg.API,
		clients:   cfg.Clients,
		booking:   cfg.Booking,
		notes:     cfg.Notes,
		tasks:     cfg.Tasks,
		bus:       cfg.Bus,
		gatherer:  cfg.Gatherer,
		logger:    logger.Component("views_http"),
	}
}

// Routes mounts the view endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/dashboard", h.getDashboard)
	r.Get("/dashboard/clients", h.searchClients)
	r.Get("/doctors/{name}/dashboard", h.getDoctorDashboard)
	r.Get("/status", h.getStatus)

	r.Post("/appointments", h.createAppointment)
	r.Post("/clients", h.createClient)

	r.Post("/notes", h.createNote)
	r.Patch("/notes/{id}/complete", h.completeNote)
	r.Delete("/notes/{id}", h.deleteNote)

	r.Post("/tasks", h.createTask)
	r.Patch("/tasks/{id}/complete", h.completeTask)
}

func (h *Handler) getDashboard(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.dashboard.Snapshot())
}

func (h *Handler) searchClients(w http.ResponseWriter, r *http.Request) {
	hits := h.dashboard.SearchClients(r.URL.Query().Get("q"))
	if hits == nil {
		hits = []clinicapi.Client{}
	}
	h.writeJSON(w, http.StatusOK, hits)
}

// getDoctorDashboard mounts a doctor view for the duration of the request.
// The snapshot pattern keeps the per-doctor state out of the process.
func (h *Handler) getDoctorDashboard(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		h.writeError(w, http.StatusBadRequest, "doctor name is required")
		return
	}

	view := NewDoctorView(h.api, nil, name, h.logger)
	view.Mount(r.Context())
	h.writeJSON(w, http.StatusOK, view.Snapshot())
}

func (h *Handler) getStatus(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"status":          "ok",
		"gateway_latency": metrics.SnapshotGatewayLatency(h.gatherer),
	})
}

type appointmentRequest struct {
	Doctor   string `json:"doctor"`
	Client   string `json:"client"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Duration int    `json:"duration"`
	Purpose  string `json:"purpose"`
}

func (h *Handler) createAppointment(w http.ResponseWriter, r *http.Request) {
	var req appointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Doctor == "" {
		req.Doctor = h.firstDoctor(r.Context())
	}

	appt, err := h.booking.Book(r.Context(), booking.Request{
		Doctor:   req.Doctor,
		Client:   req.Client,
		Date:     req.Date,
		Time:     req.Time,
		Duration: req.Duration,
		Purpose:  req.Purpose,
	})
	if err != nil {
		h.writeBookingError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, appt)
}

func (h *Handler) createClient(w http.ResponseWriter, r *http.Request) {
	var req clinicapi.NewClient
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.FirstName == "" || req.LastName == "" {
		h.writeError(w, http.StatusBadRequest, "first_name and last_name are required")
		return
	}

	client, err := h.clients.CreateClient(r.Context(), req)
	if err != nil {
		h.writeUpstreamError(w, err)
		return
	}

	if h.bus != nil {
		if err := events.Publish(r.Context(), h.bus, events.ClientCreated, client); err != nil {
			h.logger.Error("publish client:created failed", "error", err)
		}
	}
	h.writeJSON(w, http.StatusCreated, client)
}

type noteRequest struct {
	NoteType     string  `json:"note_type"`
	Content      string  `json:"content"`
	ClientID     *string `json:"client_id"`
	ReminderDate string  `json:"reminder_date"`
	ReminderTime string  `json:"reminder_time"`
}

func (h *Handler) createNote(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	note, err := h.notes.Create(r.Context(), notes.Request{
		NoteType:     req.NoteType,
		Content:      req.Content,
		ClientID:     req.ClientID,
		ReminderDate: req.ReminderDate,
		ReminderTime: req.ReminderTime,
	})
	if err != nil {
		if isValidationError(err) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.writeUpstreamError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, note)
}

func (h *Handler) completeNote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.notes.Complete(r.Context(), id); err != nil {
		h.writeUpstreamError(w, err)
		return
	}
	// Drop it locally so the reminder disappears immediately.
	h.dashboard.RemoveNote(id)
	h.writeJSON(w, http.StatusOK, map[string]any{"id": id, "completed": true})
}

func (h *Handler) deleteNote(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.notes.Delete(r.Context(), id); err != nil {
		h.writeUpstreamError(w, err)
		return
	}
	h.dashboard.RemoveNote(id)
	w.WriteHeader(http.StatusNoContent)
}

type taskRequest struct {
	Task     string `json:"task"`
	Type     string `json:"type"`
	Priority string `json:"priority"`
}

func (h *Handler) createTask(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	task, err := h.tasks.Create(r.Context(), tasks.Request{
		Task:     req.Task,
		Type:     req.Type,
		Priority: req.Priority,
	})
	if err != nil {
		if isValidationError(err) {
			h.writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.writeUpstreamError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, task)
}

func (h *Handler) completeTask(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.tasks.Complete(r.Context(), id); err != nil {
		h.writeUpstreamError(w, err)
		return
	}
	h.dashboard.RemoveTask(id)
	h.writeJSON(w, http.StatusOK, map[string]any{"id": id, "completed": true})
}

// firstDoctor mirrors the booking form's preselection: an omitted doctor
// means the first one on the roster.
func (h *Handler) firstDoctor(ctx context.Context) string {
	doctors, err := h.api.ListDoctors(ctx)
	if err != nil || len(doctors) == 0 {
		return ""
	}
	return doctors[0].FullName
}

func (h *Handler) writeBookingError(w http.ResponseWriter, err error) {
	var unavail *booking.UnavailableError
	if errors.As(err, &unavail) {
		h.writeError(w, http.StatusConflict, unavail.Error())
		return
	}
	if isValidationError(err) {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.writeUpstreamError(w, err)
}

// writeUpstreamError maps backend failures onto this service's responses:
// an APIError keeps its upstream status, anything else is a bad gateway.
func (h *Handler) writeUpstreamError(w http.ResponseWriter, err error) {
	var apiErr *gateway.APIError
	if errors.As(err, &apiErr) {
		detail := apiErr.Detail
		if detail == "" {
			detail = http.StatusText(apiErr.Status)
		}
		h.writeError(w, apiErr.Status, detail)
		return
	}
	h.logger.Error("upstream request failed", "error", err)
	h.writeError(w, http.StatusBadGateway, "clinic backend unavailable")
}

func isValidationError(err error) bool {
	for _, sentinel := range []error{
		booking.ErrNoDoctor, booking.ErrNoClient, booking.ErrNoDate, booking.ErrNoTime,
		booking.ErrPastDate, booking.ErrPastTime, booking.ErrInvalidDuration,
		notes.ErrEmptyContent, notes.ErrReminderDateIsPast, notes.ErrReminderTimeIsPast,
		notes.ErrReminderTimeOnly, notes.ErrReminderDateOnly,
		tasks.ErrEmptyTask,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("encode response failed", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
