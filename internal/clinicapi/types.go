package clinicapi

// Client is a clinic client record. Immutable from this layer once created.
type Client struct {
	ID          string `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	DateOfBirth string `json:"date_of_birth"`
	Gender      string `json:"gender"`
}

// NewClient is the create-client payload.
type NewClient struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	DateOfBirth string `json:"date_of_birth"`
	Gender      string `json:"gender"`
}

// Doctor is a read-only roster entry used to assign appointments.
type Doctor struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// Appointment as stored by the backend. Datetime is ISO-8601 UTC with an
// explicit Z offset and second precision ("2026-01-29T09:00:00Z").
type Appointment struct {
	ID       string `json:"id"`
	Doctor   string `json:"doctor"`
	Client   string `json:"client"`
	Datetime string `json:"datetime"`
	Purpose  string `json:"purpose"`
	Duration int    `json:"duration"`
	Status   string `json:"status"`
}

// NewAppointment is the create-appointment payload.
type NewAppointment struct {
	Doctor   string `json:"doctor"`
	Client   string `json:"client"`
	Datetime string `json:"datetime"`
	Purpose  string `json:"purpose"`
	Duration int    `json:"duration"`
}

// AvailabilityResult is the pre-flight conflict check response.
type AvailabilityResult struct {
	Available bool   `json:"available"`
	Message   string `json:"message,omitempty"`
}

// Note is a staff note, optionally carrying a reminder pair that surfaces
// it on the dashboard. Completed notes drop out of "today's reminders".
type Note struct {
	ID           string  `json:"id"`
	NoteType     string  `json:"note_type"`
	Content      string  `json:"content"`
	ClientID     *string `json:"client_id"`
	ReminderDate string  `json:"reminder_date,omitempty"`
	ReminderTime string  `json:"reminder_time,omitempty"`
	Completed    bool    `json:"completed"`
}

// NewNote is the create-note payload.
type NewNote struct {
	NoteType     string  `json:"note_type"`
	Content      string  `json:"content"`
	ClientID     *string `json:"client_id"`
	ReminderDate string  `json:"reminder_date,omitempty"`
	ReminderTime string  `json:"reminder_time,omitempty"`
}

// Task is a front-desk to-do item.
type Task struct {
	ID        string `json:"id"`
	Task      string `json:"task"`
	Type      string `json:"type"`
	Priority  string `json:"priority"`
	Completed bool   `json:"completed"`
}

// NewTask is the create-task payload.
type NewTask struct {
	Task     string `json:"task"`
	Type     string `json:"type"`
	Priority string `json:"priority"`
}

// Registration is a read-only signup record from the external site.
type Registration struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}
