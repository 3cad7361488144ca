// Package tasks manages the front-desk to-do list.
package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/mbctherapy/clinic-dashboard/internal/clinicapi"
	"github.com/mbctherapy/clinic-dashboard/internal/events"
	"github.com/mbctherapy/clinic-dashboard/pkg/logging"
)

const (
	// DefaultType is applied when a request carries no type.
	DefaultType = "note"
	// DefaultPriority is applied when a request carries no priority.
	DefaultPriority = "medium"
)

var ErrEmptyTask = errors.New("tasks: task text is required")

// Request describes the task to create. Type and Priority are free-form
// strings; the backend accepts whatever it is given.
type Request struct {
	Task     string
	Type     string
	Priority string
}

type api interface {
	CreateTask(ctx context.Context, in clinicapi.NewTask) (*clinicapi.Task, error)
	CompleteTask(ctx context.Context, id string) error
}

// Service creates and completes tasks.
type Service struct {
	api    api
	bus    events.Bus
	logger *logging.Logger
}

func NewService(api api, bus events.Bus, logger *logging.Logger) *Service {
	if api == nil {
		panic("tasks: nil api")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{api: api, bus: bus, logger: logger.Component("tasks")}
}

func (s *Service) Create(ctx context.Context, req Request) (*clinicapi.Task, error) {
	if req.Task == "" {
		return nil, ErrEmptyTask
	}
	if req.Type == "" {
		req.Type = DefaultType
	}
	if req.Priority == "" {
		req.Priority = DefaultPriority
	}

	task, err := s.api.CreateTask(ctx, clinicapi.NewTask{
		Task:     req.Task,
		Type:     req.Type,
		Priority: req.Priority,
	})
	if err != nil {
		return nil, fmt.Errorf("tasks: create: %w", err)
	}

	s.logger.Info("task created", "task_id", task.ID, "priority", task.Priority)

	if s.bus != nil {
		if err := events.Publish(ctx, s.bus, events.TaskCreated, task); err != nil {
			s.logger.Error("publish task:created failed", "error", err)
		}
	}
	return task, nil
}

// Complete marks the task done on the backend.
func (s *Service) Complete(ctx context.Context, id string) error {
	if err := s.api.CompleteTask(ctx, id); err != nil {
		return fmt.Errorf("tasks: complete %s: %w", id, err)
	}
	return nil
}
