// Package service contains the business logic layer of the application.
//
// The three layers, top to bottom:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, authorizes, orchestrates
//	Repository (Data layer)  → reads/writes the database
//
// TaskService takes repository.TaskRepository (an interface), not the
// concrete sqlite store, so tests inject an in-memory mock and the service
// never imports the sqlite package at all.
//
// Every method takes the acting user's ID as an explicit parameter. There is
// no ambient "current user" anywhere below the HTTP middleware — if you can
// call it, you can see exactly whose behalf it runs on.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nahid/tasklist/internal/apperror"
	"github.com/nahid/tasklist/internal/model"
	"github.com/nahid/tasklist/internal/repository"
)

// MaxTaskTitleLength caps task titles. Long enough for any sane to-do,
// short enough to keep list rendering and indexes reasonable.
const MaxTaskTitleLength = 100

// TaskService handles business logic for tasks: validation, ownership
// assignment, and the authorization gate in front of every per-task
// operation.
type TaskService struct {
	repo   repository.TaskRepository
	logger *slog.Logger
}

// NewTaskService creates a TaskService. The caller decides which repository
// implementation to inject (SQLite in production, a mock in tests).
func NewTaskService(repo repository.TaskRepository, logger *slog.Logger) *TaskService {
	return &TaskService{
		repo:   repo,
		logger: logger,
	}
}

// TaskPatch carries a partial update. Nil means "leave this field alone" —
// this is the explicit allow-list of mutable fields. Anything not in this
// struct (id, owner, timestamps) cannot be changed through Update, period.
type TaskPatch struct {
	Title     *string
	Completed *bool
}

// TaskList is the result of List: the tasks, the filter that was actually
// applied (so callers can tell what an unrecognized keyword resolved to),
// and the user's overall active/completed counts for the filter tabs.
type TaskList struct {
	Tasks  []model.Task          `json:"tasks"`
	Filter repository.Filter     `json:"filter"`
	Counts repository.TaskCounts `json:"counts"`
}

// requireUser enforces the hard precondition shared by every operation:
// a present, authenticated user. The service never defaults or invents an
// identity.
func requireUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return apperror.Unauthorized("authentication required")
	}
	return nil
}

// validateTitle applies the title invariant shared by Create and Update.
// The title is trimmed before checking, so whitespace-only titles are
// rejected along with empty ones.
func validateTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", apperror.ValidationFailed("title", "task title is required")
	}
	if len(title) > MaxTaskTitleLength {
		return "", apperror.ValidationFailed("title",
			fmt.Sprintf("task title must be %d characters or less", MaxTaskTitleLength))
	}
	return title, nil
}

// ownedTask is the authorization gate: fetch the task, then check ownership.
//
// The two failure modes stay distinct on purpose:
//   - id doesn't exist       → NotFound (maps to 404)
//   - exists, different owner → Forbidden (maps to 403)
//
// Forbidden deliberately does not echo the task's contents — the caller
// learns the id is taken, nothing more.
func (s *TaskService) ownedTask(ctx context.Context, userID, id string) (*model.Task, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "task ID is required")
	}

	task, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if task.UserID != userID {
		return nil, apperror.Forbidden("task belongs to another user")
	}

	return task, nil
}

// Create validates and saves a new task owned by userID.
//
// The owner is assigned here, not authorized — there is no prior record to
// check against. On validation failure nothing is persisted.
func (s *TaskService) Create(ctx context.Context, userID, title string, completed bool) (*model.Task, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	title, err := validateTitle(title)
	if err != nil {
		return nil, err
	}

	task := &model.Task{
		Title:     title,
		Completed: completed,
		UserID:    userID,
	}

	// The repo fills in ID and timestamps.
	if err := s.repo.Create(ctx, task); err != nil {
		s.logger.Error("failed to create task",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating task: %w", err)
	}

	s.logger.Info("task created",
		slog.String("id", task.ID),
		slog.String("userID", userID),
	)

	return task, nil
}

// List returns the user's tasks scoped by the given filter keyword.
//
// The keyword is resolved through repository.ParseFilter — "active" and
// "completed" narrow the set, anything else (including empty) means all.
// The resolved filter is echoed in the result. An empty list is a normal
// result, not an error.
func (s *TaskService) List(ctx context.Context, userID, filter string) (*TaskList, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	resolved := repository.ParseFilter(filter)

	tasks, err := s.repo.ListByOwner(ctx, userID, resolved)
	if err != nil {
		s.logger.Error("failed to list tasks",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing tasks: %w", err)
	}

	// Counts are always over the full set, not the filtered view — the tabs
	// show totals regardless of which one is selected.
	counts, err := s.repo.CountByOwner(ctx, userID)
	if err != nil {
		s.logger.Error("failed to count tasks",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("counting tasks: %w", err)
	}

	return &TaskList{
		Tasks:  tasks,
		Filter: resolved,
		Counts: counts,
	}, nil
}

// Get returns a single task if userID owns it.
func (s *TaskService) Get(ctx context.Context, userID, id string) (*model.Task, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	return s.ownedTask(ctx, userID, id)
}

// Update applies a partial update to a task userID owns.
//
// Fetch-then-update: the gate runs against the stored record, the patch is
// applied field-by-field to the fetched copy, the title invariant is
// re-checked, and only then does anything get written. On validation
// failure the store is untouched — all or nothing.
func (s *TaskService) Update(ctx context.Context, userID, id string, patch TaskPatch) (*model.Task, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	task, err := s.ownedTask(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		title, err := validateTitle(*patch.Title)
		if err != nil {
			return nil, err
		}
		task.Title = title
	}
	if patch.Completed != nil {
		task.Completed = *patch.Completed
	}

	if err := s.repo.Update(ctx, task); err != nil {
		s.logger.Error("failed to update task",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating task: %w", err)
	}

	s.logger.Info("task updated",
		slog.String("id", task.ID),
		slog.String("userID", userID),
	)

	return task, nil
}

// Toggle flips the task's completed flag.
//
// Toggling twice restores the original state — the operation is its own
// inverse, and callers rely on that. Once the gate passes, nothing can fail
// validation since only the boolean changes.
func (s *TaskService) Toggle(ctx context.Context, userID, id string) (*model.Task, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	task, err := s.ownedTask(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	task.Completed = !task.Completed

	if err := s.repo.Update(ctx, task); err != nil {
		s.logger.Error("failed to toggle task",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("toggling task: %w", err)
	}

	s.logger.Info("task toggled",
		slog.String("id", task.ID),
		slog.Bool("completed", task.Completed),
	)

	return task, nil
}

// Delete removes a task userID owns. Permanent — a subsequent Get on the
// same id reports NotFound.
func (s *TaskService) Delete(ctx context.Context, userID, id string) error {
	if err := requireUser(userID); err != nil {
		return err
	}

	if _, err := s.ownedTask(ctx, userID, id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete task",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("deleting task: %w", err)
	}

	s.logger.Info("task deleted", slog.String("id", id))
	return nil
}
