package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/nahid/tasklist/internal/apperror"
	"github.com/nahid/tasklist/internal/model"
	"github.com/nahid/tasklist/internal/repository"
)

// Compile-time check that *TaskStore implements repository.TaskRepository.
// If a method goes missing, the compiler errors here instead of at some
// distant call site.
var _ repository.TaskRepository = (*TaskStore)(nil)

// TaskStore persists tasks. It shares the connection pool owned by DB.
type TaskStore struct {
	conn *sql.DB
}

// Create inserts a new task.
//
// The store owns identity: it generates the xid and timestamps here, and
// writes them back through the pointer so the caller gets the full record.
// xid strings are 20 chars, URL-safe, and sortable by creation time — which
// is what makes `ORDER BY created_at DESC, id DESC` a stable ordering even
// when two tasks share a timestamp.
func (s *TaskStore) Create(ctx context.Context, task *model.Task) error {
	task.ID = xid.New().String()

	now := time.Now()
	task.CreatedAt = now
	task.UpdatedAt = now

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO tasks (id, title, completed, user_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		task.ID,
		task.Title,
		task.Completed,
		task.UserID,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating task: %w", err)
	}

	return nil
}

// GetByID retrieves a single task by its ID, owner or not — the
// authorization decision belongs to the service layer, which needs the
// owner field to distinguish "not found" from "not yours".
func (s *TaskStore) GetByID(ctx context.Context, id string) (*model.Task, error) {
	var task model.Task

	err := s.conn.QueryRowContext(ctx,
		`SELECT id, title, completed, user_id, created_at, updated_at
		 FROM tasks
		 WHERE id = ?`,
		id,
	).Scan(
		&task.ID,
		&task.Title,
		&task.Completed,
		&task.UserID,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		// sql.ErrNoRows is a sentinel, not a real failure — translate it
		// into the domain's NotFound so handlers can map it to 404.
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("task", id)
		}
		return nil, fmt.Errorf("sqlite: getting task %s: %w", id, err)
	}

	return &task, nil
}

// ListByOwner returns the owner's tasks, optionally narrowed by filter.
//
// The query composes three independent stages, in this order:
//  1. ownership scope — WHERE user_id = ? is always present, so no filter
//     value can ever leak another user's tasks
//  2. status predicate — appended only for "active"/"completed"
//  3. ordering — created_at DESC, id DESC (newest first, deterministic ties)
//
// An empty result is normal, not an error.
func (s *TaskStore) ListByOwner(ctx context.Context, ownerID string, filter repository.Filter) ([]model.Task, error) {
	query := `SELECT id, title, completed, user_id, created_at, updated_at
		 FROM tasks
		 WHERE user_id = ?`

	switch filter {
	case repository.FilterActive:
		query += ` AND completed = 0`
	case repository.FilterCompleted:
		query += ` AND completed = 1`
	}

	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.conn.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]model.Task, 0)
	for rows.Next() {
		var t model.Task
		if err := rows.Scan(
			&t.ID, &t.Title, &t.Completed, &t.UserID,
			&t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning task row: %w", err)
		}
		tasks = append(tasks, t)
	}

	// rows.Err() catches failures that happened during iteration, e.g. the
	// connection dropping partway through.
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating tasks: %w", err)
	}

	return tasks, nil
}

// CountByOwner tallies the owner's tasks by status in one query.
// completed is stored as 0/1, so SUM(completed) is the completed count.
func (s *TaskStore) CountByOwner(ctx context.Context, ownerID string) (repository.TaskCounts, error) {
	var counts repository.TaskCounts

	err := s.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) - COALESCE(SUM(completed), 0), COALESCE(SUM(completed), 0)
		 FROM tasks
		 WHERE user_id = ?`,
		ownerID,
	).Scan(&counts.Active, &counts.Completed)
	if err != nil {
		return repository.TaskCounts{}, fmt.Errorf("sqlite: counting tasks for user %s: %w", ownerID, err)
	}

	return counts, nil
}

// Update writes the mutable fields (title, completed) of an existing task.
// id, user_id, and created_at are immutable and never touched.
//
// RowsAffected distinguishes a successful write from a vanished row: if the
// WHERE clause matched nothing, the task was deleted between the service's
// read and this write, and we report NotFound.
func (s *TaskStore) Update(ctx context.Context, task *model.Task) error {
	task.UpdatedAt = time.Now()

	result, err := s.conn.ExecContext(ctx,
		`UPDATE tasks
		 SET title = ?, completed = ?, updated_at = ?
		 WHERE id = ?`,
		task.Title,
		task.Completed,
		task.UpdatedAt,
		task.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating task %s: %w", task.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("task", task.ID)
	}

	return nil
}

// Delete removes a task permanently. No soft delete, no undo.
func (s *TaskStore) Delete(ctx context.Context, id string) error {
	result, err := s.conn.ExecContext(ctx,
		`DELETE FROM tasks WHERE id = ?`,
		id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting task %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("task", id)
	}

	return nil
}

// DeleteByOwner removes every task belonging to ownerID. Not part of
// repository.TaskRepository — it exists for the seed command, which resets
// the demo user's tasks before reloading the samples.
func (s *TaskStore) DeleteByOwner(ctx context.Context, ownerID string) error {
	if _, err := s.conn.ExecContext(ctx,
		`DELETE FROM tasks WHERE user_id = ?`, ownerID,
	); err != nil {
		return fmt.Errorf("sqlite: deleting tasks for user %s: %w", ownerID, err)
	}
	return nil
}
