// Package repository defines the storage interfaces the service layer
// depends on, plus the Filter type used to scope task listings.
//
// The concrete SQLite implementations live in repository/sqlite. Services
// receive these interfaces — never the concrete types — so tests can inject
// in-memory mocks and the storage backend can change without touching
// business logic.
package repository

import (
	"context"

	"github.com/nahid/tasklist/internal/model"
)

// Filter selects which subset of a user's tasks to return from a listing.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterActive    Filter = "active"    // completed == false
	FilterCompleted Filter = "completed" // completed == true
)

// ParseFilter maps a caller-supplied keyword to a Filter.
//
// Unrecognized or absent values silently fall back to FilterAll — a filter
// is a view preference, not an input worth rejecting a request over. The
// resolved value is echoed back to the caller so clients can highlight the
// active tab.
func ParseFilter(s string) Filter {
	switch Filter(s) {
	case FilterActive:
		return FilterActive
	case FilterCompleted:
		return FilterCompleted
	default:
		return FilterAll
	}
}

// TaskCounts reports how many of a user's tasks are open vs done,
// independent of the filter applied to a listing. Clients use it for the
// filter-tab badges.
type TaskCounts struct {
	Active    int `json:"active"`
	Completed int `json:"completed"`
}

// TaskRepository is the persistence contract for tasks.
//
// ListByOwner is the ownership-scoped query: it only ever returns tasks
// whose user_id matches ownerID, regardless of filter. Ordering is
// created_at descending with id as a deterministic tie-breaker.
type TaskRepository interface {
	Create(ctx context.Context, task *model.Task) error
	GetByID(ctx context.Context, id string) (*model.Task, error)
	ListByOwner(ctx context.Context, ownerID string, filter Filter) ([]model.Task, error)
	CountByOwner(ctx context.Context, ownerID string) (TaskCounts, error)
	Update(ctx context.Context, task *model.Task) error
	Delete(ctx context.Context, id string) error
}

// UserRepository is the persistence contract for user accounts.
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// UpsertGitHub inserts or updates a user keyed on their GitHub ID.
	// Used by the OAuth callback: first login inserts, later logins refresh
	// the profile while keeping the internal ID stable.
	UpsertGitHub(ctx context.Context, user *model.User) error
}
