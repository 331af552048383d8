// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

import "time"

// Task is a single to-do item belonging to exactly one user.
//
// The `json:"..."` tags tell Go's encoding/json package how to serialize this
// struct in API responses. UserID is included so clients can confirm ownership,
// but it is never writable through the API — the service assigns it at creation
// and it can never change afterwards.
//
// Completed defaults to the zero value (false), which matches the database
// default. Title must be non-empty; that invariant is enforced in the service
// layer before any write reaches the repository.
type Task struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	UserID    string    `json:"userId"` // owner — set once at creation, immutable
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
