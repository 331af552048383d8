// Package main loads sample data for local development.
//
// It creates (or reuses) a demo account, clears that account's tasks, and
// inserts ten sample tasks with a mix of completed and active states.
//
// Usage:
//
//	go run ./cmd/seed                 # seeds data/tasklist.db
//	DB_PATH=/tmp/x.db go run ./cmd/seed
//
// Log in afterwards with demo@example.com / password123.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/nahid/tasklist/internal/apperror"
	"github.com/nahid/tasklist/internal/auth"
	"github.com/nahid/tasklist/internal/model"
	"github.com/nahid/tasklist/internal/repository/sqlite"
)

const (
	demoEmail    = "demo@example.com"
	demoPassword = "password123"
)

// sampleTasks are inserted newest-last, so the list endpoint returns them
// in reverse of this order.
var sampleTasks = []struct {
	title     string
	completed bool
}{
	{"Complete Go tutorial", true},
	{"Set up SQLite database", true},
	{"Implement user authentication", false},
	{"Add ownership checks to task routes", false},
	{"Write unit tests for the service layer", false},
	{"Design responsive layout", true},
	{"Configure production deployment", false},
	{"Review code and refactor", false},
	{"Update documentation", true},
	{"Set up CI/CD pipeline", false},
}

func main() {
	_ = godotenv.Load()

	dbPath := "data/tasklist.db"
	if envDB := os.Getenv("DB_PATH"); envDB != "" {
		dbPath = envDB
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		fmt.Fprintf(os.Stderr, "creating database directory: %v\n", err)
		os.Exit(1)
	}

	db, err := sqlite.New(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "opening database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx := context.Background()

	user, err := ensureDemoUser(ctx, db)
	if err != nil {
		fmt.Fprintf(os.Stderr, "creating demo user: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Creating sample tasks...")

	// Reset the demo user's tasks so reseeding is idempotent.
	if err := db.Tasks().DeleteByOwner(ctx, user.ID); err != nil {
		fmt.Fprintf(os.Stderr, "clearing existing tasks: %v\n", err)
		os.Exit(1)
	}

	active, completed := 0, 0
	for _, st := range sampleTasks {
		task := &model.Task{
			Title:     st.title,
			Completed: st.completed,
			UserID:    user.ID,
		}
		if err := db.Tasks().Create(ctx, task); err != nil {
			fmt.Fprintf(os.Stderr, "creating task %q: %v\n", st.title, err)
			os.Exit(1)
		}
		state := "active"
		if st.completed {
			state = "completed"
			completed++
		} else {
			active++
		}
		fmt.Printf("  Created: %s (%s)\n", st.title, state)
	}

	fmt.Printf("\nDone! Created %d tasks for %s.\n", len(sampleTasks), demoEmail)
	fmt.Printf("  - Active: %d\n", active)
	fmt.Printf("  - Completed: %d\n", completed)
}

// ensureDemoUser returns the demo account, creating it on first run.
func ensureDemoUser(ctx context.Context, db *sqlite.DB) (*model.User, error) {
	users := db.Users()

	user, err := users.GetByEmail(ctx, demoEmail)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, err
	}

	hash, err := auth.NewPasswordService().Hash(demoPassword)
	if err != nil {
		return nil, err
	}

	user = &model.User{
		Email:        demoEmail,
		PasswordHash: hash,
	}
	if err := users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
