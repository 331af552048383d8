package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/nahid/tasklist/internal/apperror"
	"github.com/nahid/tasklist/internal/model"
	"github.com/nahid/tasklist/internal/repository"
)

// compile-time check that *UserStore implements repository.UserRepository
var _ repository.UserRepository = (*UserStore)(nil)

// UserStore persists user accounts. It shares the connection pool owned by DB.
type UserStore struct {
	conn *sql.DB
}

const userColumns = `id, email, password_hash, github_id, login, created_at, updated_at`

func scanUser(row *sql.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PasswordHash,
		&u.GitHubID,
		&u.Login,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user with an email/password credential.
// Returns apperror.ErrConflict if the email is already registered — the
// UNIQUE constraint on email is the source of truth, we just translate the
// driver's constraint error into a domain error.
func (s *UserStore) Create(ctx context.Context, user *model.User) error {
	now := time.Now()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := s.conn.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, github_id, login, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		user.PasswordHash,
		user.GitHubID,
		user.Login,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		// modernc.org/sqlite reports constraint violations as plain errors;
		// "UNIQUE constraint failed" in the message is the reliable signal.
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return apperror.Conflict("user", user.Email)
		}
		return fmt.Errorf("sqlite: inserting user %s: %w", user.Email, err)
	}

	return nil
}

// GetByID retrieves a user by their internal ID.
// Returns apperror.ErrNotFound if no user exists with that ID.
func (s *UserStore) GetByID(ctx context.Context, id string) (*model.User, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id,
	)
	u, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return u, nil
}

// GetByEmail retrieves a user by their email address (login lookup).
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	row := s.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email,
	)
	u, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("user", email)
		}
		return nil, fmt.Errorf("sqlite: getting user by email %s: %w", email, err)
	}
	return u, nil
}

// UpsertGitHub inserts or updates a user based on their GitHub ID.
//
// We look up by github_id first: if the user exists we keep their internal
// ID (tasks reference it) and refresh email/login in case they changed them
// on GitHub; otherwise we insert a fresh row. Two queries instead of
// INSERT OR REPLACE because REPLACE would delete and re-insert the row —
// and its dependent tasks with it, once foreign keys cascade.
func (s *UserStore) UpsertGitHub(ctx context.Context, user *model.User) error {
	if user.GitHubID == 0 {
		return fmt.Errorf("sqlite: upserting user: GitHub ID must not be zero")
	}

	var existingID string
	var createdAt time.Time
	err := s.conn.QueryRowContext(ctx,
		`SELECT id, created_at FROM users WHERE github_id = ?`, user.GitHubID,
	).Scan(&existingID, &createdAt)

	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("sqlite: looking up user by github_id %d: %w", user.GitHubID, err)
	}

	if existingID != "" {
		user.ID = existingID
		user.CreatedAt = createdAt
		user.UpdatedAt = time.Now()
		_, err = s.conn.ExecContext(ctx,
			`UPDATE users SET email = ?, login = ?, updated_at = ?
			 WHERE id = ?`,
			user.Email,
			user.Login,
			user.UpdatedAt,
			user.ID,
		)
		if err != nil {
			return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
		}
		return nil
	}

	now := time.Now()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err = s.conn.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, github_id, login, created_at, updated_at)
		 VALUES (?, ?, '', ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		user.GitHubID,
		user.Login,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting user (githubID=%d): %w", user.GitHubID, err)
	}

	return nil
}
