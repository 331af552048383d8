// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// Two login paths populate this struct:
//   - Email/password: Email + PasswordHash are set, GitHubID is 0.
//   - GitHub OAuth: GitHubID + Login are set, PasswordHash stays empty.
//
// The UNIQUE constraint on email ensures one account per address. We generate
// our own internal string ID (xid) rather than reusing a third party's
// numbering scheme, so tasks reference users consistently regardless of how
// the account was created.
//
// WHY PasswordHash `json:"-"`?
// The dash tells encoding/json to never serialize this field. A bcrypt hash
// is hard to reverse, but there is no reason to ever hand it to a client.
type User struct {
	ID           string    `json:"id"        db:"id"`
	Email        string    `json:"email"     db:"email"`
	PasswordHash string    `json:"-"         db:"password_hash"`
	GitHubID     int64     `json:"githubId,omitempty" db:"github_id"` // 0 when the account is password-only
	Login        string    `json:"login,omitempty"    db:"login"`     // GitHub username (OAuth accounts only)
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}
