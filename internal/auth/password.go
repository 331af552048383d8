// Package auth — password hashing utilities.
//
// bcrypt is deliberately slow; that slowness is the defence against
// brute-forcing a leaked hash table. It also generates and embeds a random
// salt per hash, so two users with the same password get different hashes
// and no separate salt column is needed.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// defaultCost is the bcrypt work factor. Cost 12 takes roughly a quarter
// second on current server hardware — negligible for a login, brutal for an
// attacker iterating a wordlist.
const defaultCost = 12

// PasswordService provides bcrypt hashing and verification.
//
// It's a struct rather than free functions so the cost can be lowered in
// tests — cost 4 makes the test suite fast without changing the logic under
// test.
type PasswordService struct {
	cost int
}

// NewPasswordService creates a PasswordService with the default cost.
func NewPasswordService() *PasswordService {
	return &PasswordService{cost: defaultCost}
}

// NewPasswordServiceForTest creates a PasswordService with a custom (low)
// cost. Do not use in production.
func NewPasswordServiceForTest(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// Hash hashes the given plaintext password with bcrypt. The output is a
// self-contained string (version, cost, salt, hash) that goes straight into
// the password_hash column.
//
// bcrypt silently truncates inputs over 72 bytes; we reject them explicitly
// so callers aren't surprised.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > 72 {
		return "", fmt.Errorf("auth: password must be 72 bytes or fewer")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}

	return string(hashed), nil
}

// Verify checks whether a plaintext password matches a stored bcrypt hash.
// Returns nil on match. The comparison inside bcrypt is constant-time.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return fmt.Errorf("auth: invalid password")
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}
