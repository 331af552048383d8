// Package service — authentication business logic.
//
// AuthService sits between the HTTP handlers and the repository/auth
// utilities:
//
//	AuthHandler (HTTP) → AuthService (rules) → UserRepository (DB)
//	                   ↘ TokenService (JWT) / PasswordService (bcrypt)
//
// It owns the account rules (email shape, password length, what "wrong
// password" turns into) and leaves cookies and status codes to the handler.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nahid/tasklist/internal/apperror"
	"github.com/nahid/tasklist/internal/auth"
	"github.com/nahid/tasklist/internal/model"
	"github.com/nahid/tasklist/internal/repository"
)

// MinPasswordLength is the floor for new account passwords. bcrypt caps
// the ceiling at 72 bytes (enforced in PasswordService).
const MinPasswordLength = 8

// AuthService handles registration, login, and the GitHub OAuth upsert.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all dependencies injected.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the user record with the issued JWT so the handler can
// set the cookie and write the response in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// Register creates a new email/password account and logs it in.
//
// Validation here, hashing in PasswordService, uniqueness in the store
// (duplicate email surfaces as ErrConflict). On success the caller gets a
// ready-to-set session token.
func (s *AuthService) Register(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperror.ValidationFailed("email", "a valid email address is required")
	}
	if len(password) < MinPasswordLength {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, apperror.ValidationFailed("password", err.Error())
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: registering %s: %w", email, err)
	}

	s.logger.Info("user registered", slog.String("userID", user.ID))

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	return &AuthResult{User: user, Token: token}, nil
}

// Login authenticates an email/password pair.
//
// Unknown email and wrong password both come back as the same Unauthorized
// error — the response must not reveal which half was wrong.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, apperror.Unauthorized("invalid email or password")
	}

	if user.PasswordHash == "" {
		// OAuth-only account — no password to check against.
		return nil, apperror.Unauthorized("invalid email or password")
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, apperror.Unauthorized("invalid email or password")
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	return &AuthResult{User: user, Token: token}, nil
}

// LoginOrRegisterGitHub completes the GitHub OAuth callback: upsert the
// user (insert on first login, refresh profile on later ones) and issue a
// session token.
//
// GitHub may hide the user's email; the users table requires a unique one,
// so we fall back to the noreply address GitHub itself uses for private
// commits.
func (s *AuthService) LoginOrRegisterGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*AuthResult, error) {
	if ghUser == nil {
		return nil, fmt.Errorf("service/auth: GitHub user must not be nil")
	}

	email := ghUser.Email
	if email == "" {
		email = fmt.Sprintf("%d+%s@users.noreply.github.com", ghUser.ID, ghUser.Login)
	}

	user := &model.User{
		Email:    email,
		GitHubID: ghUser.ID,
		Login:    ghUser.Login,
	}

	if err := s.users.UpsertGitHub(ctx, user); err != nil {
		return nil, fmt.Errorf("service/auth: upserting user (githubID=%d): %w", ghUser.ID, err)
	}

	s.logger.Info("user authenticated via GitHub",
		slog.String("userID", user.ID),
		slog.String("login", user.Login),
	)

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	return &AuthResult{User: user, Token: token}, nil
}

// GetUserByID returns the user for the given internal ID. Used by the
// /api/me handler after the middleware has validated the session.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, fmt.Errorf("service/auth: user ID must not be empty")
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %s: %w", id, err)
	}

	return user, nil
}
