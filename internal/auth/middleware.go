package auth

import (
	"context"
	"net/http"
)

// contextKey is an unexported type for context keys in this package.
// A plain string key could be read or shadowed by any package that guesses
// the string; a package-private type can't collide.
type contextKey string

const userIDKey contextKey = "userID"

// SessionCookie is the name of the HttpOnly cookie carrying the JWT.
const SessionCookie = "token"

// RequireAuth enforces authentication on protected routes.
//
// It reads the JWT from the session cookie, validates it, and stores the
// userID in the request context. Missing or invalid token → 401 and the
// chain stops. Every /api/tasks route sits behind this — an anonymous
// request never reaches a handler.
func RequireAuth(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := extractUserID(r, tokens)
			if err != nil {
				w.Header().Set("Content-Type", "application/json")
				http.Error(w, `{"error":"unauthorized","message":"valid authentication required"}`, http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// WithUserID returns a context carrying the given user identity. RequireAuth
// uses it after validating a token; handler tests use it to simulate an
// authenticated request without minting a real JWT.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext retrieves the authenticated user's ID from the request
// context. Returns ("", false) when the request is anonymous.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// extractUserID reads the session cookie and validates the JWT inside it.
func extractUserID(r *http.Request, tokens *TokenService) (string, error) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return "", err
	}

	return tokens.Validate(cookie.Value)
}
