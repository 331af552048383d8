package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/rs/xid"

	"github.com/nahid/tasklist/internal/auth"
	"github.com/nahid/tasklist/internal/service"
)

// sessionTTL is how long the session cookie lives. Matches the JWT expiry
// issued by TokenService.Generate.
const sessionTTL = 24 * time.Hour

// AuthHandler manages login, registration, the GitHub OAuth flow, and
// session management. All credential rules live in AuthService; this layer
// handles cookies, redirects, and status codes.
type AuthHandler struct {
	authSvc *service.AuthService
	github  *auth.GitHubProvider // nil when OAuth is not configured
	logger  *slog.Logger
}

// NewAuthHandler creates an AuthHandler. github may be nil, in which case
// the OAuth routes respond 404 (server.go skips registering them).
func NewAuthHandler(authSvc *service.AuthService, github *auth.GitHubProvider, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authSvc: authSvc,
		github:  github,
		logger:  logger,
	}
}

// credentialsRequest is the body of /auth/register and /auth/login.
type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// setSessionCookie stores the JWT in an HttpOnly cookie. HttpOnly keeps it
// away from JavaScript (XSS can't steal it); SameSite=Lax keeps it off
// cross-site POSTs. Secure should be enabled behind HTTPS in production.
func setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(sessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// HandleRegister creates an account and logs it in.
//
// HTTP: POST /auth/register
// Body: {"email":"a@example.com","password":"..."}
// 201 with the user on success, 400 on validation failure, 409 if the email
// is taken.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	result, err := h.authSvc.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	setSessionCookie(w, result.Token)
	writeJSON(w, http.StatusCreated, result.User)
}

// HandleLogin authenticates an email/password pair and starts a session.
//
// HTTP: POST /auth/login
// 200 with the user on success, 401 on bad credentials (the response never
// says which half was wrong).
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "invalid JSON body",
		})
		return
	}

	result, err := h.authSvc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	setSessionCookie(w, result.Token)
	writeJSON(w, http.StatusOK, result.User)
}

// HandleGitHubLogin redirects the browser to GitHub's authorization page.
//
// HTTP: GET /auth/github/login
//
// A random state value goes into a short-lived cookie; the callback
// verifies it to prove the flow started here and not on an attacker's page.
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		MaxAge:   600, // long enough to approve, short enough to limit replay
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback completes the OAuth login.
//
// HTTP: GET /auth/github/callback?code=xxx&state=yyy
//
// Verify state, exchange the code for a profile, upsert the user, issue the
// session cookie, redirect home.
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" {
		h.logger.Warn("auth callback: missing state cookie")
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}

	if r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("auth callback: state mismatch")
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}

	// state is single-use
	http.SetCookie(w, &http.Cookie{
		Name:   "oauth_state",
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("auth callback: user denied authorization",
			slog.String("error", errParam),
		)
		http.Redirect(w, r, "/?auth=denied", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing OAuth code", http.StatusBadRequest)
		return
	}

	ghUser, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("auth callback: GitHub exchange failed", slog.String("error", err.Error()))
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	result, err := h.authSvc.LoginOrRegisterGitHub(r.Context(), ghUser)
	if err != nil {
		h.logger.Error("auth callback: login failed",
			slog.Int64("githubID", ghUser.ID),
			slog.String("error", err.Error()),
		)
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	setSessionCookie(w, result.Token)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// HandleLogout clears the session cookie.
//
// HTTP: POST /auth/logout
// POST rather than GET — logout changes state, and GET would be open to
// CSRF and browser prefetching. Stateless JWT means logout is purely
// client-side: the token stays valid until expiry, but the browser no
// longer has it.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// HandleMe returns the authenticated user's profile.
//
// HTTP: GET /api/me (behind RequireAuth)
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "valid authentication required",
		})
		return
	}

	user, err := h.authSvc.GetUserByID(r.Context(), userID)
	if err != nil {
		h.logger.Error("HandleMe: user lookup failed", slog.String("userID", userID))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}
