// Package server wires handlers, middleware, and routes, and owns the HTTP
// server lifecycle.
//
// This is the composition root: main.go hands in a Config and a logger,
// New() builds the whole dependency chain in one place —
//
//	sqlite.DB → stores → services → handlers → routes
//
// — and Start() runs it with graceful shutdown.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/nahid/tasklist/internal/auth"
	"github.com/nahid/tasklist/internal/handler"
	"github.com/nahid/tasklist/internal/middleware"
	sqliteRepo "github.com/nahid/tasklist/internal/repository/sqlite"
	"github.com/nahid/tasklist/internal/service"
)

// Config holds server configuration, loaded from the environment in main.
type Config struct {
	Port      int
	DBPath    string
	JWTSecret string

	// GitHub OAuth is optional; when ClientID is empty the OAuth routes are
	// not registered and email/password is the only way in.
	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string
}

// Server owns the router and the database connection. The DB is closed
// during shutdown in Start().
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New opens the database and assembles the full dependency chain. Each
// layer receives only what it needs: services get repository interfaces,
// handlers get services, nobody reaches around a layer.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures middleware and all route handlers.
//
// ROUTE STRUCTURE:
//
//	GET    /healthz                   → liveness check
//	POST   /auth/register             → create account + session
//	POST   /auth/login                → start session
//	GET    /auth/github/login         → redirect to GitHub (if configured)
//	GET    /auth/github/callback      → complete OAuth (if configured)
//	POST   /auth/logout               → clear session
//	GET    /api/me                    → current user        (auth)
//	GET    /api/tasks?filter=...      → list own tasks      (auth)
//	POST   /api/tasks                 → create task         (auth)
//	GET    /api/tasks/{id}            → view task           (auth)
//	PUT    /api/tasks/{id}            → update task         (auth)
//	PATCH  /api/tasks/{id}/toggle     → toggle completed    (auth)
//	DELETE /api/tasks/{id}            → delete task         (auth)
//
// Middleware order matters: RequestID → RealIP → Recoverer → request
// logging run on every request, RequireAuth only inside /api.
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	var github *auth.GitHubProvider
	if s.config.GitHubClientID != "" {
		github = auth.NewGitHubProvider(
			s.config.GitHubClientID,
			s.config.GitHubClientSecret,
			s.config.GitHubCallbackURL,
		)
	}

	authService := service.NewAuthService(s.db.Users(), tokens, passwords, s.logger)
	taskService := service.NewTaskService(s.db.Tasks(), s.logger)

	authHandler := handler.NewAuthHandler(authService, github, s.logger)
	taskHandler := handler.NewTaskHandler(taskService, s.logger)

	s.router.Get("/healthz", handler.HandleHealth)

	s.router.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.HandleRegister)
		r.Post("/login", authHandler.HandleLogin)
		r.Post("/logout", authHandler.HandleLogout)

		if github != nil {
			r.Get("/github/login", authHandler.HandleGitHubLogin)
			r.Get("/github/callback", authHandler.HandleGitHubCallback)
		}
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens))

		r.Get("/me", authHandler.HandleMe)

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", taskHandler.HandleList)
			r.Post("/", taskHandler.HandleCreate)
			r.Get("/{id}", taskHandler.HandleGet)
			r.Put("/{id}", taskHandler.HandleUpdate)
			r.Patch("/{id}/toggle", taskHandler.HandleToggle)
			r.Delete("/{id}", taskHandler.HandleDelete)
		})
	})

	return nil
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, give in-flight requests 30
// seconds, close the database (flushes the WAL, releases the file lock).
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
