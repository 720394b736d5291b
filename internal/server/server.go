// Package server sets up the HTTP server, router, and all route definitions.
//
// This package is the wiring layer: it builds services from their
// dependencies, hands them to handlers, and mounts the handlers on chi
// routes. main.go opens the database and external clients; New assembles
// everything else.
//
// ROUTE STRUCTURE:
//
//	GET    /healthz
//	POST   /api/auth/register | /api/auth/login | /api/auth/logout
//	GET    /auth/github/login | /auth/github/callback   (when configured)
//	GET    /api/me                                      [auth]
//	GET    /api/skills, POST /api/skills                [auth]
//	GET    PUT DELETE /api/skills/{id}                  [auth]
//	GET    POST /api/skills/{id}/tasks                  [auth]
//	PUT    /api/tasks/{id}/complete                     [auth]
//	GET    POST /api/progress/sessions                  [auth]
//	GET    /api/dashboard/*                             [auth]
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/skill-tracker/internal/advisor"
	"github.com/sakif/skill-tracker/internal/auth"
	"github.com/sakif/skill-tracker/internal/clock"
	"github.com/sakif/skill-tracker/internal/config"
	"github.com/sakif/skill-tracker/internal/cooldown"
	"github.com/sakif/skill-tracker/internal/handler"
	"github.com/sakif/skill-tracker/internal/middleware"
	"github.com/sakif/skill-tracker/internal/repository"
	"github.com/sakif/skill-tracker/internal/service"
)

// Deps are the long-lived resources main.go opens and owns. Server never
// closes them.
type Deps struct {
	Store    repository.Store
	Clock    clock.Clock
	Cooldown cooldown.Store
	Advisor  advisor.Generator

	// Passwords defaults to auth.NewPasswordService; tests pass a cheap cost.
	Passwords *auth.PasswordService

	// GitHub is nil when GitHub sign-in is not configured; its routes are
	// then not mounted.
	GitHub handler.GitHubAuthenticator
}

// pinger is implemented by stores that can report their health.
type pinger interface {
	Ping(ctx context.Context) error
}

// Server represents the HTTP server and all its dependencies.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	deps   Deps
}

// New builds the service graph and routes. It fails only on configuration
// the server cannot run with, such as a short JWT secret.
func New(cfg *config.Config, deps Deps, logger *slog.Logger) (*Server, error) {
	if deps.Store == nil {
		return nil, errors.New("server: a store is required")
	}
	if deps.Clock == nil {
		return nil, errors.New("server: a clock is required")
	}
	if deps.Cooldown == nil {
		deps.Cooldown = cooldown.NewMemoryStore()
	}
	if deps.Advisor == nil {
		deps.Advisor = advisor.Disabled{}
	}
	if deps.Passwords == nil {
		deps.Passwords = auth.NewPasswordService()
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		deps:   deps,
	}

	if err := s.setupRoutes(); err != nil {
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

// Handler exposes the router so tests can drive it with httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures all middleware and route handlers.
//
// Middleware executes in the order it's added: RequestID, RealIP, Logger,
// then Recoverer, so a recovered panic is still logged with its 500.
func (s *Server) setupRoutes() error {
	tokens, err := auth.NewTokenService(s.config.Auth.JWTSecret, s.config.Auth.TokenTTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}

	store := s.deps.Store
	clk := s.deps.Clock

	// === Services ===
	progressService := service.NewProgressService(store, clk, s.logger)
	taskService := service.NewTaskService(store, progressService, clk, s.logger)
	skillService := service.NewSkillService(store, s.logger)
	authService := service.NewAuthService(store, tokens, s.deps.Passwords, s.logger)
	dashboardService := service.NewDashboardService(store, clk, s.config.Gamification.HeatmapDefaultDays, s.logger)
	gate := cooldown.NewGate(s.deps.Cooldown, s.config.Advice.Cooldown, s.logger)
	adviceService := service.NewAdviceService(store, gate, s.deps.Advisor, clk, s.config.Advice.Timeout, s.logger)

	// === Handlers ===
	authHandler := handler.NewAuthHandler(authService, s.deps.GitHub, s.config.Auth.SecureCookies, s.logger)
	skillHandler := handler.NewSkillHandler(skillService, s.logger)
	taskHandler := handler.NewTaskHandler(taskService, s.logger)
	progressHandler := handler.NewProgressHandler(progressService, s.logger)
	dashboardHandler := handler.NewDashboardHandler(dashboardService, adviceService, s.logger)

	// === Global Middleware ===
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	s.router.Get("/healthz", s.handleHealth)

	// === GitHub sign-in ===
	if s.deps.GitHub != nil {
		s.router.Get("/auth/github/login", authHandler.HandleGitHubLogin)
		s.router.Get("/auth/github/callback", authHandler.HandleGitHubCallback)
	}

	// === API Routes ===
	s.router.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", authHandler.HandleRegister)
		r.Post("/auth/login", authHandler.HandleLogin)
		r.Post("/auth/logout", authHandler.HandleLogout)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))

			r.Get("/me", authHandler.HandleMe)

			r.Route("/skills", func(r chi.Router) {
				r.Get("/", skillHandler.HandleList)
				r.Post("/", skillHandler.HandleCreate)
				r.Get("/{id}", skillHandler.HandleGet)
				r.Put("/{id}", skillHandler.HandleUpdate)
				r.Delete("/{id}", skillHandler.HandleDelete)
				r.Get("/{id}/tasks", taskHandler.HandleListBySkill)
				r.Post("/{id}/tasks", taskHandler.HandleCreate)
			})

			r.Put("/tasks/{id}/complete", taskHandler.HandleComplete)
			r.Post("/progress/sessions", progressHandler.HandleLogSession)
			r.Get("/progress/sessions", progressHandler.HandleListSessions)

			r.Route("/dashboard", func(r chi.Router) {
				r.Get("/overview", dashboardHandler.HandleOverview)
				r.Get("/user-stats", dashboardHandler.HandleUserStats)
				r.Get("/heatmap", dashboardHandler.HandleHeatmap)
				r.Get("/analysis", dashboardHandler.HandleAnalysis)
				r.Get("/weak-areas", dashboardHandler.HandleWeakAreas)
				r.Get("/priorities", dashboardHandler.HandlePriorities)
				r.Get("/deadline-alerts", dashboardHandler.HandleDeadlineAlerts)
				r.Get("/learning-plan", dashboardHandler.HandleLearningPlan)
				r.Get("/recommendations", dashboardHandler.HandleRecommendations)
				r.Get("/skills-progress", dashboardHandler.HandleSkillsProgress)
				r.Get("/skills-summary", dashboardHandler.HandleSkillsSummary)
				r.Get("/recent-tasks", dashboardHandler.HandleRecentTasks)
				r.Get("/leaderboard", dashboardHandler.HandleLeaderboard)
				r.Get("/productivity", dashboardHandler.HandleProductivity)
				r.Get("/badges", dashboardHandler.HandleBadges)
				r.Get("/advice", dashboardHandler.HandleAdvice)
			})
		})
	})

	return nil
}

// handleHealth reports 503 when the database does not answer.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if p, ok := s.deps.Store.(pinger); ok {
		if err := p.Ping(r.Context()); err != nil {
			s.logger.Error("health check failed", slog.String("error", err.Error()))
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
	}
	w.Write([]byte(`{"status":"ok"}`))
}

// Start serves until SIGINT or SIGTERM, then drains in-flight requests for
// up to the configured shutdown timeout.
func (s *Server) Start() error {
	srvCfg := s.config.Server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", srvCfg.Port),
		Handler:      s.router,
		ReadTimeout:  srvCfg.ReadTimeout,
		WriteTimeout: srvCfg.WriteTimeout,
		IdleTimeout:  srvCfg.IdleTimeout,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", srvCfg.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", srvCfg.Port)),
			slog.String("database", s.config.Storage.DBPath),
			slog.Bool("github_sign_in", s.deps.GitHub != nil),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), srvCfg.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
