// Package server sets up the HTTP server, router, and all route definitions.
//
// It is the composition root: the store, services, handlers and middleware
// are wired together here and nowhere else. main only loads config, opens
// the store and calls Start.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sakif/tagged-snippets/internal/auth"
	"github.com/sakif/tagged-snippets/internal/config"
	"github.com/sakif/tagged-snippets/internal/handler"
	"github.com/sakif/tagged-snippets/internal/middleware"
	"github.com/sakif/tagged-snippets/internal/repository"
	"github.com/sakif/tagged-snippets/internal/repository/postgres"
	sqliteRepo "github.com/sakif/tagged-snippets/internal/repository/sqlite"
	"github.com/sakif/tagged-snippets/internal/service"
)

// Server represents the HTTP server and all its dependencies.
//
// The Server owns the store: Start closes it once the listener has shut down.
type Server struct {
	router chi.Router
	cfg    *config.Config
	logger *slog.Logger
	store  repository.Store
}

// OpenStore connects to the database named by cfg. It does not migrate.
//
// For a file-backed SQLite path the parent directory is created first, as
// `mkdir -p` would.
func OpenStore(ctx context.Context, cfg config.Storage) (repository.Store, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		if cfg.Path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory: %w", err)
			}
		}
		return sqliteRepo.New(cfg.Path)
	case config.DriverPostgres:
		return postgres.New(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// NewServices builds the service layer over store. The CLI's user commands
// use it too, so account management goes through the same validation as
// the HTTP side.
func NewServices(cfg *config.Config, store repository.Store, logger *slog.Logger) (*Services, error) {
	tokens, err := auth.NewTokenService(auth.TokenConfig{
		Secret:     cfg.Auth.JWTSecret,
		Issuer:     cfg.Auth.Issuer,
		AccessTTL:  cfg.Auth.AccessTokenTTL,
		RefreshTTL: cfg.Auth.RefreshTokenTTL,
	})
	if err != nil {
		return nil, err
	}
	passwords, err := auth.NewPasswordService(cfg.Auth.BcryptCost)
	if err != nil {
		return nil, err
	}

	return &Services{
		Auth:     service.NewAuthService(store.Users(), tokens, passwords, logger),
		Users:    service.NewUserService(store.Users(), passwords, logger),
		Snippets: service.NewSnippetService(store.Snippets(), store.Tags(), logger),
		Tags:     service.NewTagService(store.Tags(), store.Snippets(), logger),
	}, nil
}

// Services groups the application services.
type Services struct {
	Auth     *service.AuthService
	Users    *service.UserService
	Snippets *service.SnippetService
	Tags     *service.TagService
}

// New creates a Server over an already migrated store.
func New(cfg *config.Config, store repository.Store, logger *slog.Logger) (*Server, error) {
	svc, err := NewServices(cfg, store, logger)
	if err != nil {
		return nil, fmt.Errorf("building services: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		cfg:    cfg,
		logger: logger,
		store:  store,
	}
	s.setupRoutes(svc)

	return s, nil
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures all middleware and route handlers.
//
// Public:
//
//	POST   /login
//	POST   /token/refresh
//	POST   /refresh/
//	GET    /healthz
//	GET    /metrics                       (metrics.enabled)
//
// Bearer access token required:
//
//	POST   /snippet/create
//	GET    /snippet/list
//	GET    /snippet/detail/{id}
//	PATCH  /snippet/update/{id}
//	DELETE /snippet/delete
//	GET    /tag/list
//	GET    /snippet/list_by_tag/{tag_id}
func (s *Server) setupRoutes(svc *Services) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))

	// Metrics sit outside Recoverer so a recovered panic is counted as a 500.
	var registry *prometheus.Registry
	if s.cfg.Metrics.Enabled {
		// A private registry keeps parallel tests from colliding on the
		// global default one.
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		s.router.Use(middleware.NewMetrics(registry).Handler)
	}

	s.router.Use(chimiddleware.Recoverer)

	if registry != nil {
		s.router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	trustProxy := s.cfg.HTTPServer.TrustProxyHeaders

	authHandler := handler.NewAuthHandler(svc.Auth, s.logger)
	healthHandler := handler.NewHealthHandler(s.store, s.logger)
	snippetHandler := handler.NewSnippetHandler(svc.Snippets, trustProxy, s.logger)
	tagHandler := handler.NewTagHandler(svc.Tags, trustProxy, s.logger)

	s.router.Post("/login", authHandler.HandleLogin)
	s.router.Post("/token/refresh", authHandler.HandleTokenRefresh)
	s.router.Post("/refresh/", authHandler.HandleRefresh)
	s.router.Get("/healthz", healthHandler.HandleHealth)

	s.router.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(svc.Auth, s.logger))

		r.Post("/snippet/create", snippetHandler.HandleCreate)
		r.Get("/snippet/list", snippetHandler.HandleList)
		r.Get("/snippet/detail/{id}", snippetHandler.HandleDetail)
		r.Patch("/snippet/update/{id}", snippetHandler.HandleUpdate)
		r.Delete("/snippet/delete", snippetHandler.HandleDelete)

		r.Get("/tag/list", tagHandler.HandleList)
		r.Get("/snippet/list_by_tag/{tag_id}", tagHandler.HandleSnippets)
	})
}

// Start starts the HTTP server and blocks until ctx is cancelled, SIGINT or
// SIGTERM arrives, or the listener fails.
//
// Shutdown lets in-flight requests finish within http_server.shutdown_timeout,
// then closes the store.
func (s *Server) Start(ctx context.Context) error {
	defer func() {
		if err := s.store.Close(); err != nil {
			s.logger.Error("closing store", slog.String("error", err.Error()))
		}
	}()

	hs := s.cfg.HTTPServer
	srv := &http.Server{
		Addr:         hs.Addr,
		Handler:      s.router,
		ReadTimeout:  hs.ReadTimeout,
		WriteTimeout: hs.WriteTimeout,
		IdleTimeout:  hs.IdleTimeout,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.String("address", hs.Addr),
			slog.String("storage", s.cfg.Storage.Driver),
			slog.Bool("metrics", s.cfg.Metrics.Enabled),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case <-ctx.Done():
		s.logger.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), hs.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
