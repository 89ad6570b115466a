// Package server wires the repositories, services and handlers together and
// runs the HTTP server.
//
// DEPENDENCY FLOW:
//
//	config ──> repository (memory | sqlite)
//	              │
//	              v
//	          services (AccountService, AdService)
//	              │
//	              v
//	          handlers (pages, JSON API) ──> chi router
//
// Everything is built once in New and passed down explicitly. There are no
// package-level singletons, which is what lets the tests start several
// independent servers in one process.
package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/hoverspeak/internal/auth"
	"github.com/sakif/hoverspeak/internal/config"
	"github.com/sakif/hoverspeak/internal/handler"
	"github.com/sakif/hoverspeak/internal/ids"
	"github.com/sakif/hoverspeak/internal/middleware"
	"github.com/sakif/hoverspeak/internal/repository"
	"github.com/sakif/hoverspeak/internal/repository/memory"
	sqliteRepo "github.com/sakif/hoverspeak/internal/repository/sqlite"
	"github.com/sakif/hoverspeak/internal/service"
	"github.com/sakif/hoverspeak/internal/upload"
	"github.com/sakif/hoverspeak/internal/workspace"
	"github.com/sakif/hoverspeak/web"
)

const (
	// sweepInterval is how often the janitor looks for idle workspaces.
	// The idle limit itself is the session TTL.
	sweepInterval = time.Minute

	// shutdownTimeout bounds how long in-flight requests get to finish
	// after SIGINT/SIGTERM.
	shutdownTimeout = 30 * time.Second
)

// Server owns the router, the workspace store and the repository.
type Server struct {
	router     *chi.Mux
	config     config.Config
	logger     *slog.Logger
	store      repository.Store
	workspaces *workspace.Store
	ads        *service.AdService
}

// New opens the configured repository and builds the routes.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	s := &Server{
		router:     chi.NewRouter(),
		config:     cfg,
		logger:     logger,
		store:      store,
		workspaces: workspace.NewStore(),
	}

	if err := s.setupRoutes(); err != nil {
		store.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// openStore picks the repository implementation. Both satisfy
// repository.Store, so nothing above this function knows which one it got.
func openStore(cfg config.Config) (repository.Store, error) {
	if cfg.Store != config.StoreSQLite {
		return memory.New(), nil
	}

	// SQLite creates the file but not its directory. ":memory:" has neither.
	if cfg.DBPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return db, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes:
//
//	GET  /                      landing page
//	GET  /login, POST /login    sign in
//	GET  /register, POST /register
//	GET  /dashboard             stats and ad list
//	POST /logout
//	GET  /ads/new, POST /ads/new  create-ad form and its actions
//	POST /ads/{id}/playback     toggle simulated playback
//	GET  /api/session, /api/ads, /api/metrics
//	POST /api/ads/{id}/playback
//	GET  /healthz, /static/*
func (s *Server) setupRoutes() error {
	tokens, err := auth.NewTokenService(s.config.SessionSecret, s.config.SessionTTL)
	if err != nil {
		return err
	}

	// One generator shared by both services: user ids and ad ids come from
	// the same millisecond clock and must never collide.
	idgen := ids.NewTimestamp()
	accounts := service.NewAccountService(s.store, auth.NewPasswordService(), idgen, s.logger)
	s.ads = service.NewAdService(s.store, upload.New(s.config.UploadBaseURL), idgen, service.AdConfig{
		PlaybackDuration:  s.config.PlaybackDuration,
		MaxReceivingSites: s.config.MaxReceivingSites,
	}, s.logger)

	renderer, err := handler.NewRenderer(s.logger)
	if err != nil {
		return fmt.Errorf("parsing templates: %w", err)
	}
	pages := handler.NewPageHandler(accounts, s.ads, renderer, s.config.MaxUploadBytes, s.logger)
	api := handler.NewAPIHandler(accounts, s.ads, s.logger)

	static, err := fs.Sub(web.Static, "static")
	if err != nil {
		return fmt.Errorf("static assets: %w", err)
	}

	// MIDDLEWARE ORDER MATTERS:
	// RequestID comes first so the logger can include it. RealIP rewrites
	// RemoteAddr before the logger reads it. Recoverer sits inside Logger so
	// a panic is logged as the 500 it turns into.
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	// Health checks and static files don't need a workspace, so they stay
	// outside the Sessions group and never mint cookies.
	s.router.Get("/healthz", handler.HandleHealth)
	s.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	// r.Group shares the parent's path but gets its own middleware stack.
	s.router.Group(func(r chi.Router) {
		r.Use(auth.Sessions(tokens, s.workspaces, s.logger))

		r.Get("/", pages.HandleLanding)
		r.Get("/login", pages.HandleLoginPage)
		r.Post("/login", pages.HandleLogin)
		r.Get("/register", pages.HandleRegisterPage)
		r.Post("/register", pages.HandleRegister)
		r.Get("/dashboard", pages.HandleDashboard)
		r.Post("/logout", pages.HandleLogout)
		r.Get("/ads/new", pages.HandleCreateAdPage)
		r.Post("/ads/new", pages.HandleCreateAd)
		r.Post("/ads/{id}/playback", pages.HandlePlayback)

		r.Route("/api", func(r chi.Router) {
			r.Get("/session", api.HandleSession)
			r.Get("/ads", api.HandleListAds)
			r.Get("/metrics", api.HandleMetrics)
			r.Post("/ads/{id}/playback", api.HandlePlayback)
		})
	})

	return nil
}

// Start serves until SIGINT or SIGTERM, then drains in-flight requests
// for up to 30 seconds and closes the repository.
func (s *Server) Start() error {
	defer s.store.Close()

	// The janitor drops workspaces idle for longer than the session TTL,
	// together with their ads. By then the visitor's token has expired as
	// well (the session middleware only ever extends it on a request), so
	// no cookie can point at a forgotten id.
	//
	// TODO: record workspace last-seen times in the repository so ads of
	// browsers that never return after a restart are purged too.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.workspaces.Janitor(ctx, sweepInterval, s.config.SessionTTL, s.logger, func(swept []string) {
		s.ads.Forget(ctx, swept)
	})

	// Explicit timeouts: the zero values mean "wait forever", which lets a
	// slow client hold a connection open indefinitely.
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// GRACEFUL SHUTDOWN:
	// ListenAndServe blocks, so it runs in a goroutine and we wait on
	// whichever comes first: a fatal server error or a signal. On a signal,
	// Shutdown stops accepting connections and waits for active requests.
	//
	// Both channels are buffered (size 1) so neither sender blocks if we've
	// already moved on.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("store", s.config.Store),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		// ErrServerClosed is the normal result of Shutdown, not a failure.
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
