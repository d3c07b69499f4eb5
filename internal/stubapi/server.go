// Package stubapi is a local stand-in for the Xeno CRM REST API.
//
// It implements the endpoints the front-end consumes, with a simulated
// Google login that sets a session cookie, so the TUI and the CLI can be
// exercised end to end without the real backend.
package stubapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/sessions"
	"github.com/leapstack-labs/xenocrm/internal/stubapi/store"
	"golang.org/x/sync/errgroup"
)

// DefaultCookieName matches the cookie the real API issues.
const DefaultCookieName = "connect.sid"

// Config holds configuration for the stub server.
type Config struct {
	Store          store.Store
	Port           int
	SessionSecret  string
	CookieName     string
	AllowedOrigins []string
	// SecureCookies sets the Secure flag; leave off for plain-http localhost.
	SecureCookies bool
	// SeedFile, when set with Watch, is reloaded into Store on change.
	SeedFile string
	Watch    bool
	Logger   *slog.Logger
	// Now is used for campaign timestamps. Defaults to time.Now.
	Now func() time.Time
}

// Server is the stub API server.
type Server struct {
	store          store.Store
	sessions       *sessions.CookieStore
	cookieName     string
	allowedOrigins []string
	port           int
	seedFile       string
	watch          bool
	logger         *slog.Logger
	now            func() time.Time
	demoUser       string

	// reloadMu serialises seed reloads.
	reloadMu sync.Mutex
}

// NewServer creates a stub server. A missing Store falls back to memory.
func NewServer(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	st := cfg.Store
	if st == nil {
		st = store.NewMemory()
	}
	name := cfg.CookieName
	if name == "" {
		name = DefaultCookieName
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	secret := cfg.SessionSecret
	if secret == "" {
		secret = "xenocrm-stub-dev-secret-change-me" //nolint:gosec
	}

	return &Server{
		store:          st,
		sessions:       newSessionStore(secret, cfg.SecureCookies),
		cookieName:     name,
		allowedOrigins: cfg.AllowedOrigins,
		port:           cfg.Port,
		seedFile:       cfg.SeedFile,
		watch:          cfg.Watch,
		logger:         logger,
		now:            now,
		demoUser:       "demo.user@xeno.test",
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewMux()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		s.requestLogger,
		middleware.Recoverer,
	)
	if len(s.allowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.allowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Get("/", s.handleIndex)
	r.Get("/health", s.handleHealth)

	r.Route("/auth", func(r chi.Router) {
		r.Get("/google", s.handleLogin)
		r.Get("/logout", s.handleLogout)
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/is-logged-in", s.handleIsLoggedIn)

		r.Group(func(r chi.Router) {
			r.Use(s.requireSession)
			r.Get("/customers", s.handleCustomers)
			r.Post("/ai/text-to-rules", s.handleTextToRules)
			r.Route("/campaigns", func(r chi.Router) {
				r.Get("/", s.handleListCampaigns)
				r.Post("/preview", s.handlePreview)
				r.Post("/create", s.handleCreateCampaign)
				r.Get("/{id}", s.handleGetCampaign)
			})
		})
	})

	return r
}

// Serve starts the server and blocks until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.port)
	s.logger.Info("starting stub API", "addr", fmt.Sprintf("http://localhost:%d", s.port))

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.watch && s.seedFile != "" {
		eg.Go(func() error {
			return s.watchSeed(egctx)
		})
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down stub API...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// LoadSeed replaces the store's customers with the seed file contents.
func (s *Server) LoadSeed(ctx context.Context) error {
	if s.seedFile == "" {
		return nil
	}
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	customers, err := store.LoadSeed(s.seedFile)
	if err != nil {
		return err
	}
	if err := s.store.ReplaceCustomers(ctx, customers); err != nil {
		return fmt.Errorf("failed to load seed customers: %w", err)
	}
	s.logger.Info("seed loaded", "file", s.seedFile, "customers", len(customers))
	return nil
}

// watchSeed reloads the seed file when it changes. The parent directory is
// watched because editors often replace files instead of writing in place.
func (s *Server) watchSeed(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	target, err := filepath.Abs(s.seedFile)
	if err != nil {
		return fmt.Errorf("failed to resolve seed file: %w", err)
	}
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		s.logger.Error("failed to watch seed file", "error", err)
		<-ctx.Done()
		return nil
	}

	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if name, _ := filepath.Abs(event.Name); name != target {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(100*time.Millisecond, func() {
				s.logger.Debug("seed file changed, reloading", "file", event.Name)
				if err := s.LoadSeed(ctx); err != nil {
					s.logger.Error("seed reload failed", "error", err)
				}
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("watcher error", "error", err)
		}
	}
}

// requestLogger logs one line per request at debug level.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
