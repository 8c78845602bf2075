// ABOUTME: Server orchestrator that wires the store, auth primitives, and HTTP API
// ABOUTME: Owns the HTTP listener, session sweeper, and graceful shutdown

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/2389/slicehouse/internal/auth"
	"github.com/2389/slicehouse/internal/config"
	"github.com/2389/slicehouse/internal/notify"
	"github.com/2389/slicehouse/internal/store"
	"github.com/2389/slicehouse/internal/web"
)

// DefaultSweepInterval is how often expired sessions are purged unless
// configured otherwise.
const DefaultSweepInterval = 5 * time.Minute

// shutdownTimeout bounds how long in-flight requests may run during shutdown.
const shutdownTimeout = 5 * time.Second

// Server orchestrates the slicehouse components: the SQLite store, the HTTP
// API, and the background session sweeper.
type Server struct {
	config        *config.Config
	store         store.Store
	api           *web.API
	httpServer    *http.Server
	sweepInterval time.Duration
	logger        *slog.Logger
}

// New creates a fully wired server from configuration. All collaborators are
// constructed here and injected; nothing reaches for global state.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("initializing store: %w", err)
	}

	api := web.New(
		st,
		auth.NewPasswordHasher(cfg.Auth.BcryptCost),
		auth.NewTOTPProvider(cfg.Auth.MFAIssuer),
		auth.NewChallengeIssuer([]byte(cfg.Auth.ChallengeSecret), cfg.Auth.ChallengeTTL),
		notify.NewLogSender(),
		web.Config{
			SessionTTL:     cfg.Sessions.TTL,
			LoginPerMinute: cfg.Login.PerMinute,
			LoginBurst:     cfg.Login.Burst,
		},
	)

	sweepInterval := cfg.Sessions.SweepInterval
	if sweepInterval <= 0 {
		sweepInterval = DefaultSweepInterval
	}

	s := &Server{
		config:        cfg,
		store:         st,
		api:           api,
		sweepInterval: sweepInterval,
		logger:        logger.With("component", "server"),
	}

	mux := http.NewServeMux()
	api.RegisterRoutes(mux)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	s.httpServer = &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s, nil
}

// Run starts the HTTP server and the session sweeper, blocking until the
// context is canceled or the listener fails.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("http server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sweepCtx, cancelSweep := context.WithCancel(ctx)
	defer cancelSweep()
	go s.sweepSessions(sweepCtx)

	var serverErr error
	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case serverErr = <-errCh:
		s.logger.Error("http server failed", "error", serverErr)
	}

	shutdownErr := s.gracefulShutdown()

	if serverErr != nil {
		return serverErr
	}
	return shutdownErr
}

// gracefulShutdown performs shutdown with a fresh context and timeout.
// Uses context.Background() intentionally since the original context is already canceled.
func (s *Server) gracefulShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := s.httpServer.Shutdown(ctx)

	if closeErr := s.store.Close(); closeErr != nil && err == nil {
		err = closeErr
	}

	return err
}

// sweepSessions periodically removes expired session rows so the table
// doesn't accumulate dead state.
func (s *Server) sweepSessions(ctx context.Context) {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.store.DeleteExpiredSessions(ctx); err != nil {
				s.logger.Error("session sweep failed", "error", err)
			}
		}
	}
}

// handleHealth returns 200 OK when the server and its store are alive.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("store unavailable"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
