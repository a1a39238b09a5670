// Package server exposes the daemon's HTTP API: identification and
// validation of PIDs, provider registry administration, and realm role
// management.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"

	"pidmr/internal/config"
	"pidmr/internal/identify"
	"pidmr/internal/keycloak"
	"pidmr/internal/logging"
	"pidmr/internal/registry"
)

// RoleAdmin is the slice of the Keycloak client the role endpoints need. It
// is nil when Keycloak support is disabled.
type RoleAdmin interface {
	Roles(ctx context.Context) ([]string, error)
	AssignRoles(ctx context.Context, userID string, names []string) error
	RemoveRoles(ctx context.Context, userID string, names []string) error
	RoleMembers(ctx context.Context, name string) ([]keycloak.Member, error)
}

// Server serves the daemon's HTTP API.
type Server struct {
	cfg       *config.Config
	store     *registry.Store
	engine    *identify.Engine
	roles     RoleAdmin
	logger    *slog.Logger
	version   string
	startedAt time.Time

	httpServer *http.Server
	listener   net.Listener
}

// New wires the API server. roles may be nil when Keycloak is disabled; the
// role endpoints then answer 503.
func New(cfg *config.Config, store *registry.Store, engine *identify.Engine, roles RoleAdmin, logger *slog.Logger, version string) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		cfg:       cfg,
		store:     store,
		engine:    engine,
		roles:     roles,
		logger:    logger.With(logging.String("component", "api")),
		version:   version,
		startedAt: time.Now(),
	}
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Handler returns the routed API handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/identify", s.handleIdentify)
	mux.HandleFunc("GET /v1/validate", s.handleValidate)
	mux.HandleFunc("GET /v1/resolve", s.handleResolve)

	mux.HandleFunc("GET /v1/providers", s.handleListProviders)
	mux.HandleFunc("GET /v1/providers/{id}", s.handleGetProvider)
	mux.HandleFunc("POST /v1/providers", s.requireAuth(s.handleCreateProvider))
	mux.HandleFunc("PATCH /v1/providers/{id}", s.requireAuth(s.handleUpdateProvider))
	mux.HandleFunc("DELETE /v1/providers/{id}", s.requireAuth(s.handleDeleteProvider))
	mux.HandleFunc("PUT /v1/providers/{id}/status", s.requireAuth(s.handleSetProviderStatus))

	mux.HandleFunc("GET /v1/actions", s.handleListActions)
	mux.HandleFunc("GET /v1/actions/modes", s.handleListModes)

	mux.HandleFunc("GET /v1/roles", s.requireAuth(s.handleListRoles))
	mux.HandleFunc("PUT /v1/users/{id}/roles", s.requireAuth(s.handleAssignRoles))
	mux.HandleFunc("DELETE /v1/users/{id}/roles", s.requireAuth(s.handleRemoveRoles))
	mux.HandleFunc("GET /v1/roles/{name}/members", s.requireAuth(s.handleRoleMembers))

	mux.HandleFunc("GET /v1/status", s.handleStatus)

	return s.withRequestID(mux)
}

// Start begins listening on the configured bind address. It returns once the
// listener is established; serving continues in the background until
// Shutdown.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.cfg.Server.Bind)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Server.Bind, err)
	}
	s.listener = listener

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server stopped", logging.Error(err))
		}
	}()

	s.logger.Info("api server listening", logging.String("addr", listener.Addr().String()))
	return nil
}

// Addr reports the bound address, useful when binding to port 0.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.cfg.Server.Bind
	}
	return s.listener.Addr().String()
}

// Shutdown drains in-flight requests and closes the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// withRequestID tags every request with an identifier that is echoed in the
// response and attached to request logs.
func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)

		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("handled request",
			logging.String("request_id", requestID),
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path),
			logging.Duration("elapsed", time.Since(start)),
		)
	})
}

// requireAuth enforces the shared bearer token on administrative endpoints.
// With no token configured the endpoints are open, which is only sensible for
// local single-user deployments.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := s.cfg.Server.Token
		if token == "" {
			next(w, r)
			return
		}
		if r.Header.Get("Authorization") != "Bearer "+token {
			writeErrorMessage(w, http.StatusUnauthorized, "missing or invalid bearer token")
			return
		}
		next(w, r)
	}
}
