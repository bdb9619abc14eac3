// Package server implements the postboard HTTP server, REST API, auth, and SSE real-time events.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/GoCodeAlone/postboard/activity"
	"github.com/GoCodeAlone/postboard/auth"
	"github.com/GoCodeAlone/postboard/blob"
	"github.com/GoCodeAlone/postboard/board"
	"github.com/GoCodeAlone/postboard/config"
	"github.com/GoCodeAlone/postboard/events"
	"github.com/GoCodeAlone/postboard/server/api"
	"github.com/GoCodeAlone/postboard/server/ws"
)

// Server is the postboard HTTP server.
type Server struct {
	cfg     config.Config
	mux     *http.ServeMux
	httpSrv *http.Server
	logger  *slog.Logger

	registry   *board.Registry
	auth       *auth.Authenticator
	blobs      *blob.Store
	journal    *activity.Journal
	bus        events.Bus
	hub        *ws.Hub
	unsubHub   func()
	unsubBlobs func()
	handlers   *api.Handlers

	// JWT secret caching
	secretOnce      sync.Once
	generatedSecret string

	startTime time.Time
	version   string
}

// New creates a new Server with the given config and logger.
func New(cfg config.Config, ver string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:       cfg,
		mux:       http.NewServeMux(),
		logger:    logger,
		hub:       ws.NewHub(logger),
		startTime: time.Now(),
		version:   ver,
	}
}

// SetRegistry attaches the board registry to the server.
func (s *Server) SetRegistry(r *board.Registry) {
	s.registry = r
}

// SetAuthenticator attaches the credential checker used by login.
func (s *Server) SetAuthenticator(a *auth.Authenticator) {
	s.auth = a
}

// SetBlobStore attaches the store for uploaded visuals.
func (s *Server) SetBlobStore(b *blob.Store) {
	s.blobs = b
}

// SetJournal attaches the activity journal. Optional.
func (s *Server) SetJournal(j *activity.Journal) {
	s.journal = j
}

// SetBus attaches the event bus whose events are streamed over SSE.
func (s *Server) SetBus(bus events.Bus) {
	s.bus = bus
}

// Start registers routes and begins listening.
func (s *Server) Start() error {
	s.registerRoutes()

	addr := s.cfg.Server.Addr
	if addr == "" {
		addr = ":8080"
	}
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 15 * time.Second,
	}
	s.logger.Info("server listening", slog.String("addr", addr))
	return s.httpSrv.ListenAndServe()
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if s.unsubHub != nil {
		s.unsubHub()
		s.unsubHub = nil
	}
	if s.unsubBlobs != nil {
		s.unsubBlobs()
		s.unsubBlobs = nil
	}
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}

// registerRoutes sets up all HTTP routes.
func (s *Server) registerRoutes() {
	if s.blobs == nil {
		s.blobs = blob.NewStore(s.cfg.Blob.MaxBytes)
	}
	h := &api.Handlers{
		Registry: s.registry,
		Blobs:    s.blobs,
		Journal:  s.journal,
		Logger:   s.logger,
		Version:  s.version,
	}
	s.handlers = h
	if s.bus != nil && s.unsubHub == nil {
		s.unsubHub = s.hub.Attach(s.bus)
		s.unsubBlobs = s.blobs.Attach(s.bus, s.registry.InUse)
	}

	// Public routes (no auth required)
	s.mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	s.mux.HandleFunc("GET /api/status", h.StatusHandler())

	// SSE: auth handled inline because EventSource can't set headers
	s.mux.HandleFunc("GET /events", s.handleSSE)

	// Protected API, wrapped in auth middleware
	apiMux := http.NewServeMux()
	h.RegisterRoutes(apiMux)
	apiMux.HandleFunc("GET /api/auth/me", s.handleMe)
	apiMux.HandleFunc("POST /api/auth/logout", s.handleLogout)

	s.mux.Handle("/api/", s.authMiddleware(apiMux))
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeJSONError writes a JSON error response.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// handleSSE streams board events. The token may come from the query string.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	if _, err := s.authenticate(r, true); err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	s.hub.ServeSSE(w, r)
}
