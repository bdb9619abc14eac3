package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/GoCodeAlone/postboard/auth"
	"github.com/GoCodeAlone/postboard/board"
	"github.com/GoCodeAlone/postboard/brand"
	"github.com/GoCodeAlone/postboard/calendar"
	"github.com/GoCodeAlone/postboard/config"
	"github.com/GoCodeAlone/postboard/events"
	"github.com/GoCodeAlone/postboard/task"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.Config{
		Server: config.ServerConfig{Addr: ":0"},
		Auth: config.AuthConfig{
			JWTSecret: "test-secret-key-1234567890",
			TokenTTL:  time.Hour,
		},
		Blob: config.BlobConfig{MaxBytes: 1 << 10},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus := events.NewInMemoryBus()

	authn, err := auth.New(auth.DefaultUsers(), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("auth.New: %v", err)
	}
	s := New(cfg, "test", logger)
	s.SetAuthenticator(authn)
	s.SetBus(bus)
	s.SetRegistry(board.NewRegistry(brand.Seed(), task.Seed(),
		board.WithBus(bus),
		board.WithLogger(logger),
		board.WithMonth(calendar.Month{Year: 2023, Month: time.October}),
	))
	s.registerRoutes()
	t.Cleanup(func() { s.unsubHub() })
	return s
}

func login(t *testing.T, s *Server, user, pass string) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(loginRequest{Username: user, Password: pass})
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	s.mux.ServeHTTP(rr, req)
	return rr
}

func mustLogin(t *testing.T, s *Server, user string) loginResponse {
	t.Helper()
	rr := login(t, s, user, user)
	if rr.Code != http.StatusOK {
		t.Fatalf("login %s: %d %s", user, rr.Code, rr.Body.String())
	}
	var resp loginResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode login: %v", err)
	}
	return resp
}

func authed(t *testing.T, s *Server, token, method, path string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	s.mux.ServeHTTP(rr, req)
	return rr
}
