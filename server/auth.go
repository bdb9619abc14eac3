package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/GoCodeAlone/postboard/auth"
	"github.com/GoCodeAlone/postboard/server/api"
	"github.com/GoCodeAlone/postboard/task"
)

// jwtSecret returns the configured JWT secret, generating one if empty.
func (s *Server) jwtSecret() string {
	if s.cfg.Auth.JWTSecret != "" {
		return s.cfg.Auth.JWTSecret
	}
	s.secretOnce.Do(func() {
		s.generatedSecret = generateSecret()
	})
	return s.generatedSecret
}

func (s *Server) tokenTTL() time.Duration {
	if s.cfg.Auth.TokenTTL > 0 {
		return s.cfg.Auth.TokenTTL
	}
	return 24 * time.Hour
}

// loginRequest is the body accepted by POST /api/auth/login.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginResponse is the body returned by a successful login.
type loginResponse struct {
	Token   string    `json:"token"`
	Role    task.Role `json:"role"`
	Session string    `json:"session"`
}

// handleLogin validates credentials, opens a board session and issues a JWT.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	role, err := s.auth.Authenticate(req.Username, req.Password)
	if err != nil {
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			s.logger.Error("authenticate", slog.Any("err", err))
		}
		writeJSONError(w, http.StatusUnauthorized, auth.ErrInvalidCredentials.Error())
		return
	}

	sessionID, _, err := s.registry.Open(r.Context(), role)
	if err != nil {
		s.logger.Error("open session", slog.Any("err", err))
		writeJSONError(w, http.StatusInternalServerError, "could not open session")
		return
	}
	token, err := signToken(s.jwtSecret(), req.Username, sessionID, role, time.Now(), s.tokenTTL())
	if err != nil {
		s.registry.Close(r.Context(), sessionID)
		s.logger.Error("sign jwt", slog.Any("err", err))
		writeJSONError(w, http.StatusInternalServerError, "could not issue token")
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{Token: token, Role: role, Session: sessionID})
}

// handleLogout closes the caller's board session. The token stops working
// immediately because the middleware requires a live session.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess, _ := api.SessionFrom(r.Context())
	s.registry.Close(r.Context(), sess.ID)
	w.WriteHeader(http.StatusNoContent)
}

// handleMe returns the currently authenticated user.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	sess, _ := api.SessionFrom(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{
		"username": sess.Username,
		"role":     string(sess.Role),
		"session":  sess.ID,
	})
}

// authenticate resolves the request token to a live session.
func (s *Server) authenticate(r *http.Request, allowQuery bool) (api.Session, error) {
	token, ok := bearerToken(r, allowQuery)
	if !ok {
		return api.Session{}, errors.New("missing or invalid Authorization header")
	}
	claims, err := verifyToken(s.jwtSecret(), token)
	if err != nil {
		return api.Session{}, errors.New("invalid token: " + err.Error())
	}
	if _, err := s.registry.State(claims.ID); err != nil {
		return api.Session{}, errors.New("session closed")
	}
	return api.Session{ID: claims.ID, Username: claims.Subject, Role: claims.Role}, nil
}

// authMiddleware enforces JWT authentication on wrapped handlers.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.authenticate(r, false)
		if err != nil {
			writeJSONError(w, http.StatusUnauthorized, err.Error())
			return
		}
		next.ServeHTTP(w, r.WithContext(api.WithSession(r.Context(), sess)))
	})
}
