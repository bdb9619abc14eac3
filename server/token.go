package server

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/GoCodeAlone/postboard/task"
)

// sessionClaims is the JWT payload: the username as subject, the registry
// session as token id, and the role the session was opened with.
type sessionClaims struct {
	Role task.Role `json:"role"`
	jwt.RegisteredClaims
}

// signToken creates an HS256 token for a session.
func signToken(secret, username, sessionID string, role task.Role, now time.Time, ttl time.Duration) (string, error) {
	claims := sessionClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ID:        sessionID,
			Issuer:    "postboard",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// verifyToken validates a token and returns its claims.
func verifyToken(secret, token string) (*sessionClaims, error) {
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer("postboard"))
	if err != nil {
		return nil, err
	}
	if claims.ID == "" || !claims.Role.Valid() {
		return nil, errors.New("token carries no session")
	}
	return &claims, nil
}

// generateSecret creates a random 32-byte secret.
func generateSecret() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}
