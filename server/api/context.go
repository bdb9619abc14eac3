package api

import (
	"context"

	"github.com/GoCodeAlone/postboard/task"
)

// Session identifies the authenticated caller of a request.
type Session struct {
	ID       string
	Username string
	Role     task.Role
}

type contextKey int

const ctxKeySession contextKey = 0

// WithSession returns a copy of ctx carrying s.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKeySession, s)
}

// SessionFrom returns the session stored by WithSession.
func SessionFrom(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(ctxKeySession).(Session)
	return s, ok
}
