// Package session holds the per-request view of the signed-in user and the
// server-side store behind it.
package session

import (
	"context"

	"arabic-chatbot.app/internal/models"
)

// Session is resolved once per request by the guard middleware.
type Session struct {
	Token    string
	UserID   string
	Username string
	IsAdmin  bool
	Language models.Language
}

func (s *Session) Role() models.Role {
	return models.RoleFor(s.IsAdmin)
}

// DisplayName falls back to the user id when the profile had no username.
func (s *Session) DisplayName() string {
	if s.Username != "" {
		return s.Username
	}
	return "User " + s.UserID
}

type contextKey string

const sessionContextKey contextKey = "session"

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, s)
}

// FromContext returns the session stored by the guard, if any.
func FromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionContextKey).(*Session)
	return s, ok && s != nil
}
