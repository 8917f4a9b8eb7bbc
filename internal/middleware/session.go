package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"arabic-chatbot.app/internal/logger/sl"
	"arabic-chatbot.app/internal/models"
	"arabic-chatbot.app/internal/remote"
	"arabic-chatbot.app/internal/session"

	"github.com/go-chi/render"
)

type ProfileFetcher interface {
	GetUser(ctx context.Context, token, userID string) (*models.Profile, error)
}

// RequireSession resolves the signed-in user from the stored token and puts a
// session.Session into the request context. Requests without a usable token
// lose their stored credentials and are sent to /login.
func RequireSession(sm *session.Manager, users ProfileFetcher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			userID, err := session.UserIDFromToken(sm.Token(ctx))
			if err != nil {
				slog.Info("Access denied: no valid session", "path", r.URL.Path, sl.Err(err))
				if err := sm.Destroy(ctx); err != nil {
					slog.Error("Failed to destroy session", sl.Err(err))
				}
				denyUnauthenticated(w, r)
				return
			}

			if !sm.ProfileLoaded(ctx) {
				profile, err := users.GetUser(ctx, sm.Token(ctx), userID)
				switch {
				case errors.Is(err, remote.ErrUnauthorized):
					slog.Info("Access denied: token rejected by the API", "user_id", userID)
					if err := sm.Destroy(ctx); err != nil {
						slog.Error("Failed to destroy session", sl.Err(err))
					}
					denyUnauthenticated(w, r)
					return
				case err != nil:
					// The page still works with the fallback display name.
					slog.Warn("Profile lookup failed", "user_id", userID, sl.Err(err))
				default:
					sm.SetProfile(ctx, profile)
				}
			}

			sess := sm.Load(ctx, userID)
			next.ServeHTTP(w, r.WithContext(session.WithSession(ctx, sess)))
		})
	}
}

// OptionalSession stores a session in the context when the token is usable
// and does nothing otherwise. It never loads the profile.
func OptionalSession(sm *session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if userID, err := session.UserIDFromToken(sm.Token(ctx)); err == nil {
				ctx = session.WithSession(ctx, sm.Load(ctx, userID))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func denyUnauthenticated(w http.ResponseWriter, r *http.Request) {
	if wantsJSON(r) {
		render.Status(r, http.StatusUnauthorized)
		render.JSON(w, r, map[string]string{"error": "authentication required"})
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// wantsJSON reports whether the caller cannot follow an HTML redirect: JSON
// clients and websocket upgrades.
func wantsJSON(r *http.Request) bool {
	if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
