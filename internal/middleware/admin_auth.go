package middleware

import (
	"log/slog"
	"net/http"
	"slices"

	"arabic-chatbot.app/internal/models"
	"arabic-chatbot.app/internal/session"
)

type contextKey string

// RequireRole allows the request only when the session role is one of
// allowedRoles. Must run after RequireSession.
func RequireRole(allowedRoles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := session.FromContext(r.Context())
			if !ok {
				slog.Error("RequireRole: no session in context")
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}

			if !slices.Contains(allowedRoles, sess.Role()) {
				slog.Warn("Access denied: insufficient role", "user_id", sess.UserID, "role", sess.Role(), "required", allowedRoles, "path", r.URL.Path)
				http.Error(w, "You do not have access to this page.", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
