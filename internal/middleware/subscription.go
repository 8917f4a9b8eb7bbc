package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"arabic-chatbot.app/internal/logger/sl"
	"arabic-chatbot.app/internal/session"
	"arabic-chatbot.app/internal/subscription"

	"github.com/go-chi/render"
)

type EntitlementChecker interface {
	Check(ctx context.Context, userID, token string) (subscription.Decision, error)
}

const decisionContextKey contextKey = "subscription"

// RequireSubscription lets the request through only when the user's
// subscription is granted. Everything else, lookup failures included, goes
// to /payments. Admins are never gated and carry no decision. Must run after
// RequireSession.
func RequireSubscription(checker EntitlementChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := session.FromContext(r.Context())
			if !ok {
				slog.Error("RequireSubscription: no session in context")
				denyUnauthenticated(w, r)
				return
			}
			if sess.IsAdmin {
				next.ServeHTTP(w, r)
				return
			}

			decision, err := checker.Check(r.Context(), sess.UserID, sess.Token)
			if err != nil {
				slog.Error("Subscription lookup failed, denying access", "user_id", sess.UserID, sl.Err(err))
			}
			if err != nil || !decision.Granted() {
				slog.Info("Access denied: no active subscription", "user_id", sess.UserID, "state", decision.State, "path", r.URL.Path)
				if wantsJSON(r) {
					render.Status(r, http.StatusForbidden)
					render.JSON(w, r, map[string]string{"error": "subscription required"})
					return
				}
				http.Redirect(w, r, "/payments", http.StatusSeeOther)
				return
			}

			ctx := context.WithValue(r.Context(), decisionContextKey, decision)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// DecisionFromContext returns the decision RequireSubscription granted.
func DecisionFromContext(ctx context.Context) (subscription.Decision, bool) {
	d, ok := ctx.Value(decisionContextKey).(subscription.Decision)
	return d, ok
}
