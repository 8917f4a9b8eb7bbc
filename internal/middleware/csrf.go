package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/justinas/nosurf"
)

// NoSurfMiddleware protects every unsafe request with a CSRF token.
// isProduction marks the token cookie Secure.
func NoSurfMiddleware(next http.Handler, isProduction bool) http.Handler {
	csrfHandler := nosurf.New(next)

	csrfHandler.SetBaseCookie(http.Cookie{
		HttpOnly: true,
		Path:     "/",
		Secure:   isProduction,
		SameSite: http.SameSiteLaxMode,
	})

	// The origin check compares against the scheme the browser used, which
	// behind a TLS-terminating proxy only X-Forwarded-Proto carries.
	csrfHandler.SetIsTLSFunc(isTLSRequest)

	csrfHandler.SetFailureHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slog.Warn("CSRF token check failed", "path", r.URL.Path, "method", r.Method, "reason", nosurf.Reason(r))
		http.Error(w, "Invalid or missing CSRF token. Reload the page and try again.", http.StatusForbidden)
	}))

	return csrfHandler
}

func isTLSRequest(r *http.Request) bool {
	return r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
