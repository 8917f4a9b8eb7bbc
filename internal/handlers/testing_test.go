package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"arabic-chatbot.app/internal/config"
	"arabic-chatbot.app/internal/session"
	"arabic-chatbot.app/ui"

	"github.com/alexedwards/scs/v2"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) *AppHandlers {
	t.Helper()
	cfg := &config.Config{
		SiteName:     "Arabic Tutor",
		BaseURL:      "http://localhost",
		Uploads:      config.UploadsConfig{MaxDocumentMB: 20},
		Subscription: config.SubscriptionConfig{TrialDays: 3, MonthlyPrice: 9.99, YearlyPrice: 99.99},
	}
	app, err := NewAppHandlers(cfg, session.NewManager(scs.New()), ui.Files)
	require.NoError(t, err)
	return app
}

// newRequest builds a request with a loaded session store. A non-nil sess is
// also placed in the context as the guard would.
func newRequest(t *testing.T, app *AppHandlers, method, target string, form url.Values, sess *session.Session) *http.Request {
	t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}

	ctx, err := app.Sessions.SessionManager().Load(req.Context(), "")
	require.NoError(t, err)
	if sess != nil {
		require.NoError(t, app.Sessions.Begin(ctx, sess.Token, sess.UserID))
		ctx = session.WithSession(ctx, sess)
	}
	return req.WithContext(ctx)
}

func userSession() *session.Session {
	return &session.Session{Token: "tok", UserID: "7", Username: "amina", Language: "English"}
}

func flashes(app *AppHandlers, ctx context.Context) (string, string) {
	return app.Sessions.PopFlash(ctx)
}
