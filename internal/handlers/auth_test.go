package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"arabic-chatbot.app/internal/models"
	"arabic-chatbot.app/internal/remote"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuth struct {
	login      *models.LoginResult
	loginErr   error
	signupErr  error
	signup     models.SignupRequest
	profile    *models.Profile
	profileErr error
}

func (f *fakeAuth) Login(_ context.Context, _, _ string) (*models.LoginResult, error) {
	return f.login, f.loginErr
}

func (f *fakeAuth) Signup(_ context.Context, req models.SignupRequest) error {
	f.signup = req
	return f.signupErr
}

func (f *fakeAuth) GetUser(_ context.Context, _, _ string) (*models.Profile, error) {
	return f.profile, f.profileErr
}

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("k"))
	require.NoError(t, err)
	return tok
}

func loginForm() url.Values {
	return url.Values{"email": {"amina@example.com"}, "password": {"secret"}}
}

func TestLoginStartsSession(t *testing.T) {
	app := newTestApp(t)
	api := &fakeAuth{
		login:   &models.LoginResult{AccessToken: "tok", UserID: "7"},
		profile: &models.Profile{Username: "amina", IsAdmin: true},
	}
	h := NewAuthHandlers(app, api)

	req := newRequest(t, app, http.MethodPost, "/login", loginForm(), nil)
	rec := httptest.NewRecorder()
	h.LoginHandler(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/chat", rec.Header().Get("Location"))

	ctx := req.Context()
	assert.Equal(t, "tok", app.Sessions.Token(ctx))
	assert.Equal(t, "7", app.Sessions.StoredUserID(ctx))
	assert.True(t, app.Sessions.ProfileLoaded(ctx))
	sess := app.Sessions.Load(ctx, "7")
	assert.Equal(t, "amina", sess.Username)
	assert.True(t, sess.IsAdmin)
}

func TestLoginTakesUserIDFromTokenWhenMissing(t *testing.T) {
	app := newTestApp(t)
	tok := signedToken(t, jwt.MapClaims{"sub": "15"})
	h := NewAuthHandlers(app, &fakeAuth{
		login:      &models.LoginResult{AccessToken: tok},
		profileErr: errors.New("profile down"),
	})

	req := newRequest(t, app, http.MethodPost, "/login", loginForm(), nil)
	rec := httptest.NewRecorder()
	h.LoginHandler(rec, req)

	assert.Equal(t, "/chat", rec.Header().Get("Location"))
	assert.Equal(t, "15", app.Sessions.StoredUserID(req.Context()))
	assert.False(t, app.Sessions.ProfileLoaded(req.Context()), "guard retries the profile lookup")
}

func TestLoginFailures(t *testing.T) {
	tests := []struct {
		name    string
		form    url.Values
		api     *fakeAuth
		status  int
		message string
	}{
		{
			name:    "invalid email",
			form:    url.Values{"email": {"nope"}, "password": {"x"}},
			api:     &fakeAuth{},
			status:  http.StatusBadRequest,
			message: "Enter a valid email address.",
		},
		{
			name:    "wrong credentials",
			form:    loginForm(),
			api:     &fakeAuth{loginErr: &remote.APIError{StatusCode: http.StatusUnauthorized, Message: "Invalid credentials"}},
			status:  http.StatusUnauthorized,
			message: "Invalid credentials",
		},
		{
			name:    "upstream down",
			form:    loginForm(),
			api:     &fakeAuth{loginErr: errors.New("dial tcp: refused")},
			status:  http.StatusBadGateway,
			message: "Login failed:",
		},
		{
			name:    "token without user id",
			form:    loginForm(),
			api:     &fakeAuth{login: &models.LoginResult{AccessToken: "not-a-jwt"}},
			status:  http.StatusBadGateway,
			message: "unusable token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(t)
			h := NewAuthHandlers(app, tt.api)

			req := newRequest(t, app, http.MethodPost, "/login", tt.form, nil)
			rec := httptest.NewRecorder()
			h.LoginHandler(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.message)
			assert.Empty(t, app.Sessions.Token(req.Context()))
		})
	}
}

func TestLoginPageRedirectsSignedInUsers(t *testing.T) {
	app := newTestApp(t)
	h := NewAuthHandlers(app, &fakeAuth{})

	rec := httptest.NewRecorder()
	h.LoginPageHandler(rec, newRequest(t, app, http.MethodGet, "/login", nil, userSession()))
	assert.Equal(t, "/chat", rec.Header().Get("Location"))

	rec = httptest.NewRecorder()
	h.LoginPageHandler(rec, newRequest(t, app, http.MethodGet, "/login", nil, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `action="/login"`)
}

func signupForm() url.Values {
	return url.Values{
		"username":         {"amina"},
		"email":            {"amina@example.com"},
		"password":         {"secret1"},
		"confirm_password": {"secret1"},
		"language":         {"Arabic"},
	}
}

func TestSignupCreatesAccount(t *testing.T) {
	app := newTestApp(t)
	api := &fakeAuth{}
	h := NewAuthHandlers(app, api)

	req := newRequest(t, app, http.MethodPost, "/signup", signupForm(), nil)
	rec := httptest.NewRecorder()
	h.SignupHandler(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.Equal(t, "Arabic", api.signup.Language)
	assert.False(t, api.signup.IsAdmin)

	success, _ := flashes(app, req.Context())
	assert.Equal(t, "Account created, please log in.", success)
}

func TestSignupShowsRemoteFieldErrors(t *testing.T) {
	app := newTestApp(t)
	h := NewAuthHandlers(app, &fakeAuth{signupErr: &remote.APIError{
		StatusCode: http.StatusUnprocessableEntity,
		Message:    "email: value is not a valid email address",
		Fields:     []remote.FieldError{{Field: "body.email", Message: "value is not a valid email address"}},
	}})

	req := newRequest(t, app, http.MethodPost, "/signup", signupForm(), nil)
	rec := httptest.NewRecorder()
	h.SignupHandler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "value is not a valid email address")
	assert.Contains(t, rec.Body.String(), `value="amina"`)
}

func TestSignupValidatesLocally(t *testing.T) {
	app := newTestApp(t)
	api := &fakeAuth{}
	h := NewAuthHandlers(app, api)

	form := signupForm()
	form.Set("confirm_password", "other")
	req := newRequest(t, app, http.MethodPost, "/signup", form, nil)
	rec := httptest.NewRecorder()
	h.SignupHandler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Passwords do not match")
	assert.Empty(t, api.signup.Email, "nothing is sent upstream")
}

func TestFieldErrorValues(t *testing.T) {
	got := FieldErrorValues([]remote.FieldError{
		{Field: "body.link", Message: "invalid url"},
		{Field: "description", Message: "too long"},
	})
	assert.Equal(t, "invalid url", got.Get("link"))
	assert.Equal(t, "too long", got.Get("description"))
}

func TestLogoutDestroysSession(t *testing.T) {
	app := newTestApp(t)
	h := NewAuthHandlers(app, &fakeAuth{})

	req := newRequest(t, app, http.MethodPost, "/logout", url.Values{}, userSession())
	rec := httptest.NewRecorder()
	h.LogoutHandler(rec, req)

	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.Empty(t, app.Sessions.Token(req.Context()))
}
