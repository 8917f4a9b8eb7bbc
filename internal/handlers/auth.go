package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"arabic-chatbot.app/internal/logger/sl"
	"arabic-chatbot.app/internal/models"
	"arabic-chatbot.app/internal/remote"
	"arabic-chatbot.app/internal/session"
	"arabic-chatbot.app/internal/validation"
)

type AuthAPI interface {
	Login(ctx context.Context, email, password string) (*models.LoginResult, error)
	Signup(ctx context.Context, req models.SignupRequest) error
	GetUser(ctx context.Context, token, userID string) (*models.Profile, error)
}

type AuthHandlers struct {
	App *AppHandlers
	API AuthAPI
}

func NewAuthHandlers(app *AppHandlers, api AuthAPI) *AuthHandlers {
	return &AuthHandlers{App: app, API: api}
}

func (h *AuthHandlers) LoginPageHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := session.FromContext(r.Context()); ok {
		http.Redirect(w, r, "/chat", http.StatusSeeOther)
		return
	}
	data := h.App.NewPageData(r)
	data.PageTitle = "Log in"
	data.PageDescription = "Log in to practise Arabic with your tutor."
	h.App.RenderPage(w, r, "login.html", data)
}

func (h *AuthHandlers) LoginHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.App.RenderError(w, r, http.StatusBadRequest, "The form could not be read.")
		return
	}
	form := validation.LoginForm{
		Email:    strings.TrimSpace(r.PostForm.Get("email")),
		Password: r.PostForm.Get("password"),
	}

	renderFailed := func(status int, errs url.Values) {
		data := h.App.NewPageData(r)
		data.PageTitle = "Log in"
		data.Status = status
		data.Errors = errs
		data.FormValues = url.Values{"email": {form.Email}}
		if general := errs.Get("general"); general != "" {
			data.FlashError = general
		}
		h.App.RenderPage(w, r, "login.html", data)
	}

	if errs := validation.ValidateStruct(form); errs != nil {
		renderFailed(http.StatusBadRequest, errs)
		return
	}

	ctx := r.Context()
	res, err := h.API.Login(ctx, form.Email, form.Password)
	if err != nil {
		var apiErr *remote.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode < http.StatusInternalServerError {
			slog.Info("Login rejected", "email", form.Email, "status", apiErr.StatusCode)
			renderFailed(http.StatusUnauthorized, url.Values{"general": {apiErr.Message}})
			return
		}
		slog.Error("Login request failed", "email", form.Email, sl.Err(err))
		renderFailed(http.StatusBadGateway, url.Values{"general": {"Login failed: " + remote.Message(err)}})
		return
	}

	userID := res.UserID.String()
	if userID == "" {
		if userID, err = session.UserIDFromToken(res.AccessToken); err != nil {
			slog.Error("Login token carries no user id", sl.Err(err))
			renderFailed(http.StatusBadGateway, url.Values{"general": {"Login failed: the server returned an unusable token."}})
			return
		}
	}

	if err := h.App.Sessions.Begin(ctx, res.AccessToken, userID); err != nil {
		slog.Error("Failed to start session", "user_id", userID, sl.Err(err))
		h.App.RenderError(w, r, http.StatusInternalServerError, "Could not start your session. Please try again.")
		return
	}

	// The guard retries the lookup when this fails.
	if profile, err := h.API.GetUser(ctx, res.AccessToken, userID); err != nil {
		slog.Warn("Profile lookup after login failed", "user_id", userID, sl.Err(err))
	} else {
		h.App.Sessions.SetProfile(ctx, profile)
	}

	slog.Info("User logged in", "user_id", userID)
	http.Redirect(w, r, "/chat", http.StatusSeeOther)
}

func (h *AuthHandlers) SignupPageHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := session.FromContext(r.Context()); ok {
		http.Redirect(w, r, "/chat", http.StatusSeeOther)
		return
	}
	data := h.App.NewPageData(r)
	data.PageTitle = "Sign up"
	data.PageDescription = "Create an account for your Arabic tutor."
	if data.FormValues.Get("language") == "" {
		data.FormValues.Set("language", string(models.LanguageEnglish))
	}
	h.App.RenderPage(w, r, "signup.html", data)
}

func (h *AuthHandlers) SignupHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.App.RenderError(w, r, http.StatusBadRequest, "The form could not be read.")
		return
	}
	form := validation.SignupForm{
		Username:        strings.TrimSpace(r.PostForm.Get("username")),
		Email:           strings.TrimSpace(r.PostForm.Get("email")),
		Password:        r.PostForm.Get("password"),
		ConfirmPassword: r.PostForm.Get("confirm_password"),
		Language:        r.PostForm.Get("language"),
	}

	renderFailed := func(status int, errs url.Values, general string) {
		data := h.App.NewPageData(r)
		data.PageTitle = "Sign up"
		data.Status = status
		data.Errors = errs
		data.FlashError = general
		data.FormValues = url.Values{
			"username": {form.Username},
			"email":    {form.Email},
			"language": {form.Language},
		}
		h.App.RenderPage(w, r, "signup.html", data)
	}

	if errs := validation.ValidateStruct(form); errs != nil {
		renderFailed(http.StatusBadRequest, errs, "")
		return
	}

	err := h.API.Signup(r.Context(), models.SignupRequest{
		Username:        form.Username,
		Email:           form.Email,
		Password:        form.Password,
		ConfirmPassword: form.ConfirmPassword,
		Language:        form.Language,
	})
	if err != nil {
		var apiErr *remote.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode < http.StatusInternalServerError {
			slog.Info("Signup rejected", "email", form.Email, "status", apiErr.StatusCode, "reason", apiErr.Message)
			renderFailed(http.StatusBadRequest, FieldErrorValues(apiErr.Fields), apiErr.Message)
			return
		}
		slog.Error("Signup request failed", "email", form.Email, sl.Err(err))
		renderFailed(http.StatusBadGateway, nil, "Signup failed: "+remote.Message(err))
		return
	}

	slog.Info("User signed up", "email", form.Email)
	h.App.Sessions.SetLanguage(r.Context(), models.Language(form.Language))
	h.App.Sessions.FlashSuccess(r.Context(), "Account created, please log in.")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (h *AuthHandlers) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	userID := h.App.Sessions.StoredUserID(r.Context())
	if err := h.App.Sessions.Destroy(r.Context()); err != nil {
		slog.Error("Failed to destroy session on logout", sl.Err(err))
		h.App.RenderError(w, r, http.StatusInternalServerError, "Logout failed. Please try again.")
		return
	}
	slog.Info("User logged out", "user_id", userID)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// FieldErrorValues keys FastAPI field errors by their last location segment,
// which matches the form field names.
func FieldErrorValues(fields []remote.FieldError) url.Values {
	out := url.Values{}
	for _, f := range fields {
		name := f.Field
		if i := strings.LastIndex(name, "."); i >= 0 {
			name = name[i+1:]
		}
		out.Add(name, f.Message)
	}
	return out
}
