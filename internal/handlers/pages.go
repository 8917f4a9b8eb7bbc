package handlers

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"

	"arabic-chatbot.app/internal/config"
	"arabic-chatbot.app/internal/logger/sl"
	"arabic-chatbot.app/internal/models"
	"arabic-chatbot.app/internal/session"
	"arabic-chatbot.app/internal/subscription"

	"github.com/justinas/nosurf"
)

type PlanOption struct {
	Plan        models.Plan
	Title       string
	Price       string
	Description string
	Trial       bool
}

type PageData struct {
	SiteName        string
	SiteDescription string
	CurrentYear     int
	BaseURL         string
	CurrentPath     string
	CSRFToken       string
	PageTitle       string
	PageDescription string
	RobotsContent   string

	Session         *session.Session
	IsAuthenticated bool
	IsAdmin         bool
	UserName        string
	Language        models.Language
	Languages       []models.Language
	SpeechLang      string

	FlashSuccess string
	FlashError   string
	ErrorMessage string
	Errors       url.Values
	FormValues   url.Values

	Decision        *subscription.Decision
	Plans           []PlanOption
	Levels          []models.Level
	Flashcards      []models.Flashcard
	FlashcardsError string
	Documents       []models.Document
	DocumentsError  string
	Document        *models.Document
	MaxUploadMB     int

	// Status is the response code; zero means 200.
	Status int
}

type AppHandlers struct {
	Config   *config.Config
	Sessions *session.Manager
	pages    map[string]*template.Template
	base     *template.Template
}

var funcMap = template.FuncMap{
	"hasPrefix": strings.HasPrefix,
}

// NewAppHandlers parses the base layout and partials once, then one clone per
// page under templates/pages.
func NewAppHandlers(cfg *config.Config, sessions *session.Manager, files fs.FS) (*AppHandlers, error) {
	const op = "handlers.NewAppHandlers"

	base, err := template.New("base.html").Funcs(funcMap).ParseFS(files, "templates/base.html", "templates/parts/*.html")
	if err != nil {
		return nil, fmt.Errorf("%s: parse base templates: %w", op, err)
	}

	pageFiles, err := fs.Glob(files, "templates/pages/*.html")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(pageFiles) == 0 {
		return nil, fmt.Errorf("%s: no page templates found", op)
	}

	pages := make(map[string]*template.Template, len(pageFiles))
	for _, file := range pageFiles {
		tmpl, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("%s: clone base: %w", op, err)
		}
		if tmpl, err = tmpl.ParseFS(files, file); err != nil {
			return nil, fmt.Errorf("%s: parse %s: %w", op, file, err)
		}
		pages[path.Base(file)] = tmpl
	}
	slog.Info("Templates loaded", "pages", len(pages))

	return &AppHandlers{
		Config:   cfg,
		Sessions: sessions,
		pages:    pages,
		base:     base,
	}, nil
}

func (h *AppHandlers) NewPageData(r *http.Request) *PageData {
	ctx := r.Context()
	flashSuccess, flashError := h.Sessions.PopFlash(ctx)
	formErrors, formValues := h.Sessions.PopForm(ctx)

	data := &PageData{
		SiteName:        h.Config.SiteName,
		SiteDescription: h.Config.SiteDescription,
		CurrentYear:     h.Config.CurrentYear,
		BaseURL:         h.Config.BaseURL,
		CurrentPath:     r.URL.Path,
		CSRFToken:       nosurf.Token(r),
		RobotsContent:   "noindex, nofollow",
		Language:        models.LanguageEnglish,
		Languages:       models.Languages,
		Levels:          models.Levels,
		FlashSuccess:    flashSuccess,
		FlashError:      flashError,
		Errors:          formErrors,
		FormValues:      formValues,
		MaxUploadMB:     h.Config.Uploads.MaxDocumentMB,
	}

	if sess, ok := session.FromContext(ctx); ok {
		data.Session = sess
		data.IsAuthenticated = true
		data.IsAdmin = sess.IsAdmin
		data.UserName = sess.DisplayName()
		data.Language = sess.Language
	}
	data.SpeechLang = data.Language.SpeechLang()
	return data
}

// RenderPage executes the page into a buffer first so a template error can
// still produce a clean 500.
func (h *AppHandlers) RenderPage(w http.ResponseWriter, r *http.Request, pageName string, data *PageData) {
	if data == nil {
		data = h.NewPageData(r)
	}
	if data.PageTitle == "" {
		data.PageTitle = h.Config.SiteName
	}
	if data.PageDescription == "" {
		data.PageDescription = h.Config.SiteDescription
	}

	tmpl, ok := h.pages[pageName]
	if !ok {
		slog.Error("Page template not found", "page", pageName)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.execute(w, tmpl, "base.html", pageName, data)
}

// RenderFragment renders a named partial without the layout.
func (h *AppHandlers) RenderFragment(w http.ResponseWriter, name string, data *PageData) {
	h.execute(w, h.base, name, name, data)
}

func (h *AppHandlers) execute(w http.ResponseWriter, tmpl *template.Template, name, page string, data *PageData) {
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		slog.Error("Template execution failed", "template", name, "page", page, sl.Err(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	status := data.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Debug("Writing response failed", sl.Err(err))
	}
}

// RenderError shows the error page with status.
func (h *AppHandlers) RenderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	data := h.NewPageData(r)
	data.Status = status
	data.PageTitle = http.StatusText(status)
	data.ErrorMessage = message
	h.RenderPage(w, r, "error.html", data)
}

// RootHandler sends signed-in users to the chat and everyone else to login.
func (h *AppHandlers) RootHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		h.RenderError(w, r, http.StatusNotFound, "The page you are looking for does not exist.")
		return
	}
	if _, ok := session.FromContext(r.Context()); ok {
		http.Redirect(w, r, "/chat", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
