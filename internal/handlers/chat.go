package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"arabic-chatbot.app/internal/logger/sl"
	"arabic-chatbot.app/internal/middleware"
	"arabic-chatbot.app/internal/models"
	"arabic-chatbot.app/internal/session"
)

type ChatAPI interface {
	ListFlashcards(ctx context.Context, token, userID string) ([]models.Flashcard, error)
	ListDocuments(ctx context.Context, token string) ([]models.Document, error)
	SetLanguage(ctx context.Context, token string, lang models.Language) error
}

type ChatHandlers struct {
	App *AppHandlers
	API ChatAPI
}

func NewChatHandlers(app *AppHandlers, api ChatAPI) *ChatHandlers {
	return &ChatHandlers{App: app, API: api}
}

// ChatPageHandler renders the chat view. The conversation itself runs over
// the websocket channel.
func (h *ChatHandlers) ChatPageHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	data := h.App.NewPageData(r)
	data.PageTitle = "Chat"
	if d, ok := middleware.DecisionFromContext(r.Context()); ok {
		data.Decision = &d
	}

	if sess.IsAdmin {
		h.loadDocuments(r.Context(), sess, data)
	} else {
		h.loadFlashcards(r.Context(), sess, data)
	}
	h.App.RenderPage(w, r, "chat.html", data)
}

// FlashcardsHandler returns the sidebar fragment so the page can refresh it
// after a card is saved.
func (h *ChatHandlers) FlashcardsHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}
	data := &PageData{Session: sess}
	h.loadFlashcards(r.Context(), sess, data)
	h.App.RenderFragment(w, "flashcards", data)
}

func (h *ChatHandlers) loadFlashcards(ctx context.Context, sess *session.Session, data *PageData) {
	cards, err := h.API.ListFlashcards(ctx, sess.Token, sess.UserID)
	if err != nil {
		slog.Warn("Loading flashcards failed", "user_id", sess.UserID, sl.Err(err))
		data.FlashcardsError = "Could not load your flashcards."
		return
	}
	data.Flashcards = cards
}

func (h *ChatHandlers) loadDocuments(ctx context.Context, sess *session.Session, data *PageData) {
	docs, err := h.API.ListDocuments(ctx, sess.Token)
	if err != nil {
		slog.Warn("Loading documents failed", "user_id", sess.UserID, sl.Err(err))
		data.DocumentsError = "Could not load documents."
		return
	}
	data.Documents = docs
}

// LanguageHandler stores the interface language. The remote copy is best
// effort: a failure there is logged and the local choice still applies.
func (h *ChatHandlers) LanguageHandler(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		h.App.RenderError(w, r, http.StatusBadRequest, "The form could not be read.")
		return
	}

	lang := models.Language(r.PostForm.Get("language"))
	if !lang.Valid() {
		h.App.Sessions.FlashError(r.Context(), "Unsupported language.")
	} else {
		h.App.Sessions.SetLanguage(r.Context(), lang)
		if err := h.API.SetLanguage(r.Context(), sess.Token, lang); err != nil {
			slog.Warn("Forwarding language preference failed", "user_id", sess.UserID, "language", lang, sl.Err(err))
		}
	}
	http.Redirect(w, r, localRedirect(r.PostForm.Get("next"), "/chat"), http.StatusSeeOther)
}

// localRedirect accepts only same-site absolute paths.
func localRedirect(next, fallback string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}
	return next
}
