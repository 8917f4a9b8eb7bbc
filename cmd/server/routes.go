package main

import (
	"context"
	"log/slog"
	"net/http"

	"arabic-chatbot.app/internal/config"
	"arabic-chatbot.app/internal/handlers"
	adminhandlers "arabic-chatbot.app/internal/handlers/admin"
	"arabic-chatbot.app/internal/middleware"
	"arabic-chatbot.app/internal/models"
	"arabic-chatbot.app/internal/realtime"
	"arabic-chatbot.app/internal/remote"
	"arabic-chatbot.app/internal/subscription"
	"arabic-chatbot.app/ui"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Multipart framing on top of the largest accepted document.
const bodyOverhead = 1 << 20

type application struct {
	cfg      *config.Config
	logger   *slog.Logger
	pages    *handlers.AppHandlers
	remote   *remote.Client
	gate     *subscription.Gate
	limiter  *middleware.IPRateLimiter
	shutdown context.Context
}

func (app *application) routes() http.Handler {
	sessions := app.pages.Sessions

	authHandlers := handlers.NewAuthHandlers(app.pages, app.remote)
	paymentHandlers := handlers.NewPaymentHandlers(app.pages, app.remote, app.gate)
	chatHandlers := handlers.NewChatHandlers(app.pages, app.remote)

	optional := middleware.OptionalSession(sessions)
	guard := middleware.RequireSession(sessions, app.remote)
	gated := func(h http.Handler) http.Handler {
		return guard(middleware.RequireSubscription(app.gate)(h))
	}
	admin := func(h http.HandlerFunc) http.Handler {
		return guard(middleware.RequireRole(models.RoleAdmin)(h))
	}
	limited := app.limiter.Middleware

	mux := http.NewServeMux()
	mux.Handle("GET /static/", http.FileServerFS(ui.Files))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.Handle("/", optional(http.HandlerFunc(app.pages.RootHandler)))

	// Auth
	mux.HandleFunc("GET /login", authHandlers.LoginPageHandler)
	mux.Handle("POST /login", limited(http.HandlerFunc(authHandlers.LoginHandler)))
	mux.HandleFunc("GET /signup", authHandlers.SignupPageHandler)
	mux.Handle("POST /signup", limited(http.HandlerFunc(authHandlers.SignupHandler)))
	mux.HandleFunc("POST /logout", authHandlers.LogoutHandler)

	// Payments: guard only, the page is where the gate sends users.
	mux.Handle("GET /payments", guard(http.HandlerFunc(paymentHandlers.PaymentsPageHandler)))
	mux.Handle("POST /payments/trial", guard(http.HandlerFunc(paymentHandlers.StartTrialHandler)))
	mux.Handle("POST /payments/subscribe", guard(http.HandlerFunc(paymentHandlers.SubscribeHandler)))

	// Chat
	mux.Handle("GET /chat", gated(http.HandlerFunc(chatHandlers.ChatPageHandler)))
	mux.Handle("GET /chat/ws", gated(realtime.Handler(app.shutdown, app.remote, app.remote, app.logger)))
	mux.Handle("GET /flashcards", gated(http.HandlerFunc(chatHandlers.FlashcardsHandler)))
	mux.Handle("POST /language", guard(http.HandlerFunc(chatHandlers.LanguageHandler)))

	// Admin
	mux.Handle("GET /admin/documents", admin(adminhandlers.DocumentsPageHandler(app.pages, app.remote)))
	mux.Handle("POST /admin/documents/upload", admin(adminhandlers.UploadDocumentHandler(app.pages, app.remote)))
	mux.Handle("POST /admin/videos", admin(adminhandlers.AddVideoHandler(app.pages, app.remote)))
	mux.Handle("GET /admin/documents/{id}/delete", admin(adminhandlers.ConfirmDeletePageHandler(app.pages, app.remote)))
	mux.Handle("POST /admin/documents/{id}/delete", admin(adminhandlers.DeleteDocumentHandler(app.pages, app.remote)))

	// Metrics reads r.Pattern, so it has to sit directly on the mux.
	var h http.Handler = middleware.Metrics(mux)
	h = middleware.NoSurfMiddleware(h, app.cfg.IsProduction())
	h = sessions.SessionManager().LoadAndSave(h)
	h = middleware.MaxBodyBytes(app.cfg.MaxDocumentBytes() + bodyOverhead)(h)
	h = middleware.RequestLogger(app.logger)(h)
	h = chimw.Recoverer(h)
	h = chimw.RealIP(h)
	h = chimw.RequestID(h)
	return h
}
