// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"arabic-chatbot.app/internal/cache"
	"arabic-chatbot.app/internal/config"
	"arabic-chatbot.app/internal/handlers"
	"arabic-chatbot.app/internal/logger/sl"
	"arabic-chatbot.app/internal/middleware"
	"arabic-chatbot.app/internal/remote"
	"arabic-chatbot.app/internal/session"
	"arabic-chatbot.app/internal/subscription"
	"arabic-chatbot.app/ui"

	"github.com/alexedwards/scs/goredisstore"
	"github.com/alexedwards/scs/v2"
)

func main() {
	configPath := "configs/config.yaml"
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	config.InitLogger(cfg.AppEnv)
	slog.Info("Starting server", "app_env", cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessionManager := scs.New()
	sessionManager.Lifetime = cfg.SessionLifetime()
	sessionManager.Cookie.Name = cfg.Session.CookieName
	sessionManager.Cookie.HttpOnly = true
	sessionManager.Cookie.Persist = true
	sessionManager.Cookie.SameSite = http.SameSiteLaxMode
	sessionManager.Cookie.Secure = cfg.IsProduction()
	sessionManager.Cookie.Path = "/"

	var decisions subscription.Cache
	storeName := "memstore"
	if cfg.Redis.Addr != "" {
		rdb, err := cache.InitServer(ctx, cfg.Redis)
		if err != nil {
			slog.Error("failed to connect to redis", "addr", cfg.Redis.Addr, sl.Err(err))
			os.Exit(1)
		}
		defer rdb.Close()
		sessionManager.Store = goredisstore.New(rdb.Db)
		decisions = rdb
		storeName = "redis"
	} else {
		decisions = cache.NewMemory()
	}
	slog.Info("Session manager initialized", "store", storeName, "lifetime", sessionManager.Lifetime, "secure_cookie", sessionManager.Cookie.Secure)

	client := remote.NewClient(cfg.RemoteAPI.BaseURL, cfg.RequestTimeout(), cfg.UploadTimeout())
	gate := subscription.NewGate(client, decisions, cfg.SubscriptionCacheTTL())

	appHandlers, err := handlers.NewAppHandlers(cfg, session.NewManager(sessionManager), ui.Files)
	if err != nil {
		slog.Error("failed to initialize page handlers", sl.Err(err))
		os.Exit(1)
	}

	shutdown, closeChannels := context.WithCancel(context.Background())
	defer closeChannels()

	loginLimiter := middleware.NewIPRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)
	go loginLimiter.Cleanup(ctx, time.Minute, 10*time.Minute)

	app := &application{
		cfg:      cfg,
		logger:   slog.Default(),
		pages:    appHandlers,
		remote:   client,
		gate:     gate,
		limiter:  loginLimiter,
		shutdown: shutdown,
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           app.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.UploadTimeout(),
		// Answers from the tutor can take as long as the upstream timeout.
		WriteTimeout: cfg.UploadTimeout() + 10*time.Second,
		IdleTimeout:  120 * time.Second,
	}
	server.RegisterOnShutdown(closeChannels)

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Server listening", "addr", server.Addr, "base_url", cfg.BaseURL)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			slog.Error("server failed", sl.Err(err))
			os.Exit(1)
		}
	case <-ctx.Done():
		slog.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", sl.Err(err))
		return
	}
	slog.Info("Server stopped")
}
