package server

import (
	"log/slog"
	"net/http"

	"github.com/cloo-solutions/docqa/internal/api/handlers"
	"github.com/cloo-solutions/docqa/internal/api/middleware"
	"github.com/go-chi/chi/v5"
)

const defaultMaxBodyBytes int64 = 25 * 1024 * 1024

type RouterConfig struct {
	DocumentHandler *handlers.DocumentHandler
	ChatHandler     *handlers.ChatHandler
	HealthHandler   *handlers.HealthHandler
	MaxBodyBytes    int64
	Logger          *slog.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	maxBody := cfg.MaxBodyBytes
	if maxBody == 0 {
		maxBody = defaultMaxBodyBytes
	}
	health := cfg.HealthHandler
	if health == nil {
		health = handlers.NewHealthHandler(nil)
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog(cfg.Logger))
	r.Use(middleware.MaxBodyBytes(maxBody))

	r.Get("/health", health.Health)

	r.Route("/documents", func(r chi.Router) {
		r.Post("/upload", cfg.DocumentHandler.Upload)
		r.Delete("/{id}", cfg.DocumentHandler.Delete)
	})

	r.Post("/chat", cfg.ChatHandler.Chat)

	return r
}
