package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/aurora-whatsapp-relay/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/aurora-whatsapp-relay/internal/http/middleware"
	"github.com/wolfman30/aurora-whatsapp-relay/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger         *logging.Logger
	Webhook        *handlers.EvolutionWebhookHandler
	Status         *handlers.StatusHandler
	MetricsHandler http.Handler
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger, "/health", "/metrics"))
	}

	if cfg.Status != nil {
		r.Get("/", cfg.Status.Root)
		r.Get("/health", cfg.Status.Health)
		r.Get("/stats", cfg.Status.Stats)
	}
	if cfg.Webhook != nil {
		r.Post("/webhook", cfg.Webhook.Handle)
	}
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	return r
}
