package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/aureliahealth/accuro-voice-adapter/internal/http/handlers"
	httpmiddleware "github.com/aureliahealth/accuro-voice-adapter/internal/http/middleware"
	"github.com/aureliahealth/accuro-voice-adapter/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger         *logging.Logger
	WebhookHandler *handlers.RetellWebhookHandler

	// RetellWebhookKey guards the webhook surface; empty disables it.
	RetellWebhookKey string

	// MetricsHandler serves GET /metrics when set.
	MetricsHandler http.Handler
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", healthCheck)
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	// Retell webhook tools, bearer-key guarded
	r.Route("/webhook", func(wr chi.Router) {
		wr.Use(httpmiddleware.WebhookAuth(cfg.RetellWebhookKey))
		wr.Post("/cancel", cfg.WebhookHandler.HandleCancel)
		wr.Post("/patient", cfg.WebhookHandler.HandlePatient)
		wr.Post("/appointment/find", cfg.WebhookHandler.HandleFind)
		wr.Post("/book", cfg.WebhookHandler.HandleBook)
		wr.Post("/reschedule", cfg.WebhookHandler.HandleReschedule)
		wr.Post("/availability", cfg.WebhookHandler.HandleAvailability)
	})

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
