package router

import (
	"mandil-capture-api/internal/handler"
	"mandil-capture-api/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// Config holds the configuration for creating a router.
type Config struct {
	Handler         *handler.Handler
	DeliveryHandler *handler.DeliveryHandler
	SyncHandler     *handler.SyncHandler
	OperatorHandler *handler.OperatorHandler
}

// New creates and configures the HTTP router.
func New(cfg Config) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware stack (applies to ALL routes)
	r.Use(middleware.Recovery)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if cfg.Handler != nil {
		r.Get("/api/status", cfg.Handler.Status)
	}

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.Handler != nil {
			r.Get("/health", cfg.Handler.Health)
		}

		if cfg.DeliveryHandler != nil {
			r.Route("/deliveries", func(r chi.Router) {
				r.Post("/", cfg.DeliveryHandler.Create)
				r.Get("/", cfg.DeliveryHandler.List)
				r.Delete("/{id}", cfg.DeliveryHandler.Delete)
			})

			r.Get("/shift", cfg.DeliveryHandler.GetShift)
			r.Put("/shift", cfg.DeliveryHandler.SetShift)
		}

		if cfg.SyncHandler != nil {
			r.Route("/sync", func(r chi.Router) {
				r.Get("/status", cfg.SyncHandler.Status)
				r.Post("/deliveries", cfg.SyncHandler.SweepDeliveries)
				r.Post("/deliveries/{id}", cfg.SyncHandler.RetryDelivery)
				r.Post("/operators", cfg.SyncHandler.SyncOperators)
			})
		}

		if cfg.OperatorHandler != nil {
			r.Get("/operators/{code}", cfg.OperatorHandler.Lookup)
		}
	})

	return r
}
