package api

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/aethergrid/aethergrid/internal/api/middleware"
)

// NewRouter assembles the chi router with the standard middleware stack.
func NewRouter(h *Handlers) chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(middleware.Logger)
	r.Use(middleware.Telemetry)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "Authorization"},
		MaxAge:         300,
	}))

	r.Get("/healthz", h.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/version", h.GetVersion)

		r.Route("/telemetry", func(r chi.Router) {
			r.Get("/", h.GetTelemetry)
			r.Get("/latest", h.GetLatestTelemetry)
			r.Get("/stream", h.StreamTelemetry)
			r.Post("/analyze", h.AnalyzeTelemetry)
		})

		r.Route("/workorders", func(r chi.Router) {
			r.Get("/", h.ListWorkOrders)
			r.Post("/", h.CreateWorkOrder)
			r.Post("/dispatch", h.DispatchCrew)
			r.Get("/{orderID}", h.GetWorkOrder)
			r.Patch("/{orderID}", h.UpdateWorkOrder)
		})

		r.Get("/strategies", h.ListStrategies)
		r.Post("/solar/analyze", h.AnalyzeSolar)
		r.Post("/agent/run", h.RunAgent)
	})

	return r
}
