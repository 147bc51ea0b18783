package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer, h.withTraceID, h.withLogging, h.withGZip, middleware.RequestSize(maxBodyBytes))

	router.Get("/api/ping", h.ping)
	router.Get("/api/version", h.getServerVersion)
	router.Get("/api/metrics", h.getMetrics)
	router.Post("/api/devices", h.registerDevice)

	// routes for a known device
	router.Group(func(r chi.Router) {
		r.Use(h.withDevice)

		r.Get("/api/devices/{deviceID}", h.getDevice)
		r.Put("/api/devices/{deviceID}/checkpoint", h.reportCheckpoint)
		r.With(h.batchHashing).Post("/api/actions/batch", h.submitBatch)
		r.Get("/api/conflicts", h.listConflicts)
		r.Post("/api/conflicts/{conflictID}/resolve", h.resolveConflict)
		r.Get("/api/resources/{key}", h.getResource)
	})

	router.MethodNotAllowed(CheckHTTPMethod(router))

	return router
}
