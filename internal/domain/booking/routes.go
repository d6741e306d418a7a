package booking

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers booking routes. All of them require auth.
func RegisterRoutes(r chi.Router, handler *Handler, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/bookings", func(r chi.Router) {
		r.Use(authMiddleware)

		r.Get("/", handler.List)
		r.Post("/", handler.Create)
		r.Post("/check-expired", handler.CheckExpired)
		r.Get("/{id}", handler.Get)
		r.Put("/{id}/status", handler.UpdateStatus)
		r.Put("/{id}/return", handler.Return)
		r.Put("/{id}/rate", handler.Rate)
	})
}
