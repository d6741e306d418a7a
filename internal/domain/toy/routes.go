package toy

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers toy routes
func RegisterRoutes(r chi.Router, handler *Handler, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/toys", func(r chi.Router) {
		r.Get("/", handler.List)
		r.Get("/{id}", handler.Get)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Post("/", handler.Create)
			r.Put("/{id}", handler.Update)
			r.Delete("/{id}", handler.Delete)
			r.Post("/{id}/photos", handler.UploadPhoto)
		})
	})
}
