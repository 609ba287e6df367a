package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the create-token routes under /api
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/create-token", func(r chi.Router) {
		r.With(h.rateLimit).Post("/", h.HandleCreateToken)
		r.Get("/", h.HandleListTokens)
	})
}
