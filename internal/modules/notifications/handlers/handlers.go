// Package handlers provides HTTP handlers for notifications.
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/crapto/internal/services"
	"github.com/aristath/crapto/internal/utils"
)

// Handler handles notification requests
type Handler struct {
	session *services.SessionService
	log     zerolog.Logger
}

// NewHandler creates a new notifications handler
func NewHandler(session *services.SessionService, log zerolog.Logger) *Handler {
	return &Handler{
		session: session,
		log:     log.With().Str("handler", "notifications").Logger(),
	}
}

// RegisterRoutes registers the notification routes under /api
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/notifications/active", h.HandleGetActive)
	r.Delete("/notifications/active", h.HandleDismiss)
}

// HandleGetActive handles GET /api/notifications/active. 204 when nothing is visible.
func (h *Handler) HandleGetActive(w http.ResponseWriter, r *http.Request) {
	n, ok := h.session.GetNotification()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	utils.WriteResponse(w, r, http.StatusOK, n, h.log)
}

// HandleDismiss handles DELETE /api/notifications/active
func (h *Handler) HandleDismiss(w http.ResponseWriter, r *http.Request) {
	h.session.DismissNotification()
	w.WriteHeader(http.StatusNoContent)
}
