// Package handlers provides HTTP handlers for the wallet session.
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/crapto/internal/services"
	"github.com/aristath/crapto/internal/utils"
)

// Handler handles wallet session requests
type Handler struct {
	session *services.SessionService
	log     zerolog.Logger
}

// NewHandler creates a new wallet handler
func NewHandler(session *services.SessionService, log zerolog.Logger) *Handler {
	return &Handler{
		session: session,
		log:     log.With().Str("handler", "wallet").Logger(),
	}
}

// RegisterRoutes registers the session routes under /api
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/session", func(r chi.Router) {
		r.Get("/", h.HandleGetSession)
		r.Post("/connect", h.HandleConnect)
		r.Post("/disconnect", h.HandleDisconnect)
	})
}

// HandleGetSession handles GET /api/session
func (h *Handler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	utils.WriteResponse(w, r, http.StatusOK, h.session.GetSession(), h.log)
}

// HandleConnect handles POST /api/session/connect
func (h *Handler) HandleConnect(w http.ResponseWriter, r *http.Request) {
	utils.WriteResponse(w, r, http.StatusOK, h.session.Connect(), h.log)
}

// HandleDisconnect handles POST /api/session/disconnect
func (h *Handler) HandleDisconnect(w http.ResponseWriter, r *http.Request) {
	utils.WriteResponse(w, r, http.StatusOK, h.session.Disconnect(), h.log)
}
