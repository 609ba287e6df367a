// Package handlers provides HTTP handlers for the token catalog.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/crapto/internal/domain"
	"github.com/aristath/crapto/internal/services"
	"github.com/aristath/crapto/internal/utils"
)

// Handler handles catalog requests
type Handler struct {
	session *services.SessionService
	log     zerolog.Logger
}

// NewHandler creates a new catalog handler
func NewHandler(session *services.SessionService, log zerolog.Logger) *Handler {
	return &Handler{
		session: session,
		log:     log.With().Str("handler", "catalog").Logger(),
	}
}

// RegisterRoutes registers the catalog routes under /api
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/tokens", func(r chi.Router) {
		r.Get("/", h.HandleListTokens)
		r.Post("/", h.HandleLaunchToken)
		r.Get("/{id}", h.HandleGetToken)
	})
}

// TokenResponse is a token with decimals as strings
type TokenResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Ticker    string `json:"ticker"`
	Price     string `json:"price"`
	MarketCap string `json:"market_cap"`
	Change24h string `json:"change_24h"`
	CreatedAt string `json:"created_at"`
	CreatorID string `json:"creator_id"`
}

// NewTokenResponse converts a token for the wire
func NewTokenResponse(t domain.Token) TokenResponse {
	return TokenResponse{
		ID:        t.ID,
		Name:      t.Name,
		Ticker:    t.Ticker,
		Price:     t.Price.String(),
		MarketCap: t.MarketCap.String(),
		Change24h: t.Change24h.StringFixed(1),
		CreatedAt: t.CreatedAt.UTC().Format(time.RFC3339Nano),
		CreatorID: t.CreatorID,
	}
}

type launchRequest struct {
	Name   string `json:"name"`
	Ticker string `json:"ticker"`
}

// HandleListTokens handles GET /api/tokens
func (h *Handler) HandleListTokens(w http.ResponseWriter, r *http.Request) {
	tokens := h.session.GetCatalog()

	resp := make([]TokenResponse, 0, len(tokens))
	for _, t := range tokens {
		resp = append(resp, NewTokenResponse(t))
	}
	utils.WriteResponse(w, r, http.StatusOK, resp, h.log)
}

// HandleGetToken handles GET /api/tokens/{id}
func (h *Handler) HandleGetToken(w http.ResponseWriter, r *http.Request) {
	token, err := h.session.GetToken(chi.URLParam(r, "id"))
	if err != nil {
		utils.WriteError(w, r, utils.StatusForError(err), "Token not found", h.log)
		return
	}
	utils.WriteResponse(w, r, http.StatusOK, NewTokenResponse(token), h.log)
}

// HandleLaunchToken handles POST /api/tokens
func (h *Handler) HandleLaunchToken(w http.ResponseWriter, r *http.Request) {
	var req launchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, r, http.StatusBadRequest, "Invalid request body", h.log)
		return
	}

	token, err := h.session.LaunchToken(req.Name, req.Ticker)
	if err != nil {
		status := utils.StatusForError(err)
		if status >= http.StatusInternalServerError {
			h.log.Error().Err(err).Msg("Failed to launch token")
		}
		utils.WriteError(w, r, status, domain.UserMessage(err), h.log)
		return
	}

	utils.WriteResponse(w, r, http.StatusCreated, NewTokenResponse(token), h.log)
}
