// Package handlers provides HTTP handlers for the create-token registry.
package handlers

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/aristath/crapto/internal/modules/registry"
	"github.com/aristath/crapto/internal/utils"
)

// MaxUploadBytes bounds the multipart form held in memory
const MaxUploadBytes = 10 << 20

// Handler handles create-token HTTP requests
type Handler struct {
	service *registry.Service
	limiter Limiter
	log     zerolog.Logger
}

// Limiter decides whether a request may proceed
type Limiter interface {
	Allow() bool
}

// NewHandler creates a new registry handler. A nil limiter disables rate limiting.
func NewHandler(service *registry.Service, limiter Limiter, log zerolog.Logger) *Handler {
	return &Handler{
		service: service,
		limiter: limiter,
		log:     log.With().Str("handler", "registry").Logger(),
	}
}

type createTokenResponse struct {
	TokenID int64  `json:"tokenId"`
	TxID    string `json:"txId"`
}

// HandleCreateToken handles POST /api/create-token
func (h *Handler) HandleCreateToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(MaxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		h.writeError(w, r, http.StatusBadRequest, "Invalid form data")
		return
	}

	sub := registry.Submission{
		Name:    r.FormValue("name"),
		Ticker:  r.FormValue("ticker"),
		Creator: r.FormValue("creator"),
	}

	file, header, err := r.FormFile("image")
	switch {
	case err == nil:
		defer file.Close()
		sub.Image = &registry.Image{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Body:        file,
		}
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	default:
		h.log.Error().Err(err).Msg("Failed to read uploaded image")
		h.writeError(w, r, http.StatusInternalServerError, "Failed to create token")
		return
	}

	record, err := h.service.Register(r.Context(), sub)
	if err != nil {
		h.log.Error().Err(err).Str("ticker", sub.Ticker).Msg("Failed to create token")
		h.writeError(w, r, http.StatusInternalServerError, "Failed to create token")
		return
	}

	h.writeJSON(w, r, http.StatusOK, createTokenResponse{TokenID: record.ID, TxID: record.TxID})
}

// HandleListTokens handles GET /api/create-token
func (h *Handler) HandleListTokens(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.List(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list registered tokens")
		h.writeError(w, r, http.StatusInternalServerError, "Failed to list tokens")
		return
	}
	if records == nil {
		records = []registry.TokenRecord{}
	}

	h.writeJSON(w, r, http.StatusOK, records)
}

// rateLimit rejects requests over the limiter's budget with 429
func (h *Handler) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.limiter != nil && !h.limiter.Allow() {
			h.log.Warn().Str("remote", r.RemoteAddr).Msg("Create-token rate limit exceeded")
			h.writeError(w, r, http.StatusTooManyRequests, "Too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	utils.WriteResponse(w, r, status, data, h.log)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	utils.WriteError(w, r, status, message, h.log)
}
