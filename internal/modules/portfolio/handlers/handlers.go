// Package handlers provides HTTP handlers for the portfolio.
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aristath/crapto/internal/domain"
	"github.com/aristath/crapto/internal/services"
	"github.com/aristath/crapto/internal/utils"
)

// Handler handles portfolio requests
type Handler struct {
	session *services.SessionService
	log     zerolog.Logger
}

// NewHandler creates a new portfolio handler
func NewHandler(session *services.SessionService, log zerolog.Logger) *Handler {
	return &Handler{
		session: session,
		log:     log.With().Str("handler", "portfolio").Logger(),
	}
}

// RegisterRoutes registers the portfolio routes under /api
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/portfolio", h.HandleGetPortfolio)
}

// HoldingResponse is one holding marked to its token's current price
type HoldingResponse struct {
	Ticker    string `json:"ticker"`
	Amount    int64  `json:"amount"`
	CostBasis string `json:"cost_basis"`
	TotalCost string `json:"total_cost"`
	Price     string `json:"price"`
	Value     string `json:"value"`
	PnL       string `json:"pnl"`
}

// PortfolioResponse is the portfolio with its valuation
type PortfolioResponse struct {
	BaseCurrency        string            `json:"base_currency"`
	BaseCurrencyBalance string            `json:"base_currency_balance"`
	Holdings            []HoldingResponse `json:"holdings"`
	HoldingsValue       string            `json:"holdings_value"`
	TotalValue          string            `json:"total_value"`
}

// HandleGetPortfolio handles GET /api/portfolio
func (h *Handler) HandleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	v := h.session.GetPortfolioValuation()

	resp := PortfolioResponse{
		BaseCurrency:        domain.BaseCurrency,
		BaseCurrencyBalance: v.Balance.String(),
		Holdings:            make([]HoldingResponse, 0, len(v.Holdings)),
		HoldingsValue:       v.HoldingsValue.String(),
		TotalValue:          v.Total.String(),
	}
	for _, hv := range v.Holdings {
		resp.Holdings = append(resp.Holdings, HoldingResponse{
			Ticker:    hv.Ticker,
			Amount:    hv.Amount,
			CostBasis: hv.CostBasis.String(),
			TotalCost: hv.TotalCost.String(),
			Price:     hv.Price.String(),
			Value:     hv.Value.String(),
			PnL:       hv.PnL.String(),
		})
	}

	utils.WriteResponse(w, r, http.StatusOK, resp, h.log)
}
