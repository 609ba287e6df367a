// Package handlers provides HTTP handlers for quoting and executing trades.
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/aristath/crapto/internal/domain"
	"github.com/aristath/crapto/internal/modules/trading"
	"github.com/aristath/crapto/internal/services"
	"github.com/aristath/crapto/internal/utils"
)

// Handler handles trade requests
type Handler struct {
	session *services.SessionService
	log     zerolog.Logger
}

// NewHandler creates a new trading handler
func NewHandler(session *services.SessionService, log zerolog.Logger) *Handler {
	return &Handler{
		session: session,
		log:     log.With().Str("handler", "trading").Logger(),
	}
}

// RegisterRoutes registers the trade routes under /api
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/trades", func(r chi.Router) {
		r.Get("/", h.HandleGetTrades)
		r.Post("/quote", h.HandleQuote)
		r.Post("/execute", h.HandleExecute)
	})
}

type tradeRequest struct {
	Side     string          `json:"side"`
	TokenID  string          `json:"token_id"`
	Quantity decimal.Decimal `json:"quantity"`
}

// QuoteResponse is a quote with decimals as strings
type QuoteResponse struct {
	Side     string `json:"side"`
	TokenID  string `json:"token_id"`
	Ticker   string `json:"ticker"`
	Price    string `json:"price"`
	Quantity string `json:"quantity"`
	Counter  string `json:"counter_quantity"`
}

// TransactionResponse is an executed trade with decimals as strings
type TransactionResponse struct {
	ID                 string `json:"id"`
	Side               string `json:"side"`
	TokenID            string `json:"token_id"`
	Ticker             string `json:"ticker"`
	UnitAmount         int64  `json:"unit_amount"`
	BaseCurrencyAmount string `json:"base_currency_amount"`
	Price              string `json:"price"`
	Timestamp          string `json:"timestamp"`
}

func newQuoteResponse(q trading.Quote) QuoteResponse {
	return QuoteResponse{
		Side:     string(q.Side),
		TokenID:  q.TokenID,
		Ticker:   q.Ticker,
		Price:    q.Price.String(),
		Quantity: q.Input.String(),
		Counter:  q.Counter.String(),
	}
}

func newTransactionResponse(tx domain.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:                 tx.ID,
		Side:               string(tx.Side),
		TokenID:            tx.TokenID,
		Ticker:             tx.Ticker,
		UnitAmount:         tx.UnitAmount,
		BaseCurrencyAmount: tx.BaseCurrencyAmount.String(),
		Price:              tx.Price.String(),
		Timestamp:          tx.Timestamp.UTC().Format(time.RFC3339Nano),
	}
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (tradeRequest, domain.TradeSide, bool) {
	var req tradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, r, http.StatusBadRequest, "Invalid request body", h.log)
		return req, "", false
	}
	side, err := domain.TradeSideFromString(req.Side)
	if err != nil {
		utils.WriteError(w, r, http.StatusBadRequest, domain.UserMessage(err), h.log)
		return req, "", false
	}
	if req.TokenID == "" {
		utils.WriteError(w, r, http.StatusBadRequest, "token_id is required", h.log)
		return req, "", false
	}
	return req, side, true
}

// HandleQuote handles POST /api/trades/quote
func (h *Handler) HandleQuote(w http.ResponseWriter, r *http.Request) {
	req, side, ok := h.decode(w, r)
	if !ok {
		return
	}

	quote, err := h.session.QuoteTrade(side, req.TokenID, req.Quantity)
	if err != nil {
		h.writeTradeError(w, r, err)
		return
	}
	utils.WriteResponse(w, r, http.StatusOK, newQuoteResponse(quote), h.log)
}

// HandleExecute handles POST /api/trades/execute. The response is sent once the trade settles.
func (h *Handler) HandleExecute(w http.ResponseWriter, r *http.Request) {
	req, side, ok := h.decode(w, r)
	if !ok {
		return
	}

	tx, err := h.session.ExecuteTrade(r.Context(), side, req.TokenID, req.Quantity)
	if err != nil {
		h.writeTradeError(w, r, err)
		return
	}

	h.log.Info().
		Str("transaction_id", tx.ID).
		Str("side", string(tx.Side)).
		Str("ticker", tx.Ticker).
		Msg("Trade executed via API")

	utils.WriteResponse(w, r, http.StatusOK, newTransactionResponse(tx), h.log)
}

// HandleGetTrades handles GET /api/trades
func (h *Handler) HandleGetTrades(w http.ResponseWriter, r *http.Request) {
	txs := h.session.GetTransactionLog()

	resp := make([]TransactionResponse, 0, len(txs))
	for _, tx := range txs {
		resp = append(resp, newTransactionResponse(tx))
	}
	utils.WriteResponse(w, r, http.StatusOK, resp, h.log)
}

func (h *Handler) writeTradeError(w http.ResponseWriter, r *http.Request, err error) {
	if r.Context().Err() != nil {
		h.log.Warn().Err(err).Msg("Client went away before the trade settled")
		return
	}

	status := utils.StatusForError(err)
	if status >= http.StatusInternalServerError {
		h.log.Error().Err(err).Msg("Trade failed")
	}
	utils.WriteError(w, r, status, domain.UserMessage(err), h.log)
}
