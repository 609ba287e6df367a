// Package domain provides the core Crapto records: tokens, holdings, portfolios,
// transactions and wallet sessions, together with the errors raised when they are violated.
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// BaseCurrency is the display symbol of the base currency
const BaseCurrency = "SOL"

// Bounds for a token's 24h change, in percent
var (
	MinChange24h = decimal.NewFromInt(-50)
	MaxChange24h = decimal.NewFromInt(200)
)

// TradeSide represents the direction of a trade (BUY or SELL)
type TradeSide string

const (
	TradeSideBuy  TradeSide = "BUY"
	TradeSideSell TradeSide = "SELL"
)

// IsBuy checks if this trade side is BUY
func (s TradeSide) IsBuy() bool {
	return s == TradeSideBuy
}

// IsSell checks if this trade side is SELL
func (s TradeSide) IsSell() bool {
	return s == TradeSideSell
}

// TradeSideFromString parses a trade side, case-insensitively
func TradeSideFromString(s string) (TradeSide, error) {
	switch TradeSide(strings.ToUpper(strings.TrimSpace(s))) {
	case TradeSideBuy:
		return TradeSideBuy, nil
	case TradeSideSell:
		return TradeSideSell, nil
	}
	return "", NewValidationError("side", fmt.Sprintf("invalid trade side %q", s))
}

// Token is a launched meme token. Price and MarketCap are only changed by trade settlement.
type Token struct {
	CreatedAt time.Time       `json:"created_at"`
	Price     decimal.Decimal `json:"price"`
	MarketCap decimal.Decimal `json:"market_cap"`
	Change24h decimal.Decimal `json:"change_24h"`
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Ticker    string          `json:"ticker"`
	CreatorID string          `json:"creator_id"`
}

// NewToken builds a validated token. The ticker is normalized.
func NewToken(id, name, ticker string, price, marketCap, change24h decimal.Decimal, createdAt time.Time, creatorID string) (Token, error) {
	normalized, err := NormalizeTicker(ticker)
	if err != nil {
		return Token{}, err
	}

	t := Token{
		ID:        id,
		Name:      strings.TrimSpace(name),
		Ticker:    normalized,
		Price:     price,
		MarketCap: marketCap,
		Change24h: ClampChange24h(change24h),
		CreatedAt: createdAt,
		CreatorID: creatorID,
	}
	if err := t.Validate(); err != nil {
		return Token{}, err
	}
	return t, nil
}

// Validate checks the token invariants
func (t Token) Validate() error {
	if t.ID == "" {
		return NewValidationError("id", "token id is required")
	}
	if t.Name == "" {
		return NewValidationError("name", "token name is required")
	}
	if !t.Price.IsPositive() {
		return NewValidationError("price", "price must be positive")
	}
	if t.MarketCap.IsNegative() {
		return NewValidationError("market_cap", "market cap must not be negative")
	}
	return nil
}

// ClampChange24h bounds a 24h change into [-50, 200]
func ClampChange24h(v decimal.Decimal) decimal.Decimal {
	if v.LessThan(MinChange24h) {
		return MinChange24h
	}
	if v.GreaterThan(MaxChange24h) {
		return MaxChange24h
	}
	return v
}

// Holding is the amount of one token held by a portfolio
type Holding struct {
	Ticker    string          `json:"ticker"`
	CostBasis decimal.Decimal `json:"cost_basis"` // average cost per unit, in base currency
	Amount    int64           `json:"amount"`
}

// TotalCost returns the base currency committed to the holding at its average cost
func (h Holding) TotalCost() decimal.Decimal {
	return h.CostBasis.Mul(decimal.NewFromInt(h.Amount))
}

// Portfolio is a session's base currency balance and token holdings
type Portfolio struct {
	Holdings            map[string]Holding `json:"holdings"`
	BaseCurrencyBalance decimal.Decimal    `json:"base_currency_balance"`
}

// Clone returns a deep copy of the portfolio
func (p Portfolio) Clone() Portfolio {
	holdings := make(map[string]Holding, len(p.Holdings))
	for ticker, h := range p.Holdings {
		holdings[ticker] = h
	}
	return Portfolio{
		BaseCurrencyBalance: p.BaseCurrencyBalance,
		Holdings:            holdings,
	}
}

// Holding returns the holding for a ticker; a missing holding has amount 0
func (p Portfolio) Holding(ticker string) Holding {
	if h, ok := p.Holdings[ticker]; ok {
		return h
	}
	return Holding{Ticker: ticker, CostBasis: decimal.Zero}
}

// Transaction is an executed trade. It is immutable once recorded.
type Transaction struct {
	Timestamp          time.Time       `json:"timestamp"`
	BaseCurrencyAmount decimal.Decimal `json:"base_currency_amount"`
	Price              decimal.Decimal `json:"price"`
	ID                 string          `json:"id"`
	Side               TradeSide       `json:"side"`
	TokenID            string          `json:"token_id"`
	Ticker             string          `json:"ticker"`
	UnitAmount         int64           `json:"unit_amount"`
}

// NewTransaction builds a validated transaction
func NewTransaction(id string, side TradeSide, token Token, units int64, baseAmount decimal.Decimal, at time.Time) (Transaction, error) {
	tx := Transaction{
		ID:                 id,
		Side:               side,
		TokenID:            token.ID,
		Ticker:             token.Ticker,
		UnitAmount:         units,
		BaseCurrencyAmount: baseAmount,
		Price:              token.Price,
		Timestamp:          at,
	}
	if err := tx.Validate(); err != nil {
		return Transaction{}, err
	}
	return tx, nil
}

// Validate checks the transaction invariants
func (t Transaction) Validate() error {
	if !t.Side.IsBuy() && !t.Side.IsSell() {
		return NewValidationError("side", fmt.Sprintf("invalid trade side %q", t.Side))
	}
	if t.Ticker == "" {
		return NewValidationError("ticker", "ticker is required")
	}
	if t.UnitAmount <= 0 {
		return NewValidationError("unit_amount", "unit amount must be positive")
	}
	if !t.BaseCurrencyAmount.IsPositive() {
		return NewValidationError("base_currency_amount", "base currency amount must be positive")
	}
	return nil
}

// Session is the mock wallet session of the running process
type Session struct {
	SessionID string `json:"session_id"`
	PublicKey string `json:"public_key,omitempty"`
	Connected bool   `json:"connected"`
}
