// Package portfolio provides the ledger of the session's base currency balance and token holdings.
package portfolio

import (
	"math"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/aristath/crapto/internal/domain"
)

// costPrecision is the number of decimal places kept for per-unit cost basis
const costPrecision = 24

var maxUnits = decimal.NewFromInt(math.MaxInt64)

// Fill is the result of applying a trade to the ledger
type Fill struct {
	Side       domain.TradeSide
	Ticker     string
	Units      int64
	BaseAmount decimal.Decimal // base currency spent (BUY) or received (SELL)
}

// Ledger holds the portfolio. Every mutation is validated first and is all-or-nothing.
type Ledger struct {
	mu        sync.RWMutex
	portfolio domain.Portfolio
}

// NewLedger creates a ledger with the given base currency balance and no holdings
func NewLedger(startingBalance decimal.Decimal) *Ledger {
	return &Ledger{
		portfolio: domain.Portfolio{
			BaseCurrencyBalance: startingBalance,
			Holdings:            make(map[string]domain.Holding),
		},
	}
}

// Quote returns the counter quantity for an input at the token's current price.
// BUY: input is base currency and the result is whole units. SELL: input is units and the
// result is base currency.
func Quote(side domain.TradeSide, token domain.Token, input decimal.Decimal) decimal.Decimal {
	if !token.Price.IsPositive() || !input.IsPositive() {
		return decimal.Zero
	}
	if side.IsBuy() {
		units, _ := input.QuoRem(token.Price, 0)
		return units
	}
	return input.Mul(token.Price)
}

// Validate checks that the portfolio can cover the trade and returns its counter quantity
func (l *Ledger) Validate(side domain.TradeSide, token domain.Token, input decimal.Decimal) (decimal.Decimal, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.validateLocked(side, token, input)
}

func (l *Ledger) validateLocked(side domain.TradeSide, token domain.Token, input decimal.Decimal) (decimal.Decimal, error) {
	if !input.IsPositive() {
		return decimal.Zero, domain.NewValidationError("quantity", "Enter an amount greater than zero")
	}

	switch side {
	case domain.TradeSideBuy:
		balance := l.portfolio.BaseCurrencyBalance
		if input.GreaterThan(balance) {
			return decimal.Zero, &domain.InsufficientFundsError{Required: input, Available: balance}
		}
		units := Quote(side, token, input)
		if !units.IsPositive() {
			return decimal.Zero, domain.NewValidationError("quantity", "amount is too small to buy a single unit")
		}
		held := decimal.NewFromInt(l.portfolio.Holding(token.Ticker).Amount)
		if units.GreaterThan(maxUnits.Sub(held)) {
			return decimal.Zero, domain.NewValidationError("quantity", "amount buys too many units")
		}
		return units, nil

	case domain.TradeSideSell:
		if !input.Equal(input.Truncate(0)) {
			return decimal.Zero, domain.NewValidationError("quantity", "sell amount must be whole units")
		}
		held := l.portfolio.Holding(token.Ticker).Amount
		if input.GreaterThan(decimal.NewFromInt(held)) {
			required := int64(math.MaxInt64)
			if !input.GreaterThan(maxUnits) {
				required = input.IntPart()
			}
			return decimal.Zero, &domain.InsufficientHoldingsError{Ticker: token.Ticker, Required: required, Available: held}
		}
		return Quote(side, token, input), nil
	}

	return decimal.Zero, domain.NewValidationError("side", "invalid trade side")
}

// Apply validates and applies a trade at the token's current price.
// BUY spends input base currency for floor(input / price) units and moves the average cost.
// SELL removes input units for input * price base currency; empty holdings are removed.
func (l *Ledger) Apply(side domain.TradeSide, token domain.Token, input decimal.Decimal) (Fill, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	counter, err := l.validateLocked(side, token, input)
	if err != nil {
		return Fill{}, err
	}

	p := &l.portfolio
	h := p.Holding(token.Ticker)

	if side.IsBuy() {
		units := counter.IntPart()
		newAmount := h.Amount + units
		totalCost := h.CostBasis.Mul(decimal.NewFromInt(h.Amount)).Add(input)

		p.BaseCurrencyBalance = p.BaseCurrencyBalance.Sub(input)
		p.Holdings[token.Ticker] = domain.Holding{
			Ticker:    token.Ticker,
			Amount:    newAmount,
			CostBasis: totalCost.DivRound(decimal.NewFromInt(newAmount), costPrecision),
		}
		return Fill{Side: side, Ticker: token.Ticker, Units: units, BaseAmount: input}, nil
	}

	units := input.IntPart()
	p.BaseCurrencyBalance = p.BaseCurrencyBalance.Add(counter)
	h.Amount -= units
	if h.Amount == 0 {
		delete(p.Holdings, token.Ticker)
	} else {
		p.Holdings[token.Ticker] = h
	}
	return Fill{Side: side, Ticker: token.Ticker, Units: units, BaseAmount: counter}, nil
}

// Snapshot returns a deep copy of the portfolio
func (l *Ledger) Snapshot() domain.Portfolio {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.portfolio.Clone()
}

// Balance returns the base currency balance
func (l *Ledger) Balance() decimal.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.portfolio.BaseCurrencyBalance
}

// HoldingValue is one holding priced at the token's current price
type HoldingValue struct {
	Ticker    string
	Amount    int64
	CostBasis decimal.Decimal
	TotalCost decimal.Decimal
	Price     decimal.Decimal
	Value     decimal.Decimal
	PnL       decimal.Decimal
}

// Valuation is the portfolio marked to current prices
type Valuation struct {
	Balance       decimal.Decimal
	Holdings      []HoldingValue
	HoldingsValue decimal.Decimal
	Total         decimal.Decimal
}

// Valuation prices every holding using the given ticker prices. Holdings with no known price
// are valued at zero.
func (l *Ledger) Valuation(prices map[string]decimal.Decimal) Valuation {
	snapshot := l.Snapshot()

	v := Valuation{
		Balance:       snapshot.BaseCurrencyBalance,
		Holdings:      make([]HoldingValue, 0, len(snapshot.Holdings)),
		HoldingsValue: decimal.Zero,
	}
	for ticker, h := range snapshot.Holdings {
		price := prices[ticker]
		value := price.Mul(decimal.NewFromInt(h.Amount))
		totalCost := h.TotalCost()
		v.Holdings = append(v.Holdings, HoldingValue{
			Ticker:    ticker,
			Amount:    h.Amount,
			CostBasis: h.CostBasis,
			TotalCost: totalCost,
			Price:     price,
			Value:     value,
			PnL:       value.Sub(totalCost),
		})
		v.HoldingsValue = v.HoldingsValue.Add(value)
	}
	sort.Slice(v.Holdings, func(i, j int) bool {
		return v.Holdings[i].Ticker < v.Holdings[j].Ticker
	})
	v.Total = v.Balance.Add(v.HoldingsValue)
	return v
}
