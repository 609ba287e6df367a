// Package trading provides the trade execution engine: the request state machine,
// the single-trade lockout and delayed settlement.
package trading

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/aristath/crapto/internal/clock"
	"github.com/aristath/crapto/internal/domain"
	"github.com/aristath/crapto/internal/events"
	"github.com/aristath/crapto/internal/modules/notifications"
	"github.com/aristath/crapto/internal/modules/portfolio"
)

// DefaultSettlementDelay is the simulated confirmation time of a trade
const DefaultSettlementDelay = 1500 * time.Millisecond

// TokenCatalog is the catalog as seen by the engine
type TokenCatalog interface {
	Get(tokenID string) (domain.Token, error)
	ApplyTradeImpact(tokenID string, side domain.TradeSide, volume decimal.Decimal) (domain.Token, error)
}

// PortfolioLedger is the ledger as seen by the engine
type PortfolioLedger interface {
	Validate(side domain.TradeSide, token domain.Token, input decimal.Decimal) (decimal.Decimal, error)
	Apply(side domain.TradeSide, token domain.Token, input decimal.Decimal) (portfolio.Fill, error)
}

// TransactionRecorder appends executed trades
type TransactionRecorder interface {
	Record(tx domain.Transaction) error
}

// Notifier shows user-facing messages
type Notifier interface {
	Show(message string, severity notifications.Severity) notifications.Notification
}

// EventEmitter publishes trade events
type EventEmitter interface {
	EmitTyped(module string, data events.EventData)
}

// Engine drives trade requests. At most one trade executes at a time.
type Engine struct {
	mu        sync.Mutex
	current   *TradeRequest // request in EXECUTING, if any
	stateLock sync.Locker
	delay     time.Duration
	newID     domain.IDGenerator

	catalog  TokenCatalog
	ledger   PortfolioLedger
	txLog    TransactionRecorder
	notifier Notifier
	clock    clock.Clock
	events   EventEmitter
	log      zerolog.Logger
}

// NewEngine creates an engine. A non-positive delay uses DefaultSettlementDelay.
func NewEngine(
	delay time.Duration,
	catalog TokenCatalog,
	ledger PortfolioLedger,
	txLog TransactionRecorder,
	notifier Notifier,
	clk clock.Clock,
	eventEmitter EventEmitter,
	log zerolog.Logger,
) *Engine {
	if delay <= 0 {
		delay = DefaultSettlementDelay
	}
	return &Engine{
		delay:    delay,
		newID:    uuid.NewString,
		catalog:  catalog,
		ledger:   ledger,
		txLog:    txLog,
		notifier: notifier,
		clock:    clk,
		events:   eventEmitter,
		log:      log.With().Str("module", "trading").Logger(),
	}
}

// SetStateLock makes settlement hold l while it mutates the portfolio, catalog and log
func (e *Engine) SetStateLock(l sync.Locker) {
	e.stateLock = l
}

// SetIDGenerator replaces the uuid generator (used by tests)
func (e *Engine) SetIDGenerator(gen domain.IDGenerator) {
	e.newID = gen
}

// Executing reports whether a trade is currently settling
func (e *Engine) Executing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current != nil
}

// Request opens a trade request for a token
func (e *Engine) Request(side domain.TradeSide, tokenID string) (*TradeRequest, error) {
	if !side.IsBuy() && !side.IsSell() {
		return nil, domain.NewValidationError("side", fmt.Sprintf("invalid trade side %q", side))
	}
	if e.Executing() {
		return nil, domain.ErrTradeInProgress
	}

	token, err := e.catalog.Get(tokenID)
	if err != nil {
		return nil, err
	}

	r := &TradeRequest{
		engine:  e,
		id:      e.newID(),
		side:    side,
		tokenID: token.ID,
		ticker:  token.Ticker,
		state:   StateRequested,
		done:    make(chan struct{}),
	}

	e.log.Debug().Str("request_id", r.id).Str("side", string(side)).Str("ticker", token.Ticker).Msg("Trade requested")
	e.emitState(r, StateRequested)
	return r, nil
}

// Quote prices an input without opening a request. Repeated calls with no trade in between
// return identical results.
func (e *Engine) Quote(side domain.TradeSide, tokenID string, input decimal.Decimal) (Quote, error) {
	if !side.IsBuy() && !side.IsSell() {
		return Quote{}, domain.NewValidationError("side", fmt.Sprintf("invalid trade side %q", side))
	}
	q, _, err := e.quote(side, tokenID, input)
	return q, err
}

// Start requests, quotes and confirms a trade in one step
func (e *Engine) Start(side domain.TradeSide, tokenID string, input decimal.Decimal) (*TradeRequest, error) {
	r, err := e.Request(side, tokenID)
	if err != nil {
		return nil, err
	}
	if _, err := r.SetInput(input); err != nil {
		return r, err
	}
	if err := r.Confirm(); err != nil {
		return r, err
	}
	return r, nil
}

// Execute runs a trade through Start and waits for it to settle or for ctx to end
func (e *Engine) Execute(ctx context.Context, side domain.TradeSide, tokenID string, input decimal.Decimal) (domain.Transaction, error) {
	r, err := e.Start(side, tokenID, input)
	if err != nil {
		return domain.Transaction{}, err
	}
	return r.Wait(ctx)
}

func (e *Engine) quote(side domain.TradeSide, tokenID string, input decimal.Decimal) (Quote, domain.Token, error) {
	token, err := e.catalog.Get(tokenID)
	if err != nil {
		return Quote{}, domain.Token{}, err
	}
	return Quote{
		Side:    side,
		TokenID: token.ID,
		Ticker:  token.Ticker,
		Price:   token.Price,
		Input:   input,
		Counter: portfolio.Quote(side, token, input),
	}, token, nil
}

func (e *Engine) acquire(r *TradeRequest) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current != nil && e.current != r {
		return domain.ErrTradeInProgress
	}
	e.current = r
	return nil
}

func (e *Engine) release(r *TradeRequest) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current == r {
		e.current = nil
	}
}

func (e *Engine) executing(r *TradeRequest) {
	e.log.Info().
		Str("request_id", r.id).
		Str("side", string(r.side)).
		Str("ticker", r.ticker).
		Dur("settlement_delay", e.delay).
		Msg("Trade executing")

	e.emitState(r, StateExecuting)
	e.clock.AfterFunc(e.delay, func() { e.settle(r) })
}

func (e *Engine) settle(r *TradeRequest) {
	if e.stateLock != nil {
		e.stateLock.Lock()
		defer e.stateLock.Unlock()
	}

	r.mu.Lock()
	quote := r.quote

	token, err := e.catalog.Get(r.tokenID)
	var fill portfolio.Fill
	if err == nil {
		fill, err = e.ledger.Apply(r.side, token, quote.Input)
	}
	if err != nil {
		r.state = StateRejected
		r.err = err
		r.closeLocked()
		r.mu.Unlock()

		e.release(r)
		e.log.Error().Err(err).Str("request_id", r.id).Msg("Trade settlement failed")
		e.rejected(r, quote, err)
		return
	}

	tx := domain.Transaction{
		ID:                 e.newID(),
		Side:               r.side,
		TokenID:            token.ID,
		Ticker:             token.Ticker,
		UnitAmount:         fill.Units,
		BaseCurrencyAmount: fill.BaseAmount,
		Price:              token.Price,
		Timestamp:          e.clock.Now(),
	}

	if _, err := e.catalog.ApplyTradeImpact(token.ID, r.side, fill.BaseAmount); err != nil {
		e.log.Error().Err(err).Str("ticker", token.Ticker).Msg("Failed to apply trade impact")
	}
	if err := e.txLog.Record(tx); err != nil {
		e.log.Error().Err(err).Str("transaction_id", tx.ID).Msg("Failed to record transaction")
	}

	r.tx = &tx
	r.state = StateSettled
	r.mu.Unlock()

	e.release(r)

	e.log.Info().
		Str("transaction_id", tx.ID).
		Str("side", string(tx.Side)).
		Str("ticker", tx.Ticker).
		Int64("units", tx.UnitAmount).
		Str("base_amount", tx.BaseCurrencyAmount.String()).
		Msg("Trade settled")

	if e.notifier != nil {
		e.notifier.Show(SettledMessage(tx), notifications.SeveritySuccess)
	}
	if e.events != nil {
		e.events.EmitTyped("trading", &events.TradeSettledData{
			TransactionID:      tx.ID,
			Side:               string(tx.Side),
			Ticker:             tx.Ticker,
			UnitAmount:         tx.UnitAmount,
			BaseCurrencyAmount: tx.BaseCurrencyAmount.String(),
		})
	}

	r.mu.Lock()
	r.closeLocked()
	r.mu.Unlock()
}

func (e *Engine) rejected(r *TradeRequest, quote Quote, err error) {
	e.log.Info().Err(err).Str("request_id", r.id).Str("ticker", r.ticker).Msg("Trade rejected")

	if e.notifier != nil {
		e.notifier.Show(domain.UserMessage(err), notifications.SeverityError)
	}
	if e.events != nil {
		e.events.EmitTyped("trading", &events.TradeRejectedData{
			Side:   string(r.side),
			Ticker: r.ticker,
			Input:  quote.Input.String(),
			Reason: err.Error(),
		})
	}
}

func (e *Engine) abandoned(r *TradeRequest) {
	e.log.Debug().Str("request_id", r.id).Msg("Trade abandoned")
	e.emitState(r, StateAbandoned)
}

func (e *Engine) emitState(r *TradeRequest, state State) {
	if e.events == nil {
		return
	}
	e.events.EmitTyped("trading", &events.TradeStateData{
		RequestID: r.id,
		Side:      string(r.side),
		Ticker:    r.ticker,
		State:     string(state),
	})
}
