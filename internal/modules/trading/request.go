package trading

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/aristath/crapto/internal/domain"
)

// State is the lifecycle position of a trade request
type State string

const (
	StateRequested State = "REQUESTED"
	StateQuoted    State = "QUOTED"
	StateValidated State = "VALIDATED"
	StateRejected  State = "REJECTED"
	StateExecuting State = "EXECUTING"
	StateSettled   State = "SETTLED"
	StateAbandoned State = "ABANDONED"
)

// ErrTradeAbandoned is returned by Wait when the request was cancelled
var ErrTradeAbandoned = errors.New("trade abandoned")

// Quote is the counter quantity of a trade input at the price it was quoted at
type Quote struct {
	Side    domain.TradeSide
	TokenID string
	Ticker  string
	Price   decimal.Decimal
	Input   decimal.Decimal
	Counter decimal.Decimal // units for BUY, base currency for SELL
}

// TradeRequest is one user trade moving through
// REQUESTED -> QUOTED -> VALIDATED -> EXECUTING -> SETTLED,
// with REJECTED on failed validation and ABANDONED on cancel.
type TradeRequest struct {
	mu      sync.Mutex
	engine  *Engine
	id      string
	side    domain.TradeSide
	tokenID string
	ticker  string
	state   State
	quote   Quote
	err     error
	tx      *domain.Transaction
	closed  bool
	done    chan struct{}
}

// ID returns the request id
func (r *TradeRequest) ID() string {
	return r.id
}

// Side returns the trade side
func (r *TradeRequest) Side() domain.TradeSide {
	return r.side
}

// TokenID returns the traded token id
func (r *TradeRequest) TokenID() string {
	return r.tokenID
}

// State returns the current state
func (r *TradeRequest) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Quote returns the latest quote
func (r *TradeRequest) Quote() Quote {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.quote
}

// Err returns the last validation or settlement error
func (r *TradeRequest) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Transaction returns the executed transaction once SETTLED
func (r *TradeRequest) Transaction() (domain.Transaction, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tx == nil {
		return domain.Transaction{}, false
	}
	return *r.tx, true
}

// Done is closed when the request reaches SETTLED or ABANDONED, or settlement fails
func (r *TradeRequest) Done() <-chan struct{} {
	return r.done
}

// SetInput quotes and validates a new input. Every edit re-quotes; editing a REJECTED
// request starts the cycle again. A validation failure moves the request to REJECTED and
// is returned alongside the quote.
func (r *TradeRequest) SetInput(input decimal.Decimal) (Quote, error) {
	r.mu.Lock()
	if r.closed || !r.editableLocked() {
		state := r.state
		r.mu.Unlock()
		return Quote{}, transitionError("set input", state)
	}

	quote, token, err := r.engine.quote(r.side, r.tokenID, input)
	if err != nil {
		r.mu.Unlock()
		return Quote{}, err
	}
	r.quote = quote
	r.state = StateQuoted

	if _, err := r.engine.ledger.Validate(r.side, token, input); err != nil {
		r.state = StateRejected
		r.err = err
		r.mu.Unlock()
		r.engine.rejected(r, quote, err)
		return quote, err
	}

	r.state = StateValidated
	r.err = nil
	r.mu.Unlock()
	return quote, nil
}

// Confirm starts execution of a VALIDATED request. The portfolio is validated again, the
// engine is locked against new trades and settlement is scheduled after the settlement delay.
func (r *TradeRequest) Confirm() error {
	r.mu.Lock()
	if r.state != StateValidated {
		state := r.state
		r.mu.Unlock()
		return transitionError("confirm", state)
	}

	quote, token, err := r.engine.quote(r.side, r.tokenID, r.quote.Input)
	if err != nil {
		r.mu.Unlock()
		return err
	}
	if _, err := r.engine.ledger.Validate(r.side, token, quote.Input); err != nil {
		r.state = StateRejected
		r.err = err
		r.quote = quote
		r.mu.Unlock()
		r.engine.rejected(r, quote, err)
		return err
	}

	if err := r.engine.acquire(r); err != nil {
		r.mu.Unlock()
		return err
	}
	r.quote = quote
	r.state = StateExecuting
	r.mu.Unlock()

	r.engine.executing(r)
	return nil
}

// Cancel abandons the request. Not allowed once EXECUTING.
func (r *TradeRequest) Cancel() error {
	r.mu.Lock()
	if r.closed || !r.editableLocked() {
		state := r.state
		r.mu.Unlock()
		return transitionError("cancel", state)
	}
	r.state = StateAbandoned
	r.closeLocked()
	r.mu.Unlock()

	r.engine.abandoned(r)
	return nil
}

// Wait blocks until the request is done or ctx ends. A settled request returns its transaction.
// Cancelling ctx does not stop a trade that is already executing.
func (r *TradeRequest) Wait(ctx context.Context) (domain.Transaction, error) {
	select {
	case <-r.done:
	case <-ctx.Done():
		return domain.Transaction{}, ctx.Err()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	switch r.state {
	case StateSettled:
		return *r.tx, nil
	case StateAbandoned:
		return domain.Transaction{}, ErrTradeAbandoned
	}
	return domain.Transaction{}, r.err
}

func (r *TradeRequest) editableLocked() bool {
	switch r.state {
	case StateRequested, StateQuoted, StateValidated, StateRejected:
		return true
	}
	return false
}

func (r *TradeRequest) closeLocked() {
	if !r.closed {
		r.closed = true
		close(r.done)
	}
}

func transitionError(op string, state State) error {
	return &TransitionError{Op: op, State: state}
}

// TransitionError reports an operation attempted from a state that does not allow it
type TransitionError struct {
	Op    string
	State State
}

func (e *TransitionError) Error() string {
	return "cannot " + e.Op + " a trade in state " + string(e.State)
}

// Unwrap lets errors.Is match domain.ErrInvalidTransition
func (e *TransitionError) Unwrap() error {
	return domain.ErrInvalidTransition
}
