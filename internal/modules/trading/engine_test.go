package trading

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/crapto/internal/clock"
	"github.com/aristath/crapto/internal/domain"
	"github.com/aristath/crapto/internal/modules/catalog"
	"github.com/aristath/crapto/internal/modules/notifications"
	"github.com/aristath/crapto/internal/modules/portfolio"
	"github.com/aristath/crapto/internal/modules/transactions"
)

type connected struct{}

func (connected) Connected() bool   { return true }
func (connected) SessionID() string { return "sess-1" }

type fixture struct {
	clock    *clock.Manual
	catalog  *catalog.Catalog
	ledger   *portfolio.Ledger
	txLog    *transactions.Log
	notifier *notifications.Notifier
	engine   *Engine
	poop     domain.Token
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{clock: clock.NewManual(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))}
	log := zerolog.Nop()

	f.catalog = catalog.NewCatalog(catalog.DefaultConfig(), f.clock, nil, log)
	f.ledger = portfolio.NewLedger(d("5.0"))
	f.txLog = transactions.NewLog()
	f.notifier = notifications.NewNotifier(f.clock, notifications.DefaultTTL, nil, log)
	f.engine = NewEngine(DefaultSettlementDelay, f.catalog, f.ledger, f.txLog, f.notifier, f.clock, nil, log)

	n := 0
	f.engine.SetIDGenerator(func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	})

	token, err := f.catalog.Launch(connected{}, "PoopCoin", "poop")
	require.NoError(t, err)
	f.poop = token
	return f
}

func TestEngine_BuyLifecycle(t *testing.T) {
	f := newFixture(t)

	r, err := f.engine.Request(domain.TradeSideBuy, f.poop.ID)
	require.NoError(t, err)
	assert.Equal(t, StateRequested, r.State())

	q, err := r.SetInput(d("0.01"))
	require.NoError(t, err)
	assert.True(t, q.Counter.Equal(d("1000000")))
	assert.Equal(t, StateValidated, r.State())

	require.NoError(t, r.Confirm())
	assert.Equal(t, StateExecuting, r.State())
	assert.True(t, f.engine.Executing())

	// nothing changes until the settlement delay has elapsed
	f.clock.Advance(DefaultSettlementDelay - time.Millisecond)
	assert.Equal(t, StateExecuting, r.State())
	assert.True(t, f.ledger.Balance().Equal(d("5.0")))

	f.clock.Advance(time.Millisecond)
	assert.Equal(t, StateSettled, r.State())
	assert.False(t, f.engine.Executing())

	select {
	case <-r.Done():
	default:
		t.Fatal("done channel not closed after settlement")
	}

	p := f.ledger.Snapshot()
	assert.True(t, p.BaseCurrencyBalance.Equal(d("4.99")))
	assert.Equal(t, int64(1000000), p.Holding("POOP").Amount)
	assert.True(t, p.Holding("POOP").TotalCost().Equal(d("0.01")))

	tx, ok := r.Transaction()
	require.True(t, ok)
	assert.Equal(t, domain.TradeSideBuy, tx.Side)
	assert.Equal(t, int64(1000000), tx.UnitAmount)
	assert.True(t, tx.Price.Equal(d("0.00000001")), "transaction records the pre-trade price")
	assert.Equal(t, 1, f.txLog.Len())

	token, err := f.catalog.Get(f.poop.ID)
	require.NoError(t, err)
	assert.True(t, token.Price.GreaterThan(f.poop.Price))

	n, ok := f.notifier.Active()
	require.True(t, ok)
	assert.Equal(t, notifications.SeveritySuccess, n.Severity)
	assert.Equal(t, "Bought 1000000 POOP for 0.01 SOL", n.Message)
}

func TestEngine_RejectedThenEditedRestartsCycle(t *testing.T) {
	f := newFixture(t)

	r, err := f.engine.Request(domain.TradeSideBuy, f.poop.ID)
	require.NoError(t, err)

	_, err = r.SetInput(d("6"))
	require.Error(t, err)
	assert.True(t, domain.IsInsufficientFunds(err))
	assert.Equal(t, StateRejected, r.State())

	n, ok := f.notifier.Active()
	require.True(t, ok)
	assert.Equal(t, notifications.SeverityError, n.Severity)

	err = r.Confirm()
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = r.SetInput(d("1"))
	require.NoError(t, err)
	assert.Equal(t, StateValidated, r.State())
	assert.NoError(t, r.Err())
}

func TestEngine_CancelHasNoSideEffects(t *testing.T) {
	f := newFixture(t)

	r, err := f.engine.Request(domain.TradeSideBuy, f.poop.ID)
	require.NoError(t, err)
	_, err = r.SetInput(d("0.5"))
	require.NoError(t, err)

	require.NoError(t, r.Cancel())
	assert.Equal(t, StateAbandoned, r.State())

	_, err = r.Wait(context.Background())
	assert.ErrorIs(t, err, ErrTradeAbandoned)

	f.clock.Advance(time.Minute)
	assert.True(t, f.ledger.Balance().Equal(d("5.0")))
	assert.Equal(t, 0, f.txLog.Len())

	_, err = r.SetInput(d("0.1"))
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestEngine_CannotCancelWhileExecuting(t *testing.T) {
	f := newFixture(t)

	r, err := f.engine.Start(domain.TradeSideBuy, f.poop.ID, d("0.01"))
	require.NoError(t, err)

	err = r.Cancel()
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, StateExecuting, r.State())

	f.clock.Advance(DefaultSettlementDelay)
	assert.Equal(t, StateSettled, r.State())
}

func TestEngine_LocksOutNewTradesWhileExecuting(t *testing.T) {
	f := newFixture(t)

	other, err := f.engine.Request(domain.TradeSideBuy, f.poop.ID)
	require.NoError(t, err)
	_, err = other.SetInput(d("0.02"))
	require.NoError(t, err)

	_, err = f.engine.Start(domain.TradeSideBuy, f.poop.ID, d("0.01"))
	require.NoError(t, err)

	_, err = f.engine.Request(domain.TradeSideSell, f.poop.ID)
	assert.ErrorIs(t, err, domain.ErrTradeInProgress)

	err = other.Confirm()
	assert.ErrorIs(t, err, domain.ErrTradeInProgress)
	assert.Equal(t, StateValidated, other.State())

	f.clock.Advance(DefaultSettlementDelay)

	_, err = f.engine.Request(domain.TradeSideSell, f.poop.ID)
	assert.NoError(t, err)
}

func TestEngine_OversellLeavesStateUnchanged(t *testing.T) {
	f := newFixture(t)

	r, err := f.engine.Start(domain.TradeSideBuy, f.poop.ID, d("0.01"))
	require.NoError(t, err)
	f.clock.Advance(DefaultSettlementDelay)
	require.Equal(t, StateSettled, r.State())

	portfolioBefore := f.ledger.Snapshot()
	tokenBefore, err := f.catalog.Get(f.poop.ID)
	require.NoError(t, err)

	sell, err := f.engine.Start(domain.TradeSideSell, f.poop.ID, d("1000001"))
	require.Error(t, err)
	assert.True(t, domain.IsInsufficientHoldings(err))
	assert.Equal(t, StateRejected, sell.State())

	f.clock.Advance(time.Minute)
	assert.Equal(t, portfolioBefore, f.ledger.Snapshot())
	tokenAfter, err := f.catalog.Get(f.poop.ID)
	require.NoError(t, err)
	assert.Equal(t, tokenBefore, tokenAfter)
	assert.Equal(t, 1, f.txLog.Len())
}

func TestEngine_SellRoundTrip(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.Start(domain.TradeSideBuy, f.poop.ID, d("0.01"))
	require.NoError(t, err)
	f.clock.Advance(DefaultSettlementDelay)

	r, err := f.engine.Start(domain.TradeSideSell, f.poop.ID, d("1000000"))
	require.NoError(t, err)
	f.clock.Advance(DefaultSettlementDelay)

	tx, err := r.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.TradeSideSell, tx.Side)
	assert.True(t, tx.BaseCurrencyAmount.IsPositive())

	p := f.ledger.Snapshot()
	_, held := p.Holdings["POOP"]
	assert.False(t, held)
	assert.True(t, p.BaseCurrencyBalance.GreaterThan(d("4.99")))
	assert.False(t, p.BaseCurrencyBalance.IsNegative())

	list := f.txLog.List()
	require.Len(t, list, 2)
	assert.Equal(t, domain.TradeSideSell, list[0].Side)
}

func TestEngine_QuoteIsIdempotent(t *testing.T) {
	f := newFixture(t)

	first, err := f.engine.Quote(domain.TradeSideBuy, f.poop.ID, d("0.01"))
	require.NoError(t, err)
	second, err := f.engine.Quote(domain.TradeSideBuy, f.poop.ID, d("0.01"))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.True(t, first.Counter.Equal(d("1000000")))
}

func TestEngine_UnknownToken(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.Request(domain.TradeSideBuy, "missing")
	assert.ErrorIs(t, err, domain.ErrTokenNotFound)

	_, err = f.engine.Quote(domain.TradeSideBuy, "missing", d("1"))
	assert.ErrorIs(t, err, domain.ErrTokenNotFound)
}

func TestEngine_WaitHonoursContext(t *testing.T) {
	f := newFixture(t)

	r, err := f.engine.Start(domain.TradeSideBuy, f.poop.ID, d("0.01"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.Wait(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	// the trade still settles
	f.clock.Advance(DefaultSettlementDelay)
	assert.Equal(t, StateSettled, r.State())
}

func TestEngine_ChangeStaysClamped(t *testing.T) {
	f := newFixture(t)

	for i := 0; i < 450; i++ {
		_, err := f.engine.Start(domain.TradeSideBuy, f.poop.ID, d("0.000001"))
		require.NoError(t, err)
		f.clock.Advance(DefaultSettlementDelay)

		token, err := f.catalog.Get(f.poop.ID)
		require.NoError(t, err)
		require.True(t, token.Change24h.LessThanOrEqual(domain.MaxChange24h))
		require.True(t, token.Change24h.GreaterThanOrEqual(domain.MinChange24h))
	}
}

func TestSettledMessage(t *testing.T) {
	tx := domain.Transaction{Side: domain.TradeSideSell, Ticker: "POOP", UnitAmount: 400000, BaseCurrencyAmount: d("0.008")}
	assert.Equal(t, "Sold 400000 POOP for 0.008 SOL", SettledMessage(tx))
}

func TestEngine_Execute(t *testing.T) {
	f := newFixture(t)

	type result struct {
		tx  domain.Transaction
		err error
	}
	done := make(chan result, 1)
	go func() {
		tx, err := f.engine.Execute(context.Background(), domain.TradeSideBuy, f.poop.ID, d("0.01"))
		done <- result{tx, err}
	}()

	require.Eventually(t, func() bool { return f.clock.Pending() == 1 }, time.Second, time.Millisecond)
	f.clock.Advance(DefaultSettlementDelay)

	select {
	case res := <-done:
		require.NoError(t, res.err)
		assert.Equal(t, int64(1000000), res.tx.UnitAmount)
		assert.Equal(t, 1, f.txLog.Len())
	case <-time.After(time.Second):
		t.Fatal("execute did not return after settlement")
	}
}

func TestEngine_ExecuteRejected(t *testing.T) {
	f := newFixture(t)

	_, err := f.engine.Execute(context.Background(), domain.TradeSideBuy, f.poop.ID, d("6"))
	var funds *domain.InsufficientFundsError
	assert.ErrorAs(t, err, &funds)
	assert.False(t, f.engine.Executing())
}
