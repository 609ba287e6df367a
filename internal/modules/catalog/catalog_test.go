package catalog

import (
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/crapto/internal/clock"
	"github.com/aristath/crapto/internal/domain"
	"github.com/aristath/crapto/internal/events"
)

type stubSession struct {
	connected bool
	id        string
}

func (s stubSession) Connected() bool   { return s.connected }
func (s stubSession) SessionID() string { return s.id }

var start = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestCatalog(t *testing.T) (*Catalog, *clock.Manual) {
	t.Helper()
	clk := clock.NewManual(start)
	c := NewCatalog(DefaultConfig(), clk, nil, zerolog.Nop())
	n := 0
	c.SetIDGenerator(func() string {
		n++
		return fmt.Sprintf("tok-%d", n)
	})
	return c, clk
}

func seeded(t *testing.T) (*Catalog, *clock.Manual) {
	t.Helper()
	c, clk := newTestCatalog(t)
	seeds, err := LoadSeed("")
	require.NoError(t, err)
	require.NoError(t, c.Seed(seeds))
	return c, clk
}

func TestLoadSeed_Defaults(t *testing.T) {
	seeds, err := LoadSeed("")
	require.NoError(t, err)
	require.Len(t, seeds, 3)

	assert.Equal(t, "OPOOP", seeds[0].Ticker)
	assert.Equal(t, "DDIRT", seeds[1].Ticker)
	assert.Equal(t, "SLUDG", seeds[2].Ticker)
	assert.Equal(t, "100s", seeds[0].Age)
}

func TestSeed_CreationTimesFromAge(t *testing.T) {
	c, _ := seeded(t)

	opoop, err := c.GetByTicker("opoop")
	require.NoError(t, err)
	assert.Equal(t, start.Add(-100*time.Second), opoop.CreatedAt)
	assert.True(t, opoop.Price.Equal(decimal.RequireFromString("0.00000008")))
	assert.True(t, opoop.MarketCap.Equal(decimal.NewFromInt(15000)))
	assert.Equal(t, "1", opoop.ID)

	// newest first: SLUDG (10s old), DDIRT (50s), OPOOP (100s)
	list := c.List()
	require.Len(t, list, 3)
	assert.Equal(t, []string{"SLUDG", "DDIRT", "OPOOP"}, tickers(list))
}

func TestLaunch_RequiresConnectedWallet(t *testing.T) {
	c, _ := newTestCatalog(t)

	_, err := c.Launch(stubSession{connected: false, id: "s"}, "Poop Coin", "POOP")
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.Equal(t, 0, c.Len())
}

func TestLaunch_RequiresNameAndTicker(t *testing.T) {
	c, _ := newTestCatalog(t)
	session := stubSession{connected: true, id: "s"}

	_, err := c.Launch(session, "  ", "POOP")
	assert.True(t, domain.IsValidation(err))

	_, err = c.Launch(session, "Poop Coin", "")
	assert.True(t, domain.IsValidation(err))

	_, err = c.Launch(session, "Poop Coin", "TOOLONG")
	assert.True(t, domain.IsValidation(err))

	assert.Equal(t, 0, c.Len())
}

func TestLaunch_CreatesTokenAtHead(t *testing.T) {
	c, _ := seeded(t)

	token, err := c.Launch(stubSession{connected: true, id: "sess-1"}, "Poop Coin", "poop")
	require.NoError(t, err)

	assert.Equal(t, "POOP", token.Ticker)
	assert.Equal(t, "sess-1", token.CreatorID)
	assert.True(t, token.Price.Equal(decimal.RequireFromString("0.00000001")))
	assert.True(t, token.MarketCap.Equal(decimal.NewFromInt(1000)))
	assert.True(t, token.Change24h.IsZero())
	assert.Equal(t, start, token.CreatedAt)

	assert.Equal(t, "POOP", c.Inserted()[0].Ticker)
	assert.Equal(t, "POOP", c.List()[0].Ticker)
	assert.Equal(t, 4, c.Len())
}

// readingEmitter reads the catalog from inside the event callback, like a synchronous bus subscriber
type readingEmitter struct {
	catalog *Catalog
	seen    []int
}

func (e *readingEmitter) EmitTyped(module string, data events.EventData) {
	e.seen = append(e.seen, e.catalog.Len())
}

func TestLaunch_SubscriberCanReadCatalog(t *testing.T) {
	emitter := &readingEmitter{}
	c := NewCatalog(DefaultConfig(), clock.NewManual(start), emitter, zerolog.Nop())
	emitter.catalog = c

	done := make(chan error, 1)
	go func() {
		_, err := c.Launch(stubSession{connected: true, id: "sess-1"}, "Poop Coin", "poop")
		done <- err
	}()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("launch blocked while emitting")
	}
	assert.Equal(t, []int{1}, emitter.seen)
}

func TestLaunch_SameInstantMostRecentInsertFirst(t *testing.T) {
	c, _ := newTestCatalog(t)
	session := stubSession{connected: true, id: "s"}

	_, err := c.Launch(session, "First", "AAA")
	require.NoError(t, err)
	_, err = c.Launch(session, "Second", "BBB")
	require.NoError(t, err)

	assert.Equal(t, []string{"BBB", "AAA"}, tickers(c.List()))
}

func TestLaunch_DuplicateTickerRejected(t *testing.T) {
	c, _ := seeded(t)

	_, err := c.Launch(stubSession{connected: true, id: "s"}, "Another Poop", "opoop")
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.Equal(t, 3, c.Len())
}

func TestApplyTradeImpact_Buy(t *testing.T) {
	c, _ := newTestCatalog(t)
	token, err := c.Launch(stubSession{connected: true, id: "s"}, "Poop Coin", "POOP")
	require.NoError(t, err)

	updated, err := c.ApplyTradeImpact(token.ID, domain.TradeSideBuy, decimal.RequireFromString("0.01"))
	require.NoError(t, err)

	// 1e-8 * (1 + 0.1*0.01)
	assert.True(t, updated.Price.Equal(decimal.RequireFromString("0.00000001001")), updated.Price.String())
	assert.True(t, updated.MarketCap.Equal(decimal.NewFromInt(1100)), updated.MarketCap.String())
	assert.True(t, updated.Change24h.Equal(decimal.RequireFromString("0.5")))

	stored, err := c.Get(token.ID)
	require.NoError(t, err)
	assert.True(t, stored.Price.Equal(updated.Price))
}

func TestApplyTradeImpact_SellFloorsMarketCapAndClampsChange(t *testing.T) {
	c, _ := seeded(t)
	ddirt, err := c.GetByTicker("DDIRT")
	require.NoError(t, err)

	updated, err := c.ApplyTradeImpact(ddirt.ID, domain.TradeSideSell, decimal.NewFromInt(5))
	require.NoError(t, err)

	assert.True(t, updated.MarketCap.IsZero(), "market cap floors at zero")
	assert.True(t, updated.Price.LessThan(ddirt.Price))
	assert.True(t, updated.Price.IsPositive())

	for i := 0; i < 200; i++ {
		updated, err = c.ApplyTradeImpact(ddirt.ID, domain.TradeSideSell, decimal.NewFromInt(1))
		require.NoError(t, err)
	}
	assert.True(t, updated.Change24h.Equal(domain.MinChange24h))
	assert.True(t, updated.Price.IsPositive())
}

func TestApplyTradeImpact_ChangeClampedAbove(t *testing.T) {
	c, _ := seeded(t)
	sludg, err := c.GetByTicker("SLUDG")
	require.NoError(t, err)

	var updated domain.Token
	for i := 0; i < 500; i++ {
		updated, err = c.ApplyTradeImpact(sludg.ID, domain.TradeSideBuy, decimal.RequireFromString("0.001"))
		require.NoError(t, err)
	}
	assert.True(t, updated.Change24h.Equal(domain.MaxChange24h))
}

func TestApplyTradeImpact_UnknownToken(t *testing.T) {
	c, _ := newTestCatalog(t)

	_, err := c.ApplyTradeImpact("nope", domain.TradeSideBuy, decimal.NewFromInt(1))
	assert.ErrorIs(t, err, domain.ErrTokenNotFound)
}

func TestImpact_Deterministic(t *testing.T) {
	token, err := domain.NewToken("1", "Poop", "POOP",
		decimal.RequireFromString("0.00000002"), decimal.NewFromInt(500), decimal.Zero, start, "s")
	require.NoError(t, err)

	a := Impact(token, domain.TradeSideSell, decimal.RequireFromString("0.3"), DefaultConfig())
	b := Impact(token, domain.TradeSideSell, decimal.RequireFromString("0.3"), DefaultConfig())
	assert.True(t, a.Price.Equal(b.Price))
	assert.True(t, a.MarketCap.Equal(b.MarketCap))
	assert.True(t, a.Change24h.Equal(b.Change24h))
}

func TestPrices(t *testing.T) {
	c, _ := seeded(t)

	prices := c.Prices()
	assert.Len(t, prices, 3)
	assert.True(t, prices["SLUDG"].Equal(decimal.RequireFromString("0.00000015")))
}

func tickers(tokens []domain.Token) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		out = append(out, t.Ticker)
	}
	return out
}
