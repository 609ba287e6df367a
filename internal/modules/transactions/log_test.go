package transactions

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/crapto/internal/domain"
)

func tx(t *testing.T, id string, side domain.TradeSide, at time.Time) domain.Transaction {
	t.Helper()
	token, err := domain.NewToken("1", "PoopCoin", "POOP", decimal.RequireFromString("0.00000001"), decimal.NewFromInt(1000), decimal.Zero, at, "s")
	require.NoError(t, err)
	out, err := domain.NewTransaction(id, side, token, 1000000, decimal.RequireFromString("0.01"), at)
	require.NoError(t, err)
	return out
}

func TestLog_ListNewestFirst(t *testing.T) {
	l := NewLog()
	now := time.Now()

	require.NoError(t, l.Record(tx(t, "a", domain.TradeSideBuy, now)))
	require.NoError(t, l.Record(tx(t, "b", domain.TradeSideSell, now.Add(time.Second))))
	require.NoError(t, l.Record(tx(t, "c", domain.TradeSideBuy, now.Add(2*time.Second))))

	list := l.List()
	require.Len(t, list, 3)
	assert.Equal(t, "c", list[0].ID)
	assert.Equal(t, "b", list[1].ID)
	assert.Equal(t, "a", list[2].ID)
	assert.Equal(t, 3, l.Len())
}

func TestLog_ListIsCopy(t *testing.T) {
	l := NewLog()
	require.NoError(t, l.Record(tx(t, "a", domain.TradeSideBuy, time.Now())))

	list := l.List()
	list[0].ID = "mutated"

	assert.Equal(t, "a", l.List()[0].ID)
}

func TestLog_RejectsInvalid(t *testing.T) {
	l := NewLog()

	err := l.Record(domain.Transaction{ID: "x", Side: domain.TradeSideBuy, Ticker: "POOP"})
	assert.True(t, domain.IsValidation(err))
	assert.Equal(t, 0, l.Len())
}
