package scheduler

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/aristath/crapto/internal/services"
	testutil "github.com/aristath/crapto/internal/testing"
)

type MockSweeper struct {
	mock.Mock
}

func (m *MockSweeper) SweepNotifications() bool {
	return m.Called().Bool(0)
}

type MockMarket struct {
	mock.Mock
}

func (m *MockMarket) MarketStatus() services.MarketStatus {
	return m.Called().Get(0).(services.MarketStatus)
}

type MockRegistry struct {
	mock.Mock
}

func (m *MockRegistry) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func TestSweepNotificationsJob(t *testing.T) {
	sweeper := new(MockSweeper)
	sweeper.On("SweepNotifications").Return(true).Once()
	sweeper.On("SweepNotifications").Return(false).Once()

	job := NewSweepNotificationsJob(sweeper)
	job.SetLogger(zerolog.Nop())
	assert.Equal(t, "sweep_notifications", job.Name())

	assert.NoError(t, job.Run())
	assert.NoError(t, job.Run())
	sweeper.AssertNumberOfCalls(t, "SweepNotifications", 2)
}

func TestCheckRegistryDatabaseJob(t *testing.T) {
	t.Run("nil database is skipped", func(t *testing.T) {
		job := NewCheckRegistryDatabaseJob(nil)
		assert.Equal(t, "check_registry_database", job.Name())
		assert.NoError(t, job.Run())
	})

	t.Run("healthy database logs its stats", func(t *testing.T) {
		db := testutil.NewTestDB(t, "registry")
		job := NewCheckRegistryDatabaseJob(db)
		var buf bytes.Buffer
		job.SetLogger(zerolog.New(&buf))

		assert.NoError(t, job.Run())
		assert.Contains(t, buf.String(), `"size_bytes"`)
		assert.Contains(t, buf.String(), `"page_count"`)
		assert.Contains(t, buf.String(), "Registry database OK")
	})

	t.Run("closed database fails", func(t *testing.T) {
		db := testutil.NewTestDB(t, "registry")
		require.NoError(t, db.Close())

		job := NewCheckRegistryDatabaseJob(db)
		assert.Error(t, job.Run())
	})
}

func TestReportMarketStatusJob(t *testing.T) {
	market := new(MockMarket)
	market.On("MarketStatus").Return(services.MarketStatus{Tokens: 3, Balance: decimal.NewFromInt(5)})

	t.Run("with registry", func(t *testing.T) {
		registry := new(MockRegistry)
		registry.On("Count", mock.Anything).Return(2, nil)

		job := NewReportMarketStatusJob(market, registry)
		assert.Equal(t, "report_market_status", job.Name())
		assert.NoError(t, job.Run())
		registry.AssertExpectations(t)
	})

	t.Run("registry errors are logged not returned", func(t *testing.T) {
		registry := new(MockRegistry)
		registry.On("Count", mock.Anything).Return(0, errors.New("disk gone"))

		assert.NoError(t, NewReportMarketStatusJob(market, registry).Run())
	})

	t.Run("without registry", func(t *testing.T) {
		assert.NoError(t, NewReportMarketStatusJob(market, nil).Run())
	})

	market.AssertExpectations(t)
}
