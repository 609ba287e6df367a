package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/crapto/internal/services"
)

// MarketStatusProvider summarizes the in-memory market
type MarketStatusProvider interface {
	MarketStatus() services.MarketStatus
}

// RegistryCounter counts create-token registry records
type RegistryCounter interface {
	Count(ctx context.Context) (int, error)
}

// ReportMarketStatusJob logs a summary of the market and the registry
type ReportMarketStatusJob struct {
	JobBase
	market   MarketStatusProvider
	registry RegistryCounter
}

// NewReportMarketStatusJob creates a new ReportMarketStatusJob. registry may be nil.
func NewReportMarketStatusJob(market MarketStatusProvider, registry RegistryCounter) *ReportMarketStatusJob {
	return &ReportMarketStatusJob{
		JobBase:  JobBase{log: zerolog.Nop()},
		market:   market,
		registry: registry,
	}
}

// Name returns the job name
func (j *ReportMarketStatusJob) Name() string {
	return "report_market_status"
}

// Run logs the current status
func (j *ReportMarketStatusJob) Run() error {
	status := j.market.MarketStatus()

	event := j.log.Info().
		Int("tokens", status.Tokens).
		Int("transactions", status.Transactions).
		Str("balance", status.Balance.String()).
		Bool("trade_in_flight", status.TradeInFlight).
		Bool("wallet_connected", status.Connected)

	if j.registry != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		count, err := j.registry.Count(ctx)
		cancel()
		if err != nil {
			j.log.Warn().Err(err).Msg("Failed to count registry records")
		} else {
			event = event.Int("registered_tokens", count)
		}
	}

	event.Msg("Market status")
	return nil
}
