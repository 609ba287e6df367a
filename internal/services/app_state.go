// Package services provides the application state object and the session service that the
// HTTP layer calls into.
//
// AppState owns every core component of one running session. There are no package-level
// singletons: everything is built by NewAppState and passed explicitly.
package services

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/aristath/crapto/internal/clock"
	"github.com/aristath/crapto/internal/events"
	"github.com/aristath/crapto/internal/modules/catalog"
	"github.com/aristath/crapto/internal/modules/notifications"
	"github.com/aristath/crapto/internal/modules/portfolio"
	"github.com/aristath/crapto/internal/modules/trading"
	"github.com/aristath/crapto/internal/modules/transactions"
	"github.com/aristath/crapto/internal/modules/wallet"
)

// DefaultStartingBalance is the base currency balance of a new session
var DefaultStartingBalance = decimal.NewFromInt(5)

// StateConfig holds the tunables of the trading core
type StateConfig struct {
	StartingBalance decimal.Decimal
	Catalog         catalog.Config
	SettlementDelay time.Duration
	NotificationTTL time.Duration
	Seed            []catalog.SeedToken
}

// DefaultStateConfig returns the launchpad defaults with the embedded seed tokens
func DefaultStateConfig() (StateConfig, error) {
	seed, err := catalog.LoadSeed("")
	if err != nil {
		return StateConfig{}, err
	}
	return StateConfig{
		StartingBalance: DefaultStartingBalance,
		Catalog:         catalog.DefaultConfig(),
		SettlementDelay: trading.DefaultSettlementDelay,
		NotificationTTL: notifications.DefaultTTL,
		Seed:            seed,
	}, nil
}

// AppState is the explicit application state of one session
type AppState struct {
	mu sync.Mutex

	Clock         clock.Clock
	Events        *events.Manager
	Wallet        *wallet.Provider
	Catalog       *catalog.Catalog
	Ledger        *portfolio.Ledger
	Transactions  *transactions.Log
	Notifications *notifications.Notifier
	Engine        *trading.Engine

	log zerolog.Logger
}

// NewAppState builds and seeds the trading core
func NewAppState(cfg StateConfig, clk clock.Clock, eventManager *events.Manager, log zerolog.Logger) (*AppState, error) {
	if clk == nil {
		clk = clock.Real()
	}
	if eventManager == nil {
		eventManager = events.NewManager(events.NewBus(), log)
	}
	if cfg.StartingBalance.IsNegative() {
		return nil, fmt.Errorf("starting balance must not be negative, got %s", cfg.StartingBalance.String())
	}

	s := &AppState{
		Clock:  clk,
		Events: eventManager,
		log:    log.With().Str("service", "app_state").Logger(),
	}

	s.Wallet = wallet.NewProvider(eventManager, log)
	s.Catalog = catalog.NewCatalog(cfg.Catalog, clk, eventManager, log)
	s.Ledger = portfolio.NewLedger(cfg.StartingBalance)
	s.Transactions = transactions.NewLog()
	s.Notifications = notifications.NewNotifier(clk, cfg.NotificationTTL, eventManager, log)
	s.Engine = trading.NewEngine(
		cfg.SettlementDelay,
		s.Catalog,
		s.Ledger,
		s.Transactions,
		s.Notifications,
		clk,
		eventManager,
		log,
	)
	s.Engine.SetStateLock(&s.mu)

	if err := s.Catalog.Seed(cfg.Seed); err != nil {
		return nil, fmt.Errorf("failed to seed catalog: %w", err)
	}

	s.log.Info().
		Int("tokens", s.Catalog.Len()).
		Str("starting_balance", cfg.StartingBalance.String()).
		Str("session_id", s.Wallet.SessionID()).
		Msg("Application state initialized")

	return s, nil
}

// MarketStatus is a summary of the session used by the status job and endpoint
type MarketStatus struct {
	Tokens        int             `json:"tokens"`
	Transactions  int             `json:"transactions"`
	Balance       decimal.Decimal `json:"balance"`
	TradeInFlight bool            `json:"trade_in_flight"`
	Connected     bool            `json:"connected"`
}

// MarketStatus summarizes the current state
func (s *AppState) MarketStatus() MarketStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	return MarketStatus{
		Tokens:        s.Catalog.Len(),
		Transactions:  s.Transactions.Len(),
		Balance:       s.Ledger.Balance(),
		TradeInFlight: s.Engine.Executing(),
		Connected:     s.Wallet.Connected(),
	}
}
