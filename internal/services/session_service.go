package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/aristath/crapto/internal/domain"
	"github.com/aristath/crapto/internal/modules/notifications"
	"github.com/aristath/crapto/internal/modules/portfolio"
	"github.com/aristath/crapto/internal/modules/trading"
)

// SessionService is the boundary the presentation layer calls. Every call is serialized on
// the application state lock; ExecuteTrade only holds it while starting the trade.
type SessionService struct {
	state *AppState
	log   zerolog.Logger
}

// NewSessionService creates a session service over the application state
func NewSessionService(state *AppState, log zerolog.Logger) *SessionService {
	return &SessionService{
		state: state,
		log:   log.With().Str("service", "session").Logger(),
	}
}

// State returns the underlying application state
func (s *SessionService) State() *AppState {
	return s.state
}

// LaunchToken launches a token for the connected wallet and shows the outcome
func (s *SessionService) LaunchToken(name, ticker string) (domain.Token, error) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()

	token, err := s.state.Catalog.Launch(s.state.Wallet, name, ticker)
	if err != nil {
		s.state.Notifications.Show(domain.UserMessage(err), notifications.SeverityError)
		return domain.Token{}, err
	}

	s.state.Notifications.Show(
		fmt.Sprintf("%s successfully launched at %s %s!", token.Ticker, token.Price.String(), domain.BaseCurrency),
		notifications.SeveritySuccess,
	)
	return token, nil
}

// QuoteTrade prices a trade input without side effects
func (s *SessionService) QuoteTrade(side domain.TradeSide, tokenID string, quantity decimal.Decimal) (trading.Quote, error) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	return s.state.Engine.Quote(side, tokenID, quantity)
}

// BeginTrade opens a trade request to be driven by the caller
func (s *SessionService) BeginTrade(side domain.TradeSide, tokenID string) (*trading.TradeRequest, error) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	return s.state.Engine.Request(side, tokenID)
}

// ExecuteTrade runs a trade to settlement and returns the recorded transaction
func (s *SessionService) ExecuteTrade(ctx context.Context, side domain.TradeSide, tokenID string, quantity decimal.Decimal) (domain.Transaction, error) {
	s.state.mu.Lock()
	r, err := s.state.Engine.Start(side, tokenID, quantity)
	s.state.mu.Unlock()
	if err != nil {
		return domain.Transaction{}, err
	}

	return r.Wait(ctx)
}

// GetCatalog returns the tokens newest first
func (s *SessionService) GetCatalog() []domain.Token {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	return s.state.Catalog.List()
}

// GetToken returns one token
func (s *SessionService) GetToken(tokenID string) (domain.Token, error) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	return s.state.Catalog.Get(tokenID)
}

// GetPortfolio returns a snapshot of the portfolio
func (s *SessionService) GetPortfolio() domain.Portfolio {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	return s.state.Ledger.Snapshot()
}

// GetPortfolioValuation marks the portfolio to current token prices
func (s *SessionService) GetPortfolioValuation() portfolio.Valuation {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	return s.state.Ledger.Valuation(s.state.Catalog.Prices())
}

// GetTransactionLog returns executed trades newest first
func (s *SessionService) GetTransactionLog() []domain.Transaction {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	return s.state.Transactions.List()
}

// Connect connects the mock wallet
func (s *SessionService) Connect() domain.Session {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	return s.state.Wallet.Connect()
}

// Disconnect disconnects the wallet. Portfolio and catalog are kept.
func (s *SessionService) Disconnect() domain.Session {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	return s.state.Wallet.Disconnect()
}

// GetSession returns the wallet session
func (s *SessionService) GetSession() domain.Session {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	return s.state.Wallet.Snapshot()
}

// GetNotification returns the visible notification, if any
func (s *SessionService) GetNotification() (notifications.Notification, bool) {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	return s.state.Notifications.Active()
}

// DismissNotification clears the visible notification before it expires
func (s *SessionService) DismissNotification() {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	s.state.Notifications.Clear()
}

// SweepNotifications clears an expired notification
func (s *SessionService) SweepNotifications() bool {
	s.state.mu.Lock()
	defer s.state.mu.Unlock()
	return s.state.Notifications.Sweep()
}
