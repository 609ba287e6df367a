// Package catalog provides the token catalog: launching tokens and applying the
// price impact of settled trades.
package catalog

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/aristath/crapto/internal/clock"
	"github.com/aristath/crapto/internal/domain"
	"github.com/aristath/crapto/internal/events"
)

// pricePrecision is the number of decimal places kept when a sell divides the price
const pricePrecision = 24

// minPrice keeps prices strictly positive after long sell streaks
var minPrice = decimal.New(1, -pricePrecision)

// Config holds the launch constants and the trade impact model
type Config struct {
	LaunchPrice        decimal.Decimal
	LaunchMarketCap    decimal.Decimal
	PriceImpactPerUnit decimal.Decimal // price factor added per unit of base currency volume
	MarketCapPerUnit   decimal.Decimal // market cap moved per unit of base currency volume
	ChangeStep         decimal.Decimal // 24h change moved per trade, in percent
}

// DefaultConfig returns the constants used by the launchpad
func DefaultConfig() Config {
	return Config{
		LaunchPrice:        decimal.RequireFromString("0.00000001"),
		LaunchMarketCap:    decimal.NewFromInt(1000),
		PriceImpactPerUnit: decimal.RequireFromString("0.1"),
		MarketCapPerUnit:   decimal.NewFromInt(10000),
		ChangeStep:         decimal.RequireFromString("0.5"),
	}
}

// EventEmitter publishes catalog events
type EventEmitter interface {
	EmitTyped(module string, data events.EventData)
}

// Catalog is the ordered collection of launched tokens
type Catalog struct {
	mu       sync.RWMutex
	inserted []*domain.Token // head is the most recently inserted token
	byID     map[string]*domain.Token
	cfg      Config
	clock    clock.Clock
	newID    domain.IDGenerator
	events   EventEmitter
	log      zerolog.Logger
}

// NewCatalog creates an empty catalog
func NewCatalog(cfg Config, clk clock.Clock, eventEmitter EventEmitter, log zerolog.Logger) *Catalog {
	return &Catalog{
		byID:   make(map[string]*domain.Token),
		cfg:    cfg,
		clock:  clk,
		newID:  uuid.NewString,
		events: eventEmitter,
		log:    log.With().Str("module", "catalog").Logger(),
	}
}

// SetIDGenerator replaces the uuid generator (used by tests)
func (c *Catalog) SetIDGenerator(gen domain.IDGenerator) {
	c.newID = gen
}

// Launch creates a token for the connected session and inserts it at the head of the catalog
func (c *Catalog) Launch(session domain.SessionState, name, ticker string) (domain.Token, error) {
	if session == nil || !session.Connected() {
		return domain.Token{}, domain.NewValidationError("wallet", "Connect your wallet first!")
	}
	name = strings.TrimSpace(name)
	if name == "" || strings.TrimSpace(ticker) == "" {
		return domain.Token{}, domain.NewValidationError("name", "Token Name and Ticker are required!")
	}

	normalized, err := domain.NormalizeTicker(ticker)
	if err != nil {
		return domain.Token{}, err
	}

	c.mu.Lock()
	if c.findByTickerLocked(normalized) != nil {
		c.mu.Unlock()
		return domain.Token{}, domain.NewValidationError("ticker", fmt.Sprintf("%s is already launched", normalized))
	}

	token, err := domain.NewToken(
		c.newID(),
		name,
		normalized,
		c.cfg.LaunchPrice,
		c.cfg.LaunchMarketCap,
		decimal.Zero,
		c.clock.Now(),
		session.SessionID(),
	)
	if err != nil {
		c.mu.Unlock()
		return domain.Token{}, err
	}

	c.insertLocked(&token, true)
	c.mu.Unlock()

	c.log.Info().
		Str("token_id", token.ID).
		Str("ticker", token.Ticker).
		Str("price", token.Price.String()).
		Msg("Token launched")

	if c.events != nil {
		c.events.EmitTyped("catalog", &events.TokenLaunchedData{
			TokenID:   token.ID,
			Name:      token.Name,
			Ticker:    token.Ticker,
			Price:     token.Price.String(),
			CreatorID: token.CreatorID,
		})
	}

	return token, nil
}

// ApplyTradeImpact moves a token's price, market cap and 24h change after a settled trade.
// volume is the base currency value of the trade. The result depends only on the previous
// token state, the side and the volume.
func (c *Catalog) ApplyTradeImpact(tokenID string, side domain.TradeSide, volume decimal.Decimal) (domain.Token, error) {
	if volume.IsNegative() {
		return domain.Token{}, domain.NewValidationError("volume", "volume must not be negative")
	}

	c.mu.Lock()
	token, ok := c.byID[tokenID]
	if !ok {
		c.mu.Unlock()
		return domain.Token{}, fmt.Errorf("apply trade impact to %s: %w", tokenID, domain.ErrTokenNotFound)
	}

	*token = Impact(*token, side, volume, c.cfg)
	updated := *token
	c.mu.Unlock()

	c.log.Debug().
		Str("ticker", updated.Ticker).
		Str("side", string(side)).
		Str("volume", volume.String()).
		Str("price", updated.Price.String()).
		Msg("Trade impact applied")

	if c.events != nil {
		c.events.EmitTyped("catalog", &events.PriceUpdatedData{
			TokenID:   updated.ID,
			Ticker:    updated.Ticker,
			Price:     updated.Price.String(),
			MarketCap: updated.MarketCap.String(),
			Change24h: updated.Change24h.String(),
		})
	}

	return updated, nil
}

// Impact computes the token state after a trade of the given base currency volume
func Impact(token domain.Token, side domain.TradeSide, volume decimal.Decimal, cfg Config) domain.Token {
	factor := decimal.NewFromInt(1).Add(cfg.PriceImpactPerUnit.Mul(volume))
	capDelta := cfg.MarketCapPerUnit.Mul(volume)

	if side.IsBuy() {
		token.Price = token.Price.Mul(factor)
		token.MarketCap = token.MarketCap.Add(capDelta)
		token.Change24h = domain.ClampChange24h(token.Change24h.Add(cfg.ChangeStep))
		return token
	}

	token.Price = token.Price.DivRound(factor, pricePrecision)
	if token.Price.LessThan(minPrice) {
		token.Price = minPrice
	}
	token.MarketCap = decimal.Max(token.MarketCap.Sub(capDelta), decimal.Zero)
	token.Change24h = domain.ClampChange24h(token.Change24h.Sub(cfg.ChangeStep))
	return token
}

// Get returns a token by id
func (c *Catalog) Get(tokenID string) (domain.Token, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	token, ok := c.byID[tokenID]
	if !ok {
		return domain.Token{}, fmt.Errorf("token %s: %w", tokenID, domain.ErrTokenNotFound)
	}
	return *token, nil
}

// GetByTicker returns a token by ticker, case-insensitively
func (c *Catalog) GetByTicker(ticker string) (domain.Token, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	token := c.findByTickerLocked(strings.ToUpper(strings.TrimSpace(ticker)))
	if token == nil {
		return domain.Token{}, fmt.Errorf("ticker %s: %w", ticker, domain.ErrTokenNotFound)
	}
	return *token, nil
}

// List returns the tokens newest first by creation time.
// Tokens created at the same instant keep insertion order, most recent insert first.
func (c *Catalog) List() []domain.Token {
	tokens := c.Inserted()
	sort.SliceStable(tokens, func(i, j int) bool {
		return tokens[i].CreatedAt.After(tokens[j].CreatedAt)
	})
	return tokens
}

// Inserted returns the tokens in insertion order, head first
func (c *Catalog) Inserted() []domain.Token {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tokens := make([]domain.Token, 0, len(c.inserted))
	for _, t := range c.inserted {
		tokens = append(tokens, *t)
	}
	return tokens
}

// Len returns the number of tokens
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.inserted)
}

// Prices returns the current price of every token keyed by ticker
func (c *Catalog) Prices() map[string]decimal.Decimal {
	c.mu.RLock()
	defer c.mu.RUnlock()

	prices := make(map[string]decimal.Decimal, len(c.inserted))
	for _, t := range c.inserted {
		prices[t.Ticker] = t.Price
	}
	return prices
}

func (c *Catalog) findByTickerLocked(ticker string) *domain.Token {
	for _, t := range c.inserted {
		if t.Ticker == ticker {
			return t
		}
	}
	return nil
}

func (c *Catalog) insertLocked(token *domain.Token, atHead bool) {
	if atHead {
		c.inserted = append([]*domain.Token{token}, c.inserted...)
	} else {
		c.inserted = append(c.inserted, token)
	}
	c.byID[token.ID] = token
}
