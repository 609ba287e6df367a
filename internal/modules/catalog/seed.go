package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/aristath/crapto/internal/domain"
)

//go:embed seed.yaml
var defaultSeed []byte

// SeedFile is the YAML document listing the tokens the market starts with
type SeedFile struct {
	Tokens []SeedToken `yaml:"tokens"`
}

// SeedToken describes one starting token. Age is how long before startup it was created.
type SeedToken struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	Ticker    string `yaml:"ticker"`
	Price     string `yaml:"price"`
	MarketCap string `yaml:"market_cap"`
	Change24h string `yaml:"change_24h"`
	Age       string `yaml:"age"`
	CreatorID string `yaml:"creator_id"`
}

// LoadSeed reads seed tokens from path, or the embedded defaults when path is empty
func LoadSeed(path string) ([]SeedToken, error) {
	data := defaultSeed
	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("cannot read seed file: %w", err)
		}
		data = content
	}

	var file SeedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("cannot parse seed YAML: %w", err)
	}
	return file.Tokens, nil
}

// Seed appends the starting tokens in the order given.
// Each token's creation time is the catalog clock's now minus its age.
func (c *Catalog) Seed(seeds []SeedToken) error {
	now := c.clock.Now()

	tokens := make([]domain.Token, 0, len(seeds))
	for _, s := range seeds {
		token, err := s.toToken(now, c.newID)
		if err != nil {
			return fmt.Errorf("seed token %q: %w", s.Ticker, err)
		}
		tokens = append(tokens, token)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range tokens {
		if c.findByTickerLocked(tokens[i].Ticker) != nil {
			return domain.NewValidationError("ticker", fmt.Sprintf("duplicate seed ticker %s", tokens[i].Ticker))
		}
		token := tokens[i]
		c.insertLocked(&token, false)
	}

	c.log.Info().Int("count", len(tokens)).Msg("Catalog seeded")
	return nil
}

func (s SeedToken) toToken(now time.Time, newID domain.IDGenerator) (domain.Token, error) {
	price, err := decimal.NewFromString(s.Price)
	if err != nil {
		return domain.Token{}, fmt.Errorf("invalid price: %w", err)
	}
	marketCap, err := parseOptionalDecimal(s.MarketCap)
	if err != nil {
		return domain.Token{}, fmt.Errorf("invalid market_cap: %w", err)
	}
	change, err := parseOptionalDecimal(s.Change24h)
	if err != nil {
		return domain.Token{}, fmt.Errorf("invalid change_24h: %w", err)
	}

	var age time.Duration
	if s.Age != "" {
		age, err = time.ParseDuration(s.Age)
		if err != nil {
			return domain.Token{}, fmt.Errorf("invalid age: %w", err)
		}
	}

	id := s.ID
	if id == "" {
		id = newID()
	}

	return domain.NewToken(id, s.Name, s.Ticker, price, marketCap, change, now.Add(-age), s.CreatorID)
}

func parseOptionalDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
