package di

import (
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/aristath/crapto/internal/config"
	"github.com/aristath/crapto/internal/events"
	"github.com/aristath/crapto/internal/modules/catalog"
	"github.com/aristath/crapto/internal/modules/registry"
	"github.com/aristath/crapto/internal/services"
)

// StateConfigFrom builds the trading core configuration from the market settings
func StateConfigFrom(m *config.MarketConfig) (services.StateConfig, error) {
	seed, err := catalog.LoadSeed(m.SeedFile)
	if err != nil {
		return services.StateConfig{}, err
	}

	return services.StateConfig{
		StartingBalance: m.StartingBalance,
		Catalog: catalog.Config{
			LaunchPrice:        m.LaunchPrice,
			LaunchMarketCap:    m.LaunchMarketCap,
			PriceImpactPerUnit: m.PriceImpactPerUnit,
			MarketCapPerUnit:   m.MarketCapPerUnit,
			ChangeStep:         m.ChangeStep,
		},
		SettlementDelay: m.SettlementDelay,
		NotificationTTL: m.NotificationTTL,
		Seed:            seed,
	}, nil
}

// InitializeServices creates the event bus, the trading core and the registry service
func InitializeServices(container *Container, cfg *config.Config, log zerolog.Logger) error {
	container.EventBus = events.NewBus()
	container.EventManager = events.NewManager(container.EventBus, log)

	stateCfg, err := StateConfigFrom(cfg.Market)
	if err != nil {
		return fmt.Errorf("failed to load market configuration: %w", err)
	}

	state, err := services.NewAppState(stateCfg, nil, container.EventManager, log)
	if err != nil {
		return fmt.Errorf("failed to initialize application state: %w", err)
	}
	container.State = state
	container.Session = services.NewSessionService(state, log)

	container.RegistryService = registry.NewService(
		container.RegistryStore,
		container.ImageStore,
		container.EventManager,
		log,
	)
	container.CreateLimiter = rate.NewLimiter(rate.Limit(cfg.Registry.RateLimit), cfg.Registry.RateBurst)

	log.Info().Msg("Services initialized")
	return nil
}
