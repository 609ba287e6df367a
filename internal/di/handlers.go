package di

import (
	"github.com/rs/zerolog"

	cataloghandlers "github.com/aristath/crapto/internal/modules/catalog/handlers"
	notificationhandlers "github.com/aristath/crapto/internal/modules/notifications/handlers"
	portfoliohandlers "github.com/aristath/crapto/internal/modules/portfolio/handlers"
	registryhandlers "github.com/aristath/crapto/internal/modules/registry/handlers"
	tradinghandlers "github.com/aristath/crapto/internal/modules/trading/handlers"
	wallethandlers "github.com/aristath/crapto/internal/modules/wallet/handlers"
	"github.com/aristath/crapto/internal/server"
)

// Handlers builds every module's HTTP handler
func Handlers(container *Container, log zerolog.Logger) []server.RouteRegistrar {
	return []server.RouteRegistrar{
		wallethandlers.NewHandler(container.Session, log),
		cataloghandlers.NewHandler(container.Session, log),
		tradinghandlers.NewHandler(container.Session, log),
		portfoliohandlers.NewHandler(container.Session, log),
		notificationhandlers.NewHandler(container.Session, log),
		registryhandlers.NewHandler(container.RegistryService, container.CreateLimiter, log),
	}
}
