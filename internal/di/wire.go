//go:build wireinject
// +build wireinject

package di

import (
	"NewsScreener/pkg/config"
	"NewsScreener/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Metrics
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideCacheService,
		ProvideLogger,

		// Providers and repositories
		ProvideQuotaTracker,
		ProvideMarketData,
		ProvideNewsProvider,
		ProvideScanStore,
		ProvideSignalPublisher,

		// Use cases
		ProvideScanOrchestrator,
		ProvideScanScheduler,

		// HTTP surface and application server
		ProvideHTTPHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
