//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"github.com/Pulkit320/market-scope/pkg/config"
	"github.com/Pulkit320/market-scope/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,
		ProvideColumns,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideHistoryStore,
		ProvideKafkaProducer,

		// Pipeline stages
		ProvideHistoryProvider,
		ProvidePredictor,
		ProvideWriter,
		ProvideSinks,

		// Use cases
		ProvideExportPipeline,

		// Application server
		ProvideHTTPHandler,
		ProvideApp,
	)
	return nil, nil, nil
}
