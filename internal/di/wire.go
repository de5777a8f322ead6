//go:build wireinject
// +build wireinject

package di

import (
	"TrendRadar/pkg/config"
	"TrendRadar/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,

		// Repositories
		ProvideQuoteStorage,
		ProvideQuotePublisher,
		ProvideSignalPublisher,
		ProvideDatasetStore,
		ProvideBarSource,
		ProvideRankProvider,
		ProvideMarketStream,

		// Domain services
		ProvideIndicatorEngine,
		ProvideStageClassifier,
		ProvidePatternDetector,
		ProvideLabeler,
		ProvidePredictor,
		ProvideForestConfig,

		// Use cases
		ProvideAnalyzeUseCase,
		ProvideScanUseCase,
		ProvideDatasetBuildUseCase,
		ProvideTrainUseCase,
		ProvidePredictUseCase,
		ProvideQuotesUseCase,
		ProvideQuoteProcessor,
		ProvideQuoteCollector,
		ProvideKafkaQuotesHandler,

		// Async queue and HTTP surface
		ProvideRedisQueue,
		ProvideBytesCache,
		ProvideReadHandler,
		ProvideHTTPHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
