package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"TrendRadar/internal/domain/repository"
	domsvc "TrendRadar/internal/domain/service"
	"TrendRadar/internal/handler/api"
	mid "TrendRadar/internal/middleware"
	internalrepo "TrendRadar/internal/repository"
	icache "TrendRadar/internal/service/cache"
	"TrendRadar/internal/service/marketdata"
	"TrendRadar/internal/services/confidence"
	"TrendRadar/internal/services/indicators"
	"TrendRadar/internal/services/labeling"
	"TrendRadar/internal/services/patterns"
	"TrendRadar/internal/services/stage"
	"TrendRadar/internal/usecase"
	pkgcache "TrendRadar/pkg/cache"
	pkgch "TrendRadar/pkg/clickhouse"
	"TrendRadar/pkg/config"
	pkgkafka "TrendRadar/pkg/kafka"
	applogger "TrendRadar/pkg/logger"
	"TrendRadar/pkg/metrics"
	"TrendRadar/pkg/queue"
	"TrendRadar/pkg/server"

	"github.com/redis/go-redis/v9"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	level := "info"
	if cfg.Environment == "development" {
		level = "debug"
	}
	return applogger.New(&applogger.Config{Level: level, Format: "console", Output: "stdout"})
}

// ProvideClickHouseClient creates a ClickHouse client.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideQuoteStorage creates ClickHouse quote storage and ensures the schema.
func ProvideQuoteStorage(chClient *pkgch.Client) (repository.Storage, error) {
	store := internalrepo.NewClickHouseStorage(chClient.DB(), "")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("quote schema: %w", err)
	}
	return store, nil
}

// ProvideQuotePublisher creates the Kafka quote publisher.
func ProvideQuotePublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.Publisher {
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic)
}

// ProvideSignalPublisher creates the Kafka signal/prediction publisher.
func ProvideSignalPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.SignalPublisher {
	return internalrepo.NewKafkaSignalPublisher(producer, cfg.Kafka.SignalTopic, cfg.Kafka.PredictionTopic)
}

// ProvideDatasetStore creates the labeled dataset and model artifact store.
func ProvideDatasetStore(chClient *pkgch.Client, l *applogger.Logger) (*internalrepo.CHDatasetStore, error) {
	store := internalrepo.NewCHDatasetStore(chClient)
	store.SetLogger(l)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		return nil, fmt.Errorf("dataset schema: %w", err)
	}
	return store, nil
}

// ProvideBarSource creates the historical bar client.
func ProvideBarSource(cfg *config.Config, l *applogger.Logger) repository.BarSource {
	return marketdata.NewClient(cfg, l)
}

// ProvideRankProvider creates the percentile rank client. With Redis
// enabled the rank cache is layered (memory over Redis) so lookups are
// shared across instances; a failed Redis ping falls back to the
// in-process cache.
func ProvideRankProvider(cfg *config.Config, l *applogger.Logger) repository.RankProvider {
	client := marketdata.NewRankClient(cfg)
	if cfg.Analysis.Redis.Enabled {
		host, portStr, err := net.SplitHostPort(cfg.Analysis.Redis.Addr)
		if err != nil {
			l.Warn("invalid redis addr for rank cache", applogger.Error(err))
			return client
		}
		port, _ := strconv.Atoi(portStr)
		rc, err := pkgcache.NewRedisCache(
			pkgcache.WithRedisHost(host),
			pkgcache.WithRedisPort(port),
			pkgcache.WithRedisPassword(cfg.Analysis.Redis.Password),
			pkgcache.WithRedisDB(cfg.Analysis.Redis.DB),
			pkgcache.WithRedisPrefix("trendradar:ranks"),
		)
		if err != nil {
			l.Warn("rank cache redis unavailable", applogger.Error(err))
			return client
		}
		client.SetCache(pkgcache.NewLayeredCache(rc))
	}
	return client
}

// ProvideMarketStream creates the realtime quote stream.
func ProvideMarketStream(cfg *config.Config, l *applogger.Logger) repository.MarketStream {
	return marketdata.NewStream(
		cfg.MarketData.APIKey,
		cfg.MarketData.WebSocketURL,
		cfg.MarketData.Symbols,
		cfg.MarketData.ReconnectDelay,
		cfg.MarketData.PingInterval,
		l,
	)
}

// ProvideIndicatorEngine creates the indicator engine.
func ProvideIndicatorEngine(l *applogger.Logger) domsvc.IndicatorEngine {
	return indicators.NewEngine(l)
}

// ProvideStageClassifier creates the trend stage classifier.
func ProvideStageClassifier(l *applogger.Logger) domsvc.StageClassifier {
	return stage.NewClassifier(l)
}

// ProvidePatternDetector creates the pattern detector.
func ProvidePatternDetector(cfg *config.Config, l *applogger.Logger) domsvc.PatternDetector {
	return patterns.NewDetector(patterns.Config{
		MinConfidence: cfg.Analysis.MinPatternConfidence,
	}, l)
}

// ProvideLabeler creates the outcome labeler.
func ProvideLabeler(l *applogger.Logger) domsvc.Labeler {
	return labeling.NewLabeler(l)
}

// ProvidePredictor creates the serving-side confidence predictor.
func ProvidePredictor(l *applogger.Logger) *confidence.Predictor {
	return confidence.NewPredictor(l)
}

// ProvideForestConfig maps the YAML forest section onto training config.
func ProvideForestConfig(cfg *config.Config) confidence.ForestConfig {
	return confidence.ForestConfig{
		Trees:    cfg.Analysis.Forest.Trees,
		MaxDepth: cfg.Analysis.Forest.MaxDepth,
		MinSplit: cfg.Analysis.Forest.MinSamplesSplit,
		MinLeaf:  cfg.Analysis.Forest.MinSamplesLeaf,
	}
}

// ProvideAnalyzeUseCase creates the consolidated analysis use case.
func ProvideAnalyzeUseCase(
	bars repository.BarSource,
	ranks repository.RankProvider,
	engine domsvc.IndicatorEngine,
	classifier domsvc.StageClassifier,
	detector domsvc.PatternDetector,
	predictor *confidence.Predictor,
	m repository.Metrics,
) *usecase.AnalyzeUseCase {
	return usecase.NewAnalyzeUseCase(bars, ranks, engine, classifier, detector, predictor, m)
}

// ProvideScanUseCase creates the multi-symbol scan use case.
func ProvideScanUseCase(
	bars repository.BarSource,
	ranks repository.RankProvider,
	engine domsvc.IndicatorEngine,
	classifier domsvc.StageClassifier,
	pub repository.SignalPublisher,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.ScanUseCase {
	return usecase.NewScanUseCase(bars, ranks, engine, classifier, pub, m, l)
}

// ProvideDatasetBuildUseCase creates the dataset builder.
func ProvideDatasetBuildUseCase(
	bars repository.BarSource,
	ranks repository.RankProvider,
	engine domsvc.IndicatorEngine,
	classifier domsvc.StageClassifier,
	labeler domsvc.Labeler,
	store *internalrepo.CHDatasetStore,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.DatasetBuildUseCase {
	return usecase.NewDatasetBuildUseCase(bars, ranks, engine, classifier, labeler, store, m, l)
}

// ProvideTrainUseCase creates the training use case.
func ProvideTrainUseCase(
	store *internalrepo.CHDatasetStore,
	predictor *confidence.Predictor,
	forestCfg confidence.ForestConfig,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.TrainUseCase {
	return usecase.NewTrainUseCase(store, store, predictor, forestCfg, m, l)
}

// ProvidePredictUseCase creates the single-symbol scoring use case.
func ProvidePredictUseCase(
	bars repository.BarSource,
	ranks repository.RankProvider,
	engine domsvc.IndicatorEngine,
	classifier domsvc.StageClassifier,
	predictor *confidence.Predictor,
	pub repository.SignalPublisher,
	m repository.Metrics,
) *usecase.PredictUseCase {
	return usecase.NewPredictUseCase(bars, ranks, engine, classifier, predictor, pub, m)
}

// ProvideQuotesUseCase creates the quote read-back use case.
func ProvideQuotesUseCase(store repository.Storage) *usecase.QuotesUseCase {
	return usecase.NewQuotesUseCase(store)
}

// ProvideQuoteProcessor creates the quote routing use case.
func ProvideQuoteProcessor(
	pub repository.Publisher,
	store repository.Storage,
	m repository.Metrics,
	cfg *config.Config,
) *usecase.QuoteProcessor {
	return usecase.NewQuoteProcessor(pub, store, m, cfg.Backend.Type)
}

// ProvideQuoteCollector creates the quote collector with its pipeline.
func ProvideQuoteCollector(
	stream repository.MarketStream,
	processor *usecase.QuoteProcessor,
	m repository.Metrics,
) *usecase.QuoteCollector {
	// Pipeline sits between WebSocket and the ingestion backend
	pipe := mid.NewQuotePipeline(processor, m,
		mid.WithMaxRPS(50),
		mid.WithBufferSize(2000),
	)
	return usecase.NewQuoteCollector(stream, processor, m, pipe)
}

// ProvideKafkaQuotesHandler registers the handler for the quotes topic.
func ProvideKafkaQuotesHandler(store repository.Storage, m repository.Metrics, cfg *config.Config) *usecase.KafkaQuotesHandler {
	return usecase.NewKafkaQuotesHandler(cfg.Kafka.Topic, store, m)
}

// ProvideBytesCache picks Redis when enabled, in-process TTL cache otherwise.
func ProvideBytesCache(cfg *config.Config) icache.BytesCache {
	if cfg.Analysis.Redis.Enabled {
		return icache.NewRedisCache(icache.RedisConfig{
			Addr:     cfg.Analysis.Redis.Addr,
			Password: cfg.Analysis.Redis.Password,
			DB:       cfg.Analysis.Redis.DB,
		})
	}
	return icache.NewTTLCache()
}

// ProvideRedisQueue creates the async job queue with its jobs registered.
// Returns nil when the queue is disabled; build/train then run inline.
func ProvideRedisQueue(
	cfg *config.Config,
	l *applogger.Logger,
	builder *usecase.DatasetBuildUseCase,
	trainer *usecase.TrainUseCase,
) *queue.RedisQueue {
	if !cfg.Queue.Enabled {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Analysis.Redis.Addr,
		Password: cfg.Analysis.Redis.Password,
		DB:       cfg.Analysis.Redis.DB,
	})
	jobs := []queue.Job{
		usecase.NewDatasetBuildJob(builder, l),
		usecase.NewModelTrainJob(trainer, l),
	}
	return queue.NewRedisConsumer(l, &queue.QueueConfig{
		Workers:    cfg.Queue.Workers,
		QueueSize:  cfg.Queue.QueueSize,
		RetryLimit: cfg.Queue.RetryLimit,
		RetryDelay: cfg.Queue.RetryDelay,
	}, client, jobs)
}

// ProvideReadHandler assembles the cached plain handler for the
// read-heavy GET endpoints.
func ProvideReadHandler(
	analyzer *usecase.AnalyzeUseCase,
	cache icache.BytesCache,
	l *applogger.Logger,
) *api.AnalysisHandler {
	h := api.NewAnalysisHandler(analyzer)
	h.SetCache(cache)
	h.SetLogger(l)
	return h
}

// ProvideHTTPHandler assembles the Echo API handler.
func ProvideHTTPHandler(
	l *applogger.Logger,
	analyzer *usecase.AnalyzeUseCase,
	scanner *usecase.ScanUseCase,
	builder *usecase.DatasetBuildUseCase,
	trainer *usecase.TrainUseCase,
	predict *usecase.PredictUseCase,
	quotes *usecase.QuotesUseCase,
	reads *api.AnalysisHandler,
	rq *queue.RedisQueue,
	chClient *pkgch.Client,
) *api.AnalysisEchoHandler {
	h := api.NewAnalysisEchoHandler(l, analyzer, scanner, builder, trainer, predict, quotes)
	h.SetReads(reads)
	if rq != nil {
		h.SetQueue(rq)
	}
	h.SetHealth(chClient.Health)
	return h
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	collector *usecase.QuoteCollector,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaQuotesHandler,
	chClient *pkgch.Client,
	handler *api.AnalysisEchoHandler,
	rq *queue.RedisQueue,
	trainer *usecase.TrainUseCase,
) *server.App {
	if consumer != nil {
		consumer.WithConsumerHook(pkgkafka.NoopHook{})
	}
	app := server.New(cfg, collector, consumer, kh, chClient)
	app.SetHTTPHandler(handler)
	if rq != nil {
		app.SetQueue(rq)
	}
	app.SetTrainer(trainer)
	if collector != nil {
		app.QuoteProc = collector.Processor()
	}
	return app
}
