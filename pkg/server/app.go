package server

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"TrendRadar/internal/usecase"
	pkgch "TrendRadar/pkg/clickhouse"
	"TrendRadar/pkg/config"
	xhttp "TrendRadar/pkg/http"
	pkgkafka "TrendRadar/pkg/kafka"
	applogger "TrendRadar/pkg/logger"
	"TrendRadar/pkg/queue"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	collector   *usecase.QuoteCollector
	consumer    *pkgkafka.Consumer
	kh          pkgkafka.MessageHandler
	chClient    *pkgch.Client
	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
	redisQueue  *queue.RedisQueue
	trainer     *usecase.TrainUseCase
	QuoteProc   *usecase.QuoteProcessor
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	collector *usecase.QuoteCollector,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	chClient *pkgch.Client,
) *App {
	return &App{
		cfg:       cfg,
		collector: collector,
		consumer:  consumer,
		kh:        kh,
		chClient:  chClient,
	}
}

// SetHTTPHandler allows DI to inject an HTTP handler.
func (a *App) SetHTTPHandler(h xhttp.Handler) { a.httpHandler = h }

// SetQueue wires the async job queue into the lifecycle.
func (a *App) SetQueue(q *queue.RedisQueue) { a.redisQueue = q }

// SetTrainer wires the training use case so stored models load at startup.
func (a *App) SetTrainer(t *usecase.TrainUseCase) { a.trainer = t }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// init app logger (console info by default)
	l, _ := applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	// Restore stored model artifacts before serving predictions
	if a.trainer != nil {
		if err := a.trainer.LoadLatest(ctx); err != nil {
			l.Error("model restore error", applogger.Error(err))
			return err
		}
		l.Info("stored models restored")
	}

	// Start realtime collector when streaming is enabled
	if a.collector != nil && a.cfg.MarketData.StreamEnabled {
		go func() {
			if err := a.collector.Start(ctx); err != nil {
				l.Error("collector error", applogger.Error(err))
			}
		}()
		l.Info("collector started", applogger.Strings("symbols", a.cfg.MarketData.Symbols))
	}

	// Start consumer if configured
	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		l.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	// Start async job queue
	if a.redisQueue != nil {
		if err := a.redisQueue.Start(); err != nil {
			l.Error("queue start error", applogger.Error(err))
			return err
		}
		a.redisQueue.StartRetryProcessor()
		l.Info("job queue started")
	}

	// Start HTTP server
	if err := a.httpServer.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		return err
	}

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	l, err := applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})
	if err != nil {
		log.Printf("failed to create logger: %v", err)
		return err
	}
	l.Info("shutting down...")

	// Stop collector (pipeline + stream)
	if a.collector != nil {
		if err := a.collector.Shutdown(ctx); err != nil {
			l.Warn("collector stop error", applogger.Error(err))
		}
	}

	// Shutdown HTTP server
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		l.Error("http shutdown error", applogger.Error(err))
	}

	// Stop async job queue
	if a.redisQueue != nil {
		if err := a.redisQueue.Stop(shutdownCtx); err != nil {
			l.Warn("queue stop error", applogger.Error(err))
		}
	}

	// Stop consumer
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	// Close infrastructure clients
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	// Close quote processor resources (publisher/storage)
	if a.QuoteProc != nil {
		a.QuoteProc.Close()
	}

	l.Info("shutdown complete")
	return nil
}
