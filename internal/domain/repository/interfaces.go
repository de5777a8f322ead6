package repository

import (
	"context"
	"time"

	"TrendRadar/internal/domain/models"
)

type MarketStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Quote, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// Publisher fans live quotes out to the ingestion backend.
type Publisher interface {
	Publish(ctx context.Context, q *models.Quote) error
	PublishBatch(ctx context.Context, quotes []*models.Quote) error
	Close() error
}

// SignalPublisher emits buy signals and predictions downstream.
type SignalPublisher interface {
	PublishSignal(ctx context.Context, s *models.BuySignal) error
	PublishPrediction(ctx context.Context, p *models.Prediction) error
	Close() error
}

type Storage interface {
	Init(ctx context.Context) error // ensure tables, health checks
	Store(ctx context.Context, q *models.Quote) error
	StoreBatch(ctx context.Context, quotes []*models.Quote) error
	Query(ctx context.Context, symbol string, from, to time.Time, limit int) ([]*models.Quote, error)
	Health(ctx context.Context) error // ping
	Close() error
}

// BarSource provides historical OHLCV series, most recent last.
type BarSource interface {
	GetBars(ctx context.Context, symbol string, n int, tf Timeframe) ([]models.Bar, error)
}

// RankProvider resolves market-wide percentile ranks for a symbol as
// of a point in time, so historical signals carry the ranks they had
// at entry rather than today's. A zero asOf means the current ranks.
// Implementations may return nil ranks when the provider has no data.
type RankProvider interface {
	GetRanks(ctx context.Context, symbol string, asOf time.Time) (*models.PercentileRanks, error)
}

type Metrics interface {
	RecordMessageSent(backend, symbol string)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
}
