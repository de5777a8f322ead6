package repository

import (
	"context"

	"TrendRadar/internal/domain/models"
)

// DatasetStore persists labeled signals for model training.
type DatasetStore interface {
	Init(ctx context.Context) error
	StoreBatch(ctx context.Context, rows []models.LabeledSignal) error
	GetDataset(ctx context.Context, tf Timeframe, limit int) ([]models.LabeledSignal, error)
	Health(ctx context.Context) error
	Close() error
}

// ModelStore keeps versioned model artifacts. Versions are immutable:
// saving never overwrites an existing version.
type ModelStore interface {
	SaveModel(ctx context.Context, tf Timeframe, version string, payload []byte, report models.TrainReport) error
	// LoadModel returns the artifact payload. Empty version loads the
	// most recently trained one.
	LoadModel(ctx context.Context, tf Timeframe, version string) ([]byte, string, error)
	ListVersions(ctx context.Context, tf Timeframe) ([]models.TrainReport, error)
}
