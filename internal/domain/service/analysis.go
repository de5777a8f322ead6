package service

import (
	"context"

	"TrendRadar/internal/domain/models"
	"TrendRadar/internal/domain/repository"
)

// IndicatorEngine computes the full indicator frame over a bar series.
type IndicatorEngine interface {
	Compute(ctx context.Context, bars []models.Bar) (*models.IndicatorFrame, error)
}

// StageClassifier assigns the six-level trend stage per bar and emits
// buy signals at transitions into a buy stage. Quality flags on every
// signal use ranks as of that signal's entry date.
type StageClassifier interface {
	Classify(frame *models.IndicatorFrame, i int) (models.Stage, error)
	Signals(ctx context.Context, symbol, tf string, bars []models.Bar, frame *models.IndicatorFrame, ranks repository.RankProvider) ([]models.BuySignal, error)
	// SignalAt builds the fully flagged signal for one bar regardless
	// of stage transitions, for scoring the current setup.
	SignalAt(ctx context.Context, symbol, tf string, bars []models.Bar, frame *models.IndicatorFrame, i int, ranks repository.RankProvider) (*models.BuySignal, error)
}

// PatternDetector scans a bar series for geometric pattern matches.
type PatternDetector interface {
	Detect(ctx context.Context, bars []models.Bar) ([]models.PatternMatch, error)
}

// Labeler resolves a buy signal against subsequent bars into a labeled
// training record. ErrExcluded and ErrInsufficientData mean the signal
// is dropped, not failed.
type Labeler interface {
	Label(ctx context.Context, sig *models.BuySignal, forward []models.Bar) (*models.LabeledSignal, error)
}

// Predictor scores a feature vector with the trained confidence model.
type Predictor interface {
	Predict(ctx context.Context, tf string, features []float64) (*models.Prediction, error)
}
