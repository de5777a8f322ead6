package usecase

import (
	"context"
	"fmt"
	"time"

	"TrendRadar/internal/domain/models"
	domrepo "TrendRadar/internal/domain/repository"
	domsvc "TrendRadar/internal/domain/service"
	"TrendRadar/internal/services/confidence"
)

// PredictUseCase scores a symbol's current setup with the trained
// confidence model.
type PredictUseCase struct {
	bars       domrepo.BarSource
	ranks      domrepo.RankProvider
	engine     domsvc.IndicatorEngine
	classifier domsvc.StageClassifier
	predictor  domsvc.Predictor
	publisher  domrepo.SignalPublisher
	metrics    domrepo.Metrics
}

func NewPredictUseCase(
	bars domrepo.BarSource,
	ranks domrepo.RankProvider,
	engine domsvc.IndicatorEngine,
	classifier domsvc.StageClassifier,
	predictor domsvc.Predictor,
	publisher domrepo.SignalPublisher,
	metrics domrepo.Metrics,
) *PredictUseCase {
	return &PredictUseCase{
		bars:       bars,
		ranks:      ranks,
		engine:     engine,
		classifier: classifier,
		predictor:  predictor,
		publisher:  publisher,
		metrics:    metrics,
	}
}

type PredictParams struct {
	Symbol    string
	N         int
	Timeframe domrepo.Timeframe
	// Features, when given, skips bar fetching and scores directly.
	Features []float64
}

func (uc *PredictUseCase) Predict(ctx context.Context, p PredictParams) (*models.Prediction, error) {
	if len(p.Features) > 0 {
		pred, err := uc.predictor.Predict(ctx, string(p.Timeframe), p.Features)
		if err != nil {
			return nil, err
		}
		pred.Symbol = p.Symbol
		return pred, nil
	}
	if p.Symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	if p.N <= 0 {
		p.N = 300
	}
	start := time.Now()

	bars, err := uc.bars.GetBars(ctx, p.Symbol, p.N, p.Timeframe)
	if err != nil {
		return nil, err
	}
	frame, err := uc.engine.Compute(ctx, bars)
	if err != nil {
		return nil, err
	}

	// Score the setup as if entered on the latest bar, with the same
	// quality flags a dataset row would carry.
	sig, err := uc.classifier.SignalAt(ctx, p.Symbol, string(p.Timeframe), bars, frame, frame.Length-1, uc.ranks)
	if err != nil {
		return nil, err
	}
	features := confidence.Extract(sig, frame)
	pred, err := uc.predictor.Predict(ctx, string(p.Timeframe), features)
	if err != nil {
		return nil, err
	}
	pred.Symbol = p.Symbol

	if uc.publisher != nil {
		if err := uc.publisher.PublishPrediction(ctx, pred); err != nil {
			uc.metrics.RecordError("publish_prediction")
		}
	}
	uc.metrics.RecordLatency("predict", time.Since(start).Seconds())
	return pred, nil
}
