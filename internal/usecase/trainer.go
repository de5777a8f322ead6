package usecase

import (
	"context"
	"fmt"
	"time"

	"TrendRadar/internal/domain/models"
	domrepo "TrendRadar/internal/domain/repository"
	"TrendRadar/internal/services/confidence"
	"TrendRadar/pkg/logger"
)

// trainFetchLimit caps how many labeled rows one training run reads.
const trainFetchLimit = 200_000

// TrainUseCase fits a confidence model from the stored dataset,
// persists the artifact as a new immutable version and hot-swaps it
// into the serving predictor.
type TrainUseCase struct {
	dataset   domrepo.DatasetStore
	artifacts domrepo.ModelStore
	predictor *confidence.Predictor
	forestCfg confidence.ForestConfig
	metrics   domrepo.Metrics
	log       *logger.Logger
}

func NewTrainUseCase(
	dataset domrepo.DatasetStore,
	artifacts domrepo.ModelStore,
	predictor *confidence.Predictor,
	forestCfg confidence.ForestConfig,
	metrics domrepo.Metrics,
	log *logger.Logger,
) *TrainUseCase {
	return &TrainUseCase{
		dataset:   dataset,
		artifacts: artifacts,
		predictor: predictor,
		forestCfg: forestCfg,
		metrics:   metrics,
		log:       log,
	}
}

func (uc *TrainUseCase) Train(ctx context.Context, tf domrepo.Timeframe) (*models.TrainReport, error) {
	start := time.Now()
	rows, err := uc.dataset.GetDataset(ctx, tf, trainFetchLimit)
	if err != nil {
		uc.metrics.RecordError("train_fetch")
		return nil, fmt.Errorf("fetch dataset: %w", err)
	}

	model, err := confidence.Train(rows, tf, uc.forestCfg)
	if err != nil {
		return nil, err
	}

	payload, err := model.Marshal()
	if err != nil {
		return nil, fmt.Errorf("encode artifact: %w", err)
	}
	report := model.Report()
	if err := uc.artifacts.SaveModel(ctx, tf, model.Version, payload, report); err != nil {
		uc.metrics.RecordError("train_save")
		return nil, fmt.Errorf("save artifact: %w", err)
	}
	uc.predictor.Swap(model)

	uc.metrics.RecordLatency("train", time.Since(start).Seconds())
	if uc.log != nil {
		uc.log.Info("model trained",
			logger.String("timeframe", string(tf)),
			logger.String("version", model.Version),
			logger.Int("rows", len(rows)),
			logger.Duration("took_ms", time.Since(start)),
		)
	}
	return &report, nil
}

// LoadLatest restores the newest stored artifact for every timeframe
// at startup. Missing artifacts are fine: prediction stays unavailable
// until the first training run.
func (uc *TrainUseCase) LoadLatest(ctx context.Context) error {
	for _, tf := range []domrepo.Timeframe{domrepo.TFDaily, domrepo.TFWeekly} {
		payload, version, err := uc.artifacts.LoadModel(ctx, tf, "")
		if err != nil {
			if uc.log != nil {
				uc.log.Warn("no stored model",
					logger.String("timeframe", string(tf)),
					logger.Error(err),
				)
			}
			continue
		}
		model, err := confidence.UnmarshalModel(payload)
		if err != nil {
			return fmt.Errorf("decode stored model %s/%s: %w", tf, version, err)
		}
		uc.predictor.Swap(model)
	}
	return nil
}
