package usecase

import (
	"context"
	"fmt"

	domrepo "TrendRadar/internal/domain/repository"
	"TrendRadar/pkg/logger"
	"TrendRadar/pkg/queue"
)

const (
	MsgTypeDatasetBuild = "dataset.build"
	MsgTypeModelTrain   = "model.train"
)

// DatasetBuildJob runs dataset builds published to the async queue.
type DatasetBuildJob struct {
	builder *DatasetBuildUseCase
	log     *logger.Logger
}

func NewDatasetBuildJob(builder *DatasetBuildUseCase, log *logger.Logger) *DatasetBuildJob {
	return &DatasetBuildJob{builder: builder, log: log}
}

func (j *DatasetBuildJob) Name() string { return "dataset_build" }
func (j *DatasetBuildJob) Type() string { return MsgTypeDatasetBuild }

type DatasetBuildPayload struct {
	Symbols    []string `json:"symbols"`
	Timeframe  string   `json:"timeframe"`
	ExportPath string   `json:"export_path,omitempty"`
}

func (j *DatasetBuildJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[DatasetBuildPayload](payload)
	if err != nil {
		return fmt.Errorf("dataset build payload: %w", err)
	}
	tf := domrepo.NormalizeTimeframe(p.Timeframe)
	report, err := j.builder.Build(ctx, BuildDatasetParams{
		Symbols:    p.Symbols,
		Timeframe:  tf,
		ExportPath: p.ExportPath,
	})
	if err != nil {
		return err
	}
	if j.log != nil {
		j.log.Info("async dataset build done",
			logger.Int("symbols", report.Symbols),
			logger.Int("labeled", report.Labeled),
		)
	}
	return nil
}

var _ queue.Job = (*DatasetBuildJob)(nil)

// ModelTrainJob runs training published to the async queue.
type ModelTrainJob struct {
	trainer *TrainUseCase
	log     *logger.Logger
}

func NewModelTrainJob(trainer *TrainUseCase, log *logger.Logger) *ModelTrainJob {
	return &ModelTrainJob{trainer: trainer, log: log}
}

func (j *ModelTrainJob) Name() string { return "model_train" }
func (j *ModelTrainJob) Type() string { return MsgTypeModelTrain }

type ModelTrainPayload struct {
	Timeframe string `json:"timeframe"`
}

func (j *ModelTrainJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[ModelTrainPayload](payload)
	if err != nil {
		return fmt.Errorf("train payload: %w", err)
	}
	tf := domrepo.NormalizeTimeframe(p.Timeframe)
	report, err := j.trainer.Train(ctx, tf)
	if err != nil {
		return err
	}
	if j.log != nil {
		j.log.Info("async training done",
			logger.String("timeframe", string(tf)),
			logger.String("version", report.Version),
		)
	}
	return nil
}

var _ queue.Job = (*ModelTrainJob)(nil)
