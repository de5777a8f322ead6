package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"TrendRadar/internal/domain/models"
	domrepo "TrendRadar/internal/domain/repository"
	domsvc "TrendRadar/internal/domain/service"
	"TrendRadar/internal/repository/saver"
	"TrendRadar/internal/services/confidence"
	"TrendRadar/pkg/logger"
)

const (
	buildWorkers = 4
	// buildLookback: datasets want deep history so signals resolve.
	buildLookback = 1500
)

// DatasetBuildUseCase turns historical buy signals into labeled
// training rows and persists them. Per-item failures exclude the item;
// the batch always completes.
type DatasetBuildUseCase struct {
	bars       domrepo.BarSource
	ranks      domrepo.RankProvider
	engine     domsvc.IndicatorEngine
	classifier domsvc.StageClassifier
	labeler    domsvc.Labeler
	store      domrepo.DatasetStore
	metrics    domrepo.Metrics
	log        *logger.Logger
}

func NewDatasetBuildUseCase(
	bars domrepo.BarSource,
	ranks domrepo.RankProvider,
	engine domsvc.IndicatorEngine,
	classifier domsvc.StageClassifier,
	labeler domsvc.Labeler,
	store domrepo.DatasetStore,
	metrics domrepo.Metrics,
	log *logger.Logger,
) *DatasetBuildUseCase {
	return &DatasetBuildUseCase{
		bars:       bars,
		ranks:      ranks,
		engine:     engine,
		classifier: classifier,
		labeler:    labeler,
		store:      store,
		metrics:    metrics,
		log:        log,
	}
}

type BuildDatasetParams struct {
	Symbols    []string
	Timeframe  domrepo.Timeframe
	ExportPath string
}

type BuildReport struct {
	Symbols    int               `json:"symbols"`
	Signals    int               `json:"signals"`
	Labeled    int               `json:"labeled"`
	Excluded   int               `json:"excluded"`
	ExportPath string            `json:"export_path,omitempty"`
	Errors     map[string]string `json:"errors,omitempty"`
}

func (uc *DatasetBuildUseCase) Build(ctx context.Context, p BuildDatasetParams) (*BuildReport, error) {
	if len(p.Symbols) == 0 {
		return nil, fmt.Errorf("symbols required")
	}
	start := time.Now()

	type symbolRows struct {
		symbol   string
		signals  int
		rows     []models.LabeledSignal
		excluded int
		err      error
	}

	jobs := make(chan string)
	results := make(chan symbolRows, len(p.Symbols))
	var wg sync.WaitGroup
	for w := 0; w < buildWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for symbol := range jobs {
				r := symbolRows{symbol: symbol}
				r.signals, r.rows, r.excluded, r.err = uc.buildSymbol(ctx, symbol, p.Timeframe)
				results <- r
			}
		}()
	}
	go func() {
		defer close(jobs)
		for _, s := range p.Symbols {
			select {
			case jobs <- s:
			case <-ctx.Done():
				return
			}
		}
	}()
	go func() { wg.Wait(); close(results) }()

	report := &BuildReport{Errors: map[string]string{}}
	var rows []models.LabeledSignal
	for r := range results {
		report.Symbols++
		report.Signals += r.signals
		report.Excluded += r.excluded
		if r.err != nil {
			report.Errors[r.symbol] = r.err.Error()
			if !errIsExpected(r.err) {
				uc.metrics.RecordError("dataset_build")
			}
			continue
		}
		rows = append(rows, r.rows...)
	}
	report.Labeled = len(rows)

	if len(rows) > 0 {
		if err := uc.store.StoreBatch(ctx, rows); err != nil {
			return nil, fmt.Errorf("store dataset: %w", err)
		}
	}
	if p.ExportPath != "" && len(rows) > 0 {
		s, err := saver.ForPath(p.ExportPath)
		if err != nil {
			report.Errors["export"] = err.Error()
		} else if err := s.Save(ctx, rows, p.ExportPath); err != nil {
			report.Errors["export"] = err.Error()
		} else {
			report.ExportPath = p.ExportPath
		}
	}

	if len(report.Errors) == 0 {
		report.Errors = nil
	}
	uc.metrics.RecordLatency("dataset_build", time.Since(start).Seconds())
	if uc.log != nil {
		uc.log.Info("dataset build finished",
			logger.Int("symbols", report.Symbols),
			logger.Int("labeled", report.Labeled),
			logger.Int("excluded", report.Excluded),
			logger.Duration("took_ms", time.Since(start)),
		)
	}
	return report, nil
}

func (uc *DatasetBuildUseCase) buildSymbol(ctx context.Context, symbol string, tf domrepo.Timeframe) (int, []models.LabeledSignal, int, error) {
	bars, err := uc.bars.GetBars(ctx, symbol, buildLookback, tf)
	if err != nil {
		return 0, nil, 0, err
	}
	frame, err := uc.engine.Compute(ctx, bars)
	if err != nil {
		return 0, nil, 0, err
	}
	sigs, err := uc.classifier.Signals(ctx, symbol, string(tf), bars, frame, uc.ranks)
	if err != nil {
		return 0, nil, 0, err
	}

	var rows []models.LabeledSignal
	excluded := 0
	for i := range sigs {
		sig := &sigs[i]
		labeled, err := uc.labeler.Label(ctx, sig, bars[sig.EntryIndex+1:])
		if err != nil {
			if errors.Is(err, models.ErrExcluded) || errors.Is(err, models.ErrInsufficientData) {
				excluded++
				continue
			}
			return len(sigs), rows, excluded, err
		}
		labeled.Features = confidence.Extract(sig, frame)
		rows = append(rows, *labeled)
	}
	return len(sigs), rows, excluded, nil
}
