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
	"TrendRadar/internal/services/confidence"
)

// AnalyzeUseCase assembles the consolidated per-symbol view: latest
// indicators, trend stage, open signal, patterns and the model score.
// Sections run concurrently and fail independently.
type AnalyzeUseCase struct {
	bars       domrepo.BarSource
	ranks      domrepo.RankProvider
	engine     domsvc.IndicatorEngine
	classifier domsvc.StageClassifier
	patterns   domsvc.PatternDetector
	predictor  domsvc.Predictor
	metrics    domrepo.Metrics
	timeout    time.Duration
}

func NewAnalyzeUseCase(
	bars domrepo.BarSource,
	ranks domrepo.RankProvider,
	engine domsvc.IndicatorEngine,
	classifier domsvc.StageClassifier,
	patterns domsvc.PatternDetector,
	predictor domsvc.Predictor,
	metrics domrepo.Metrics,
) *AnalyzeUseCase {
	return &AnalyzeUseCase{
		bars:       bars,
		ranks:      ranks,
		engine:     engine,
		classifier: classifier,
		patterns:   patterns,
		predictor:  predictor,
		metrics:    metrics,
		timeout:    15 * time.Second,
	}
}

type AnalyzeParams struct {
	Symbol    string
	N         int
	Timeframe domrepo.Timeframe
}

type stageSection struct {
	stage      models.Stage
	signal     *models.BuySignal
	prediction *models.Prediction
	predErr    error
}

func (uc *AnalyzeUseCase) Analyze(ctx context.Context, p AnalyzeParams) (*models.AnalysisReport, error) {
	if p.Symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	if p.N <= 0 {
		p.N = 300
	}

	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()
	start := time.Now()

	bars, err := uc.bars.GetBars(ctx, p.Symbol, p.N, p.Timeframe)
	if err != nil {
		uc.metrics.RecordError("analyze_bars")
		return nil, err
	}
	frame, err := uc.engine.Compute(ctx, bars)
	if err != nil {
		uc.metrics.RecordError("analyze_frame")
		return nil, err
	}

	res := &models.AnalysisReport{
		Symbol:     p.Symbol,
		Timeframe:  string(p.Timeframe),
		Timestamp:  time.Now(),
		Bars:       len(bars),
		Indicators: frame.Snapshot(),
		Errors:     map[string]string{},
	}

	type item struct {
		name string
		val  interface{}
		err  error
	}
	ch := make(chan item, 2)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		v, err := uc.stageSection(ctx, p, bars, frame)
		ch <- item{"stage", v, err}
	}()
	wg.Add(1)
	go func() {
		defer wg.Done()
		v, err := uc.patterns.Detect(ctx, bars)
		ch <- item{"patterns", v, err}
	}()

	go func() { wg.Wait(); close(ch) }()

	for it := range ch {
		if it.err != nil {
			res.Errors[it.name] = it.err.Error()
			uc.metrics.RecordError("analyze_" + it.name)
			continue
		}
		switch it.name {
		case "stage":
			v := it.val.(stageSection)
			res.Stage = v.stage.String()
			res.Signal = v.signal
			res.Prediction = v.prediction
			if v.predErr != nil {
				res.Errors["prediction"] = v.predErr.Error()
			}
		case "patterns":
			res.Patterns = it.val.([]models.PatternMatch)
		}
	}

	if len(res.Errors) == 0 {
		res.Errors = nil
	}
	uc.metrics.RecordLatency("analyze", time.Since(start).Seconds())
	return res, nil
}

// Patterns runs only the geometric pattern scan for a symbol.
func (uc *AnalyzeUseCase) Patterns(ctx context.Context, p AnalyzeParams) ([]models.PatternMatch, error) {
	if p.Symbol == "" {
		return nil, fmt.Errorf("symbol required")
	}
	if p.N <= 0 {
		p.N = 300
	}
	ctx, cancel := context.WithTimeout(ctx, uc.timeout)
	defer cancel()
	start := time.Now()

	bars, err := uc.bars.GetBars(ctx, p.Symbol, p.N, p.Timeframe)
	if err != nil {
		uc.metrics.RecordError("patterns_bars")
		return nil, err
	}
	matches, err := uc.patterns.Detect(ctx, bars)
	if err != nil {
		return nil, err
	}
	uc.metrics.RecordLatency("patterns", time.Since(start).Seconds())
	return matches, nil
}

// stageSection classifies the latest bar and, when the series is
// currently inside a buy stage, attaches the open signal plus its
// model score.
func (uc *AnalyzeUseCase) stageSection(ctx context.Context, p AnalyzeParams, bars []models.Bar, frame *models.IndicatorFrame) (stageSection, error) {
	var out stageSection

	st, err := uc.classifier.Classify(frame, frame.Length-1)
	if err != nil {
		return out, err
	}
	out.stage = st
	if !st.IsBuy() {
		return out, nil
	}

	sigs, err := uc.classifier.Signals(ctx, p.Symbol, string(p.Timeframe), bars, frame, uc.ranks)
	if err != nil {
		return out, err
	}
	if len(sigs) == 0 {
		return out, nil
	}
	last := sigs[len(sigs)-1]
	out.signal = &last

	features := confidence.Extract(&last, frame)
	pred, err := uc.predictor.Predict(ctx, string(p.Timeframe), features)
	if err != nil {
		// Scoring is best-effort here; the stage still stands.
		out.predErr = err
		return out, nil
	}
	pred.Symbol = p.Symbol
	out.prediction = pred
	return out, nil
}

// errIsExpected reports whether err is part of the analysis taxonomy
// rather than an infrastructure failure.
func errIsExpected(err error) bool {
	return errors.Is(err, models.ErrIndeterminate) ||
		errors.Is(err, models.ErrInsufficientData) ||
		models.IsDataError(err) ||
		models.IsFeatureIncomplete(err)
}
