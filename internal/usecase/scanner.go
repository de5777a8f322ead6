package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"TrendRadar/internal/domain/models"
	domrepo "TrendRadar/internal/domain/repository"
	domsvc "TrendRadar/internal/domain/service"
	"TrendRadar/pkg/logger"
)

// scanWorkers bounds the per-request fan-out over symbols.
const scanWorkers = 8

// ScanUseCase runs the stage classifier across a symbol list and
// collects every historical buy signal. Per-symbol failures go into
// the Errors map; the batch always finishes.
type ScanUseCase struct {
	bars       domrepo.BarSource
	ranks      domrepo.RankProvider
	engine     domsvc.IndicatorEngine
	classifier domsvc.StageClassifier
	publisher  domrepo.SignalPublisher
	metrics    domrepo.Metrics
	log        *logger.Logger
}

func NewScanUseCase(
	bars domrepo.BarSource,
	ranks domrepo.RankProvider,
	engine domsvc.IndicatorEngine,
	classifier domsvc.StageClassifier,
	publisher domrepo.SignalPublisher,
	metrics domrepo.Metrics,
	log *logger.Logger,
) *ScanUseCase {
	return &ScanUseCase{
		bars:       bars,
		ranks:      ranks,
		engine:     engine,
		classifier: classifier,
		publisher:  publisher,
		metrics:    metrics,
		log:        log,
	}
}

type ScanParams struct {
	Symbols   []string
	N         int
	Timeframe domrepo.Timeframe
}

type ScanResult struct {
	Signals []models.BuySignal `json:"signals"`
	Scanned int                `json:"scanned"`
	Errors  map[string]string  `json:"errors,omitempty"`
}

func (uc *ScanUseCase) Scan(ctx context.Context, p ScanParams) (*ScanResult, error) {
	if len(p.Symbols) == 0 {
		return nil, fmt.Errorf("symbols required")
	}
	if p.N <= 0 {
		p.N = 300
	}
	start := time.Now()

	type symbolResult struct {
		symbol string
		sigs   []models.BuySignal
		err    error
	}

	jobs := make(chan string)
	results := make(chan symbolResult, len(p.Symbols))
	var wg sync.WaitGroup
	for w := 0; w < scanWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for symbol := range jobs {
				sigs, err := uc.scanSymbol(ctx, symbol, p.N, p.Timeframe)
				results <- symbolResult{symbol: symbol, sigs: sigs, err: err}
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

	res := &ScanResult{Errors: map[string]string{}}
	for r := range results {
		res.Scanned++
		if r.err != nil {
			res.Errors[r.symbol] = r.err.Error()
			if !errIsExpected(r.err) {
				uc.metrics.RecordError("scan")
			}
			continue
		}
		res.Signals = append(res.Signals, r.sigs...)
	}
	sort.Slice(res.Signals, func(a, b int) bool {
		if !res.Signals[a].EntryDate.Equal(res.Signals[b].EntryDate) {
			return res.Signals[a].EntryDate.Before(res.Signals[b].EntryDate)
		}
		return res.Signals[a].Symbol < res.Signals[b].Symbol
	})

	if len(res.Errors) == 0 {
		res.Errors = nil
	}
	uc.metrics.RecordLatency("scan", time.Since(start).Seconds())
	if uc.log != nil {
		uc.log.Info("scan finished",
			logger.Int("symbols", len(p.Symbols)),
			logger.Int("signals", len(res.Signals)),
			logger.Duration("took_ms", time.Since(start)),
		)
	}
	return res, nil
}

func (uc *ScanUseCase) scanSymbol(ctx context.Context, symbol string, n int, tf domrepo.Timeframe) ([]models.BuySignal, error) {
	bars, err := uc.bars.GetBars(ctx, symbol, n, tf)
	if err != nil {
		return nil, err
	}
	frame, err := uc.engine.Compute(ctx, bars)
	if err != nil {
		return nil, err
	}
	sigs, err := uc.classifier.Signals(ctx, symbol, string(tf), bars, frame, uc.ranks)
	if err != nil {
		return nil, err
	}
	if uc.publisher != nil {
		for i := range sigs {
			if err := uc.publisher.PublishSignal(ctx, &sigs[i]); err != nil {
				uc.metrics.RecordError("publish_signal")
			}
		}
	}
	return sigs, nil
}
