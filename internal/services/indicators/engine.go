package indicators

import (
	"context"
	"math"
	"time"

	"github.com/markcheno/go-talib"

	"TrendRadar/internal/domain/models"
	domsvc "TrendRadar/internal/domain/service"
	"TrendRadar/pkg/logger"
)

const (
	ppoFast      = 12
	ppoSlow      = 26
	ppoSignalLen = 9

	pmoSmooth1   = 35
	pmoSmooth2   = 20
	pmoSignalLen = 10

	rsiPeriod = 14
	atrPeriod = 14

	macdFast      = 12
	macdSlow      = 26
	macdSignalLen = 9

	superTrendPeriod = 10
	superTrendMult   = 3.0
)

// Engine computes the full indicator frame for a bar series. Pure and
// deterministic: no I/O, same bars produce the same frame.
type Engine struct {
	log *logger.Logger
}

func NewEngine(log *logger.Logger) *Engine {
	return &Engine{log: log}
}

func (e *Engine) Compute(_ context.Context, bars []models.Bar) (*models.IndicatorFrame, error) {
	start := time.Now()
	if err := validate(bars); err != nil {
		return nil, err
	}

	n := len(bars)
	closes := make([]float64, n)
	highs := make([]float64, n)
	lows := make([]float64, n)
	volumes := make([]float64, n)
	for i, b := range bars {
		closes[i] = b.Close
		highs[i] = b.High
		lows[i] = b.Low
		volumes[i] = b.Volume
	}

	frame := &models.IndicatorFrame{
		Length: n,
		Close:  closes,
		High:   highs,
		Low:    lows,
		Volume: volumes,
		EMA:    make(map[int][]float64, len(models.EMAPeriods)),
	}

	for _, p := range models.EMAPeriods {
		frame.EMA[p] = EMA(closes, p)
	}

	frame.PPO, frame.PPOSignal, frame.PPOHistogram = PPO(closes, ppoFast, ppoSlow, ppoSignalLen)
	frame.PMO, frame.PMOSignal = PMO(closes, pmoSmooth1, pmoSmooth2, pmoSignalLen)

	frame.RSI = rsiSeries(closes, rsiPeriod)
	frame.ATR = atrSeries(highs, lows, closes, atrPeriod)
	frame.MACD, frame.MACDSignal, frame.MACDHistogram = macdSeries(closes)

	ich := Ichimoku(highs, lows, closes)
	frame.Tenkan = ich.Tenkan
	frame.Kijun = ich.Kijun
	frame.SenkouA = ich.SenkouA
	frame.SenkouB = ich.SenkouB
	frame.Chikou = ich.Chikou

	stATR := atrSeries(highs, lows, closes, superTrendPeriod)
	frame.SuperTrend, frame.TrendUp = SuperTrend(highs, lows, closes, stATR, superTrendMult)

	if e.log != nil {
		e.log.Debug("indicator frame computed",
			logger.Int("bars", n),
			logger.Duration("took_ms", time.Since(start)),
		)
	}
	return frame, nil
}

// validate rejects series the engine cannot interpret. Timestamps must
// be strictly increasing and every price finite.
func validate(bars []models.Bar) error {
	if len(bars) == 0 {
		return models.NewDataError("empty bar series")
	}
	for i, b := range bars {
		if !finite(b.Open) || !finite(b.High) || !finite(b.Low) || !finite(b.Close) {
			return models.NewDataError("non-finite price at index %d", i)
		}
		if math.IsNaN(b.Volume) || math.IsInf(b.Volume, 0) || b.Volume < 0 {
			return models.NewDataError("invalid volume at index %d", i)
		}
		if i > 0 && !bars[i].Timestamp.After(bars[i-1].Timestamp) {
			return models.NewDataError("non-monotonic timestamp at index %d", i)
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func rsiSeries(closes []float64, period int) []float64 {
	if len(closes) <= period {
		return nanSlice(len(closes))
	}
	return maskWarmup(talib.Rsi(closes, period), period)
}

func atrSeries(highs, lows, closes []float64, period int) []float64 {
	if len(closes) <= period {
		return nanSlice(len(closes))
	}
	return maskWarmup(talib.Atr(highs, lows, closes, period), period)
}

func macdSeries(closes []float64) (line, signal, hist []float64) {
	n := len(closes)
	if n < macdSlow+macdSignalLen {
		return nanSlice(n), nanSlice(n), nanSlice(n)
	}
	line, signal, hist = talib.Macd(closes, macdFast, macdSlow, macdSignalLen)
	maskWarmup(line, macdSlow-1)
	maskWarmup(signal, macdSlow+macdSignalLen-2)
	maskWarmup(hist, macdSlow+macdSignalLen-2)
	return line, signal, hist
}

var _ domsvc.IndicatorEngine = (*Engine)(nil)
