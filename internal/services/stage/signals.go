package stage

import (
	"context"
	"errors"
	"time"

	"TrendRadar/internal/domain/models"
	"TrendRadar/internal/domain/repository"
	domsvc "TrendRadar/internal/domain/service"
	"TrendRadar/internal/services/indicators"
	"TrendRadar/pkg/logger"
)

const (
	// buyPointLookback bounds the search for the last confirmed peak.
	buyPointLookback = 50
	// buyZonePct is the tolerance band around the buy point.
	buyZonePct = 0.05
)

// Signals walks the frame and emits a BuySignal at every transition
// into a buy stage. Bars that classify as Indeterminate are skipped;
// they never open or close a signal. Each signal's rank flag is
// resolved as of its own entry date.
func (c *Classifier) Signals(ctx context.Context, symbol, tf string, bars []models.Bar, f *models.IndicatorFrame, ranks repository.RankProvider) ([]models.BuySignal, error) {
	if f == nil || len(bars) != f.Length {
		return nil, models.NewDataError("frame and bars misaligned")
	}

	var out []models.BuySignal
	inBuy := false
	for i := minClassifyIndex; i < f.Length; i++ {
		st, err := c.Classify(f, i)
		if err != nil {
			if errors.Is(err, models.ErrIndeterminate) {
				continue
			}
			return nil, err
		}
		if !st.IsBuy() {
			inBuy = false
			continue
		}
		if inBuy {
			continue
		}
		inBuy = true
		out = append(out, c.buildSignal(ctx, symbol, tf, bars, f, i, st, ranks))
	}
	if c.log != nil {
		c.log.Debug("signal scan finished",
			logger.String("symbol", symbol),
			logger.String("tf", tf),
			logger.Int("signals", len(out)),
		)
	}
	return out, nil
}

// SignalAt classifies bar i and builds its fully flagged signal even
// when no transition happens there, so the live setup gets the same
// quality flags the dataset rows carry.
func (c *Classifier) SignalAt(ctx context.Context, symbol, tf string, bars []models.Bar, f *models.IndicatorFrame, i int, ranks repository.RankProvider) (*models.BuySignal, error) {
	if f == nil || len(bars) != f.Length {
		return nil, models.NewDataError("frame and bars misaligned")
	}
	if i < 0 || i >= f.Length {
		return nil, models.NewDataError("bar index out of range")
	}
	st, err := c.Classify(f, i)
	if err != nil {
		return nil, err
	}
	sig := c.buildSignal(ctx, symbol, tf, bars, f, i, st, ranks)
	return &sig, nil
}

func (c *Classifier) buildSignal(ctx context.Context, symbol, tf string, bars []models.Bar, f *models.IndicatorFrame, i int, st models.Stage, ranks repository.RankProvider) models.BuySignal {
	entry := f.Close[i]
	buyPoint, hasPeak := lastConfirmedPeak(f.High, i)

	sig := models.BuySignal{
		Symbol:     symbol,
		Timeframe:  tf,
		EntryDate:  bars[i].Timestamp,
		EntryIndex: i,
		EntryPrice: entry,
		Stage:      st,
		BuyPoint:   buyPoint,
		StopLoss:   entry * (1 - repository.StopPct),
	}
	asOf := c.lookupRanks(ctx, ranks, symbol, bars[i].Timestamp)
	sig.Flags = models.QualityFlags{
		HasBuyPoint:  hasPeak && insideBuyZone(entry, buyPoint),
		HasUptrend:   freshUptrend(f, i),
		HasRSChaikin: asOf != nil && asOf.Elite(),
	}
	return sig
}

// lookupRanks is best-effort: a missing provider or a lookup error
// only clears the rs/chaikin flag.
func (c *Classifier) lookupRanks(ctx context.Context, ranks repository.RankProvider, symbol string, asOf time.Time) *models.PercentileRanks {
	if ranks == nil {
		return nil
	}
	r, err := ranks.GetRanks(ctx, symbol, asOf)
	if err != nil {
		if c.log != nil {
			c.log.Warn("rank lookup failed",
				logger.String("symbol", symbol),
				logger.Error(err),
			)
		}
		return nil
	}
	return r
}

// lastConfirmedPeak returns the most recent local high within the
// lookback that stands above its two neighbors on each side.
func lastConfirmedPeak(highs []float64, i int) (float64, bool) {
	lo := i - buyPointLookback
	if lo < 2 {
		lo = 2
	}
	for j := i - 3; j >= lo; j-- {
		if j+2 > i {
			continue
		}
		h := highs[j]
		if h > highs[j-1] && h > highs[j+1] && h >= highs[j-2] && h >= highs[j+2] {
			return h, true
		}
	}
	return 0, false
}

func insideBuyZone(price, buyPoint float64) bool {
	if buyPoint <= 0 {
		return false
	}
	return price >= buyPoint*(1-buyZonePct) && price <= buyPoint*(1+buyZonePct)
}

// freshUptrend mirrors the "new uptrend" marker: close above the long
// EMA while that EMA slopes up.
func freshUptrend(f *models.IndicatorFrame, i int) bool {
	ema50 := f.EMA[50][i]
	if !models.Defined(ema50) {
		return false
	}
	return f.Close[i] > ema50 && indicators.Rising(f.EMA[50], i)
}

var _ domsvc.StageClassifier = (*Classifier)(nil)
