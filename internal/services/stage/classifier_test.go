package stage

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"TrendRadar/internal/domain/models"
	"TrendRadar/internal/services/indicators"
)

func constant(n int, v float64) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = v
	}
	return s
}

func ramp(n int, start, step float64) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = start + float64(i)*step
	}
	return s
}

// neutralFrame returns a frame where every rule input is defined and no
// buy or sell branch fires.
func neutralFrame(n int) *models.IndicatorFrame {
	f := &models.IndicatorFrame{
		Length: n,
		Close:  constant(n, 100),
		High:   constant(n, 100),
		Low:    constant(n, 100),
		EMA:    make(map[int][]float64),
	}
	for _, p := range models.EMAPeriods {
		f.EMA[p] = constant(n, 100)
	}
	f.PPO = constant(n, 0.1)
	f.PPOSignal = constant(n, 0.1)
	f.PMO = constant(n, 0)
	f.PMOSignal = constant(n, 0)
	return f
}

func TestClassifyIndeterminateBeforeWindow(t *testing.T) {
	c := NewClassifier(nil)
	f := neutralFrame(60)
	if _, err := c.Classify(f, 10); !errors.Is(err, models.ErrIndeterminate) {
		t.Fatalf("expected ErrIndeterminate, got %v", err)
	}
	if _, err := c.Classify(f, 60); !errors.Is(err, models.ErrIndeterminate) {
		t.Fatalf("expected ErrIndeterminate past the end, got %v", err)
	}
}

func TestClassifyIndeterminateOnUndefinedInput(t *testing.T) {
	c := NewClassifier(nil)
	f := neutralFrame(60)
	f.PMO[40] = math.NaN()
	if _, err := c.Classify(f, 40); !errors.Is(err, models.ErrIndeterminate) {
		t.Fatalf("expected ErrIndeterminate on NaN input, got %v", err)
	}
}

func TestClassifyBuyAndStrongBuy(t *testing.T) {
	c := NewClassifier(nil)
	f := neutralFrame(60)
	f.PPO = ramp(60, 0.5, 0.05)        // positive, rising
	f.PPOSignal = ramp(60, 0.2, 0.05)  // below PPO
	f.EMA[34] = ramp(60, 95, 0.1)      // rising
	f.EMA[9] = constant(60, 102)       // above EMA20, flat
	f.PMO = constant(60, -1)           // blocks the strong upgrade

	st, err := c.Classify(f, 40)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if st != models.StageBuy {
		t.Fatalf("expected buy, got %v", st)
	}

	f.EMA[9] = ramp(60, 101, 0.1) // rising, still above EMA20
	f.PMO = constant(60, 1)
	st, err = c.Classify(f, 40)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if st != models.StageStrongBuy {
		t.Fatalf("expected strong buy, got %v", st)
	}
}

func TestClassifySellAndStrongSell(t *testing.T) {
	c := NewClassifier(nil)
	f := neutralFrame(60)
	f.PPO = ramp(60, -0.5, -0.05)       // negative, falling
	f.PPOSignal = ramp(60, -0.2, -0.05) // above PPO
	f.EMA[9] = ramp(60, 98, -0.1)       // falling, below EMA20
	f.EMA[34] = ramp(60, 99, -0.05)     // falling
	f.PMO = ramp(60, 1, 0.01)           // rising blocks the strong upgrade

	st, err := c.Classify(f, 40)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if st != models.StageSell {
		t.Fatalf("expected sell, got %v", st)
	}

	f.PMO = ramp(60, -0.5, -0.05)
	f.PMOSignal = ramp(60, -0.2, -0.05)
	f.EMA[9] = ramp(60, 90, -0.1) // below EMA34
	st, err = c.Classify(f, 40)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if st != models.StageStrongSell {
		t.Fatalf("expected strong sell, got %v", st)
	}
}

func TestClassifyNeutralCrossovers(t *testing.T) {
	c := NewClassifier(nil)
	f := neutralFrame(60)
	f.EMA[3] = constant(60, 99)
	f.EMA[3][40] = 101 // crosses above EMA9 (100) at bar 40
	st, err := c.Classify(f, 40)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if st != models.StageNeutralBuy {
		t.Fatalf("expected neutral buy on cross above, got %v", st)
	}

	f = neutralFrame(60)
	f.EMA[3] = constant(60, 101)
	f.EMA[3][40] = 99
	st, err = c.Classify(f, 40)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if st != models.StageNeutralSell {
		t.Fatalf("expected neutral sell on cross below, got %v", st)
	}
}

func TestClassifyNeutralDefaultSides(t *testing.T) {
	c := NewClassifier(nil)
	f := neutralFrame(60)
	f.EMA[9] = constant(60, 101) // above EMA20, no other branch fires
	st, err := c.Classify(f, 40)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if st != models.StageNeutralBuy {
		t.Fatalf("expected neutral buy side, got %v", st)
	}

	f.EMA[9] = constant(60, 99)
	st, err = c.Classify(f, 40)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if st != models.StageNeutralSell {
		t.Fatalf("expected neutral sell side, got %v", st)
	}
}

// Totality over a realistic frame: every bar yields a valid stage or
// ErrIndeterminate, never an invalid stage or another error.
func TestClassifyTotality(t *testing.T) {
	bars := make([]models.Bar, 300)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		c := 100 + 10*math.Sin(float64(i)/15) + float64(i)*0.1
		bars[i] = models.Bar{
			Timestamp: base.AddDate(0, 0, i),
			Open:      c, High: c * 1.01, Low: c * 0.99, Close: c,
			Volume: 500_000,
		}
	}
	frame, err := indicators.NewEngine(nil).Compute(context.Background(), bars)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	c := NewClassifier(nil)
	for i := 0; i < frame.Length; i++ {
		st, err := c.Classify(frame, i)
		if err != nil {
			if !errors.Is(err, models.ErrIndeterminate) {
				t.Fatalf("unexpected error at %d: %v", i, err)
			}
			continue
		}
		if !st.Valid() {
			t.Fatalf("invalid stage %d at bar %d", st, i)
		}
	}
}

func TestSignalsEmitOnlyOnTransition(t *testing.T) {
	n := 80
	f := neutralFrame(n)
	f.PPO = ramp(n, 0.5, 0.05)
	f.PPOSignal = ramp(n, 0.2, 0.05)
	f.EMA[34] = ramp(n, 95, 0.1)
	f.EMA[9] = constant(n, 102)
	f.PMO = constant(n, -1)

	bars := make([]models.Bar, n)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		bars[i] = models.Bar{Timestamp: base.AddDate(0, 0, i), Open: 100, High: 100, Low: 100, Close: 100, Volume: 1}
	}

	c := NewClassifier(nil)
	sigs, err := c.Signals(context.Background(), "TEST", "daily", bars, f, nil)
	if err != nil {
		t.Fatalf("signals: %v", err)
	}
	if len(sigs) != 1 {
		t.Fatalf("expected one signal for an uninterrupted buy run, got %d", len(sigs))
	}
	sig := sigs[0]
	if sig.EntryIndex != minClassifyIndex {
		t.Fatalf("expected entry at first classifiable bar, got %d", sig.EntryIndex)
	}
	if math.Abs(sig.StopLoss-sig.EntryPrice*0.9) > 1e-12 {
		t.Fatalf("expected 10%% stop, got %v for entry %v", sig.StopLoss, sig.EntryPrice)
	}
	if sig.Stage != models.StageBuy {
		t.Fatalf("expected buy stage, got %v", sig.Stage)
	}
}

// rankStub serves ranks per as-of date. With eliteAfter set, only
// lookups dated after it return elite percentiles.
type rankStub struct {
	ranks      *models.PercentileRanks
	eliteAfter time.Time
	asOf       []time.Time
}

func (s *rankStub) GetRanks(_ context.Context, _ string, asOf time.Time) (*models.PercentileRanks, error) {
	s.asOf = append(s.asOf, asOf)
	if !s.eliteAfter.IsZero() {
		if asOf.After(s.eliteAfter) {
			return &models.PercentileRanks{RelativeStrength: 97, ChaikinAD: 96}, nil
		}
		return &models.PercentileRanks{RelativeStrength: 80, ChaikinAD: 70}, nil
	}
	return s.ranks, nil
}

func buyFrameAndBars(n int) (*models.IndicatorFrame, []models.Bar) {
	f := neutralFrame(n)
	f.PPO = ramp(n, 0.5, 0.05)
	f.PPOSignal = ramp(n, 0.2, 0.05)
	f.EMA[34] = ramp(n, 95, 0.1)
	f.EMA[9] = constant(n, 102)
	f.PMO = constant(n, -1)

	bars := make([]models.Bar, n)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		bars[i] = models.Bar{Timestamp: base.AddDate(0, 0, i), Open: 100, High: 100, Low: 100, Close: 100, Volume: 1}
	}
	return f, bars
}

func TestSignalsEliteFlagFromRanks(t *testing.T) {
	f, bars := buyFrameAndBars(80)

	c := NewClassifier(nil)
	stub := &rankStub{ranks: &models.PercentileRanks{RelativeStrength: 97, ChaikinAD: 96}}
	sigs, err := c.Signals(context.Background(), "TEST", "daily", bars, f, stub)
	if err != nil {
		t.Fatalf("signals: %v", err)
	}
	if len(sigs) == 0 {
		t.Fatalf("expected signals")
	}
	if !sigs[0].Flags.HasRSChaikin {
		t.Fatalf("expected rs/chaikin flag for elite ranks")
	}
	if len(stub.asOf) == 0 || !stub.asOf[0].Equal(sigs[0].EntryDate) {
		t.Fatalf("ranks must be resolved as of the entry date, got %v", stub.asOf)
	}

	stub = &rankStub{ranks: &models.PercentileRanks{RelativeStrength: 97, ChaikinAD: 80}}
	sigs, _ = c.Signals(context.Background(), "TEST", "daily", bars, f, stub)
	if sigs[0].Flags.HasRSChaikin {
		t.Fatalf("one rank below threshold must not set the flag")
	}
}

// Two signals straddling a rank regime change: the earlier one must
// carry the ranks of its own date, not today's.
func TestSignalsUseRanksAsOfEntryDate(t *testing.T) {
	n := 120
	f, bars := buyFrameAndBars(n)
	for i := 60; i < 70; i++ {
		f.EMA[9][i] = 99 // breaks the buy run so a second entry opens
	}

	c := NewClassifier(nil)
	cutoff := bars[50].Timestamp
	stub := &rankStub{eliteAfter: cutoff}
	sigs, err := c.Signals(context.Background(), "TEST", "daily", bars, f, stub)
	if err != nil {
		t.Fatalf("signals: %v", err)
	}
	if len(sigs) != 2 {
		t.Fatalf("expected two signals around the break, got %d", len(sigs))
	}
	if sigs[0].Flags.HasRSChaikin {
		t.Fatalf("signal before the rank cutoff must not be elite")
	}
	if !sigs[1].Flags.HasRSChaikin {
		t.Fatalf("signal after the rank cutoff must be elite")
	}
}

func TestSignalAtDerivesQualityFlags(t *testing.T) {
	f, bars := buyFrameAndBars(80)

	c := NewClassifier(nil)
	stub := &rankStub{ranks: &models.PercentileRanks{RelativeStrength: 97, ChaikinAD: 96}}
	sig, err := c.SignalAt(context.Background(), "TEST", "daily", bars, f, 40, stub)
	if err != nil {
		t.Fatalf("signal at: %v", err)
	}
	if sig.Stage != models.StageBuy {
		t.Fatalf("expected buy stage, got %v", sig.Stage)
	}
	if sig.EntryIndex != 40 || !sig.EntryDate.Equal(bars[40].Timestamp) {
		t.Fatalf("entry misplaced: %d %v", sig.EntryIndex, sig.EntryDate)
	}
	if !sig.Flags.HasRSChaikin {
		t.Fatalf("elite ranks must set the rs/chaikin flag")
	}
	if math.Abs(sig.StopLoss-sig.EntryPrice*0.9) > 1e-12 {
		t.Fatalf("expected 10%% stop, got %v", sig.StopLoss)
	}
	if len(stub.asOf) != 1 || !stub.asOf[0].Equal(bars[40].Timestamp) {
		t.Fatalf("ranks must be resolved as of the scored bar, got %v", stub.asOf)
	}
}

func TestLastConfirmedPeak(t *testing.T) {
	highs := constant(60, 100)
	highs[30] = 110 // clean peak
	p, ok := lastConfirmedPeak(highs, 45)
	if !ok || p != 110 {
		t.Fatalf("expected peak 110, got %v ok=%v", p, ok)
	}

	flat := constant(60, 100)
	if _, ok := lastConfirmedPeak(flat, 45); ok {
		t.Fatalf("flat series has no confirmed peak")
	}
}

func TestInsideBuyZone(t *testing.T) {
	if !insideBuyZone(104, 100) {
		t.Fatalf("4%% above the buy point is inside the zone")
	}
	if insideBuyZone(106, 100) {
		t.Fatalf("6%% above the buy point is outside the zone")
	}
	if insideBuyZone(100, 0) {
		t.Fatalf("no peak means no zone")
	}
}
