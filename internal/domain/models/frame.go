package models

import "math"

// EMAPeriods are the smoothing windows computed for every series.
var EMAPeriods = []int{3, 9, 20, 34, 50, 200}

// IndicatorFrame holds every computed indicator series for one bar
// series, aligned by index. Undefined entries are NaN, never zero.
type IndicatorFrame struct {
	Length int

	Close  []float64
	High   []float64
	Low    []float64
	Volume []float64

	EMA map[int][]float64

	PPO          []float64
	PPOSignal    []float64
	PPOHistogram []float64

	PMO       []float64
	PMOSignal []float64

	RSI []float64
	ATR []float64

	MACD          []float64
	MACDSignal    []float64
	MACDHistogram []float64

	Tenkan  []float64
	Kijun   []float64
	SenkouA []float64
	SenkouB []float64
	Chikou  []float64

	SuperTrend []float64
	TrendUp    []bool
}

// Defined reports whether v is a usable indicator value.
func Defined(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Snapshot extracts the latest-bar view of the frame.
func (f *IndicatorFrame) Snapshot() *IndicatorSnapshot {
	if f == nil || f.Length == 0 {
		return nil
	}
	i := f.Length - 1
	return &IndicatorSnapshot{
		Close:        f.Close[i],
		EMA3:         f.EMA[3][i],
		EMA9:         f.EMA[9][i],
		EMA20:        f.EMA[20][i],
		EMA34:        f.EMA[34][i],
		EMA50:        f.EMA[50][i],
		EMA200:       f.EMA[200][i],
		PPO:          f.PPO[i],
		PPOSignal:    f.PPOSignal[i],
		PPOHistogram: f.PPOHistogram[i],
		PMO:          f.PMO[i],
		PMOSignal:    f.PMOSignal[i],
		RSI:          f.RSI[i],
		ATR:          f.ATR[i],
		MACD:         f.MACD[i],
		MACDSignal:   f.MACDSignal[i],
		MACDHist:     f.MACDHistogram[i],
		SuperTrend:   f.SuperTrend[i],
		TrendIsUp:    f.TrendUp[i],
		Tenkan:       f.Tenkan[i],
		Kijun:        f.Kijun[i],
		SenkouA:      f.SenkouA[i],
		SenkouB:      f.SenkouB[i],
	}
}
