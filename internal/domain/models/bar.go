package models

import "time"

// Bar represents a single OHLCV record of a price series.
// Sequences are expected in chronological order with strictly
// increasing timestamps; the bar source owns split/dividend adjustment.
type Bar struct {
	Timestamp time.Time `json:"t"`
	Open      float64   `json:"o"`
	High      float64   `json:"h"`
	Low       float64   `json:"l"`
	Close     float64   `json:"c"`
	Volume    float64   `json:"v"`
}

// Quote is a realtime price update received from the market stream.
type Quote struct {
	Symbol    string
	Timestamp int64 // unix seconds
	Price     float64
	Volume    float64
}

// PercentileRanks carries cross-sectional ranks computed over a peer
// universe. They are a precomputed input; nothing here derives them.
type PercentileRanks struct {
	RelativeStrength float64 `json:"rs"`      // 0..100
	ChaikinAD        float64 `json:"chaikin"` // 0..100
}

// Elite reports whether both ranks sit in the top 5% of the universe.
func (p PercentileRanks) Elite() bool {
	return p.RelativeStrength >= 95 && p.ChaikinAD >= 95
}
