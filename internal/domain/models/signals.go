package models

import "time"

// IndicatorSnapshot holds the most recent value of every computed
// indicator for one symbol/timeframe. Undefined values (warm-up bars)
// are NaN, never zero.
type IndicatorSnapshot struct {
	Close        float64 `json:"close"`
	EMA3         float64 `json:"ema3"`
	EMA9         float64 `json:"ema9"`
	EMA20        float64 `json:"ema20"`
	EMA34        float64 `json:"ema34"`
	EMA50        float64 `json:"ema50"`
	EMA200       float64 `json:"ema200"`
	PPO          float64 `json:"ppo"`
	PPOSignal    float64 `json:"ppo_signal"`
	PPOHistogram float64 `json:"ppo_histogram"`
	PMO          float64 `json:"pmo"`
	PMOSignal    float64 `json:"pmo_signal"`
	RSI          float64 `json:"rsi"`
	ATR          float64 `json:"atr"`
	MACD         float64 `json:"macd"`
	MACDSignal   float64 `json:"macd_signal"`
	MACDHist     float64 `json:"macd_hist"`
	SuperTrend   float64 `json:"supertrend"`
	TrendIsUp    bool    `json:"trend_is_up"`
	Tenkan       float64 `json:"tenkan"`
	Kijun        float64 `json:"kijun"`
	SenkouA      float64 `json:"senkou_a"`
	SenkouB      float64 `json:"senkou_b"`
}

// AnalysisReport represents a consolidated view of all analysis
// products for one symbol. Sections are independent: a section that
// failed is nil and its error recorded under Errors by section name.
// Note: no transport (json/http) concerns beyond field tags.
type AnalysisReport struct {
	Symbol     string             `json:"symbol"`
	Timeframe  string             `json:"timeframe"`
	Timestamp  time.Time          `json:"timestamp"`
	Bars       int                `json:"bars"`
	Indicators *IndicatorSnapshot `json:"indicators,omitempty"`
	Stage      string             `json:"stage,omitempty"`
	Signal     *BuySignal         `json:"signal,omitempty"`
	Patterns   []PatternMatch     `json:"patterns,omitempty"`
	Prediction *Prediction        `json:"prediction,omitempty"`
	Errors     map[string]string  `json:"errors,omitempty"`
}
