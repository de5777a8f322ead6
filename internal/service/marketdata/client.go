package marketdata

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"TrendRadar/internal/domain/models"
	"TrendRadar/internal/domain/repository"
	"TrendRadar/pkg/config"
	xhttp "TrendRadar/pkg/http"
	"TrendRadar/pkg/logger"
)

// Client fetches historical OHLCV bars from the candle HTTP API and
// implements repository.BarSource. Responses are split-adjusted before
// they reach the analysis core.
type Client struct {
	baseURL  string
	apiKey   string
	attempts int
	http     *xhttp.Client
	log      *logger.Logger
}

func NewClient(cfg *config.Config, log *logger.Logger) *Client {
	timeout := cfg.MarketData.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	attempts := cfg.MarketData.RetryAttempts
	if attempts <= 0 {
		attempts = 3
	}
	return &Client{
		baseURL:  cfg.MarketData.BaseURL,
		apiKey:   cfg.MarketData.APIKey,
		attempts: attempts,
		http:     xhttp.NewClient(xhttp.WithTimeout(timeout)),
		log:      log,
	}
}

// candleResponse is the provider's column-oriented candle payload.
type candleResponse struct {
	Status string    `json:"s"`
	T      []int64   `json:"t"`
	O      []float64 `json:"o"`
	H      []float64 `json:"h"`
	L      []float64 `json:"l"`
	C      []float64 `json:"c"`
	V      []float64 `json:"v"`
}

func (c *Client) GetBars(ctx context.Context, symbol string, n int, tf repository.Timeframe) ([]models.Bar, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("market data base url not configured")
	}
	resolution, barSpan := "D", 24*time.Hour
	if tf == repository.TFWeekly {
		resolution, barSpan = "W", 7*24*time.Hour
	}
	to := time.Now()
	// Generous lookback: weekends and holidays thin out trading bars.
	from := to.Add(-time.Duration(n) * barSpan * 2)

	var resp candleResponse
	err := c.getJSONWithRetry(ctx, "/stock/candle", map[string][]string{
		"symbol":     {symbol},
		"resolution": {resolution},
		"from":       {strconv.FormatInt(from.Unix(), 10)},
		"to":         {strconv.FormatInt(to.Unix(), 10)},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("fetch candles %s: %w", symbol, err)
	}
	if resp.Status != "ok" || len(resp.T) == 0 {
		return nil, models.NewDataError("no candle data for %s", symbol)
	}
	if len(resp.C) != len(resp.T) || len(resp.O) != len(resp.T) ||
		len(resp.H) != len(resp.T) || len(resp.L) != len(resp.T) || len(resp.V) != len(resp.T) {
		return nil, models.NewDataError("ragged candle columns for %s", symbol)
	}

	bars := make([]models.Bar, len(resp.T))
	for i := range resp.T {
		bars[i] = models.Bar{
			Timestamp: time.Unix(resp.T[i], 0).UTC(),
			Open:      resp.O[i],
			High:      resp.H[i],
			Low:       resp.L[i],
			Close:     resp.C[i],
			Volume:    resp.V[i],
		}
	}
	if len(bars) > n {
		bars = bars[len(bars)-n:]
	}

	bars, adjusted := AdjustSplits(bars)
	if adjusted > 0 && c.log != nil {
		c.log.Warn("adjusted unrecognized splits",
			logger.String("symbol", symbol),
			logger.Int("splits", adjusted),
		)
	}
	return bars, nil
}

// getJSONWithRetry GETs JSON with exponential backoff between attempts.
func (c *Client) getJSONWithRetry(ctx context.Context, path string, query map[string][]string, dest interface{}) error {
	query["token"] = []string{c.apiKey}
	var err error
	for i := 1; i <= c.attempts; i++ {
		err = c.http.SendAndParse(ctx, &xhttp.RequestOptions{
			Method:      xhttp.MethodGet,
			URL:         c.baseURL + path,
			QueryParams: query,
		}, dest)
		if err == nil {
			return nil
		}
		select {
		case <-time.After(retryDelay(i)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

// retryDelay doubles per attempt: 50ms, 100ms, 200ms, capped at 5s.
func retryDelay(attempt int) time.Duration {
	d := 50 * time.Millisecond << (attempt - 1)
	if d > 5*time.Second {
		return 5 * time.Second
	}
	return d
}

var _ repository.BarSource = (*Client)(nil)
