package marketdata

import (
	"context"
	"errors"
	"fmt"
	"time"

	"TrendRadar/internal/domain/models"
	"TrendRadar/internal/domain/repository"
	pkgcache "TrendRadar/pkg/cache"
	"TrendRadar/pkg/config"
	xhttp "TrendRadar/pkg/http"
)

const (
	// rankTTL bounds staleness of cached current ranks; the upstream
	// service recomputes percentiles once per session.
	rankTTL = 15 * time.Minute
	// histRankTTL: dated lookups never change once the session closed.
	histRankTTL = 24 * time.Hour
)

// RankClient resolves market-wide percentile ranks (relative strength
// and Chaikin accumulation) from the ranking HTTP service, as of a
// given date. The provider is optional: without a configured URL every
// lookup returns nil ranks and signals simply never carry the
// rs/chaikin flag.
type RankClient struct {
	baseURL string
	http    *xhttp.Client
	cache   pkgcache.Service
}

func NewRankClient(cfg *config.Config) *RankClient {
	timeout := cfg.MarketData.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RankClient{
		baseURL: cfg.MarketData.RanksURL,
		http:    xhttp.NewClient(xhttp.WithTimeout(timeout)),
		cache:   pkgcache.NewMemoryCache(),
	}
}

// SetCache swaps the per-process cache, e.g. for a shared Redis layer.
func (r *RankClient) SetCache(c pkgcache.Service) {
	if c != nil {
		r.cache = c
	}
}

type rankResponse struct {
	RSPercentile float64 `json:"rs_percentile"`
	ADPercentile float64 `json:"ad_percentile"`
}

// GetRanks fetches the percentile ranks for symbol as of the given
// date. A zero asOf asks for the current session's ranks.
func (r *RankClient) GetRanks(ctx context.Context, symbol string, asOf time.Time) (*models.PercentileRanks, error) {
	if r.baseURL == "" {
		return nil, nil
	}
	day, ttl := "latest", rankTTL
	query := map[string][]string{"symbol": {symbol}}
	if !asOf.IsZero() {
		day = asOf.UTC().Format("2006-01-02")
		ttl = histRankTTL
		query["as_of"] = []string{day}
	}
	key := pkgcache.GenerateKeyWithParams("ranks", symbol, day)
	var cached interface{}
	if err := r.cache.Get(ctx, key, &cached); err == nil {
		if ranks, ok := cached.(*models.PercentileRanks); ok {
			return ranks, nil
		}
	} else if !errors.Is(err, pkgcache.ErrCacheMiss) {
		return nil, fmt.Errorf("ranks cache %s: %w", symbol, err)
	}

	var resp rankResponse
	err := r.http.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         r.baseURL + "/ranks",
		QueryParams: query,
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("fetch ranks %s: %w", symbol, err)
	}
	ranks := &models.PercentileRanks{
		RelativeStrength: resp.RSPercentile,
		ChaikinAD:        resp.ADPercentile,
	}
	_ = r.cache.Set(ctx, key, ranks, ttl)
	return ranks, nil
}

var _ repository.RankProvider = (*RankClient)(nil)
