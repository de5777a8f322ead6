package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"TrendRadar/internal/domain/models"
	domrepo "TrendRadar/internal/domain/repository"
	icache "TrendRadar/internal/service/cache"
	"TrendRadar/internal/service/metrics"
	"TrendRadar/internal/service/ratelimit"
	"TrendRadar/internal/usecase"
	applogger "TrendRadar/pkg/logger"
)

// AnalysisHandler serves the read-heavy GET endpoints over plain
// net/http with a byte cache and per-client rate limiting. The Echo
// handler owns the mutating routes.
type AnalysisHandler struct {
	analyzer *usecase.AnalyzeUseCase
	cache    icache.BytesCache
	rl       *ratelimit.Limiter
	l        *applogger.Logger
}

func NewAnalysisHandler(analyzer *usecase.AnalyzeUseCase) *AnalysisHandler {
	metrics.Register()
	return &AnalysisHandler{analyzer: analyzer, rl: ratelimit.New()}
}

func (h *AnalysisHandler) SetCache(c icache.BytesCache) { h.cache = c }

// SetLogger injects a structured logger.
func (h *AnalysisHandler) SetLogger(l *applogger.Logger) { h.l = l }

func (h *AnalysisHandler) Analyze() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		endpoint := "analyze"
		defer func() { metrics.AnalysisLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

		symbol := r.URL.Query().Get("symbol")
		if symbol == "" {
			if h.l != nil {
				h.l.Warn("analysis.analyze missing symbol")
			}
			http.Error(w, "symbol required", http.StatusBadRequest)
			return
		}
		n := parseInt(r.URL.Query().Get("n"), 300)
		tf := domrepo.NormalizeTimeframe(r.URL.Query().Get("tf"))
		if !h.rl.Allow(r.RemoteAddr+":analyze", 5, 2) {
			if h.l != nil {
				h.l.Warn("analysis.analyze rate_limited", applogger.String("remote", r.RemoteAddr))
			}
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}
		cacheKey := "analyze:" + symbol + ":" + strconv.Itoa(n) + ":" + string(tf)
		if b, ok := h.cached(endpoint, cacheKey); ok {
			h.writeJSON(endpoint, w, b)
			return
		}
		res, err := h.analyzer.Analyze(r.Context(), usecase.AnalyzeParams{Symbol: symbol, N: n, Timeframe: tf})
		if err != nil {
			metrics.AnalysisErrors.WithLabelValues(endpoint).Inc()
			if h.l != nil {
				h.l.Error("analysis.analyze error", applogger.Error(err))
			}
			http.Error(w, err.Error(), statusFor(err))
			return
		}
		h.respond(endpoint, w, cacheKey, res, 30*time.Second)
	}
}

func (h *AnalysisHandler) Patterns() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		endpoint := "patterns"
		defer func() { metrics.AnalysisLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

		symbol := r.URL.Query().Get("symbol")
		if symbol == "" {
			if h.l != nil {
				h.l.Warn("analysis.patterns missing symbol")
			}
			http.Error(w, "symbol required", http.StatusBadRequest)
			return
		}
		n := parseInt(r.URL.Query().Get("n"), 300)
		tf := domrepo.NormalizeTimeframe(r.URL.Query().Get("tf"))
		minConf := parseFloat(r.URL.Query().Get("min_confidence"), 0)
		if !h.rl.Allow(r.RemoteAddr+":patterns", 5, 2) {
			if h.l != nil {
				h.l.Warn("analysis.patterns rate_limited", applogger.String("remote", r.RemoteAddr))
			}
			http.Error(w, "rate limited", http.StatusTooManyRequests)
			return
		}
		cacheKey := "patterns:" + symbol + ":" + strconv.Itoa(n) + ":" + string(tf) + ":" + strconv.FormatFloat(minConf, 'f', 2, 64)
		if b, ok := h.cached(endpoint, cacheKey); ok {
			h.writeJSON(endpoint, w, b)
			return
		}
		res, err := h.analyzer.Patterns(r.Context(), usecase.AnalyzeParams{Symbol: symbol, N: n, Timeframe: tf})
		if err != nil {
			metrics.AnalysisErrors.WithLabelValues(endpoint).Inc()
			if h.l != nil {
				h.l.Error("analysis.patterns error", applogger.Error(err))
			}
			http.Error(w, err.Error(), statusFor(err))
			return
		}
		if minConf > 0 {
			kept := res[:0]
			for _, m := range res {
				if m.Confidence >= minConf {
					kept = append(kept, m)
				}
			}
			res = kept
		}
		h.respond(endpoint, w, cacheKey, res, 60*time.Second)
	}
}

func (h *AnalysisHandler) cached(endpoint, key string) ([]byte, bool) {
	if h.cache == nil {
		return nil, false
	}
	b, ok, err := h.cache.GetBytes(key)
	if err != nil {
		if h.l != nil {
			h.l.Warn("analysis."+endpoint+" cache_get_error", applogger.Error(err))
		}
		return nil, false
	}
	if ok && h.l != nil {
		h.l.Debug("analysis."+endpoint+" cache_hit", applogger.String("key", key))
	}
	return b, ok
}

func (h *AnalysisHandler) respond(endpoint string, w http.ResponseWriter, key string, res interface{}, ttl time.Duration) {
	b, err := json.Marshal(res)
	if err != nil {
		if h.l != nil {
			h.l.Error("analysis."+endpoint+" marshal_error", applogger.Error(err))
		}
		http.Error(w, "encode error", http.StatusInternalServerError)
		return
	}
	if h.cache != nil {
		if err := h.cache.SetBytes(key, b, ttl); err != nil && h.l != nil {
			h.l.Warn("analysis."+endpoint+" cache_set_error", applogger.Error(err))
		}
	}
	h.writeJSON(endpoint, w, b)
}

func (h *AnalysisHandler) writeJSON(endpoint string, w http.ResponseWriter, b []byte) {
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(b); err != nil && h.l != nil {
		h.l.Warn("analysis."+endpoint+" write_error", applogger.Error(err))
	}
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func parseFloat(s string, def float64) float64 {
	if s == "" {
		return def
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return v
}

// statusFor maps the analysis error taxonomy onto HTTP statuses for the
// plain handlers; the Echo handler has its own mapping.
func statusFor(err error) int {
	switch {
	case models.IsDataError(err):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrIndeterminate),
		models.IsFeatureIncomplete(err),
		errors.Is(err, models.ErrInsufficientData):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
