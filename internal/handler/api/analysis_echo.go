package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	models "TrendRadar/internal/domain/models"
	domrepo "TrendRadar/internal/domain/repository"
	"TrendRadar/internal/services/confidence"
	"TrendRadar/internal/usecase"
	xhttp "TrendRadar/pkg/http"
	xlogger "TrendRadar/pkg/logger"
	"TrendRadar/pkg/queue"

	"github.com/labstack/echo/v4"
)

// AnalysisEchoHandler exposes the trend analysis API over Echo.
type AnalysisEchoHandler struct {
	logger   *xlogger.Logger
	analyzer *usecase.AnalyzeUseCase
	scanner  *usecase.ScanUseCase
	builder  *usecase.DatasetBuildUseCase
	trainer  *usecase.TrainUseCase
	predict  *usecase.PredictUseCase
	quotes   *usecase.QuotesUseCase
	reads    *AnalysisHandler
	jobs     queue.QueueService
	health   func(ctx context.Context) error
}

func NewAnalysisEchoHandler(
	logger *xlogger.Logger,
	analyzer *usecase.AnalyzeUseCase,
	scanner *usecase.ScanUseCase,
	builder *usecase.DatasetBuildUseCase,
	trainer *usecase.TrainUseCase,
	predict *usecase.PredictUseCase,
	quotes *usecase.QuotesUseCase,
) *AnalysisEchoHandler {
	return &AnalysisEchoHandler{
		logger:   logger,
		analyzer: analyzer,
		scanner:  scanner,
		builder:  builder,
		trainer:  trainer,
		predict:  predict,
		quotes:   quotes,
	}
}

// SetReads routes the read-heavy GETs through the cached plain handler.
func (h *AnalysisEchoHandler) SetReads(r *AnalysisHandler) { h.reads = r }

// SetQueue wires the async job queue; without it build/train run inline.
func (h *AnalysisEchoHandler) SetQueue(q queue.QueueService) { h.jobs = q }

// SetHealth wires the dependency health probe behind /healthz.
func (h *AnalysisEchoHandler) SetHealth(probe func(ctx context.Context) error) { h.health = probe }

func (h *AnalysisEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Healthz)
	g := e.Group("/api")
	if h.reads != nil {
		g.GET("/analyze", echo.WrapHandler(h.reads.Analyze()))
		g.GET("/patterns", echo.WrapHandler(h.reads.Patterns()))
	} else {
		g.GET("/analyze", h.Analyze)
		g.GET("/patterns", h.Patterns)
	}
	g.GET("/quotes", h.Quotes)
	g.POST("/predict", h.Predict)
	g.POST("/signals/scan", h.Scan)
	g.POST("/dataset/build", h.BuildDataset)
	g.POST("/model/train", h.Train)
}

func (h *AnalysisEchoHandler) Analyze(c echo.Context) error {
	req := &models.AnalyzeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	tf := domrepo.NormalizeTimeframe(req.TF)

	res, err := h.analyzer.Analyze(c.Request().Context(), usecase.AnalyzeParams{
		Symbol:    req.Symbol,
		N:         req.N,
		Timeframe: tf,
	})
	if err != nil {
		return h.domainError(c, "analyze", err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=15")
	return xhttp.SuccessResponse(c, res)
}

func (h *AnalysisEchoHandler) Patterns(c echo.Context) error {
	req := &models.PatternsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	tf := domrepo.NormalizeTimeframe(req.TF)

	res, err := h.analyzer.Patterns(c.Request().Context(), usecase.AnalyzeParams{
		Symbol:    req.Symbol,
		N:         req.N,
		Timeframe: tf,
	})
	if err != nil {
		return h.domainError(c, "patterns", err)
	}
	if req.MinConf > 0 {
		kept := res[:0]
		for _, m := range res {
			if m.Confidence >= req.MinConf {
				kept = append(kept, m)
			}
		}
		res = kept
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *AnalysisEchoHandler) Predict(c echo.Context) error {
	req := &models.PredictRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	tf := domrepo.NormalizeTimeframe(req.TF)

	res, err := h.predict.Predict(c.Request().Context(), usecase.PredictParams{
		Symbol:    req.Symbol,
		N:         req.N,
		Timeframe: tf,
		Features:  req.Features,
	})
	if err != nil {
		return h.domainError(c, "predict", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *AnalysisEchoHandler) Scan(c echo.Context) error {
	req := &models.ScanRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	tf := domrepo.NormalizeTimeframe(req.TF)

	res, err := h.scanner.Scan(c.Request().Context(), usecase.ScanParams{
		Symbols:   req.Symbols,
		N:         req.N,
		Timeframe: tf,
	})
	if err != nil {
		return h.domainError(c, "scan", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *AnalysisEchoHandler) BuildDataset(c echo.Context) error {
	req := &models.DatasetBuildRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	tf := domrepo.NormalizeTimeframe(req.TF)
	exportPath := req.ExportPath
	if exportPath == "" && req.Format != "clickhouse" {
		exportPath = fmt.Sprintf("dataset_%s_%d.%s", tf, time.Now().Unix(), req.Format)
	}

	if req.Async && h.jobs != nil {
		payload := usecase.DatasetBuildPayload{
			Symbols:    req.Symbols,
			Timeframe:  string(tf),
			ExportPath: exportPath,
		}
		if err := h.jobs.PublishMessage(c.Request().Context(), usecase.MsgTypeDatasetBuild, payload); err != nil {
			h.logger.Error("dataset build enqueue error", xlogger.Error(err))
			return xhttp.AppErrorResponse(c, err)
		}
		return xhttp.DataResponse(c, http.StatusAccepted, map[string]interface{}{
			"queued":  true,
			"symbols": len(req.Symbols),
		})
	}

	res, err := h.builder.Build(c.Request().Context(), usecase.BuildDatasetParams{
		Symbols:    req.Symbols,
		Timeframe:  tf,
		ExportPath: exportPath,
	})
	if err != nil {
		return h.domainError(c, "dataset_build", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *AnalysisEchoHandler) Train(c echo.Context) error {
	req := &models.TrainRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	tf := domrepo.NormalizeTimeframe(req.TF)

	if req.Async && h.jobs != nil {
		payload := usecase.ModelTrainPayload{Timeframe: string(tf)}
		if err := h.jobs.PublishMessage(c.Request().Context(), usecase.MsgTypeModelTrain, payload); err != nil {
			h.logger.Error("train enqueue error", xlogger.Error(err))
			return xhttp.AppErrorResponse(c, err)
		}
		return xhttp.DataResponse(c, http.StatusAccepted, map[string]interface{}{"queued": true})
	}

	res, err := h.trainer.Train(c.Request().Context(), tf)
	if err != nil {
		return h.domainError(c, "train", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *AnalysisEchoHandler) Quotes(c echo.Context) error {
	if h.quotes == nil {
		return xhttp.NotFoundResponse(c, "quote storage disabled")
	}
	symbol := c.QueryParam("symbol")
	if symbol == "" {
		return xhttp.BadRequestResponse(c, "symbol required")
	}
	to := xhttp.ParseTimeDefault(c.QueryParam("to"), time.Now())
	from := xhttp.ParseTimeDefault(c.QueryParam("from"), to.Add(-24*time.Hour))

	res, err := h.quotes.GetQuotes(c.Request().Context(), usecase.GetQuotesParams{
		Symbol: symbol,
		From:   from,
		To:     to,
	})
	if err != nil {
		return h.domainError(c, "quotes", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *AnalysisEchoHandler) Healthz(c echo.Context) error {
	if h.health != nil {
		if err := h.health(c.Request().Context()); err != nil {
			return xhttp.DataResponse(c, http.StatusServiceUnavailable, map[string]string{
				"status": "degraded",
				"error":  err.Error(),
			})
		}
	}
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

// domainError maps the analysis error taxonomy onto HTTP statuses.
// Malformed inputs are 400, well-formed series the engine cannot judge
// are 422, everything else falls through as an app error.
func (h *AnalysisEchoHandler) domainError(c echo.Context, op string, err error) error {
	h.logger.Error(op+" usecase error", xlogger.Error(err))
	switch {
	case models.IsDataError(err):
		return xhttp.BadRequestResponse(c, err.Error())
	case errors.Is(err, models.ErrIndeterminate),
		models.IsFeatureIncomplete(err),
		errors.Is(err, models.ErrInsufficientData):
		return xhttp.DataResponse(c, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, confidence.ErrModelNotLoaded):
		return xhttp.DataResponse(c, http.StatusServiceUnavailable, err.Error())
	default:
		return xhttp.AppErrorResponse(c, err)
	}
}
