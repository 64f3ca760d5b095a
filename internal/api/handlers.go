package api

import (
	"context"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/EekshaHollaR/Global-Socio-Economic-Dashboard/internal/analysis"
	"github.com/EekshaHollaR/Global-Socio-Economic-Dashboard/internal/cache"
	"github.com/EekshaHollaR/Global-Socio-Economic-Dashboard/internal/database"
	apperrors "github.com/EekshaHollaR/Global-Socio-Economic-Dashboard/internal/errors"
	"github.com/EekshaHollaR/Global-Socio-Economic-Dashboard/internal/forecast"
	"github.com/EekshaHollaR/Global-Socio-Economic-Dashboard/internal/indicators"
	"github.com/EekshaHollaR/Global-Socio-Economic-Dashboard/internal/ingest"
)

// ServiceName identifies the API in health checks and traces.
const ServiceName = "crisis-risk-api"

type batchResponse struct {
	Domain  analysis.Domain         `json:"domain"`
	RunID   string                  `json:"run_id,omitempty"`
	Results []analysis.CrisisResult `json:"results"`
	Summary analysis.Summary        `json:"summary"`
}

type forecastResponse struct {
	Entity              string                   `json:"entity,omitempty"`
	Indicator           string                   `json:"indicator,omitempty"`
	Horizon             int                      `json:"horizon"`
	Points              []forecast.ForecastPoint `json:"points"`
	Trend               *forecast.Trend          `json:"trend,omitempty"`
	GrowthRate          float64                  `json:"growth_rate"`
	InsufficientHistory bool                     `json:"insufficient_history"`
}

type stressResponse struct {
	Domain  analysis.Domain         `json:"domain"`
	Field   indicators.Field        `json:"field"`
	Results []analysis.StressResult `json:"results"`
}

// fail logs err and writes its JSON body. Server-side failures are also
// attached to the context for the monitoring middleware.
func fail(c *gin.Context, err error) {
	appErr := apperrors.ToAppError(err)
	if appErr.HTTPStatus >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	apperrors.LogError(c, appErr)
	c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.Response())
}

func domainParam(c *gin.Context) (analysis.Domain, error) {
	d, err := analysis.ParseDomain(c.Param("domain"))
	if err != nil {
		return "", apperrors.NewValidationErrorWithMap("unknown crisis domain",
			map[string]string{"domain": err.Error()})
	}
	return d, nil
}

// batchOptions reads min_score and sort from the query string.
func (h *Handler) batchOptions(c *gin.Context) (analysis.BatchOptions, error) {
	opts := analysis.BatchOptions{Workers: h.cfg.Batch.Workers}

	if raw := c.Query("min_score"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return opts, apperrors.NewValidationErrorWithMap("invalid query",
				map[string]string{"min_score": "must be a number"})
		}
		opts.MinScore = &v
	}

	switch c.Query("sort") {
	case "":
	case "score":
		opts.SortByScore = true
	default:
		return opts, apperrors.NewValidationErrorWithMap("invalid query",
			map[string]string{"sort": "only \"score\" is supported"})
	}
	return opts, nil
}

func (h *Handler) health(c *gin.Context) {
	status := http.StatusOK
	body := gin.H{
		"status":    "healthy",
		"service":   ServiceName,
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(h.started).Round(time.Second).String(),
		"domains":   []analysis.Domain{analysis.DomainEconomic, analysis.DomainFood},
	}

	switch {
	case h.db == nil:
		body["database"] = "disabled"
	default:
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			body["database"] = "unreachable"
			body["status"] = "degraded"
			status = http.StatusServiceUnavailable
		} else {
			body["database"] = "ok"
		}
	}

	c.JSON(status, body)
}

func (h *Handler) analyze(c *gin.Context) {
	domain, err := domainParam(c)
	if err != nil {
		fail(c, err)
		return
	}

	var body map[string]any
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, apperrors.NewValidationError("invalid JSON body", err))
		return
	}

	rec, err := ingest.DecodeRecord(body)
	if err == nil {
		err = rec.Validate()
	}
	if err != nil {
		fail(c, err)
		return
	}

	span, _ := h.tracer.StartSpan(c.Request.Context(), "score."+string(domain))
	start := time.Now()
	result := analysis.Score(rec, domain)
	span.SetTag("entity", rec.Entity)
	h.tracer.EndSpan(span, nil)

	neutral := 0
	if result.Neutral {
		neutral = 1
	}
	h.metrics.RecordScored(string(domain), 1, neutral)
	h.logger.ScoringLogger(string(domain), result.Entity, result.Score,
		string(result.Classification), result.Evaluated, time.Since(start))

	c.JSON(http.StatusOK, result)
}

func (h *Handler) batch(c *gin.Context) {
	domain, err := domainParam(c)
	if err != nil {
		fail(c, err)
		return
	}
	opts, err := h.batchOptions(c)
	if err != nil {
		fail(c, err)
		return
	}
	persist, err := strconv.ParseBool(c.DefaultQuery("persist", "false"))
	if err != nil {
		fail(c, apperrors.NewValidationErrorWithMap("invalid query",
			map[string]string{"persist": "must be a boolean"}))
		return
	}

	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperrors.NewValidationError("invalid JSON body", err))
		return
	}
	if err := validateRequest(&req); err != nil {
		fail(c, err)
		return
	}

	records, err := ingest.DecodeRecords(req.Records)
	if err == nil {
		err = indicators.ValidateAll(records)
	}
	if err != nil {
		fail(c, err)
		return
	}

	resp, err := h.runBatch(c.Request.Context(), domain, records, opts, persist)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// runBatch scores records and optionally stores the results under a new run ID.
func (h *Handler) runBatch(ctx context.Context, domain analysis.Domain, records []indicators.Record, opts analysis.BatchOptions, persist bool) (*batchResponse, error) {
	if persist && h.store == nil {
		return nil, apperrors.NewUnavailableError("result store is disabled")
	}

	span, ctx := h.tracer.StartSpan(ctx, "batch."+string(domain))
	start := time.Now()

	results, err := analysis.RunBatch(ctx, records, domain, opts)
	if err != nil {
		h.tracer.EndSpan(span, err)
		return nil, err
	}

	neutral := 0
	for _, r := range results {
		if r.Neutral {
			neutral++
		}
	}
	h.metrics.RecordScored(string(domain), len(results), neutral)

	resp := &batchResponse{
		Domain:  domain,
		Results: results,
		Summary: analysis.Summarize(results),
	}

	persisted := 0
	if persist {
		runID := database.NewRunID()
		err := h.store.do(ctx, func(ctx context.Context) error {
			_, err := h.store.repo.SaveRun(ctx, runID, results)
			return err
		})
		if err != nil {
			h.tracer.EndSpan(span, err)
			if apperrors.IsCategory(err, apperrors.CategoryUnavailable) {
				return nil, err
			}
			return nil, apperrors.NewInternalError("failed to store batch results", err)
		}
		resp.RunID = runID
		persisted = len(results)
		span.SetTag("run_id", runID)
	}
	h.metrics.RecordBatch(persisted)

	span.SetTag("results", strconv.Itoa(len(results)))
	h.tracer.EndSpan(span, nil)
	h.logger.BatchLogger(string(domain), resp.RunID, len(records), len(results), time.Since(start), persist)
	return resp, nil
}

// buildForecast sorts history by period and extrapolates horizon points.
// A repeated period keeps its first value, as dataset history does.
func buildForecast(history []forecast.Point, horizon int) forecastResponse {
	seen := make(map[int]bool, len(history))
	sorted := make([]forecast.Point, 0, len(history))
	for _, p := range history {
		if seen[p.Period] {
			continue
		}
		seen[p.Period] = true
		sorted = append(sorted, p)
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Period < sorted[j].Period })

	resp := forecastResponse{Horizon: horizon}
	points, err := forecast.ForecastChecked(sorted, horizon)
	if err != nil {
		resp.Points = []forecast.ForecastPoint{}
		resp.InsufficientHistory = true
		return resp
	}

	trend := forecast.Fit(sorted)
	resp.Points = points
	resp.Trend = &trend
	resp.GrowthRate = forecast.CompoundGrowthRate(sorted)
	return resp
}

func (h *Handler) forecast(c *gin.Context) {
	var req forecastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperrors.NewValidationError("invalid JSON body", err))
		return
	}
	if err := validateRequest(&req); err != nil {
		fail(c, err)
		return
	}
	if req.Horizon == 0 {
		req.Horizon = DefaultHorizon
	}

	resp := buildForecast(req.History, req.Horizon)
	resp.Entity = req.Entity
	resp.Indicator = req.Indicator

	h.metrics.RecordForecast(resp.InsufficientHistory)
	h.logger.ForecastLogger(req.Entity, req.Indicator, len(req.History), req.Horizon, resp.InsufficientHistory)
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) listDatasets(c *gin.Context) {
	names, err := h.dataset.Names()
	if err != nil {
		fail(c, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"datasets": names})
}

func (h *Handler) datasetEntities(c *gin.Context) {
	name := c.Param("name")
	entities, err := h.dataset.Entities(name)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"dataset": name, "entities": entities})
}

func (h *Handler) datasetForecast(c *gin.Context) {
	var q datasetForecastQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		fail(c, apperrors.NewValidationError("invalid query", err))
		return
	}
	if err := validateRequest(&q); err != nil {
		fail(c, err)
		return
	}
	field, ok := indicators.ParseField(q.Indicator)
	if !ok {
		fail(c, apperrors.NewValidationErrorWithMap("invalid query",
			map[string]string{"indicator": "unknown indicator " + strconv.Quote(q.Indicator)}))
		return
	}
	if q.Horizon == 0 {
		q.Horizon = DefaultHorizon
	}

	history, err := h.dataset.History(c.Param("name"), q.Entity, field)
	if err != nil {
		fail(c, err)
		return
	}

	resp := buildForecast(history, q.Horizon)
	resp.Entity = q.Entity
	resp.Indicator = string(field)

	h.metrics.RecordForecast(resp.InsufficientHistory)
	h.logger.ForecastLogger(q.Entity, string(field), len(history), q.Horizon, resp.InsufficientHistory)
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) datasetRisk(c *gin.Context) {
	domain, err := domainParam(c)
	if err != nil {
		fail(c, err)
		return
	}
	opts, err := h.batchOptions(c)
	if err != nil {
		fail(c, err)
		return
	}

	records, err := h.dataset.Records(c.Param("name"))
	if err != nil {
		fail(c, err)
		return
	}

	resp, err := h.runBatch(c.Request.Context(), domain, records, opts, false)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) invalidateDataset(c *gin.Context) {
	name := c.Param("name")
	dropped := h.dataset.Invalidate(name)
	responses := h.responses.Invalidate(cache.ResponseKey("/api/datasets/" + name + "/"))
	h.logger.CacheLogger("invalidate", name, dropped, h.responses.Size())

	c.JSON(http.StatusOK, gin.H{
		"dataset":             name,
		"dataset_invalidated": dropped,
		"responses_dropped":   responses,
	})
}

func (h *Handler) stress(c *gin.Context) {
	domain, err := domainParam(c)
	if err != nil {
		fail(c, err)
		return
	}

	var req stressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperrors.NewValidationError("invalid JSON body", err))
		return
	}
	if err := validateRequest(&req); err != nil {
		fail(c, err)
		return
	}
	field, ok := indicators.ParseField(req.Field)
	if !ok {
		fail(c, apperrors.NewValidationErrorWithMap("invalid request",
			map[string]string{"field": "unknown indicator " + strconv.Quote(req.Field)}))
		return
	}

	records, err := ingest.DecodeRecords(req.Records)
	if err == nil {
		err = indicators.ValidateAll(records)
	}
	if err != nil {
		fail(c, err)
		return
	}

	span, _ := h.tracer.StartSpan(c.Request.Context(), "stress."+string(domain))
	results := analysis.Sensitivity(records, domain, field, req.Factors)
	h.tracer.EndSpan(span, nil)
	h.metrics.RecordStress()

	c.JSON(http.StatusOK, stressResponse{Domain: domain, Field: field, Results: results})
}

func (h *Handler) results(c *gin.Context) {
	if h.store == nil {
		fail(c, apperrors.NewUnavailableError("result store is disabled"))
		return
	}

	var q resultsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		fail(c, apperrors.NewValidationError("invalid query", err))
		return
	}
	if err := validateRequest(&q); err != nil {
		fail(c, err)
		return
	}

	entity := c.Param("entity")
	var stored []database.StoredResult
	err := h.store.do(c.Request.Context(), func(ctx context.Context) error {
		var err error
		stored, err = h.store.repo.ListByEntity(ctx, entity, analysis.Domain(q.Domain), q.Limit)
		return err
	})
	if err != nil {
		if !apperrors.IsCategory(err, apperrors.CategoryUnavailable) {
			err = apperrors.NewInternalError("failed to list results", err)
		}
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entity": entity, "results": stored})
}

func (h *Handler) latestRun(c *gin.Context) {
	if h.store == nil {
		fail(c, apperrors.NewUnavailableError("result store is disabled"))
		return
	}
	domain, err := domainParam(c)
	if err != nil {
		fail(c, err)
		return
	}

	var run *database.Run
	err = h.store.do(c.Request.Context(), func(ctx context.Context) error {
		var err error
		run, err = h.store.repo.LatestRun(ctx, domain)
		return err
	})
	if err != nil {
		if !apperrors.IsCategory(err, apperrors.CategoryNotFound) && !apperrors.IsCategory(err, apperrors.CategoryUnavailable) {
			err = apperrors.NewInternalError("failed to load latest run", err)
		}
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, run)
}

func (h *Handler) metricsSnapshot(c *gin.Context) {
	body := gin.H{
		"service":        ServiceName,
		"requests":       h.metrics.GetStats(),
		"scoring":        h.metrics.GetScoringStats(),
		"response_cache": h.responses.Stats(),
		"dataset_cache":  h.dataset.Cache().Stats(),
		"active_spans":   h.tracer.ActiveSpans(),
	}
	if h.limiter != nil {
		body["rate_limit"] = h.limiter.GetStats()
	}
	if h.compression != nil {
		body["compression"] = h.compression.GetStats()
	}
	if h.db != nil {
		body["database"] = h.db.GetPoolStats()
	}
	if h.store != nil {
		body["result_store"] = h.store.breaker.GetStats()
	}
	c.JSON(http.StatusOK, body)
}
