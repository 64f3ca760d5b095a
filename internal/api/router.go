// Package api exposes crisis scoring, forecasting and stress testing over HTTP.
package api

import (
	"net/http/pprof"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/EekshaHollaR/Global-Socio-Economic-Dashboard/internal/cache"
	"github.com/EekshaHollaR/Global-Socio-Economic-Dashboard/internal/config"
	"github.com/EekshaHollaR/Global-Socio-Economic-Dashboard/internal/database"
	apperrors "github.com/EekshaHollaR/Global-Socio-Economic-Dashboard/internal/errors"
	"github.com/EekshaHollaR/Global-Socio-Economic-Dashboard/internal/ingest"
	"github.com/EekshaHollaR/Global-Socio-Economic-Dashboard/internal/middleware"
	"github.com/EekshaHollaR/Global-Socio-Economic-Dashboard/internal/monitoring"
	"github.com/EekshaHollaR/Global-Socio-Economic-Dashboard/internal/ratelimit"
	"github.com/EekshaHollaR/Global-Socio-Economic-Dashboard/internal/resilience"
	"github.com/EekshaHollaR/Global-Socio-Economic-Dashboard/internal/security"
)

// Deps are the collaborators the API is built from. DB and Repository are
// nil when the result store is disabled; Limiter is nil when rate limiting
// is off.
type Deps struct {
	Config        *config.Config
	Dataset       *ingest.Dataset
	DB            *database.DB
	Repository    *database.Repository
	Metrics       *monitoring.Metrics
	Logger        *monitoring.Logger
	Tracer        *monitoring.Tracer
	ResponseCache *cache.Cache[[]byte]
	Limiter       *ratelimit.RateLimiter
	Compression   *middleware.CompressionMiddleware
	// StoreBreaker guards the repository; nil uses the default breaker.
	StoreBreaker  *resilience.CircuitBreaker
}

// Handler serves the API routes.
type Handler struct {
	cfg         *config.Config
	dataset     *ingest.Dataset
	db          *database.DB
	store       *resultStore
	metrics     *monitoring.Metrics
	logger      *monitoring.Logger
	tracer      *monitoring.Tracer
	responses   *cache.Cache[[]byte]
	limiter     *ratelimit.RateLimiter
	compression *middleware.CompressionMiddleware
	started     time.Time
}

// NewHandler wires a handler from deps.
func NewHandler(deps Deps) *Handler {
	h := &Handler{
		cfg:         deps.Config,
		dataset:     deps.Dataset,
		db:          deps.DB,
		metrics:     deps.Metrics,
		logger:      deps.Logger,
		tracer:      deps.Tracer,
		responses:   deps.ResponseCache,
		limiter:     deps.Limiter,
		compression: deps.Compression,
		started:     time.Now(),
	}
	if deps.Repository != nil {
		h.store = newResultStore(deps.Repository, deps.StoreBreaker)
	}
	return h
}

// NewRouter builds the gin engine with the full middleware chain.
func NewRouter(deps Deps) *gin.Engine {
	h := NewHandler(deps)
	cfg := deps.Config

	r := gin.New()

	// monitoring first so it sees every request, including rejected ones
	r.Use(monitoring.MonitoringMiddleware(deps.Metrics, deps.Logger))
	r.Use(monitoring.TracingMiddleware(deps.Tracer))
	r.Use(apperrors.ErrorHandler())
	r.Use(apperrors.RecoveryHandler())

	r.Use(cors.New(corsConfig(cfg.Server.AllowedOrigins)))

	sec := security.NewSecurityMiddleware(security.SecurityConfig{
		RequestTimeout:      cfg.Server.RequestTimeout,
		MaxBodyBytes:        cfg.Server.MaxBodyBytes,
		EnableHSTS:          cfg.Server.EnableHSTS,
		AllowedContentTypes: security.DefaultSecurityConfig().AllowedContentTypes,
	})
	r.Use(sec.Handlers()...)

	if deps.Compression != nil {
		r.Use(deps.Compression.Handler())
	}

	r.GET("/health", h.health)
	r.GET("/metrics", h.metricsSnapshot)

	if cfg.Server.EnableProfiling {
		mountProfiling(r)
	}

	apiGroup := r.Group("/api")
	if deps.Limiter != nil {
		apiGroup.Use(deps.Limiter.IPRateLimitMiddleware())
	}

	apiGroup.POST("/analyze/:domain", h.analyze)
	apiGroup.POST("/batch/:domain", h.batch)
	apiGroup.POST("/forecast", h.forecast)
	apiGroup.POST("/stress/:domain", h.stress)

	datasets := apiGroup.Group("/datasets")
	datasets.GET("", h.listDatasets)
	datasets.GET("/:name/entities", h.datasetEntities)
	datasets.GET("/:name/forecast", h.datasetForecast)
	datasets.GET("/:name/risk/:domain", cache.Middleware(deps.ResponseCache, deps.Metrics), h.datasetRisk)
	datasets.POST("/:name/invalidate", h.invalidateDataset)

	apiGroup.GET("/results/:entity", h.results)
	apiGroup.GET("/runs/:domain/latest", h.latestRun)

	return r
}

// mountProfiling exposes net/http/pprof under /debug/pprof.
func mountProfiling(r *gin.Engine) {
	g := r.Group("/debug/pprof")
	g.GET("/", gin.WrapF(pprof.Index))
	g.GET("/cmdline", gin.WrapF(pprof.Cmdline))
	g.GET("/profile", gin.WrapF(pprof.Profile))
	g.GET("/symbol", gin.WrapF(pprof.Symbol))
	g.GET("/trace", gin.WrapF(pprof.Trace))
	// named profiles: heap, goroutine, allocs, block, mutex, threadcreate
	g.GET("/:profile", gin.WrapF(pprof.Index))
}

// corsConfig allows the configured origins. An empty list or "*" allows any.
func corsConfig(origins []string) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", monitoring.RequestIDHeader},
		ExposeHeaders: []string{monitoring.RequestIDHeader, "X-Cache", "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		c.AllowAllOrigins = true
		return c
	}
	c.AllowOrigins = origins
	return c
}
