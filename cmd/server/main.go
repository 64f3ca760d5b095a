package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/EekshaHollaR/Global-Socio-Economic-Dashboard/internal/api"
	"github.com/EekshaHollaR/Global-Socio-Economic-Dashboard/internal/cache"
	"github.com/EekshaHollaR/Global-Socio-Economic-Dashboard/internal/config"
	"github.com/EekshaHollaR/Global-Socio-Economic-Dashboard/internal/database"
	apperrors "github.com/EekshaHollaR/Global-Socio-Economic-Dashboard/internal/errors"
	"github.com/EekshaHollaR/Global-Socio-Economic-Dashboard/internal/ingest"
	"github.com/EekshaHollaR/Global-Socio-Economic-Dashboard/internal/middleware"
	"github.com/EekshaHollaR/Global-Socio-Economic-Dashboard/internal/monitoring"
	"github.com/EekshaHollaR/Global-Socio-Economic-Dashboard/internal/ratelimit"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := monitoring.Setup(cfg.Logging.Level)
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		slog.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
	slog.Info("Server exited")
}

// buildDeps constructs every collaborator of the router. The returned close
// function releases the result store.
func buildDeps(ctx context.Context, cfg *config.Config, logger *monitoring.Logger) (api.Deps, func(), error) {
	metrics := monitoring.NewMetrics()

	deps := api.Deps{
		Config:        cfg,
		Dataset:       ingest.NewDataset(cfg.Data.Dir, cfg.Data.CacheTTL),
		Metrics:       metrics,
		Logger:        logger,
		Tracer:        monitoring.NewTracer(api.ServiceName, logger),
		ResponseCache: cache.New[[]byte](cfg.Data.ResponseCacheTTL),
		Compression:   middleware.NewCompressionMiddleware(middleware.DefaultCompressionConfig()),
	}

	if cfg.RateLimit.Enabled {
		deps.Limiter = ratelimit.NewRateLimiter(ratelimit.Config{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
			IdleTTL:           cfg.RateLimit.IdleTTL,
		}, metrics)
	}

	closeFn := func() {}
	if cfg.DB.Enabled {
		pool := database.DefaultPoolConfig()
		pool.MaxOpenConns = cfg.DB.MaxOpenConns
		pool.MaxIdleConns = cfg.DB.MaxIdleConns

		db, err := database.NewDB(ctx, cfg.DB.Dir, pool)
		if err != nil {
			return api.Deps{}, nil, apperrors.WrapError(err, "failed to open result store")
		}
		deps.DB = db
		deps.Repository = database.NewRepository(db)
		closeFn = func() { apperrors.SafeClose(db, "result store") }
	} else {
		logger.SystemLogger("result_store", "disabled, batch results will not be persisted")
	}

	return deps, closeFn, nil
}

// run serves until ctx is cancelled, then drains in-flight requests within
// the shutdown timeout.
func run(ctx context.Context, cfg *config.Config, logger *monitoring.Logger) error {
	deps, closeDeps, err := buildDeps(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeDeps()

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           api.NewRouter(deps),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	// janitors stop with the server
	g.Go(func() error {
		deps.ResponseCache.Run(gctx, cfg.Data.JanitorInterval)
		return nil
	})
	g.Go(func() error {
		deps.Dataset.Cache().Run(gctx, cfg.Data.JanitorInterval)
		return nil
	})
	if deps.Limiter != nil {
		g.Go(func() error {
			deps.Limiter.Run(gctx, cfg.Data.JanitorInterval)
			return nil
		})
	}

	g.Go(func() error {
		slog.Info("Starting server",
			"addr", srv.Addr,
			"data_dir", cfg.Data.Dir,
			"result_store", cfg.DB.Enabled,
			"rate_limit", cfg.RateLimit.Enabled,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return apperrors.WrapError(err, "server failed")
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return apperrors.WrapError(err, "server forced to shutdown")
		}
		logger.SystemLogger("shutdown", "served for "+time.Since(deps.Metrics.StartTime).Round(time.Second).String())
		return nil
	})

	return g.Wait()
}
