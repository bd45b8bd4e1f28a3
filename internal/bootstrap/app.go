package bootstrap

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"

	"github.com/rollingbite/checkout/internal/infrastructure/config"
	"github.com/rollingbite/checkout/internal/infrastructure/observability"
	infraRedis "github.com/rollingbite/checkout/internal/infrastructure/redis"
	"github.com/rollingbite/checkout/internal/repository/postgres"
)

// App bundles the shared infrastructure the api and worker binaries both
// stand on: config, logging, tracing, postgres, redis and metrics.
type App struct {
	Config  *config.Config
	Logger  zerolog.Logger
	Pool    *pgxpool.Pool
	Redis   *redis.Client
	Metrics *observability.Metrics

	tracer *tracesdk.TracerProvider
}

func New(ctx context.Context, serviceName string, metricsNamespace string) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := observability.InitLogger(
		cfg.Observability.LogLevel, cfg.Observability.LogFormat, serviceName, os.Stdout)
	logger.Info().Msg("Starting")

	app := &App{Config: cfg, Logger: logger}

	if cfg.Observability.EnableTracing {
		tp, err := observability.InitTracer(serviceName, cfg.Observability.JaegerEndpoint)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to initialize tracer, continuing without tracing")
		} else {
			app.tracer = tp
			logger.Info().Msg("Tracing enabled")
		}
	}

	app.Metrics = observability.NewMetrics(metricsNamespace, nil)

	app.Pool, err = postgres.NewPool(ctx, &cfg.Database)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	logger.Info().Msg("Connected to PostgreSQL")

	app.Redis, err = infraRedis.NewClient(ctx, &cfg.Redis)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info().Msg("Connected to Redis")

	return app, nil
}

// Close releases infrastructure in reverse acquisition order. Safe to call
// on a partially constructed App.
func (a *App) Close() {
	if a.Redis != nil {
		a.Redis.Close()
	}
	if a.Pool != nil {
		a.Pool.Close()
	}
	if a.tracer != nil {
		observability.Shutdown(context.Background(), a.tracer)
	}
}
