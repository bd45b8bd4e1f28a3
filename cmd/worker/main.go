package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/rollingbite/checkout/internal/application/checkout"
	"github.com/rollingbite/checkout/internal/bootstrap"
	infraRedis "github.com/rollingbite/checkout/internal/infrastructure/redis"
	"github.com/rollingbite/checkout/internal/repository/postgres"
	"github.com/rollingbite/checkout/pkg/retry"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := bootstrap.New(ctx, "checkout-worker", "checkout_worker")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	// --- Repositories ---
	bookingRepo := postgres.NewBookingRepository(app.Pool)
	escrowRepo := postgres.NewEscrowRepository(app.Pool)
	txRepo := postgres.NewTransactionRepository(app.Pool)
	eventRepo := postgres.NewGatewayEventRepository(app.Pool)
	idempotencyRepo := postgres.NewIdempotencyRepository(app.Pool)
	txManager := postgres.NewTxManager(app.Pool)
	streamProducer := infraRedis.NewStreamProducer(app.Redis)

	// --- Use cases ---
	reconcileUC := checkout.NewReconcileUseCase(
		txRepo, bookingRepo, escrowRepo, eventRepo, txManager, streamProducer)
	sweepUC := checkout.NewSweepUseCase(
		txRepo, bookingRepo, escrowRepo, txManager,
		app.Config.Checkout.PendingTTL, app.Config.Worker.SweepBatchSize)

	// --- Webhook stream consumer ---
	workerCfg := app.Config.Worker
	consumer := infraRedis.NewStreamConsumer(
		app.Redis,
		infraRedis.WebhookStream,
		workerCfg.ConsumerGroup,
		app.Config.InstanceID,
		workerCfg.BatchSize,
		workerCfg.BlockDuration,
	)
	if err := consumer.CreateGroup(ctx); err != nil {
		app.Logger.Error().Err(err).Msg("Failed to create consumer group (may already exist)")
	}

	app.Logger.Info().
		Str("stream", infraRedis.WebhookStream).
		Str("group", workerCfg.ConsumerGroup).
		Str("consumer", app.Config.InstanceID).
		Msg("Worker started, listening for messages...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	g, gCtx := errgroup.WithContext(ctx)

	// 1. Reconciler (reads verified gateway events from Redis Streams).
	g.Go(func() error {
		return runReconciler(gCtx, app, consumer, reconcileUC, eventRepo, streamProducer)
	})

	// 2. Pending-transaction sweep (single winner per interval via Redis lock).
	g.Go(func() error {
		return runSweep(gCtx, app, sweepUC, idempotencyRepo)
	})

	// 3. Wait for shutdown signal.
	g.Go(func() error {
		select {
		case <-gCtx.Done():
			return gCtx.Err()
		case <-quit:
			app.Logger.Info().Msg("Shutting down worker...")
			cancel()
			return nil
		}
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		app.Logger.Error().Err(err).Msg("Worker error")
	}
	app.Logger.Info().Msg("Worker exited")
}

func runReconciler(
	ctx context.Context,
	app *bootstrap.App,
	consumer *infraRedis.StreamConsumer,
	reconcileUC *checkout.ReconcileUseCase,
	eventRepo *postgres.GatewayEventRepository,
	producer *infraRedis.StreamProducer,
) error {
	retryCfg := retry.DefaultConfig()
	maxEventRetries := app.Config.Worker.MaxEventRetries

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		streams, err := consumer.Read(ctx)
		if err != nil {
			app.Logger.Error().Err(err).Msg("Failed to read from stream")
			time.Sleep(1 * time.Second)
			continue
		}

		for _, stream := range streams {
			for _, msg := range stream.Messages {
				gatewayEventID, _ := msg.Values["gateway_event_id"].(string)
				if gatewayEventID == "" {
					app.Logger.Error().Str("msg_id", msg.ID).Msg("Stream message without gateway event id")
					consumer.Ack(ctx, msg.ID)
					continue
				}

				processOne(ctx, app.Logger, app, reconcileUC, eventRepo, producer, retryCfg, maxEventRetries, gatewayEventID)
				consumer.Ack(ctx, msg.ID)
			}
		}
	}
}

func processOne(
	ctx context.Context,
	logger zerolog.Logger,
	app *bootstrap.App,
	reconcileUC *checkout.ReconcileUseCase,
	eventRepo *postgres.GatewayEventRepository,
	producer *infraRedis.StreamProducer,
	retryCfg retry.Config,
	maxEventRetries int,
	gatewayEventID string,
) {
	start := time.Now()

	ev, err := eventRepo.GetByGatewayEventID(ctx, gatewayEventID)
	if err != nil || ev == nil {
		logger.Error().Err(err).Str("event_id", gatewayEventID).Msg("Inbox row missing for stream message")
		return
	}
	if ev.ProcessedAt != nil {
		return
	}

	err = retry.Do(ctx, retryCfg, func() error {
		return reconcileUC.Execute(ctx, ev)
	})

	duration := time.Since(start).Seconds()
	app.Metrics.WorkerProcessingDuration.WithLabelValues(infraRedis.WebhookStream).Observe(duration)

	if err == nil {
		app.Metrics.WorkerMessagesProcessed.WithLabelValues(infraRedis.WebhookStream, "success").Inc()
		app.Metrics.ReconciliationsTotal.WithLabelValues("reconciled").Inc()
		return
	}

	logger.Error().Err(err).Str("event_id", gatewayEventID).Msg("Failed to reconcile gateway event")
	app.Metrics.WorkerMessagesProcessed.WithLabelValues(infraRedis.WebhookStream, "error").Inc()
	app.Metrics.ReconciliationsTotal.WithLabelValues("failed").Inc()

	// One delivery counts once against the poison budget, no matter how
	// many retry attempts it took.
	failures, ferr := reconcileUC.RecordFailure(ctx, ev)
	if ferr != nil {
		logger.Error().Err(ferr).Str("event_id", gatewayEventID).Msg("Failed to record reconcile failure")
	}
	if failures >= maxEventRetries {
		if dlqErr := producer.PublishToDLQ(ctx, gatewayEventID, err.Error()); dlqErr != nil {
			logger.Error().Err(dlqErr).Str("event_id", gatewayEventID).Msg("Failed to publish to DLQ")
		} else {
			logger.Warn().Str("event_id", gatewayEventID).Msg("Gateway event moved to DLQ")
		}
	}
}

func runSweep(ctx context.Context, app *bootstrap.App, sweepUC *checkout.SweepUseCase, idempotencyRepo *postgres.IdempotencyRepository) error {
	ticker := time.NewTicker(app.Config.Worker.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		// One winner per interval across all worker instances.
		lock := infraRedis.NewDistributedLock(app.Redis, "checkout:sweep", app.Config.Worker.SweepLockTTL)
		acquired, err := lock.Acquire(ctx)
		if err != nil {
			app.Logger.Error().Err(err).Msg("Sweep lock error")
			continue
		}
		if !acquired {
			continue
		}

		expired, err := sweepUC.Execute(ctx)
		if err != nil {
			app.Logger.Error().Err(err).Msg("Sweep pass failed")
		} else if expired > 0 {
			app.Metrics.SweepExpiredTotal.Add(float64(expired))
			app.Logger.Info().Int("expired", expired).Msg("Expired pending transactions")
		}

		if removed, err := idempotencyRepo.Cleanup(ctx); err != nil {
			app.Logger.Error().Err(err).Msg("Idempotency key cleanup failed")
		} else if removed > 0 {
			app.Logger.Debug().Int64("removed", removed).Msg("Purged expired idempotency keys")
		}

		lock.Release(ctx)
	}
}
