package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rollingbite/checkout/internal/application/checkout"
	"github.com/rollingbite/checkout/internal/bootstrap"
	"github.com/rollingbite/checkout/internal/controller"
	"github.com/rollingbite/checkout/internal/domain/fees"
	"github.com/rollingbite/checkout/internal/gateway"
	infraRedis "github.com/rollingbite/checkout/internal/infrastructure/redis"
	"github.com/rollingbite/checkout/internal/repository/postgres"
)

func main() {
	ctx := context.Background()

	app, err := bootstrap.New(ctx, "checkout-api", "checkout")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap: %v\n", err)
		os.Exit(1)
	}
	defer app.Close()

	// --- Repositories ---
	listingRepo := postgres.NewListingRepository(app.Pool)
	payoutRepo := postgres.NewPayoutAccountRepository(app.Pool)
	bookingRepo := postgres.NewBookingRepository(app.Pool)
	escrowRepo := postgres.NewEscrowRepository(app.Pool)
	txRepo := postgres.NewTransactionRepository(app.Pool)
	eventRepo := postgres.NewGatewayEventRepository(app.Pool)
	idempotencyRepo := postgres.NewIdempotencyRepository(app.Pool)
	txManager := postgres.NewTxManager(app.Pool)

	// --- Payment gateway ---
	breaker := gateway.WithBreaker(gateway.NewStripeGateway(app.Config.Stripe.SecretKey))
	gw := gateway.WithMetrics(breaker, app.Metrics)

	// --- Use cases ---
	checkoutCfg := checkout.Config{
		Rates: fees.Rates{
			RentalCommissionBps: app.Config.Checkout.RentalCommissionBps,
			SaleCommissionBps:   app.Config.Checkout.SaleCommissionBps,
		},
		AppBaseURL: app.Config.Stripe.AppBaseURL,
	}
	rentalUC := checkout.NewCreateRentalCheckoutUseCase(
		listingRepo, payoutRepo, bookingRepo, txRepo, txManager, gw, checkoutCfg)
	saleUC := checkout.NewCreateSaleCheckoutUseCase(
		listingRepo, payoutRepo, escrowRepo, txRepo, txManager, gw, checkoutCfg)
	escrowUC := checkout.NewEscrowReleaseUseCase(escrowRepo, txRepo, txManager, gw)

	streamProducer := infraRedis.NewStreamProducer(app.Redis)

	// --- Build router ---
	router := controller.NewRouter(controller.RouterDeps{
		Pool:            app.Pool,
		RedisClient:     app.Redis,
		RentalUC:        rentalUC,
		SaleUC:          saleUC,
		EscrowUC:        escrowUC,
		TransactionRepo: txRepo,
		EventRepo:       eventRepo,
		Producer:        streamProducer,
		IdempotencyRepo: idempotencyRepo,
		Metrics:         app.Metrics,
		Config:          app.Config,
		GatewayState:    func() string { return breaker.State().String() },
	})

	// --- HTTP server ---
	addr := fmt.Sprintf(":%d", app.Config.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  app.Config.Server.ReadTimeout,
		WriteTimeout: app.Config.Server.WriteTimeout,
	}

	go func() {
		app.Logger.Info().Str("addr", addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.Logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	app.Logger.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), app.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		app.Logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	app.Logger.Info().Msg("Server exited")
}
