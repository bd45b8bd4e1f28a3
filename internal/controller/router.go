package controller

import (
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/rollingbite/checkout/internal/application/checkout"
	"github.com/rollingbite/checkout/internal/domain/event"
	"github.com/rollingbite/checkout/internal/domain/transaction"
	"github.com/rollingbite/checkout/internal/infrastructure/config"
	"github.com/rollingbite/checkout/internal/infrastructure/observability"
	customMW "github.com/rollingbite/checkout/internal/middleware"
	redisinfra "github.com/rollingbite/checkout/internal/infrastructure/redis"
	"github.com/rollingbite/checkout/internal/repository/postgres"
)

type RouterDeps struct {
	Pool            *pgxpool.Pool
	RedisClient     *redis.Client
	RentalUC        *checkout.CreateRentalCheckoutUseCase
	SaleUC          *checkout.CreateSaleCheckoutUseCase
	EscrowUC        *checkout.EscrowReleaseUseCase
	TransactionRepo transaction.Repository
	EventRepo       event.Repository
	Producer        *redisinfra.StreamProducer
	IdempotencyRepo *postgres.IdempotencyRepository
	Metrics         *observability.Metrics
	Config          *config.Config
	GatewayState    func() string
}

func NewRouter(deps RouterDeps) *chi.Mux {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(customMW.Tracing())
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(60 * time.Second))
	r.Use(customMW.SecurityHeaders())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.Server.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: deps.Config.Server.CORS.AllowCredentials,
		MaxAge:           300,
	}))
	r.Use(customMW.Metrics(deps.Metrics))
	r.Use(customMW.RateLimit(deps.Config.Server.RateLimitPerMin))

	healthH := NewHealthController(deps.Pool, deps.RedisClient, deps.GatewayState)
	checkoutH := NewCheckoutController(deps.RentalUC, deps.SaleUC, deps.Metrics)
	transactionH := NewTransactionController(deps.TransactionRepo)
	escrowH := NewEscrowController(deps.EscrowUC)
	webhookH := NewWebhookController(deps.EventRepo, deps.Producer, deps.Config.Stripe.WebhookSecret, deps.Metrics)

	r.Get("/health", healthH.Health)
	r.Get("/health/live", healthH.Liveness)
	r.Get("/health/ready", healthH.Readiness)

	r.Handle("/metrics", promhttp.Handler())

	// Webhooks are authenticated by signature, not by JWT.
	r.Post("/webhooks/stripe", webhookH.HandleStripe)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(customMW.RequireAuth(deps.Config.Auth.JWTSecret))

		idempotencyMW := customMW.Idempotency(deps.IdempotencyRepo)

		// Checkout
		r.With(idempotencyMW).Post("/checkout/rental", checkoutH.Rental)
		r.With(idempotencyMW).Post("/checkout/sale", checkoutH.Sale)

		// Ledger
		r.Get("/transactions", transactionH.List)
		r.Get("/transactions/{id}", transactionH.Get)

		// Escrow lifecycle
		r.Post("/escrows/{id}/release", escrowH.Release)
		r.Post("/escrows/{id}/refund", escrowH.Refund)
	})

	return r
}
