package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// HealthController reports service health. Readiness requires postgres and
// redis; the payment gateway breaker is reported but never fails readiness,
// since webhooks and the sweep keep working through a gateway outage.
type HealthController struct {
	pool         *pgxpool.Pool
	redis        *redis.Client
	gatewayState func() string
}

func NewHealthController(pool *pgxpool.Pool, redis *redis.Client, gatewayState func() string) *HealthController {
	return &HealthController{pool: pool, redis: redis, gatewayState: gatewayState}
}

func (h *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "checkout"})
}

func (h *HealthController) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

func (h *HealthController) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{
		"postgres": "ok",
		"redis":    "ok",
	}
	ready := true

	if err := h.pool.Ping(ctx); err != nil {
		checks["postgres"] = "unavailable"
		ready = false
	}
	if err := h.redis.Ping(ctx).Err(); err != nil {
		checks["redis"] = "unavailable"
		ready = false
	}
	if h.gatewayState != nil {
		checks["payment_gateway_breaker"] = h.gatewayState()
	}

	status := http.StatusOK
	body := map[string]any{"status": "ready", "checks": checks}
	if !ready {
		status = http.StatusServiceUnavailable
		body["status"] = "not ready"
	}
	writeJSON(w, status, body)
}
