package gateway

import (
	"context"
	"time"

	"github.com/rollingbite/checkout/internal/infrastructure/observability"
)

// InstrumentedGateway decorates a Gateway with call counters and latency
// histograms.
type InstrumentedGateway struct {
	inner   Gateway
	metrics *observability.Metrics
}

// WithMetrics wraps g with metric instrumentation.
func WithMetrics(g Gateway, m *observability.Metrics) *InstrumentedGateway {
	return &InstrumentedGateway{inner: g, metrics: m}
}

func (i *InstrumentedGateway) Name() string { return i.inner.Name() }

func (i *InstrumentedGateway) CreateCheckoutSession(ctx context.Context, req SessionRequest) (*Session, error) {
	start := time.Now()
	sess, err := i.inner.CreateCheckoutSession(ctx, req)
	i.record("create_session", start, err)
	return sess, err
}

func (i *InstrumentedGateway) CapturePaymentIntent(ctx context.Context, paymentIntentID string) error {
	start := time.Now()
	err := i.inner.CapturePaymentIntent(ctx, paymentIntentID)
	i.record("capture_intent", start, err)
	return err
}

func (i *InstrumentedGateway) CancelPaymentIntent(ctx context.Context, paymentIntentID string) error {
	start := time.Now()
	err := i.inner.CancelPaymentIntent(ctx, paymentIntentID)
	i.record("cancel_intent", start, err)
	return err
}

func (i *InstrumentedGateway) RefundPaymentIntent(ctx context.Context, paymentIntentID string) error {
	start := time.Now()
	err := i.inner.RefundPaymentIntent(ctx, paymentIntentID)
	i.record("refund_intent", start, err)
	return err
}

func (i *InstrumentedGateway) record(operation string, start time.Time, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	i.metrics.GatewayCallsTotal.WithLabelValues(operation, result).Inc()
	i.metrics.GatewayCallDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}
