package gateway

import (
	"context"
	"errors"
	"time"

	domainErrors "github.com/rollingbite/checkout/internal/domain/errors"
	"github.com/sony/gobreaker/v2"
)

// BreakerGateway decorates a Gateway with a circuit breaker. Card-level and
// request-level rejections are the caller's problem and do not trip the
// breaker; only availability failures count.
type BreakerGateway struct {
	inner   Gateway
	session *gobreaker.CircuitBreaker[*Session]
	op      *gobreaker.CircuitBreaker[struct{}]
}

// WithBreaker wraps g with circuit breakers for session creation and
// intent-level operations.
func WithBreaker(g Gateway) *BreakerGateway {
	settings := gobreaker.Settings{
		Name:        g.Name(),
		MaxRequests: 10,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 10 && failureRatio >= 0.6
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			// Rejections are healthy gateway behavior.
			return errors.Is(err, domainErrors.ErrCardDeclined) || errors.Is(err, domainErrors.ErrGatewayRejected)
		},
	}

	return &BreakerGateway{
		inner:   g,
		session: gobreaker.NewCircuitBreaker[*Session](settings),
		op:      gobreaker.NewCircuitBreaker[struct{}](settings),
	}
}

func (b *BreakerGateway) Name() string { return b.inner.Name() }

// State reports the session breaker's current state, for health reporting.
func (b *BreakerGateway) State() gobreaker.State { return b.session.State() }

func (b *BreakerGateway) CreateCheckoutSession(ctx context.Context, req SessionRequest) (*Session, error) {
	sess, err := b.session.Execute(func() (*Session, error) {
		return b.inner.CreateCheckoutSession(ctx, req)
	})
	return sess, mapBreakerError(err)
}

func (b *BreakerGateway) CapturePaymentIntent(ctx context.Context, paymentIntentID string) error {
	_, err := b.op.Execute(func() (struct{}, error) {
		return struct{}{}, b.inner.CapturePaymentIntent(ctx, paymentIntentID)
	})
	return mapBreakerError(err)
}

func (b *BreakerGateway) CancelPaymentIntent(ctx context.Context, paymentIntentID string) error {
	_, err := b.op.Execute(func() (struct{}, error) {
		return struct{}{}, b.inner.CancelPaymentIntent(ctx, paymentIntentID)
	})
	return mapBreakerError(err)
}

func (b *BreakerGateway) RefundPaymentIntent(ctx context.Context, paymentIntentID string) error {
	_, err := b.op.Execute(func() (struct{}, error) {
		return struct{}{}, b.inner.RefundPaymentIntent(ctx, paymentIntentID)
	})
	return mapBreakerError(err)
}

func mapBreakerError(err error) error {
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return domainErrors.ErrGatewayUnavailable
	}
	return err
}
