package gateway

import (
	"context"
	"fmt"
	"sync"
	"time"

	domainErrors "github.com/rollingbite/checkout/internal/domain/errors"
	"github.com/google/uuid"
)

// MockGateway is an in-memory Gateway for tests and local development. It
// honors idempotency keys the way the real gateway does: a repeated key
// returns the session created by the first call.
type MockGateway struct {
	mu       sync.Mutex
	sessions map[string]*Session // idempotency key -> session
	captured map[string]bool
	canceled map[string]bool
	refunded map[string]bool

	name       string
	latency    time.Duration
	failWith   error
	declineMsg string
}

// MockGatewayOption configures a MockGateway.
type MockGatewayOption func(*MockGateway)

// WithLatency simulates network latency on every call.
func WithLatency(d time.Duration) MockGatewayOption {
	return func(g *MockGateway) { g.latency = d }
}

// WithFailure makes every call fail with err until cleared via SetFailure(nil).
func WithFailure(err error) MockGatewayOption {
	return func(g *MockGateway) { g.failWith = err }
}

// WithCardDecline makes session creation fail as a card decline.
func WithCardDecline(msg string) MockGatewayOption {
	return func(g *MockGateway) { g.declineMsg = msg }
}

// NewMockGateway creates a MockGateway.
func NewMockGateway(opts ...MockGatewayOption) *MockGateway {
	g := &MockGateway{
		name:     "mock",
		sessions: make(map[string]*Session),
		captured: make(map[string]bool),
		canceled: make(map[string]bool),
		refunded: make(map[string]bool),
	}
	for _, o := range opts {
		o(g)
	}
	return g
}

func (g *MockGateway) Name() string { return g.name }

// SetFailure changes the forced failure mode at runtime.
func (g *MockGateway) SetFailure(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failWith = err
}

// SessionCount returns how many distinct sessions have been created.
func (g *MockGateway) SessionCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.sessions)
}

// Captured reports whether the given payment intent was captured.
func (g *MockGateway) Captured(paymentIntentID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.captured[paymentIntentID]
}

// Refunded reports whether the given payment intent was refunded.
func (g *MockGateway) Refunded(paymentIntentID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.refunded[paymentIntentID]
}

// Canceled reports whether the given payment intent was canceled.
func (g *MockGateway) Canceled(paymentIntentID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.canceled[paymentIntentID]
}

func (g *MockGateway) CreateCheckoutSession(ctx context.Context, req SessionRequest) (*Session, error) {
	if err := g.wait(ctx); err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.failWith != nil {
		return nil, g.failWith
	}
	if g.declineMsg != "" {
		return nil, domainErrors.NewDomainError("card_declined", g.declineMsg, domainErrors.ErrCardDeclined)
	}

	// Idempotent replay of a prior create.
	if sess, ok := g.sessions[req.IdempotencyKey]; ok {
		return sess, nil
	}

	suffix := uuid.New().String()[:8]
	sess := &Session{
		ID:              fmt.Sprintf("cs_test_%s", suffix),
		URL:             fmt.Sprintf("https://checkout.mock.local/c/pay/cs_test_%s", suffix),
		PaymentIntentID: fmt.Sprintf("pi_test_%s", suffix),
		ExpiresAt:       req.ExpiresAt,
	}
	g.sessions[req.IdempotencyKey] = sess
	return sess, nil
}

func (g *MockGateway) CapturePaymentIntent(ctx context.Context, paymentIntentID string) error {
	if err := g.wait(ctx); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failWith != nil {
		return g.failWith
	}
	g.captured[paymentIntentID] = true
	return nil
}

func (g *MockGateway) CancelPaymentIntent(ctx context.Context, paymentIntentID string) error {
	if err := g.wait(ctx); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failWith != nil {
		return g.failWith
	}
	g.canceled[paymentIntentID] = true
	return nil
}

func (g *MockGateway) RefundPaymentIntent(ctx context.Context, paymentIntentID string) error {
	if err := g.wait(ctx); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failWith != nil {
		return g.failWith
	}
	g.refunded[paymentIntentID] = true
	return nil
}

func (g *MockGateway) wait(ctx context.Context) error {
	if g.latency == 0 {
		return nil
	}
	select {
	case <-time.After(g.latency):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
