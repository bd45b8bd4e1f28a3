package gateway

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainErrors "github.com/rollingbite/checkout/internal/domain/errors"
)

func sessionRequest(key string) SessionRequest {
	return SessionRequest{
		IdempotencyKey: key,
		Currency:       "USD",
		LineItems:      []LineItem{{Name: "Test item", AmountCents: 10_000, Quantity: 1}},
		ExpiresAt:      time.Now().Add(SessionExpiry),
	}
}

func TestMockGateway_CreateSession(t *testing.T) {
	gw := NewMockGateway()

	sess, err := gw.CreateCheckoutSession(context.Background(), sessionRequest("key-1"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sess.ID, "cs_test_"))
	assert.True(t, strings.HasPrefix(sess.PaymentIntentID, "pi_test_"))
	assert.NotEmpty(t, sess.URL)
	assert.Equal(t, 1, gw.SessionCount())
}

func TestMockGateway_IdempotentReplay(t *testing.T) {
	gw := NewMockGateway()
	ctx := context.Background()

	first, err := gw.CreateCheckoutSession(ctx, sessionRequest("key-1"))
	require.NoError(t, err)
	second, err := gw.CreateCheckoutSession(ctx, sessionRequest("key-1"))
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.PaymentIntentID, second.PaymentIntentID)
	assert.Equal(t, 1, gw.SessionCount())

	third, err := gw.CreateCheckoutSession(ctx, sessionRequest("key-2"))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, third.ID)
	assert.Equal(t, 2, gw.SessionCount())
}

func TestMockGateway_CardDecline(t *testing.T) {
	gw := NewMockGateway(WithCardDecline("insufficient funds"))

	_, err := gw.CreateCheckoutSession(context.Background(), sessionRequest("key-1"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domainErrors.ErrCardDeclined))
	assert.Equal(t, 0, gw.SessionCount())
}

func TestMockGateway_ForcedFailureAndRecovery(t *testing.T) {
	gw := NewMockGateway(WithFailure(domainErrors.ErrGatewayUnavailable))
	ctx := context.Background()

	_, err := gw.CreateCheckoutSession(ctx, sessionRequest("key-1"))
	assert.True(t, errors.Is(err, domainErrors.ErrGatewayUnavailable))

	gw.SetFailure(nil)
	_, err = gw.CreateCheckoutSession(ctx, sessionRequest("key-1"))
	assert.NoError(t, err)
}

func TestMockGateway_IntentLifecycle(t *testing.T) {
	gw := NewMockGateway()
	ctx := context.Background()

	sess, err := gw.CreateCheckoutSession(ctx, sessionRequest("key-1"))
	require.NoError(t, err)

	require.NoError(t, gw.CapturePaymentIntent(ctx, sess.PaymentIntentID))
	assert.True(t, gw.Captured(sess.PaymentIntentID))
	assert.False(t, gw.Refunded(sess.PaymentIntentID))

	require.NoError(t, gw.RefundPaymentIntent(ctx, sess.PaymentIntentID))
	assert.True(t, gw.Refunded(sess.PaymentIntentID))

	require.NoError(t, gw.CancelPaymentIntent(ctx, "pi_test_other"))
	assert.True(t, gw.Canceled("pi_test_other"))
}

func TestMockGateway_LatencyHonorsContext(t *testing.T) {
	gw := NewMockGateway(WithLatency(time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := gw.CreateCheckoutSession(ctx, sessionRequest("key-1"))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}
