package escrow_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rollingbite/checkout/internal/domain/errors"
	"github.com/rollingbite/checkout/internal/domain/escrow"
)

func newEscrow(t *testing.T) *escrow.Escrow {
	t.Helper()
	e, err := escrow.New(uuid.New(), uuid.New(), uuid.New(), 250_000, "USD")
	require.NoError(t, err)
	return e
}

func TestNew(t *testing.T) {
	e := newEscrow(t)
	assert.Equal(t, escrow.StatusPendingPayment, e.Status)
	assert.False(t, e.IsTerminal())

	_, err := escrow.New(uuid.New(), uuid.New(), uuid.New(), 0, "USD")
	assert.Error(t, err)
}

func TestHeldLifecycle(t *testing.T) {
	e := newEscrow(t)

	require.NoError(t, e.MarkHeld())
	assert.Equal(t, escrow.StatusHeld, e.Status)
	assert.NotNil(t, e.HeldAt)

	// A second hold is invalid.
	assert.ErrorIs(t, e.MarkHeld(), errors.ErrInvalidStateTransition)

	require.NoError(t, e.MarkReleased())
	assert.Equal(t, escrow.StatusReleased, e.Status)
	assert.NotNil(t, e.ReleasedAt)
	assert.True(t, e.IsTerminal())
}

func TestRelease_RequiresHeld(t *testing.T) {
	e := newEscrow(t)
	assert.ErrorIs(t, e.MarkReleased(), errors.ErrEscrowNotReleasable)

	require.NoError(t, e.MarkHeld())
	require.NoError(t, e.MarkRefunded())
	assert.ErrorIs(t, e.MarkReleased(), errors.ErrEscrowNotReleasable)
}

func TestRefund_FromHeldOrPending(t *testing.T) {
	// Refund of held funds returns the authorization.
	e := newEscrow(t)
	require.NoError(t, e.MarkHeld())
	require.NoError(t, e.MarkRefunded())
	assert.Equal(t, escrow.StatusRefunded, e.Status)
	assert.NotNil(t, e.RefundedAt)

	// An unfunded escrow may also be refunded when its checkout dies.
	e2 := newEscrow(t)
	require.NoError(t, e2.MarkRefunded())

	// But never twice.
	assert.ErrorIs(t, e2.MarkRefunded(), errors.ErrEscrowNotRefundable)
}
