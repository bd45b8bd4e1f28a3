package transaction_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rollingbite/checkout/internal/domain/errors"
	"github.com/rollingbite/checkout/internal/domain/transaction"
)

func usd(cents int64) transaction.Amount {
	return transaction.Amount{ValueCents: cents, Currency: "USD"}
}

func TestNew_Valid(t *testing.T) {
	payerID := uuid.New()
	listingID := uuid.New()

	txn, err := transaction.New(payerID, transaction.TypeBookingPayment, usd(112_90), listingID)
	require.NoError(t, err)
	assert.Equal(t, transaction.StatusPending, txn.Status)
	assert.Equal(t, payerID, txn.PayerID)
	assert.Equal(t, listingID, txn.ListingID)
	assert.Equal(t, int64(112_90), txn.AmountCents)
	assert.Nil(t, txn.SessionID)
	assert.Nil(t, txn.PaymentIntentID)
}

func TestNew_InvalidType(t *testing.T) {
	_, err := transaction.New(uuid.New(), transaction.Type("gift"), usd(100), uuid.New())
	assert.ErrorIs(t, err, errors.ErrInvalidTransactionType)
}

func TestNew_InvalidAmount(t *testing.T) {
	_, err := transaction.New(uuid.New(), transaction.TypeSalePurchase, usd(0), uuid.New())
	assert.Error(t, err)

	_, err = transaction.New(uuid.New(), transaction.TypeSalePurchase, usd(-100), uuid.New())
	assert.Error(t, err)

	_, err = transaction.New(uuid.New(), transaction.TypeSalePurchase,
		transaction.Amount{ValueCents: 100, Currency: "US"}, uuid.New())
	assert.Error(t, err)
}

func TestTransitions(t *testing.T) {
	txn, err := transaction.New(uuid.New(), transaction.TypeBookingPayment, usd(100), uuid.New())
	require.NoError(t, err)

	assert.True(t, txn.CanTransitionTo(transaction.StatusCompleted))
	assert.True(t, txn.CanTransitionTo(transaction.StatusFailed))
	assert.False(t, txn.CanTransitionTo(transaction.StatusRefunded))

	require.NoError(t, txn.MarkCompleted("pi_123"))
	assert.Equal(t, transaction.StatusCompleted, txn.Status)
	require.NotNil(t, txn.PaymentIntentID)
	assert.Equal(t, "pi_123", *txn.PaymentIntentID)
	assert.NotNil(t, txn.CompletedAt)

	// Completed may only move to refunded.
	assert.ErrorIs(t, txn.MarkFailed("late"), errors.ErrInvalidStateTransition)
	require.NoError(t, txn.MarkRefunded())
	assert.True(t, txn.IsTerminal())

	// Refunded is terminal.
	assert.ErrorIs(t, txn.MarkCompleted("pi_456"), errors.ErrInvalidStateTransition)
}

func TestMarkFailed_RecordsReason(t *testing.T) {
	txn, err := transaction.New(uuid.New(), transaction.TypeSalePurchase, usd(100), uuid.New())
	require.NoError(t, err)

	require.NoError(t, txn.MarkFailed("card_declined"))
	assert.Equal(t, transaction.StatusFailed, txn.Status)
	require.NotNil(t, txn.FailureReason)
	assert.Equal(t, "card_declined", *txn.FailureReason)
	assert.True(t, txn.IsTerminal())
}

func TestAttachGatewayReference(t *testing.T) {
	txn, err := transaction.New(uuid.New(), transaction.TypeEscrowPayment, usd(100), uuid.New())
	require.NoError(t, err)

	require.NoError(t, txn.AttachGatewayReference("cs_1", "pi_1"))
	require.NotNil(t, txn.SessionID)
	assert.Equal(t, "cs_1", *txn.SessionID)
	require.NotNil(t, txn.PaymentIntentID)
	assert.Equal(t, "pi_1", *txn.PaymentIntentID)

	// Sessions created without an intent leave the reference unset.
	txn2, err := transaction.New(uuid.New(), transaction.TypeEscrowPayment, usd(100), uuid.New())
	require.NoError(t, err)
	require.NoError(t, txn2.AttachGatewayReference("cs_2", ""))
	assert.Nil(t, txn2.PaymentIntentID)

	// Only pending transactions accept references.
	require.NoError(t, txn.MarkCompleted(""))
	assert.ErrorIs(t, txn.AttachGatewayReference("cs_3", "pi_3"), errors.ErrTransactionNotPending)
}
