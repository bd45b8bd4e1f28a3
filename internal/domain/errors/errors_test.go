package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *DomainError
		expected string
	}{
		{
			name: "with wrapped error",
			err: &DomainError{
				Code:    "card_declined",
				Message: "card declined",
				Err:     errors.New("insufficient funds"),
			},
			expected: "card declined: insufficient funds",
		},
		{
			name: "without wrapped error",
			err: &DomainError{
				Code:    "invalid_state_transition",
				Message: "cannot transition from completed to pending",
			},
			expected: "cannot transition from completed to pending",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestDomainError_Unwrap(t *testing.T) {
	err := NewDomainError("card_declined", "card declined", ErrCardDeclined)
	assert.True(t, errors.Is(err, ErrCardDeclined))
	assert.Equal(t, ErrCardDeclined, err.Unwrap())
}

func TestValidationError_Error(t *testing.T) {
	err := NewValidationError("sale_price", "must be greater than 0")
	assert.Equal(t, "validation failed for field sale_price: must be greater than 0", err.Error())
	assert.Equal(t, "sale_price", err.Field)
}

func TestSentinelErrors_SurviveWrapping(t *testing.T) {
	wrapped := fmt.Errorf("create checkout session: %w", ErrGatewayUnavailable)
	assert.True(t, errors.Is(wrapped, ErrGatewayUnavailable))

	doubly := fmt.Errorf("rental checkout: %w", wrapped)
	assert.True(t, errors.Is(doubly, ErrGatewayUnavailable))
}
