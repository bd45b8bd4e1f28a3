package errors

import (
	"errors"
	"fmt"
)

var (
	// Listing errors
	ErrListingNotFound     = errors.New("listing not found")
	ErrListingInactive     = errors.New("listing is not active")
	ErrListingModeMismatch = errors.New("listing mode does not match requested operation")

	// Payout account errors
	ErrRecipientNotConnected = errors.New("listing owner has no verified payout account")

	// Transaction errors
	ErrTransactionNotFound         = errors.New("transaction not found")
	ErrTransactionNotPending       = errors.New("transaction is not pending")
	ErrInvalidTransactionType      = errors.New("invalid transaction type")
	ErrInvalidAmount               = errors.New("invalid amount")
	ErrInvalidStateTransition      = errors.New("invalid state transition")
	ErrDuplicatePendingTransaction = errors.New("a pending transaction already exists for this checkout")
	ErrDuplicatePaymentIntent      = errors.New("payment intent already attached to another transaction")

	// Booking errors
	ErrBookingNotFound  = errors.New("booking not found")
	ErrInvalidDateRange = errors.New("invalid date range")

	// Escrow errors
	ErrEscrowNotFound      = errors.New("escrow not found")
	ErrEscrowNotReleasable = errors.New("escrow is not in a releasable state")
	ErrEscrowNotRefundable = errors.New("escrow is not in a refundable state")

	// Gateway errors
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrGatewayRejected    = errors.New("payment rejected by gateway")
	ErrGatewayTimeout     = errors.New("gateway request timeout")
	ErrCardDeclined       = errors.New("card declined by gateway")

	// Webhook errors
	ErrEventAlreadyProcessed = errors.New("gateway event already processed")
	ErrUnknownEventType      = errors.New("unknown gateway event type")

	// Idempotency errors
	ErrDuplicateIdempotencyKey = errors.New("duplicate idempotency key")

	// Lock errors
	ErrLockAcquisitionFailed = errors.New("failed to acquire lock")
	ErrLockNotHeld           = errors.New("lock not held")

	// Auth errors
	ErrUnauthorized = errors.New("authentication required")
	ErrForbidden    = errors.New("forbidden")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")
	ErrInvalidInput     = errors.New("invalid input")
)

// DomainError wraps errors with additional context
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
}

// NewValidationError creates a new validation error
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}
