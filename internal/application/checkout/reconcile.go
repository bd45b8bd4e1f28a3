package checkout

import (
	"context"
	"fmt"

	"github.com/rollingbite/checkout/internal/domain/booking"
	domainErrors "github.com/rollingbite/checkout/internal/domain/errors"
	"github.com/rollingbite/checkout/internal/domain/escrow"
	"github.com/rollingbite/checkout/internal/domain/event"
	"github.com/rollingbite/checkout/internal/domain/transaction"
	"github.com/google/uuid"
)

// ReconcileUseCase closes the checkout loop: it consumes verified gateway
// events and performs the terminal transaction-state transition, together
// with the paired booking or escrow flip. It is the only writer of terminal
// transaction status besides the expiry sweep.
type ReconcileUseCase struct {
	txRepo      transaction.Repository
	bookingRepo booking.Repository
	escrowRepo  escrow.Repository
	eventRepo   event.Repository
	txManager   TransactionManager
	publisher   EventPublisher
}

// NewReconcileUseCase creates a new ReconcileUseCase.
func NewReconcileUseCase(
	txRepo transaction.Repository,
	bookingRepo booking.Repository,
	escrowRepo escrow.Repository,
	eventRepo event.Repository,
	txManager TransactionManager,
	publisher EventPublisher,
) *ReconcileUseCase {
	return &ReconcileUseCase{
		txRepo:      txRepo,
		bookingRepo: bookingRepo,
		escrowRepo:  escrowRepo,
		eventRepo:   eventRepo,
		txManager:   txManager,
		publisher:   publisher,
	}
}

// Execute reconciles one inbox event. Processing is idempotent: a
// transaction already in a terminal state is left alone.
func (uc *ReconcileUseCase) Execute(ctx context.Context, ev *event.GatewayEvent) error {
	if !event.Reconcilable(ev.Type) {
		return domainErrors.ErrUnknownEventType
	}

	txn, err := uc.resolveTransaction(ctx, ev)
	if err != nil {
		return err
	}

	if txn.IsTerminal() {
		// Redelivery or the succeeded event after session.completed.
		return uc.eventRepo.MarkProcessed(ctx, ev.ID)
	}

	switch ev.Type {
	case event.TypeSessionCompleted, event.TypeIntentSucceeded:
		err = uc.settle(ctx, txn, ev.PaymentIntentID)
	case event.TypeIntentFailed:
		reason := ev.FailureMessage
		if reason == "" {
			reason = "payment failed at gateway"
		}
		err = uc.fail(ctx, txn, reason)
	}
	if err != nil {
		return err
	}

	return uc.eventRepo.MarkProcessed(ctx, ev.ID)
}

// RecordFailure bumps the event's failure counter and returns the new
// count. The worker calls this once per delivery, after its retries are
// exhausted, so retry attempts do not eat into the poison-event budget.
func (uc *ReconcileUseCase) RecordFailure(ctx context.Context, ev *event.GatewayEvent) (int, error) {
	return uc.eventRepo.IncrementFailure(ctx, ev.ID)
}

// resolveTransaction locates the ledger record the event refers to, trying
// the metadata join key first, then the gateway references.
func (uc *ReconcileUseCase) resolveTransaction(ctx context.Context, ev *event.GatewayEvent) (*transaction.Transaction, error) {
	if ev.TransactionID != "" {
		if id, err := uuid.Parse(ev.TransactionID); err == nil {
			if txn, err := uc.txRepo.GetByID(ctx, id); err == nil {
				return txn, nil
			}
		}
	}
	if ev.SessionID != "" {
		if txn, err := uc.txRepo.GetBySessionID(ctx, ev.SessionID); err == nil {
			return txn, nil
		}
	}
	if ev.PaymentIntentID != "" {
		if txn, err := uc.txRepo.GetByPaymentIntentID(ctx, ev.PaymentIntentID); err == nil {
			return txn, nil
		}
	}
	return nil, fmt.Errorf("event %s: %w", ev.GatewayEventID, domainErrors.ErrTransactionNotFound)
}

func (uc *ReconcileUseCase) settle(ctx context.Context, txn *transaction.Transaction, paymentIntentID string) error {
	if err := txn.MarkCompleted(paymentIntentID); err != nil {
		return err
	}

	err := uc.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := uc.txRepo.Update(txCtx, txn); err != nil {
			return err
		}
		if txn.BookingID != nil {
			if err := uc.bookingRepo.UpdatePaymentStatus(txCtx, *txn.BookingID, booking.PaymentPaid); err != nil {
				return err
			}
		}
		if txn.EscrowID != nil {
			esc, err := uc.escrowRepo.GetByID(txCtx, *txn.EscrowID)
			if err != nil {
				return err
			}
			if err := esc.MarkHeld(); err != nil {
				return err
			}
			return uc.escrowRepo.Update(txCtx, esc)
		}
		return nil
	})
	if err != nil {
		return err
	}

	uc.publish(ctx, txn, "transaction.completed")
	return nil
}

func (uc *ReconcileUseCase) fail(ctx context.Context, txn *transaction.Transaction, reason string) error {
	if err := txn.MarkFailed(reason); err != nil {
		return err
	}

	err := uc.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := uc.txRepo.Update(txCtx, txn); err != nil {
			return err
		}
		if txn.BookingID != nil {
			if err := uc.bookingRepo.UpdatePaymentStatus(txCtx, *txn.BookingID, booking.PaymentFailed); err != nil {
				return err
			}
		}
		if txn.EscrowID != nil {
			esc, err := uc.escrowRepo.GetByID(txCtx, *txn.EscrowID)
			if err != nil {
				return err
			}
			if err := esc.MarkRefunded(); err != nil {
				return err
			}
			return uc.escrowRepo.Update(txCtx, esc)
		}
		return nil
	})
	if err != nil {
		return err
	}

	uc.publish(ctx, txn, "transaction.failed")
	return nil
}

// publish is best-effort; stream delivery never blocks reconciliation.
func (uc *ReconcileUseCase) publish(ctx context.Context, txn *transaction.Transaction, eventType string) {
	if uc.publisher == nil {
		return
	}
	_ = uc.publisher.PublishCheckoutEvent(ctx, txn.ID.String(), eventType, map[string]any{
		"type":         string(txn.Type),
		"status":       string(txn.Status),
		"amount_cents": txn.AmountCents,
		"currency":     txn.Currency,
	})
}
