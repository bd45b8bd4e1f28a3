package checkout

import (
	"context"
	"fmt"

	domainErrors "github.com/rollingbite/checkout/internal/domain/errors"
	"github.com/rollingbite/checkout/internal/domain/escrow"
	"github.com/rollingbite/checkout/internal/domain/transaction"
	"github.com/rollingbite/checkout/internal/gateway"
	"github.com/rollingbite/checkout/pkg/saga"
	"github.com/google/uuid"
)

// EscrowReleaseUseCase releases or refunds an escrow hold. Release captures
// the manually-held payment intent (money moves to the seller's connected
// account, minus the application fee); refund cancels the uncaptured hold.
type EscrowReleaseUseCase struct {
	escrowRepo escrow.Repository
	txRepo     transaction.Repository
	txManager  TransactionManager
	gw         gateway.Gateway
}

// NewEscrowReleaseUseCase creates a new EscrowReleaseUseCase.
func NewEscrowReleaseUseCase(
	escrowRepo escrow.Repository,
	txRepo transaction.Repository,
	txManager TransactionManager,
	gw gateway.Gateway,
) *EscrowReleaseUseCase {
	return &EscrowReleaseUseCase{
		escrowRepo: escrowRepo,
		txRepo:     txRepo,
		txManager:  txManager,
		gw:         gw,
	}
}

// Release captures the hold for the seller. Only the buyer may release:
// capture moves the buyer's money, so the buyer confirms receipt.
func (uc *EscrowReleaseUseCase) Release(ctx context.Context, escrowID, actorID uuid.UUID) (*escrow.Escrow, error) {
	esc, err := uc.escrowRepo.GetByID(ctx, escrowID)
	if err != nil {
		return nil, err
	}
	if esc.BuyerID != actorID {
		return nil, domainErrors.ErrForbidden
	}
	if esc.Status != escrow.StatusHeld {
		return nil, domainErrors.ErrEscrowNotReleasable
	}

	txn, err := uc.txRepo.GetByEscrowID(ctx, esc.ID)
	if err != nil {
		return nil, err
	}
	if txn.PaymentIntentID == nil {
		return nil, domainErrors.ErrTransactionNotFound
	}
	intentID := *txn.PaymentIntentID

	// Capture first, then commit the ledger. If the ledger write fails
	// after a successful capture, the compensation refunds the capture so
	// money and state cannot diverge.
	var captured bool
	s := saga.New("escrow-release").
		AddStep(saga.Step{
			Name: "capture-intent",
			Execute: func(ctx context.Context) error {
				if err := uc.gw.CapturePaymentIntent(ctx, intentID); err != nil {
					return err
				}
				captured = true
				return nil
			},
			Compensate: func(ctx context.Context) error {
				if !captured {
					return nil
				}
				return uc.gw.RefundPaymentIntent(ctx, intentID)
			},
		}).
		AddStep(saga.Step{
			Name: "commit-release",
			Execute: func(ctx context.Context) error {
				if err := esc.MarkReleased(); err != nil {
					return err
				}
				return uc.escrowRepo.Update(ctx, esc)
			},
		})

	if _, err := s.Execute(ctx); err != nil {
		return nil, fmt.Errorf("release escrow %s: %w", esc.ID, err)
	}
	return esc, nil
}

// Refund returns the hold to the buyer and refunds the transaction. Only the
// seller may refund: it abandons the sale.
func (uc *EscrowReleaseUseCase) Refund(ctx context.Context, escrowID, actorID uuid.UUID) (*escrow.Escrow, error) {
	esc, err := uc.escrowRepo.GetByID(ctx, escrowID)
	if err != nil {
		return nil, err
	}
	if esc.SellerID != actorID {
		return nil, domainErrors.ErrForbidden
	}
	if esc.Status != escrow.StatusHeld {
		return nil, domainErrors.ErrEscrowNotRefundable
	}

	txn, err := uc.txRepo.GetByEscrowID(ctx, esc.ID)
	if err != nil {
		return nil, err
	}
	if txn.PaymentIntentID == nil {
		return nil, domainErrors.ErrTransactionNotFound
	}

	// A held escrow is an uncaptured authorization; cancel releases it.
	if err := uc.gw.CancelPaymentIntent(ctx, *txn.PaymentIntentID); err != nil {
		return nil, err
	}

	err = uc.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := esc.MarkRefunded(); err != nil {
			return err
		}
		if err := uc.escrowRepo.Update(txCtx, esc); err != nil {
			return err
		}
		if err := txn.MarkRefunded(); err != nil {
			return err
		}
		return uc.txRepo.Update(txCtx, txn)
	})
	if err != nil {
		return nil, err
	}
	return esc, nil
}
