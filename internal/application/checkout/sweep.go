package checkout

import (
	"context"
	"time"

	"github.com/rollingbite/checkout/internal/domain/booking"
	"github.com/rollingbite/checkout/internal/domain/escrow"
	"github.com/rollingbite/checkout/internal/domain/transaction"
)

// SweepUseCase is the operational backstop for orphaned checkouts: pending
// transactions whose gateway session failed, expired, or was abandoned are
// failed after a TTL, and their paired booking and escrow holds released.
type SweepUseCase struct {
	txRepo      transaction.Repository
	bookingRepo booking.Repository
	escrowRepo  escrow.Repository
	txManager   TransactionManager
	ttl         time.Duration
	batchSize   int
}

// NewSweepUseCase creates a new SweepUseCase.
func NewSweepUseCase(
	txRepo transaction.Repository,
	bookingRepo booking.Repository,
	escrowRepo escrow.Repository,
	txManager TransactionManager,
	ttl time.Duration,
	batchSize int,
) *SweepUseCase {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &SweepUseCase{
		txRepo:      txRepo,
		bookingRepo: bookingRepo,
		escrowRepo:  escrowRepo,
		txManager:   txManager,
		ttl:         ttl,
		batchSize:   batchSize,
	}
}

// Execute runs one sweep pass and returns how many transactions it expired.
// Each transaction is expired in its own database transaction so one bad row
// cannot wedge the whole pass.
func (uc *SweepUseCase) Execute(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-uc.ttl)
	expired, err := uc.txRepo.ListExpiredPending(ctx, cutoff, uc.batchSize)
	if err != nil {
		return 0, err
	}

	swept := 0
	for _, txn := range expired {
		if err := uc.expireOne(ctx, txn); err != nil {
			return swept, err
		}
		swept++
	}
	return swept, nil
}

func (uc *SweepUseCase) expireOne(ctx context.Context, txn *transaction.Transaction) error {
	if err := txn.MarkFailed("checkout expired"); err != nil {
		return err
	}

	return uc.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
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
			if esc.IsTerminal() {
				return nil
			}
			if err := esc.MarkRefunded(); err != nil {
				return err
			}
			return uc.escrowRepo.Update(txCtx, esc)
		}
		return nil
	})
}
