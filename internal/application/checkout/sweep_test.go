package checkout_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/rollingbite/checkout/internal/application/checkout"
	"github.com/rollingbite/checkout/internal/domain/booking"
	"github.com/rollingbite/checkout/internal/domain/escrow"
	"github.com/rollingbite/checkout/internal/domain/transaction"
	"github.com/rollingbite/checkout/internal/testutil"
)

type sweepHarness struct {
	txRepo      *testutil.MockTransactionRepository
	bookingRepo *testutil.MockBookingRepository
	escrowRepo  *testutil.MockEscrowRepository
	uc          *checkout.SweepUseCase
}

func newSweepHarness(ttl time.Duration) *sweepHarness {
	h := &sweepHarness{
		txRepo:      testutil.NewMockTransactionRepository(),
		bookingRepo: testutil.NewMockBookingRepository(),
		escrowRepo:  testutil.NewMockEscrowRepository(),
	}
	h.uc = checkout.NewSweepUseCase(
		h.txRepo, h.bookingRepo, h.escrowRepo, testutil.NewMockTxManager(), ttl, 100,
	)
	return h
}

func agedPendingTransaction(t *testing.T, h *sweepHarness, age time.Duration) *transaction.Transaction {
	t.Helper()
	txn, err := transaction.New(uuid.New(), transaction.TypeBookingPayment,
		transaction.Amount{ValueCents: 10_000, Currency: "USD"}, uuid.New())
	if err != nil {
		t.Fatalf("transaction.New: %v", err)
	}
	txn.CreatedAt = time.Now().Add(-age)
	if err := h.txRepo.Create(context.Background(), txn); err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	return txn
}

func TestSweep_ExpiresOldPendingOnly(t *testing.T) {
	ctx := context.Background()
	h := newSweepHarness(time.Hour)

	old := agedPendingTransaction(t, h, 2*time.Hour)
	fresh := agedPendingTransaction(t, h, 10*time.Minute)

	swept, err := h.uc.Execute(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if swept != 1 {
		t.Fatalf("expected 1 swept, got %d", swept)
	}

	got, _ := h.txRepo.GetByID(ctx, old.ID)
	if got.Status != transaction.StatusFailed {
		t.Errorf("expected old transaction failed, got %s", got.Status)
	}
	if got.FailureReason == nil || *got.FailureReason != "checkout expired" {
		t.Error("expiry reason must be recorded")
	}

	got, _ = h.txRepo.GetByID(ctx, fresh.ID)
	if got.Status != transaction.StatusPending {
		t.Errorf("fresh transaction must stay pending, got %s", got.Status)
	}
}

func TestSweep_FailsPairedBooking(t *testing.T) {
	ctx := context.Background()
	h := newSweepHarness(time.Hour)

	start := time.Now().AddDate(0, 0, 7)
	bkg, err := booking.New(uuid.New(), uuid.New(), uuid.New(), start, start.AddDate(0, 0, 2), 2)
	if err != nil {
		t.Fatalf("booking.New: %v", err)
	}
	if err := h.bookingRepo.Create(ctx, bkg); err != nil {
		t.Fatalf("create booking: %v", err)
	}

	txn := agedPendingTransaction(t, h, 2*time.Hour)
	txn.BookingID = &bkg.ID
	if err := h.txRepo.Update(ctx, txn); err != nil {
		t.Fatalf("update transaction: %v", err)
	}

	if _, err := h.uc.Execute(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := h.bookingRepo.GetByID(ctx, bkg.ID)
	if got.PaymentStatus != booking.PaymentFailed {
		t.Errorf("expected booking failed, got %s", got.PaymentStatus)
	}
}

func TestSweep_RefundsPairedEscrow(t *testing.T) {
	ctx := context.Background()
	h := newSweepHarness(time.Hour)

	esc, err := escrow.New(uuid.New(), uuid.New(), uuid.New(), 50_000, "USD")
	if err != nil {
		t.Fatalf("escrow.New: %v", err)
	}
	if err := h.escrowRepo.Create(ctx, esc); err != nil {
		t.Fatalf("create escrow: %v", err)
	}

	txn := agedPendingTransaction(t, h, 2*time.Hour)
	txn.EscrowID = &esc.ID
	if err := h.txRepo.Update(ctx, txn); err != nil {
		t.Fatalf("update transaction: %v", err)
	}

	if _, err := h.uc.Execute(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := h.escrowRepo.GetByID(ctx, esc.ID)
	if got.Status != escrow.StatusRefunded {
		t.Errorf("expected escrow refunded, got %s", got.Status)
	}
}

func TestSweep_EmptyPass(t *testing.T) {
	h := newSweepHarness(time.Hour)
	swept, err := h.uc.Execute(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if swept != 0 {
		t.Errorf("expected 0 swept, got %d", swept)
	}
}
