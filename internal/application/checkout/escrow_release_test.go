package checkout_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/rollingbite/checkout/internal/application/checkout"
	domainErrors "github.com/rollingbite/checkout/internal/domain/errors"
	"github.com/rollingbite/checkout/internal/domain/escrow"
	"github.com/rollingbite/checkout/internal/domain/transaction"
	"github.com/rollingbite/checkout/internal/gateway"
	"github.com/rollingbite/checkout/internal/testutil"
)

type escrowHarness struct {
	escrowRepo *testutil.MockEscrowRepository
	txRepo     *testutil.MockTransactionRepository
	gw         *gateway.MockGateway
	uc         *checkout.EscrowReleaseUseCase
}

func newEscrowHarness(gwOpts ...gateway.MockGatewayOption) *escrowHarness {
	h := &escrowHarness{
		escrowRepo: testutil.NewMockEscrowRepository(),
		txRepo:     testutil.NewMockTransactionRepository(),
		gw:         gateway.NewMockGateway(gwOpts...),
	}
	h.uc = checkout.NewEscrowReleaseUseCase(
		h.escrowRepo, h.txRepo, testutil.NewMockTxManager(), h.gw,
	)
	return h
}

// heldEscrow sets up a held escrow and its settled, intent-bearing
// transaction, the state reconciliation leaves behind for a manual-capture
// sale.
func heldEscrow(t *testing.T, h *escrowHarness) (*escrow.Escrow, *transaction.Transaction) {
	t.Helper()
	ctx := context.Background()

	esc, err := escrow.New(uuid.New(), uuid.New(), uuid.New(), 100_000, "USD")
	if err != nil {
		t.Fatalf("escrow.New: %v", err)
	}
	if err := esc.MarkHeld(); err != nil {
		t.Fatalf("mark held: %v", err)
	}
	if err := h.escrowRepo.Create(ctx, esc); err != nil {
		t.Fatalf("create escrow: %v", err)
	}

	txn, err := transaction.New(esc.BuyerID, transaction.TypeEscrowPayment,
		transaction.Amount{ValueCents: esc.AmountCents, Currency: esc.Currency}, esc.ListingID)
	if err != nil {
		t.Fatalf("transaction.New: %v", err)
	}
	txn.EscrowID = &esc.ID
	if err := txn.MarkCompleted("pi_held_1"); err != nil {
		t.Fatalf("mark completed: %v", err)
	}
	if err := h.txRepo.Create(ctx, txn); err != nil {
		t.Fatalf("create transaction: %v", err)
	}
	return esc, txn
}

func TestEscrowRelease_BuyerCapturesIntent(t *testing.T) {
	ctx := context.Background()
	h := newEscrowHarness()
	esc, txn := heldEscrow(t, h)

	got, err := h.uc.Release(ctx, esc.ID, esc.BuyerID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != escrow.StatusReleased {
		t.Errorf("expected released, got %s", got.Status)
	}
	if !h.gw.Captured(*txn.PaymentIntentID) {
		t.Error("payment intent must be captured on release")
	}
}

func TestEscrowRelease_SellerMayNotRelease(t *testing.T) {
	ctx := context.Background()
	h := newEscrowHarness()
	esc, _ := heldEscrow(t, h)

	_, err := h.uc.Release(ctx, esc.ID, esc.SellerID)
	if !errors.Is(err, domainErrors.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	stored, _ := h.escrowRepo.GetByID(ctx, esc.ID)
	if stored.Status != escrow.StatusHeld {
		t.Errorf("escrow must stay held, got %s", stored.Status)
	}
}

func TestEscrowRelease_NotHeldRejected(t *testing.T) {
	ctx := context.Background()
	h := newEscrowHarness()

	esc, err := escrow.New(uuid.New(), uuid.New(), uuid.New(), 100_000, "USD")
	if err != nil {
		t.Fatalf("escrow.New: %v", err)
	}
	if err := h.escrowRepo.Create(ctx, esc); err != nil {
		t.Fatalf("create escrow: %v", err)
	}

	_, err = h.uc.Release(ctx, esc.ID, esc.BuyerID)
	if !errors.Is(err, domainErrors.ErrEscrowNotReleasable) {
		t.Fatalf("expected not releasable, got %v", err)
	}
}

func TestEscrowRelease_CommitFailureRefundsCapture(t *testing.T) {
	ctx := context.Background()
	h := newEscrowHarness()
	esc, txn := heldEscrow(t, h)

	storeErr := errors.New("write failed")
	h.escrowRepo.UpdateFunc = func(ctx context.Context, e *escrow.Escrow) error {
		return storeErr
	}

	_, err := h.uc.Release(ctx, esc.ID, esc.BuyerID)
	if !errors.Is(err, storeErr) {
		t.Fatalf("expected store error, got %v", err)
	}
	// The saga compensates the already-executed capture.
	if !h.gw.Refunded(*txn.PaymentIntentID) {
		t.Error("capture must be refunded when the ledger commit fails")
	}
}

func TestEscrowRefund_SellerCancelsIntent(t *testing.T) {
	ctx := context.Background()
	h := newEscrowHarness()
	esc, txn := heldEscrow(t, h)

	got, err := h.uc.Refund(ctx, esc.ID, esc.SellerID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != escrow.StatusRefunded {
		t.Errorf("expected refunded, got %s", got.Status)
	}
	if !h.gw.Canceled(*txn.PaymentIntentID) {
		t.Error("payment intent must be canceled on refund")
	}

	stored, _ := h.txRepo.GetByID(ctx, txn.ID)
	if stored.Status != transaction.StatusRefunded {
		t.Errorf("transaction must be refunded, got %s", stored.Status)
	}
}

func TestEscrowRefund_BuyerMayNotRefund(t *testing.T) {
	ctx := context.Background()
	h := newEscrowHarness()
	esc, _ := heldEscrow(t, h)

	_, err := h.uc.Refund(ctx, esc.ID, esc.BuyerID)
	if !errors.Is(err, domainErrors.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestEscrowRefund_GatewayFailureLeavesStateUntouched(t *testing.T) {
	ctx := context.Background()
	h := newEscrowHarness(gateway.WithFailure(domainErrors.ErrGatewayUnavailable))
	esc, txn := heldEscrow(t, h)

	_, err := h.uc.Refund(ctx, esc.ID, esc.SellerID)
	if !errors.Is(err, domainErrors.ErrGatewayUnavailable) {
		t.Fatalf("expected gateway unavailable, got %v", err)
	}
	stored, _ := h.escrowRepo.GetByID(ctx, esc.ID)
	if stored.Status != escrow.StatusHeld {
		t.Errorf("escrow must stay held, got %s", stored.Status)
	}
	txStored, _ := h.txRepo.GetByID(ctx, txn.ID)
	if txStored.Status != transaction.StatusCompleted {
		t.Errorf("transaction must stay completed, got %s", txStored.Status)
	}
}
