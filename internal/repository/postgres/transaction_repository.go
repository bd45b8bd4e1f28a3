package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/rollingbite/checkout/internal/domain/errors"
	"github.com/rollingbite/checkout/internal/domain/transaction"
)

// allowedSortColumns is a whitelist of columns valid for ORDER BY.
var allowedSortColumns = map[string]string{
	"created_at": "created_at",
	"amount":     "amount_cents",
	"status":     "status",
	"updated_at": "updated_at",
}

const transactionColumns = `id, payer_id, transaction_type, amount_cents, currency, status,
	        listing_id, booking_id, escrow_id, session_id, payment_intent_id,
	        failure_reason, metadata, created_at, updated_at, completed_at`

// TransactionRepository implements transaction.Repository using PostgreSQL.
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

func (r *TransactionRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

// Create inserts a new pending transaction. The partial unique index on
// (payer_id, listing_id) WHERE status = 'pending' turns a concurrent
// double-submit into a constraint violation instead of a second charge.
func (r *TransactionRepository) Create(ctx context.Context, t *transaction.Transaction) error {
	metadata, err := json.Marshal(t.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	_, err = r.db(ctx).Exec(ctx,
		`INSERT INTO transactions
		 (id, payer_id, transaction_type, amount_cents, currency, status,
		  listing_id, booking_id, escrow_id, session_id, payment_intent_id,
		  failure_reason, metadata, created_at, updated_at, completed_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		t.ID, t.PayerID, string(t.Type), t.AmountCents, t.Currency, string(t.Status),
		t.ListingID, t.BookingID, t.EscrowID, t.SessionID, t.PaymentIntentID,
		t.FailureReason, metadata, t.CreatedAt, t.UpdatedAt, t.CompletedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			if pgErr.ConstraintName == "transactions_payment_intent_id_key" {
				return domainErrors.ErrDuplicatePaymentIntent
			}
			return domainErrors.ErrDuplicatePendingTransaction
		}
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

// GetByID retrieves a transaction by its ID.
func (r *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	return r.scanTransaction(r.db(ctx).QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id))
}

// GetByPaymentIntentID retrieves the transaction holding the gateway
// payment intent reference.
func (r *TransactionRepository) GetByPaymentIntentID(ctx context.Context, paymentIntentID string) (*transaction.Transaction, error) {
	return r.scanTransaction(r.db(ctx).QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE payment_intent_id = $1`, paymentIntentID))
}

// GetBySessionID retrieves the transaction holding the gateway session reference.
func (r *TransactionRepository) GetBySessionID(ctx context.Context, sessionID string) (*transaction.Transaction, error) {
	return r.scanTransaction(r.db(ctx).QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE session_id = $1`, sessionID))
}

// GetByEscrowID retrieves the transaction paired with the given escrow.
func (r *TransactionRepository) GetByEscrowID(ctx context.Context, escrowID uuid.UUID) (*transaction.Transaction, error) {
	return r.scanTransaction(r.db(ctx).QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE escrow_id = $1`, escrowID))
}

// AttachGatewayReference records the session and intent ids on a transaction
// that is still pending. The status guard in the WHERE clause makes the
// update race-safe against a reconciler that already settled the row.
func (r *TransactionRepository) AttachGatewayReference(ctx context.Context, id uuid.UUID, sessionID, paymentIntentID string) error {
	var intentArg *string
	if paymentIntentID != "" {
		intentArg = &paymentIntentID
	}

	tag, err := r.db(ctx).Exec(ctx,
		`UPDATE transactions SET session_id = $1, payment_intent_id = $2, updated_at = $3
		 WHERE id = $4 AND status = 'pending'`,
		sessionID, intentArg, time.Now(), id,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domainErrors.ErrDuplicatePaymentIntent
		}
		return fmt.Errorf("attach gateway reference: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrTransactionNotPending
	}
	return nil
}

// Update persists status, gateway references and failure reason.
func (r *TransactionRepository) Update(ctx context.Context, t *transaction.Transaction) error {
	metadata, err := json.Marshal(t.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	tag, err := r.db(ctx).Exec(ctx,
		`UPDATE transactions SET
		  status=$1, session_id=$2, payment_intent_id=$3, failure_reason=$4,
		  metadata=$5, updated_at=$6, completed_at=$7
		 WHERE id=$8`,
		string(t.Status), t.SessionID, t.PaymentIntentID, t.FailureReason,
		metadata, t.UpdatedAt, t.CompletedAt, t.ID,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domainErrors.ErrDuplicatePaymentIntent
		}
		return fmt.Errorf("update transaction: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domainErrors.ErrTransactionNotFound
	}
	return nil
}

// List lists transactions with optional filters.
func (r *TransactionRepository) List(ctx context.Context, f transaction.ListFilter) ([]*transaction.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE 1=1`
	args := []any{}
	argIdx := 1

	if f.PayerID != nil {
		query += fmt.Sprintf(" AND payer_id = $%d", argIdx)
		args = append(args, *f.PayerID)
		argIdx++
	}
	if f.ListingID != nil {
		query += fmt.Sprintf(" AND listing_id = $%d", argIdx)
		args = append(args, *f.ListingID)
		argIdx++
	}
	if f.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, string(*f.Status))
		argIdx++
	}
	if f.Type != nil {
		query += fmt.Sprintf(" AND transaction_type = $%d", argIdx)
		args = append(args, string(*f.Type))
		argIdx++
	}

	// Strict whitelist for sort column
	sortBy := "created_at"
	if col, ok := allowedSortColumns[f.SortBy]; ok {
		sortBy = col
	}
	sortOrder := "DESC"
	if strings.EqualFold(f.SortOrder, "asc") {
		sortOrder = "ASC"
	}
	query += fmt.Sprintf(" ORDER BY %s %s", sortBy, sortOrder)

	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argIdx, argIdx+1)
	args = append(args, limit, f.Offset)

	rows, err := r.db(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []*transaction.Transaction
	for rows.Next() {
		t, err := r.scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

// ListExpiredPending returns pending transactions created before the cutoff,
// oldest first. The sweep worker feeds on this.
func (r *TransactionRepository) ListExpiredPending(ctx context.Context, cutoff time.Time, limit int) ([]*transaction.Transaction, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db(ctx).Query(ctx,
		`SELECT `+transactionColumns+`
		 FROM transactions
		 WHERE status = 'pending' AND created_at < $1
		 ORDER BY created_at ASC
		 LIMIT $2`, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("list expired pending: %w", err)
	}
	defer rows.Close()

	var transactions []*transaction.Transaction
	for rows.Next() {
		t, err := r.scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

// scanTransaction scans a transaction from any source implementing scanner.
func (r *TransactionRepository) scanTransaction(s scanner) (*transaction.Transaction, error) {
	t := &transaction.Transaction{Metadata: make(map[string]any)}
	var (
		txType   string
		status   string
		metadata []byte
	)
	err := s.Scan(
		&t.ID, &t.PayerID, &txType, &t.AmountCents, &t.Currency, &status,
		&t.ListingID, &t.BookingID, &t.EscrowID, &t.SessionID, &t.PaymentIntentID,
		&t.FailureReason, &metadata, &t.CreatedAt, &t.UpdatedAt, &t.CompletedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domainErrors.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("scan transaction: %w", err)
	}

	t.Type = transaction.Type(txType)
	t.Status = transaction.Status(status)
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &t.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshal transaction metadata: %w", err)
		}
	}
	return t, nil
}
