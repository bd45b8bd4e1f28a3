package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rollingbite/checkout/internal/domain/booking"
	domainErrors "github.com/rollingbite/checkout/internal/domain/errors"
	"github.com/rollingbite/checkout/internal/domain/escrow"
	"github.com/rollingbite/checkout/internal/domain/event"
	"github.com/rollingbite/checkout/internal/domain/listing"
	"github.com/rollingbite/checkout/internal/domain/payout"
	"github.com/rollingbite/checkout/internal/domain/transaction"
)

// --- Listing Repository Mock ---

// MockListingRepository is a mock implementation of listing.Repository.
type MockListingRepository struct {
	mu       sync.Mutex
	listings map[uuid.UUID]*listing.Listing

	GetByIDFunc func(ctx context.Context, id uuid.UUID) (*listing.Listing, error)
}

func NewMockListingRepository() *MockListingRepository {
	return &MockListingRepository{listings: make(map[uuid.UUID]*listing.Listing)}
}

func (m *MockListingRepository) Add(l *listing.Listing) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listings[l.ID] = l
}

func (m *MockListingRepository) GetByID(ctx context.Context, id uuid.UUID) (*listing.Listing, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.listings[id]
	if !ok {
		return nil, domainErrors.ErrListingNotFound
	}
	return l, nil
}

// --- Payout Repository Mock ---

// MockPayoutRepository is a mock implementation of payout.Repository.
type MockPayoutRepository struct {
	mu       sync.Mutex
	accounts []*payout.Account

	GetVerifiedByOwnerFunc func(ctx context.Context, ownerID uuid.UUID) (*payout.Account, error)
}

func NewMockPayoutRepository() *MockPayoutRepository {
	return &MockPayoutRepository{}
}

func (m *MockPayoutRepository) Add(a *payout.Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts = append(m.accounts, a)
}

func (m *MockPayoutRepository) GetVerifiedByOwner(ctx context.Context, ownerID uuid.UUID) (*payout.Account, error) {
	if m.GetVerifiedByOwnerFunc != nil {
		return m.GetVerifiedByOwnerFunc(ctx, ownerID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var best *payout.Account
	for _, a := range m.accounts {
		if a.OwnerID != ownerID || !a.IsVerified() {
			continue
		}
		if best == nil || (a.VerifiedAt != nil && best.VerifiedAt != nil && a.VerifiedAt.After(*best.VerifiedAt)) {
			best = a
		}
	}
	if best == nil {
		return nil, domainErrors.ErrRecipientNotConnected
	}
	return best, nil
}

// --- Booking Repository Mock ---

// MockBookingRepository is a mock implementation of booking.Repository.
type MockBookingRepository struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*booking.Booking

	CreateFunc func(ctx context.Context, b *booking.Booking) error
}

func NewMockBookingRepository() *MockBookingRepository {
	return &MockBookingRepository{bookings: make(map[uuid.UUID]*booking.Booking)}
}

func (m *MockBookingRepository) Create(ctx context.Context, b *booking.Booking) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, b)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings[b.ID] = b
	return nil
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return nil, domainErrors.ErrBookingNotFound
	}
	return b, nil
}

func (m *MockBookingRepository) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status booking.PaymentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bookings[id]
	if !ok {
		return domainErrors.ErrBookingNotFound
	}
	b.PaymentStatus = status
	return nil
}

func (m *MockBookingRepository) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.bookings)
}

// --- Escrow Repository Mock ---

// MockEscrowRepository is a mock implementation of escrow.Repository.
type MockEscrowRepository struct {
	mu      sync.Mutex
	escrows map[uuid.UUID]*escrow.Escrow

	CreateFunc func(ctx context.Context, e *escrow.Escrow) error
	UpdateFunc func(ctx context.Context, e *escrow.Escrow) error
}

func NewMockEscrowRepository() *MockEscrowRepository {
	return &MockEscrowRepository{escrows: make(map[uuid.UUID]*escrow.Escrow)}
}

func (m *MockEscrowRepository) Create(ctx context.Context, e *escrow.Escrow) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, e)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.escrows[e.ID] = e
	return nil
}

func (m *MockEscrowRepository) GetByID(ctx context.Context, id uuid.UUID) (*escrow.Escrow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.escrows[id]
	if !ok {
		return nil, domainErrors.ErrEscrowNotFound
	}
	return e, nil
}

func (m *MockEscrowRepository) Update(ctx context.Context, e *escrow.Escrow) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, e)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.escrows[e.ID]; !ok {
		return domainErrors.ErrEscrowNotFound
	}
	m.escrows[e.ID] = e
	return nil
}

func (m *MockEscrowRepository) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.escrows)
}

// --- Transaction Repository Mock ---

// MockTransactionRepository is a mock implementation of
// transaction.Repository. It enforces the same uniqueness rules as the
// PostgreSQL schema: one pending transaction per payer and listing, and one
// transaction per gateway payment intent.
type MockTransactionRepository struct {
	mu           sync.Mutex
	transactions map[uuid.UUID]*transaction.Transaction

	CreateFunc func(ctx context.Context, t *transaction.Transaction) error
	UpdateFunc func(ctx context.Context, t *transaction.Transaction) error
}

func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{transactions: make(map[uuid.UUID]*transaction.Transaction)}
}

func (m *MockTransactionRepository) Create(ctx context.Context, t *transaction.Transaction) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, t)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.transactions {
		if existing.Status == transaction.StatusPending &&
			existing.PayerID == t.PayerID && existing.ListingID == t.ListingID {
			return domainErrors.ErrDuplicatePendingTransaction
		}
		if t.PaymentIntentID != nil && existing.PaymentIntentID != nil &&
			*existing.PaymentIntentID == *t.PaymentIntentID {
			return domainErrors.ErrDuplicatePaymentIntent
		}
	}
	m.transactions[t.ID] = t
	return nil
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*transaction.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.transactions[id]
	if !ok {
		return nil, domainErrors.ErrTransactionNotFound
	}
	return t, nil
}

func (m *MockTransactionRepository) GetByPaymentIntentID(ctx context.Context, paymentIntentID string) (*transaction.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.transactions {
		if t.PaymentIntentID != nil && *t.PaymentIntentID == paymentIntentID {
			return t, nil
		}
	}
	return nil, domainErrors.ErrTransactionNotFound
}

func (m *MockTransactionRepository) GetBySessionID(ctx context.Context, sessionID string) (*transaction.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.transactions {
		if t.SessionID != nil && *t.SessionID == sessionID {
			return t, nil
		}
	}
	return nil, domainErrors.ErrTransactionNotFound
}

func (m *MockTransactionRepository) GetByEscrowID(ctx context.Context, escrowID uuid.UUID) (*transaction.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.transactions {
		if t.EscrowID != nil && *t.EscrowID == escrowID {
			return t, nil
		}
	}
	return nil, domainErrors.ErrTransactionNotFound
}

func (m *MockTransactionRepository) AttachGatewayReference(ctx context.Context, id uuid.UUID, sessionID, paymentIntentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.transactions[id]
	if !ok || t.Status != transaction.StatusPending {
		return domainErrors.ErrTransactionNotPending
	}
	t.SessionID = &sessionID
	if paymentIntentID != "" {
		t.PaymentIntentID = &paymentIntentID
	}
	return nil
}

func (m *MockTransactionRepository) Update(ctx context.Context, t *transaction.Transaction) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, t)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.transactions[t.ID]; !ok {
		return domainErrors.ErrTransactionNotFound
	}
	m.transactions[t.ID] = t
	return nil
}

func (m *MockTransactionRepository) List(ctx context.Context, filter transaction.ListFilter) ([]*transaction.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*transaction.Transaction
	for _, t := range m.transactions {
		if filter.PayerID != nil && t.PayerID != *filter.PayerID {
			continue
		}
		if filter.ListingID != nil && t.ListingID != *filter.ListingID {
			continue
		}
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		if filter.Type != nil && t.Type != *filter.Type {
			continue
		}
		result = append(result, t)
	}
	return result, nil
}

func (m *MockTransactionRepository) ListExpiredPending(ctx context.Context, cutoff time.Time, limit int) ([]*transaction.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*transaction.Transaction
	for _, t := range m.transactions {
		if t.Status == transaction.StatusPending && t.CreatedAt.Before(cutoff) {
			result = append(result, t)
		}
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result, nil
}

func (m *MockTransactionRepository) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.transactions)
}

// --- Gateway Event Repository Mock ---

// MockEventRepository is a mock implementation of event.Repository with the
// same gateway-event-id dedupe as the PostgreSQL schema.
type MockEventRepository struct {
	mu     sync.Mutex
	events map[string]*event.GatewayEvent
}

func NewMockEventRepository() *MockEventRepository {
	return &MockEventRepository{events: make(map[string]*event.GatewayEvent)}
}

func (m *MockEventRepository) Insert(ctx context.Context, e *event.GatewayEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[e.GatewayEventID]; ok {
		return domainErrors.ErrEventAlreadyProcessed
	}
	m.events[e.GatewayEventID] = e
	return nil
}

func (m *MockEventRepository) GetByGatewayEventID(ctx context.Context, gatewayEventID string) (*event.GatewayEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[gatewayEventID]
	if !ok {
		return nil, nil
	}
	return e, nil
}

func (m *MockEventRepository) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events {
		if e.ID == id {
			now := time.Now()
			e.ProcessedAt = &now
			return nil
		}
	}
	return nil
}

func (m *MockEventRepository) IncrementFailure(ctx context.Context, id uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.events {
		if e.ID == id {
			e.FailureCount++
			return e.FailureCount, nil
		}
	}
	return 0, nil
}

// --- Transaction Manager Mock ---

// MockTxManager runs the function directly without a database transaction.
type MockTxManager struct {
	WithTransactionFunc func(ctx context.Context, fn func(ctx context.Context) error) error
}

func NewMockTxManager() *MockTxManager {
	return &MockTxManager{}
}

func (m *MockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.WithTransactionFunc != nil {
		return m.WithTransactionFunc(ctx, fn)
	}
	return fn(ctx)
}

// --- Event Publisher Mock ---

// PublishedEvent records one call to the publisher.
type PublishedEvent struct {
	TransactionID string
	EventType     string
	Data          map[string]any
}

// MockPublisher is a mock implementation of checkout.EventPublisher.
type MockPublisher struct {
	mu     sync.Mutex
	Events []PublishedEvent

	PublishFunc func(ctx context.Context, transactionID string, eventType string, data map[string]any) error
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) PublishCheckoutEvent(ctx context.Context, transactionID string, eventType string, data map[string]any) error {
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, transactionID, eventType, data)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, PublishedEvent{TransactionID: transactionID, EventType: eventType, Data: data})
	return nil
}
