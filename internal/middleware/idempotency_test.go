package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/rollingbite/checkout/internal/middleware"
	"github.com/rollingbite/checkout/internal/repository/postgres"
)

type memoryIdempotencyStore struct {
	mu      sync.Mutex
	entries map[string]*postgres.IdempotencyEntry
}

func newMemoryIdempotencyStore() *memoryIdempotencyStore {
	return &memoryIdempotencyStore{entries: make(map[string]*postgres.IdempotencyEntry)}
}

func (s *memoryIdempotencyStore) Get(ctx context.Context, key string) (*postgres.IdempotencyEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[key], nil
}

func (s *memoryIdempotencyStore) Set(ctx context.Context, entry *postgres.IdempotencyEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.Key] = entry
	return nil
}

func countingHandler(calls *int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"transaction_id":"abc"}`))
	})
}

func TestIdempotency_NoKeyPassesThrough(t *testing.T) {
	store := newMemoryIdempotencyStore()
	calls := 0
	h := middleware.Idempotency(store)(countingHandler(&calls))

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(`{}`)))
		if w.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d", w.Code)
		}
	}
	if calls != 2 {
		t.Errorf("without a key every request must reach the handler, got %d calls", calls)
	}
	if len(store.entries) != 0 {
		t.Error("nothing may be cached without a key")
	}
}

func TestIdempotency_ReplaysCachedResponse(t *testing.T) {
	store := newMemoryIdempotencyStore()
	calls := 0
	h := middleware.Idempotency(store)(countingHandler(&calls))

	body := `{"listing_id":"l1"}`

	first := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(body))
	first.Header.Set("Idempotency-Key", "key-1")
	w1 := httptest.NewRecorder()
	h.ServeHTTP(w1, first)

	second := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(body))
	second.Header.Set("Idempotency-Key", "key-1")
	w2 := httptest.NewRecorder()
	h.ServeHTTP(w2, second)

	if calls != 1 {
		t.Errorf("handler must run once, got %d calls", calls)
	}
	if w2.Code != http.StatusCreated {
		t.Errorf("replay must return the original status, got %d", w2.Code)
	}
	if w2.Body.String() != w1.Body.String() {
		t.Error("replay must return the original body")
	}
	if w2.Header().Get("X-Idempotency-Replayed") != "true" {
		t.Error("replay must be marked")
	}
}

func TestIdempotency_KeyReuseWithDifferentBodyRejected(t *testing.T) {
	store := newMemoryIdempotencyStore()
	calls := 0
	h := middleware.Idempotency(store)(countingHandler(&calls))

	first := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(`{"listing_id":"l1"}`))
	first.Header.Set("Idempotency-Key", "key-1")
	h.ServeHTTP(httptest.NewRecorder(), first)

	second := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(`{"listing_id":"l2"}`))
	second.Header.Set("Idempotency-Key", "key-1")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, second)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "idempotency_key_reuse") {
		t.Errorf("expected reuse error code, got %s", w.Body.String())
	}
	if calls != 1 {
		t.Errorf("the mismatched request must not reach the handler, got %d calls", calls)
	}
}

func TestIdempotency_ServerErrorNotCached(t *testing.T) {
	store := newMemoryIdempotencyStore()
	h := middleware.Idempotency(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(`{}`))
	req.Header.Set("Idempotency-Key", "key-1")
	h.ServeHTTP(httptest.NewRecorder(), req)

	if len(store.entries) != 0 {
		t.Error("server errors must not be cached for replay")
	}
}

func TestIdempotency_OversizedResponseNotCached(t *testing.T) {
	store := newMemoryIdempotencyStore()
	calls := 0
	big := strings.Repeat("x", 1<<20+1)
	h := middleware.Idempotency(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Write([]byte(big))
	}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(`{}`))
		req.Header.Set("Idempotency-Key", "key-1")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		if w.Body.Len() != len(big) {
			t.Fatalf("response must pass through untruncated, got %d bytes", w.Body.Len())
		}
	}

	// Caching a truncated body would replay a corrupt response.
	if len(store.entries) != 0 {
		t.Error("oversized responses must not be cached")
	}
	if calls != 2 {
		t.Errorf("expected both requests to reach the handler, got %d calls", calls)
	}
}

func TestIdempotency_ClientErrorCached(t *testing.T) {
	store := newMemoryIdempotencyStore()
	calls := 0
	h := middleware.Idempotency(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"code":"duplicate_pending_transaction"}`))
	}))

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(`{}`))
		req.Header.Set("Idempotency-Key", "key-1")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		if w.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", w.Code)
		}
	}

	// A deterministic rejection is cached and replayed like a success.
	if calls != 1 {
		t.Errorf("expected 1 handler call, got %d", calls)
	}
}
