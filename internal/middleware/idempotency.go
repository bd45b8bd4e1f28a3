package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rollingbite/checkout/internal/repository/postgres"
)

const maxIdempotencyBodySize = 1 << 20

// IdempotencyStore persists cached responses keyed by idempotency key.
// Get returns (nil, nil) on a miss.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) (*postgres.IdempotencyEntry, error)
	Set(ctx context.Context, entry *postgres.IdempotencyEntry) error
}

// Idempotency replays the cached response when a request carries an
// Idempotency-Key header already seen. Reusing a key with a different
// request body is rejected rather than replayed, so a stale key cannot
// silently return the wrong checkout.
func Idempotency(idempotencyRepo IdempotencyStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("Idempotency-Key")
			if key == "" {
				next.ServeHTTP(w, r)
				return
			}

			body, err := io.ReadAll(io.LimitReader(r.Body, maxIdempotencyBodySize))
			if err != nil {
				http.Error(w, "failed to read request body", http.StatusBadRequest)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
			requestHash := hashBody(body)

			entry, err := idempotencyRepo.Get(r.Context(), key)
			if err == nil && entry != nil {
				if entry.RequestHash != "" && entry.RequestHash != requestHash {
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusConflict)
					json.NewEncoder(w).Encode(map[string]string{
						"error": "idempotency key reused with a different request body",
						"code":  "idempotency_key_reuse",
					})
					return
				}
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("X-Idempotency-Replayed", "true")
				w.WriteHeader(entry.ResponseStatus)
				w.Write([]byte(entry.ResponseBody))
				return
			}

			rec := &responseRecorder{ResponseWriter: w, body: &bytes.Buffer{}, statusCode: http.StatusOK}
			next.ServeHTTP(rec, r)

			// A truncated body would replay as a corrupt response, so
			// oversized responses are never cached.
			if rec.statusCode >= 200 && rec.statusCode < 500 && !rec.bodyTruncated {
				now := time.Now()
				idempotencyRepo.Set(r.Context(), &postgres.IdempotencyEntry{
					Key:            key,
					RequestHash:    requestHash,
					ResponseBody:   rec.body.String(),
					ResponseStatus: rec.statusCode,
					CreatedAt:      now,
					ExpiresAt:      now.Add(24 * time.Hour),
				})
			}
		})
	}
}

func hashBody(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

type responseRecorder struct {
	http.ResponseWriter
	statusCode    int
	body          *bytes.Buffer
	bodyTruncated bool
}

func (r *responseRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	if !r.bodyTruncated {
		if r.body.Len()+len(b) > maxIdempotencyBodySize {
			r.bodyTruncated = true
		} else {
			r.body.Write(b)
		}
	}
	return r.ResponseWriter.Write(b)
}
