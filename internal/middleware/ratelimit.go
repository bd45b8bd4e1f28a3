package middleware

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/httprate"
)

// RateLimit throttles checkout traffic per caller. Authenticated requests
// are keyed by payer id so one tenant behind a shared NAT cannot drain the
// bucket for everyone else; anonymous requests fall back to the client IP.
func RateLimit(requestsPerMinute int) func(http.Handler) http.Handler {
	return httprate.Limit(
		requestsPerMinute,
		time.Minute,
		httprate.WithKeyFuncs(keyByPayerOrIP),
		httprate.WithLimitHandler(rateLimited),
	)
}

func keyByPayerOrIP(r *http.Request) (string, error) {
	if userID, ok := GetUserID(r.Context()); ok {
		return "payer:" + userID, nil
	}
	return httprate.KeyByIP(r)
}

func rateLimited(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	json.NewEncoder(w).Encode(map[string]string{
		"error": "rate limit exceeded",
		"code":  "rate_limit",
	})
}
