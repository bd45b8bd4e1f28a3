package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type contextKey string

const UserIDKey contextKey = "user_id"

// Claims carries the marketplace user identity. The user id lives in the
// standard subject claim; older tokens used a custom user_id claim instead.
type Claims struct {
	LegacyUserID string `json:"user_id,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) userID() string {
	if c.Subject != "" {
		return c.Subject
	}
	return c.LegacyUserID
}

// RequireAuth validates the bearer token and stores the payer id in the
// request context. Tokens whose subject is not a UUID are rejected, since
// every downstream lookup keys on one.
func RequireAuth(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeAuthError(w, "missing authorization header", "auth_required")
				return
			}

			tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				writeAuthError(w, "invalid authorization scheme", "auth_invalid_scheme")
				return
			}

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(tokenString, claims,
				func(token *jwt.Token) (interface{}, error) {
					return []byte(jwtSecret), nil
				},
				jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}),
			)
			if err != nil || !token.Valid {
				writeAuthError(w, "invalid token", "auth_invalid")
				return
			}

			userID := claims.userID()
			if _, err := uuid.Parse(userID); err != nil {
				writeAuthError(w, "invalid token subject", "auth_invalid")
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetUserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok
}

func writeAuthError(w http.ResponseWriter, msg, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{
		"error": msg,
		"code":  code,
	})
}
