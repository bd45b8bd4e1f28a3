package checkout

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Operation names the checkout flow an idempotency key belongs to.
type Operation string

const (
	OpRentalCheckout Operation = "rental_checkout"
	OpSaleCheckout   Operation = "sale_checkout"
)

// IdempotencyKey derives a stable gateway idempotency key from the operation,
// the subject listing, the acting user, and a client-supplied request nonce.
// Retries of the same logical attempt (same nonce) reuse the key, so the
// gateway will not create a second session for one user action. When the
// client sends no nonce, the caller passes a hash of the canonical request
// fields instead, which is idempotent by construction for a double-submit of
// identical content. No time bucket is involved.
func IdempotencyKey(op Operation, listingID, actorID uuid.UUID, nonce string) string {
	h := sha256.Sum256(fmt.Appendf(nil, "%s|%s|%s|%s", op, listingID, actorID, nonce))
	return string(op) + "_" + hex.EncodeToString(h[:16])
}

// RequestFingerprint hashes the canonical request fields, for use as the
// nonce when the client did not supply one. Fields must be passed in a fixed
// order by the caller.
func RequestFingerprint(fields ...string) string {
	h := sha256.Sum256([]byte(strings.Join(fields, "|")))
	return hex.EncodeToString(h[:])
}
