package license

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Token is the signed proof handed to an agent after a successful
// verification. The agent stores it and recomputes the signature over the
// exact payload bytes to check integrity offline. Tokens are not
// persisted server-side and carry no freshness window of their own.
type Token struct {
	Payload   string    `json:"payload"`
	Signature string    `json:"signature"`
	IssuedAt  time.Time `json:"issued_at"`
}

// Issuer signs verification payloads with HMAC-SHA256 over a canonical
// encoding. Two calls with identical inputs still produce distinct
// signatures because issued_at varies; that is intended, tokens are not
// idempotent.
type Issuer struct {
	secret []byte
	now    func() time.Time
}

// NewIssuer creates a token issuer. An empty secret is refused so a
// misconfigured process can never sign anything.
func NewIssuer(secret string) (*Issuer, error) {
	if secret == "" {
		return nil, ErrMissingSigningSecret
	}
	return &Issuer{
		secret: []byte(secret),
		now:    time.Now,
	}, nil
}

// Issue builds the canonical payload for the given license fields and
// signs it.
func (i *Issuer) Issue(licenseKey, status string, expiresAt *time.Time) Token {
	issuedAt := i.now().UTC()
	payload := encodePayload(licenseKey, status, expiresAt, issuedAt)
	return Token{
		Payload:   payload,
		Signature: i.sign(payload),
		IssuedAt:  issuedAt,
	}
}

// Verify reports whether signature matches payload under this issuer's
// secret. Comparison is constant time.
func (i *Issuer) Verify(payload, signature string) bool {
	return hmac.Equal([]byte(i.sign(payload)), []byte(signature))
}

// encodePayload produces the canonical, field-order-fixed encoding. HMAC
// is order-sensitive: an agent recomputing the signature must reproduce
// these exact bytes, so the field order and layouts must never change.
func encodePayload(licenseKey, status string, expiresAt *time.Time, issuedAt time.Time) string {
	expires := ""
	if expiresAt != nil {
		expires = expiresAt.UTC().Format(time.RFC3339)
	}
	return fmt.Sprintf("%s|%s|%s|%s", licenseKey, status, expires, issuedAt.Format(time.RFC3339Nano))
}

func (i *Issuer) sign(payload string) string {
	h := hmac.New(sha256.New, i.secret)
	h.Write([]byte(payload))
	return hex.EncodeToString(h.Sum(nil))
}
