package agent

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Grant is the signed authorization an agent holds after a successful
// verification. The payload is opaque pipe-delimited text; the signature
// is HMAC-SHA256 over exactly those bytes, so the payload must be stored
// and re-checked verbatim.
type Grant struct {
	Payload   string    `json:"payload"`
	Signature string    `json:"signature"`
	IssuedAt  time.Time `json:"issued_at"`
}

// Verify recomputes the signature under secret and compares it in
// constant time. It mirrors the server's issuer, so an agent deployed
// with the signing secret can check grant integrity offline.
func (g *Grant) Verify(secret string) bool {
	if g == nil || secret == "" || g.Signature == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(g.Payload))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(g.Signature))
}
