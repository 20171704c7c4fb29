package license

import "errors"

// Rejection reasons carried by verification decisions. A license whose
// stored status is not ACTIVE is rejected with that status value verbatim,
// so the full reason set is open-ended.
const (
	ReasonMissingKey   = "MISSING_KEY"
	ReasonNotFound     = "NOT_FOUND"
	ReasonExpired      = "EXPIRED"
	ReasonHWIDMismatch = "HWID_MISMATCH"
	ReasonUnavailable  = "UNAVAILABLE"
)

// ErrMissingSigningSecret reports that the issuer was constructed without
// a signing secret. Startup must treat this as fatal: tokens cannot be
// served without it.
var ErrMissingSigningSecret = errors.New("signing secret is not configured")

// MaskKey returns a log-safe form of a license key.
func MaskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "****" + key[len(key)-4:]
}
