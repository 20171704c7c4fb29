// Package domain contains the core domain models shared by the GhostGuard
// server and its client SDKs. These types define the wire shapes; server
// internals map their own records onto them at the transport boundary.
package domain

import (
	"time"
)

// LicenseStatus represents the stored status of a license. Verification
// accepts only StatusActive; any other stored value is surfaced verbatim
// as the rejection reason.
type LicenseStatus string

const (
	LicenseStatusActive    LicenseStatus = "ACTIVE"
	LicenseStatusSuspended LicenseStatus = "SUSPENDED"
	LicenseStatusRevoked   LicenseStatus = "REVOKED"
)

// LicenseDuration represents the duration type of a license
type LicenseDuration string

const (
	LicenseDurationMonthly   LicenseDuration = "monthly"
	LicenseDurationQuarterly LicenseDuration = "quarterly"
	LicenseDurationYearly    LicenseDuration = "yearly"
	LicenseDurationLifetime  LicenseDuration = "lifetime"
)

// ExpiryFromDuration returns the expiry for a license minted now with the
// given duration. Lifetime licenses have no expiry (nil).
func ExpiryFromDuration(d LicenseDuration, now time.Time) *time.Time {
	var expires time.Time
	switch d {
	case LicenseDurationMonthly:
		expires = now.AddDate(0, 1, 0)
	case LicenseDurationQuarterly:
		expires = now.AddDate(0, 3, 0)
	case LicenseDurationYearly:
		expires = now.AddDate(1, 0, 0)
	default:
		return nil
	}
	return &expires
}

// License is the administrative view of one license record.
type License struct {
	LicenseKey string        `json:"license_key"`
	Status     LicenseStatus `json:"status"`
	ExpiresAt  *time.Time    `json:"expires_at,omitempty"`
	HWID       string        `json:"hwid,omitempty"`
	LastSeen   *time.Time    `json:"last_seen,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
}

// Customer is the console account view returned by the auth surface.
// Password material never crosses the wire.
type Customer struct {
	Username   string    `json:"username"`
	LicenseKey string    `json:"license_key"`
	CreatedAt  time.Time `json:"created_at"`
}

// Verification rejection reasons. The set is open-ended: a non-ACTIVE
// stored status is returned as-is, so consumers should treat unknown
// reasons as rejections rather than errors.
const (
	ReasonMissingKey   = "MISSING_KEY"
	ReasonNotFound     = "NOT_FOUND"
	ReasonExpired      = "EXPIRED"
	ReasonHWIDMismatch = "HWID_MISMATCH"
	ReasonUnavailable  = "UNAVAILABLE"
)
