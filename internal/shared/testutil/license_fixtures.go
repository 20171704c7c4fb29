package testutil

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/realghost120/ghostgaurd-becakd/internal/license"
	"github.com/realghost120/ghostgaurd-becakd/internal/store"
)

// Registry record fixtures. Every record carries a freshly generated,
// checksum-valid key; surfaces that run keys through the format check
// reject hand-typed constants, so fixtures never hardcode key material.

// fixtureEpoch anchors creation stamps a day in the past so fixture
// records never sort ahead of records a test mints through the real
// admin path.
var fixtureEpoch = time.Now().UTC().Add(-24 * time.Hour)

var fixtureSeq atomic.Int64

// NewLicenseRecord returns a registry record ready to insert. Creation
// stamps advance one second per record, so listing order stays
// deterministic even when the wall clock does not move between mints.
func NewLicenseRecord(t *testing.T, status, hwid string, expires *time.Time) *store.LicenseRecord {
	t.Helper()

	key, err := license.GenerateKey()
	require.NoError(t, err)

	return &store.LicenseRecord{
		LicenseKey: key,
		Status:     status,
		ExpiresAt:  expires,
		HWID:       hwid,
		CreatedAt:  fixtureEpoch.Add(time.Duration(fixtureSeq.Add(1)) * time.Second),
	}
}

// ActiveLicense returns an unbound active license expiring in 30 days.
func ActiveLicense(t *testing.T) *store.LicenseRecord {
	return NewLicenseRecord(t, store.StatusActive, "", ExpiresIn(30*24*time.Hour))
}

// ExpiredLicense returns a license whose status is still ACTIVE but
// whose expiry passed ten days ago. The status stays active on purpose:
// expiry must be caught by the expiry check, not the status gate.
func ExpiredLicense(t *testing.T) *store.LicenseRecord {
	return NewLicenseRecord(t, store.StatusActive, "", ExpiredSince(10*24*time.Hour))
}

// SuspendedLicense returns a suspended license with time left on it.
func SuspendedLicense(t *testing.T) *store.LicenseRecord {
	return NewLicenseRecord(t, store.StatusSuspended, "", ExpiresIn(30*24*time.Hour))
}

// RevokedLicense returns a revoked license.
func RevokedLicense(t *testing.T) *store.LicenseRecord {
	return NewLicenseRecord(t, store.StatusRevoked, "", nil)
}

// LifetimeLicense returns an active license that never expires.
func LifetimeLicense(t *testing.T) *store.LicenseRecord {
	return NewLicenseRecord(t, store.StatusActive, "", nil)
}

// BoundLicense returns an active license already bound to hwid.
func BoundLicense(t *testing.T, hwid string) *store.LicenseRecord {
	return NewLicenseRecord(t, store.StatusActive, hwid, ExpiresIn(30*24*time.Hour))
}

// ExpiresIn returns an expiry d from now.
func ExpiresIn(d time.Duration) *time.Time {
	ts := time.Now().UTC().Add(d)
	return &ts
}

// ExpiredSince returns an expiry that passed d ago.
func ExpiredSince(d time.Duration) *time.Time {
	ts := time.Now().UTC().Add(-d)
	return &ts
}

// SeedLicenses inserts the records into st and returns their keys in
// insert order.
func SeedLicenses(t *testing.T, st store.Store, recs ...*store.LicenseRecord) []string {
	t.Helper()

	keys := make([]string, 0, len(recs))
	for _, rec := range recs {
		require.NoError(t, st.InsertLicense(context.Background(), rec))
		keys = append(keys, rec.LicenseKey)
	}
	return keys
}
