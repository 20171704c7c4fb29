package store

import (
	"context"
	"errors"
	"time"
)

// License status values. Verification treats anything other than
// StatusActive as a rejection, surfacing the stored value verbatim.
const (
	StatusActive    = "ACTIVE"
	StatusSuspended = "SUSPENDED"
	StatusRevoked   = "REVOKED"
)

// Sentinel errors shared by all store implementations.
var (
	// ErrNotFound reports that no record matches the given key. It is a
	// normal negative result, not a store failure.
	ErrNotFound = errors.New("record not found")

	// ErrAlreadyExists reports a unique-key conflict on insert.
	ErrAlreadyExists = errors.New("record already exists")
)

// LicenseRecord is the durable authorization unit keyed by license key.
// HWID is empty until an agent binds it on first verification; after that
// it only changes through an admin reset.
type LicenseRecord struct {
	LicenseKey string     `json:"license_key"`
	Status     string     `json:"status"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	HWID       string     `json:"hwid,omitempty"`
	LastSeen   *time.Time `json:"last_seen,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// CustomerRecord is a console account tied to a license key.
type CustomerRecord struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	LicenseKey   string    `json:"license_key"`
	CreatedAt    time.Time `json:"created_at"`
}

// Store is the external record store consumed by the verification and
// admin layers. Implementations must return ErrNotFound for missing
// records and ErrAlreadyExists for insert conflicts; any other error is
// treated as the store being unavailable.
type Store interface {
	GetLicense(ctx context.Context, key string) (*LicenseRecord, error)
	InsertLicense(ctx context.Context, rec *LicenseRecord) error
	UpdateLicenseHWID(ctx context.Context, key, hwid string) error
	UpdateLicenseLastSeen(ctx context.Context, key string, seen time.Time) error
	UpdateLicenseStatus(ctx context.Context, key, status string) error
	ListLicenses(ctx context.Context) ([]*LicenseRecord, error)

	GetCustomer(ctx context.Context, username string) (*CustomerRecord, error)
	InsertCustomer(ctx context.Context, rec *CustomerRecord) error
}
