package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store implementation. It backs tests and
// standalone runs where no external registry is configured.
type MemoryStore struct {
	mu        sync.RWMutex
	licenses  map[string]*LicenseRecord
	customers map[string]*CustomerRecord
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		licenses:  make(map[string]*LicenseRecord),
		customers: make(map[string]*CustomerRecord),
	}
}

// GetLicense retrieves a license by key.
func (s *MemoryStore) GetLicense(ctx context.Context, key string) (*LicenseRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.licenses[key]
	if !ok {
		return nil, ErrNotFound
	}

	// Return a copy to prevent external modification
	recCopy := *rec
	return &recCopy, nil
}

// InsertLicense stores a new license record.
func (s *MemoryStore) InsertLicense(ctx context.Context, rec *LicenseRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.licenses[rec.LicenseKey]; exists {
		return ErrAlreadyExists
	}

	recCopy := *rec
	if recCopy.CreatedAt.IsZero() {
		recCopy.CreatedAt = time.Now()
	}
	s.licenses[rec.LicenseKey] = &recCopy
	return nil
}

// UpdateLicenseHWID sets the bound device id. An empty hwid clears the
// binding (admin reset).
func (s *MemoryStore) UpdateLicenseHWID(ctx context.Context, key, hwid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.licenses[key]
	if !ok {
		return ErrNotFound
	}
	rec.HWID = hwid
	return nil
}

// UpdateLicenseLastSeen stamps the last verification time.
func (s *MemoryStore) UpdateLicenseLastSeen(ctx context.Context, key string, seen time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.licenses[key]
	if !ok {
		return ErrNotFound
	}
	seenCopy := seen
	rec.LastSeen = &seenCopy
	return nil
}

// UpdateLicenseStatus changes the license status.
func (s *MemoryStore) UpdateLicenseStatus(ctx context.Context, key, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.licenses[key]
	if !ok {
		return ErrNotFound
	}
	rec.Status = status
	return nil
}

// ListLicenses returns all licenses ordered by creation time, newest first.
func (s *MemoryStore) ListLicenses(ctx context.Context) ([]*LicenseRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*LicenseRecord, 0, len(s.licenses))
	for _, rec := range s.licenses {
		recCopy := *rec
		result = append(result, &recCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// GetCustomer retrieves a customer account by username.
func (s *MemoryStore) GetCustomer(ctx context.Context, username string) (*CustomerRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.customers[username]
	if !ok {
		return nil, ErrNotFound
	}

	recCopy := *rec
	return &recCopy, nil
}

// InsertCustomer stores a new customer account.
func (s *MemoryStore) InsertCustomer(ctx context.Context, rec *CustomerRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.customers[rec.Username]; exists {
		return ErrAlreadyExists
	}

	recCopy := *rec
	if recCopy.CreatedAt.IsZero() {
		recCopy.CreatedAt = time.Now()
	}
	s.customers[rec.Username] = &recCopy
	return nil
}
