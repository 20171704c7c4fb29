package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	apierrors "github.com/realghost120/ghostgaurd-becakd/internal/errors"
	"github.com/realghost120/ghostgaurd-becakd/internal/exporter"
	"github.com/realghost120/ghostgaurd-becakd/internal/infrastructure"
	"github.com/realghost120/ghostgaurd-becakd/internal/license"
	"github.com/realghost120/ghostgaurd-becakd/internal/store"
	"github.com/realghost120/ghostgaurd-becakd/pkg/contracts/domain"
)

// keyRetryAttempts bounds regeneration when a freshly minted key collides.
const keyRetryAttempts = 5

// AdminService covers the operator surface: issuing licenses, changing
// their status, resetting bindings and exporting the registry.
type AdminService interface {
	CreateLicense(ctx context.Context, duration string) (*store.LicenseRecord, error)
	ListLicenses(ctx context.Context, status string, limit int) ([]*store.LicenseRecord, error)
	UpdateStatus(ctx context.Context, key, status string) (*store.LicenseRecord, error)
	ResetHWID(ctx context.Context, key string) (*store.LicenseRecord, error)
	ExportLicenses(ctx context.Context) (*excelize.File, error)
}

type adminService struct {
	store  store.Store
	export *exporter.LicenseExporter
	logger *slog.Logger
	now    func() time.Time
}

// NewAdminService creates an admin service over st.
func NewAdminService(st store.Store, logger *slog.Logger) AdminService {
	if logger == nil {
		logger = slog.Default()
	}
	return &adminService{
		store:  st,
		export: exporter.NewLicenseExporter(),
		logger: logger.With(slog.String("service", "admin")),
		now:    time.Now,
	}
}

// CreateLicense mints a fresh ACTIVE license with an expiry derived from
// duration (monthly, quarterly, yearly or lifetime) and stores it.
func (s *adminService) CreateLicense(ctx context.Context, duration string) (*store.LicenseRecord, error) {
	d := domain.LicenseDuration(duration)
	switch d {
	case domain.LicenseDurationMonthly, domain.LicenseDurationQuarterly,
		domain.LicenseDurationYearly, domain.LicenseDurationLifetime:
	default:
		return nil, ErrInvalidDuration
	}

	now := s.now().UTC()
	rec := &store.LicenseRecord{
		Status:    store.StatusActive,
		ExpiresAt: domain.ExpiryFromDuration(d, now),
		CreatedAt: now,
	}

	// Key collisions are vanishingly rare but cheap to retry
	for attempt := 0; attempt < keyRetryAttempts; attempt++ {
		key, err := license.GenerateKey()
		if err != nil {
			return nil, fmt.Errorf("failed to generate key: %w", err)
		}
		rec.LicenseKey = key

		err = s.store.InsertLicense(ctx, rec)
		if errors.Is(err, store.ErrAlreadyExists) {
			continue
		}
		if err != nil {
			infrastructure.RecordError(ctx, err)
			s.logger.ErrorContext(ctx, "license insert failed",
				slog.String("error", err.Error()))
			return nil, fmt.Errorf("failed to store license: %w", err)
		}

		s.auditEvent(ctx, "create", key, duration)
		s.logger.InfoContext(ctx, "license created",
			slog.String("license_key", license.MaskKey(key)),
			slog.String("duration", duration))
		return rec, nil
	}
	return nil, fmt.Errorf("failed to mint a unique key after %d attempts", keyRetryAttempts)
}

// ListLicenses returns registry rows, optionally filtered by status and
// truncated to limit (0 = no limit).
func (s *adminService) ListLicenses(ctx context.Context, status string, limit int) ([]*store.LicenseRecord, error) {
	records, err := s.store.ListLicenses(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "license listing failed",
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list licenses: %w", err)
	}

	if status != "" {
		filtered := records[:0]
		for _, rec := range records {
			if rec.Status == status {
				filtered = append(filtered, rec)
			}
		}
		records = filtered
	}
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// UpdateStatus sets the stored status for key. The value is surfaced
// verbatim as the rejection reason on later verifications, so only the
// known states are accepted.
func (s *adminService) UpdateStatus(ctx context.Context, key, status string) (*store.LicenseRecord, error) {
	switch status {
	case store.StatusActive, store.StatusSuspended, store.StatusRevoked:
	default:
		return nil, ErrInvalidStatus
	}

	if err := s.store.UpdateLicenseStatus(ctx, key, status); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apierrors.ErrKeyNotFound
		}
		infrastructure.RecordError(ctx, err)
		s.logger.ErrorContext(ctx, "status update failed",
			slog.String("license_key", license.MaskKey(key)),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to update status: %w", err)
	}

	s.auditEvent(ctx, "update_status", key, status)
	s.logger.InfoContext(ctx, "license status updated",
		slog.String("license_key", license.MaskKey(key)),
		slog.String("status", status))
	return s.load(ctx, key)
}

// ResetHWID clears the hardware binding for key. This is the only
// sanctioned way a bound license moves to new hardware.
func (s *adminService) ResetHWID(ctx context.Context, key string) (*store.LicenseRecord, error) {
	if err := s.store.UpdateLicenseHWID(ctx, key, ""); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apierrors.ErrKeyNotFound
		}
		infrastructure.RecordError(ctx, err)
		s.logger.ErrorContext(ctx, "hwid reset failed",
			slog.String("license_key", license.MaskKey(key)),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to reset hwid: %w", err)
	}

	s.auditEvent(ctx, "reset_hwid", key, "")
	s.logger.InfoContext(ctx, "license hwid reset",
		slog.String("license_key", license.MaskKey(key)))
	return s.load(ctx, key)
}

// auditEvent marks the current trace with an admin mutation so registry
// changes can be tied back to the request that made them.
func (s *adminService) auditEvent(ctx context.Context, action, key, detail string) {
	attrs := map[string]interface{}{
		"action":      action,
		"license_key": license.MaskKey(key),
	}
	if detail != "" {
		attrs["detail"] = detail
	}
	infrastructure.AddSpanEvent(ctx, "license.audit", attrs)
}

func (s *adminService) load(ctx context.Context, key string) (*store.LicenseRecord, error) {
	rec, err := s.store.GetLicense(ctx, key)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apierrors.ErrKeyNotFound
		}
		return nil, fmt.Errorf("failed to load license: %w", err)
	}
	return rec, nil
}

// ExportLicenses renders the whole registry as an xlsx workbook for
// download. Callers own closing the returned file.
func (s *adminService) ExportLicenses(ctx context.Context) (*excelize.File, error) {
	records, err := s.store.ListLicenses(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "license export failed",
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %v", ErrExportFailed, err)
	}

	f, err := s.export.ExportWorkbook(records)
	if err != nil {
		s.logger.ErrorContext(ctx, "workbook rendering failed",
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %v", ErrExportFailed, err)
	}

	s.logger.InfoContext(ctx, "license registry exported",
		slog.Int("count", len(records)))
	return f, nil
}
