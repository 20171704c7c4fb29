package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Sheet layout, one row per record, header in row 1.
// Licenses tab:  LicenseKey | Status | ExpiresAt | HWID | LastSeen | CreatedAt
// Customers tab: Username | PasswordHash | LicenseKey | CreatedAt
const sheetTimeLayout = time.RFC3339

// SheetsConfig configures the Google Sheets registry backend.
type SheetsConfig struct {
	SpreadsheetID   string
	LicensesSheet   string
	CustomersSheet  string
	CredentialsFile string
	APIKey          string
}

// SheetsStore keeps the license registry in a Google Spreadsheet. Small
// fleets run their registry as a shared sheet; this adapter lets the same
// verification path serve them without a database.
type SheetsStore struct {
	service *sheets.Service
	cfg     SheetsConfig
}

// NewSheetsStore creates a Sheets-backed store. Authentication uses the
// service-account credentials file when configured, otherwise the API key.
func NewSheetsStore(ctx context.Context, cfg SheetsConfig) (*SheetsStore, error) {
	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("sheets store requires a spreadsheet id")
	}
	if cfg.LicensesSheet == "" {
		cfg.LicensesSheet = "Licenses"
	}
	if cfg.CustomersSheet == "" {
		cfg.CustomersSheet = "Customers"
	}

	var opts []option.ClientOption
	switch {
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	case cfg.APIKey != "":
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	default:
		return nil, fmt.Errorf("sheets store requires credentials file or API key")
	}

	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &SheetsStore{service: service, cfg: cfg}, nil
}

// GetLicense retrieves a license by key.
func (s *SheetsStore) GetLicense(ctx context.Context, key string) (*LicenseRecord, error) {
	rows, err := s.readRows(ctx, s.cfg.LicensesSheet)
	if err != nil {
		return nil, err
	}

	for i, row := range rows {
		if i == 0 {
			continue // Skip header row
		}
		if cellString(row, 0) == key {
			return parseLicenseRow(row), nil
		}
	}
	return nil, ErrNotFound
}

// InsertLicense appends a license row.
func (s *SheetsStore) InsertLicense(ctx context.Context, rec *LicenseRecord) error {
	if _, err := s.GetLicense(ctx, rec.LicenseKey); err == nil {
		return ErrAlreadyExists
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	valueRange := &sheets.ValueRange{Values: [][]interface{}{licenseRow(rec, createdAt)}}
	_, err := s.service.Spreadsheets.Values.
		Append(s.cfg.SpreadsheetID, s.cfg.LicensesSheet, valueRange).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to append license row: %w", err)
	}
	return nil
}

// UpdateLicenseHWID sets the bound device id for a license.
func (s *SheetsStore) UpdateLicenseHWID(ctx context.Context, key, hwid string) error {
	return s.updateLicense(ctx, key, func(rec *LicenseRecord) {
		rec.HWID = hwid
	})
}

// UpdateLicenseLastSeen stamps the last verification time.
func (s *SheetsStore) UpdateLicenseLastSeen(ctx context.Context, key string, seen time.Time) error {
	return s.updateLicense(ctx, key, func(rec *LicenseRecord) {
		seenCopy := seen
		rec.LastSeen = &seenCopy
	})
}

// UpdateLicenseStatus changes the license status.
func (s *SheetsStore) UpdateLicenseStatus(ctx context.Context, key, status string) error {
	return s.updateLicense(ctx, key, func(rec *LicenseRecord) {
		rec.Status = status
	})
}

// updateLicense rewrites the row for key after applying mutate. Sheets has
// no row-level transactions; concurrent writers follow last-writer-wins,
// same as the rest of the binding model.
func (s *SheetsStore) updateLicense(ctx context.Context, key string, mutate func(*LicenseRecord)) error {
	rows, err := s.readRows(ctx, s.cfg.LicensesSheet)
	if err != nil {
		return err
	}

	rowIndex := -1
	var rec *LicenseRecord
	for i, row := range rows {
		if i == 0 {
			continue // Skip header row
		}
		if cellString(row, 0) == key {
			rowIndex = i + 1 // Sheets ranges are 1-based
			rec = parseLicenseRow(row)
			break
		}
	}
	if rowIndex == -1 {
		return ErrNotFound
	}

	mutate(rec)

	rangeStr := fmt.Sprintf("%s!A%d:F%d", s.cfg.LicensesSheet, rowIndex, rowIndex)
	valueRange := &sheets.ValueRange{Values: [][]interface{}{licenseRow(rec, rec.CreatedAt)}}
	_, err = s.service.Spreadsheets.Values.
		Update(s.cfg.SpreadsheetID, rangeStr, valueRange).
		ValueInputOption("RAW").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to update license row: %w", err)
	}
	return nil
}

// ListLicenses returns all license rows.
func (s *SheetsStore) ListLicenses(ctx context.Context) ([]*LicenseRecord, error) {
	rows, err := s.readRows(ctx, s.cfg.LicensesSheet)
	if err != nil {
		return nil, err
	}

	var result []*LicenseRecord
	for i, row := range rows {
		if i == 0 || cellString(row, 0) == "" {
			continue
		}
		result = append(result, parseLicenseRow(row))
	}
	return result, nil
}

// GetCustomer retrieves a customer account by username.
func (s *SheetsStore) GetCustomer(ctx context.Context, username string) (*CustomerRecord, error) {
	rows, err := s.readRows(ctx, s.cfg.CustomersSheet)
	if err != nil {
		return nil, err
	}

	for i, row := range rows {
		if i == 0 {
			continue
		}
		if cellString(row, 0) == username {
			rec := &CustomerRecord{
				Username:     cellString(row, 0),
				PasswordHash: cellString(row, 1),
				LicenseKey:   cellString(row, 2),
			}
			if t, err := time.Parse(sheetTimeLayout, cellString(row, 3)); err == nil {
				rec.CreatedAt = t
			}
			return rec, nil
		}
	}
	return nil, ErrNotFound
}

// InsertCustomer appends a customer row.
func (s *SheetsStore) InsertCustomer(ctx context.Context, rec *CustomerRecord) error {
	if _, err := s.GetCustomer(ctx, rec.Username); err == nil {
		return ErrAlreadyExists
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}

	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	valueRange := &sheets.ValueRange{Values: [][]interface{}{{
		rec.Username,
		rec.PasswordHash,
		rec.LicenseKey,
		createdAt.UTC().Format(sheetTimeLayout),
	}}}
	_, err := s.service.Spreadsheets.Values.
		Append(s.cfg.SpreadsheetID, s.cfg.CustomersSheet, valueRange).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to append customer row: %w", err)
	}
	return nil
}

// Ping checks that the spreadsheet is reachable.
func (s *SheetsStore) Ping(ctx context.Context) error {
	_, err := s.service.Spreadsheets.
		Get(s.cfg.SpreadsheetID).
		Fields("spreadsheetId").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to reach spreadsheet: %w", err)
	}
	return nil
}

func (s *SheetsStore) readRows(ctx context.Context, sheet string) ([][]interface{}, error) {
	resp, err := s.service.Spreadsheets.Values.
		Get(s.cfg.SpreadsheetID, sheet).
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read from sheets: %w", err)
	}
	return resp.Values, nil
}

func licenseRow(rec *LicenseRecord, createdAt time.Time) []interface{} {
	expiresAt := ""
	if rec.ExpiresAt != nil {
		expiresAt = rec.ExpiresAt.UTC().Format(sheetTimeLayout)
	}
	lastSeen := ""
	if rec.LastSeen != nil {
		lastSeen = rec.LastSeen.UTC().Format(sheetTimeLayout)
	}
	return []interface{}{
		rec.LicenseKey,
		rec.Status,
		expiresAt,
		rec.HWID,
		lastSeen,
		createdAt.UTC().Format(sheetTimeLayout),
	}
}

func parseLicenseRow(row []interface{}) *LicenseRecord {
	rec := &LicenseRecord{
		LicenseKey: cellString(row, 0),
		Status:     cellString(row, 1),
		HWID:       cellString(row, 3),
	}
	if raw := cellString(row, 2); raw != "" {
		if t, err := time.Parse(sheetTimeLayout, raw); err == nil {
			rec.ExpiresAt = &t
		}
	}
	if raw := cellString(row, 4); raw != "" {
		if t, err := time.Parse(sheetTimeLayout, raw); err == nil {
			rec.LastSeen = &t
		}
	}
	if raw := cellString(row, 5); raw != "" {
		if t, err := time.Parse(sheetTimeLayout, raw); err == nil {
			rec.CreatedAt = t
		}
	}
	return rec
}

// cellString reads row[idx] as a string, tolerating short rows and
// non-string cells.
func cellString(row []interface{}, idx int) string {
	if idx >= len(row) {
		return ""
	}
	s, _ := row[idx].(string)
	return s
}
