package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore is a PostgreSQL-backed Store.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore connects to PostgreSQL, verifies connectivity and creates the
// schema if it does not exist.
func NewPGStore(ctx context.Context, databaseURL string) (*PGStore, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 5
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	s := &PGStore{pool: pool}

	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return s, nil
}

// migrate creates the licenses and customers tables.
func (s *PGStore) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS licenses (
		license_key TEXT PRIMARY KEY,
		status TEXT NOT NULL,
		expires_at TIMESTAMPTZ,
		hwid TEXT NOT NULL DEFAULT '',
		last_seen TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS customers (
		username TEXT PRIMARY KEY,
		password_hash TEXT NOT NULL,
		license_key TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_licenses_status ON licenses(status);
	CREATE INDEX IF NOT EXISTS idx_customers_license_key ON customers(license_key);
	`

	_, err := s.pool.Exec(ctx, schema)
	return err
}

// Ping checks database connectivity.
func (s *PGStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close closes the connection pool.
func (s *PGStore) Close() error {
	s.pool.Close()
	return nil
}

// GetLicense retrieves a license by key.
func (s *PGStore) GetLicense(ctx context.Context, key string) (*LicenseRecord, error) {
	query := `
		SELECT license_key, status, expires_at, hwid, last_seen, created_at
		FROM licenses
		WHERE license_key = $1
	`

	rec := &LicenseRecord{}
	err := s.pool.QueryRow(ctx, query, key).Scan(
		&rec.LicenseKey,
		&rec.Status,
		&rec.ExpiresAt,
		&rec.HWID,
		&rec.LastSeen,
		&rec.CreatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get license: %w", err)
	}

	return rec, nil
}

// InsertLicense stores a new license record.
func (s *PGStore) InsertLicense(ctx context.Context, rec *LicenseRecord) error {
	query := `
		INSERT INTO licenses (license_key, status, expires_at, hwid, last_seen, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := s.pool.Exec(ctx, query,
		rec.LicenseKey,
		rec.Status,
		rec.ExpiresAt,
		rec.HWID,
		rec.LastSeen,
		createdAt,
	)
	if isUniqueViolation(err) {
		return ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("failed to insert license: %w", err)
	}

	return nil
}

// UpdateLicenseHWID sets the bound device id for a license.
func (s *PGStore) UpdateLicenseHWID(ctx context.Context, key, hwid string) error {
	return s.updateLicenseField(ctx, key,
		`UPDATE licenses SET hwid = $2 WHERE license_key = $1`, hwid)
}

// UpdateLicenseLastSeen stamps the last verification time.
func (s *PGStore) UpdateLicenseLastSeen(ctx context.Context, key string, seen time.Time) error {
	return s.updateLicenseField(ctx, key,
		`UPDATE licenses SET last_seen = $2 WHERE license_key = $1`, seen)
}

// UpdateLicenseStatus changes the license status.
func (s *PGStore) UpdateLicenseStatus(ctx context.Context, key, status string) error {
	return s.updateLicenseField(ctx, key,
		`UPDATE licenses SET status = $2 WHERE license_key = $1`, status)
}

func (s *PGStore) updateLicenseField(ctx context.Context, key, query string, value any) error {
	tag, err := s.pool.Exec(ctx, query, key, value)
	if err != nil {
		return fmt.Errorf("failed to update license: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListLicenses returns all licenses, newest first.
func (s *PGStore) ListLicenses(ctx context.Context) ([]*LicenseRecord, error) {
	query := `
		SELECT license_key, status, expires_at, hwid, last_seen, created_at
		FROM licenses
		ORDER BY created_at DESC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list licenses: %w", err)
	}
	defer rows.Close()

	var result []*LicenseRecord
	for rows.Next() {
		rec := &LicenseRecord{}
		if err := rows.Scan(
			&rec.LicenseKey,
			&rec.Status,
			&rec.ExpiresAt,
			&rec.HWID,
			&rec.LastSeen,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan license: %w", err)
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read licenses: %w", err)
	}

	return result, nil
}

// GetCustomer retrieves a customer account by username.
func (s *PGStore) GetCustomer(ctx context.Context, username string) (*CustomerRecord, error) {
	query := `
		SELECT username, password_hash, license_key, created_at
		FROM customers
		WHERE username = $1
	`

	rec := &CustomerRecord{}
	err := s.pool.QueryRow(ctx, query, username).Scan(
		&rec.Username,
		&rec.PasswordHash,
		&rec.LicenseKey,
		&rec.CreatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}

	return rec, nil
}

// InsertCustomer stores a new customer account.
func (s *PGStore) InsertCustomer(ctx context.Context, rec *CustomerRecord) error {
	query := `
		INSERT INTO customers (username, password_hash, license_key, created_at)
		VALUES ($1, $2, $3, $4)
	`

	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := s.pool.Exec(ctx, query,
		rec.Username,
		rec.PasswordHash,
		rec.LicenseKey,
		createdAt,
	)
	if isUniqueViolation(err) {
		return ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("failed to insert customer: %w", err)
	}

	return nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
