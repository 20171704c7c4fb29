package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	apierrors "github.com/realghost120/ghostgaurd-becakd/internal/errors"
	"github.com/realghost120/ghostgaurd-becakd/internal/license"
	"github.com/realghost120/ghostgaurd-becakd/internal/store"
)

// AuthService manages console accounts. Accounts are thin: a username, a
// bcrypt password hash and the license key they watch. There are no
// sessions or tokens; the console re-authenticates per login.
type AuthService interface {
	Register(ctx context.Context, username, password, licenseKey string) (*store.CustomerRecord, error)
	Login(ctx context.Context, username, password string) (*store.CustomerRecord, error)
}

type authService struct {
	store  store.Store
	logger *slog.Logger
	cost   int
}

// NewAuthService creates an account service over st.
func NewAuthService(st store.Store, logger *slog.Logger) AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &authService{
		store:  st,
		logger: logger.With(slog.String("service", "auth")),
		cost:   bcrypt.DefaultCost,
	}
}

// Register creates a console account bound to licenseKey. Duplicate
// usernames conflict; the password is stored only as a bcrypt hash.
func (s *authService) Register(ctx context.Context, username, password, licenseKey string) (*store.CustomerRecord, error) {
	if !license.ValidKeyFormat(licenseKey) {
		return nil, apierrors.ErrKeyFormat
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	rec := &store.CustomerRecord{
		Username:     username,
		PasswordHash: string(hash),
		LicenseKey:   licenseKey,
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.store.InsertCustomer(ctx, rec); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			s.logger.WarnContext(ctx, "registration rejected, username taken",
				slog.String("username", username))
			return nil, apierrors.ErrAccountExists
		}
		s.logger.ErrorContext(ctx, "registration failed",
			slog.String("username", username),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	s.logger.InfoContext(ctx, "account registered",
		slog.String("username", username),
		slog.String("license_key", license.MaskKey(licenseKey)))
	return rec, nil
}

// Login checks the password against the stored hash. Unknown usernames
// and wrong passwords collapse into one credentials error.
func (s *authService) Login(ctx context.Context, username, password string) (*store.CustomerRecord, error) {
	rec, err := s.store.GetCustomer(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.logger.WarnContext(ctx, "login rejected, unknown username",
				slog.String("username", username))
			return nil, apierrors.ErrCredentials
		}
		s.logger.ErrorContext(ctx, "login lookup failed",
			slog.String("username", username),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to load account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(password)); err != nil {
		s.logger.WarnContext(ctx, "login rejected, wrong password",
			slog.String("username", username))
		return nil, apierrors.ErrCredentials
	}

	s.logger.InfoContext(ctx, "login accepted",
		slog.String("username", username),
		slog.String("license_key", license.MaskKey(rec.LicenseKey)))
	return rec, nil
}
