package services

import "errors"

// Service-level errors. Registry and account sentinels live in
// internal/errors; these cover inputs the services validate themselves.
var (
	// Admin errors
	ErrInvalidDuration = errors.New("invalid license duration")
	ErrInvalidStatus   = errors.New("invalid license status")

	// Export errors
	ErrExportFailed = errors.New("license export failed")

	// General errors
	ErrInvalidInput       = errors.New("invalid input")
	ErrServiceUnavailable = errors.New("service temporarily unavailable")
)
