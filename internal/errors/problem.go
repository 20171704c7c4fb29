package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/render"
)

// Domain sentinel errors surfaced by the license and auth services.
// Handlers map them to problem details with MapLicenseError.
var (
	ErrKeyNotFound         = errors.New("license key not found")
	ErrKeyExists           = errors.New("license key already exists")
	ErrKeyFormat           = errors.New("invalid license key format")
	ErrRegistryUnavailable = errors.New("license registry unavailable")

	ErrCredentials   = errors.New("invalid credentials")
	ErrAccountExists = errors.New("account already exists")
)

// ProblemDetails implements RFC 7807 Problem Details for HTTP APIs
type ProblemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`

	// Additional fields for extensibility
	Extensions map[string]interface{} `json:"-"`
}

// Render implements the render.Renderer interface
func (pd *ProblemDetails) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, pd.Status)
	return nil
}

// MarshalJSON custom marshaler to include extensions
func (pd *ProblemDetails) MarshalJSON() ([]byte, error) {
	data := make(map[string]interface{})

	data["type"] = pd.Type
	data["title"] = pd.Title
	data["status"] = pd.Status

	if pd.Detail != "" {
		data["detail"] = pd.Detail
	}
	if pd.Instance != "" {
		data["instance"] = pd.Instance
	}

	for k, v := range pd.Extensions {
		data[k] = v
	}

	return json.Marshal(data)
}

// NewProblemDetails creates a new RFC 7807 compliant error
func NewProblemDetails(status int, problemType, title, detail, instance string) *ProblemDetails {
	return &ProblemDetails{
		Type:       problemType,
		Title:      title,
		Status:     status,
		Detail:     detail,
		Instance:   instance,
		Extensions: make(map[string]interface{}),
	}
}

// WithExtension adds an extension field to the problem details
func (pd *ProblemDetails) WithExtension(key string, value interface{}) *ProblemDetails {
	pd.Extensions[key] = value
	return pd
}

// MapLicenseError maps domain errors to HTTP problem details
func MapLicenseError(err error, traceID string) render.Renderer {
	instance := fmt.Sprintf("/errors/instances/%s", traceID)

	// Check if it's an APIError from errors.go
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.ErrorCode == "LICENSE_NOT_FOUND" {
			return NewProblemDetails(
				http.StatusNotFound,
				TypeLicenseNotFound,
				"License Not Found",
				"No license with the given key exists in the registry.",
				instance,
			).WithExtension("trace_id", traceID).
				WithExtension("error_code", "LICENSE_NOT_FOUND")
		}
	}

	switch {
	case errors.Is(err, ErrKeyNotFound):
		return NewProblemDetails(
			http.StatusNotFound,
			TypeLicenseNotFound,
			"License Not Found",
			"No license with the given key exists in the registry.",
			instance,
		).WithExtension("trace_id", traceID).
			WithExtension("error_code", "LICENSE_NOT_FOUND")

	case errors.Is(err, ErrKeyExists):
		return NewProblemDetails(
			http.StatusConflict,
			TypeLicenseExists,
			"License Already Exists",
			"A license with the given key is already registered.",
			instance,
		).WithExtension("trace_id", traceID).
			WithExtension("error_code", "LICENSE_EXISTS")

	case errors.Is(err, ErrKeyFormat):
		return NewProblemDetails(
			http.StatusBadRequest,
			TypeKeyFormat,
			"Invalid License Key Format",
			"License key must be in format: GG-XXXXX-XXXXX-XXXXX-CC",
			instance,
		).WithExtension("trace_id", traceID).
			WithExtension("error_code", "INVALID_KEY_FORMAT").
			WithExtension("expected_format", "GG-XXXXX-XXXXX-XXXXX-CC")

	case errors.Is(err, ErrCredentials):
		return NewProblemDetails(
			http.StatusUnauthorized,
			TypeUnauthorized,
			"Invalid Credentials",
			"The provided credentials are incorrect.",
			instance,
		).WithExtension("trace_id", traceID).
			WithExtension("error_code", "INVALID_CREDENTIALS")

	case errors.Is(err, ErrAccountExists):
		return NewProblemDetails(
			http.StatusConflict,
			TypeAccountExists,
			"Account Already Exists",
			"An account with this username is already registered.",
			instance,
		).WithExtension("trace_id", traceID).
			WithExtension("error_code", "ACCOUNT_EXISTS")

	case errors.Is(err, ErrRegistryUnavailable):
		return NewProblemDetails(
			http.StatusServiceUnavailable,
			TypeRegistryDown,
			"License Registry Unavailable",
			"The license registry could not be reached. Please try again later.",
			instance,
		).WithExtension("trace_id", traceID).
			WithExtension("error_code", "REGISTRY_UNAVAILABLE")

	default:
		return NewProblemDetails(
			http.StatusInternalServerError,
			TypeInternal,
			"Internal Server Error",
			"An unexpected error occurred while processing your request.",
			instance,
		).WithExtension("trace_id", traceID).
			WithExtension("error_code", "INTERNAL_ERROR")
	}
}
