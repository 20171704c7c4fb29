package errors

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMiddlewarePassthrough(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	m := NewErrorMiddleware(newTestHandler(false), logger)

	handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"ok":true}`))
	}))

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/api/console/status", nil)
	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())
}

func TestErrorMiddlewareRecoversPanic(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	m := NewErrorMiddleware(newTestHandler(false), logger)

	handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("handler exploded")
	}))

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/api/console/status", nil)
	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	problem := decodeProblem(t, w)
	assert.Equal(t, TypeInternal, problem["type"])
}

func TestErrorMiddlewareLogsErrorBody(t *testing.T) {
	var buf strings.Builder
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	m := NewErrorMiddleware(newTestHandler(false), logger)

	handler := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))

	body := `{"license_key":"GG-AAAAA-BBBBB-CCCCC-2F","note":"hello"}`
	w := httptest.NewRecorder()
	r := httptest.NewRequest("POST", "/api/agent/verify", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	handler.ServeHTTP(w, r)

	logged := buf.String()
	assert.Contains(t, logged, `"level":"WARN"`)
	assert.Contains(t, logged, "[REDACTED]")
	assert.NotContains(t, logged, "GG-AAAAA-BBBBB-CCCCC-2F")
	assert.Contains(t, logged, "hello")
}

func TestSanitizeRequestBody(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		redacted []string
		kept     []string
	}{
		{
			name:     "license key and hwid",
			body:     `{"license_key":"GG-AAAAA-BBBBB-CCCCC-2F","hwid":"fp-123","version":"1.4.2"}`,
			redacted: []string{"license_key", "hwid"},
			kept:     []string{`"version":"1.4.2"`},
		},
		{
			name:     "credentials",
			body:     `{"email":"ops@example.com","password":"hunter2","admin_secret":"s3cret"}`,
			redacted: []string{"password", "admin_secret"},
			kept:     []string{`"email":"ops@example.com"`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sanitized := sanitizeRequestBody(tt.body)

			var decoded map[string]interface{}
			require.NoError(t, json.Unmarshal([]byte(sanitized), &decoded))

			for _, field := range tt.redacted {
				assert.Equal(t, "[REDACTED]", decoded[field])
			}
			for _, fragment := range tt.kept {
				assert.Contains(t, sanitized, fragment)
			}
		})
	}
}

func TestSanitizeRequestBodyNonJSON(t *testing.T) {
	body := "plain text payload"
	assert.Equal(t, body, sanitizeRequestBody(body))
}

func TestRecoveryMiddleware(t *testing.T) {
	mw := RecoveryMiddleware(newTestHandler(false))

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	w := httptest.NewRecorder()
	r := httptest.NewRequest("GET", "/api/test", nil)
	handler.ServeHTTP(w, r)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
