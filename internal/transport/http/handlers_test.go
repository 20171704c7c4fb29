package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/realghost120/ghostgaurd-becakd/internal/fleet"
	"github.com/realghost120/ghostgaurd-becakd/internal/license"
	"github.com/realghost120/ghostgaurd-becakd/internal/services"
	"github.com/realghost120/ghostgaurd-becakd/internal/shared/testutil"
	"github.com/realghost120/ghostgaurd-becakd/internal/store"
)

const testSigningSecret = "handler-test-signing-secret"

// handlerStack is the real service stack over the in-memory store that
// handler tests exercise end to end. No mocks: the handlers are thin
// and the services are cheap, so testing through them covers both.
type handlerStack struct {
	store   *store.MemoryStore
	license services.LicenseService
	fleet   *services.FleetService
	auth    services.AuthService
	admin   services.AdminService
}

func newHandlerStack(t *testing.T) *handlerStack {
	t.Helper()

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	st := store.NewMemoryStore()

	issuer, err := license.NewIssuer(testSigningSecret)
	require.NoError(t, err)
	resolver := license.NewResolver(st, issuer, nil, logger)

	tracker := fleet.NewTracker(nil, logger)

	return &handlerStack{
		store:   st,
		license: services.NewLicenseService(resolver, logger),
		fleet:   services.NewFleetService(tracker, nil, logger),
		auth:    services.NewAuthService(st, logger),
		admin:   services.NewAdminService(st, logger),
	}
}

func (s *handlerStack) seedLicense(t *testing.T, status, hwid string, expires *time.Time) string {
	t.Helper()
	rec := testutil.NewLicenseRecord(t, status, hwid, expires)
	require.NoError(t, s.store.InsertLicense(context.Background(), rec))
	return rec.LicenseKey
}

func doJSON(t *testing.T, handler http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func futureTime(d time.Duration) *time.Time {
	ts := time.Now().Add(d).UTC()
	return &ts
}

func pastTime(d time.Duration) *time.Time {
	ts := time.Now().Add(-d).UTC()
	return &ts
}
