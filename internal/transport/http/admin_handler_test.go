package http

import (
	"bytes"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/realghost120/ghostgaurd-becakd/internal/license"
	"github.com/realghost120/ghostgaurd-becakd/internal/store"
	api "github.com/realghost120/ghostgaurd-becakd/pkg/contracts/api/v1"
	"github.com/realghost120/ghostgaurd-becakd/pkg/contracts/domain"
)

func newAdminRouter(t *testing.T) (*handlerStack, http.Handler) {
	t.Helper()
	stack := newHandlerStack(t)
	h := NewAdminHandler(stack.admin, testLogger())
	return stack, h.Routes()
}

func TestAdminHandlerCreateLicense(t *testing.T) {
	t.Run("monthly license", func(t *testing.T) {
		_, router := newAdminRouter(t)

		rec := doJSON(t, router, http.MethodPost, "/licenses", api.CreateLicenseRequest{
			Duration: "monthly",
		})

		require.Equal(t, http.StatusCreated, rec.Code)

		var resp api.LicenseResponse
		decodeBody(t, rec, &resp)
		require.NotNil(t, resp.License)
		assert.True(t, license.ValidKeyFormat(resp.License.LicenseKey))
		assert.Equal(t, domain.LicenseStatusActive, resp.License.Status)
		require.NotNil(t, resp.License.ExpiresAt)
		assert.WithinDuration(t, time.Now().AddDate(0, 1, 0), *resp.License.ExpiresAt, time.Minute)
	})

	t.Run("lifetime license never expires", func(t *testing.T) {
		_, router := newAdminRouter(t)

		rec := doJSON(t, router, http.MethodPost, "/licenses", api.CreateLicenseRequest{
			Duration: "lifetime",
		})

		require.Equal(t, http.StatusCreated, rec.Code)

		var resp api.LicenseResponse
		decodeBody(t, rec, &resp)
		require.NotNil(t, resp.License)
		assert.Nil(t, resp.License.ExpiresAt)
	})

	t.Run("unknown duration is a request error", func(t *testing.T) {
		_, router := newAdminRouter(t)

		rec := doJSON(t, router, http.MethodPost, "/licenses", api.CreateLicenseRequest{
			Duration: "fortnightly",
		})

		require.Equal(t, http.StatusBadRequest, rec.Code)

		var problem map[string]any
		decodeBody(t, rec, &problem)
		assert.Equal(t, "/errors/validation", problem["type"])
	})

	t.Run("missing duration is a request error", func(t *testing.T) {
		_, router := newAdminRouter(t)

		rec := doJSON(t, router, http.MethodPost, "/licenses", api.CreateLicenseRequest{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAdminHandlerListLicenses(t *testing.T) {
	stack, router := newAdminRouter(t)

	stack.seedLicense(t, store.StatusActive, "", futureTime(24*time.Hour))
	stack.seedLicense(t, store.StatusActive, "", futureTime(24*time.Hour))
	stack.seedLicense(t, store.StatusRevoked, "", nil)

	t.Run("unfiltered returns all", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/licenses", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp api.ListLicensesResponse
		decodeBody(t, rec, &resp)
		assert.Equal(t, 3, resp.Count)
		assert.Len(t, resp.Licenses, 3)
	})

	t.Run("status filter", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/licenses?status=REVOKED", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp api.ListLicensesResponse
		decodeBody(t, rec, &resp)
		require.Equal(t, 1, resp.Count)
		assert.Equal(t, domain.LicenseStatusRevoked, resp.Licenses[0].Status)
	})

	t.Run("limit caps the page", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/licenses?limit=2", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp api.ListLicensesResponse
		decodeBody(t, rec, &resp)
		assert.Equal(t, 2, resp.Count)
	})

	t.Run("garbage limit is a request error", func(t *testing.T) {
		rec := doJSON(t, router, http.MethodGet, "/licenses?limit=banana", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAdminHandlerUpdateStatus(t *testing.T) {
	t.Run("suspend then reactivate", func(t *testing.T) {
		stack, router := newAdminRouter(t)
		key := stack.seedLicense(t, store.StatusActive, "", futureTime(24*time.Hour))

		rec := doJSON(t, router, http.MethodPut, "/licenses/"+key+"/status", api.UpdateLicenseStatusRequest{
			Status: store.StatusSuspended,
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp api.LicenseResponse
		decodeBody(t, rec, &resp)
		assert.Equal(t, domain.LicenseStatusSuspended, resp.License.Status)

		rec = doJSON(t, router, http.MethodPut, "/licenses/"+key+"/status", api.UpdateLicenseStatusRequest{
			Status: store.StatusActive,
		})
		require.Equal(t, http.StatusOK, rec.Code)

		decodeBody(t, rec, &resp)
		assert.Equal(t, domain.LicenseStatusActive, resp.License.Status)
	})

	t.Run("unknown status rejected", func(t *testing.T) {
		stack, router := newAdminRouter(t)
		key := stack.seedLicense(t, store.StatusActive, "", nil)

		rec := doJSON(t, router, http.MethodPut, "/licenses/"+key+"/status", api.UpdateLicenseStatusRequest{
			Status: "PAUSED",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown key is not found", func(t *testing.T) {
		_, router := newAdminRouter(t)

		rec := doJSON(t, router, http.MethodPut, "/licenses/GG-MISSI-NGKEY-HEREE-15/status", api.UpdateLicenseStatusRequest{
			Status: store.StatusRevoked,
		})
		require.Equal(t, http.StatusNotFound, rec.Code)

		var problem map[string]any
		decodeBody(t, rec, &problem)
		assert.Equal(t, "LICENSE_NOT_FOUND", problem["error_code"])
	})
}

func TestAdminHandlerResetHWID(t *testing.T) {
	stack, router := newAdminRouter(t)
	key := stack.seedLicense(t, store.StatusActive, "bound-device", futureTime(24*time.Hour))

	rec := doJSON(t, router, http.MethodPost, "/licenses/"+key+"/reset-hwid", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp api.LicenseResponse
	decodeBody(t, rec, &resp)
	assert.Empty(t, resp.License.HWID)

	rec = doJSON(t, router, http.MethodPost, "/licenses/GG-MISSI-NGKEY-HEREE-16/reset-hwid", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminHandlerExportLicenses(t *testing.T) {
	stack, router := newAdminRouter(t)
	key := stack.seedLicense(t, store.StatusActive, "device-7", futureTime(24*time.Hour))

	rec := doJSON(t, router, http.MethodGet, "/licenses/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".xlsx")

	// The payload must round-trip as a real workbook with the seeded row.
	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Licenses")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "License Key", rows[0][0])
	assert.Equal(t, key, rows[1][0])
	assert.Equal(t, store.StatusActive, rows[1][1])
}
