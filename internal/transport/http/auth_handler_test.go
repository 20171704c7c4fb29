package http

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/realghost120/ghostgaurd-becakd/internal/store"
	api "github.com/realghost120/ghostgaurd-becakd/pkg/contracts/api/v1"
)

func newAuthRouter(t *testing.T) (*handlerStack, http.Handler) {
	t.Helper()
	stack := newHandlerStack(t)
	h := NewAuthHandler(stack.auth, testLogger())
	return stack, h.Routes()
}

func TestAuthHandlerRegister(t *testing.T) {
	t.Run("creates account", func(t *testing.T) {
		stack, router := newAuthRouter(t)
		key := stack.seedLicense(t, store.StatusActive, "", futureTime(24*time.Hour))

		rec := doJSON(t, router, http.MethodPost, "/register", api.RegisterRequest{
			Username:   "operator1",
			Password:   "correct-horse-battery",
			LicenseKey: key,
		})

		require.Equal(t, http.StatusCreated, rec.Code)

		var resp api.AuthResponse
		decodeBody(t, rec, &resp)
		assert.True(t, resp.Success)
		require.NotNil(t, resp.Customer)
		assert.Equal(t, "operator1", resp.Customer.Username)
		assert.Equal(t, key, resp.Customer.LicenseKey)
	})

	t.Run("rejects malformed license key", func(t *testing.T) {
		_, router := newAuthRouter(t)

		rec := doJSON(t, router, http.MethodPost, "/register", api.RegisterRequest{
			Username:   "operator2",
			Password:   "correct-horse-battery",
			LicenseKey: "not-a-key",
		})

		require.Equal(t, http.StatusBadRequest, rec.Code)

		var problem map[string]any
		decodeBody(t, rec, &problem)
		assert.Equal(t, "INVALID_KEY_FORMAT", problem["error_code"])
	})

	t.Run("duplicate username conflicts", func(t *testing.T) {
		stack, router := newAuthRouter(t)
		key := stack.seedLicense(t, store.StatusActive, "", futureTime(24*time.Hour))

		req := api.RegisterRequest{
			Username:   "operator3",
			Password:   "correct-horse-battery",
			LicenseKey: key,
		}

		rec := doJSON(t, router, http.MethodPost, "/register", req)
		require.Equal(t, http.StatusCreated, rec.Code)

		rec = doJSON(t, router, http.MethodPost, "/register", req)
		require.Equal(t, http.StatusConflict, rec.Code)

		var problem map[string]any
		decodeBody(t, rec, &problem)
		assert.Equal(t, "ACCOUNT_EXISTS", problem["error_code"])
	})

	t.Run("missing fields are request errors", func(t *testing.T) {
		_, router := newAuthRouter(t)

		rec := doJSON(t, router, http.MethodPost, "/register", api.RegisterRequest{
			Password:   "correct-horse-battery",
			LicenseKey: "GG-AAAAA-BBBBB-CCCCC-14",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = doJSON(t, router, http.MethodPost, "/register", api.RegisterRequest{
			Username:   "operator4",
			LicenseKey: "GG-AAAAA-BBBBB-CCCCC-14",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAuthHandlerLogin(t *testing.T) {
	register := func(t *testing.T, stack *handlerStack, router http.Handler, username, password string) {
		t.Helper()
		key := stack.seedLicense(t, store.StatusActive, "", futureTime(24*time.Hour))
		rec := doJSON(t, router, http.MethodPost, "/register", api.RegisterRequest{
			Username:   username,
			Password:   password,
			LicenseKey: key,
		})
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	t.Run("valid credentials succeed", func(t *testing.T) {
		stack, router := newAuthRouter(t)
		register(t, stack, router, "operator5", "hunter2hunter2")

		rec := doJSON(t, router, http.MethodPost, "/login", api.LoginRequest{
			Username: "operator5",
			Password: "hunter2hunter2",
		})

		require.Equal(t, http.StatusOK, rec.Code)

		var resp api.AuthResponse
		decodeBody(t, rec, &resp)
		assert.True(t, resp.Success)
		require.NotNil(t, resp.Customer)
		assert.Equal(t, "operator5", resp.Customer.Username)
	})

	t.Run("wrong password is unauthorized", func(t *testing.T) {
		stack, router := newAuthRouter(t)
		register(t, stack, router, "operator6", "hunter2hunter2")

		rec := doJSON(t, router, http.MethodPost, "/login", api.LoginRequest{
			Username: "operator6",
			Password: "wrong-password",
		})

		require.Equal(t, http.StatusUnauthorized, rec.Code)

		var problem map[string]any
		decodeBody(t, rec, &problem)
		assert.Equal(t, "INVALID_CREDENTIALS", problem["error_code"])
	})

	t.Run("unknown username is indistinguishable from wrong password", func(t *testing.T) {
		_, router := newAuthRouter(t)

		rec := doJSON(t, router, http.MethodPost, "/login", api.LoginRequest{
			Username: "ghost-user",
			Password: "anything-at-all",
		})

		require.Equal(t, http.StatusUnauthorized, rec.Code)

		var problem map[string]any
		decodeBody(t, rec, &problem)
		assert.Equal(t, "INVALID_CREDENTIALS", problem["error_code"])
	})
}
