package app

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/realghost120/ghostgaurd-becakd/internal/config"
	"github.com/realghost120/ghostgaurd-becakd/internal/license"
	"github.com/realghost120/ghostgaurd-becakd/internal/middleware"
	"github.com/realghost120/ghostgaurd-becakd/internal/store"
)

const (
	appTestSigningSecret = "app-test-signing-secret"
	appTestAdminSecret   = "app-test-admin-secret"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// setupTestEnvironment pins the configuration the container reads from
// the environment. t.Setenv restores everything on cleanup.
func setupTestEnvironment(t *testing.T) {
	t.Helper()
	t.Setenv("GHOSTGUARD_SERVER_PORT", "8081")
	t.Setenv("GHOSTGUARD_STORE_BACKEND", "memory")
	t.Setenv("GHOSTGUARD_SECURITY_SIGNING_SECRET", appTestSigningSecret)
	t.Setenv("GHOSTGUARD_SECURITY_ADMIN_SECRET", appTestAdminSecret)
	t.Setenv("GHOSTGUARD_SECURITY_RATE_LIMIT_ENABLED", "false")
	t.Setenv("GHOSTGUARD_LOGGING_LEVEL", "error")
	t.Setenv("GHOSTGUARD_LOGGING_OUTPUT", "console")
}

func newTestApplication(t *testing.T) *Application {
	t.Helper()
	app, err := NewApplication()
	require.NoError(t, err)
	require.NotNil(t, app)
	t.Cleanup(func() {
		app.Hub.Stop()
		_ = app.WriteBacks.Stop(time.Second)
	})
	return app
}

func TestNewApplication(t *testing.T) {
	tests := []struct {
		name     string
		setupEnv func(t *testing.T)
		wantErr  error
		errText  string
	}{
		{
			name:     "successful initialization",
			setupEnv: func(t *testing.T) {},
		},
		{
			name: "invalid config",
			setupEnv: func(t *testing.T) {
				t.Setenv("GHOSTGUARD_SERVER_PORT", "-1")
			},
			errText: "failed to load configuration",
		},
		{
			name: "unknown store backend",
			setupEnv: func(t *testing.T) {
				t.Setenv("GHOSTGUARD_STORE_BACKEND", "etcd")
			},
			errText: "unknown store backend",
		},
		{
			name: "missing signing secret",
			setupEnv: func(t *testing.T) {
				t.Setenv("GHOSTGUARD_SECURITY_SIGNING_SECRET", "")
			},
			wantErr: license.ErrMissingSigningSecret,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setupTestEnvironment(t)
			tt.setupEnv(t)

			app, err := NewApplication()

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, app)
				return
			}
			if tt.errText != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errText)
				assert.Nil(t, app)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, app)
			defer app.Hub.Stop()

			assert.NotNil(t, app.Config)
			assert.NotNil(t, app.Logger)
			assert.NotNil(t, app.Router)
			assert.NotNil(t, app.Server)
			assert.NotNil(t, app.Store)
			assert.NotNil(t, app.WriteBacks)
			assert.NotNil(t, app.Issuer)
			assert.NotNil(t, app.Resolver)
			assert.NotNil(t, app.Tracker)
			assert.NotNil(t, app.Hub)
			assert.NotNil(t, app.OTelProviders)
			require.NotNil(t, app.Services)
			assert.NotNil(t, app.Services.License)
			assert.NotNil(t, app.Services.Fleet)
			assert.NotNil(t, app.Services.Auth)
			assert.NotNil(t, app.Services.Admin)
			assert.NotNil(t, app.Services.Health)
		})
	}
}

func TestApplication_openStore(t *testing.T) {
	setupTestEnvironment(t)

	t.Run("memory backend", func(t *testing.T) {
		cfg := config.Default()
		cfg.Store.Backend = config.BackendMemory
		app := &Application{Config: cfg}

		st, err := app.openStore(context.Background())
		require.NoError(t, err)
		assert.IsType(t, &store.MemoryStore{}, st)
	})

	t.Run("unknown backend", func(t *testing.T) {
		cfg := config.Default()
		cfg.Store.Backend = "oracle"
		app := &Application{Config: cfg}

		_, err := app.openStore(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown store backend")
	})
}

func TestApplication_Routing(t *testing.T) {
	setupTestEnvironment(t)
	app := newTestApplication(t)

	server := httptest.NewServer(app.Router)
	defer server.Close()

	t.Run("health endpoint", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/api/health")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("readiness with memory backend", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/api/health/ready")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "ready", body["status"])
	})

	t.Run("verify rejects unknown key with 200", func(t *testing.T) {
		payload := strings.NewReader(`{"license_key":"GG-AAAAA-BBBBB-CCCCC-DD","hwid":"hw-1"}`)
		resp, err := http.Post(server.URL+"/api/agent/verify", "application/json", payload)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, false, body["valid"])
		assert.Equal(t, "NOT_FOUND", body["reason"])
	})

	t.Run("console status never 404s", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/api/console/status/GG-AAAAA-BBBBB-CCCCC-DD")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, false, body["online"])
	})

	t.Run("admin requires secret", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/api/admin/licenses")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("admin accepts configured secret", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, server.URL+"/api/admin/licenses", nil)
		require.NoError(t, err)
		req.Header.Set(middleware.AdminSecretHeader, appTestAdminSecret)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("prometheus scrape endpoint", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/metrics")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("websocket path rejects plain GET", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/ws")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("unknown route 404s", func(t *testing.T) {
		resp, err := http.Get(server.URL + "/api/nope")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestApplication_handleWebSocket(t *testing.T) {
	setupTestEnvironment(t)
	app := newTestApplication(t)

	server := httptest.NewServer(app.Router)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"

	t.Run("upgrade succeeds without origin", func(t *testing.T) {
		conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
		require.NoError(t, err)
		defer conn.Close()
		if resp != nil {
			defer resp.Body.Close()
		}

		require.Eventually(t, func() bool {
			return app.Hub.ClientCount() == 1
		}, 2*time.Second, 10*time.Millisecond)
	})

	t.Run("upgrade rejects unknown origin", func(t *testing.T) {
		header := http.Header{}
		header.Set("Origin", "http://evil.example.com")

		conn, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
		require.Error(t, err)
		if conn != nil {
			conn.Close()
		}
		if resp != nil {
			defer resp.Body.Close()
			assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		}
	})
}

func TestApplication_getCORSConfig(t *testing.T) {
	setupTestEnvironment(t)

	t.Run("configured origins", func(t *testing.T) {
		cfg := config.Default()
		cfg.Security.AllowedOrigins = []string{"https://console.example.com"}
		cfg.Logging.Development = false
		app := &Application{Config: cfg, Logger: testLogger()}

		got := app.getCORSConfig()
		assert.Equal(t, []string{"https://console.example.com"}, got.AllowedOrigins)
		assert.Contains(t, got.AllowedHeaders, middleware.AdminSecretHeader)
	})

	t.Run("development adds local UI origins", func(t *testing.T) {
		cfg := config.Default()
		cfg.Security.AllowedOrigins = []string{"https://console.example.com"}
		cfg.Logging.Development = true
		app := &Application{Config: cfg, Logger: testLogger()}

		got := app.getCORSConfig()
		assert.Contains(t, got.AllowedOrigins, "https://console.example.com")
		assert.Contains(t, got.AllowedOrigins, "http://localhost:3000")
	})

	t.Run("cors disabled falls back to own origin", func(t *testing.T) {
		cfg := config.Default()
		cfg.Security.EnableCORS = false
		cfg.Logging.Development = false
		app := &Application{Config: cfg, Logger: testLogger()}

		got := app.getCORSConfig()
		assert.Equal(t, []string{"http://localhost:8080"}, got.AllowedOrigins)
	})
}

func TestApplication_createServer(t *testing.T) {
	setupTestEnvironment(t)
	app := newTestApplication(t)

	assert.Equal(t, ":8081", app.Server.Addr)
	assert.Equal(t, app.Config.Server.ReadTimeout, app.Server.ReadTimeout)
	assert.Equal(t, app.Config.Server.WriteTimeout, app.Server.WriteTimeout)
	assert.Equal(t, app.Config.Server.IdleTimeout, app.Server.IdleTimeout)
	assert.Same(t, app.Router, app.Server.Handler)
}

func TestApplication_StartStop(t *testing.T) {
	setupTestEnvironment(t)
	t.Setenv("GHOSTGUARD_SERVER_PORT", "18093")

	app, err := NewApplication()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, app.Start(ctx, cancel))

	// Wait for the listener to come up.
	url := "http://127.0.0.1:18093/api/health"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 50*time.Millisecond)

	require.NoError(t, app.Stop(context.Background()))

	_, err = http.Get(url)
	assert.Error(t, err)
}
