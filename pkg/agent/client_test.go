package agent

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	api "github.com/realghost120/ghostgaurd-becakd/pkg/contracts/api/v1"
	"github.com/realghost120/ghostgaurd-becakd/pkg/contracts/domain"
)

const (
	testLicenseKey = "GG-AAAAA-BBBBB-CCCCC-DD"
	testHWID       = "aabbccddeeff00112233445566778899aabbccddeeff00112233445566778899"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := New(Config{
		BaseURL:    srv.URL,
		LicenseKey: testLicenseKey,
		HWID:       testHWID,
		Logger:     discardLogger(),
	})
	require.NoError(t, err)
	return client
}

func TestNew(t *testing.T) {
	t.Run("requires base url", func(t *testing.T) {
		_, err := New(Config{LicenseKey: testLicenseKey})
		assert.ErrorIs(t, err, ErrMissingBaseURL)
	})

	t.Run("requires license key", func(t *testing.T) {
		_, err := New(Config{BaseURL: "http://localhost:8080"})
		assert.ErrorIs(t, err, ErrMissingLicenseKey)
	})

	t.Run("trims trailing slash and applies defaults", func(t *testing.T) {
		client, err := New(Config{
			BaseURL:    "http://localhost:8080/",
			LicenseKey: testLicenseKey,
		})
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:8080", client.baseURL)
		assert.NotNil(t, client.httpClient)
		assert.Equal(t, defaultTimeout, client.httpClient.Timeout)
	})

	t.Run("configured hwid wins over fingerprint", func(t *testing.T) {
		client, err := New(Config{
			BaseURL:    "http://localhost:8080",
			LicenseKey: testLicenseKey,
			HWID:       testHWID,
		})
		require.NoError(t, err)
		assert.Equal(t, testHWID, client.HWID())
	})
}

func TestClientVerify(t *testing.T) {
	t.Run("accepted", func(t *testing.T) {
		issuedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/api/agent/verify", r.URL.Path)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			assert.Contains(t, r.Header.Get("User-Agent"), "ghostguard-agent/")

			var req api.VerifyRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, testLicenseKey, req.LicenseKey)
			assert.Equal(t, testHWID, req.HWID)

			json.NewEncoder(w).Encode(api.VerifyResponse{
				Valid:     true,
				Payload:   testLicenseKey + "|ACTIVE||2025-06-01T12:00:00Z",
				Signature: "deadbeef",
				IssuedAt:  &issuedAt,
			})
		}))

		result, err := client.Verify(context.Background())
		require.NoError(t, err)
		assert.True(t, result.Valid)
		assert.Empty(t, result.Reason)
		require.NotNil(t, result.Grant)
		assert.Equal(t, testLicenseKey+"|ACTIVE||2025-06-01T12:00:00Z", result.Grant.Payload)
		assert.Equal(t, "deadbeef", result.Grant.Signature)
		assert.True(t, result.Grant.IssuedAt.Equal(issuedAt))
	})

	t.Run("rejection is data not error", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(api.VerifyResponse{Valid: false, Reason: "EXPIRED"})
		}))

		result, err := client.Verify(context.Background())
		require.NoError(t, err)
		assert.False(t, result.Valid)
		assert.Equal(t, "EXPIRED", result.Reason)
		assert.Nil(t, result.Grant)
	})

	t.Run("server fault is an error", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))

		result, err := client.Verify(context.Background())
		assert.Nil(t, result)

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	})

	t.Run("unreachable server is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		srv.Close()

		client, err := New(Config{BaseURL: srv.URL, LicenseKey: testLicenseKey, HWID: testHWID, Logger: discardLogger()})
		require.NoError(t, err)

		_, err = client.Verify(context.Background())
		assert.Error(t, err)
	})
}

func TestClientHeartbeat(t *testing.T) {
	var got api.HeartbeatRequest
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/agent/heartbeat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(api.AckResponse{Success: true})
	}))

	err := client.Heartbeat(context.Background(), State{
		Players: []domain.Player{
			{PlayerID: "p1", Name: "Steve", Ping: 42},
			{PlayerID: "p2", Name: "Alex", Ping: 17},
		},
		Version: "1.4.2",
		Uptime:  3600,
	})
	require.NoError(t, err)

	assert.Equal(t, testLicenseKey, got.LicenseKey)
	require.Len(t, got.Players, 2)
	assert.Equal(t, "Steve", got.Players[0].Name)
	assert.Equal(t, 42, got.Players[0].Ping)
	assert.Equal(t, "1.4.2", got.Version)
	assert.Equal(t, int64(3600), got.Uptime)
}

func TestClientPollActions(t *testing.T) {
	t.Run("returns drained actions", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/api/agent/actions", r.URL.Path)
			assert.Equal(t, testLicenseKey, r.URL.Query().Get("key"))

			json.NewEncoder(w).Encode(api.ActionsResponse{Actions: []domain.Action{
				{ID: "act-1", Type: "kick", Payload: json.RawMessage(`{"player":"griefer99"}`)},
				{ID: "act-2", Type: "broadcast"},
			}})
		}))

		actions, err := client.PollActions(context.Background())
		require.NoError(t, err)
		require.Len(t, actions, 2)
		assert.Equal(t, "act-1", actions[0].ID)
		assert.Equal(t, "kick", actions[0].Type)
		assert.JSONEq(t, `{"player":"griefer99"}`, string(actions[0].Payload))
	})

	t.Run("empty mailbox", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(api.ActionsResponse{Actions: []domain.Action{}})
		}))

		actions, err := client.PollActions(context.Background())
		require.NoError(t, err)
		assert.Empty(t, actions)
	})
}

func TestClientPushLog(t *testing.T) {
	var got api.LogPushRequest
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/agent/log", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(api.AckResponse{Success: true})
	}))

	err := client.PushLog(context.Background(), "warning", "tps dropped below 15")
	require.NoError(t, err)
	assert.Equal(t, testLicenseKey, got.LicenseKey)
	assert.Equal(t, "warning", got.Kind)
	assert.Equal(t, "tps dropped below 15", got.Message)
}

func TestClientAPIErrorDetail(t *testing.T) {
	t.Run("extracts problem detail", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json; charset=utf-8")
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]any{
				"type":   "about:blank",
				"title":  "Validation Error",
				"status": 400,
				"detail": "message is required",
			})
		}))

		err := client.PushLog(context.Background(), "info", "")

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
		assert.Equal(t, "message is required", apiErr.Detail)
	})

	t.Run("falls back to raw body", func(t *testing.T) {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "gateway exploded", http.StatusBadGateway)
		}))

		err := client.PushLog(context.Background(), "info", "hello")

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
		assert.Equal(t, "gateway exploded", apiErr.Detail)
	})
}

func TestClientContextCancellation(t *testing.T) {
	started := make(chan struct{})
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-r.Context().Done()
	}))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	_, err := client.Verify(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
