package e2e

import (
	"bytes"
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
	"github.com/stretchr/testify/suite"
	"github.com/xuri/excelize/v2"

	"github.com/realghost120/ghostgaurd-becakd/internal/app"
	"github.com/realghost120/ghostgaurd-becakd/internal/exporter"
	"github.com/realghost120/ghostgaurd-becakd/internal/license"
	"github.com/realghost120/ghostgaurd-becakd/internal/middleware"
	"github.com/realghost120/ghostgaurd-becakd/pkg/agent"
	api "github.com/realghost120/ghostgaurd-becakd/pkg/contracts/api/v1"
	"github.com/realghost120/ghostgaurd-becakd/pkg/contracts/domain"
	"github.com/realghost120/ghostgaurd-becakd/pkg/contracts/events"
)

const (
	e2eSigningSecret = "e2e-signing-secret-0123456789abcdef"
	e2eAdminSecret   = "e2e-admin-secret"

	agentHWID = "aabbccdd00112233445566778899eeff"
	otherHWID = "ffeeddcc00112233445566778899aabb"

	bindWait = 5 * time.Second
)

// AgentFlowSuite drives the full stack the way a deployment does: the
// operator mints keys over the admin API, agents run the SDK against the
// HTTP surface, and the console reads fleet state and the live feed.
type AgentFlowSuite struct {
	suite.Suite
	app    *app.Application
	server *httptest.Server
}

func TestAgentFlowSuite(t *testing.T) {
	suite.Run(t, new(AgentFlowSuite))
}

func (s *AgentFlowSuite) SetupSuite() {
	t := s.T()
	t.Setenv("GHOSTGUARD_SERVER_PORT", "8089")
	t.Setenv("GHOSTGUARD_STORE_BACKEND", "memory")
	t.Setenv("GHOSTGUARD_SECURITY_SIGNING_SECRET", e2eSigningSecret)
	t.Setenv("GHOSTGUARD_SECURITY_ADMIN_SECRET", e2eAdminSecret)
	t.Setenv("GHOSTGUARD_SECURITY_RATE_LIMIT_ENABLED", "false")
	t.Setenv("GHOSTGUARD_LOGGING_LEVEL", "error")
	t.Setenv("GHOSTGUARD_LOGGING_OUTPUT", "console")

	application, err := app.NewApplication()
	require.NoError(t, err)

	s.app = application
	s.server = httptest.NewServer(application.Router)
}

func (s *AgentFlowSuite) TearDownSuite() {
	if s.server != nil {
		s.server.Close()
	}
	if s.app != nil {
		s.app.Hub.Stop()
		_ = s.app.WriteBacks.Stop(2 * time.Second)
	}
}

// createLicense mints a license over the admin API and returns its key.
func (s *AgentFlowSuite) createLicense(duration string) string {
	resp := s.adminRequest(http.MethodPost, "/api/admin/licenses", api.CreateLicenseRequest{Duration: duration})
	defer resp.Body.Close()
	require.Equal(s.T(), http.StatusCreated, resp.StatusCode)

	var created api.LicenseResponse
	require.NoError(s.T(), json.NewDecoder(resp.Body).Decode(&created))
	require.NotNil(s.T(), created.License)
	return created.License.LicenseKey
}

func (s *AgentFlowSuite) adminRequest(method, path string, body any) *http.Response {
	s.T().Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(s.T(), err)
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, s.server.URL+path, reader)
	require.NoError(s.T(), err)
	req.Header.Set(middleware.AdminSecretHeader, e2eAdminSecret)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.server.Client().Do(req)
	require.NoError(s.T(), err)
	return resp
}

func (s *AgentFlowSuite) newAgent(key, hwid string) *agent.Client {
	s.T().Helper()
	client, err := agent.New(agent.Config{
		BaseURL:    s.server.URL,
		LicenseKey: key,
		HWID:       hwid,
		Logger:     slog.New(slog.NewJSONHandler(io.Discard, nil)),
	})
	require.NoError(s.T(), err)
	return client
}

func (s *AgentFlowSuite) getJSON(path string, out any) *http.Response {
	s.T().Helper()
	resp, err := s.server.Client().Get(s.server.URL + path)
	require.NoError(s.T(), err)
	defer resp.Body.Close()
	require.NoError(s.T(), json.NewDecoder(resp.Body).Decode(out))
	return resp
}

func (s *AgentFlowSuite) postJSON(path string, body any, out any) *http.Response {
	s.T().Helper()
	payload, err := json.Marshal(body)
	require.NoError(s.T(), err)

	resp, err := s.server.Client().Post(s.server.URL+path, "application/json", bytes.NewReader(payload))
	require.NoError(s.T(), err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(s.T(), json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

// waitForBind polls the admin listing until the license shows the
// expected device binding; hwid writes ride the async write-back queue.
func (s *AgentFlowSuite) waitForBind(key, hwid string) {
	s.T().Helper()
	require.Eventually(s.T(), func() bool {
		resp := s.adminRequest(http.MethodGet, "/api/admin/licenses", nil)
		defer resp.Body.Close()

		var listing api.ListLicensesResponse
		if json.NewDecoder(resp.Body).Decode(&listing) != nil {
			return false
		}
		for _, lic := range listing.Licenses {
			if lic.LicenseKey == key {
				return lic.HWID == hwid
			}
		}
		return false
	}, bindWait, 50*time.Millisecond, "device binding never landed")
}

func (s *AgentFlowSuite) TestVerifyBindAndMismatch() {
	key := s.createLicense("monthly")
	first := s.newAgent(key, agentHWID)

	// First verification binds the device and issues a grant the agent
	// can check offline against the shared signing secret.
	result, err := first.Verify(s.ctx())
	require.NoError(s.T(), err)
	require.True(s.T(), result.Valid)
	require.NotNil(s.T(), result.Grant)
	assert.True(s.T(), result.Grant.Verify(e2eSigningSecret))
	assert.False(s.T(), result.Grant.Verify("some-other-secret"))

	s.waitForBind(key, agentHWID)

	// Same device verifies again.
	result, err = first.Verify(s.ctx())
	require.NoError(s.T(), err)
	assert.True(s.T(), result.Valid)

	// A different device is rejected, not errored.
	imposter := s.newAgent(key, otherHWID)
	result, err = imposter.Verify(s.ctx())
	require.NoError(s.T(), err)
	assert.False(s.T(), result.Valid)
	assert.Equal(s.T(), domain.ReasonHWIDMismatch, result.Reason)
}

func (s *AgentFlowSuite) TestVerifyUnknownKey() {
	client := s.newAgent("GG-ZZZZZ-ZZZZZ-ZZZZZ-ZZ", agentHWID)

	result, err := client.Verify(s.ctx())
	require.NoError(s.T(), err)
	assert.False(s.T(), result.Valid)
	assert.Equal(s.T(), domain.ReasonNotFound, result.Reason)
	assert.Nil(s.T(), result.Grant)
}

func (s *AgentFlowSuite) TestVerifyMissingKeyIsBadRequest() {
	// The 400 still speaks the verify shape so agents have one decoder.
	raw, err := s.server.Client().Post(s.server.URL+"/api/agent/verify", "application/json", strings.NewReader(`{}`))
	require.NoError(s.T(), err)
	defer raw.Body.Close()

	assert.Equal(s.T(), http.StatusBadRequest, raw.StatusCode)

	var verify api.VerifyResponse
	require.NoError(s.T(), json.NewDecoder(raw.Body).Decode(&verify))
	assert.False(s.T(), verify.Valid)
	assert.Equal(s.T(), domain.ReasonMissingKey, verify.Reason)
}

func (s *AgentFlowSuite) TestSuspendedLicenseRejectsVerbatim() {
	key := s.createLicense("monthly")
	client := s.newAgent(key, agentHWID)

	resp := s.adminRequest(http.MethodPut, "/api/admin/licenses/"+key+"/status",
		api.UpdateLicenseStatusRequest{Status: "SUSPENDED"})
	resp.Body.Close()
	require.Equal(s.T(), http.StatusOK, resp.StatusCode)

	result, err := client.Verify(s.ctx())
	require.NoError(s.T(), err)
	assert.False(s.T(), result.Valid)
	assert.Equal(s.T(), "SUSPENDED", result.Reason)

	// Reactivation restores verification.
	resp = s.adminRequest(http.MethodPut, "/api/admin/licenses/"+key+"/status",
		api.UpdateLicenseStatusRequest{Status: "ACTIVE"})
	resp.Body.Close()
	require.Equal(s.T(), http.StatusOK, resp.StatusCode)

	result, err = client.Verify(s.ctx())
	require.NoError(s.T(), err)
	assert.True(s.T(), result.Valid)
}

func (s *AgentFlowSuite) TestHeartbeatFeedsConsoleStatus() {
	key := s.createLicense("monthly")
	client := s.newAgent(key, agentHWID)

	err := client.Heartbeat(s.ctx(), agent.State{
		Players: []domain.Player{
			{PlayerID: "p1", Name: "Steve", Ping: 42},
			{PlayerID: "p2", Name: "Alex", Ping: 17},
		},
		Version: "1.4.2",
		Uptime:  3600,
	})
	require.NoError(s.T(), err)

	var status domain.ServerStatus
	resp := s.getJSON("/api/console/status/"+key, &status)
	assert.Equal(s.T(), http.StatusOK, resp.StatusCode)
	assert.True(s.T(), status.Online)
	assert.Equal(s.T(), 2, status.Players)
	assert.Equal(s.T(), "1.4.2", status.Version)

	var players api.PlayersResponse
	s.getJSON("/api/console/players/"+key, &players)
	require.Len(s.T(), players.Players, 2)
	assert.Equal(s.T(), "Steve", players.Players[0].Name)
}

func (s *AgentFlowSuite) TestConsoleReadsUnknownKeyAreEmpty() {
	const ghost = "GG-QQQQQ-QQQQQ-QQQQQ-QQ"

	var status domain.ServerStatus
	resp := s.getJSON("/api/console/status/"+ghost, &status)
	assert.Equal(s.T(), http.StatusOK, resp.StatusCode)
	assert.False(s.T(), status.Online)
	assert.Zero(s.T(), status.Players)

	var players api.PlayersResponse
	s.getJSON("/api/console/players/"+ghost, &players)
	assert.Empty(s.T(), players.Players)

	var bans api.BansResponse
	s.getJSON("/api/console/bans/"+ghost, &bans)
	assert.Empty(s.T(), bans.Bans)

	var logs api.LogsResponse
	s.getJSON("/api/console/logs/"+ghost, &logs)
	assert.Empty(s.T(), logs.Logs)
}

func (s *AgentFlowSuite) TestActionMailboxRoundTrip() {
	key := s.createLicense("monthly")
	client := s.newAgent(key, agentHWID)

	var queued api.EnqueueResponse
	resp := s.postJSON("/api/console/actions", api.ActionEnqueueRequest{
		LicenseKey: key,
		Type:       "kick",
		Payload:    json.RawMessage(`{"player":"griefer99"}`),
	}, &queued)
	require.Equal(s.T(), http.StatusOK, resp.StatusCode)
	require.NotEmpty(s.T(), queued.ID)

	actions, err := client.PollActions(s.ctx())
	require.NoError(s.T(), err)
	require.Len(s.T(), actions, 1)
	assert.Equal(s.T(), queued.ID, actions[0].ID)
	assert.Equal(s.T(), "kick", actions[0].Type)
	assert.JSONEq(s.T(), `{"player":"griefer99"}`, string(actions[0].Payload))

	// Consume-once: the mailbox is empty on the next poll.
	actions, err = client.PollActions(s.ctx())
	require.NoError(s.T(), err)
	assert.Empty(s.T(), actions)
}

func (s *AgentFlowSuite) TestLogPipeline() {
	key := s.createLicense("monthly")
	client := s.newAgent(key, agentHWID)

	require.NoError(s.T(), client.PushLog(s.ctx(), "warning", "tps dropped below 15"))
	require.NoError(s.T(), client.PushLog(s.ctx(), "", "server started"))

	var logs api.LogsResponse
	s.getJSON("/api/console/logs/"+key, &logs)
	require.Len(s.T(), logs.Logs, 2)

	// Newest first; empty kind defaulted to info.
	assert.Equal(s.T(), "server started", logs.Logs[0].Message)
	assert.Equal(s.T(), "info", logs.Logs[0].Kind)
	assert.Equal(s.T(), "warning", logs.Logs[1].Kind)
}

func (s *AgentFlowSuite) TestBanHistory() {
	key := s.createLicense("monthly")

	var ack api.AckResponse
	resp := s.postJSON("/api/console/ban", api.BanRequest{LicenseKey: key, Player: "griefer99"}, &ack)
	require.Equal(s.T(), http.StatusOK, resp.StatusCode)
	assert.True(s.T(), ack.Success)

	var bans api.BansResponse
	s.getJSON("/api/console/bans/"+key, &bans)
	require.Len(s.T(), bans.Bans, 1)
	assert.Equal(s.T(), "griefer99", bans.Bans[0].Player)
	assert.False(s.T(), bans.Bans[0].Time.IsZero())
}

func (s *AgentFlowSuite) TestRegisterAndLogin() {
	key := s.createLicense("yearly")

	var registered api.AuthResponse
	resp := s.postJSON("/api/auth/register", api.RegisterRequest{
		Username:   "operator",
		Password:   "correct horse battery",
		LicenseKey: key,
	}, &registered)
	require.Equal(s.T(), http.StatusCreated, resp.StatusCode)
	require.NotNil(s.T(), registered.Customer)
	assert.Equal(s.T(), key, registered.Customer.LicenseKey)

	var loggedIn api.AuthResponse
	resp = s.postJSON("/api/auth/login", api.LoginRequest{
		Username: "operator",
		Password: "correct horse battery",
	}, &loggedIn)
	assert.Equal(s.T(), http.StatusOK, resp.StatusCode)
	assert.True(s.T(), loggedIn.Success)

	resp = s.postJSON("/api/auth/login", api.LoginRequest{
		Username: "operator",
		Password: "wrong password",
	}, nil)
	assert.Equal(s.T(), http.StatusUnauthorized, resp.StatusCode)
}

func (s *AgentFlowSuite) TestAdminExportIncludesMintedKey() {
	key := s.createLicense("quarterly")

	resp := s.adminRequest(http.MethodGet, "/api/admin/licenses/export", nil)
	defer resp.Body.Close()
	require.Equal(s.T(), http.StatusOK, resp.StatusCode)
	assert.Contains(s.T(), resp.Header.Get("Content-Disposition"), "attachment")

	workbook, err := io.ReadAll(resp.Body)
	require.NoError(s.T(), err)

	f, err := excelize.OpenReader(bytes.NewReader(workbook))
	require.NoError(s.T(), err)
	defer f.Close()

	rows, err := f.GetRows(exporter.SheetName)
	require.NoError(s.T(), err)
	require.NotEmpty(s.T(), rows)

	var keys []string
	for _, row := range rows[1:] {
		if len(row) > 0 {
			keys = append(keys, row[0])
		}
	}
	assert.Contains(s.T(), keys, key)
}

func (s *AgentFlowSuite) TestAdminRequiresSecret() {
	resp, err := s.server.Client().Get(s.server.URL + "/api/admin/licenses")
	require.NoError(s.T(), err)
	resp.Body.Close()
	assert.Equal(s.T(), http.StatusUnauthorized, resp.StatusCode)
}

func (s *AgentFlowSuite) TestConsoleFeedBroadcastsHeartbeat() {
	key := s.createLicense("monthly")
	client := s.newAgent(key, agentHWID)

	wsURL := "ws" + strings.TrimPrefix(s.server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(s.T(), err)
	defer conn.Close()

	// The hub greets new consoles before any fleet traffic.
	require.NoError(s.T(), conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var greeting events.Message
	require.NoError(s.T(), conn.ReadJSON(&greeting))
	assert.Equal(s.T(), events.MessageTypeConnect, greeting.Type)

	require.NoError(s.T(), client.Heartbeat(s.ctx(), agent.State{
		Players: []domain.Player{{PlayerID: "p1", Name: "Steve", Ping: 30}},
		Version: "1.4.2",
		Uptime:  120,
	}))

	// Skip unrelated events until the heartbeat shows up.
	deadline := time.Now().Add(5 * time.Second)
	for {
		require.True(s.T(), time.Now().Before(deadline), "heartbeat event never arrived")
		require.NoError(s.T(), conn.SetReadDeadline(deadline))

		var msg events.Message
		require.NoError(s.T(), conn.ReadJSON(&msg))
		if msg.Type != events.MessageTypeHeartbeat {
			continue
		}

		data, ok := msg.Data.(map[string]any)
		require.True(s.T(), ok, "heartbeat data should be an object")
		assert.Equal(s.T(), license.MaskKey(key), data["license_key"])
		assert.Equal(s.T(), float64(1), data["players"])
		assert.Equal(s.T(), "1.4.2", data["version"])
		return
	}
}

func (s *AgentFlowSuite) ctx() context.Context {
	return context.Background()
}
