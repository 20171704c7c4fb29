package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/realghost120/ghostgaurd-becakd/pkg/contracts"
	api "github.com/realghost120/ghostgaurd-becakd/pkg/contracts/api/v1"
	"github.com/realghost120/ghostgaurd-becakd/pkg/contracts/domain"
)

const (
	// defaultTimeout bounds each request when no custom client is given.
	defaultTimeout = 10 * time.Second

	userAgent = "ghostguard-agent/" + contracts.Version
)

// Configuration errors returned by New.
var (
	ErrMissingBaseURL    = errors.New("agent: base url is required")
	ErrMissingLicenseKey = errors.New("agent: license key is required")
)

// APIError is a non-2xx response from the server. Verification
// rejections are not APIErrors: the server answers those with 200 and a
// reason code.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("server returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("server returned status %d: %s", e.StatusCode, e.Detail)
}

// Config configures a Client.
type Config struct {
	// BaseURL is the server root, e.g. https://ghostguard.example.com.
	BaseURL string

	// LicenseKey is the key this agent runs under.
	LicenseKey string

	// HWID overrides the device fingerprint. When empty the client
	// derives one from the machine on first use.
	HWID string

	// HTTPClient replaces the default client (10s timeout).
	HTTPClient *http.Client

	// Logger receives request diagnostics; defaults to slog.Default().
	Logger *slog.Logger
}

// Client talks to a GhostGuard server on behalf of one licensed game
// server. It is safe for concurrent use.
type Client struct {
	baseURL    string
	licenseKey string
	hwid       string
	httpClient *http.Client
	logger     *slog.Logger
	fp         *Fingerprinter
}

// New creates a client for the given server and license key.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, ErrMissingBaseURL
	}
	if cfg.LicenseKey == "" {
		return nil, ErrMissingLicenseKey
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		licenseKey: cfg.LicenseKey,
		hwid:       cfg.HWID,
		httpClient: httpClient,
		logger:     logger.With(slog.String("component", "agent.client")),
		fp:         NewFingerprinter(),
	}, nil
}

// HWID returns the device id verification requests carry: the configured
// override when set, otherwise the machine fingerprint.
func (c *Client) HWID() string {
	if c.hwid != "" {
		return c.hwid
	}
	return c.fp.HWID()
}

// VerifyResult is the outcome of one verification call. Rejections are
// data, not errors: the error return covers only transport and server
// faults, and a caller that cannot reach a decision must treat the
// license as invalid.
type VerifyResult struct {
	Valid  bool
	Reason string

	// Grant is the signed authorization; set only when Valid.
	Grant *Grant
}

// Verify asks the server to verify this client's license, binding the
// device fingerprint on a fresh license.
func (c *Client) Verify(ctx context.Context) (*VerifyResult, error) {
	req := api.VerifyRequest{
		LicenseKey: c.licenseKey,
		HWID:       c.HWID(),
	}

	var resp api.VerifyResponse
	if err := c.post(ctx, "/api/agent/verify", req, &resp); err != nil {
		return nil, err
	}

	result := &VerifyResult{Valid: resp.Valid, Reason: resp.Reason}
	if resp.Valid {
		result.Grant = &Grant{
			Payload:   resp.Payload,
			Signature: resp.Signature,
		}
		if resp.IssuedAt != nil {
			result.Grant.IssuedAt = *resp.IssuedAt
		}
	}

	c.logger.DebugContext(ctx, "verification completed",
		slog.Bool("valid", result.Valid),
		slog.String("reason", result.Reason))
	return result, nil
}

// State is the agent's runtime snapshot reported in a heartbeat. The
// roster replaces the server's previous one wholesale.
type State struct {
	Players []domain.Player
	Version string
	Uptime  int64
}

// Heartbeat reports the agent's liveness and current player roster.
func (c *Client) Heartbeat(ctx context.Context, state State) error {
	players := make([]api.PlayerInput, 0, len(state.Players))
	for _, p := range state.Players {
		players = append(players, api.PlayerInput{
			PlayerID: p.PlayerID,
			Name:     p.Name,
			Ping:     p.Ping,
		})
	}

	req := api.HeartbeatRequest{
		LicenseKey: c.licenseKey,
		Players:    players,
		Version:    state.Version,
		Uptime:     state.Uptime,
	}

	var resp api.AckResponse
	return c.post(ctx, "/api/agent/heartbeat", req, &resp)
}

// PollActions drains the agent's action mailbox. Delivery is
// consume-once: actions returned here are gone from the server, and an
// agent that drops them does not see them again.
func (c *Client) PollActions(ctx context.Context) ([]domain.Action, error) {
	query := url.Values{"key": {c.licenseKey}}

	var resp api.ActionsResponse
	if err := c.get(ctx, "/api/agent/actions", query, &resp); err != nil {
		return nil, err
	}

	if len(resp.Actions) > 0 {
		c.logger.DebugContext(ctx, "actions received",
			slog.Int("count", len(resp.Actions)))
	}
	return resp.Actions, nil
}

// PushLog appends one diagnostic line to the license's server-side log
// buffer. An empty kind reads as "info".
func (c *Client) PushLog(ctx context.Context, kind, message string) error {
	req := api.LogPushRequest{
		LicenseKey: c.licenseKey,
		Kind:       kind,
		Message:    message,
	}

	var resp api.AckResponse
	return c.post(ctx, "/api/agent/log", req, &resp)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &APIError{StatusCode: resp.StatusCode, Detail: problemDetail(resp.Body)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// problemDetail pulls the human-readable detail out of an RFC 7807 error
// body, falling back to the raw text.
func problemDetail(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil {
		return ""
	}

	var problem struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &problem) == nil {
		if problem.Detail != "" {
			return problem.Detail
		}
		if problem.Title != "" {
			return problem.Title
		}
	}
	return strings.TrimSpace(string(body))
}
