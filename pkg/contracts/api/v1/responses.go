package api

import (
	"time"

	"github.com/realghost120/ghostgaurd-becakd/pkg/contracts/domain"
)

// Agent API responses

// VerifyResponse is the verification outcome. Rejections come back with
// HTTP 200 and Valid false; only a missing key or malformed body is a
// request error. On success the payload and signature form the grant the
// agent stores and re-checks offline.
type VerifyResponse struct {
	Valid     bool       `json:"valid"`
	Reason    string     `json:"reason,omitempty"`
	Payload   string     `json:"payload,omitempty"`
	Signature string     `json:"signature,omitempty"`
	IssuedAt  *time.Time `json:"issued_at,omitempty"`
}

// AckResponse acknowledges a write that returns no data.
type AckResponse struct {
	Success bool `json:"success"`
}

// ActionsResponse carries the drained action queue. Draining consumes:
// each action is delivered at most once.
type ActionsResponse struct {
	Actions []domain.Action `json:"actions"`
}

// Console API responses

// PlayersResponse is the current roster for a license.
type PlayersResponse struct {
	Players []domain.Player `json:"players"`
}

// BansResponse is the full ban history for a license, oldest first.
type BansResponse struct {
	Bans []domain.Ban `json:"bans"`
}

// LogsResponse is the retained log buffer for a license, newest first.
type LogsResponse struct {
	Logs []domain.LogEntry `json:"logs"`
}

// EnqueueResponse returns the id assigned to a queued action.
type EnqueueResponse struct {
	ID string `json:"id"`
}

// Auth API responses

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Success  bool             `json:"success"`
	Customer *domain.Customer `json:"customer,omitempty"`
}

// Admin API responses

// LicenseResponse wraps a single license record.
type LicenseResponse struct {
	License *domain.License `json:"license"`
}

// ListLicensesResponse is the admin license listing.
type ListLicensesResponse struct {
	Licenses []domain.License `json:"licenses"`
	Count    int              `json:"count"`
}

// Health API responses

// HealthResponse reports component health for readiness checks.
type HealthResponse struct {
	Status     string            `json:"status"`
	Version    string            `json:"version"`
	Uptime     string            `json:"uptime"`
	Components map[string]string `json:"components,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
}
