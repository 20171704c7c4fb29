// Package api contains API contract definitions for GhostGuard.
// Version v1 represents the current stable API version.
package api

import (
	"encoding/json"
)

// Agent API requests

// VerifyRequest asks the server to verify a license key. The hardware id
// is optional; supplying one on a fresh license binds it. The key itself
// carries no format constraint here: an unknown or malformed key is a
// NOT_FOUND rejection, not a request error.
type VerifyRequest struct {
	LicenseKey string `json:"license_key" validate:"required"`
	HWID       string `json:"hwid,omitempty" validate:"omitempty,hwid"`
}

// PlayerInput is one roster entry in a heartbeat.
type PlayerInput struct {
	PlayerID string `json:"player_id" validate:"required"`
	Name     string `json:"name"`
	Ping     int    `json:"ping" validate:"min=0"`
}

// HeartbeatRequest reports a game server's liveness and full player
// roster. The roster replaces the previous one wholesale.
type HeartbeatRequest struct {
	LicenseKey string        `json:"license_key" validate:"required"`
	Players    []PlayerInput `json:"players" validate:"dive"`
	Version    string        `json:"version"`
	Uptime     int64         `json:"uptime" validate:"min=0"`
}

// LogPushRequest appends one diagnostic line to a license's log buffer.
type LogPushRequest struct {
	LicenseKey string            `json:"license_key" validate:"required"`
	Message    string            `json:"message" validate:"required,max=2000"`
	Kind       string            `json:"kind,omitempty" validate:"omitempty,max=32"`
	Title      string            `json:"title,omitempty" validate:"omitempty,max=200"`
	Meta       map[string]string `json:"meta,omitempty"`
}

// Console API requests

// BanRequest records a player ban for a license.
type BanRequest struct {
	LicenseKey string `json:"license_key" validate:"required"`
	Player     string `json:"player" validate:"required,max=100"`
}

// ActionEnqueueRequest queues a command for the license's agent to pick
// up on its next poll.
type ActionEnqueueRequest struct {
	LicenseKey string          `json:"license_key" validate:"required"`
	Type       string          `json:"type" validate:"required,max=64"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// Auth API requests

// RegisterRequest creates a console account tied to a license key.
type RegisterRequest struct {
	Username   string `json:"username" validate:"required,min=3,max=64"`
	Password   string `json:"password" validate:"required,min=8,max=128"`
	LicenseKey string `json:"license_key" validate:"required,license_key"`
}

// LoginRequest authenticates a console account.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Admin API requests

// CreateLicenseRequest mints a new license. Expiry derives from the
// duration; lifetime licenses never expire.
type CreateLicenseRequest struct {
	Duration string `json:"duration" validate:"required,oneof=monthly quarterly yearly lifetime"`
}

// UpdateLicenseStatusRequest changes a license's stored status. The
// value becomes the verbatim rejection reason on verification when it
// is not ACTIVE.
type UpdateLicenseStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=ACTIVE SUSPENDED REVOKED"`
}

// ListLicensesRequest filters the admin license listing.
type ListLicensesRequest struct {
	Status string `json:"status" query:"status" validate:"omitempty,oneof=ACTIVE SUSPENDED REVOKED"`
	Limit  int    `json:"limit" query:"limit" validate:"omitempty,min=1,max=1000"`
}
