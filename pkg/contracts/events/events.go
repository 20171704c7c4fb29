// Package events contains the event contract for the GhostGuard console
// WebSocket feed. The hub publishes these; console clients decode on type.
package events

import (
	"time"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// Fleet messages
	MessageTypeHeartbeat      MessageType = "fleet:heartbeat"
	MessageTypeBan            MessageType = "fleet:ban"
	MessageTypeActionQueued   MessageType = "fleet:action_queued"
	MessageTypeActionsDrained MessageType = "fleet:actions_drained"
	MessageTypeLog            MessageType = "fleet:log"

	// System messages
	MessageTypeSystemStatus MessageType = "system:status"

	// Connection messages
	MessageTypeConnect    MessageType = "connect"
	MessageTypeDisconnect MessageType = "disconnect"
	MessageTypeError      MessageType = "error"
)

// BaseMessage represents the base structure for all WebSocket messages
type BaseMessage struct {
	ID        string      `json:"id,omitempty"`
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
}

// Message represents a complete WebSocket message
type Message struct {
	BaseMessage
	Data interface{} `json:"data,omitempty"`
}

// HeartbeatEvent announces a received heartbeat. License keys are
// masked before broadcast.
type HeartbeatEvent struct {
	LicenseKey string `json:"license_key"`
	Players    int    `json:"players"`
	Version    string `json:"version"`
	Uptime     int64  `json:"uptime"`
}

// BanEvent announces a recorded player ban.
type BanEvent struct {
	LicenseKey string    `json:"license_key"`
	Player     string    `json:"player"`
	Time       time.Time `json:"time"`
}

// ActionEvent announces a queued or drained agent action.
type ActionEvent struct {
	LicenseKey string `json:"license_key"`
	ActionID   string `json:"action_id,omitempty"`
	ActionType string `json:"action_type,omitempty"`
	Count      int    `json:"count,omitempty"`
}

// LogEvent announces a pushed log line.
type LogEvent struct {
	LicenseKey string `json:"license_key"`
	Kind       string `json:"kind"`
	Message    string `json:"message"`
}

// StatusEvent reports overall service health to connected consoles.
type StatusEvent struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
	Clients int    `json:"clients"`
}

// ErrorEvent carries a feed-level error to the client.
type ErrorEvent struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Fatal   bool   `json:"fatal"`
}
