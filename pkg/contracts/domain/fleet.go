package domain

import (
	"encoding/json"
	"time"
)

// Player is one connected player as reported in an agent heartbeat.
type Player struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Ping     int    `json:"ping"`
}

// Ban records one ban event. The history is append-only; repeated bans
// of the same player appear as separate entries.
type Ban struct {
	Player string    `json:"player"`
	Time   time.Time `json:"time"`
}

// LogEntry is one diagnostic line from an agent or the console. Newer
// entries come first when listed.
type LogEntry struct {
	Time    time.Time         `json:"time"`
	Kind    string            `json:"kind"`
	Message string            `json:"message"`
	Title   string            `json:"title,omitempty"`
	Meta    map[string]string `json:"meta,omitempty"`
}

// Action is one queued command for an agent. The payload is opaque to
// the server; its shape is a contract between console and agent.
type Action struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// ServerStatus is the liveness snapshot for one licensed game server.
// A license the fleet has never heard from reads as the zero value.
type ServerStatus struct {
	Online        bool       `json:"online"`
	Players       int        `json:"players"`
	Uptime        int64      `json:"uptime"`
	Version       string     `json:"version"`
	LastHeartbeat *time.Time `json:"last_heartbeat,omitempty"`
}
