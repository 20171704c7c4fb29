package fleet

import (
	"encoding/json"
	"time"
)

const (
	// OnlineTTL is how long after its last heartbeat a server is still
	// reported online.
	OnlineTTL = 30 * time.Second

	// LogCapacity bounds the per-license log buffer. Older entries are
	// dropped silently.
	LogCapacity = 300

	// MailboxCapacity bounds the per-license action queue.
	MailboxCapacity = 200

	// mailboxEvictBatch is how many of the oldest actions one overflow
	// trim removes. Batching keeps enqueue cost flat under sustained
	// overflow instead of shifting the queue on every append.
	mailboxEvictBatch = 50
)

// RosterEntry is one connected player as reported by the agent. The
// roster is replaced wholesale on every heartbeat.
type RosterEntry struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Ping     int    `json:"ping"`
}

// BanEntry records one ban event. Bans are append-only and repeated
// bans of the same player are kept as separate events.
type BanEntry struct {
	Player string    `json:"player"`
	Time   time.Time `json:"time"`
}

// LogEntry is one diagnostic line pushed by an agent or the console.
type LogEntry struct {
	Time    time.Time         `json:"time"`
	Kind    string            `json:"kind"`
	Message string            `json:"message"`
	Title   string            `json:"title,omitempty"`
	Meta    map[string]string `json:"meta,omitempty"`
}

// Action is one queued command for an agent. Payload passes through
// untouched; its shape is a contract between console and agent.
type Action struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// StatusView is the derived liveness snapshot for one license. Unknown
// licenses yield the zero view, never an error.
type StatusView struct {
	Online        bool       `json:"online"`
	Players       int        `json:"players"`
	Uptime        int64      `json:"uptime"`
	Version       string     `json:"version"`
	LastHeartbeat *time.Time `json:"last_heartbeat,omitempty"`
}
