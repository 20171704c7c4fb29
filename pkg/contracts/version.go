// Package contracts carries the wire-level surface shared between the
// GhostGuard server and its clients: request/response DTOs under
// api/v1, read-model views under domain and WebSocket envelopes under
// events. Code outside this repository should depend only on these
// packages, never on internal ones.
package contracts

// Version is the GhostGuard release version. The agent SDK reports it
// in its User-Agent and the server surfaces it from the health
// endpoints.
const Version = "1.2.0"

// BuildTime is stamped by the release pipeline via -ldflags.
var BuildTime = "unknown"
