// Package http implements the HTTP handlers for the GhostGuard server.
// It is a thin layer between transport and the service layer: handlers
// parse and validate requests, delegate to services, and shape the
// responses defined in pkg/contracts.
//
// The surface splits by caller:
//
//   - /api/agent    game-server agents: verify, heartbeat, poll, log
//   - /api/console  customer console reads plus ban and action enqueue
//   - /api/auth     console account registration and login
//   - /api/admin    license administration behind the admin secret
//   - /api/health   liveness, readiness and diagnostics
//
// Two response conventions matter. License verification rejections are
// outcomes, not errors: they return HTTP 200 with valid=false and a
// reason, and only malformed input earns a 4xx. Everything else follows
// RFC 7807: failures render as problem documents with a type, title,
// detail and trace_id extension.
//
// Fleet reads never 404. A license key the fleet has not heard from
// yields the zero view (offline, empty roster, no history) because the
// console cannot distinguish an unknown key from a silent server.
package http
