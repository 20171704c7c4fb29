// Package fleet tracks the ephemeral state of deployed game servers:
// heartbeat-derived liveness, player rosters, ban history, recent logs
// and the per-license action mailbox consumed by agents.
//
// All state lives in process memory, sharded by license key with a lock
// per key so traffic on one license never stalls another. Nothing here
// survives a restart: the tracker is a best-effort view of the fleet,
// not a system of record.
package fleet
