// Package store provides the external license registry consumed by the
// verification and admin layers.
//
// The Store interface abstracts over three backends chosen by
// configuration:
//
//   - MemoryStore: mutex-guarded maps, used by tests and standalone runs
//   - PGStore: PostgreSQL via pgx connection pooling
//   - SheetsStore: a Google Spreadsheet as the registry of record
//
// All backends report missing records with ErrNotFound and insert
// conflicts with ErrAlreadyExists so callers can branch without inspecting
// backend-specific errors.
//
// WriteBackQueue executes best-effort writes (device binds, last_seen
// stamps) asynchronously so verification latency never includes registry
// write latency. Its failures are logged, never surfaced.
package store
