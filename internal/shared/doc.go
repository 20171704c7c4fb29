// Package shared holds cross-cutting test helpers that do not belong
// to any single domain package.
//
// The testutil subpackage provides a capturing slog handler with
// assertion helpers, and registry record fixtures that mint
// checksum-valid license keys. Production code must not import
// anything under this package.
package shared
