// Package license implements license key material and the server-side
// verification policy.
//
// # Components
//
//   - Keys: generation, checksum validation and masking of the
//     GG-XXXXX-XXXXX-XXXXX-CC key format
//   - Issuer: HMAC-SHA256 signed grant tokens for accepted verifications
//   - Resolver: the ordered verification policy against the registry
//
// # Verification Policy
//
// Verify evaluates these steps in order and stops at the first
// rejection:
//
//  1. Empty key rejects as MISSING_KEY before any registry traffic
//  2. Registry lookup; a missing record is NOT_FOUND, an unreachable
//     registry fails closed as UNAVAILABLE
//  3. Status gate: any stored status other than ACTIVE rejects with
//     that status verbatim
//  4. Expiry gate: a past expiry rejects as EXPIRED
//  5. Device binding: the first device to verify binds the license;
//     every later device rejects as HWID_MISMATCH
//  6. Accepted requests stamp last_seen best-effort and receive a
//     signed grant
//
// Rejections are decisions, not errors. The Decision type carries the
// outcome; error returns are reserved for faults in the caller's own
// plumbing.
//
// # Write-backs
//
// Device binds and last_seen stamps are side effects of verification,
// not part of the decision. They run through the write-back queue so a
// slow registry cannot stall the verify path, and their failures are
// logged and dropped.
package license
