// Package jwt inspects access-token claims on the client side without verifying
// signatures. Signature verification belongs to the server; the client only needs
// the embedded expiry and identity claims to decide when a token is worth sending.
//
// # Fail-closed contract
//
// Every decode path treats malformed input as expired: a token that cannot be
// parsed, or whose payload is missing the exp claim while expiry is required,
// reports Expired=true and never an authenticated state.
//
// # What this package must NOT do
//
//   - Verify signatures or trust any claim for authorization decisions.
//   - Perform network I/O.
//   - Import goSession, credential, or gate (no upward imports).
package jwt
