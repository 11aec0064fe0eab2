// Package credential owns persistence of the session credential: the access and
// refresh token pair plus the decoded identity. It is the single source of truth
// consulted by both the route gate and the session client.
//
// # All-or-nothing contract
//
// A credential is either fully present (both tokens set) or absent. Load never
// returns a partial credential: incomplete or undecodable stored state surfaces
// as [ErrNotFound]. Clear removes every credential-related entry in one step so
// no reader can observe a half-cleared session.
//
// # Architecture boundaries
//
// This package performs storage I/O only. It does NOT talk to authentication
// endpoints, refresh tokens, or evaluate permissions — those responsibilities
// belong to the Client.
//
// # What this package must NOT do
//
//   - Import goSession, gate, or permission (no upward imports).
//   - Issue network requests beyond its storage backend.
//   - Interpret token signatures.
package credential
