// Package goSession provides the client-side session and authorization core for
// applications talking to a token-based auth backend: credential storage, login
// and logout flows, an authenticated HTTP primitive with transparent
// single-flight refresh, plus route gating, permission resolution, and polling
// discipline in dedicated subpackages.
//
// The package is designed for concurrent callers: Client methods are safe to
// call from multiple goroutines after initialization through [Builder.Build].
//
// # Architecture boundaries
//
// goSession is the public surface. It exposes [Client], [Builder], [Config],
// and value types (Identity, APIError, MetricsSnapshot, etc.). The credential
// store backends live under credential/, claim inspection under jwt/, the
// route gate under gate/, the permission resolver under permission/, and the
// polling primitive under poll/.
//
// # What this package must NOT do
//
//   - Verify token signatures or implement the backend's authentication logic —
//     login, refresh, and permission endpoints are opaque network services.
//   - Expose store backends or wire encodings in its public API.
//   - Consult permissions before the credential is confirmed present and live.
//
// # Refresh contract
//
// Do is the hot path. An authorization failure (401) triggers exactly one
// refresh attempt shared by every concurrent caller that observed the expired
// token; the original request is replayed once with the rotated token. A 403
// is a permission failure and never triggers refresh. Refresh failure is
// terminal: the store is cleared and all waiters fail together.
package goSession
