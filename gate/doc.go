// Package gate exposes the HTTP middleware that blocks unauthenticated access
// to protected path prefixes before any protected content is produced.
//
// # Guards
//
//   - [Gate.Middleware] — classifies the request path against the protected
//     prefix table, evaluates the local-only credential check, and either
//     mounts the wrapped handler or redirects to the login path with the
//     originally requested path preserved in a return parameter.
//
// The check is intentionally coarse: it verifies "is there a plausible,
// unexpired token", not "is this token still valid server-side". The latter
// is discovered lazily by the Client's refresh-and-retry path.
//
// # Architecture boundaries
//
// This package translates HTTP navigation semantics into Client calls. It
// does NOT inspect tokens itself and never performs network I/O — all
// decisions are delegated to Client.AuthorizeNavigation against the one
// canonical credential store.
//
// # What this package must NOT do
//
//   - Decode or validate JWTs directly (delegates to the Client).
//   - Issue network requests on the navigation path.
//   - Keep a credential-presence heuristic of its own.
package gate
