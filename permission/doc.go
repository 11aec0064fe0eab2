// Package permission resolves the authenticated user's role and capability
// flags and caches them for the session's lifetime.
//
// # Lifecycle
//
// A [Resolver] starts in the loading state: HasPermission conservatively
// returns false until the first Resolve completes. The fetch happens once per
// session; concurrent Resolve calls coalesce onto a single network request.
// The cache is never persisted: a fresh resolver after a restart or hard
// navigation re-fetches, so a server-side role change cannot be served stale.
//
// A fetch error is non-fatal by design: the resolver reports an empty
// permission set plus an error flag, so an authenticated-but-unknown user
// degrades to "access denied" rather than a broken page.
//
// # Architecture boundaries
//
// This package owns caching and lookup only. The network call, its metrics,
// and its audit trail belong to the session Client; the resolver consumes it
// through the narrow [SessionClient] interface.
//
// # What this package must NOT do
//
//   - Fetch before the credential is confirmed valid.
//   - Trigger network calls from HasPermission (pure lookup).
//   - Persist the resolved set anywhere.
package permission
