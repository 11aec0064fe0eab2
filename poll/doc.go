// Package poll provides the request-sequencing discipline every recurring
// status fetch must follow: a monotonic epoch counter plus a liveness flag,
// guaranteeing that an out-of-order network response never clobbers newer
// state and that nothing writes after the hook is stopped.
//
// # Protocol
//
// Each [Hook.Refresh] increments the hook's epoch and captures the resulting
// value before fetching. When the fetch resolves — success or error — the
// result is applied only if the captured epoch still equals the current epoch
// and the hook has not been stopped; otherwise it is discarded silently.
// There is no true cancellation of the underlying request: staleness is
// detected after the fact, which is exactly strong enough for last-write-wins
// state.
//
// Hooks gated on a permission flag hold their timer while the permission
// resolver is still loading and halt permanently once the flag is denied.
//
// # What this package must NOT do
//
//   - Let two hooks share state (each hook owns its value exclusively).
//   - Treat a fetch error as fatal: the hook reports the zero value plus the
//     error and the next tick retries.
package poll
