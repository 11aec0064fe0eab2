package internaldefs

import (
	goSession "github.com/MrEthical07/goSession"
)

// CounterDef defines a public type used by goSession APIs.
//
// CounterDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type CounterDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// HistogramDef defines a public type used by goSession APIs.
//
// HistogramDef instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HistogramDef struct {
	ID   goSession.MetricID
	Name string
	Help string
}

// CounterDefs is an exported constant or variable used by the session client.
var CounterDefs = []CounterDef{
	{ID: goSession.MetricLoginSuccess, Name: "gosession_login_success_total", Help: "Successful login attempts."},
	{ID: goSession.MetricLoginFailure, Name: "gosession_login_failure_total", Help: "Failed login attempts."},
	{ID: goSession.MetricLogout, Name: "gosession_logout_total", Help: "Logout operations."},
	{ID: goSession.MetricLogoutRevocationFailed, Name: "gosession_logout_revocation_failed_total", Help: "Best-effort revocation calls that failed during logout."},
	{ID: goSession.MetricRefreshSuccess, Name: "gosession_refresh_success_total", Help: "Successful refresh operations."},
	{ID: goSession.MetricRefreshFailure, Name: "gosession_refresh_failure_total", Help: "Failed refresh operations."},
	{ID: goSession.MetricRefreshShared, Name: "gosession_refresh_shared_total", Help: "Callers that awaited an in-flight refresh instead of issuing their own."},
	{ID: goSession.MetricRequestReplayed, Name: "gosession_request_replayed_total", Help: "Requests replayed after a refresh."},
	{ID: goSession.MetricRequestUnauthorized, Name: "gosession_request_unauthorized_total", Help: "Authenticated requests answered 401."},
	{ID: goSession.MetricRequestForbidden, Name: "gosession_request_forbidden_total", Help: "Authenticated requests answered 403."},
	{ID: goSession.MetricGateAllowed, Name: "gosession_gate_allowed_total", Help: "Protected navigations admitted by the route gate."},
	{ID: goSession.MetricGateDenied, Name: "gosession_gate_denied_total", Help: "Protected navigations denied by the route gate."},
	{ID: goSession.MetricPermissionFetchSuccess, Name: "gosession_permission_fetch_success_total", Help: "Successful permission-set fetches."},
	{ID: goSession.MetricPermissionFetchFailure, Name: "gosession_permission_fetch_failure_total", Help: "Failed permission-set fetches."},
	{ID: goSession.MetricSessionExpired, Name: "gosession_session_expired_total", Help: "Sessions terminated by fatal credential failure."},
}

// HistogramDefs is an exported constant or variable used by the session client.
var HistogramDefs = []HistogramDef{
	{ID: goSession.MetricRefreshLatency, Name: "gosession_refresh_latency_seconds", Help: "Refresh latency histogram."},
}

// HistogramBounds is an exported constant or variable used by the session client.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix is an exported constant or variable used by the session client.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets describes the normalizebuckets operation and its observable behavior.
//
// NormalizeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets describes the cumulativebuckets operation and its observable behavior.
//
// CumulativeBuckets does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
