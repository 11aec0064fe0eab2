package goSession

import (
	"errors"
	"net/url"
	"strings"
	"time"
)

// Config defines a public type used by goSession APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	Endpoints  EndpointConfig
	Token      TokenConfig
	Gate       GateConfig
	Permission PermissionConfig
	Poll       PollConfig
	Audit      AuditConfig
	Metrics    MetricsConfig
	HTTP       HTTPConfig
}

/*
====================================
ENDPOINT CONFIG
====================================
*/

// EndpointConfig defines a public type used by goSession APIs.
//
// EndpointConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type EndpointConfig struct {
	// BaseURL is the auth backend origin, e.g. "https://api.example.com".
	BaseURL string
	// LoginPath receives POST {identifier, password}.
	LoginPath string
	// RefreshPath receives POST {refreshToken}.
	RefreshPath string
	// LogoutPath receives the best-effort revocation POST.
	LogoutPath string
	// PermissionPath serves GET {role, permissions}.
	PermissionPath string
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig defines a public type used by goSession APIs.
//
// TokenConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type TokenConfig struct {
	// Leeway absorbs client/server clock skew in local expiry checks.
	Leeway time.Duration
	// RequireExpiry treats tokens without an exp claim as expired.
	RequireExpiry bool
	// FallbackTTL bounds the local lifetime of a token carrying no exp claim
	// when RequireExpiry is false. Zero means no local bound.
	FallbackTTL time.Duration
}

/*
====================================
GATE CONFIG
====================================
*/

// GateConfig defines a public type used by goSession APIs.
//
// GateConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type GateConfig struct {
	// ProtectedPrefixes is the static table of path prefixes requiring
	// authentication. Adding a protected area means adding a prefix.
	ProtectedPrefixes []string
	// LoginPath is the redirect target on gate denial.
	LoginPath string
	// ReturnParam names the query parameter carrying the originally
	// requested path through the login redirect.
	ReturnParam string
	// PurgeOnDenial clears credential remnants whenever the gate denies.
	PurgeOnDenial bool
}

/*
====================================
PERMISSION CONFIG
====================================
*/

// PermissionConfig defines a public type used by goSession APIs.
//
// PermissionConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type PermissionConfig struct {
	// FetchTimeout bounds the permission-set fetch.
	FetchTimeout time.Duration
}

/*
====================================
POLL CONFIG
====================================
*/

// PollConfig defines a public type used by goSession APIs.
//
// PollConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type PollConfig struct {
	// DefaultInterval is used by polling hooks constructed without an
	// explicit interval.
	DefaultInterval time.Duration
	// MinInterval rejects timer loops tighter than the backend should see.
	MinInterval time.Duration
}

/*
====================================
AUDIT CONFIG
====================================
*/

// AuditConfig defines a public type used by goSession APIs.
//
// AuditConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig defines a public type used by goSession APIs.
//
// MetricsConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
HTTP CONFIG
====================================
*/

// HTTPConfig defines a public type used by goSession APIs.
//
// HTTPConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type HTTPConfig struct {
	// Timeout applies to auth endpoint calls issued by the client itself
	// (login, refresh, logout). Authenticated application calls inherit the
	// caller's context instead.
	Timeout time.Duration
	// UserAgent is attached to every request the client issues.
	UserAgent string
}

func defaultConfig() Config {
	return Config{
		Endpoints: EndpointConfig{
			LoginPath:      "/api/auth/login",
			RefreshPath:    "/api/auth/refresh",
			LogoutPath:     "/api/auth/logout",
			PermissionPath: "/api/auth/permissions",
		},
		Token: TokenConfig{
			Leeway:        30 * time.Second,
			RequireExpiry: true,
		},
		Gate: GateConfig{
			ProtectedPrefixes: []string{"/dashboard", "/search"},
			LoginPath:         "/login",
			ReturnParam:       "next",
			PurgeOnDenial:     true,
		},
		Permission: PermissionConfig{
			FetchTimeout: 10 * time.Second,
		},
		Poll: PollConfig{
			DefaultInterval: 30 * time.Second,
			MinInterval:     time.Second,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		HTTP: HTTPConfig{
			Timeout:   15 * time.Second,
			UserAgent: "goSession",
		},
	}
}

// DefaultConfig returns the baseline preset. Callers set Endpoints.BaseURL and
// adjust protected prefixes; everything else is usable as-is.
func DefaultConfig() Config {
	return defaultConfig()
}

// StrictConfig returns a hardened preset: zero expiry leeway beyond ten
// seconds, mandatory exp claims, purge on every gate denial, and audit
// enabled with a blocking buffer.
func StrictConfig() Config {
	cfg := defaultConfig()
	cfg.Token.Leeway = 10 * time.Second
	cfg.Token.RequireExpiry = true
	cfg.Token.FallbackTTL = 0
	cfg.Gate.PurgeOnDenial = true
	cfg.Audit.Enabled = true
	cfg.Audit.DropIfFull = false
	return cfg
}

// Validate describes the validate operation and its observable behavior.
//
// Validate may return an error when input validation, dependency calls, or security checks fail.
// Validate does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Config) Validate() error {
	if c.Endpoints.BaseURL == "" {
		return errors.New("endpoints: base URL is required")
	}
	parsed, err := url.Parse(c.Endpoints.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return errors.New("endpoints: base URL must be an absolute URL")
	}
	for _, p := range []string{
		c.Endpoints.LoginPath,
		c.Endpoints.RefreshPath,
		c.Endpoints.LogoutPath,
		c.Endpoints.PermissionPath,
	} {
		if p == "" || !strings.HasPrefix(p, "/") {
			return errors.New("endpoints: paths must be non-empty and rooted")
		}
	}

	if c.Token.Leeway < 0 || c.Token.Leeway > 2*time.Minute {
		return errors.New("token: leeway out of range")
	}
	if c.Token.FallbackTTL < 0 {
		return errors.New("token: fallback ttl must not be negative")
	}

	if c.Gate.LoginPath == "" || !strings.HasPrefix(c.Gate.LoginPath, "/") {
		return errors.New("gate: login path must be rooted")
	}
	if c.Gate.ReturnParam == "" {
		return errors.New("gate: return parameter is required")
	}
	for _, prefix := range c.Gate.ProtectedPrefixes {
		if prefix == "" || !strings.HasPrefix(prefix, "/") {
			return errors.New("gate: protected prefixes must be rooted")
		}
	}

	if c.Permission.FetchTimeout <= 0 {
		return errors.New("permission: fetch timeout must be positive")
	}

	if c.Poll.MinInterval <= 0 {
		return errors.New("poll: min interval must be positive")
	}
	if c.Poll.DefaultInterval < c.Poll.MinInterval {
		return errors.New("poll: default interval below min interval")
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("audit: buffer size must be positive when enabled")
	}

	if c.HTTP.Timeout <= 0 {
		return errors.New("http: timeout must be positive")
	}

	return nil
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Gate.ProtectedPrefixes = append([]string(nil), cfg.Gate.ProtectedPrefixes...)
	return out
}
