package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMalformedToken is an exported constant or variable used by the session client.
var ErrMalformedToken = errors.New("malformed access token")

// ErrMissingExpiry is an exported constant or variable used by the session client.
var ErrMissingExpiry = errors.New("access token missing expiry claim")

// Config defines a public type used by goSession APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	// Leeway is subtracted from the current time during expiry checks to
	// absorb clock skew between client and server. Bounded to two minutes.
	Leeway time.Duration

	// RequireExpiry rejects payloads carrying no exp claim. When false a
	// token without exp never reports expired locally and the server stays
	// the sole authority.
	RequireExpiry bool
}

// Claims defines a public type used by goSession APIs.
//
// Claims instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Claims struct {
	UID  string `json:"uid,omitempty"`
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Inspector defines a public type used by goSession APIs.
//
// Inspector instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Inspector struct {
	config Config
	parser *jwt.Parser
}

// NewInspector describes the newinspector operation and its observable behavior.
//
// NewInspector may return an error when input validation, dependency calls, or security checks fail.
// NewInspector does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewInspector(cfg Config) (*Inspector, error) {
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	return &Inspector{
		config: cfg,
		parser: jwt.NewParser(jwt.WithoutClaimsValidation()),
	}, nil
}

// Decode describes the decode operation and its observable behavior.
//
// Decode may return an error when input validation, dependency calls, or security checks fail.
// Decode does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (i *Inspector) Decode(tokenStr string) (*Claims, error) {
	if i == nil || tokenStr == "" {
		return nil, ErrMalformedToken
	}

	claims := &Claims{}
	if _, _, err := i.parser.ParseUnverified(tokenStr, claims); err != nil {
		return nil, ErrMalformedToken
	}
	if i.config.RequireExpiry && claims.ExpiresAt == nil {
		return nil, ErrMissingExpiry
	}

	return claims, nil
}

// ExpiresAt describes the expiresat operation and its observable behavior.
//
// ExpiresAt may return an error when input validation, dependency calls, or security checks fail.
// ExpiresAt does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (i *Inspector) ExpiresAt(tokenStr string) (time.Time, error) {
	claims, err := i.Decode(tokenStr)
	if err != nil {
		return time.Time{}, err
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, ErrMissingExpiry
	}
	return claims.ExpiresAt.Time, nil
}

// Expired reports whether the token is past its embedded expiry at the given
// instant. Tokens that fail to decode, or that lack a required exp claim, are
// expired. This is the fail-closed primitive behind isAuthenticated checks.
func (i *Inspector) Expired(tokenStr string, now time.Time) bool {
	claims, err := i.Decode(tokenStr)
	if err != nil {
		return true
	}
	if claims.ExpiresAt == nil {
		// RequireExpiry=false and no exp claim: defer to the server.
		return false
	}
	return !now.Add(-i.config.Leeway).Before(claims.ExpiresAt.Time)
}
