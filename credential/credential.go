package credential

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is an exported constant or variable used by the session client.
var ErrNotFound = errors.New("credential not found")

// ErrStoreUnavailable is an exported constant or variable used by the session client.
var ErrStoreUnavailable = errors.New("credential store unavailable")

// Identity defines a public type used by goSession APIs.
//
// Identity instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Identity struct {
	UserID      string `json:"user_id"`
	Role        string `json:"role,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	Email       string `json:"email,omitempty"`
}

// Credential defines a public type used by goSession APIs.
//
// Credential instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Credential struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	Identity     Identity  `json:"identity"`
}

// Valid reports whether the credential satisfies the all-or-nothing presence
// invariant: both tokens set. A credential failing this check is treated as
// absent everywhere.
func (c *Credential) Valid() bool {
	return c != nil && c.AccessToken != "" && c.RefreshToken != ""
}

// Expired reports whether the stored expiry instant has passed. A zero
// ExpiresAt defers entirely to token-claim inspection by the caller.
func (c *Credential) Expired(now time.Time) bool {
	if c == nil {
		return true
	}
	return !c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)
}

// Store defines a public type used by goSession APIs.
//
// Store implementations must guarantee that Clear is atomic from the caller's
// point of view and that Load never yields a partial credential.
type Store interface {
	// Save replaces the stored credential wholesale.
	Save(ctx context.Context, cred *Credential) error
	// Load returns the stored credential, or ErrNotFound when absent or
	// structurally incomplete.
	Load(ctx context.Context) (*Credential, error)
	// Clear removes the stored credential. Clearing an empty store is a
	// no-op that still guarantees absence afterward.
	Clear(ctx context.Context) error
}
