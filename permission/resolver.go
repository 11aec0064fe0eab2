package permission

import (
	"context"
	"errors"
	"sort"
	"sync"

	goSession "github.com/MrEthical07/goSession"
	"golang.org/x/sync/singleflight"
)

// SessionClient is the slice of the session client the resolver needs:
// the authenticated permission fetch and the local credential check.
type SessionClient interface {
	FetchPermissions(ctx context.Context) (*goSession.PermissionSet, error)
	IsAuthenticated(ctx context.Context) bool
}

// Resolver defines a public type used by goSession APIs.
//
// Resolver instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Resolver struct {
	client SessionClient
	sf     singleflight.Group

	mu     sync.RWMutex
	loaded bool
	role   string
	flags  map[string]struct{}
	err    error
}

// NewResolver describes the newresolver operation and its observable behavior.
//
// NewResolver may return an error when input validation, dependency calls, or security checks fail.
// NewResolver does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewResolver(client SessionClient) (*Resolver, error) {
	if client == nil {
		return nil, errors.New("resolver requires a session client")
	}
	return &Resolver{client: client}, nil
}

// Resolve performs the once-per-session permission fetch. Repeated calls
// after the first completion are cache hits and issue no network request;
// concurrent first calls share one fetch. The permission set is never
// consulted before the credential is confirmed valid, so an unauthenticated
// resolver refuses to fetch and stays unloaded.
func (r *Resolver) Resolve(ctx context.Context) error {
	r.mu.RLock()
	if r.loaded {
		err := r.err
		r.mu.RUnlock()
		return err
	}
	r.mu.RUnlock()

	if !r.client.IsAuthenticated(ctx) {
		return goSession.ErrNotAuthenticated
	}

	_, err, _ := r.sf.Do("resolve", func() (interface{}, error) {
		r.mu.RLock()
		loaded := r.loaded
		r.mu.RUnlock()
		if loaded {
			return nil, nil
		}

		set, ferr := r.client.FetchPermissions(ctx)

		r.mu.Lock()
		defer r.mu.Unlock()
		r.loaded = true
		if ferr != nil {
			// Non-fatal: empty set plus error flag, "access denied" not
			// a broken page.
			r.role = ""
			r.flags = map[string]struct{}{}
			r.err = ferr
			return nil, nil
		}
		r.role = set.Role
		r.flags = make(map[string]struct{}, len(set.Permissions))
		for _, flag := range set.Permissions {
			r.flags[flag] = struct{}{}
		}
		r.err = nil
		return nil, nil
	})
	if err != nil {
		return err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.err
}

// HasPermission is a pure lookup: it never triggers a network call and
// conservatively returns false while loading or after a fetch error.
func (r *Resolver) HasPermission(flag string) bool {
	if r == nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.loaded || r.err != nil {
		return false
	}
	_, ok := r.flags[flag]
	return ok
}

// Role describes the role operation and its observable behavior.
//
// Role does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (r *Resolver) Role() string {
	if r == nil {
		return ""
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.role
}

// Permissions returns the resolved flags in sorted order.
//
// Permissions does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (r *Resolver) Permissions() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.flags))
	for flag := range r.flags {
		out = append(out, flag)
	}
	sort.Strings(out)
	return out
}

// IsLoading reports whether the first resolve has not yet completed.
//
// IsLoading does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (r *Resolver) IsLoading() bool {
	if r == nil {
		return false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return !r.loaded
}

// IsAuthenticated delegates to the session client's local credential check.
//
// IsAuthenticated does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (r *Resolver) IsAuthenticated(ctx context.Context) bool {
	if r == nil {
		return false
	}
	return r.client.IsAuthenticated(ctx)
}

// Err returns the error flag from the last fetch, nil when resolved cleanly.
//
// Err does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (r *Resolver) Err() error {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.err
}

// Invalidate drops the cached set. The next Resolve re-fetches; flows that
// mutate roles or permissions server-side must call this explicitly.
func (r *Resolver) Invalidate() {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.loaded = false
	r.role = ""
	r.flags = nil
	r.err = nil
	r.mu.Unlock()
}

// Refresh invalidates the cache and resolves again in one step.
//
// Refresh may return an error when input validation, dependency calls, or security checks fail.
// Refresh does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (r *Resolver) Refresh(ctx context.Context) error {
	if r == nil {
		return errors.New("nil resolver")
	}
	r.Invalidate()
	return r.Resolve(ctx)
}
