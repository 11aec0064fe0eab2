package permission

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"

	goSession "github.com/MrEthical07/goSession"
)

type fakeClient struct {
	mu            sync.Mutex
	fetches       int
	authenticated bool
	set           *goSession.PermissionSet
	err           error
	block         chan struct{}
}

func (f *fakeClient) FetchPermissions(ctx context.Context) (*goSession.PermissionSet, error) {
	f.mu.Lock()
	f.fetches++
	block := f.block
	set, err := f.set, f.err
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	if err != nil {
		return nil, err
	}
	return set, nil
}

func (f *fakeClient) IsAuthenticated(ctx context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.authenticated
}

func (f *fakeClient) fetchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

func TestNewResolverRequiresClient(t *testing.T) {
	if _, err := NewResolver(nil); err == nil {
		t.Fatal("expected error for nil client")
	}
}

func TestResolveCachesAfterFirstFetch(t *testing.T) {
	client := &fakeClient{
		authenticated: true,
		set: &goSession.PermissionSet{
			Role:        "editor",
			Permissions: []string{"posts:write", "posts:read"},
		},
	}
	r, err := NewResolver(client)
	if err != nil {
		t.Fatalf("NewResolver failed: %v", err)
	}

	if !r.IsLoading() {
		t.Fatal("expected loading before first resolve")
	}
	if err := r.Resolve(context.Background()); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if err := r.Resolve(context.Background()); err != nil {
		t.Fatalf("second Resolve failed: %v", err)
	}

	if got := client.fetchCount(); got != 1 {
		t.Fatalf("expected exactly 1 fetch, got %d", got)
	}
	if r.IsLoading() {
		t.Fatal("expected loaded after resolve")
	}
	if r.Role() != "editor" {
		t.Fatalf("unexpected role %q", r.Role())
	}
	if !r.HasPermission("posts:write") {
		t.Fatal("expected posts:write granted")
	}
	if r.HasPermission("admin:users") {
		t.Fatal("expected unknown flag denied")
	}
	want := []string{"posts:read", "posts:write"}
	if got := r.Permissions(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected sorted permissions %v, got %v", want, got)
	}
}

func TestResolveRefusesWhenUnauthenticated(t *testing.T) {
	client := &fakeClient{authenticated: false}
	r, err := NewResolver(client)
	if err != nil {
		t.Fatalf("NewResolver failed: %v", err)
	}

	if err := r.Resolve(context.Background()); !errors.Is(err, goSession.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
	if got := client.fetchCount(); got != 0 {
		t.Fatalf("expected no fetch, got %d", got)
	}
	if !r.IsLoading() {
		t.Fatal("expected resolver to stay unloaded")
	}
}

func TestResolveFetchErrorIsNonFatal(t *testing.T) {
	fetchErr := errors.New("backend down")
	client := &fakeClient{authenticated: true, err: fetchErr}
	r, err := NewResolver(client)
	if err != nil {
		t.Fatalf("NewResolver failed: %v", err)
	}

	if err := r.Resolve(context.Background()); !errors.Is(err, fetchErr) {
		t.Fatalf("expected fetch error surfaced, got %v", err)
	}
	if r.IsLoading() {
		t.Fatal("expected resolver loaded even after fetch error")
	}
	if r.HasPermission("anything") {
		t.Fatal("expected all permissions denied after fetch error")
	}
	if r.Err() == nil {
		t.Fatal("expected error flag set")
	}
	if got := len(r.Permissions()); got != 0 {
		t.Fatalf("expected empty set, got %d flags", got)
	}
}

func TestConcurrentResolveSharesOneFetch(t *testing.T) {
	block := make(chan struct{})
	client := &fakeClient{
		authenticated: true,
		set:           &goSession.PermissionSet{Role: "viewer", Permissions: []string{"posts:read"}},
		block:         block,
	}
	r, err := NewResolver(client)
	if err != nil {
		t.Fatalf("NewResolver failed: %v", err)
	}

	const callers = 16
	var started, done sync.WaitGroup
	var failures atomic.Uint64
	started.Add(callers)
	done.Add(callers)
	for i := 0; i < callers; i++ {
		go func() {
			defer done.Done()
			started.Done()
			if err := r.Resolve(context.Background()); err != nil {
				failures.Add(1)
			}
		}()
	}
	started.Wait()
	close(block)
	done.Wait()

	if n := failures.Load(); n != 0 {
		t.Fatalf("expected no resolve failures, got %d", n)
	}
	if got := client.fetchCount(); got != 1 {
		t.Fatalf("expected a single shared fetch, got %d", got)
	}
	if !r.HasPermission("posts:read") {
		t.Fatal("expected posts:read granted")
	}
}

func TestInvalidateForcesRefetch(t *testing.T) {
	client := &fakeClient{
		authenticated: true,
		set:           &goSession.PermissionSet{Role: "viewer", Permissions: []string{"posts:read"}},
	}
	r, err := NewResolver(client)
	if err != nil {
		t.Fatalf("NewResolver failed: %v", err)
	}

	if err := r.Resolve(context.Background()); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	client.mu.Lock()
	client.set = &goSession.PermissionSet{Role: "admin", Permissions: []string{"admin:users"}}
	client.mu.Unlock()

	// Cached: role change on the backend is invisible until invalidation.
	if err := r.Resolve(context.Background()); err != nil {
		t.Fatalf("cached Resolve failed: %v", err)
	}
	if r.Role() != "viewer" {
		t.Fatalf("expected cached role viewer, got %q", r.Role())
	}

	if err := r.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if r.Role() != "admin" {
		t.Fatalf("expected refreshed role admin, got %q", r.Role())
	}
	if !r.HasPermission("admin:users") {
		t.Fatal("expected admin:users granted after refresh")
	}
	if got := client.fetchCount(); got != 2 {
		t.Fatalf("expected 2 fetches total, got %d", got)
	}
}
