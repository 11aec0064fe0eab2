package credential

import (
	"context"
	"sync"
)

// MemoryStore defines a public type used by goSession APIs.
//
// MemoryStore is the default backend: a mutex-guarded in-process slot suitable
// for a single client instance. The zero value is ready to use.
type MemoryStore struct {
	mu   sync.RWMutex
	cred *Credential
}

// NewMemoryStore describes the newmemorystore operation and its observable behavior.
//
// NewMemoryStore does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Save describes the save operation and its observable behavior.
//
// Save may return an error when input validation, dependency calls, or security checks fail.
// Save does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *MemoryStore) Save(_ context.Context, cred *Credential) error {
	if !cred.Valid() {
		return ErrNotFound
	}
	copied := *cred

	s.mu.Lock()
	s.cred = &copied
	s.mu.Unlock()
	return nil
}

// Load describes the load operation and its observable behavior.
//
// Load may return an error when input validation, dependency calls, or security checks fail.
// Load does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *MemoryStore) Load(_ context.Context) (*Credential, error) {
	s.mu.RLock()
	cred := s.cred
	s.mu.RUnlock()

	if !cred.Valid() {
		return nil, ErrNotFound
	}
	copied := *cred
	return &copied, nil
}

// Clear describes the clear operation and its observable behavior.
//
// Clear may return an error when input validation, dependency calls, or security checks fail.
// Clear does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	s.cred = nil
	s.mu.Unlock()
	return nil
}
