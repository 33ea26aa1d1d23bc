package memory

import (
	"context"
	"sync"
)

// reservation tracks one idempotency key's lifecycle.
type reservation struct {
	entityID string
	done     bool
}

// IdempotencyStore is an in-memory idempotency store. Reserve takes the key
// atomically, so only one of two concurrent retries proceeds.
type IdempotencyStore struct {
	mu   sync.Mutex
	keys map[string]*reservation
}

// NewIdempotencyStore creates an empty in-memory idempotency store.
func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{keys: make(map[string]*reservation)}
}

// Reserve claims the key for the caller. ok is true when the key was free.
// When the key is taken, existingID carries the entity a completed earlier
// attempt produced, or "" when that attempt is still in flight.
func (s *IdempotencyStore) Reserve(_ context.Context, key string) (existingID string, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r, taken := s.keys[key]; taken {
		if r.done {
			return r.entityID, false, nil
		}
		return "", false, nil
	}

	s.keys[key] = &reservation{}
	return "", true, nil
}

// Complete records the entity produced under the key.
func (s *IdempotencyStore) Complete(_ context.Context, key, entityID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.keys[key] = &reservation{entityID: entityID, done: true}
	return nil
}

// Release frees a reserved key after a failed attempt so the client may
// retry with the same key.
func (s *IdempotencyStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r, taken := s.keys[key]; taken && !r.done {
		delete(s.keys, key)
	}
	return nil
}
