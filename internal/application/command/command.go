// Package command contains write operations (CQRS - Commands) of the
// placement workflow: submission, tutor review, and hour logging. The
// company decision lives in the saga package because it composes two writes.
package command

import (
	"context"
)

// IDGenerator generates unique identifiers.
type IDGenerator interface {
	// GenerateID generates a new unique ID.
	GenerateID() string
}

// IdempotencyStore deduplicates create-type operations retried by clients
// after a timeout. A key is reserved before the write and completed with the
// resulting entity ID afterwards; a retry with the same key gets the
// original result instead of a duplicate.
type IdempotencyStore interface {
	// Reserve claims the key. When the key was already claimed it returns
	// the entity ID recorded by Complete (empty if the first attempt is
	// still in flight) and ok=false.
	Reserve(ctx context.Context, key string) (existingID string, ok bool, err error)

	// Complete records the entity ID produced under the key.
	Complete(ctx context.Context, key, entityID string) error

	// Release frees the key after a failed attempt so the client may retry.
	Release(ctx context.Context, key string) error
}
