package entitystore

import (
	"context"
	"errors"
)

// ErrUnsupported is returned by backends that do not implement an optional
// operation (server-side search or filtering). The store degrades to its
// client-side engine when it sees any error from those operations, so a
// backend may also just fail; the sentinel exists for explicitness and tests.
var ErrUnsupported = errors.New("operation not supported by backend")

// ErrNotFound reports that an identifier did not resolve to an entity held by
// the store or the backend.
var ErrNotFound = errors.New("entity not found")

// Backend is the asynchronous collection API a Store synchronizes against.
// Every method may fail with an opaque error; the store treats all failures
// of one operation uniformly regardless of cause.
type Backend[T any] interface {
	// GetAll fetches the full authoritative collection.
	GetAll(ctx context.Context) ([]T, error)

	// Search returns the collection narrowed to a free-text query.
	// Optional: return ErrUnsupported to make the store search locally.
	Search(ctx context.Context, query string) ([]T, error)

	// Filter returns the collection narrowed to field criteria.
	// Optional: return ErrUnsupported to make the store filter locally.
	Filter(ctx context.Context, criteria map[string]string) ([]T, error)

	// Create persists a new entity and returns the stored value, including
	// its assigned identifier and timestamps.
	Create(ctx context.Context, data T) (T, error)

	// Update applies a shallow patch to the entity with the given canonical
	// identifier and returns the stored value.
	Update(ctx context.Context, id string, patch Patch) (T, error)

	// Delete removes the entity with the given canonical identifier and
	// returns the removed value.
	Delete(ctx context.Context, id string) (T, error)
}
