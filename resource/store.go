package resource

import (
	"context"
	"errors"
)

// ErrNotFound reports that no entity has the requested key.
var ErrNotFound = errors.New("resource: not found")

// A StoreError reports that a store refused an operation, typically
// because the entity violates one of the store's constraints.
type StoreError struct {
	Op  string // "find", "list", "create", "update" or "delete"
	Err error
}

func (e *StoreError) Error() string {
	return "resource: " + e.Op + ": " + e.Err.Error()
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// A ReadOnlyStore looks up entities of type E by key of type K.
type ReadOnlyStore[K comparable, E any] interface {
	// Find returns the entity with the given key, or an error wrapping
	// ErrNotFound.
	Find(ctx context.Context, key K) (E, error)
	// List returns every entity, in a stable order.
	List(ctx context.Context) ([]E, error)
}

// A Store is a ReadOnlyStore that also creates, updates and deletes
// entities.
type Store[K comparable, E any] interface {
	ReadOnlyStore[K, E]
	// Create stores e under a new key and returns that key along with the
	// stored entity.
	Create(ctx context.Context, e E) (K, E, error)
	// Update replaces the entity with the given key and returns the stored
	// entity, or an error wrapping ErrNotFound.
	Update(ctx context.Context, key K, e E) (E, error)
	// Delete removes the entity with the given key, or returns an error
	// wrapping ErrNotFound.
	Delete(ctx context.Context, key K) error
}
