// Package memstore provides an in-memory [resource.Store] with integer keys.
package memstore

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/brunoabdon/abdedge/resource"
)

// A Store keeps entities in memory, keyed by positive integers assigned in
// creation order. It is safe for concurrent use.
type Store[E any] struct {
	mu       sync.RWMutex
	last     int
	items    map[int]E
	withKey  func(E, int) E
	validate func(E) error
}

var _ resource.Store[int, struct{}] = (*Store[struct{}])(nil)

// An Option customizes a [Store] built by [New].
type Option[E any] func(*Store[E])

// WithValidation makes the store refuse to create or update entities for
// which validate returns an error. The refusal is a [*resource.StoreError].
func WithValidation[E any](validate func(E) error) Option[E] {
	return func(s *Store[E]) {
		s.validate = validate
	}
}

// New returns an empty Store. withKey returns a copy of an entity that
// carries the given key; the store applies it to every entity it keeps.
func New[E any](withKey func(E, int) E, opts ...Option[E]) *Store[E] {
	s := Store[E]{
		items:   make(map[int]E),
		withKey: withKey,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return &s
}

func (s *Store[E]) Find(_ context.Context, key int) (E, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, found := s.items[key]
	if !found {
		return e, notFound(key)
	}
	return e, nil
}

func (s *Store[E]) List(_ context.Context) ([]E, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	elems := make([]E, 0, len(s.items))
	for _, key := range slices.Sorted(maps.Keys(s.items)) {
		elems = append(elems, s.items[key])
	}
	return elems, nil
}

func (s *Store[E]) Create(_ context.Context, e E) (int, E, error) {
	if err := s.check("create", e); err != nil {
		var zero E
		return 0, zero, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last++
	key := s.last
	e = s.withKey(e, key)
	s.items[key] = e
	return key, e, nil
}

func (s *Store[E]) Update(_ context.Context, key int, e E) (E, error) {
	if err := s.check("update", e); err != nil {
		var zero E
		return zero, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.items[key]; !found {
		var zero E
		return zero, notFound(key)
	}
	e = s.withKey(e, key)
	s.items[key] = e
	return e, nil
}

func (s *Store[E]) Delete(_ context.Context, key int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, found := s.items[key]; !found {
		return notFound(key)
	}
	delete(s.items, key)
	return nil
}

// Len returns the number of entities in s.
func (s *Store[E]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

func (s *Store[E]) check(op string, e E) error {
	if s.validate == nil {
		return nil
	}
	if err := s.validate(e); err != nil {
		return &resource.StoreError{Op: op, Err: err}
	}
	return nil
}

func notFound(key int) error {
	return fmt.Errorf("memstore: key %d: %w", key, resource.ErrNotFound)
}
