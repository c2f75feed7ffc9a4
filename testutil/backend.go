// Package testutil provides a scriptable in-memory backend for exercising
// stores in tests: each operation can be made to fail independently and the
// call counts are recorded.
package testutil

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/newillusions/e-fees-sub005/entitystore"
	"github.com/newillusions/e-fees-sub005/identity"
)

// StubBackend implements entitystore.Backend over a plain slice. The zero
// value is not usable; create one with NewStubBackend.
type StubBackend[T any] struct {
	mu    sync.Mutex
	items []T

	ref    func(T) identity.Ref
	setRef func(T, identity.Ref) T
	match  func(T, string) bool // optional, enables server-side Search

	errGetAll error
	errSearch error
	errFilter error
	errCreate error
	errUpdate error
	errDelete error

	gate chan struct{}

	Calls map[string]int
}

// NewStubBackend creates a stub over the given seed items. ref and setRef
// mirror the store's accessors so the stub can assign identifiers on create.
func NewStubBackend[T any](items []T, ref func(T) identity.Ref, setRef func(T, identity.Ref) T) *StubBackend[T] {
	return &StubBackend[T]{
		items:  append([]T(nil), items...),
		ref:    ref,
		setRef: setRef,
		Calls:  make(map[string]int),
	}
}

// SetMatcher enables server-side search using the given text matcher.
// Without one, Search reports entitystore.ErrUnsupported.
func (b *StubBackend[T]) SetMatcher(match func(T, string) bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.match = match
}

// Hold blocks every subsequent mutation (Create, Update, Delete) until the
// returned release function is called, keeping those operations in flight so
// tests can observe the store's optimistic interim state.
func (b *StubBackend[T]) Hold() (release func()) {
	gate := make(chan struct{})
	b.mu.Lock()
	b.gate = gate
	b.mu.Unlock()
	return func() {
		b.mu.Lock()
		if b.gate == gate {
			b.gate = nil
		}
		b.mu.Unlock()
		close(gate)
	}
}

// awaitGate parks the calling operation while a Hold is active. Must be
// called without the stub's lock held.
func (b *StubBackend[T]) awaitGate() {
	b.mu.Lock()
	gate := b.gate
	b.mu.Unlock()
	if gate != nil {
		<-gate
	}
}

// FailGetAll makes GetAll return err (nil restores success).
func (b *StubBackend[T]) FailGetAll(err error) { b.mu.Lock(); b.errGetAll = err; b.mu.Unlock() }

// FailSearch makes Search return err.
func (b *StubBackend[T]) FailSearch(err error) { b.mu.Lock(); b.errSearch = err; b.mu.Unlock() }

// FailFilter makes Filter return err.
func (b *StubBackend[T]) FailFilter(err error) { b.mu.Lock(); b.errFilter = err; b.mu.Unlock() }

// FailCreate makes Create return err.
func (b *StubBackend[T]) FailCreate(err error) { b.mu.Lock(); b.errCreate = err; b.mu.Unlock() }

// FailUpdate makes Update return err.
func (b *StubBackend[T]) FailUpdate(err error) { b.mu.Lock(); b.errUpdate = err; b.mu.Unlock() }

// FailDelete makes Delete return err.
func (b *StubBackend[T]) FailDelete(err error) { b.mu.Lock(); b.errDelete = err; b.mu.Unlock() }

// Items returns a copy of the stub's current collection.
func (b *StubBackend[T]) Items() []T {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]T(nil), b.items...)
}

// GetAll implements entitystore.Backend.
func (b *StubBackend[T]) GetAll(ctx context.Context) ([]T, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Calls["GetAll"]++
	if b.errGetAll != nil {
		return nil, b.errGetAll
	}
	return append([]T(nil), b.items...), nil
}

// Search implements entitystore.Backend. Unsupported unless a matcher has
// been configured with SetMatcher.
func (b *StubBackend[T]) Search(ctx context.Context, query string) ([]T, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Calls["Search"]++
	if b.errSearch != nil {
		return nil, b.errSearch
	}
	if b.match == nil {
		return nil, entitystore.ErrUnsupported
	}
	var out []T
	for _, item := range b.items {
		if b.match(item, strings.ToLower(query)) {
			out = append(out, item)
		}
	}
	return out, nil
}

// Filter implements entitystore.Backend; always unsupported so store tests
// exercise the client-side fallback.
func (b *StubBackend[T]) Filter(ctx context.Context, criteria map[string]string) ([]T, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Calls["Filter"]++
	if b.errFilter != nil {
		return nil, b.errFilter
	}
	return nil, entitystore.ErrUnsupported
}

// Create implements entitystore.Backend, assigning a fresh record identifier.
func (b *StubBackend[T]) Create(ctx context.Context, data T) (T, error) {
	b.awaitGate()
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Calls["Create"]++
	var zero T
	if b.errCreate != nil {
		return zero, b.errCreate
	}
	created := b.setRef(data, identity.RecordRef("stub", uuid.NewString()))
	b.items = append(b.items, created)
	return created, nil
}

// Update implements entitystore.Backend.
func (b *StubBackend[T]) Update(ctx context.Context, id string, patch entitystore.Patch) (T, error) {
	b.awaitGate()
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Calls["Update"]++
	var zero T
	if b.errUpdate != nil {
		return zero, b.errUpdate
	}
	for i, item := range b.items {
		if identity.Equal(b.ref(item), identity.PlainRef(id)) {
			b.items[i] = entitystore.Apply(item, patch)
			return b.items[i], nil
		}
	}
	return zero, entitystore.ErrNotFound
}

// Delete implements entitystore.Backend.
func (b *StubBackend[T]) Delete(ctx context.Context, id string) (T, error) {
	b.awaitGate()
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Calls["Delete"]++
	var zero T
	if b.errDelete != nil {
		return zero, b.errDelete
	}
	for i, item := range b.items {
		if identity.Equal(b.ref(item), identity.PlainRef(id)) {
			b.items = append(b.items[:i], b.items[i+1:]...)
			return item, nil
		}
	}
	return zero, entitystore.ErrNotFound
}
