package lookup

import (
	"github.com/newillusions/e-fees-sub005/identity"
)

// Fallback is the placeholder returned by Display when a reference cannot be
// resolved or the referenced entity has no value for the requested attribute.
// Callers always receive a human-readable string, never an empty value.
const Fallback = "Unknown"

// Index maps canonical identifiers to entities of one referenced collection.
type Index[T any] struct {
	byID map[string]T
}

// Build indexes a snapshot of the referenced collection. Entities whose
// identifier does not resolve are skipped; when two entities share a
// canonical identifier the later one wins, matching the backend's own
// last-write semantics.
func Build[T any](collection []T, ref func(T) identity.Ref) *Index[T] {
	byID := make(map[string]T, len(collection))
	for _, item := range collection {
		id, ok := ref(item).Resolve()
		if !ok {
			continue
		}
		byID[id] = item
	}
	return &Index[T]{byID: byID}
}

// Get returns the entity the reference points at. ok is false when the
// reference does not resolve or no entity carried that identifier at build
// time.
func (ix *Index[T]) Get(ref identity.Ref) (entity T, ok bool) {
	id, resolved := ref.Resolve()
	if !resolved {
		var zero T
		return zero, false
	}
	entity, ok = ix.byID[id]
	return entity, ok
}

// Display resolves the reference and extracts one display attribute,
// substituting fallback when the entity is missing or the attribute is blank.
// An empty fallback argument uses the package default.
func (ix *Index[T]) Display(ref identity.Ref, attr func(T) string, fallback string) string {
	if fallback == "" {
		fallback = Fallback
	}
	entity, ok := ix.Get(ref)
	if !ok {
		return fallback
	}
	if v := attr(entity); v != "" {
		return v
	}
	return fallback
}

// Size reports how many entities were indexed, for diagnostics.
func (ix *Index[T]) Size() int {
	return len(ix.byID)
}
