package query

import (
	"sort"
	"strings"
	"time"
)

// Direction controls sort order.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

// Sort names a configured sortable field and a direction.
type Sort struct {
	Field     string
	Direction Direction
}

// Field extracts the comparable or searchable text of one entity field.
type Field[T any] func(T) string

// Config declares, per entity type, which fields the engine can see.
type Config[T any] struct {
	// SearchFields are matched against the free-text query as
	// case-insensitive substrings. An entity matches when any field does.
	SearchFields []Field[T]

	// Filters maps a filter key to the extractor for that key's value.
	// An entity passes only when every active key's extracted value
	// exactly equals the required value.
	Filters map[string]Field[T]

	// SortFields maps a sortable field name to its extractor. Values are
	// compared in their natural string order.
	SortFields map[string]Field[T]

	// UpdatedAt and CreatedAt feed the default ordering used when no sort
	// is requested: most recently updated first, falling back to most
	// recently created.
	UpdatedAt func(T) time.Time
	CreatedAt func(T) time.Time
}

// Engine evaluates search, filter, and sort state against a collection.
type Engine[T any] struct {
	cfg Config[T]
}

// NewEngine creates an engine from the given field configuration.
func NewEngine[T any](cfg Config[T]) *Engine[T] {
	return &Engine[T]{cfg: cfg}
}

// Derive returns the subset of collection matching the query and every active
// filter, ordered by the requested sort or by recency when sortBy is nil. The
// input collection is never modified; the result is always a fresh slice,
// empty (not nil-dereferencing) when nothing matches.
func (e *Engine[T]) Derive(collection []T, query string, filters map[string]string, sortBy *Sort) []T {
	view := make([]T, 0, len(collection))

	needle := strings.ToLower(strings.TrimSpace(query))
	for _, item := range collection {
		if needle != "" && !e.matchesSearch(item, needle) {
			continue
		}
		if !e.matchesFilters(item, filters) {
			continue
		}
		view = append(view, item)
	}

	e.order(view, sortBy)
	return view
}

// matchesSearch reports whether any configured search field contains the
// already-lowercased needle.
func (e *Engine[T]) matchesSearch(item T, needle string) bool {
	for _, field := range e.cfg.SearchFields {
		if strings.Contains(strings.ToLower(field(item)), needle) {
			return true
		}
	}
	return false
}

// matchesFilters requires every active (non-empty) filter value to exactly
// equal the extracted field value. A filter key with no configured extractor
// can never match.
func (e *Engine[T]) matchesFilters(item T, filters map[string]string) bool {
	for key, want := range filters {
		if want == "" {
			continue
		}
		extract, ok := e.cfg.Filters[key]
		if !ok {
			return false
		}
		if extract(item) != want {
			return false
		}
	}
	return true
}

func (e *Engine[T]) order(view []T, sortBy *Sort) {
	if sortBy != nil {
		if extract, ok := e.cfg.SortFields[sortBy.Field]; ok {
			desc := sortBy.Direction == Descending
			sort.SliceStable(view, func(i, j int) bool {
				a, b := extract(view[i]), extract(view[j])
				if desc {
					return a > b
				}
				return a < b
			})
			return
		}
	}

	// Default convention: newest activity first.
	sort.SliceStable(view, func(i, j int) bool {
		return e.recency(view[i]).After(e.recency(view[j]))
	})
}

// recency is the entity's last-updated time, falling back to its creation
// time when it has never been updated.
func (e *Engine[T]) recency(item T) time.Time {
	if e.cfg.UpdatedAt != nil {
		if t := e.cfg.UpdatedAt(item); !t.IsZero() {
			return t
		}
	}
	if e.cfg.CreatedAt != nil {
		return e.cfg.CreatedAt(item)
	}
	return time.Time{}
}
