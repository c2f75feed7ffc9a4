package entitystore

import (
	"log/slog"

	"github.com/newillusions/e-fees-sub005/identity"
)

// Accessors tells the store how to read and replace an entity's identifier
// without knowing the entity's shape. SetRef must return a new value; the
// store never mutates an entity in place.
type Accessors[T any] struct {
	Ref    func(T) identity.Ref
	SetRef func(T, identity.Ref) T
}

// Options configures a Store.
type Options struct {
	// Optimistic applies mutations to the local collection before the
	// backend call resolves, rolling back on failure. When false the
	// collection only changes after confirmation.
	Optimistic bool

	// Logger receives store diagnostics. Defaults to slog.Default().
	Logger *slog.Logger
}
