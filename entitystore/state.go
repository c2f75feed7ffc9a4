package entitystore

import (
	"time"

	"github.com/newillusions/e-fees-sub005/query"
)

// State is the read-only snapshot a Store publishes to subscribers. Every
// snapshot is an independent copy: subscribers and other readers must treat
// it as immutable and route all changes through the store's action methods.
type State[T any] struct {
	// Items is the authoritative collection, including any optimistic
	// entities whose backend calls have not yet resolved.
	Items []T

	// View is Items after the active query, filters, and sort.
	View []T

	// Loading is set while a full collection fetch is in flight.
	Loading bool

	// Saving is set while at least one mutation is awaiting the backend.
	Saving bool

	// LastError is the message of the most recent load or mutation
	// failure, cleared by the next successful operation.
	LastError string

	// Query, Filters, and Sort are the active view inputs.
	Query   string
	Filters map[string]string
	Sort    *query.Sort

	// LastUpdated is when the collection last changed from a confirmed
	// backend result.
	LastUpdated time.Time

	// Pending counts optimistic ledger entries, i.e. mutations applied
	// locally but not yet confirmed or rolled back.
	Pending int
}
