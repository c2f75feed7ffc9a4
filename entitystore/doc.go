// Package entitystore keeps an in-memory mirror of one backend-owned entity
// collection and synchronizes it through an abstract asynchronous API.
//
// A Store applies create/update/delete mutations optimistically: the local
// collection is changed before the backend call is issued, a pre-mutation
// snapshot is recorded in an internal ledger, and the change is either
// confirmed by the backend's authoritative result or rolled back to the
// snapshot on failure. After every state change the store recomputes a derived
// view (search, filters, sort) via a query.Engine and publishes an immutable
// state snapshot to all subscribers before the mutating call returns.
//
// Concurrency contract: all synchronous mutation sections run under the
// store's lock, so subscribers never observe a half-applied change. Mutations
// on distinct identifiers proceed independently; two concurrent mutations on
// the same identifier are not serialized and resolve last-writer-wins with no
// ordering guarantee. Subscribers are invoked synchronously while the store
// lock is held and must not call back into the store.
package entitystore
