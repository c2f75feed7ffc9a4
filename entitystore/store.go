package entitystore

import (
	"context"
	"log/slog"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/newillusions/e-fees-sub005/identity"
	"github.com/newillusions/e-fees-sub005/query"
)

// provisionalPrefix marks the temporary identifier of an optimistically
// created entity until the backend assigns the real one.
const provisionalPrefix = "pending:"

type opKind int

const (
	opCreate opKind = iota
	opUpdate
	opDelete
)

// ledgerEntry snapshots one in-flight optimistic mutation so it can be
// rolled back. Exactly one entry exists per pending backend call; entries
// are removed when that call settles or on manual rollback, never left
// dangling.
type ledgerEntry[T any] struct {
	kind  opKind
	prev  T   // pre-mutation value; for creates, the provisional entity
	index int // original position, used to reinsert rolled-back deletes
}

// Store holds the authoritative collection for one entity type and keeps it
// synchronized with a Backend. Create one Store per entity type; stores
// share no mutable state with each other.
type Store[T any] struct {
	backend Backend[T]
	acc     Accessors[T]
	engine  *query.Engine[T]
	opts    Options
	log     *slog.Logger

	mu         sync.Mutex
	collection []T
	view       []T
	ledger     map[string]ledgerEntry[T]
	query      string
	filters    map[string]string
	sort       *query.Sort
	loading    bool
	inflight   int
	lastErr    string
	updatedAt  time.Time
	now        func() time.Time

	subs    map[int]func(State[T])
	nextSub int
}

// New creates a store over the given backend. acc.Ref and acc.SetRef must
// both be provided; engine defines the derived view's field surface.
func New[T any](backend Backend[T], acc Accessors[T], engine *query.Engine[T], opts Options) *Store[T] {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Store[T]{
		backend: backend,
		acc:     acc,
		engine:  engine,
		opts:    opts,
		log:     log,
		ledger:  make(map[string]ledgerEntry[T]),
		filters: make(map[string]string),
		view:    []T{},
		now:     time.Now,
		subs:    make(map[int]func(State[T])),
	}
}

// SetTimeFunc overrides the clock used for LastUpdated, for deterministic
// tests.
func (s *Store[T]) SetTimeFunc(fn func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = fn
}

// Subscribe registers fn to receive every published state snapshot and
// immediately delivers the current one. The returned function removes the
// subscription and is safe to call more than once. fn runs synchronously
// inside the store's mutation sections and must not call back into the store.
func (s *Store[T]) Subscribe(fn func(State[T])) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	snapshot := s.snapshotLocked()
	s.mu.Unlock()

	fn(snapshot)
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// State returns the current snapshot without subscribing.
func (s *Store[T]) State() State[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Load replaces the authoritative collection with a full backend fetch and
// unconditionally clears the optimistic ledger: a fresh load supersedes any
// in-flight optimism. On failure the collection is left untouched and the
// error is recorded; the loading flag is cleared either way.
func (s *Store[T]) Load(ctx context.Context) error {
	s.mu.Lock()
	s.loading = true
	s.publishLocked()
	s.mu.Unlock()

	items, err := s.backend.GetAll(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.lastErr = err.Error()
		s.log.Warn("load failed", "error", err)
		s.publishLocked()
		return err
	}
	s.collection = items
	s.ledger = make(map[string]ledgerEntry[T])
	s.lastErr = ""
	s.updatedAt = s.now()
	s.recomputeLocked()
	s.publishLocked()
	return nil
}

// Create persists a new entity. In optimistic mode a provisional copy with a
// temporary identifier is inserted immediately and later replaced in place by
// the backend's confirmed entity, or removed if the call fails. The confirmed
// entity is returned.
func (s *Store[T]) Create(ctx context.Context, data T) (T, error) {
	var zero T
	var tempRef identity.Ref

	if s.opts.Optimistic {
		tempRef = identity.PlainRef(provisionalPrefix + uuid.NewString())
		provisional := s.acc.SetRef(data, tempRef)
		s.mu.Lock()
		s.inflight++
		s.collection = append(s.collection, provisional)
		s.ledger[tempRef.String()] = ledgerEntry[T]{kind: opCreate, prev: provisional}
		s.recomputeLocked()
		s.publishLocked()
		s.mu.Unlock()
	} else {
		s.mu.Lock()
		s.inflight++
		s.publishLocked()
		s.mu.Unlock()
	}

	created, err := s.backend.Create(ctx, data)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight--

	if s.opts.Optimistic {
		// If the entry is gone a manual rollback already discarded this
		// mutation; the late result is dropped rather than resurrected.
		if _, tracked := s.ledger[tempRef.String()]; tracked {
			delete(s.ledger, tempRef.String())
			if i := s.indexOfLocked(tempRef); i >= 0 {
				if err != nil {
					s.collection = append(s.collection[:i], s.collection[i+1:]...)
				} else {
					s.collection[i] = created
				}
			}
		}
	} else if err == nil {
		s.collection = append(s.collection, created)
	}

	if err != nil {
		s.lastErr = err.Error()
		s.log.Warn("create failed", "error", err)
		s.recomputeLocked()
		s.publishLocked()
		return zero, err
	}
	s.lastErr = ""
	s.updatedAt = s.now()
	s.recomputeLocked()
	s.publishLocked()
	return created, nil
}

// Update applies a shallow patch to the entity with the given identifier.
// In optimistic mode the locally merged entity is visible immediately and is
// replaced by the backend's returned entity on success, which is
// authoritative and may differ from the local merge.
func (s *Store[T]) Update(ctx context.Context, ref identity.Ref, patch Patch) (T, error) {
	var zero T
	key, ok := ref.Resolve()
	if !ok {
		return zero, s.recordError(ErrNotFound)
	}

	if s.opts.Optimistic {
		s.mu.Lock()
		i := s.indexOfLocked(ref)
		if i < 0 {
			s.lastErr = ErrNotFound.Error()
			s.publishLocked()
			s.mu.Unlock()
			return zero, ErrNotFound
		}
		s.inflight++
		prev := s.collection[i]
		s.ledger[key] = ledgerEntry[T]{kind: opUpdate, prev: prev}
		s.collection[i] = Apply(prev, patch)
		s.recomputeLocked()
		s.publishLocked()
		s.mu.Unlock()
	} else {
		s.mu.Lock()
		s.inflight++
		s.publishLocked()
		s.mu.Unlock()
	}

	updated, err := s.backend.Update(ctx, key, patch)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight--

	if s.opts.Optimistic {
		if entry, tracked := s.ledger[key]; tracked && entry.kind == opUpdate {
			delete(s.ledger, key)
			if i := s.indexOfLocked(ref); i >= 0 {
				if err != nil {
					s.collection[i] = entry.prev
				} else {
					s.collection[i] = updated
				}
			}
		}
	} else if err == nil {
		if i := s.indexOfLocked(ref); i >= 0 {
			s.collection[i] = updated
		}
	}

	if err != nil {
		s.lastErr = err.Error()
		s.log.Warn("update failed", "id", key, "error", err)
		s.recomputeLocked()
		s.publishLocked()
		return zero, err
	}
	s.lastErr = ""
	s.updatedAt = s.now()
	s.recomputeLocked()
	s.publishLocked()
	return updated, nil
}

// Delete removes the entity with the given identifier. In optimistic mode the
// entity disappears immediately; if the backend rejects the call it is
// reinserted at its original index so perceived ordering stays stable.
func (s *Store[T]) Delete(ctx context.Context, ref identity.Ref) error {
	key, ok := ref.Resolve()
	if !ok {
		return s.recordError(ErrNotFound)
	}

	if s.opts.Optimistic {
		s.mu.Lock()
		i := s.indexOfLocked(ref)
		if i < 0 {
			s.lastErr = ErrNotFound.Error()
			s.publishLocked()
			s.mu.Unlock()
			return ErrNotFound
		}
		s.inflight++
		s.ledger[key] = ledgerEntry[T]{kind: opDelete, prev: s.collection[i], index: i}
		s.collection = append(s.collection[:i], s.collection[i+1:]...)
		s.recomputeLocked()
		s.publishLocked()
		s.mu.Unlock()
	} else {
		s.mu.Lock()
		s.inflight++
		s.publishLocked()
		s.mu.Unlock()
	}

	_, err := s.backend.Delete(ctx, key)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight--

	if s.opts.Optimistic {
		if entry, tracked := s.ledger[key]; tracked && entry.kind == opDelete {
			delete(s.ledger, key)
			if err != nil {
				s.insertAtLocked(entry.prev, entry.index)
			}
		}
	} else if err == nil {
		if i := s.indexOfLocked(ref); i >= 0 {
			s.collection = append(s.collection[:i], s.collection[i+1:]...)
		}
	}

	if err != nil {
		s.lastErr = err.Error()
		s.log.Warn("delete failed", "id", key, "error", err)
		s.recomputeLocked()
		s.publishLocked()
		return err
	}
	s.lastErr = ""
	s.updatedAt = s.now()
	s.recomputeLocked()
	s.publishLocked()
	return nil
}

// Search sets the active free-text query. A non-empty query is first offered
// to the backend's server-side search, whose result replaces the
// authoritative collection; any backend failure silently degrades to the
// client-side engine over the already-held collection, so the caller always
// ends up with a usable view and no recorded error.
func (s *Store[T]) Search(ctx context.Context, q string) {
	s.mu.Lock()
	s.query = q
	s.mu.Unlock()

	if q != "" {
		if items, err := s.backend.Search(ctx, q); err == nil {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.collection = items
			s.updatedAt = s.now()
			s.recomputeLocked()
			s.publishLocked()
			return
		} else {
			s.log.Debug("server search unavailable, filtering locally", "error", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.recomputeLocked()
	s.publishLocked()
}

// SetFilter sets one filter constraint; an empty value deactivates the key.
// Active criteria are first offered to the backend's server-side filter, with
// the same silent client-side fallback as Search.
func (s *Store[T]) SetFilter(ctx context.Context, key, value string) {
	s.mu.Lock()
	if value == "" {
		delete(s.filters, key)
	} else {
		s.filters[key] = value
	}
	criteria := maps.Clone(s.filters)
	s.mu.Unlock()

	if len(criteria) > 0 {
		if items, err := s.backend.Filter(ctx, criteria); err == nil {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.collection = items
			s.updatedAt = s.now()
			s.recomputeLocked()
			s.publishLocked()
			return
		} else {
			s.log.Debug("server filter unavailable, filtering locally", "error", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.recomputeLocked()
	s.publishLocked()
}

// SetSort orders the view by a configured field. Purely client-side.
func (s *Store[T]) SetSort(field string, direction query.Direction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sort = &query.Sort{Field: field, Direction: direction}
	s.recomputeLocked()
	s.publishLocked()
}

// ClearSort restores the default recency ordering.
func (s *Store[T]) ClearSort() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sort = nil
	s.recomputeLocked()
	s.publishLocked()
}

// Reset clears the active query and all filter constraints. Idempotent:
// calling it twice yields the same view as calling it once.
func (s *Store[T]) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query = ""
	s.filters = make(map[string]string)
	s.recomputeLocked()
	s.publishLocked()
}

// Rollback reverts every pending optimistic mutation and empties the ledger,
// regardless of whether the corresponding backend calls have resolved.
// Backend results that arrive after a rollback find their ledger entry gone
// and are discarded, never resurrected.
//
// When two mutations overlap on the same identifier, the later one replaces
// the ledger entry, so a rollback restores the snapshot taken just before the
// most recent of the overlapping mutations.
func (s *Store[T]) Rollback() {
	s.mu.Lock()
	defer s.mu.Unlock()

	var deletes []ledgerEntry[T]
	for key, entry := range s.ledger {
		switch entry.kind {
		case opCreate:
			if i := s.indexOfLocked(identity.PlainRef(key)); i >= 0 {
				s.collection = append(s.collection[:i], s.collection[i+1:]...)
			}
		case opUpdate:
			if i := s.indexOfLocked(identity.PlainRef(key)); i >= 0 {
				s.collection[i] = entry.prev
			}
		case opDelete:
			deletes = append(deletes, entry)
		}
	}
	// Reinsert lowest original index first so positions come out as they
	// were before the deletions.
	sort.Slice(deletes, func(i, j int) bool { return deletes[i].index < deletes[j].index })
	for _, entry := range deletes {
		s.insertAtLocked(entry.prev, entry.index)
	}

	s.ledger = make(map[string]ledgerEntry[T])
	s.recomputeLocked()
	s.publishLocked()
}

// recordError stores and returns an error outside of any mutation section.
func (s *Store[T]) recordError(err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = err.Error()
	s.publishLocked()
	return err
}

// indexOfLocked finds an entity by canonical-identifier equality.
func (s *Store[T]) indexOfLocked(ref identity.Ref) int {
	for i, item := range s.collection {
		if identity.Equal(s.acc.Ref(item), ref) {
			return i
		}
	}
	return -1
}

// insertAtLocked places item at index, clamped to the collection's bounds.
func (s *Store[T]) insertAtLocked(item T, index int) {
	if index < 0 {
		index = 0
	}
	if index > len(s.collection) {
		index = len(s.collection)
	}
	s.collection = append(s.collection[:index], append([]T{item}, s.collection[index:]...)...)
}

// recomputeLocked rebuilds the derived view from the current collection and
// query state. Must be called after any change to either.
func (s *Store[T]) recomputeLocked() {
	s.view = s.engine.Derive(s.collection, s.query, s.filters, s.sort)
}

// snapshotLocked copies the current state into an independent State value.
func (s *Store[T]) snapshotLocked() State[T] {
	items := make([]T, len(s.collection))
	copy(items, s.collection)
	view := make([]T, len(s.view))
	copy(view, s.view)
	var sortCopy *query.Sort
	if s.sort != nil {
		c := *s.sort
		sortCopy = &c
	}
	return State[T]{
		Items:       items,
		View:        view,
		Loading:     s.loading,
		Saving:      s.inflight > 0,
		LastError:   s.lastErr,
		Query:       s.query,
		Filters:     maps.Clone(s.filters),
		Sort:        sortCopy,
		LastUpdated: s.updatedAt,
		Pending:     len(s.ledger),
	}
}

// publishLocked delivers a fresh snapshot to every subscriber.
func (s *Store[T]) publishLocked() {
	snapshot := s.snapshotLocked()
	for _, fn := range s.subs {
		fn(snapshot)
	}
}
