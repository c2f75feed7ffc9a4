package entitystore_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newillusions/e-fees-sub005/entitystore"
	"github.com/newillusions/e-fees-sub005/identity"
	"github.com/newillusions/e-fees-sub005/query"
	"github.com/newillusions/e-fees-sub005/testutil"
)

type item struct {
	ID      identity.Ref `json:"id"`
	Name    string       `json:"name"`
	City    string       `json:"city"`
	Created time.Time    `json:"created_at"`
	Updated time.Time    `json:"updated_at"`
}

func itemRef(i item) identity.Ref             { return i.ID }
func itemWithRef(i item, r identity.Ref) item { i.ID = r; return i }

func itemAccessors() entitystore.Accessors[item] {
	return entitystore.Accessors[item]{Ref: itemRef, SetRef: itemWithRef}
}

func itemEngine() *query.Engine[item] {
	return query.NewEngine(query.Config[item]{
		SearchFields: []query.Field[item]{func(i item) string { return i.Name }},
		Filters: map[string]query.Field[item]{
			"city": func(i item) string { return i.City },
		},
		SortFields: map[string]query.Field[item]{
			"name": func(i item) string { return i.Name },
		},
		UpdatedAt: func(i item) time.Time { return i.Updated },
		CreatedAt: func(i item) time.Time { return i.Created },
	})
}

func seedItems() []item {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	return []item{
		{ID: identity.RecordRef("items", "a"), Name: "Apple", City: "Oslo", Created: base},
		{ID: identity.RecordRef("items", "b"), Name: "Banana", City: "Dubai", Created: base.Add(time.Hour)},
	}
}

func newTestStore(t *testing.T, seed []item, optimistic bool) (*entitystore.Store[item], *testutil.StubBackend[item]) {
	t.Helper()
	backend := testutil.NewStubBackend(seed, itemRef, itemWithRef)
	store := entitystore.New[item](backend, itemAccessors(), itemEngine(), entitystore.Options{Optimistic: optimistic})
	require.NoError(t, store.Load(context.Background()))
	return store, backend
}

func viewNames(st entitystore.State[item]) []string {
	out := make([]string, len(st.View))
	for i, it := range st.View {
		out[i] = it.Name
	}
	return out
}

func TestLoad_ReplacesCollection(t *testing.T) {
	store, _ := newTestStore(t, seedItems(), true)
	st := store.State()
	assert.Len(t, st.Items, 2)
	assert.Len(t, st.View, 2)
	assert.False(t, st.Loading)
	assert.Empty(t, st.LastError)
	assert.False(t, st.LastUpdated.IsZero())
}

func TestLoad_FailureLeavesCollectionUntouched(t *testing.T) {
	store, backend := newTestStore(t, seedItems(), true)
	backend.FailGetAll(errors.New("connection refused"))

	err := store.Load(context.Background())
	require.Error(t, err)

	st := store.State()
	assert.Len(t, st.Items, 2, "collection must survive a failed load")
	assert.Equal(t, "connection refused", st.LastError)
	assert.False(t, st.Loading, "loading flag must clear on failure")
}

func TestCreate_OptimisticThenConfirmed(t *testing.T) {
	store, _ := newTestStore(t, seedItems(), true)

	var snapshots []entitystore.State[item]
	unsubscribe := store.Subscribe(func(st entitystore.State[item]) {
		snapshots = append(snapshots, st)
	})
	defer unsubscribe()

	created, err := store.Create(context.Background(), item{Name: "Cherry"})
	require.NoError(t, err)

	// The optimistic snapshot was published before the backend resolved:
	// three items with the provisional entity appended.
	var sawProvisional bool
	for _, st := range snapshots {
		if len(st.Items) == 3 && st.Pending == 1 && st.Saving {
			sawProvisional = true
			assert.Equal(t, "Cherry", st.Items[2].Name)
		}
	}
	assert.True(t, sawProvisional, "optimistic interim state was never published")

	st := store.State()
	assert.Len(t, st.Items, 3)
	assert.Zero(t, st.Pending)
	assert.False(t, st.Saving)
	// The confirmed entity replaced the provisional one in place.
	assert.True(t, identity.Equal(st.Items[2].ID, created.ID))
	assert.Equal(t, "stub", created.ID.Collection())
}

func TestCreate_OptimisticRollbackOnFailure(t *testing.T) {
	store, backend := newTestStore(t, seedItems(), true)
	backend.FailCreate(errors.New("validation rejected"))

	before := store.State()

	var snapshots []entitystore.State[item]
	defer store.Subscribe(func(st entitystore.State[item]) { snapshots = append(snapshots, st) })()

	_, err := store.Create(context.Background(), item{Name: "X"})
	require.Error(t, err)

	var sawThree bool
	for _, st := range snapshots {
		if len(st.View) == 3 {
			sawThree = true
			assert.Equal(t, "X", st.Items[len(st.Items)-1].Name)
		}
	}
	assert.True(t, sawThree, "view must contain the provisional entity before the call settles")

	after := store.State()
	assert.Equal(t, viewNames(before), viewNames(after), "failed create must leave the view exactly as before")
	assert.Len(t, after.Items, 2)
	assert.Equal(t, "validation rejected", after.LastError)
	assert.Zero(t, after.Pending, "ledger entry must be cleared once the call settles")
}

func TestCreate_NonOptimisticAppliesOnlyAfterConfirmation(t *testing.T) {
	store, backend := newTestStore(t, seedItems(), false)

	var snapshots []entitystore.State[item]
	defer store.Subscribe(func(st entitystore.State[item]) { snapshots = append(snapshots, st) })()

	_, err := store.Create(context.Background(), item{Name: "Cherry"})
	require.NoError(t, err)

	for _, st := range snapshots {
		if st.Saving && len(st.Items) == 3 {
			t.Fatal("non-optimistic mode must not show an interim entity")
		}
	}
	assert.Len(t, store.State().Items, 3)
	assert.Equal(t, 1, backend.Calls["Create"])
}

func TestUpdate_OptimisticMergeThenAuthoritativeReplace(t *testing.T) {
	store, _ := newTestStore(t, seedItems(), true)
	target := seedItems()[0]

	var snapshots []entitystore.State[item]
	defer store.Subscribe(func(st entitystore.State[item]) { snapshots = append(snapshots, st) })()

	updated, err := store.Update(context.Background(), target.ID, entitystore.Patch{"name": "Apricot"})
	require.NoError(t, err)
	assert.Equal(t, "Apricot", updated.Name)
	assert.Equal(t, "Oslo", updated.City, "unpatched fields must survive the merge")

	var sawMerge bool
	for _, st := range snapshots {
		if st.Pending == 1 {
			sawMerge = true
			for _, it := range st.Items {
				if identity.Equal(it.ID, target.ID) {
					assert.Equal(t, "Apricot", it.Name)
				}
			}
		}
	}
	assert.True(t, sawMerge)
	assert.Zero(t, store.State().Pending)
}

func TestUpdate_FailureRestoresSnapshot(t *testing.T) {
	store, backend := newTestStore(t, seedItems(), true)
	backend.FailUpdate(errors.New("conflict"))
	target := seedItems()[1]

	before := store.State()
	_, err := store.Update(context.Background(), target.ID, entitystore.Patch{"name": "Blueberry"})
	require.Error(t, err)

	after := store.State()
	assert.Equal(t, viewNames(before), viewNames(after))
	assert.Equal(t, "conflict", after.LastError)
	assert.Zero(t, after.Pending)
}

func TestUpdate_UnknownIdentifier(t *testing.T) {
	store, _ := newTestStore(t, seedItems(), true)

	_, err := store.Update(context.Background(), identity.PlainRef("nope"), entitystore.Patch{"name": "x"})
	assert.ErrorIs(t, err, entitystore.ErrNotFound)

	_, err = store.Update(context.Background(), identity.Ref{}, entitystore.Patch{"name": "x"})
	assert.ErrorIs(t, err, entitystore.ErrNotFound, "unresolvable identifier means not found, never a panic")
}

func TestDelete_Confirmed(t *testing.T) {
	store, _ := newTestStore(t, seedItems(), true)
	require.NoError(t, store.Delete(context.Background(), seedItems()[0].ID))

	st := store.State()
	assert.Len(t, st.Items, 1)
	assert.Equal(t, "Banana", st.Items[0].Name)
	assert.Zero(t, st.Pending)
}

func TestDelete_RollbackPreservesPosition(t *testing.T) {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	seed := []item{
		{ID: identity.RecordRef("items", "a"), Name: "A", Created: base.Add(3 * time.Hour)},
		{ID: identity.RecordRef("items", "b"), Name: "B", Created: base.Add(2 * time.Hour)},
		{ID: identity.RecordRef("items", "c"), Name: "C", Created: base.Add(time.Hour)},
	}
	store, backend := newTestStore(t, seed, true)
	backend.FailDelete(errors.New("forbidden"))

	err := store.Delete(context.Background(), seed[1].ID)
	require.Error(t, err)

	st := store.State()
	require.Len(t, st.Items, 3)
	assert.Equal(t, "A", st.Items[0].Name)
	assert.Equal(t, "B", st.Items[1].Name, "rolled-back delete must reinsert at the original index, not append")
	assert.Equal(t, "C", st.Items[2].Name)
	assert.Zero(t, st.Pending)
}

func TestSearch_FallsBackSilently(t *testing.T) {
	store, backend := newTestStore(t, seedItems(), true)
	backend.FailSearch(errors.New("search index offline"))

	store.Search(context.Background(), "Apple")

	st := store.State()
	assert.Equal(t, []string{"Apple"}, viewNames(st))
	assert.Empty(t, st.LastError, "search degradation must not surface an error")
}

func TestSearch_PrefersServerSide(t *testing.T) {
	store, backend := newTestStore(t, seedItems(), true)
	backend.SetMatcher(func(i item, q string) bool {
		return strings.Contains(strings.ToLower(i.Name), q)
	})

	store.Search(context.Background(), "ban")

	st := store.State()
	assert.Equal(t, []string{"Banana"}, viewNames(st))
	assert.Equal(t, 1, backend.Calls["Search"])
	assert.Len(t, st.Items, 1, "server result replaces the authoritative collection")
}

func TestFilter_ClientSideFallback(t *testing.T) {
	store, _ := newTestStore(t, seedItems(), true)

	store.SetFilter(context.Background(), "city", "Dubai")
	st := store.State()
	assert.Equal(t, []string{"Banana"}, viewNames(st))
	assert.Empty(t, st.LastError)

	store.SetFilter(context.Background(), "city", "")
	assert.Len(t, store.State().View, 2, "clearing the filter restores the full view")
}

func TestSort_AndClear(t *testing.T) {
	store, _ := newTestStore(t, seedItems(), true)

	store.SetSort("name", query.Descending)
	assert.Equal(t, []string{"Banana", "Apple"}, viewNames(store.State()))

	store.SetSort("name", query.Ascending)
	assert.Equal(t, []string{"Apple", "Banana"}, viewNames(store.State()))

	store.ClearSort()
	// Default ordering: newest created first.
	assert.Equal(t, []string{"Banana", "Apple"}, viewNames(store.State()))
}

func TestReset_Idempotent(t *testing.T) {
	store, _ := newTestStore(t, seedItems(), true)
	store.Search(context.Background(), "Apple")
	store.SetFilter(context.Background(), "city", "Oslo")

	store.Reset()
	once := store.State()
	store.Reset()
	twice := store.State()

	assert.Equal(t, viewNames(once), viewNames(twice))
	assert.Empty(t, twice.Query)
	assert.Empty(t, twice.Filters)
}

func TestSubscribe_DeliversImmediatelyAndUnsubscribes(t *testing.T) {
	store, _ := newTestStore(t, seedItems(), true)

	var count int
	unsubscribe := store.Subscribe(func(entitystore.State[item]) { count++ })
	assert.Equal(t, 1, count, "subscriber receives the current snapshot on registration")

	unsubscribe()
	unsubscribe() // safe to call twice
	store.Reset()
	assert.Equal(t, 1, count, "unsubscribed observers receive nothing")
}

func TestLoad_ClearsInFlightOptimism(t *testing.T) {
	store, backend := newTestStore(t, seedItems(), true)
	release := backend.Hold()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = store.Create(context.Background(), item{Name: "Cherry"})
	}()

	require.Eventually(t, func() bool { return store.State().Pending == 1 },
		time.Second, time.Millisecond)

	require.NoError(t, store.Load(context.Background()))
	st := store.State()
	assert.Zero(t, st.Pending, "a fresh load supersedes in-flight optimism")
	assert.Len(t, st.Items, 2, "the provisional entity must not survive a full resync")

	release()
	<-done

	// The late confirmation finds its ledger entry gone and is discarded.
	assert.Len(t, store.State().Items, 2)
}

func TestRollback_RevertsEverything(t *testing.T) {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	seed := []item{
		{ID: identity.RecordRef("items", "a"), Name: "A", Created: base.Add(3 * time.Hour)},
		{ID: identity.RecordRef("items", "b"), Name: "B", Created: base.Add(2 * time.Hour)},
		{ID: identity.RecordRef("items", "c"), Name: "C", Created: base.Add(time.Hour)},
	}
	store, backend := newTestStore(t, seed, true)
	before := store.State()

	release := backend.Hold()
	results := make(chan struct{}, 3)
	go func() { _, _ = store.Create(context.Background(), item{Name: "D"}); results <- struct{}{} }()
	go func() {
		_, _ = store.Update(context.Background(), seed[0].ID, entitystore.Patch{"name": "A2"})
		results <- struct{}{}
	}()
	go func() { _ = store.Delete(context.Background(), seed[2].ID); results <- struct{}{} }()

	require.Eventually(t, func() bool { return store.State().Pending == 3 },
		time.Second, time.Millisecond)

	store.Rollback()

	st := store.State()
	assert.Zero(t, st.Pending)
	assert.Equal(t, viewNames(before), viewNames(st), "manual rollback restores the pre-mutation state")

	release()
	for i := 0; i < 3; i++ {
		<-results
	}
	// Late confirmations of rolled-back mutations are discarded.
	assert.Equal(t, viewNames(before), viewNames(store.State()))
}

func TestViewConsistency_SubsetWithoutDuplicates(t *testing.T) {
	store, _ := newTestStore(t, seedItems(), true)
	store.Search(context.Background(), "a")
	store.SetFilter(context.Background(), "city", "Oslo")

	st := store.State()
	seen := map[string]bool{}
	for _, v := range st.View {
		id, _ := v.ID.Resolve()
		require.False(t, seen[id], "duplicate entity in view")
		seen[id] = true
		found := false
		for _, it := range st.Items {
			if identity.Equal(it.ID, v.ID) {
				found = true
			}
		}
		require.True(t, found, "view entity missing from authoritative collection")
	}
}

func TestAutoRefresh_PicksUpBackendChanges(t *testing.T) {
	store, backend := newTestStore(t, seedItems(), true)

	_, err := backend.Create(context.Background(), item{Name: "Cherry"})
	require.NoError(t, err)

	stop := store.AutoRefresh(context.Background(), 5*time.Millisecond)
	defer stop()

	require.Eventually(t, func() bool { return len(store.State().Items) == 3 },
		time.Second, time.Millisecond)

	stop()
	stop() // teardown is idempotent
}
