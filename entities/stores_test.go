package entities_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newillusions/e-fees-sub005/entities"
	"github.com/newillusions/e-fees-sub005/entitystore"
	"github.com/newillusions/e-fees-sub005/identity"
	"github.com/newillusions/e-fees-sub005/query"
	"github.com/newillusions/e-fees-sub005/testutil"
)

func projectBackend(seed []entities.Project) *testutil.StubBackend[entities.Project] {
	return testutil.NewStubBackend(seed,
		func(p entities.Project) identity.Ref { return p.ID },
		func(p entities.Project, r identity.Ref) entities.Project { p.ID = r; return p },
	)
}

func seedProjects() []entities.Project {
	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	return []entities.Project{
		{
			ID: identity.RecordRef("projects", "25_97105"), Name: "Harbour Masterplan",
			City: "Oslo", Country: "Norway", Status: entities.ProjectStatusActive,
			Number: entities.NewProjectNumber(25, 971, 5),
			Time:   entities.TimeInfo{CreatedAt: base},
		},
		{
			ID: identity.RecordRef("projects", "25_4201"), Name: "Museum Extension",
			City: "Bergen", Country: "Norway", Status: entities.ProjectStatusDraft,
			Number: entities.NewProjectNumber(25, 42, 1),
			Time:   entities.TimeInfo{CreatedAt: base.Add(time.Hour)},
		},
	}
}

func TestProjectStore_SearchByNumber(t *testing.T) {
	store := entities.NewProjectStore(projectBackend(seedProjects()), entitystore.Options{Optimistic: true})
	require.NoError(t, store.Load(context.Background()))

	store.Search(context.Background(), "25-971")

	st := store.State()
	require.Len(t, st.View, 1)
	assert.Equal(t, "Harbour Masterplan", st.View[0].Name)
	assert.Empty(t, st.LastError, "stub backend search is unsupported; fallback must be silent")
}

func TestProjectStore_StatusFilterAndSort(t *testing.T) {
	store := entities.NewProjectStore(projectBackend(seedProjects()), entitystore.Options{Optimistic: true})
	require.NoError(t, store.Load(context.Background()))

	store.SetFilter(context.Background(), "status", entities.ProjectStatusActive)
	require.Len(t, store.State().View, 1)

	store.SetFilter(context.Background(), "status", "")
	store.SetSort("name", query.Ascending)
	st := store.State()
	require.Len(t, st.View, 2)
	assert.Equal(t, "Harbour Masterplan", st.View[0].Name)
}

func TestProjectStore_OptimisticCreateVisibleImmediately(t *testing.T) {
	store := entities.NewProjectStore(projectBackend(seedProjects()), entitystore.Options{Optimistic: true})
	require.NoError(t, store.Load(context.Background()))

	var pendingSeen bool
	defer store.Subscribe(func(st entitystore.State[entities.Project]) {
		if st.Pending == 1 && len(st.Items) == 3 {
			pendingSeen = true
		}
	})()

	draft := entities.Project{
		Name: "Airport Lounge", Status: entities.ProjectStatusDraft,
		Number: entities.NewProjectNumber(26, 971, 7),
	}
	require.NoError(t, draft.Validate())

	_, err := store.Create(context.Background(), draft)
	require.NoError(t, err)
	assert.True(t, pendingSeen)
	assert.Len(t, store.State().Items, 3)
}

func TestContactStore_UpdatePatchByJSONName(t *testing.T) {
	contact := entities.Contact{
		ID: identity.RecordRef("contacts", "jd"), FirstName: "John", LastName: "Doe",
		Email: "john@old.example", Phone: "+47900",
	}
	backend := testutil.NewStubBackend([]entities.Contact{contact},
		func(c entities.Contact) identity.Ref { return c.ID },
		func(c entities.Contact, r identity.Ref) entities.Contact { c.ID = r; return c },
	)
	store := entities.NewContactStore(backend, entitystore.Options{Optimistic: true})
	require.NoError(t, store.Load(context.Background()))

	updated, err := store.Update(context.Background(), contact.ID, entitystore.Patch{"email": "john@new.example"})
	require.NoError(t, err)
	assert.Equal(t, "john@new.example", updated.Email)
	assert.Equal(t, "John", updated.FirstName, "unpatched fields preserved")
}
