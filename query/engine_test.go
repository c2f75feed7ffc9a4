package query

import (
	"testing"
	"time"
)

type record struct {
	Name      string
	City      string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func testEngine() *Engine[record] {
	return NewEngine(Config[record]{
		SearchFields: []Field[record]{
			func(r record) string { return r.Name },
			func(r record) string { return r.City },
		},
		Filters: map[string]Field[record]{
			"status": func(r record) string { return r.Status },
			"city":   func(r record) string { return r.City },
		},
		SortFields: map[string]Field[record]{
			"name": func(r record) string { return r.Name },
			"city": func(r record) string { return r.City },
		},
		UpdatedAt: func(r record) time.Time { return r.UpdatedAt },
		CreatedAt: func(r record) time.Time { return r.CreatedAt },
	})
}

func sampleRecords() []record {
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	return []record{
		{Name: "Harbour Masterplan", City: "Oslo", Status: "Active", CreatedAt: base},
		{Name: "Airport Extension", City: "Dubai", Status: "Draft", CreatedAt: base.Add(time.Hour)},
		{Name: "Harbour Lights", City: "Dubai", Status: "Active", CreatedAt: base.Add(2 * time.Hour), UpdatedAt: base.Add(48 * time.Hour)},
	}
}

func names(view []record) []string {
	out := make([]string, len(view))
	for i, r := range view {
		out[i] = r.Name
	}
	return out
}

func TestDerive_EmptyQueryAndFiltersKeepsAll(t *testing.T) {
	view := testEngine().Derive(sampleRecords(), "", nil, nil)
	if len(view) != 3 {
		t.Fatalf("expected 3 items, got %d", len(view))
	}
}

func TestDerive_SearchIsCaseInsensitiveSubstring(t *testing.T) {
	view := testEngine().Derive(sampleRecords(), "harbour", nil, nil)
	if len(view) != 2 {
		t.Fatalf("expected 2 matches, got %v", names(view))
	}
	view = testEngine().Derive(sampleRecords(), "DUBAI", nil, nil)
	if len(view) != 2 {
		t.Fatalf("search must cover all configured fields, got %v", names(view))
	}
}

func TestDerive_SearchAndFiltersAreANDed(t *testing.T) {
	view := testEngine().Derive(sampleRecords(), "harbour", map[string]string{"city": "Dubai"}, nil)
	if len(view) != 1 || view[0].Name != "Harbour Lights" {
		t.Fatalf("got %v", names(view))
	}
}

func TestDerive_FilterRequiresExactEquality(t *testing.T) {
	view := testEngine().Derive(sampleRecords(), "", map[string]string{"status": "Act"}, nil)
	if len(view) != 0 {
		t.Fatalf("partial filter value must not match, got %v", names(view))
	}
}

func TestDerive_EmptyFilterValueIsInactive(t *testing.T) {
	view := testEngine().Derive(sampleRecords(), "", map[string]string{"status": ""}, nil)
	if len(view) != 3 {
		t.Fatalf("blank filter must be ignored, got %v", names(view))
	}
}

func TestDerive_UnknownFilterKeyMatchesNothing(t *testing.T) {
	view := testEngine().Derive(sampleRecords(), "", map[string]string{"stage": "Concept"}, nil)
	if len(view) != 0 {
		t.Fatalf("unknown filter key must exclude everything, got %v", names(view))
	}
}

func TestDerive_SortAscendingAndDescending(t *testing.T) {
	asc := testEngine().Derive(sampleRecords(), "", nil, &Sort{Field: "name", Direction: Ascending})
	if got := names(asc); got[0] != "Airport Extension" || got[2] != "Harbour Masterplan" {
		t.Fatalf("ascending order wrong: %v", got)
	}
	desc := testEngine().Derive(sampleRecords(), "", nil, &Sort{Field: "name", Direction: Descending})
	if got := names(desc); got[0] != "Harbour Masterplan" {
		t.Fatalf("descending order wrong: %v", got)
	}
}

func TestDerive_DefaultOrderIsMostRecentFirst(t *testing.T) {
	view := testEngine().Derive(sampleRecords(), "", nil, nil)
	// "Harbour Lights" has the only UpdatedAt, far in the future of the
	// creation times; the others fall back to CreatedAt, newest first.
	want := []string{"Harbour Lights", "Airport Extension", "Harbour Masterplan"}
	for i, name := range names(view) {
		if name != want[i] {
			t.Fatalf("default order wrong: got %v want %v", names(view), want)
		}
	}
}

func TestDerive_DoesNotMutateInput(t *testing.T) {
	input := sampleRecords()
	testEngine().Derive(input, "", nil, &Sort{Field: "name", Direction: Descending})
	if input[0].Name != "Harbour Masterplan" {
		t.Fatal("input collection was reordered")
	}
}

func TestDerive_ViewIsSubsetWithoutDuplicates(t *testing.T) {
	input := sampleRecords()
	view := testEngine().Derive(input, "a", map[string]string{"status": "Active"}, &Sort{Field: "city"})
	seen := map[string]bool{}
	for _, r := range view {
		if seen[r.Name] {
			t.Fatalf("duplicate %q in view", r.Name)
		}
		seen[r.Name] = true
		found := false
		for _, in := range input {
			if in.Name == r.Name {
				found = true
			}
		}
		if !found {
			t.Fatalf("view contains %q which is not in the collection", r.Name)
		}
	}
}

func TestDerive_EmptyCollection(t *testing.T) {
	view := testEngine().Derive(nil, "anything", map[string]string{"status": "Active"}, nil)
	if len(view) != 0 {
		t.Fatalf("expected empty view, got %d items", len(view))
	}
}

func TestUniqueValues(t *testing.T) {
	records := []record{
		{City: "Oslo"},
		{City: "Dubai"},
		{City: ""},
		{City: "Dubai"},
		{City: "amsterdam"},
	}
	got := UniqueValues(records, func(r record) string { return r.City })
	want := []string{"amsterdam", "Dubai", "Oslo"}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}
}
