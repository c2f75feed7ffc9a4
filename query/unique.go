package query

import (
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// UniqueValues returns the distinct non-blank values of one field across a
// collection, sorted alphabetically. Used to populate selection controls.
func UniqueValues[T any](collection []T, extract Field[T]) []string {
	seen := make(map[string]struct{}, len(collection))
	values := make([]string, 0, len(collection))
	for _, item := range collection {
		v := extract(item)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		values = append(values, v)
	}

	collate.New(language.English, collate.IgnoreCase).SortStrings(values)
	return values
}
