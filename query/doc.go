// Package query derives ordered views over in-memory entity collections.
//
// An Engine is configured once per entity type with the text fields that
// participate in free-text search, the per-key filter extractors, and the
// sortable fields. Derive is pure: it never mutates its input collection and
// never fails, so a caller can always render whatever it returns.
package query
