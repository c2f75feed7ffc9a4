// Package identity normalizes record identifiers into a canonical string form.
//
// The backend persists records under two incompatible identifier encodings: a
// bare string ("company:CHE") and a structured reference carrying a collection
// tag plus an inner value that is itself either a string or a single-field
// wrapper object ({"tb": "company", "id": {"String": "CHE"}}). Every identifier
// that enters the system is decoded into a closed Ref variant, and all equality
// comparisons go through Resolve so the two encodings never leak into callers.
//
// Resolution never fails with an error. An identifier that cannot be normalized
// is an ordinary, representable outcome: Resolve reports ok=false and the
// caller treats the record as "not found".
package identity
