package identity

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Kind discriminates the closed set of identifier shapes accepted from the
// backend. Anything that does not decode into Plain or Structured is
// Unrecognized, which resolves to nothing rather than failing.
type Kind int

const (
	// Unrecognized is the zero value: an identifier shape outside the two
	// accepted encodings, or a missing identifier.
	Unrecognized Kind = iota

	// Plain is a bare string identifier.
	Plain

	// Structured is a collection tag plus an inner string value.
	Structured
)

// Ref is a raw record identifier as received from the backend or a caller.
// The zero value is an unrecognized (absent) identifier.
type Ref struct {
	kind       Kind
	plain      string
	collection string
	inner      string
}

// PlainRef returns a bare-string identifier.
func PlainRef(s string) Ref {
	return Ref{kind: Plain, plain: s}
}

// RecordRef returns a structured identifier for a record in the named
// collection.
func RecordRef(collection, inner string) Ref {
	return Ref{kind: Structured, collection: collection, inner: inner}
}

// Kind reports which variant this identifier is.
func (r Ref) Kind() Kind { return r.kind }

// Collection returns the collection tag of a structured identifier, or ""
// for the other variants.
func (r Ref) Collection() string { return r.collection }

// Resolve normalizes the identifier to its canonical string form.
//
// A plain identifier resolves to itself; a structured identifier resolves to
// its inner value. The empty string is not a valid identifier, so both cases
// report ok=false when the underlying value is empty. Unrecognized identifiers
// never resolve.
func (r Ref) Resolve() (canonical string, ok bool) {
	switch r.kind {
	case Plain:
		if r.plain == "" {
			return "", false
		}
		return r.plain, true
	case Structured:
		if r.inner == "" {
			return "", false
		}
		return r.inner, true
	default:
		return "", false
	}
}

// String returns the canonical form, or "" when the identifier does not
// resolve. Intended for logging and display only; use Resolve when the
// distinction between "" and absent matters.
func (r Ref) String() string {
	s, _ := r.Resolve()
	return s
}

// Equal reports whether two identifiers denote the same record: both must
// resolve and their canonical forms must match. Two unresolvable identifiers
// are never equal, even when structurally identical, so distinct provisional
// entities cannot be accidentally merged.
func Equal(a, b Ref) bool {
	ca, ok := a.Resolve()
	if !ok {
		return false
	}
	cb, ok := b.Resolve()
	if !ok {
		return false
	}
	return ca == cb
}

// structuredRef mirrors the backend's serialized record reference.
type structuredRef struct {
	Tb string          `json:"tb"`
	ID json.RawMessage `json:"id"`
}

// UnmarshalJSON decodes either accepted encoding. Shapes outside the two
// accepted forms decode to an Unrecognized identifier; decoding itself never
// returns an error for unexpected shapes, only for malformed JSON.
func (r *Ref) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*r = Ref{}
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("malformed identifier string: %w", err)
		}
		*r = PlainRef(s)
		return nil
	}

	if data[0] == '{' {
		var sr structuredRef
		if err := json.Unmarshal(data, &sr); err != nil || sr.Tb == "" || len(sr.ID) == 0 {
			// An object without the reference fields is not an identifier.
			*r = Ref{}
			return nil
		}
		inner, ok := decodeInner(sr.ID)
		if !ok {
			*r = Ref{}
			return nil
		}
		*r = RecordRef(sr.Tb, inner)
		return nil
	}

	// Numbers, arrays, booleans: not identifiers.
	*r = Ref{}
	return nil
}

// decodeInner extracts the inner value of a structured reference: either a
// bare string or a single-field wrapper object holding a string.
func decodeInner(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", false
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false
		}
		return s, true
	}

	if raw[0] == '{' {
		var wrapper map[string]any
		if err := json.Unmarshal(raw, &wrapper); err != nil || len(wrapper) != 1 {
			return "", false
		}
		for _, v := range wrapper {
			if s, ok := v.(string); ok {
				return s, true
			}
		}
	}

	return "", false
}

// MarshalJSON writes the identifier back in the shape it was received:
// plain identifiers as strings, structured identifiers as {"tb", "id"}
// objects, unrecognized identifiers as null.
func (r Ref) MarshalJSON() ([]byte, error) {
	switch r.kind {
	case Plain:
		return json.Marshal(r.plain)
	case Structured:
		return json.Marshal(struct {
			Tb string `json:"tb"`
			ID string `json:"id"`
		}{Tb: r.collection, ID: r.inner})
	default:
		return []byte("null"), nil
	}
}
