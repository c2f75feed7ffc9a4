package entitystore

import (
	"reflect"
	"strings"
)

// Patch is a shallow set of field changes keyed by JSON field name. Values
// replace the corresponding entity field wholesale; nested structs are not
// merged recursively. A nil value clears the field to its zero value.
type Patch map[string]any

// Apply returns a copy of entity with the patch's fields replaced. Fields the
// patch does not mention are untouched. Keys that match no struct field, and
// values that cannot be assigned or converted to the field's type, are
// ignored rather than failing: a patch is advisory input, the backend's
// returned entity stays authoritative.
func Apply[T any](entity T, patch Patch) T {
	if len(patch) == 0 {
		return entity
	}

	v := reflect.ValueOf(&entity).Elem()
	if v.Kind() != reflect.Struct {
		return entity
	}

	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		target := v.Field(i)
		if !target.CanSet() {
			continue
		}
		name := jsonFieldName(field)
		if name == "" {
			continue
		}
		raw, ok := patch[name]
		if !ok {
			continue
		}
		if raw == nil {
			target.Set(reflect.Zero(target.Type()))
			continue
		}
		value := reflect.ValueOf(raw)
		switch {
		case value.Type().AssignableTo(target.Type()):
			target.Set(value)
		case target.Kind() == reflect.String && value.Kind() != reflect.String:
			// Numeric-to-string conversion would produce a rune, not a
			// rendering; skip instead.
		case value.Type().ConvertibleTo(target.Type()):
			target.Set(value.Convert(target.Type()))
		}
	}

	return entity
}

// jsonFieldName returns the key a struct field is patched under: its json tag
// name when present, otherwise the field name itself. Fields tagged "-" are
// never patchable.
func jsonFieldName(field reflect.StructField) string {
	tag := field.Tag.Get("json")
	if tag == "" {
		return field.Name
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return field.Name
	}
	return name
}
