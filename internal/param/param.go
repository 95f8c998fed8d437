// Package param validates caller-supplied parameters against an intent's
// declared schema and renders every value shell-safe. Validation is a pure
// function of its inputs: the same context and schema always produce the
// same sanitized map and the same error list.
package param

import (
	"fmt"
	"slices"

	"github.com/flemzord/intentd/internal/descriptor"
)

// ErrorKind classifies a validation error.
type ErrorKind string

// Validation error kinds.
const (
	KindMissingRequired ErrorKind = "missing_required"
	KindTypeMismatch    ErrorKind = "type_mismatch"
	KindInvalidEnum     ErrorKind = "invalid_enum"
)

// Error is one structured validation error.
type Error struct {
	Kind    ErrorKind `json:"kind"`
	Param   string    `json:"param"`
	Message string    `json:"message"`
}

// Outcome is the result of validating a context against a schema. The
// sanitized map is returned even when invalid, to aid diagnostics.
type Outcome struct {
	Valid     bool
	Errors    []Error
	Sanitized map[string]any
}

// Validate checks required fields, coerces and validates types, checks
// enumerations, applies defaults, and shell-sanitizes every value. Unknown
// parameters are permitted and pass through sanitized but uncoerced. All
// failures are enumerated, not just the first.
func Validate(context map[string]any, schema map[string]descriptor.ParamDef) Outcome {
	out := Outcome{Sanitized: make(map[string]any, len(context))}

	if len(schema) == 0 {
		for _, key := range sortedKeys(context) {
			out.Sanitized[key] = sanitizeAny(context[key])
		}
		out.Valid = true
		return out
	}

	// Missing required parameters first, in schema order.
	for _, name := range sortedParamNames(schema) {
		def := schema[name]
		if !def.Required {
			continue
		}
		if _, present := context[name]; !present {
			out.Errors = append(out.Errors, Error{
				Kind:    KindMissingRequired,
				Param:   name,
				Message: fmt.Sprintf("required parameter %q is missing", name),
			})
		}
	}

	for _, key := range sortedKeys(context) {
		value := context[key]

		def, declared := schema[key]
		if !declared {
			out.Sanitized[key] = sanitizeAny(value)
			continue
		}

		coerced, err := coerce(value, def.Type)
		if err != nil {
			out.Errors = append(out.Errors, Error{
				Kind:    KindTypeMismatch,
				Param:   key,
				Message: err.Error(),
			})
			continue
		}

		if len(def.Enum) > 0 && !enumContains(def.Enum, coerced) {
			out.Errors = append(out.Errors, Error{
				Kind:    KindInvalidEnum,
				Param:   key,
				Message: fmt.Sprintf("value %v is not one of the allowed values %v", coerced, def.Enum),
			})
			continue
		}

		out.Sanitized[key] = sanitizeAny(coerced)
	}

	// Defaults for declared parameters still absent from the sanitized map.
	// Defaults are sanitized like supplied values but deliberately not
	// re-validated against their own type or enum (well-formed descriptors
	// are a contract, not something repaired here).
	for _, name := range sortedParamNames(schema) {
		def := schema[name]
		if def.Default == nil {
			continue
		}
		if _, present := out.Sanitized[name]; present {
			continue
		}
		out.Sanitized[name] = sanitizeAny(def.Default)
	}

	out.Valid = len(out.Errors) == 0
	return out
}

// enumContains reports whether the coerced value matches a member of the
// declared enumeration, comparing by rendered form so that a coerced int64
// still matches an int enum entry from YAML.
func enumContains(enum []any, value any) bool {
	want := fmt.Sprintf("%v", value)
	for _, e := range enum {
		if fmt.Sprintf("%v", e) == want {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func sortedParamNames(schema map[string]descriptor.ParamDef) []string {
	names := make([]string, 0, len(schema))
	for n := range schema {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}
