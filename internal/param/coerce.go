package param

import (
	"fmt"
	"math"
	"strconv"

	"github.com/flemzord/intentd/internal/descriptor"
)

// coerce validates v against the declared type, converting where the rules
// allow, and returns the canonical value. A returned error means the value
// stays unvalidated and is excluded from the sanitized map.
func coerce(v any, t descriptor.ParamType) (any, error) {
	switch t {
	case descriptor.TypeAny:
		return v, nil
	case descriptor.TypeString:
		return coerceString(v)
	case descriptor.TypeInt:
		return coerceInt(v)
	case descriptor.TypeFloat:
		return coerceFloat(v)
	case descriptor.TypeBool:
		return coerceBool(v)
	case descriptor.TypeStringList:
		return coerceStringList(v)
	case descriptor.TypeIntList:
		return coerceIntList(v)
	default:
		return nil, fmt.Errorf("unknown declared type %q", t)
	}
}

func coerceString(v any) (any, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case bool:
		return nil, fmt.Errorf("expected string, got bool %v", val)
	default:
		if n, ok := asInt64(v); ok {
			return strconv.FormatInt(n, 10), nil
		}
		if f, ok := asFloat64(v); ok {
			return strconv.FormatFloat(f, 'g', -1, 64), nil
		}
		return nil, fmt.Errorf("expected string, got %T", v)
	}
}

func coerceInt(v any) (any, error) {
	if n, ok := asInt64(v); ok {
		return n, nil
	}
	if s, ok := v.(string); ok {
		n, err := strconv.ParseInt(s, 10, 64)
		// Round-trip check: the re-stringified value must equal the
		// original text, so "1.0", " 7" and "+7" all fail.
		if err == nil && strconv.FormatInt(n, 10) == s {
			return n, nil
		}
		return nil, fmt.Errorf("expected int, got unparsable string %q", s)
	}
	if f, ok := asFloat64(v); ok {
		return nil, fmt.Errorf("expected int, got non-integral number %v", f)
	}
	return nil, fmt.Errorf("expected int, got %T", v)
}

func coerceFloat(v any) (any, error) {
	if f, ok := asFloat64(v); ok {
		return f, nil
	}
	if n, ok := asInt64(v); ok {
		return float64(n), nil
	}
	if s, ok := v.(string); ok {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("expected float, got unparsable string %q", s)
		}
		return f, nil
	}
	return nil, fmt.Errorf("expected float, got %T", v)
}

func coerceBool(v any) (any, error) {
	switch val := v.(type) {
	case bool:
		return val, nil
	case string:
		// Only the literal forms are accepted; "yes", "1", "TRUE" are not.
		if val == "true" {
			return true, nil
		}
		if val == "false" {
			return false, nil
		}
		return nil, fmt.Errorf("expected bool, got string %q", val)
	default:
		return nil, fmt.Errorf("expected bool, got %T", v)
	}
}

func coerceStringList(v any) (any, error) {
	items, ok := asList(v)
	if !ok {
		return nil, fmt.Errorf("expected list, got %T", v)
	}
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = stringify(item)
	}
	return out, nil
}

func coerceIntList(v any) (any, error) {
	items, ok := asList(v)
	if !ok {
		return nil, fmt.Errorf("expected list, got %T", v)
	}
	out := make([]int64, len(items))
	for i, item := range items {
		if n, ok := asInt64(item); ok {
			out[i] = n
			continue
		}
		if s, ok := item.(string); ok {
			n, err := strconv.ParseInt(s, 10, 64)
			if err == nil {
				out[i] = n
				continue
			}
		}
		return nil, fmt.Errorf("expected list of ints, item %d is %v", i, item)
	}
	return out, nil
}

// asInt64 reports whether v is a whole number, normalizing across the
// integer widths YAML produces and the float64 JSON produces.
func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case float32:
		if float64(n) == math.Trunc(float64(n)) {
			return int64(n), true
		}
	case float64:
		if n == math.Trunc(n) && !math.IsInf(n, 0) {
			return int64(n), true
		}
	}
	return 0, false
}

func asFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func asList(v any) ([]any, bool) {
	switch items := v.(type) {
	case []any:
		return items, true
	case []string:
		out := make([]any, len(items))
		for i, s := range items {
			out[i] = s
		}
		return out, true
	}
	return nil, false
}

// stringify renders a list item as text.
func stringify(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	default:
		if n, ok := asInt64(v); ok {
			return strconv.FormatInt(n, 10)
		}
		if f, ok := asFloat64(v); ok {
			return strconv.FormatFloat(f, 'g', -1, 64)
		}
		return fmt.Sprintf("%v", v)
	}
}
