package param

import (
	"regexp"
	"strings"
)

// safeValue matches text that needs no escaping: letters, digits, dot,
// dash, underscore, and forward slash only.
var safeValue = regexp.MustCompile(`^[A-Za-z0-9._/-]+$`)

// Quote renders a string shell-safe. Safe values pass through unchanged;
// anything else is wrapped in single quotes, with embedded single quotes
// replaced by the close-quote, escaped-quote, reopen-quote sequence.
func Quote(s string) string {
	if safeValue.MatchString(s) {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// sanitizeAny shell-sanitizes a value of any shape. Strings are quoted,
// lists are sanitized element-wise, numbers and booleans are never quoted.
func sanitizeAny(v any) any {
	switch val := v.(type) {
	case string:
		return Quote(val)
	case []string:
		out := make([]string, len(val))
		for i, s := range val {
			out[i] = Quote(s)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = sanitizeAny(item)
		}
		return out
	default:
		return v
	}
}
