// Package executor turns a validated intent into a finished command line
// and runs it under a bounded timeout with graceful-then-forceful
// termination.
package executor

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/flemzord/intentd/internal/descriptor"
	"github.com/flemzord/intentd/internal/param"
)

// placeholderPattern matches {identifier} tokens in a command template.
var placeholderPattern = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// InvalidParamsError carries the full validation error list from a failed
// BuildCommand.
type InvalidParamsError struct {
	Errors []param.Error
}

// Error implements the error interface.
func (e *InvalidParamsError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, ve := range e.Errors {
		msgs[i] = ve.Message
	}
	return "executor: invalid parameters: " + strings.Join(msgs, "; ")
}

// UnresolvedPlaceholderError reports placeholders left in the template
// after substitution. Execution must never proceed with literal
// placeholder text in the command.
type UnresolvedPlaceholderError struct {
	Names []string
}

// Error implements the error interface.
func (e *UnresolvedPlaceholderError) Error() string {
	return "executor: unsubstituted placeholders: " + strings.Join(e.Names, ", ")
}

// BuildCommand validates context against the intent's schema and
// substitutes every placeholder in the command template with the sanitized
// value. Pure: no process is spawned here.
//
// Substitution runs sequentially over sorted parameter names. A supplied
// value that itself contains {name} text is therefore rewritten when a
// later parameter of that name is substituted, and a token naming no
// parameter trips the unresolved-placeholder error. Raw placeholder text
// never survives into the finished command either way.
func BuildCommand(in *descriptor.Intent, context map[string]any) (string, error) {
	outcome := param.Validate(context, in.Params)
	if !outcome.Valid {
		return "", &InvalidParamsError{Errors: outcome.Errors}
	}

	command := in.Command
	for _, key := range sortedKeys(outcome.Sanitized) {
		ph := "{" + key + "}"
		if strings.Contains(command, ph) {
			command = strings.ReplaceAll(command, ph, Render(outcome.Sanitized[key]))
		}
	}

	// Declared defaults for placeholders still unresolved. The validator
	// already applies defaults, so this pass is normally a no-op; it stays
	// as a second line of defense for schemas where a supplied value failed
	// to bind.
	for name, def := range in.Params {
		if def.Default == nil {
			continue
		}
		ph := "{" + name + "}"
		if strings.Contains(command, ph) {
			command = strings.ReplaceAll(command, ph, Render(sanitizeDefault(def.Default)))
		}
	}

	if missing := unresolvedNames(command); len(missing) > 0 {
		return "", &UnresolvedPlaceholderError{Names: missing}
	}
	return command, nil
}

// sanitizeDefault routes a raw default through the same sanitization as
// supplied values.
func sanitizeDefault(v any) any {
	outcome := param.Validate(map[string]any{"default": v}, nil)
	return outcome.Sanitized["default"]
}

func unresolvedNames(command string) []string {
	var names []string
	seen := make(map[string]struct{})
	for _, m := range placeholderPattern.FindAllStringSubmatch(command, -1) {
		if _, dup := seen[m[1]]; dup {
			continue
		}
		seen[m[1]] = struct{}{}
		names = append(names, m[1])
	}
	slices.Sort(names)
	return names
}

// Render turns a sanitized value into its command-line form. Lists are
// joined by a single space.
func Render(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case int:
		return strconv.Itoa(val)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case []string:
		return strings.Join(val, " ")
	case []int64:
		parts := make([]string, len(val))
		for i, n := range val {
			parts[i] = strconv.FormatInt(n, 10)
		}
		return strings.Join(parts, " ")
	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = Render(item)
		}
		return strings.Join(parts, " ")
	default:
		return fmt.Sprintf("%v", v)
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
