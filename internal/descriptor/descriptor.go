// Package descriptor defines the tool descriptor data model and the store
// that owns it. Descriptors are YAML files on disk; identity records are
// scanned eagerly, capability records (the intent lists) are loaded on
// first use and cached until the next reload.
package descriptor

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// regexPrefix marks a pattern as a regular expression instead of a literal.
const regexPrefix = "re:"

// ToolIdentity is the minimal identity record for one registered tool.
// Immutable once loaded; consumers hold references only.
type ToolIdentity struct {
	Domain   string   `yaml:"domain"`
	Name     string   `yaml:"name"`
	Summary  string   `yaml:"summary"`
	Version  string   `yaml:"version"`
	Binary   string   `yaml:"binary,omitempty"`
	Requires []string `yaml:"requires,omitempty"`
	Tags     []string `yaml:"tags,omitempty"`
}

// CapabilityRecord is the ordered set of intents belonging to one tool.
type CapabilityRecord struct {
	Tool    *ToolIdentity
	Intents []Intent
}

// Intent describes one invocable operation: how to recognize it, how to
// build its command, and how it behaves.
type Intent struct {
	Patterns    []Pattern           `yaml:"patterns"`
	Command     string              `yaml:"command"`
	Params      map[string]ParamDef `yaml:"params,omitempty"`
	Output      map[string]any      `yaml:"output,omitempty"` // informational only
	Confirm     bool                `yaml:"confirm,omitempty"`
	Destructive bool                `yaml:"destructive,omitempty"`
	Idempotent  bool                `yaml:"idempotent"`
}

// UnmarshalYAML decodes an intent, defaulting Idempotent to true when the
// field is absent.
func (in *Intent) UnmarshalYAML(node *yaml.Node) error {
	type raw Intent
	r := raw{Idempotent: true}
	if err := node.Decode(&r); err != nil {
		return err
	}
	*in = Intent(r)
	return nil
}

// ParamType is the declared type of a parameter.
type ParamType string

// Parameter types. The empty string is the permissive untyped default:
// any value is accepted as-is.
const (
	TypeAny        ParamType = ""
	TypeString     ParamType = "string"
	TypeInt        ParamType = "int"
	TypeFloat      ParamType = "float"
	TypeBool       ParamType = "bool"
	TypeStringList ParamType = "string_list"
	TypeIntList    ParamType = "int_list"
)

// valid reports whether t is a known parameter type.
func (t ParamType) valid() bool {
	switch t {
	case TypeAny, TypeString, TypeInt, TypeFloat, TypeBool, TypeStringList, TypeIntList:
		return true
	}
	return false
}

// ParamDef declares one parameter of an intent's schema.
type ParamDef struct {
	Type        ParamType `yaml:"type,omitempty"`
	Required    bool      `yaml:"required,omitempty"`
	Default     any       `yaml:"default,omitempty"`
	Enum        []any     `yaml:"enum,omitempty"`
	Description string    `yaml:"description,omitempty"`
}

// PatternKind enumerates how a pattern is matched. The kind is decided once
// at descriptor load time, never re-sniffed per call.
type PatternKind int

// Pattern kinds.
const (
	PatternLiteral PatternKind = iota
	PatternRegex
)

// Pattern is one natural-language trigger for an intent. Regex patterns are
// compiled case-insensitively at load time.
type Pattern struct {
	Raw  string
	Kind PatternKind
	re   *regexp.Regexp
}

// UnmarshalYAML parses a pattern string, stripping the regex marker and
// compiling the expression when present.
func (p *Pattern) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParsePattern(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// MarshalYAML renders the pattern back to its source form.
func (p Pattern) MarshalYAML() (any, error) {
	return p.String(), nil
}

// ParsePattern builds a Pattern from its source text.
func ParsePattern(s string) (Pattern, error) {
	if rest, ok := strings.CutPrefix(s, regexPrefix); ok {
		re, err := regexp.Compile("(?i)" + rest)
		if err != nil {
			return Pattern{}, fmt.Errorf("descriptor: invalid regex pattern %q: %w", s, err)
		}
		return Pattern{Raw: rest, Kind: PatternRegex, re: re}, nil
	}
	return Pattern{Raw: s, Kind: PatternLiteral}, nil
}

// String returns the pattern's source form, including the regex marker.
func (p Pattern) String() string {
	if p.Kind == PatternRegex {
		return regexPrefix + p.Raw
	}
	return p.Raw
}

// MatchRegex tests a compiled regex pattern against text. Always false for
// literal patterns.
func (p Pattern) MatchRegex(text string) bool {
	return p.Kind == PatternRegex && p.re != nil && p.re.MatchString(text)
}
