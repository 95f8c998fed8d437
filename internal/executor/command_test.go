package executor

import (
	"errors"
	"testing"

	"github.com/flemzord/intentd/internal/descriptor"
)

func TestBuildCommand_Substitution(t *testing.T) {
	t.Parallel()

	in := &descriptor.Intent{
		Command: "du -sh --max-depth={depth} {path}",
		Params: map[string]descriptor.ParamDef{
			"path":  {Type: descriptor.TypeString, Required: true},
			"depth": {Type: descriptor.TypeInt, Default: 1},
		},
	}

	got, err := BuildCommand(in, map[string]any{"path": "/var/log"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "du -sh --max-depth=1 /var/log"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestBuildCommand_QuotesHostileInput(t *testing.T) {
	t.Parallel()

	in := &descriptor.Intent{
		Command: "grep {query} {file}",
		Params: map[string]descriptor.ParamDef{
			"query": {Type: descriptor.TypeString, Required: true},
			"file":  {Type: descriptor.TypeString, Required: true},
		},
	}

	got, err := BuildCommand(in, map[string]any{
		"query": "hi; rm -rf /",
		"file":  "/var/log/syslog",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "grep 'hi; rm -rf /' /var/log/syslog"
	if got != want {
		t.Errorf("injection not neutralized: got %q, want %q", got, want)
	}
}

func TestBuildCommand_ListJoin(t *testing.T) {
	t.Parallel()

	in := &descriptor.Intent{
		Command: "tool delete --ids {ids}",
		Params: map[string]descriptor.ParamDef{
			"ids": {Type: descriptor.TypeStringList, Required: true},
		},
	}

	got, err := BuildCommand(in, map[string]any{"ids": []any{"abc123", "def456"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "tool delete --ids abc123 def456"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestBuildCommand_ValidationFailure(t *testing.T) {
	t.Parallel()

	in := &descriptor.Intent{
		Command: "systemctl restart {unit}",
		Params: map[string]descriptor.ParamDef{
			"unit": {Type: descriptor.TypeString, Required: true},
		},
	}

	_, err := BuildCommand(in, nil)

	var invalid *InvalidParamsError
	if !errors.As(err, &invalid) {
		t.Fatalf("got %v, want InvalidParamsError", err)
	}
	if len(invalid.Errors) != 1 || invalid.Errors[0].Param != "unit" {
		t.Errorf("unexpected errors: %+v", invalid.Errors)
	}
}

func TestBuildCommand_UnresolvedPlaceholder(t *testing.T) {
	t.Parallel()

	in := &descriptor.Intent{
		Command: "tail -n {lines} {file}",
		Params: map[string]descriptor.ParamDef{
			"file": {Type: descriptor.TypeString, Required: true},
		},
	}

	// "lines" is undeclared and unsupplied; the template keeps its token.
	_, err := BuildCommand(in, map[string]any{"file": "/var/log/syslog"})

	var unresolved *UnresolvedPlaceholderError
	if !errors.As(err, &unresolved) {
		t.Fatalf("got %v, want UnresolvedPlaceholderError", err)
	}
	if len(unresolved.Names) != 1 || unresolved.Names[0] != "lines" {
		t.Errorf("unexpected names: %v", unresolved.Names)
	}
}

func TestBuildCommand_ValueCarryingPlaceholderText(t *testing.T) {
	t.Parallel()

	in := &descriptor.Intent{
		Command: "grep {file} {query}",
		Params: map[string]descriptor.ParamDef{
			"query": {Type: descriptor.TypeString, Required: true},
			"file":  {Type: descriptor.TypeString, Required: true},
		},
	}

	// Substitution order is sorted by name, "file" before "query". A
	// {query} token smuggled through the earlier parameter's value is
	// rewritten when the later parameter substitutes.
	got, err := BuildCommand(in, map[string]any{
		"file":  "{query}",
		"query": "syslog",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// The quoted value became 'syslog': rewritten, but still inside the
	// quotes the sanitizer put around the original value.
	if want := "grep 'syslog' syslog"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	// The reverse direction injects a token after its parameter already
	// substituted; the unresolved-placeholder check refuses to run it.
	_, err = BuildCommand(in, map[string]any{
		"file":  "/var/log/syslog",
		"query": "{file}",
	})
	var unresolved *UnresolvedPlaceholderError
	if !errors.As(err, &unresolved) {
		t.Fatalf("got %v, want UnresolvedPlaceholderError", err)
	}
	if len(unresolved.Names) != 1 || unresolved.Names[0] != "file" {
		t.Errorf("unexpected names: %v", unresolved.Names)
	}
}

func TestBuildCommand_UnknownParamsIgnoredByTemplate(t *testing.T) {
	t.Parallel()

	in := &descriptor.Intent{
		Command: "uptime",
	}

	got, err := BuildCommand(in, map[string]any{"extra": "value"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "uptime" {
		t.Errorf("got %q", got)
	}
}

func TestRender(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   any
		want string
	}{
		{"string", "abc", "abc"},
		{"bool", true, "true"},
		{"int64", int64(42), "42"},
		{"float", 2.5, "2.5"},
		{"string list", []string{"a", "b"}, "a b"},
		{"int list", []int64{1, 2, 3}, "1 2 3"},
		{"mixed list", []any{"a", int64(1)}, "a 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Render(tt.in); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
