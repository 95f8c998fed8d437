package descriptor

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

const diskDescriptor = `domain: system
name: disk-usage
summary: Report disk usage of a directory
version: "1.2.0"
intents:
  - patterns:
      - disk usage
      - "re:how (full|used) is"
    command: du -sh --max-depth={depth} {path}
    params:
      path:
        type: string
        required: true
      depth:
        type: int
        default: 1
`

const procDescriptor = `domain: system
name: process-list
summary: List running processes
intents:
  - patterns:
      - list running processes
    command: ps aux
`

const svcDescriptor = `domain: services
name: service-restart
summary: Restart a managed service
intents:
  - patterns:
      - restart the service
    command: systemctl restart {unit}
    confirm: true
    idempotent: false
    params:
      unit:
        type: string
        required: true
`

func writeDescriptors(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestOpen_LoadsAndOrders(t *testing.T) {
	t.Parallel()

	dir := writeDescriptors(t, map[string]string{
		"disk.yaml":    diskDescriptor,
		"proc.yaml":    procDescriptor,
		"restart.yaml": svcDescriptor,
	})

	s, err := Open(dir, slog.Default())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	tools := s.Tools()
	if len(tools) != 3 {
		t.Fatalf("got %d tools", len(tools))
	}
	// Ordered by domain then name: services before system.
	if tools[0].Name != "service-restart" || tools[1].Name != "disk-usage" || tools[2].Name != "process-list" {
		t.Errorf("unexpected order: %s, %s, %s", tools[0].Name, tools[1].Name, tools[2].Name)
	}

	domains := s.Domains()
	if len(domains) != 2 || domains[0] != "services" || domains[1] != "system" {
		t.Errorf("unexpected domains: %v", domains)
	}

	if _, ok := s.Tool("disk-usage"); !ok {
		t.Error("disk-usage not found by name")
	}
	if _, ok := s.Tool("missing"); ok {
		t.Error("lookup of unknown tool succeeded")
	}
}

func TestOpen_EmptyDirFails(t *testing.T) {
	t.Parallel()

	if _, err := Open(t.TempDir(), slog.Default()); !errors.Is(err, ErrNoDescriptors) {
		t.Fatalf("got %v, want ErrNoDescriptors", err)
	}
}

func TestOpen_SkipsBadFiles(t *testing.T) {
	t.Parallel()

	dir := writeDescriptors(t, map[string]string{
		"good.yaml":    procDescriptor,
		"broken.yaml":  "{{{not yaml",
		"partial.yaml": "name: no-domain\n",
		"notes.txt":    "not a descriptor",
	})

	s, err := Open(dir, slog.Default())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if got := len(s.Tools()); got != 1 {
		t.Errorf("got %d tools, want 1", got)
	}
}

func TestOpen_SkipsDuplicateToolName(t *testing.T) {
	t.Parallel()

	dir := writeDescriptors(t, map[string]string{
		"a.yaml": procDescriptor,
		"b.yaml": procDescriptor,
	})

	s, err := Open(dir, slog.Default())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if got := len(s.Tools()); got != 1 {
		t.Errorf("got %d tools, want 1", got)
	}
}

func TestCapabilities_LazyLoadAndFlags(t *testing.T) {
	t.Parallel()

	dir := writeDescriptors(t, map[string]string{
		"disk.yaml":    diskDescriptor,
		"restart.yaml": svcDescriptor,
	})

	s, err := Open(dir, slog.Default())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	rec, err := s.Capabilities("disk-usage")
	if err != nil {
		t.Fatalf("Capabilities: %v", err)
	}
	if len(rec.Intents) != 1 {
		t.Fatalf("got %d intents", len(rec.Intents))
	}
	in := rec.Intents[0]
	if len(in.Patterns) != 2 || in.Patterns[1].Kind != PatternRegex {
		t.Errorf("patterns: %+v", in.Patterns)
	}
	if !in.Idempotent {
		t.Error("idempotent should default to true")
	}
	if in.Params["path"].Type != TypeString || !in.Params["path"].Required {
		t.Errorf("path param: %+v", in.Params["path"])
	}

	again, err := s.Capabilities("disk-usage")
	if err != nil {
		t.Fatalf("second Capabilities: %v", err)
	}
	if rec != again {
		t.Error("capability record not cached within one snapshot")
	}

	svc, err := s.Capabilities("service-restart")
	if err != nil {
		t.Fatalf("Capabilities: %v", err)
	}
	if !svc.Intents[0].Confirm || svc.Intents[0].Idempotent {
		t.Errorf("explicit flags lost: %+v", svc.Intents[0])
	}

	if _, err := s.Capabilities("missing"); !errors.Is(err, ErrToolNotFound) {
		t.Errorf("got %v, want ErrToolNotFound", err)
	}
}

func TestReload_SwapsSnapshotAndCache(t *testing.T) {
	t.Parallel()

	dir := writeDescriptors(t, map[string]string{"disk.yaml": diskDescriptor})

	s, err := Open(dir, slog.Default())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := s.Capabilities("disk-usage"); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(filepath.Join(dir, "proc.yaml"), []byte(procDescriptor), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := s.Reload(); err != nil {
		t.Fatalf("Reload: %v", err)
	}

	if got := len(s.Tools()); got != 2 {
		t.Errorf("got %d tools after reload", got)
	}
	if _, err := s.Capabilities("process-list"); err != nil {
		t.Errorf("new tool capabilities: %v", err)
	}
}

func TestReload_FailureKeepsPreviousSet(t *testing.T) {
	t.Parallel()

	dir := writeDescriptors(t, map[string]string{"disk.yaml": diskDescriptor})

	s, err := Open(dir, slog.Default())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if err := os.Remove(filepath.Join(dir, "disk.yaml")); err != nil {
		t.Fatal(err)
	}
	if err := s.Reload(); err == nil {
		t.Fatal("reload of emptied directory should fail")
	}

	// Previous snapshot keeps serving.
	if _, ok := s.Tool("disk-usage"); !ok {
		t.Error("previous snapshot discarded after failed reload")
	}
}

func TestParsePattern(t *testing.T) {
	t.Parallel()

	p, err := ParsePattern("disk usage")
	if err != nil {
		t.Fatal(err)
	}
	if p.Kind != PatternLiteral || p.String() != "disk usage" {
		t.Errorf("literal: %+v", p)
	}

	p, err = ParsePattern("re:how (full|used) is")
	if err != nil {
		t.Fatal(err)
	}
	if p.Kind != PatternRegex || p.String() != "re:how (full|used) is" {
		t.Errorf("regex: %+v", p)
	}
	if !p.MatchRegex("HOW USED IS the volume") {
		t.Error("regex should match case-insensitively")
	}

	if _, err := ParsePattern("re:[unclosed"); err == nil {
		t.Error("invalid regex should fail at parse time")
	}
}
