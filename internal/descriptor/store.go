package descriptor

import (
	"cmp"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
)

// Store owns the descriptor set for the process. The loaded set lives in an
// immutable snapshot behind an atomic pointer: readers never observe a
// half-updated set, and Reload swaps the whole snapshot in one step,
// discarding the capability cache with it.
type Store struct {
	dir    string
	logger *slog.Logger
	snap   atomic.Pointer[snapshot]
}

// snapshot is one immutable view of the descriptor directory. The capability
// cache inside it is populated lazily under capMu; swapping the snapshot is
// the only cache invalidation.
type snapshot struct {
	tools  []*ToolIdentity
	byName map[string]*ToolIdentity
	paths  map[string]string

	capMu sync.Mutex
	caps  map[string]*CapabilityRecord
}

// Open scans dir for *.yaml tool descriptors and returns a ready store.
// Individual unreadable files are logged and skipped; an empty result is an
// error.
func Open(dir string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{dir: dir, logger: logger}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload rescans the descriptor directory and atomically replaces the
// current snapshot. In-flight readers keep the old snapshot until they
// finish; new calls see the new one.
func (s *Store) Reload() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("descriptor: reading directory %s: %w", s.dir, err)
	}

	next := &snapshot{
		byName: make(map[string]*ToolIdentity),
		paths:  make(map[string]string),
		caps:   make(map[string]*CapabilityRecord),
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		names = append(names, e.Name())
	}
	slices.Sort(names) // deterministic scan order

	for _, name := range names {
		path := filepath.Join(s.dir, name)
		id, err := ParseIdentity(path)
		if err != nil {
			s.logger.Warn("skipping unreadable descriptor", "path", path, "error", err)
			continue
		}
		if _, exists := next.byName[id.Name]; exists {
			s.logger.Warn("skipping duplicate tool descriptor",
				"path", path, "tool", id.Name, "error", ErrDuplicateTool)
			continue
		}
		next.tools = append(next.tools, id)
		next.byName[id.Name] = id
		next.paths[id.Name] = path
	}

	if len(next.tools) == 0 {
		return fmt.Errorf("%w in %s", ErrNoDescriptors, s.dir)
	}

	slices.SortFunc(next.tools, func(a, b *ToolIdentity) int {
		if c := cmp.Compare(a.Domain, b.Domain); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})

	s.snap.Store(next)
	s.logger.Info("descriptors loaded", "dir", s.dir, "tools", len(next.tools))
	return nil
}

// Tools returns the identities of every registered tool, ordered by domain
// then name. The returned slice must not be mutated.
func (s *Store) Tools() []*ToolIdentity {
	return s.snap.Load().tools
}

// Tool looks up one tool by name.
func (s *Store) Tool(name string) (*ToolIdentity, bool) {
	id, ok := s.snap.Load().byName[name]
	return id, ok
}

// Domains returns the sorted set of distinct domains.
func (s *Store) Domains() []string {
	snap := s.snap.Load()
	seen := make(map[string]struct{})
	var domains []string
	for _, t := range snap.tools {
		if _, ok := seen[t.Domain]; ok {
			continue
		}
		seen[t.Domain] = struct{}{}
		domains = append(domains, t.Domain)
	}
	return domains
}

// Capabilities returns the capability record for one tool, loading it from
// disk on first use. The record is cached for the lifetime of the current
// snapshot.
func (s *Store) Capabilities(name string) (*CapabilityRecord, error) {
	snap := s.snap.Load()
	id, ok := snap.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}

	snap.capMu.Lock()
	defer snap.capMu.Unlock()

	if rec, ok := snap.caps[name]; ok {
		return rec, nil
	}
	rec, err := ParseCapabilities(snap.paths[name], id)
	if err != nil {
		return nil, err
	}
	snap.caps[name] = rec
	return rec, nil
}
