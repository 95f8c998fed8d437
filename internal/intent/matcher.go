// Package intent resolves freeform text to the best-matching tool intent.
// Matching mixes three rules — compiled regex patterns, case-insensitive
// substring containment, and keyword overlap — with a two-level score:
// exactly 1.0 for an intent-pattern hit, exactly 0.5 for a mere keyword
// overlap with the tool's summary. Ties at the top are reported as
// ambiguous rather than picking an arbitrary winner.
package intent

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"unicode"

	"github.com/flemzord/intentd/internal/descriptor"
)

// Scores. No other values exist.
const (
	ScorePattern = 1.0
	ScoreSummary = 0.5
)

// ErrNoMatch is returned when no tool contributes a candidate.
var ErrNoMatch = errors.New("intent: no matching tool")

// Candidate is one (tool, optional intent, score) triple.
type Candidate struct {
	Tool   *descriptor.ToolIdentity
	Intent *descriptor.Intent
	Score  float64
}

// AmbiguousError reports a tie between the top-scoring candidates. Every
// tied tool is exposed so the caller can re-prompt.
type AmbiguousError struct {
	Candidates []Candidate
}

// Error implements the error interface.
func (e *AmbiguousError) Error() string {
	names := make([]string, len(e.Candidates))
	for i, c := range e.Candidates {
		names[i] = c.Tool.Name
	}
	return fmt.Sprintf("intent: ambiguous match between %s", strings.Join(names, ", "))
}

// Catalog is the descriptor surface the matcher needs.
type Catalog interface {
	Tools() []*descriptor.ToolIdentity
	Capabilities(name string) (*descriptor.CapabilityRecord, error)
}

// Matcher scores tools against input text.
type Matcher struct {
	catalog Catalog
	logger  *slog.Logger
}

// NewMatcher creates a matcher over the given catalog.
func NewMatcher(catalog Catalog, logger *slog.Logger) *Matcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Matcher{catalog: catalog, logger: logger}
}

// Match finds the best-matching intent for text. It returns ErrNoMatch when
// nothing scores, and an *AmbiguousError when the two highest-scoring
// candidates tie. A capability-load failure for an individual tool only
// removes that tool's pattern-level candidate; the scan never aborts.
func (m *Matcher) Match(text string) (*Candidate, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrNoMatch
	}

	var candidates []Candidate
	for _, tool := range m.catalog.Tools() {
		if summaryOverlaps(text, tool.Summary) {
			candidates = append(candidates, Candidate{Tool: tool, Score: ScoreSummary})
		}

		rec, err := m.catalog.Capabilities(tool.Name)
		if err != nil {
			m.logger.Warn("capability load failed, tool skipped for pattern matching",
				"tool", tool.Name, "error", err)
			continue
		}
		if in := FindIntent(rec.Intents, text); in != nil {
			candidates = append(candidates, Candidate{Tool: tool, Intent: in, Score: ScorePattern})
		}
	}

	if len(candidates) == 0 {
		return nil, ErrNoMatch
	}

	slices.SortStableFunc(candidates, func(a, b Candidate) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})

	top := candidates[0].Score
	tied := candidates[:1]
	for _, c := range candidates[1:] {
		if c.Score == top {
			tied = append(tied, c)
		}
	}
	if len(tied) > 1 {
		return nil, &AmbiguousError{Candidates: tied}
	}
	return &candidates[0], nil
}

// FindIntent scans intents in order and returns the first whose any pattern
// fires, or nil. Per pattern the rules apply in order: regex, substring
// containment in either direction, then keyword overlap of at least half
// the pattern's words.
func FindIntent(intents []descriptor.Intent, text string) *descriptor.Intent {
	lower := strings.ToLower(text)
	inputWords := splitWords(lower)

	for i := range intents {
		for _, p := range intents[i].Patterns {
			if patternMatches(p, lower, inputWords) {
				return &intents[i]
			}
		}
	}
	return nil
}

func patternMatches(p descriptor.Pattern, lowerInput string, inputWords []string) bool {
	if p.Kind == descriptor.PatternRegex {
		return p.MatchRegex(lowerInput)
	}

	lowerPattern := strings.ToLower(p.Raw)
	if strings.Contains(lowerInput, lowerPattern) || strings.Contains(lowerPattern, lowerInput) {
		return true
	}

	patternWords := splitWords(lowerPattern)
	if len(patternWords) == 0 {
		return false
	}
	overlap := countOverlap(patternWords, inputWords)
	return overlap*2 >= len(patternWords) && overlap > 0
}

// summaryOverlaps reports whether text and summary share at least one word
// longer than two characters.
func summaryOverlaps(text, summary string) bool {
	inputWords := splitWords(strings.ToLower(text))
	summarySet := make(map[string]struct{})
	for _, w := range splitWords(strings.ToLower(summary)) {
		if len(w) > 2 {
			summarySet[w] = struct{}{}
		}
	}
	for _, w := range inputWords {
		if len(w) <= 2 {
			continue
		}
		if _, ok := summarySet[w]; ok {
			return true
		}
	}
	return false
}

// countOverlap counts distinct pattern words that appear in the input.
func countOverlap(patternWords, inputWords []string) int {
	inputSet := make(map[string]struct{}, len(inputWords))
	for _, w := range inputWords {
		inputSet[w] = struct{}{}
	}
	seen := make(map[string]struct{}, len(patternWords))
	count := 0
	for _, w := range patternWords {
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		if _, ok := inputSet[w]; ok {
			count++
		}
	}
	return count
}

// splitWords splits on non-word-character boundaries. Word characters are
// letters, digits, and underscore.
func splitWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
}
