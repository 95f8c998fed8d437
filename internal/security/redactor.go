package security

import (
	"regexp"
	"strings"
	"sync"
)

// RedactPlaceholder is the replacement string for redacted secrets.
const RedactPlaceholder = "***REDACTED***"

// secretEnvName matches environment variable names that conventionally
// carry credentials (DB_PASSWORD, GITHUB_TOKEN, AWS_SECRET_ACCESS_KEY, ...).
var secretEnvName = regexp.MustCompile(`(?i)(secret|token|password|passwd|credential|api_?key)`)

// minEnvSecretLen guards against registering trivial values like "1" or
// "yes" whose redaction would mangle unrelated text.
const minEnvSecretLen = 6

// Redactor scrubs secrets out of command lines, captured output, and log
// text before any of it reaches the audit trail or log sinks. Executed
// commands inherit the daemon's environment and descriptor templates can
// embed credentials in flags, so both pattern-shaped secrets and known
// literal values are covered. All methods are safe for concurrent use.
type Redactor struct {
	mu       sync.RWMutex
	patterns []*regexp.Regexp
	literals []string
}

// NewRedactor creates a Redactor loaded with DefaultPatterns.
func NewRedactor() *Redactor {
	return &Redactor{
		patterns: DefaultPatterns(),
	}
}

// AddPattern registers an additional compiled pattern, typically from the
// security.redact_patterns config list.
func (r *Redactor) AddPattern(pattern *regexp.Regexp) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.patterns = append(r.patterns, pattern)
}

// AddLiteral registers an exact secret value to be redacted wherever it
// appears, regardless of shape. Empty strings are ignored.
func (r *Redactor) AddLiteral(secret string) {
	if secret == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.literals = append(r.literals, secret)
}

// AddEnvSecrets scans NAME=value pairs (as returned by os.Environ) and
// registers the values of secret-named variables as literals. Spawned
// commands run with the daemon's environment, so anything they echo back
// could otherwise land in the audit trail verbatim.
func (r *Redactor) AddEnvSecrets(environ []string) {
	for _, kv := range environ {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || len(value) < minEnvSecretLen {
			continue
		}
		if secretEnvName.MatchString(name) {
			r.AddLiteral(value)
		}
	}
}

// Redact replaces every pattern match and literal occurrence in s with
// RedactPlaceholder.
func (r *Redactor) Redact(s string) string {
	if s == "" {
		return s
	}

	r.mu.RLock()
	patterns := r.patterns
	literals := r.literals
	r.mu.RUnlock()

	for _, p := range patterns {
		s = p.ReplaceAllString(s, RedactPlaceholder)
	}
	for _, lit := range literals {
		s = strings.ReplaceAll(s, lit, RedactPlaceholder)
	}
	return s
}

// DefaultPatterns returns the secret shapes most likely to appear in
// operator command lines and tool output: auth headers, cloud and VCS
// tokens, and credential flag assignments.
func DefaultPatterns() []*regexp.Regexp {
	return []*regexp.Regexp{
		// Authorization: Bearer <token> in curl-style commands.
		regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9._~+/=-]{8,}`),
		// AWS Access Key ID.
		regexp.MustCompile(`AKIA[A-Z0-9]{16}`),
		// GitHub tokens: ghp_, gho_, ghs_, github_pat_.
		regexp.MustCompile(`(ghp_|gho_|ghs_|github_pat_)[a-zA-Z0-9_]{20,}`),
		// sk-prefixed API keys (OpenAI-style, including sk-ant-).
		regexp.MustCompile(`sk-[a-zA-Z0-9\-]{20,}`),
		// Credential flags: --password=..., -token ..., --api-key=...
		regexp.MustCompile(`(?i)--?(?:password|passwd|token|secret|api[-_]?key)[= ]\S+`),
	}
}
