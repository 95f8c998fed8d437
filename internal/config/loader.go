package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// envExpr matches ${VAR} and ${VAR:-default} expressions in the raw YAML.
// Expansion runs before parsing so deployments can template paths, bind
// addresses, and schedules from the environment.
var envExpr = regexp.MustCompile(`\$\{[A-Za-z_][A-Za-z0-9_]*(?::-[^}]*)?\}`)

// Load reads the intentd YAML configuration at path, expands environment
// references, and parses the result. Validation is a separate step so the
// CLI can report all problems at once.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	expanded, err := expandEnv(raw)
	if err != nil {
		return nil, fmt.Errorf("config: expanding variables in %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(expanded, &cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	return &cfg, nil
}

// expandEnv substitutes every ${VAR} and ${VAR:-default} occurrence. A
// reference with neither an environment value nor a default is an error;
// all unresolved names are reported together.
func expandEnv(raw []byte) ([]byte, error) {
	var unresolved []string

	result := envExpr.ReplaceAllFunc(raw, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip "${" and "}"
		name, fallback, hasFallback := strings.Cut(expr, ":-")

		if value, ok := os.LookupEnv(name); ok {
			return []byte(value)
		}
		if hasFallback {
			return []byte(fallback)
		}

		unresolved = append(unresolved, name)
		return match
	})

	if len(unresolved) > 0 {
		return nil, fmt.Errorf("unresolved variables: %s", strings.Join(unresolved, ", "))
	}
	return result, nil
}
