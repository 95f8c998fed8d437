package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "intentd.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Full(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `version: "1"
descriptors:
  dir: /etc/intentd/tools
  poll_interval: 10s
  rescan_schedule: "*/5 * * * *"
executor:
  shell: /bin/bash
  timeout: 45s
  grace: 3s
gateway:
  bind: 127.0.0.1:8137
security:
  rate_limits:
    requests_per_min: 300
  audit:
    file: /var/log/intentd/audit.jsonl
telemetry:
  endpoint: localhost:4318
  insecure: true
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	if cfg.Descriptors.Dir != "/etc/intentd/tools" || cfg.Descriptors.PollInterval != 10*time.Second {
		t.Errorf("descriptors: %+v", cfg.Descriptors)
	}
	if cfg.Executor.Shell != "/bin/bash" || cfg.Executor.Timeout != 45*time.Second {
		t.Errorf("executor: %+v", cfg.Executor)
	}
	if cfg.Gateway == nil || cfg.Gateway.Bind != "127.0.0.1:8137" {
		t.Errorf("gateway: %+v", cfg.Gateway)
	}
	if cfg.Security == nil || cfg.Security.RateLimits.RequestsPerMin != 300 {
		t.Errorf("security: %+v", cfg.Security)
	}
	if cfg.Telemetry == nil || !cfg.Telemetry.Insecure {
		t.Errorf("telemetry: %+v", cfg.Telemetry)
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	t.Setenv("INTENTD_TEST_DIR", "/opt/tools")

	path := writeConfig(t, `version: "1"
descriptors:
  dir: ${INTENTD_TEST_DIR}
gateway:
  bind: "${INTENTD_TEST_BIND:-127.0.0.1:8137}"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Descriptors.Dir != "/opt/tools" {
		t.Errorf("env var not expanded: %q", cfg.Descriptors.Dir)
	}
	if cfg.Gateway.Bind != "127.0.0.1:8137" {
		t.Errorf("default not applied: %q", cfg.Gateway.Bind)
	}
}

func TestLoad_UnresolvedVariable(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "version: \"1\"\ndescriptors:\n  dir: ${INTENTD_NO_SUCH_VAR}\n")

	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "INTENTD_NO_SUCH_VAR") {
		t.Fatalf("got %v", err)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := func() *Config {
		return &Config{
			Version:     "1",
			Descriptors: DescriptorConfig{Dir: "/etc/intentd/tools"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid minimal", func(*Config) {}, ""},
		{"missing version", func(c *Config) { c.Version = "" }, "version field is required"},
		{"unsupported version", func(c *Config) { c.Version = "2" }, "unsupported version"},
		{"missing descriptors dir", func(c *Config) { c.Descriptors.Dir = "" }, "descriptors.dir is required"},
		{"negative poll interval", func(c *Config) { c.Descriptors.PollInterval = -time.Second }, "poll_interval"},
		{"bad rescan schedule", func(c *Config) { c.Descriptors.RescanSchedule = "bogus" }, "rescan_schedule"},
		{"negative executor timeout", func(c *Config) { c.Executor.Timeout = -time.Second }, "executor.timeout"},
		{"gateway without bind", func(c *Config) { c.Gateway = &GatewayConfig{} }, "gateway.bind is required"},
		{"bad gateway bind", func(c *Config) { c.Gateway = &GatewayConfig{Bind: "not:a:valid:addr"} }, "gateway.bind"},
		{"bad redact pattern", func(c *Config) {
			c.Security = &SecurityConfig{RedactPatterns: []string{"[unclosed"}}
		}, "redact_patterns"},
		{"telemetry without endpoint", func(c *Config) { c.Telemetry = &TelemetryConfig{} }, "telemetry.endpoint"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := valid()
			tt.mutate(cfg)
			err := Validate(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("got %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_JoinsAllErrors(t *testing.T) {
	t.Parallel()

	err := Validate(&Config{})
	if err == nil {
		t.Fatal("empty config should fail")
	}
	msg := err.Error()
	if !strings.Contains(msg, "version") || !strings.Contains(msg, "descriptors.dir") {
		t.Errorf("not all errors reported: %v", msg)
	}
}

func TestGatewayConfigDefaults(t *testing.T) {
	t.Parallel()

	c := &GatewayConfig{Bind: "127.0.0.1:8137"}
	c.Defaults()
	if c.ReadTimeout <= 0 || c.WriteTimeout <= 0 || c.ShutdownTimeout <= 0 {
		t.Errorf("defaults not applied: %+v", c)
	}

	c = &GatewayConfig{Bind: "x", ReadTimeout: time.Second}
	c.Defaults()
	if c.ReadTimeout != time.Second {
		t.Errorf("explicit value overwritten: %v", c.ReadTimeout)
	}
}
