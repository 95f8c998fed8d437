// Package config handles YAML configuration loading, environment variable
// expansion, and structural validation for intentd.
package config

import (
	"time"

	"github.com/flemzord/intentd/internal/security"
)

// Config is the top-level configuration structure.
type Config struct {
	// Version is the config format version. Currently only "1" is supported.
	Version string `yaml:"version"`

	// Descriptors configures the tool descriptor directory.
	Descriptors DescriptorConfig `yaml:"descriptors"`

	// Executor configures command execution.
	Executor ExecutorConfig `yaml:"executor,omitempty"`

	// Gateway configures the HTTP transport. Absent disables it.
	Gateway *GatewayConfig `yaml:"gateway,omitempty"`

	// Security holds optional security settings.
	Security *SecurityConfig `yaml:"security,omitempty"`

	// Telemetry configures trace export. Absent disables it.
	Telemetry *TelemetryConfig `yaml:"telemetry,omitempty"`
}

// DescriptorConfig configures where tool descriptors live and how changes
// are picked up.
type DescriptorConfig struct {
	// Dir is the directory holding *.yaml tool descriptors.
	Dir string `yaml:"dir"`

	// PollInterval is how often the watcher checks for file changes.
	// Defaults to 5s.
	PollInterval time.Duration `yaml:"poll_interval,omitempty"`

	// RescanSchedule is an optional cron expression forcing a periodic
	// rescan independent of file modification times.
	RescanSchedule string `yaml:"rescan_schedule,omitempty"`
}

// ExecutorConfig configures command execution.
type ExecutorConfig struct {
	// Shell is the command interpreter. Defaults to /bin/sh.
	Shell string `yaml:"shell,omitempty"`

	// Timeout is the default execution timeout. Defaults to 30s.
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// Grace is the window between SIGTERM and SIGKILL. Defaults to 5s.
	Grace time.Duration `yaml:"grace,omitempty"`
}

// GatewayConfig configures the HTTP transport.
type GatewayConfig struct {
	// Bind is the listen address, e.g. "127.0.0.1:8137".
	Bind string `yaml:"bind"`

	ReadTimeout     time.Duration `yaml:"read_timeout,omitempty"`
	WriteTimeout    time.Duration `yaml:"write_timeout,omitempty"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout,omitempty"`
}

// Defaults fills zero fields with sensible values.
func (c *GatewayConfig) Defaults() {
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 30 * time.Second
	}
	if c.WriteTimeout <= 0 {
		// Executions can legitimately take the full execution timeout.
		c.WriteTimeout = 120 * time.Second
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// RateLimits bounds request and execution rates at the transport edge.
	RateLimits security.RateLimitConfig `yaml:"rate_limits,omitempty"`

	// Audit configures the audit trail. Absent disables it.
	Audit *AuditConfig `yaml:"audit,omitempty"`

	// RedactPatterns lists additional regex patterns whose matches are
	// redacted from logs and audit output.
	RedactPatterns []string `yaml:"redact_patterns,omitempty"`
}

// AuditConfig configures the audit trail sinks.
type AuditConfig struct {
	// File is a JSONL file path. Empty disables the file sink.
	File string `yaml:"file,omitempty"`

	// Database is a SQLite database path. Empty disables the SQLite sink.
	Database string `yaml:"database,omitempty"`
}

// TelemetryConfig configures OTLP trace export.
type TelemetryConfig struct {
	// Endpoint is the OTLP/HTTP collector endpoint, e.g. "localhost:4318".
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS for the exporter connection.
	Insecure bool `yaml:"insecure,omitempty"`
}
