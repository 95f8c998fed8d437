package config

import (
	"errors"
	"fmt"
	"net"
	"regexp"

	"github.com/robfig/cron/v3"
)

// Validate checks the structural validity of a Config. All problems are
// reported at once via errors.Join.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Version == "" {
		errs = append(errs, errors.New("config: version field is required"))
	} else if cfg.Version != "1" {
		errs = append(errs, fmt.Errorf("config: unsupported version %q (supported: \"1\")", cfg.Version))
	}

	if cfg.Descriptors.Dir == "" {
		errs = append(errs, errors.New("config: descriptors.dir is required"))
	}
	if cfg.Descriptors.PollInterval < 0 {
		errs = append(errs, errors.New("config: descriptors.poll_interval must not be negative"))
	}
	if cfg.Descriptors.RescanSchedule != "" {
		if _, err := cron.ParseStandard(cfg.Descriptors.RescanSchedule); err != nil {
			errs = append(errs, fmt.Errorf("config: descriptors.rescan_schedule: %w", err))
		}
	}

	if cfg.Executor.Timeout < 0 {
		errs = append(errs, errors.New("config: executor.timeout must not be negative"))
	}
	if cfg.Executor.Grace < 0 {
		errs = append(errs, errors.New("config: executor.grace must not be negative"))
	}

	if cfg.Gateway != nil {
		if cfg.Gateway.Bind == "" {
			errs = append(errs, errors.New("config: gateway.bind is required when gateway is configured"))
		} else if _, err := net.ResolveTCPAddr("tcp", cfg.Gateway.Bind); err != nil {
			errs = append(errs, fmt.Errorf("config: gateway.bind: invalid address %q", cfg.Gateway.Bind))
		}
	}

	if cfg.Security != nil {
		for i, pattern := range cfg.Security.RedactPatterns {
			if _, err := regexp.Compile(pattern); err != nil {
				errs = append(errs, fmt.Errorf("config: security.redact_patterns[%d]: %w", i, err))
			}
		}
	}

	if cfg.Telemetry != nil && cfg.Telemetry.Endpoint == "" {
		errs = append(errs, errors.New("config: telemetry.endpoint is required when telemetry is configured"))
	}

	return errors.Join(errs...)
}
