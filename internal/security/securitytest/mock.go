// Package securitytest provides test doubles for the security package,
// for use by other packages' tests.
package securitytest

import (
	"github.com/flemzord/intentd/internal/security"
)

// NewTestRedactor creates a Redactor with no patterns for testing.
// This avoids false positives in tests that use strings matching
// production secret patterns.
// Direct instantiation is safe because sync.RWMutex zero-value is valid
// and nil slices work correctly with range/append operations.
func NewTestRedactor() *security.Redactor {
	return &security.Redactor{}
}

// NewTestAuditLogger creates an AuditLogger that captures events in memory.
// Returns the logger and a function to retrieve logged events.
func NewTestAuditLogger() (*security.AuditLogger, func() []security.AuditEvent) {
	var events []security.AuditEvent
	logger := security.NewAuditLogger(security.AuditLoggerConfig{
		OnEvent: func(e security.AuditEvent) {
			events = append(events, e)
		},
	})
	return logger, func() []security.AuditEvent {
		return events
	}
}
