// Package security provides the ambient security facilities of the daemon:
// transport input validation, secret redaction for logs, the audit trail,
// and request rate limiting. The intent-resolution core stays free of these
// concerns; transports and the composition root wire them in.
package security

import (
	"encoding/json"
	"io"
	"sync"
	"time"
)

// EventType categorizes audit events.
type EventType string

// Audit event types covering the intent lifecycle.
const (
	EventRequest      EventType = "request"
	EventMatch        EventType = "match"
	EventValidation   EventType = "validation"
	EventExecution    EventType = "execution"
	EventConfirmation EventType = "confirmation"
	EventRateLimit    EventType = "rate_limit"
)

// AuditEvent is a single audit log entry.
type AuditEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	Type      EventType         `json:"type"`
	Method    string            `json:"method,omitempty"`
	Tool      string            `json:"tool,omitempty"`
	Command   string            `json:"command,omitempty"`
	Detail    string            `json:"detail,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Sink receives audit events after redaction.
type Sink interface {
	Record(event AuditEvent) error
}

// AuditLoggerConfig configures the audit logger.
type AuditLoggerConfig struct {
	// Writer is the destination for JSONL output. If nil, events are only
	// dispatched to Sink and OnEvent.
	Writer io.Writer

	// Sink, if non-nil, additionally receives every event (e.g. the
	// SQLite store).
	Sink Sink

	// Redactor, if non-nil, is applied to Detail, Command, and Metadata
	// values before writing.
	Redactor *Redactor

	// OnEvent, if non-nil, is called for every event (used in tests).
	OnEvent func(AuditEvent)

	// Now overrides time.Now for testing. Defaults to time.Now.
	Now func() time.Time
}

// AuditLogger writes structured audit events as JSONL with optional
// redaction and an optional secondary sink.
type AuditLogger struct {
	writer   io.Writer
	sink     Sink
	redactor *Redactor
	onEvent  func(AuditEvent)
	now      func() time.Time
	mu       sync.Mutex
}

// NewAuditLogger creates an audit logger with the given configuration.
func NewAuditLogger(cfg AuditLoggerConfig) *AuditLogger {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &AuditLogger{
		writer:   cfg.Writer,
		sink:     cfg.Sink,
		redactor: cfg.Redactor,
		onEvent:  cfg.OnEvent,
		now:      now,
	}
}

// Log writes an audit event. The timestamp is set automatically. The
// caller's Metadata map is never mutated.
func (l *AuditLogger) Log(event AuditEvent) {
	event.Timestamp = l.now()

	if len(event.Metadata) > 0 {
		cp := make(map[string]string, len(event.Metadata))
		for k, v := range event.Metadata {
			cp[k] = v
		}
		event.Metadata = cp
	}

	if l.redactor != nil {
		event.Detail = l.redactor.Redact(event.Detail)
		event.Command = l.redactor.Redact(event.Command)
		for k, v := range event.Metadata {
			event.Metadata[k] = l.redactor.Redact(v)
		}
	}

	// Dispatch and write under one lock to keep ordering consistent.
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.onEvent != nil {
		l.onEvent(event)
	}
	if l.sink != nil {
		_ = l.sink.Record(event)
	}
	if l.writer != nil {
		_ = json.NewEncoder(l.writer).Encode(event)
	}
}
