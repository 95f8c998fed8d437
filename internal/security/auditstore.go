package security

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite" // SQLite driver registration
)

const auditSchema = `
CREATE TABLE IF NOT EXISTS audit_events (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp TEXT NOT NULL,
	type      TEXT NOT NULL,
	method    TEXT,
	tool      TEXT,
	command   TEXT,
	detail    TEXT,
	metadata  TEXT
);
CREATE INDEX IF NOT EXISTS idx_audit_events_type ON audit_events(type);
CREATE INDEX IF NOT EXISTS idx_audit_events_tool ON audit_events(tool);
`

// AuditStore persists audit events to a SQLite database. It implements Sink.
type AuditStore struct {
	db *sql.DB
}

// Compile-time check.
var _ Sink = (*AuditStore)(nil)

// OpenAuditStore opens (creating if needed) the audit database at path.
func OpenAuditStore(path string) (*AuditStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("security: opening audit db %s: %w", path, err)
	}
	// Single writer; the audit logger serializes Record calls anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(auditSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("security: initializing audit schema: %w", err)
	}
	return &AuditStore{db: db}, nil
}

// Record inserts one event.
func (s *AuditStore) Record(event AuditEvent) error {
	var meta []byte
	if len(event.Metadata) > 0 {
		meta, _ = json.Marshal(event.Metadata)
	}
	_, err := s.db.Exec(
		`INSERT INTO audit_events (timestamp, type, method, tool, command, detail, metadata)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		event.Timestamp.Format("2006-01-02T15:04:05.999999999Z07:00"),
		string(event.Type), event.Method, event.Tool, event.Command, event.Detail, string(meta),
	)
	if err != nil {
		return fmt.Errorf("security: recording audit event: %w", err)
	}
	return nil
}

// countByType reports how many events of one type were persisted,
// verifying writes landed.
func (s *AuditStore) countByType(t EventType) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM audit_events WHERE type = ?`, string(t)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("security: counting audit events: %w", err)
	}
	return n, nil
}

// Close releases the database handle.
func (s *AuditStore) Close() error {
	return s.db.Close()
}
