package security

import (
	"path/filepath"
	"testing"
	"time"
)

func TestAuditStore_RecordAndCount(t *testing.T) {
	t.Parallel()

	store, err := OpenAuditStore(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("OpenAuditStore: %v", err)
	}
	defer store.Close()

	events := []AuditEvent{
		{Timestamp: time.Now(), Type: EventRequest, Method: "execute_intent"},
		{Timestamp: time.Now(), Type: EventExecution, Tool: "disk-usage",
			Command: "du -sh /var", Metadata: map[string]string{"status": "ok"}},
		{Timestamp: time.Now(), Type: EventExecution, Tool: "disk-usage",
			Command: "du -sh /tmp", Metadata: map[string]string{"status": "ok"}},
	}
	for _, e := range events {
		if err := store.Record(e); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	n, err := store.countByType(EventExecution)
	if err != nil {
		t.Fatalf("countByType: %v", err)
	}
	if n != 2 {
		t.Errorf("got %d execution events, want 2", n)
	}

	n, err = store.countByType(EventRateLimit)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("got %d rate_limit events, want 0", n)
	}
}

func TestAuditStore_AsLoggerSink(t *testing.T) {
	t.Parallel()

	store, err := OpenAuditStore(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	logger := NewAuditLogger(AuditLoggerConfig{Sink: store})
	logger.Log(AuditEvent{Type: EventConfirmation, Tool: "artifact-cleanup"})

	n, err := store.countByType(EventConfirmation)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("got %d, want 1", n)
	}
}
