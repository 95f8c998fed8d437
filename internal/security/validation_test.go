package security

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateMessageSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		size    int
		max     int
		wantErr error
	}{
		{name: "typical request", size: 180, max: 1024, wantErr: nil},
		{name: "exactly at limit", size: 1024, max: 1024, wantErr: nil},
		{name: "one byte over", size: 1025, max: 1024, wantErr: ErrMessageTooLarge},
		{name: "zero limit uses default", size: 100, max: 0, wantErr: nil},
		{name: "empty body", size: 0, max: 100, wantErr: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateMessageSize(make([]byte, tt.size), tt.max)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateMessageSize(size=%d, max=%d) = %v, want %v",
					tt.size, tt.max, err, tt.wantErr)
			}
		})
	}
}

func TestValidateJSONDepth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		json    string
		max     int
		wantErr error
	}{
		{
			name:    "bare execute envelope",
			json:    `{"version":"1","id":1,"method":"execute_intent","params":{"want":"disk usage"}}`,
			max:     4,
			wantErr: nil,
		},
		{
			name:    "context object within limit",
			json:    `{"params":{"context":{"path":"/var/log"}}}`,
			max:     3,
			wantErr: nil,
		},
		{
			name:    "object nested over limit",
			json:    `{"a":{"b":{"c":{"d":1}}}}`,
			max:     3,
			wantErr: ErrJSONTooDeep,
		},
		{
			name:    "array nesting within limit",
			json:    `[[[1]]]`,
			max:     3,
			wantErr: nil,
		},
		{
			name:    "array bomb over limit",
			json:    `[[[[1]]]]`,
			max:     3,
			wantErr: ErrJSONTooDeep,
		},
		{
			name:    "empty body",
			json:    "",
			max:     1,
			wantErr: nil,
		},
		{
			name:    "scalar only",
			json:    `"hello"`,
			max:     1,
			wantErr: nil,
		},
		{
			name:    "zero limit uses default",
			json:    `{"method":"list_domains"}`,
			max:     0,
			wantErr: nil,
		},
		{
			name:    "truncated body",
			json:    `{"method":`,
			max:     4,
			wantErr: ErrInvalidJSON,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateJSONDepth([]byte(tt.json), tt.max)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateJSONDepth(%q, %d) = %v, want %v",
					tt.json, tt.max, err, tt.wantErr)
			}
		})
	}
}

func TestValidateJSONDepth_CraftedBomb(t *testing.T) {
	t.Parallel()

	// {"context":{"context":...}} nested well past the default limit.
	depth := 64
	var sb strings.Builder
	for range depth {
		sb.WriteString(`{"context":`)
	}
	sb.WriteString("1")
	for range depth {
		sb.WriteString("}")
	}

	err := ValidateJSONDepth([]byte(sb.String()), DefaultMaxJSONDepth)
	if !errors.Is(err, ErrJSONTooDeep) {
		t.Errorf("expected ErrJSONTooDeep for depth %d, got %v", depth, err)
	}
}

func BenchmarkValidateJSONDepth(b *testing.B) {
	data := []byte(`{"version":"1","id":7,"method":"execute_intent",` +
		`"params":{"want":"tail the syslog","context":{"file":"/var/log/syslog","lines":50}}}`)
	b.ResetTimer()
	for range b.N {
		_ = ValidateJSONDepth(data, DefaultMaxJSONDepth)
	}
}

func BenchmarkValidateMessageSize(b *testing.B) {
	data := make([]byte, 4096)
	b.ResetTimer()
	for range b.N {
		_ = ValidateMessageSize(data, DefaultMaxMessageSize)
	}
}
