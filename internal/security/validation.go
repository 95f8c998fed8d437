package security

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Bounds applied to inbound request envelopes before decoding. Agent
// callers are untrusted; a runaway client must not be able to exhaust the
// daemon with one oversized or pathologically nested message.
const (
	DefaultMaxMessageSize = 1 << 20 // 1 MiB
	DefaultMaxJSONDepth   = 32
)

// Validation errors.
var (
	ErrMessageTooLarge = errors.New("request exceeds maximum size")
	ErrJSONTooDeep     = errors.New("request nesting exceeds maximum depth")
	ErrInvalidJSON     = errors.New("invalid JSON")
)

// ValidateMessageSize rejects request bodies larger than limit bytes.
// A limit <= 0 falls back to DefaultMaxMessageSize.
func ValidateMessageSize(data []byte, limit int) error {
	if limit <= 0 {
		limit = DefaultMaxMessageSize
	}
	if len(data) > limit {
		return fmt.Errorf("%w: %d bytes (limit %d)", ErrMessageTooLarge, len(data), limit)
	}
	return nil
}

// ValidateJSONDepth rejects request bodies whose JSON nests deeper than
// limit levels. Intent context objects are operator-shaped and shallow;
// anything approaching the limit is a crafted payload, not a real call.
// A limit <= 0 falls back to DefaultMaxJSONDepth.
func ValidateJSONDepth(data []byte, limit int) error {
	if limit <= 0 {
		limit = DefaultMaxJSONDepth
	}
	if len(data) == 0 {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	depth := 0
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidJSON, err)
		}

		delim, ok := tok.(json.Delim)
		if !ok {
			continue
		}
		switch delim {
		case '{', '[':
			depth++
			if depth > limit {
				return fmt.Errorf("%w: depth %d (limit %d)", ErrJSONTooDeep, depth, limit)
			}
		case '}', ']':
			depth--
		}
	}
}
