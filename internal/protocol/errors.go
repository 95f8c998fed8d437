package protocol

import "fmt"

// Kind groups error codes into the taxonomy used for serialization
// decisions. A single tagged struct (not a type hierarchy) carries every
// error so no transport needs runtime type inspection.
type Kind string

// Error kinds.
const (
	KindProtocol   Kind = "protocol"
	KindMatch      Kind = "match"
	KindValidation Kind = "validation"
	KindExecution  Kind = "execution"
	KindInternal   Kind = "internal"
)

// Numeric error codes. The -326xx block mirrors the conventional
// request-envelope codes; the -320xx block is specific to the intent
// lifecycle.
const (
	CodeInvalidRequest       = -32600
	CodeMethodNotFound       = -32601
	CodeInvalidParams        = -32602
	CodeInternal             = -32603
	CodeIntentNotMatched     = -32000
	CodeToolNotFound         = -32001
	CodeConfirmationRequired = -32002
	CodeExecutionFailed      = -32003
	CodeAmbiguousIntent      = -32004
)

// Error is the single error variant carried on the wire. Data holds
// optional structured detail, e.g. the tied candidates of an ambiguous
// match or the full list of validation errors.
type Error struct {
	Kind    Kind   `json:"kind"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Kind, e.Code, e.Message)
}

// WithData returns a copy of e carrying the given structured payload.
func (e *Error) WithData(data any) *Error {
	cp := *e
	cp.Data = data
	return &cp
}

// InvalidRequest reports a malformed request envelope.
func InvalidRequest(msg string) *Error {
	return &Error{Kind: KindProtocol, Code: CodeInvalidRequest, Message: msg}
}

// MethodNotFound reports an unknown method name.
func MethodNotFound(method string) *Error {
	return &Error{Kind: KindProtocol, Code: CodeMethodNotFound, Message: "method not found: " + method}
}

// InvalidParams reports missing or ill-typed call parameters.
func InvalidParams(msg string) *Error {
	return &Error{Kind: KindProtocol, Code: CodeInvalidParams, Message: msg}
}

// Internal wraps an unexpected failure. Raw internal errors must never
// escape a transport untyped; everything unrecognized funnels through here.
func Internal(msg string) *Error {
	return &Error{Kind: KindInternal, Code: CodeInternal, Message: msg}
}

// IntentNotMatched reports that no tool matched the caller's text.
func IntentNotMatched(msg string) *Error {
	return &Error{Kind: KindMatch, Code: CodeIntentNotMatched, Message: msg}
}

// ToolNotFound reports a lookup of an unregistered tool name.
func ToolNotFound(name string) *Error {
	return &Error{Kind: KindMatch, Code: CodeToolNotFound, Message: "tool not found: " + name}
}

// AmbiguousIntent reports a tie between top-scoring candidates.
func AmbiguousIntent(msg string) *Error {
	return &Error{Kind: KindMatch, Code: CodeAmbiguousIntent, Message: msg}
}

// ValidationFailed reports parameter validation errors.
func ValidationFailed(msg string) *Error {
	return &Error{Kind: KindValidation, Code: CodeInvalidParams, Message: msg}
}

// ExecutionFailed reports a spawn failure, non-zero exit, or timeout.
func ExecutionFailed(msg string) *Error {
	return &Error{Kind: KindExecution, Code: CodeExecutionFailed, Message: msg}
}
