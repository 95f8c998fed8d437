// Package protocol defines the request/response envelope and the error
// taxonomy shared by every transport adapter. Transports differ only in
// framing; the envelope and error semantics here are identical across all
// of them.
package protocol

import "encoding/json"

// Version is the protocol version tag carried on every response.
const Version = "1"

// Request is a decoded call envelope. ID is echoed back verbatim so callers
// on long-lived transports can correlate responses.
type Request struct {
	Version string         `json:"version,omitempty"`
	ID      any            `json:"id,omitempty"`
	Method  string         `json:"method"`
	Params  map[string]any `json:"params,omitempty"`
}

// Response is the result envelope. Exactly one of Result and Error is set.
type Response struct {
	Version string `json:"version"`
	ID      any    `json:"id,omitempty"`
	Result  any    `json:"result,omitempty"`
	Error   *Error `json:"error,omitempty"`
}

// OK builds a success response for the given request ID.
func OK(id, result any) Response {
	return Response{Version: Version, ID: id, Result: result}
}

// Fail builds an error response for the given request ID.
func Fail(id any, err *Error) Response {
	return Response{Version: Version, ID: id, Error: err}
}

// DecodeRequest parses a raw request envelope.
func DecodeRequest(data []byte) (Request, *Error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return Request{}, InvalidRequest("malformed request envelope: " + err.Error())
	}
	if req.Method == "" {
		return Request{}, InvalidRequest("missing method")
	}
	return req, nil
}
