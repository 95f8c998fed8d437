package protocol

import (
	"encoding/json"
	"testing"
)

func TestDecodeRequest(t *testing.T) {
	t.Parallel()

	req, perr := DecodeRequest([]byte(`{"version":"1","id":7,"method":"list_tools","params":{"domain":"system"}}`))
	if perr != nil {
		t.Fatalf("unexpected error: %v", perr)
	}
	if req.Method != "list_tools" {
		t.Errorf("method: %q", req.Method)
	}
	if req.ID != float64(7) {
		t.Errorf("id: %v", req.ID)
	}
	if req.Params["domain"] != "system" {
		t.Errorf("params: %v", req.Params)
	}
}

func TestDecodeRequest_Malformed(t *testing.T) {
	t.Parallel()

	if _, perr := DecodeRequest([]byte(`{not json`)); perr == nil || perr.Code != CodeInvalidRequest {
		t.Errorf("got %v, want invalid_request", perr)
	}
	if _, perr := DecodeRequest([]byte(`{"id":1}`)); perr == nil || perr.Code != CodeInvalidRequest {
		t.Errorf("missing method: got %v", perr)
	}
}

func TestResponseEnvelope(t *testing.T) {
	t.Parallel()

	ok := OK("abc", map[string]any{"n": 1})
	if ok.Version != Version || ok.ID != "abc" || ok.Error != nil {
		t.Errorf("OK envelope: %+v", ok)
	}

	fail := Fail(nil, MethodNotFound("bogus"))
	if fail.Error == nil || fail.Error.Code != CodeMethodNotFound || fail.Result != nil {
		t.Errorf("Fail envelope: %+v", fail)
	}

	// Exactly one of result/error appears on the wire.
	raw, err := json.Marshal(fail)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatal(err)
	}
	if _, hasResult := m["result"]; hasResult {
		t.Error("error response should not carry a result field")
	}
	if m["version"] != Version {
		t.Errorf("version tag missing: %v", m)
	}
}

func TestErrorTaxonomy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  *Error
		kind Kind
		code int
	}{
		{InvalidRequest("x"), KindProtocol, CodeInvalidRequest},
		{MethodNotFound("m"), KindProtocol, CodeMethodNotFound},
		{InvalidParams("x"), KindProtocol, CodeInvalidParams},
		{Internal("x"), KindInternal, CodeInternal},
		{IntentNotMatched("x"), KindMatch, CodeIntentNotMatched},
		{ToolNotFound("t"), KindMatch, CodeToolNotFound},
		{AmbiguousIntent("x"), KindMatch, CodeAmbiguousIntent},
		{ValidationFailed("x"), KindValidation, CodeInvalidParams},
		{ExecutionFailed("x"), KindExecution, CodeExecutionFailed},
	}

	for _, tt := range tests {
		if tt.err.Kind != tt.kind || tt.err.Code != tt.code {
			t.Errorf("%v: got kind %q code %d, want %q %d",
				tt.err.Message, tt.err.Kind, tt.err.Code, tt.kind, tt.code)
		}
	}
}

func TestErrorWithData(t *testing.T) {
	t.Parallel()

	base := IntentNotMatched("nope")
	derived := base.WithData(map[string]any{"domains": []string{"system"}})

	if base.Data != nil {
		t.Error("WithData mutated the original")
	}
	if derived.Data == nil || derived.Code != base.Code {
		t.Errorf("derived: %+v", derived)
	}
}
