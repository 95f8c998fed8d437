package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/flemzord/intentd/internal/config"
	"github.com/flemzord/intentd/internal/protocol"
	"github.com/flemzord/intentd/internal/security"
)

// echoDispatcher returns a fixed result for every request.
type echoDispatcher struct{}

func (echoDispatcher) Dispatch(_ context.Context, req protocol.Request) protocol.Response {
	if req.Method == "boom" {
		return protocol.Fail(req.ID, protocol.MethodNotFound(req.Method))
	}
	return protocol.OK(req.ID, map[string]any{"method": req.Method})
}

func testGateway(limiter *security.RateLimiter) *Gateway {
	return New(config.GatewayConfig{Bind: "127.0.0.1:0"}, echoDispatcher{}, limiter, slog.Default())
}

func postRPC(t *testing.T, handler http.Handler, body string) protocol.Response {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/rpc", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type: %q", ct)
	}

	var resp protocol.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("response not valid JSON: %v", err)
	}
	return resp
}

func TestRPC_RoundTrip(t *testing.T) {
	t.Parallel()

	handler := testGateway(nil).buildRouter()
	resp := postRPC(t, handler, `{"version":"1","id":9,"method":"list_domains"}`)

	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error)
	}
	if resp.ID != float64(9) {
		t.Errorf("id: %v", resp.ID)
	}
	result := resp.Result.(map[string]any)
	if result["method"] != "list_domains" {
		t.Errorf("result: %v", result)
	}
}

func TestRPC_ErrorStaysInEnvelope(t *testing.T) {
	t.Parallel()

	handler := testGateway(nil).buildRouter()
	resp := postRPC(t, handler, `{"method":"boom"}`)

	if resp.Error == nil || resp.Error.Code != protocol.CodeMethodNotFound {
		t.Fatalf("got %+v", resp)
	}
}

func TestRPC_MalformedBody(t *testing.T) {
	t.Parallel()

	handler := testGateway(nil).buildRouter()
	resp := postRPC(t, handler, `{{{`)

	if resp.Error == nil || resp.Error.Code != protocol.CodeInvalidRequest {
		t.Fatalf("got %+v", resp)
	}
}

func TestRPC_OversizedBody(t *testing.T) {
	t.Parallel()

	handler := testGateway(nil).buildRouter()
	big := `{"method":"x","params":{"pad":"` + strings.Repeat("a", security.DefaultMaxMessageSize) + `"}}`
	resp := postRPC(t, handler, big)

	if resp.Error == nil || resp.Error.Code != protocol.CodeInvalidRequest {
		t.Fatalf("got %+v", resp)
	}
}

func TestRPC_DeepJSONRejected(t *testing.T) {
	t.Parallel()

	handler := testGateway(nil).buildRouter()
	depth := security.DefaultMaxJSONDepth + 5
	body := `{"method":"x","params":{"v":` +
		strings.Repeat("[", depth) + strings.Repeat("]", depth) + `}}`
	resp := postRPC(t, handler, body)

	if resp.Error == nil || resp.Error.Code != protocol.CodeInvalidRequest {
		t.Fatalf("got %+v", resp)
	}
}

func TestRPC_RateLimited(t *testing.T) {
	t.Parallel()

	limiter := security.NewRateLimiter(security.RateLimitConfig{RequestsPerMin: 1, ExecutionsPerMin: 1})
	handler := testGateway(limiter).buildRouter()

	if resp := postRPC(t, handler, `{"method":"m"}`); resp.Error != nil {
		t.Fatalf("first request rejected: %v", resp.Error)
	}
	resp := postRPC(t, handler, `{"method":"m"}`)
	if resp.Error == nil || !strings.Contains(resp.Error.Message, "rate limit") {
		t.Fatalf("got %+v", resp)
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	handler := testGateway(nil).buildRouter()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var health map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &health); err != nil {
		t.Fatal(err)
	}
	if health["status"] != "ok" {
		t.Errorf("health: %v", health)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()

	gw := testGateway(nil)
	handler := gw.buildRouter()

	// One request so the counters exist.
	postRPC(t, handler, `{"method":"m"}`)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	if !bytes.Contains(body, []byte("intentd_gateway_requests_total")) {
		t.Errorf("request counter missing from exposition:\n%s", body)
	}
}

func TestRPC_MethodFilter(t *testing.T) {
	t.Parallel()

	handler := testGateway(nil).buildRouter()
	req := httptest.NewRequest(http.MethodGet, "/rpc", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /rpc: status %d", rec.Code)
	}
}
