package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/flemzord/intentd/internal/protocol"
	"github.com/flemzord/intentd/internal/security"
)

// handleRPC serves the single-exchange binding: one request envelope in the
// body, one response envelope back. Transport-level failures (oversized or
// malformed bodies, rate limiting) are still reported inside the envelope so
// callers only ever parse one shape.
func (g *Gateway) handleRPC(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	body, err := io.ReadAll(io.LimitReader(r.Body, security.DefaultMaxMessageSize+1))
	if err != nil {
		g.writeResponse(w, protocol.Fail(nil, protocol.InvalidRequest("failed to read request body")))
		return
	}

	resp := g.serve(r.Context(), body)
	g.writeResponse(w, resp)

	g.metrics.ObserveRequest(resp, time.Since(start))
}

// serve runs the shared transport-edge checks and dispatches. Both the HTTP
// and WebSocket bindings funnel through here.
func (g *Gateway) serve(ctx context.Context, body []byte) protocol.Response {
	if g.limiter != nil {
		if err := g.limiter.Allow(security.LimitRequest); err != nil {
			g.metrics.IncRateLimited()
			return protocol.Fail(nil, protocol.InvalidRequest("rate limit exceeded, retry later"))
		}
	}

	if err := security.ValidateMessageSize(body, security.DefaultMaxMessageSize); err != nil {
		return protocol.Fail(nil, protocol.InvalidRequest(err.Error()))
	}
	if err := security.ValidateJSONDepth(body, security.DefaultMaxJSONDepth); err != nil {
		return protocol.Fail(nil, protocol.InvalidRequest(err.Error()))
	}

	req, perr := protocol.DecodeRequest(body)
	if perr != nil {
		return protocol.Fail(nil, perr)
	}

	return g.dispatcher.Dispatch(ctx, req)
}

func (g *Gateway) writeResponse(w http.ResponseWriter, resp protocol.Response) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		g.logger.Error("failed to encode response", "error", err)
	}
}
