package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
)

// handleWebSocket serves the long-lived binding. Each text message carries
// one request envelope; each reply carries one response envelope with the
// request ID echoed so the peer can pipeline calls.
func (g *Gateway) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		g.logger.Warn("websocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()

	conn.SetReadLimit(1 << 20)
	g.metrics.IncWSConnections()
	defer g.metrics.DecWSConnections()

	g.logger.Debug("websocket session opened", "remote", r.RemoteAddr)

	for {
		typ, data, err := conn.Read(r.Context())
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway ||
				errors.Is(err, context.Canceled) {
				return
			}
			g.logger.Debug("websocket read ended", "remote", r.RemoteAddr, "error", err)
			return
		}
		if typ != websocket.MessageText {
			conn.Close(websocket.StatusUnsupportedData, "text frames only")
			return
		}

		start := time.Now()
		resp := g.serve(r.Context(), data)
		g.metrics.ObserveRequest(resp, time.Since(start))

		if err := g.writeWS(r.Context(), conn, resp); err != nil {
			g.logger.Debug("websocket write failed", "remote", r.RemoteAddr, "error", err)
			return
		}
	}
}

func (g *Gateway) writeWS(ctx context.Context, conn *websocket.Conn, resp any) error {
	payload, err := json.Marshal(resp)
	if err != nil {
		return err
	}

	writeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	return conn.Write(writeCtx, websocket.MessageText, payload)
}
