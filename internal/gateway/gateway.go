// Package gateway is the HTTP transport adapter. It exposes the single-
// exchange binding on POST /rpc, the long-lived bidirectional binding on
// GET /ws, plus health and metrics endpoints. Framing aside, both bindings
// forward requests to the router's Dispatch entry point unchanged.
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/flemzord/intentd/internal/config"
	"github.com/flemzord/intentd/internal/protocol"
	"github.com/flemzord/intentd/internal/security"
)

// Dispatcher is the router surface the gateway needs.
type Dispatcher interface {
	Dispatch(ctx context.Context, req protocol.Request) protocol.Response
}

// Gateway serves the HTTP and WebSocket bindings.
type Gateway struct {
	config     config.GatewayConfig
	dispatcher Dispatcher
	limiter    *security.RateLimiter
	logger     *slog.Logger
	metrics    *Metrics
	server     *http.Server
	startedAt  time.Time
}

// New creates a gateway. The rate limiter may be nil to disable limiting.
func New(cfg config.GatewayConfig, dispatcher Dispatcher, limiter *security.RateLimiter, logger *slog.Logger) *Gateway {
	cfg.Defaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Gateway{
		config:     cfg,
		dispatcher: dispatcher,
		limiter:    limiter,
		logger:     logger,
		metrics:    NewMetrics(),
	}
}

// Start begins listening. Non-blocking; serve errors are logged.
func (g *Gateway) Start() error {
	g.startedAt = time.Now()

	g.server = &http.Server{
		Addr:         g.config.Bind,
		Handler:      g.buildRouter(),
		ReadTimeout:  g.config.ReadTimeout,
		WriteTimeout: g.config.WriteTimeout,
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(context.Background(), "tcp", g.config.Bind)
	if err != nil {
		return errors.New("gateway: listen failed: " + err.Error())
	}

	go func() {
		g.logger.Info("gateway listening", "addr", g.config.Bind)
		if err := g.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			g.logger.Error("gateway serve error", "error", err)
		}
	}()

	return nil
}

// Stop shuts the server down gracefully with the configured timeout.
func (g *Gateway) Stop(ctx context.Context) error {
	if g.server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, g.config.ShutdownTimeout)
	defer cancel()

	g.logger.Info("gateway shutting down")
	return g.server.Shutdown(shutdownCtx)
}
