package gateway

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (g *Gateway) buildRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Post("/rpc", g.handleRPC)
	r.Get("/ws", g.handleWebSocket)
	r.Get("/health", g.handleHealth)
	r.Method(http.MethodGet, "/metrics", g.metrics.Handler())

	return r
}
