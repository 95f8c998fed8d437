package gateway

import (
	"encoding/json"
	"net/http"
	"time"
)

type healthResponse struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
}

func (g *Gateway) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{
		Status: "ok",
		Uptime: time.Since(g.startedAt).Round(time.Second).String(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		g.logger.Error("failed to encode health response", "error", err)
	}
}
