package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/deploy-agent/internal/httpserver/deps"
	"github.com/MrSnakeDoc/deploy-agent/internal/logger"
)

const readyzTimeout = 2 * time.Second

type readyzResponse struct {
	Ready bool   `json:"ready"`
	Error string `json:"error,omitempty"`
}

// Readyz reports ready only when the consul agent has a leader.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyzTimeout)
		defer cancel()

		if err := d.Consul.Ping(ctx); err != nil {
			d.Logger.Warn("readiness check failed", logger.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, readyzResponse{Ready: false, Error: err.Error()})
			return
		}

		writeJSON(w, http.StatusOK, readyzResponse{Ready: true})
	}
}
