package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/deploy-agent/internal/httpserver/deps"
	"github.com/MrSnakeDoc/deploy-agent/internal/logger"
)

type syncResponse struct {
	Triggered bool   `json:"triggered"`
	Message   string `json:"message"`
}

// SyncServices triggers an immediate refresh of the cached service list.
func SyncServices(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		select {
		case d.SyncTrigger <- struct{}{}:
			d.Logger.Info("manual service sync triggered via endpoint",
				logger.String("remote_ip", r.RemoteAddr))
			writeJSON(w, http.StatusAccepted, syncResponse{Triggered: true, Message: "sync triggered"})
		default:
			d.Logger.Warn("service sync already in progress",
				logger.String("remote_ip", r.RemoteAddr))
			writeJSON(w, http.StatusTooManyRequests, syncResponse{Message: "sync already in progress, please wait"})
		}
	}
}
