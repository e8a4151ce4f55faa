package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/deploy-agent/internal/deployment"
	"github.com/MrSnakeDoc/deploy-agent/internal/domain"
	"github.com/MrSnakeDoc/deploy-agent/internal/httpserver/deps"
	"github.com/MrSnakeDoc/deploy-agent/internal/logger"
	redisstore "github.com/MrSnakeDoc/deploy-agent/internal/store/redis"
)

type servicesResponse struct {
	Services []*domain.Service `json:"services"`
	LastSync string            `json:"last_sync,omitempty"`
}

type serviceResponse struct {
	Service        *domain.Service    `json:"service"`
	LastDeployment *deployment.Record `json:"last_deployment,omitempty"`
}

// ListServices returns the cached agent services.
func ListServices(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := servicesResponse{Services: d.Services.Services()}
		if last := d.Services.LastSync(); !last.IsZero() {
			resp.LastSync = last.UTC().Format(time.RFC3339)
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// GetService returns one cached service and, when the journal is enabled,
// its last deployment.
func GetService(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		svc, ok := d.Services.Service(id)
		if !ok {
			writeError(w, http.StatusNotFound, "service not found")
			return
		}

		resp := serviceResponse{Service: svc}
		if d.Journal != nil {
			rec, err := d.Journal.LastRecordForService(r.Context(), id)
			switch {
			case err == nil:
				resp.LastDeployment = rec
			case errors.Is(err, redisstore.ErrRecordNotFound):
			default:
				d.Logger.Warn("failed to read last deployment",
					logger.String("service_id", id),
					logger.Error(err))
			}
		}

		writeJSON(w, http.StatusOK, resp)
	}
}
