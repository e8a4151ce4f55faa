package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/deploy-agent/internal/deployment"
	"github.com/MrSnakeDoc/deploy-agent/internal/domain"
	"github.com/MrSnakeDoc/deploy-agent/internal/httpserver/deps"
	"github.com/MrSnakeDoc/deploy-agent/internal/logger"
	"github.com/MrSnakeDoc/deploy-agent/internal/scheduler"
	redisstore "github.com/MrSnakeDoc/deploy-agent/internal/store/redis"
)

const (
	maxRequestBytes      = 1 << 20
	defaultRecentLimit   = 20
	maxRecentDeployLimit = 200
)

type deploymentRequest struct {
	DeploymentID string                   `json:"deployment_id"`
	ArchiveDir   string                   `json:"archive_dir"`
	Slice        string                   `json:"slice,omitempty"`
	Version      string                   `json:"version,omitempty"`
	Service      domain.Definition        `json:"service"`
	Installation *domain.InstallationInfo `json:"installation,omitempty"`
}

type deploymentAccepted struct {
	DeploymentID string `json:"deployment_id"`
	ServiceID    string `json:"service_id"`
	Status       string `json:"status"`
}

// CreateDeployment validates the request and queues the deployment.
func CreateDeployment(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req deploymentRequest
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}

		if req.DeploymentID == "" {
			writeError(w, http.StatusBadRequest, "deployment_id must be specified")
			return
		}
		if req.ArchiveDir == "" {
			writeError(w, http.StatusBadRequest, "archive_dir must be specified")
			return
		}

		svc, err := domain.NewService(req.Service, req.Installation)
		if err != nil {
			var verr *domain.ValidationError
			if errors.As(err, &verr) {
				writeError(w, http.StatusBadRequest, verr.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		dep := &deployment.Deployment{
			ID:         req.DeploymentID,
			ArchiveDir: req.ArchiveDir,
			Slice:      req.Slice,
			Version:    req.Version,
			Service:    svc,
		}

		if err := d.Runner.Submit(dep); err != nil {
			if errors.Is(err, scheduler.ErrQueueFull) {
				w.Header().Set("Retry-After", "30")
				writeError(w, http.StatusTooManyRequests, err.Error())
				return
			}
			d.Logger.Error("failed to queue deployment",
				logger.String("deployment_id", req.DeploymentID),
				logger.Error(err))
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}

		writeJSON(w, http.StatusAccepted, deploymentAccepted{
			DeploymentID: dep.ID,
			ServiceID:    svc.ID,
			Status:       string(deployment.StatusPending),
		})
	}
}

// GetDeployment returns the journal record of one deployment.
func GetDeployment(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.Journal == nil {
			writeError(w, http.StatusServiceUnavailable, "deployment journal is disabled")
			return
		}

		rec, err := d.Journal.GetRecord(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			if errors.Is(err, redisstore.ErrRecordNotFound) {
				writeError(w, http.StatusNotFound, err.Error())
				return
			}
			d.Logger.Error("failed to read deployment record", logger.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to read deployment record")
			return
		}

		writeJSON(w, http.StatusOK, rec)
	}
}

// ListDeployments returns the most recent journal records, newest first.
func ListDeployments(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.Journal == nil {
			writeError(w, http.StatusServiceUnavailable, "deployment journal is disabled")
			return
		}

		limit := int64(defaultRecentLimit)
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || n < 1 {
				writeError(w, http.StatusBadRequest, "limit must be a positive integer")
				return
			}
			limit = min(n, maxRecentDeployLimit)
		}

		recs, err := d.Journal.RecentRecords(r.Context(), limit)
		if err != nil {
			d.Logger.Error("failed to list deployment records", logger.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to list deployment records")
			return
		}
		if recs == nil {
			recs = []*deployment.Record{}
		}

		writeJSON(w, http.StatusOK, recs)
	}
}
