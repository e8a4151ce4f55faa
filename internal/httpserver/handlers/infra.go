package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/deploy-agent/internal/httpserver/deps"
)

type componentStatus struct {
	OK             bool   `json:"ok"`
	ServicesLoaded *int   `json:"services_loaded,omitempty"`
	LastSync       string `json:"last_sync,omitempty"`
	Pending        *int   `json:"pending,omitempty"`
	Active         string `json:"active,omitempty"`
	Mode           string `json:"mode,omitempty"`
	Impact         string `json:"impact,omitempty"`
	Error          string `json:"error,omitempty"`
}

type infraResponse struct {
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
}

// Infra reports the state of every component the agent depends on.
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		servicesCount := len(d.Services.Services())
		lastSync := d.Services.LastSync()
		lastSyncStr := "never"
		if !lastSync.IsZero() {
			lastSyncStr = lastSync.Format("2006-01-02 15:04:05")
		}

		pending := d.Runner.Pending()

		components := map[string]componentStatus{
			"consul": checkConsul(r.Context(), d),
			"redis":  checkRedis(r.Context(), d),
			"discovery": {
				OK:             !lastSync.IsZero(),
				ServicesLoaded: &servicesCount,
				LastSync:       lastSyncStr,
			},
			"runner": {
				OK:      true,
				Pending: &pending,
				Active:  d.Runner.Active(),
			},
		}

		writeJSON(w, http.StatusOK, infraResponse{
			Mode:       determineMode(components),
			Components: components,
		})
	}
}

func determineMode(components map[string]componentStatus) string {
	// Without consul no deployment can succeed
	if consul, exists := components["consul"]; exists && !consul.OK {
		return "critical"
	}

	// Redis down only loses deployment history
	if redis, exists := components["redis"]; exists && !redis.OK && redis.Mode != "disabled" {
		return "degraded"
	}

	return "operational"
}

func checkConsul(ctx context.Context, d deps.Deps) componentStatus {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := d.Consul.Ping(ctx); err != nil {
		return componentStatus{
			OK:     false,
			Impact: "deployments-blocked",
			Error:  err.Error(),
		}
	}
	return componentStatus{OK: true}
}

func checkRedis(ctx context.Context, d deps.Deps) componentStatus {
	if d.RedisClient == nil {
		return componentStatus{
			OK:     false,
			Mode:   "disabled",
			Impact: "deployment-history-disabled",
		}
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := d.RedisClient.Ping(ctx).Err(); err != nil {
		return componentStatus{
			OK:     false,
			Mode:   "degraded",
			Impact: "deployment-history-unavailable",
			Error:  "timeout",
		}
	}

	return componentStatus{
		OK:     true,
		Mode:   "optimal",
		Impact: "deployment-history-enabled",
	}
}
