package deployment

import (
	"time"

	"github.com/MrSnakeDoc/deploy-agent/internal/appspec"
	"github.com/MrSnakeDoc/deploy-agent/internal/domain"
	"github.com/MrSnakeDoc/deploy-agent/internal/logger"
)

// Status is the lifecycle state of a deployment as recorded in the journal.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusSuccess    Status = "success"
	StatusFailed     Status = "failed"
)

// Deployment is the context handed to every stage. Stages read it and may
// fill in the parts later stages depend on (AppSpec, Service tags).
type Deployment struct {
	ID         string
	ArchiveDir string
	Slice      string
	Version    string

	Service *domain.Service
	AppSpec *appspec.AppSpec

	Logger logger.Logger
}

func (d *Deployment) log() logger.Logger {
	if d.Logger == nil {
		return logger.NewNop()
	}
	return d.Logger
}

// Record is the journal entry for a deployment.
type Record struct {
	ID        string    `json:"id"`
	ServiceID string    `json:"service_id,omitempty"`
	Status    Status    `json:"status"`
	Stage     string    `json:"stage,omitempty"`
	Error     string    `json:"error,omitempty"`
	CheckIDs  []string  `json:"check_ids,omitempty"`
	StartedAt time.Time `json:"started_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
