package deps

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/deploy-agent/internal/deployment"
	"github.com/MrSnakeDoc/deploy-agent/internal/domain"
	"github.com/MrSnakeDoc/deploy-agent/internal/logger"
)

// Pinger reports whether the discovery agent is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Runner accepts deployments for asynchronous execution.
type Runner interface {
	Submit(d *deployment.Deployment) error
	Pending() int
	Active() string
}

// ServiceCache is the locally cached view of the agent's services.
type ServiceCache interface {
	Services() []*domain.Service
	Service(id string) (*domain.Service, bool)
	LastSync() time.Time
}

// JournalReader reads deployment records.
type JournalReader interface {
	GetRecord(ctx context.Context, id string) (*deployment.Record, error)
	RecentRecords(ctx context.Context, limit int64) ([]*deployment.Record, error)
	LastRecordForService(ctx context.Context, serviceID string) (*deployment.Record, error)
}

type Deps struct {
	Logger       logger.Logger
	StartTime    time.Time
	Version      string
	Commit       string
	BuildDate    string
	GoVersion    string
	TimeNow      func() time.Time // for testing, defaults to time.Now
	AllowedCIDRS []string         // IPs allowed to access the control API
	TrustProxy   bool             // true if running behind a trusted reverse proxy
	Consul       Pinger           // discovery agent
	Runner       Runner           // deployment queue
	Services     ServiceCache     // cached agent services
	Journal      JournalReader    // nil when the journal is disabled
	RedisClient  *redis.Client    // nil when the journal is disabled
	SyncTrigger  chan struct{}    // Channel to trigger a manual service sync
}
