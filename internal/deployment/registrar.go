package deployment

import (
	"context"

	"github.com/MrSnakeDoc/deploy-agent/internal/domain"
)

//go:generate mockgen -destination=mock_registrar_test.go -package=deployment . CheckRegistrar,ServiceRegistrar

// CheckRegistrar submits health checks to the discovery layer.
// RegisterCheck is an upsert keyed by check.ID.
type CheckRegistrar interface {
	RegisterCheck(ctx context.Context, serviceID string, check domain.CheckDefinition) error
}

// ServiceRegistrar announces a service to the discovery layer.
type ServiceRegistrar interface {
	RegisterService(ctx context.Context, svc *domain.Service) error
}

// Journal records deployment progress. A nil Journal is allowed everywhere.
type Journal interface {
	SaveRecord(ctx context.Context, rec *Record) error
}
