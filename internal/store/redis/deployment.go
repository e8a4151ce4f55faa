package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/deploy-agent/internal/deployment"
)

// DefaultRecordTTL is how long a deployment record is kept (7 days)
const DefaultRecordTTL = 7 * 24 * time.Hour

// ErrRecordNotFound is returned when no record exists for an ID.
var ErrRecordNotFound = errors.New("deployment record not found")

// Store is the Redis-backed deployment journal.
type Store struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewStore creates a new Redis store
func NewStore(client redis.Cmdable) *Store {
	return &Store{
		client: client,
		ttl:    DefaultRecordTTL,
	}
}

// SaveRecord stores a deployment record and indexes it. It satisfies
// deployment.Journal.
func (s *Store) SaveRecord(ctx context.Context, rec *deployment.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal deployment record: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, DeploymentKey(rec.ID), data, s.ttl)
	pipe.ZAdd(ctx, AllDeploymentsKey(), redis.Z{
		Score:  float64(rec.StartedAt.Unix()),
		Member: rec.ID,
	})
	if rec.ServiceID != "" {
		pipe.Set(ctx, ServiceLastKey(rec.ServiceID), rec.ID, s.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save deployment record: %w", err)
	}
	return nil
}

// GetRecord retrieves a deployment record by ID
func (s *Store) GetRecord(ctx context.Context, id string) (*deployment.Record, error) {
	data, err := s.client.Get(ctx, DeploymentKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
		}
		return nil, fmt.Errorf("failed to get deployment record: %w", err)
	}

	var rec deployment.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal deployment record: %w", err)
	}
	return &rec, nil
}

// RecentRecords returns up to limit records, newest first. Records whose
// data expired are skipped and dropped from the index.
func (s *Store) RecentRecords(ctx context.Context, limit int64) ([]*deployment.Record, error) {
	if limit <= 0 {
		return []*deployment.Record{}, nil
	}

	ids, err := s.client.ZRevRange(ctx, AllDeploymentsKey(), 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list deployment ids: %w", err)
	}

	records := make([]*deployment.Record, 0, len(ids))
	for _, id := range ids {
		rec, err := s.GetRecord(ctx, id)
		if errors.Is(err, ErrRecordNotFound) {
			_ = s.client.ZRem(ctx, AllDeploymentsKey(), id).Err()
			continue
		}
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// LastRecordForService returns the most recent deployment of serviceID.
func (s *Store) LastRecordForService(ctx context.Context, serviceID string) (*deployment.Record, error) {
	id, err := s.client.Get(ctx, ServiceLastKey(serviceID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: service %s", ErrRecordNotFound, serviceID)
		}
		return nil, fmt.Errorf("failed to get last deployment: %w", err)
	}
	return s.GetRecord(ctx, id)
}
