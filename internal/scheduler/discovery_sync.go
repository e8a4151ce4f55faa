package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MrSnakeDoc/deploy-agent/internal/domain"
	"github.com/MrSnakeDoc/deploy-agent/internal/logger"
)

// ServiceLister lists the services known to the local discovery agent.
type ServiceLister interface {
	Services(ctx context.Context) ([]*domain.Service, error)
}

// DiscoverySyncer keeps an in-memory copy of the agent's services,
// refreshed every interval.
type DiscoverySyncer struct {
	lister   ServiceLister
	logger   logger.Logger
	interval time.Duration
	now      func() time.Time

	stopCh        chan struct{}
	manualTrigger chan struct{}
	stopOnce      sync.Once
	wg            sync.WaitGroup

	mu       sync.RWMutex
	services []*domain.Service
	lastSync time.Time
}

// NewDiscoverySyncer creates a new syncer. A send on manualTrigger forces
// an immediate sync; it may be nil.
func NewDiscoverySyncer(lister ServiceLister, log logger.Logger, interval time.Duration, manualTrigger chan struct{}) *DiscoverySyncer {
	if interval <= 0 {
		interval = time.Minute
	}
	return &DiscoverySyncer{
		lister:        lister,
		logger:        log,
		interval:      interval,
		now:           time.Now,
		stopCh:        make(chan struct{}),
		manualTrigger: manualTrigger,
	}
}

// Start syncs once, then keeps syncing in the background.
func (s *DiscoverySyncer) Start(ctx context.Context) error {
	if err := s.Sync(ctx); err != nil {
		return fmt.Errorf("initial sync failed: %w", err)
	}

	ticker := time.NewTicker(s.interval)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := s.Sync(ctx); err != nil {
					s.logger.Error("failed to sync services from consul",
						logger.Error(err))
				}
			case <-s.manualTrigger:
				s.logger.Info("manual sync triggered")
				if err := s.Sync(ctx); err != nil {
					s.logger.Error("failed to sync services from consul",
						logger.Error(err))
				}
			case <-s.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop stops the background sync.
func (s *DiscoverySyncer) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.wg.Wait()
}

// Sync replaces the cached services with the agent's current list.
// On error the previous list is kept.
func (s *DiscoverySyncer) Sync(ctx context.Context) error {
	services, err := s.lister.Services(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.services = services
	s.lastSync = s.now()
	s.mu.Unlock()

	s.logger.Debug("synced services from consul",
		logger.Int("count", len(services)))
	return nil
}

// Services returns a copy of the cached list.
func (s *DiscoverySyncer) Services() []*domain.Service {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.Service, len(s.services))
	copy(out, s.services)
	return out
}

// Service returns the cached service with the given id.
func (s *DiscoverySyncer) Service(id string) (*domain.Service, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, svc := range s.services {
		if svc.ID == id {
			return svc, true
		}
	}
	return nil, false
}

// LastSync returns the time of the last successful sync.
func (s *DiscoverySyncer) LastSync() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastSync
}
