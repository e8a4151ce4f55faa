package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/MrSnakeDoc/deploy-agent/internal/deployment"
	"github.com/MrSnakeDoc/deploy-agent/internal/logger"
)

// ErrQueueFull is returned by Submit when no more deployments can be queued.
var ErrQueueFull = errors.New("deployment queue is full")

const journalTimeout = 2 * time.Second

// Executor runs one deployment. *deployment.Pipeline satisfies it.
type Executor interface {
	Run(ctx context.Context, d *deployment.Deployment) error
}

// DeploymentRunner feeds queued deployments to a single worker, one at a time.
type DeploymentRunner struct {
	executor Executor
	journal  deployment.Journal
	logger   logger.Logger
	queue    chan *deployment.Deployment
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	// submitMu makes the capacity check and the send one step, so the
	// pending record is written before the worker can pick d up.
	submitMu sync.Mutex
	now      func() time.Time

	mu     sync.RWMutex
	active string
}

// NewDeploymentRunner creates a runner that accepts up to queueSize pending
// deployments besides the one being executed. journal may be nil.
func NewDeploymentRunner(executor Executor, journal deployment.Journal, log logger.Logger, queueSize int) *DeploymentRunner {
	if queueSize < 1 {
		queueSize = 1
	}
	return &DeploymentRunner{
		executor: executor,
		journal:  journal,
		logger:   log,
		queue:    make(chan *deployment.Deployment, queueSize),
		stopCh:   make(chan struct{}),
		now:      time.Now,
	}
}

// Start launches the worker. It returns immediately.
func (r *DeploymentRunner) Start(ctx context.Context) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		for {
			select {
			case d := <-r.queue:
				r.execute(ctx, d)
			case <-r.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the worker and waits for the running deployment to return.
// Deployments still queued are dropped.
func (r *DeploymentRunner) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
	r.wg.Wait()

	if n := len(r.queue); n > 0 {
		r.logger.Warn("dropping queued deployments", logger.Int("count", n))
	}
}

// Submit queues d without blocking on the worker. An accepted deployment is
// journaled as pending before it becomes visible to the worker.
func (r *DeploymentRunner) Submit(d *deployment.Deployment) error {
	select {
	case <-r.stopCh:
		return errors.New("deployment runner stopped")
	default:
	}

	fields := []logger.Field{logger.String("deployment_id", d.ID)}
	if d.Service != nil {
		fields = append(fields, logger.String("service_id", d.Service.ID))
	}
	d.Logger = r.logger.With(fields...)

	r.submitMu.Lock()
	defer r.submitMu.Unlock()

	if len(r.queue) == cap(r.queue) {
		d.Logger.Warn("deployment rejected, queue is full")
		return ErrQueueFull
	}

	r.savePending(d)

	// only Submit sends and it holds submitMu, so there is room
	r.queue <- d
	d.Logger.Info("deployment queued", logger.Int("pending", len(r.queue)))
	return nil
}

func (r *DeploymentRunner) savePending(d *deployment.Deployment) {
	if r.journal == nil {
		return
	}

	now := r.now()
	rec := &deployment.Record{
		ID:        d.ID,
		Status:    deployment.StatusPending,
		StartedAt: now,
		UpdatedAt: now,
	}
	if d.Service != nil {
		rec.ServiceID = d.Service.ID
	}

	ctx, cancel := context.WithTimeout(context.Background(), journalTimeout)
	defer cancel()
	if err := r.journal.SaveRecord(ctx, rec); err != nil {
		d.Logger.Warn("failed to journal pending deployment", logger.Error(err))
	}
}

// Pending returns the number of queued deployments.
func (r *DeploymentRunner) Pending() int {
	return len(r.queue)
}

// Active returns the id of the deployment being executed, or "".
func (r *DeploymentRunner) Active() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.active
}

func (r *DeploymentRunner) execute(ctx context.Context, d *deployment.Deployment) {
	r.setActive(d.ID)
	defer r.setActive("")

	d.Logger.Info("deployment started")
	if err := r.executor.Run(ctx, d); err != nil {
		// the pipeline already logged and journaled the failure
		d.Logger.Debug("deployment finished with error", logger.Error(err))
		return
	}
}

func (r *DeploymentRunner) setActive(id string) {
	r.mu.Lock()
	r.active = id
	r.mu.Unlock()
}
