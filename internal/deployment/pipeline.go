package deployment

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/deploy-agent/internal/logger"
)

// Pipeline runs stages in order and stops at the first failure. Rolling
// back earlier stages is left to the caller.
type Pipeline struct {
	stages  []Stage
	journal Journal
	now     func() time.Time
}

// NewPipeline creates a pipeline. journal may be nil.
func NewPipeline(journal Journal, stages ...Stage) *Pipeline {
	return &Pipeline{
		stages:  stages,
		journal: journal,
		now:     time.Now,
	}
}

// Stages returns the stage names in execution order.
func (p *Pipeline) Stages() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name()
	}
	return names
}

// Run executes every stage against d.
func (p *Pipeline) Run(ctx context.Context, d *Deployment) error {
	log := d.log()
	rec := &Record{ID: d.ID, Status: StatusInProgress, StartedAt: p.now()}
	if d.Service != nil {
		rec.ServiceID = d.Service.ID
	}
	p.save(ctx, log, rec)

	for _, stage := range p.stages {
		if err := ctx.Err(); err != nil {
			return p.fail(ctx, log, rec, stage.Name(), err)
		}

		start := p.now()
		log.Info("running stage", logger.String("stage", stage.Name()))
		rec.Stage = stage.Name()

		if err := stage.Run(ctx, d); err != nil {
			return p.fail(ctx, log, rec, stage.Name(), err)
		}

		log.Info("stage completed",
			logger.String("stage", stage.Name()),
			logger.Duration("elapsed", p.now().Sub(start)))
	}

	rec.Status = StatusSuccess
	rec.Stage = ""
	rec.CheckIDs = RegisteredCheckIDs(d)
	p.save(ctx, log, rec)

	log.Info("deployment succeeded")
	return nil
}

func (p *Pipeline) fail(ctx context.Context, log logger.Logger, rec *Record, stage string, err error) error {
	err = asDeploymentError(stage, err)
	log.Error("deployment failed",
		logger.String("stage", stage),
		logger.Error(err))

	rec.Status = StatusFailed
	rec.Error = err.Error()
	p.save(context.WithoutCancel(ctx), log, rec)
	return err
}

// save is best effort: a journal outage must not fail a deployment.
func (p *Pipeline) save(ctx context.Context, log logger.Logger, rec *Record) {
	if p.journal == nil {
		return
	}
	rec.UpdatedAt = p.now()
	if err := p.journal.SaveRecord(ctx, rec); err != nil {
		log.Warn("failed to save deployment record", logger.Error(err))
	}
}
