// Package cronrunner wraps robfig/cron with a shared base context so every
// scheduled job observes orchestrator shutdown.
package cronrunner

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type Runner struct {
	cron    *cron.Cron
	logger  *zap.Logger
	baseCtx context.Context
}

func New(logger *zap.Logger, baseCtx context.Context) *Runner {
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	return &Runner{
		cron:    cron.New(),
		logger:  logger,
		baseCtx: baseCtx,
	}
}

func (r *Runner) Add(spec string, job func(context.Context)) (cron.EntryID, error) {
	return r.cron.AddFunc(spec, func() {
		ctx := r.baseCtx
		// Cancelled base context means the orchestrator stopped between
		// scheduling and firing; drop the tick.
		if ctx.Err() != nil {
			return
		}
		job(ctx)
	})
}

func (r *Runner) Start() {
	if r.logger != nil {
		r.logger.Info("schedule started")
	}
	r.cron.Start()
}

// Stop cancels future ticks and waits for jobs that already fired. Network
// calls inside a running job are not aborted here; the base context takes
// care of those.
func (r *Runner) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
	if r.logger != nil {
		r.logger.Info("schedule stopped")
	}
}
