// Package orchestrator owns the agent lifecycle: it runs the first scan
// pass synchronously, schedules the recurring loops, and tears everything
// down on stop.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"swarm/internal/agent"
	"swarm/internal/config"
	cronrunner "swarm/internal/cron"
	"swarm/internal/hub"
	"swarm/internal/observability"
)

// Fixed cadences for the maintenance loops. The scan loops derive from the
// configured scan interval instead.
const (
	riskInterval  = 30 * time.Second
	priceInterval = 20 * time.Second
)

// Scanner is one scheduled pass of a scanning agent.
type Scanner interface {
	Scan(ctx context.Context) error
}

// Sweeper is one scheduled pass of a maintenance loop.
type Sweeper interface {
	RunOnce(ctx context.Context) error
}

type Deps struct {
	Config    config.SwarmConfig
	Agents    *agent.Registry
	Narrative Scanner
	Hunter    Scanner
	Risk      Sweeper
	Prices    Sweeper
	Hub       *hub.Hub
	Metrics   *observability.Metrics
	Logger    *zap.Logger
}

// Orchestrator is a single start-to-stop run of the swarm. A stopped
// instance is never restarted; the manager builds a new one.
type Orchestrator struct {
	deps    Deps
	runner  *cronrunner.Runner
	baseCtx context.Context
	cancel  context.CancelFunc
	running atomic.Bool
	stopped atomic.Bool

	// The price loop has no status row, so it carries its own in-flight
	// guard instead of the registry's.
	pricesMu sync.Mutex
}

func New(deps Deps) *Orchestrator {
	return &Orchestrator{deps: deps}
}

// Start validates the run config, runs one synchronous narrative pass and
// one hunter pass so the first status snapshot has data behind it, then
// schedules the recurring loops. It returns after scheduling.
func (o *Orchestrator) Start(ctx context.Context) error {
	if err := o.deps.Config.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if !o.running.CompareAndSwap(false, true) {
		return fmt.Errorf("already started")
	}
	o.baseCtx, o.cancel = context.WithCancel(context.Background())
	o.runner = cronrunner.New(o.deps.Logger, o.baseCtx)

	o.deps.Agents.MarkAllRunning()
	o.publishStatus()
	if o.deps.Logger != nil {
		o.deps.Logger.Info("swarm starting",
			zap.Duration("scan_interval", o.deps.Config.ScanInterval),
			zap.Bool("trading_enabled", o.deps.Config.HasWallet()),
		)
	}

	// First pass runs inline so /status and /narratives are populated the
	// moment start returns. Narrative goes first: the hunter tags tokens
	// with whatever narratives exist.
	o.runAgent(ctx, agent.AgentNarrative, o.deps.Narrative.Scan)
	o.runAgent(ctx, agent.AgentHunter, o.deps.Hunter.Scan)

	scanEvery := o.deps.Config.ScanInterval
	if scanEvery <= 0 {
		scanEvery = time.Minute
	}
	jobs := []struct {
		id   string
		spec string
		run  func(context.Context)
	}{
		{agent.AgentNarrative, every(2 * scanEvery), func(jobCtx context.Context) {
			o.runAgent(jobCtx, agent.AgentNarrative, o.deps.Narrative.Scan)
		}},
		{agent.AgentHunter, every(scanEvery), func(jobCtx context.Context) {
			o.runAgent(jobCtx, agent.AgentHunter, o.deps.Hunter.Scan)
		}},
		{agent.AgentRisk, every(riskInterval), func(jobCtx context.Context) {
			o.runAgent(jobCtx, agent.AgentRisk, o.deps.Risk.RunOnce)
		}},
		{"prices", every(priceInterval), o.runPrices},
	}
	for _, j := range jobs {
		if _, err := o.runner.Add(j.spec, j.run); err != nil {
			o.cancel()
			o.running.Store(false)
			return fmt.Errorf("schedule %s: %w", j.id, err)
		}
	}
	// A stop that raced the inline first pass wins; don't start the schedule.
	if !o.running.Load() {
		return nil
	}
	o.runner.Start()
	return nil
}

func (o *Orchestrator) runPrices(ctx context.Context) {
	if !o.running.Load() {
		return
	}
	if !o.pricesMu.TryLock() {
		return
	}
	defer o.pricesMu.Unlock()
	if err := o.deps.Prices.RunOnce(ctx); err != nil && o.running.Load() && o.deps.Logger != nil {
		o.deps.Logger.Warn("price update failed", zap.Error(err))
	}
}

// runAgent wraps one tick with the in-flight guard, the liveness gate, and
// the status bookkeeping. Overlapping ticks of the same agent are skipped.
func (o *Orchestrator) runAgent(ctx context.Context, id string, run func(context.Context) error) {
	if !o.running.Load() {
		return
	}
	if !o.deps.Agents.TryAcquire(id) {
		if o.deps.Logger != nil {
			o.deps.Logger.Debug("tick skipped, previous still in flight", zap.String("agent", id))
		}
		return
	}
	defer o.deps.Agents.Release(id)

	o.deps.Agents.SetRunning(id)
	if o.deps.Metrics != nil {
		o.deps.Metrics.ScansTotal.WithLabelValues(id).Inc()
	}
	start := time.Now()
	err := run(ctx)
	// A stop during the tick wins over whatever the tick returned.
	if !o.running.Load() {
		return
	}
	if err != nil {
		if o.deps.Metrics != nil {
			o.deps.Metrics.ScanErrorsTotal.WithLabelValues(id).Inc()
		}
		if o.deps.Logger != nil {
			o.deps.Logger.Error("agent tick failed", zap.String("agent", id), zap.Error(err))
		}
		o.deps.Agents.SetError(id, err.Error())
	} else {
		o.deps.Agents.SetResult(id, fmt.Sprintf("ok in %s", time.Since(start).Round(time.Millisecond)))
	}
	o.publishStatus()
}

// Stop is idempotent. It cancels the base context first so in-flight network
// calls abort, then waits for the scheduler to drain, then resets the table.
func (o *Orchestrator) Stop() {
	if !o.stopped.CompareAndSwap(false, true) {
		return
	}
	o.running.Store(false)
	if o.cancel != nil {
		o.cancel()
	}
	if o.runner != nil {
		o.runner.Stop()
	}
	o.deps.Agents.ResetAll()
	o.publishStatus()
	if o.deps.Logger != nil {
		o.deps.Logger.Info("swarm stopped")
	}
}

func (o *Orchestrator) Running() bool {
	return o.running.Load()
}

func (o *Orchestrator) publishStatus() {
	if o.deps.Hub == nil {
		return
	}
	o.deps.Hub.Publish(hub.EventStatus, map[string]any{
		"running": o.running.Load(),
		"agents":  o.deps.Agents.Snapshot(),
	})
}

func every(d time.Duration) string {
	return fmt.Sprintf("@every %s", d)
}
