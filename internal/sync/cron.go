package sync

import (
	"github.com/robfig/cron/v3"

	"github.com/memory-nexus/memory-nexus/internal/ports"
)

// CronFallback periodically runs a full sync on a fixed schedule, as
// a backstop for hosts or environments where neither the lifecycle
// hook nor the file watcher can be relied on to fire (e.g. the watch
// limit on the host's filesystem is exhausted, or the hook was never
// installed).
type CronFallback struct {
	cron *cron.Cron
	orch *Orchestrator
}

// NewCronFallback schedules orch.RunAll(false) to run on spec, a
// standard 5-field cron expression (e.g. "*/15 * * * *" for every 15
// minutes). Failures are logged and otherwise ignored: a fallback
// sync competing for a lock is expected to occasionally lose to a
// hook-triggered sync already in flight.
func NewCronFallback(spec string, orch *Orchestrator, logger ports.Logger) (*CronFallback, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		result, err := orch.RunAll(false)
		if err != nil {
			logger.Error("cron fallback sync failed", "error", err)
			return
		}
		if result.Failed > 0 {
			logger.Warn("cron fallback sync completed with failures",
				"succeeded", result.Succeeded, "failed", result.Failed)
			return
		}
		logger.Debug("cron fallback sync completed", "succeeded", result.Succeeded)
	})
	if err != nil {
		return nil, err
	}
	return &CronFallback{cron: c, orch: orch}, nil
}

// Start begins the cron scheduler in a background goroutine.
func (f *CronFallback) Start() { f.cron.Start() }

// Stop halts the scheduler and waits for any in-flight run to finish.
func (f *CronFallback) Stop() { <-f.cron.Stop().Done() }
