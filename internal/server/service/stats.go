package service

import (
	"context"
	"time"

	"github.com/nemanja-m/gopool/internal/server/core"
	"github.com/nemanja-m/gopool/internal/shared/logging"
)

// HealthSetter is updated with the pool's ability to accept work.
type HealthSetter interface {
	SetServing(serving bool)
}

type StatsReporter struct {
	interval time.Duration
	monitor  core.PoolMonitor
	health   HealthSetter
	logger   logging.Logger
}

func NewStatsReporter(
	interval time.Duration,
	monitor core.PoolMonitor,
	health HealthSetter,
	logger logging.Logger,
) *StatsReporter {
	return &StatsReporter{
		interval: interval,
		monitor:  monitor,
		health:   health,
		logger:   logger,
	}
}

func (r *StatsReporter) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.report()
		}
	}
}

func (r *StatsReporter) report() {
	stats := r.monitor.Stats()

	if r.health != nil {
		r.health.SetServing(!stats.Closed)
	}

	if !stats.Closed && stats.Workers < stats.Size {
		r.logger.Warn("Pool running below capacity",
			"workers", stats.Workers,
			"size", stats.Size,
		)
	}

	r.logger.Info("Pool stats",
		"workers", stats.Workers,
		"idle", stats.Idle,
		"executing", stats.Executing,
		"pending", stats.Pending,
		"submitted", stats.Submitted,
		"completed", stats.Completed,
		"panicked", stats.Panicked,
	)
}
