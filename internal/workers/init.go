package workers

import (
	"context"
	"time"

	"infinite-experiment/hangar/internal/common"
	"infinite-experiment/hangar/internal/logging"
	"infinite-experiment/hangar/internal/metrics"
	"infinite-experiment/hangar/internal/middleware"
)

type Config struct {
	AlertWorkers   int
	MonitorPeriod  time.Duration
	MaxStreamLen   int64
	LimiterSweepAt time.Duration
}

type WorkersContainer struct {
	Alerts  *SafetyAlertWorker
	Monitor *SafetyQueueMonitor
}

// InitWorkers starts the background workers. Queue-backed workers only run
// when queue is non-nil; everything stops when ctx is cancelled.
func InitWorkers(ctx context.Context, cfg Config, queue *common.RedisQueueService, limiter *middleware.RateLimiter, metricsReg *metrics.MetricsRegistry) *WorkersContainer {
	container := &WorkersContainer{}

	if limiter != nil {
		go sweepLimiter(ctx, limiter, cfg.LimiterSweepAt)
	}

	if queue == nil {
		logging.Info("Redis not configured, safety alert workers disabled")
		return container
	}

	container.Alerts = NewSafetyAlertWorker("hangar", queue, metricsReg)
	container.Monitor = NewSafetyQueueMonitor(queue, metricsReg)

	go container.Alerts.Start(ctx, cfg.AlertWorkers)
	go container.Monitor.Start(ctx, cfg.MonitorPeriod, cfg.MaxStreamLen)

	return container
}

func sweepLimiter(ctx context.Context, limiter *middleware.RateLimiter, every time.Duration) {
	if every <= 0 {
		every = 5 * time.Minute
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := limiter.Sweep(); n > 0 {
				logging.Debug("Dropped idle rate limit buckets", "count", n)
			}
		}
	}
}
