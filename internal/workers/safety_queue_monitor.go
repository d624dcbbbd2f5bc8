package workers

import (
	"context"
	"time"

	"infinite-experiment/hangar/internal/logging"
	"infinite-experiment/hangar/internal/metrics"

	"go.uber.org/zap"
)

// QueueInspector reports and trims the alert stream.
type QueueInspector interface {
	Stream() string
	Length(ctx context.Context) (int64, error)
	PendingCount(ctx context.Context) (int64, error)
	Trim(ctx context.Context, maxLen int64) error
}

// QueueStats is one observation of the alert stream.
type QueueStats struct {
	StreamName   string
	QueueLength  int64
	PendingCount int64
	Status       string
	LastChecked  time.Time
}

// Thresholds above which the monitor warns.
const (
	highPending = 100
	highQueue   = 5000
)

// SafetyQueueMonitor logs alert stream health and exports it as gauges.
type SafetyQueueMonitor struct {
	queue   QueueInspector
	metrics *metrics.MetricsRegistry
	log     *zap.SugaredLogger
}

func NewSafetyQueueMonitor(queue QueueInspector, metricsReg *metrics.MetricsRegistry) *SafetyQueueMonitor {
	return &SafetyQueueMonitor{
		queue:   queue,
		metrics: metricsReg,
		log:     logging.Named("safety-queue-monitor"),
	}
}

// Start checks the stream every interval until ctx is cancelled. maxLen > 0
// also trims the stream on each tick.
func (m *SafetyQueueMonitor) Start(ctx context.Context, interval time.Duration, maxLen int64) {
	m.log.Infow("Starting queue monitoring", "interval", interval.String(), "max_len", maxLen)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Run immediately on start
	m.Check(ctx)

	for {
		select {
		case <-ctx.Done():
			m.log.Infow("Shutting down")
			return
		case <-ticker.C:
			m.Check(ctx)
			if maxLen > 0 {
				if err := m.queue.Trim(ctx, maxLen); err != nil {
					m.log.Warnw("Trim failed", "stream", m.queue.Stream(), "error", err)
				}
			}
		}
	}
}

// Check records the current stream length and pending count.
func (m *SafetyQueueMonitor) Check(ctx context.Context) (*QueueStats, error) {
	length, err := m.queue.Length(ctx)
	if err != nil {
		m.log.Warnw("Failed to read queue length", "stream", m.queue.Stream(), "error", err)
		return nil, err
	}

	pending, err := m.queue.PendingCount(ctx)
	if err != nil {
		// No consumer group yet.
		pending = 0
	}

	stats := &QueueStats{
		StreamName:   m.queue.Stream(),
		QueueLength:  length,
		PendingCount: pending,
		Status:       "OK",
		LastChecked:  time.Now(),
	}
	switch {
	case pending > highPending:
		stats.Status = "HIGH PENDING"
	case length > highQueue:
		stats.Status = "HIGH QUEUE"
	}

	if m.metrics != nil {
		m.metrics.SafetyQueueLength.Set(float64(length))
		m.metrics.SafetyQueuePending.Set(float64(pending))
	}

	if stats.Status != "OK" {
		m.log.Warnw("Safety alert queue needs attention", "stream", stats.StreamName, "length", length, "pending", pending, "status", stats.Status)
	} else {
		m.log.Debugw("Safety alert queue", "stream", stats.StreamName, "length", length, "pending", pending)
	}
	return stats, nil
}
