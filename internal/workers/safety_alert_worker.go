package workers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"infinite-experiment/hangar/internal/common"
	"infinite-experiment/hangar/internal/logging"
	"infinite-experiment/hangar/internal/metrics"

	"go.uber.org/zap"
)

// AlertSource is the consumer side of the safety alert stream.
type AlertSource interface {
	DequeueAlert(ctx context.Context, consumer string, blockTime time.Duration) (*common.SafetyAlert, string, error)
	Ack(ctx context.Context, messageID string) error
	ClaimStale(ctx context.Context, consumer string, minIdle time.Duration) ([]*common.SafetyAlert, []string, error)
}

// AlertHandler acts on one alert. Returning an error still acks the message.
type AlertHandler func(ctx context.Context, alert *common.SafetyAlert) error

// SafetyAlertWorker drains the safety alert stream with a consumer group.
type SafetyAlertWorker struct {
	workerID string
	queue    AlertSource
	handle   AlertHandler
	metrics  *metrics.MetricsRegistry
	log      *zap.SugaredLogger

	blockTime  time.Duration
	claimEvery time.Duration
	minIdle    time.Duration
	backoff    time.Duration
}

func NewSafetyAlertWorker(workerID string, queue AlertSource, metricsReg *metrics.MetricsRegistry) *SafetyAlertWorker {
	w := &SafetyAlertWorker{
		workerID:   workerID,
		queue:      queue,
		metrics:    metricsReg,
		log:        logging.Named("safety-alert-worker"),
		blockTime:  5 * time.Second,
		claimEvery: 2 * time.Minute,
		minIdle:    5 * time.Minute,
		backoff:    time.Second,
	}
	w.handle = w.logAlert
	return w
}

// WithHandler replaces the default handler, which only logs.
func (w *SafetyAlertWorker) WithHandler(h AlertHandler) *SafetyAlertWorker {
	w.handle = h
	return w
}

// Start runs numWorkers consumers plus the stale-message claimer and blocks
// until ctx is cancelled.
func (w *SafetyAlertWorker) Start(ctx context.Context, numWorkers int) {
	if numWorkers < 1 {
		numWorkers = 1
	}
	w.log.Infow("Starting safety alert workers", "workers", numWorkers, "worker_id", w.workerID)

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		consumer := fmt.Sprintf("%s-%d", w.workerID, i)
		go func() {
			defer wg.Done()
			w.processQueue(ctx, consumer)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		w.claimStaleMessages(ctx)
	}()

	wg.Wait()
	w.log.Infow("All safety alert workers stopped")
}

func (w *SafetyAlertWorker) processQueue(ctx context.Context, consumer string) {
	processed, failed := 0, 0

	for {
		select {
		case <-ctx.Done():
			w.log.Infow("Consumer shutting down", "consumer", consumer, "processed", processed, "errors", failed)
			return
		default:
		}

		alert, messageID, err := w.queue.DequeueAlert(ctx, consumer, w.blockTime)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			w.log.Warnw("Failed to dequeue alert", "consumer", consumer, "message_id", messageID, "error", err)
			// An unreadable message would be redelivered forever.
			if messageID != "" {
				w.ack(ctx, messageID)
			} else {
				sleep(ctx, w.backoff)
			}
			continue
		}
		if alert == nil {
			continue
		}

		if w.process(ctx, alert) {
			processed++
		} else {
			failed++
		}
		w.ack(ctx, messageID)
	}
}

func (w *SafetyAlertWorker) process(ctx context.Context, alert *common.SafetyAlert) bool {
	if err := w.handle(ctx, alert); err != nil {
		w.log.Errorw("Failed to handle safety alert", "report_id", alert.ReportID, "error", err)
		return false
	}
	if w.metrics != nil {
		w.metrics.SafetyAlertsTotal.WithLabelValues(alert.Severity).Inc()
	}
	return true
}

func (w *SafetyAlertWorker) ack(ctx context.Context, messageID string) {
	if err := w.queue.Ack(ctx, messageID); err != nil {
		w.log.Warnw("Failed to ack alert", "message_id", messageID, "error", err)
	}
}

// claimStaleMessages periodically takes over alerts left pending by dead consumers.
func (w *SafetyAlertWorker) claimStaleMessages(ctx context.Context) {
	ticker := time.NewTicker(w.claimEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.claimOnce(ctx)
		}
	}
}

func (w *SafetyAlertWorker) claimOnce(ctx context.Context) int {
	alerts, ids, err := w.queue.ClaimStale(ctx, w.workerID+"-claimer", w.minIdle)
	if err != nil {
		w.log.Warnw("Failed to claim stale alerts", "error", err)
		return 0
	}
	if len(alerts) > 0 {
		w.log.Infow("Claimed stale alerts", "count", len(alerts))
	}
	for i, alert := range alerts {
		w.process(ctx, alert)
		w.ack(ctx, ids[i])
	}
	return len(alerts)
}

func (w *SafetyAlertWorker) logAlert(ctx context.Context, alert *common.SafetyAlert) error {
	w.log.Warnw("Safety alert",
		"report_id", alert.ReportID,
		"severity", alert.Severity,
		"category", alert.Category,
		"aircraft_id", alert.AircraftID,
		"reporter", alert.ReporterName,
		"report_date", alert.ReportDate,
		"queued_for", time.Since(alert.EnqueuedAt).Round(time.Millisecond).String(),
	)
	return nil
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
