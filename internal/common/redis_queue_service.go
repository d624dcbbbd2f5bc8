package common

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"infinite-experiment/hangar/internal/logging"

	"github.com/redis/go-redis/v9"
)

// SafetyAlert is the stream entry written for high and critical reports.
type SafetyAlert struct {
	ReportID     string    `json:"report_id"`
	Severity     string    `json:"severity"`
	Category     string    `json:"category"`
	Description  string    `json:"description"`
	ReporterName string    `json:"reporter_name"`
	AircraftID   string    `json:"aircraft_id,omitempty"`
	ReportDate   time.Time `json:"report_date"`
	EnqueuedAt   time.Time `json:"enqueued_at"`
}

// AlertQueue is what the safety report service needs from the stream.
type AlertQueue interface {
	EnqueueAlert(ctx context.Context, alert *SafetyAlert) error
}

// RedisQueueService wraps one Redis stream with a consumer group.
type RedisQueueService struct {
	client *redis.Client
	stream string
	group  string
}

var _ AlertQueue = (*RedisQueueService)(nil)

func NewRedisQueueService(client *redis.Client, stream, group string) *RedisQueueService {
	return &RedisQueueService{
		client: client,
		stream: stream,
		group:  group,
	}
}

func (s *RedisQueueService) Stream() string { return s.stream }

// EnqueueAlert appends the alert: XADD stream * data <json>
func (s *RedisQueueService) EnqueueAlert(ctx context.Context, alert *SafetyAlert) error {
	if alert.EnqueuedAt.IsZero() {
		alert.EnqueuedAt = time.Now().UTC()
	}

	data, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to marshal safety alert: %w", err)
	}

	err = s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]interface{}{"data": string(data)},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to add to stream: %w", err)
	}
	return nil
}

// DequeueAlert blocks up to blockTime for one new message. A nil alert with a
// nil error means the wait timed out.
func (s *RedisQueueService) DequeueAlert(ctx context.Context, consumer string, blockTime time.Duration) (*SafetyAlert, string, error) {
	streams, err := s.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    s.group,
		Consumer: consumer,
		Streams:  []string{s.stream, ">"},
		Count:    1,
		Block:    blockTime,
	}).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, "", nil
		}
		return nil, "", fmt.Errorf("failed to read from stream: %w", err)
	}

	if len(streams) == 0 || len(streams[0].Messages) == 0 {
		return nil, "", nil
	}

	msg := streams[0].Messages[0]
	alert, err := decodeAlert(msg)
	if err != nil {
		return nil, msg.ID, err
	}
	return alert, msg.ID, nil
}

func (s *RedisQueueService) Ack(ctx context.Context, messageID string) error {
	return s.client.XAck(ctx, s.stream, s.group, messageID).Err()
}

// CreateConsumerGroup creates the group (and stream) if missing.
func (s *RedisQueueService) CreateConsumerGroup(ctx context.Context) error {
	err := s.client.XGroupCreateMkStream(ctx, s.stream, s.group, "0").Err()
	if err != nil && strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return nil
	}
	return err
}

func (s *RedisQueueService) Length(ctx context.Context) (int64, error) {
	length, err := s.client.XLen(ctx, s.stream).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get queue length: %w", err)
	}
	return length, nil
}

// PendingCount is the number of delivered but unacknowledged messages.
func (s *RedisQueueService) PendingCount(ctx context.Context) (int64, error) {
	pending, err := s.client.XPending(ctx, s.stream, s.group).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get pending count: %w", err)
	}
	return pending.Count, nil
}

// Trim keeps only the most recent maxLen entries.
func (s *RedisQueueService) Trim(ctx context.Context, maxLen int64) error {
	return s.client.XTrimMaxLen(ctx, s.stream, maxLen).Err()
}

// ClaimStale takes over messages left pending by dead consumers.
func (s *RedisQueueService) ClaimStale(ctx context.Context, consumer string, minIdle time.Duration) ([]*SafetyAlert, []string, error) {
	pending, err := s.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: s.stream,
		Group:  s.group,
		Start:  "-",
		End:    "+",
		Count:  100,
	}).Result()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get pending messages: %w", err)
	}

	var staleIDs []string
	for _, p := range pending {
		if p.Idle >= minIdle {
			staleIDs = append(staleIDs, p.ID)
		}
	}
	if len(staleIDs) == 0 {
		return nil, nil, nil
	}

	messages, err := s.client.XClaim(ctx, &redis.XClaimArgs{
		Stream:   s.stream,
		Group:    s.group,
		Consumer: consumer,
		MinIdle:  minIdle,
		Messages: staleIDs,
	}).Result()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to claim stale messages: %w", err)
	}

	var (
		alerts []*SafetyAlert
		ids    []string
	)
	for _, msg := range messages {
		alert, err := decodeAlert(msg)
		if err != nil {
			logging.Warn("Skipping unreadable claimed alert", "message_id", msg.ID, "error", err)
			continue
		}
		alerts = append(alerts, alert)
		ids = append(ids, msg.ID)
	}
	return alerts, ids, nil
}

func decodeAlert(msg redis.XMessage) (*SafetyAlert, error) {
	raw, ok := msg.Values["data"].(string)
	if !ok {
		return nil, fmt.Errorf("invalid message format: data field missing")
	}

	var alert SafetyAlert
	if err := json.Unmarshal([]byte(raw), &alert); err != nil {
		return nil, fmt.Errorf("failed to unmarshal safety alert: %w", err)
	}
	return &alert, nil
}
