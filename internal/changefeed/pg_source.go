package changefeed

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"infinite-experiment/hangar/internal/constants"
	"infinite-experiment/hangar/internal/logging"

	"github.com/lib/pq"
)

// notification is the payload written by notify_row_change().
type notification struct {
	Table           string               `json:"table"`
	Type            constants.ChangeType `json:"type"`
	Record          json.RawMessage      `json:"record"`
	OldRecord       json.RawMessage      `json:"old_record"`
	CommitTimestamp time.Time            `json:"commit_timestamp"`
}

// PgSource listens on the row_changes channel and publishes into a Hub.
// Notifications sent while the listener is reconnecting are lost.
type PgSource struct {
	dsn     string
	channel string
	hub     *Hub
}

func NewPgSource(dsn string, hub *Hub) *PgSource {
	return &PgSource{
		dsn:     dsn,
		channel: constants.ChangeChannel,
		hub:     hub,
	}
}

// Run blocks until ctx is cancelled.
func (s *PgSource) Run(ctx context.Context) error {
	listener := pq.NewListener(s.dsn, 2*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		switch ev {
		case pq.ListenerEventConnected:
			logging.Info("Change listener connected", "channel", s.channel)
		case pq.ListenerEventDisconnected:
			logging.Warn("Change listener disconnected", "channel", s.channel, "error", err)
		case pq.ListenerEventReconnected:
			logging.Warn("Change listener reconnected, changes during the outage were not replayed", "channel", s.channel)
		case pq.ListenerEventConnectionAttemptFailed:
			logging.Error("Change listener connection attempt failed", "channel", s.channel, "error", err)
		}
	})
	defer listener.Close()

	if err := listener.Listen(s.channel); err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.channel, err)
	}

	ping := time.NewTicker(90 * time.Second)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case n := <-listener.Notify:
			// nil after a reconnect
			if n == nil {
				continue
			}
			s.handle(n.Extra)
		case <-ping.C:
			go func() {
				if err := listener.Ping(); err != nil {
					logging.Warn("Change listener ping failed", "error", err)
				}
			}()
		}
	}
}

func (s *PgSource) handle(payload string) {
	change, err := ParseNotification([]byte(payload))
	if err != nil {
		logging.Warn("Dropping unreadable change notification", "error", err)
		return
	}
	s.hub.Publish(change)
}

// ParseNotification decodes a row_changes payload.
func ParseNotification(payload []byte) (Change, error) {
	var n notification
	if err := json.Unmarshal(payload, &n); err != nil {
		return Change{}, fmt.Errorf("invalid notification: %w", err)
	}
	if !n.Type.Valid() {
		return Change{}, fmt.Errorf("invalid notification: unknown type %q", n.Type)
	}
	if n.Table == "" {
		return Change{}, fmt.Errorf("invalid notification: missing table")
	}

	return Change{
		Table:           n.Table,
		Type:            n.Type,
		New:             nullToEmpty(n.Record),
		Old:             nullToEmpty(n.OldRecord),
		CommitTimestamp: n.CommitTimestamp,
	}, nil
}

func nullToEmpty(raw json.RawMessage) json.RawMessage {
	if string(raw) == "null" {
		return nil
	}
	return raw
}
