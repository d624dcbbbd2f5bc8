// Package changefeed fans row changes out to realtime subscribers.
package changefeed

import (
	"encoding/json"
	"fmt"
	"maps"
	"sync"
	"time"

	"infinite-experiment/hangar/internal/constants"
	"infinite-experiment/hangar/internal/logging"
	"infinite-experiment/hangar/internal/metrics"
)

// Change is one row change. New is empty for deletes, Old is empty for inserts.
type Change struct {
	Table           string
	Type            constants.ChangeType
	New             json.RawMessage
	Old             json.RawMessage
	CommitTimestamp time.Time
}

// NewChange marshals the row images of a change.
func NewChange(table constants.Table, typ constants.ChangeType, newRow, oldRow interface{}) (Change, error) {
	c := Change{
		Table:           table.String(),
		Type:            typ,
		CommitTimestamp: time.Now().UTC(),
	}

	var err error
	if newRow != nil {
		if c.New, err = json.Marshal(newRow); err != nil {
			return Change{}, fmt.Errorf("failed to marshal new record: %w", err)
		}
	}
	if oldRow != nil {
		if c.Old, err = json.Marshal(oldRow); err != nil {
			return Change{}, fmt.Errorf("failed to marshal old record: %w", err)
		}
	}
	return c, nil
}

// Hub routes published changes to subscriptions. Sends never block: a change
// for a subscriber whose buffer is full is dropped.
type Hub struct {
	mu      sync.RWMutex
	subs    map[uint64]*Subscription
	nextID  uint64
	buffer  int
	metrics *metrics.MetricsRegistry
}

// NewHub creates a hub. metricsReg may be nil.
func NewHub(buffer int, metricsReg *metrics.MetricsRegistry) *Hub {
	if buffer <= 0 {
		buffer = 64
	}
	return &Hub{
		subs:    make(map[uint64]*Subscription),
		buffer:  buffer,
		metrics: metricsReg,
	}
}

// Subscription receives changes for one table that match its filter.
type Subscription struct {
	id     uint64
	table  string
	filter map[string]string
	except map[string]string
	ch     chan Change
	hub    *Hub
	once   sync.Once
}

func (s *Subscription) C() <-chan Change { return s.ch }

func (s *Subscription) Table() string { return s.table }

// Close unregisters the subscription and closes its channel. Safe to call twice.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.remove(s)
	})
}

// Subscribe registers interest in table. Every filter entry must equal the
// corresponding column of the row for the change to be delivered.
func (h *Hub) Subscribe(table string, filter map[string]string) *Subscription {
	return h.SubscribeExcept(table, filter, nil)
}

// SubscribeExcept is Subscribe, but a row whose column equals any entry of
// except is never delivered. Rows that cannot be decoded are dropped too.
func (h *Hub) SubscribeExcept(table string, filter, except map[string]string) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	sub := &Subscription{
		id:     h.nextID,
		table:  table,
		filter: maps.Clone(filter),
		except: maps.Clone(except),
		ch:     make(chan Change, h.buffer),
		hub:    h,
	}
	h.subs[sub.id] = sub

	if h.metrics != nil {
		h.metrics.RealtimeSubscriptions.WithLabelValues(table).Inc()
	}
	return sub
}

func (h *Hub) remove(s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subs[s.id]; !ok {
		return
	}
	delete(h.subs, s.id)
	close(s.ch)

	if h.metrics != nil {
		h.metrics.RealtimeSubscriptions.WithLabelValues(s.table).Dec()
	}
}

// Count returns the number of live subscriptions.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Publish delivers c to every matching subscription and returns how many
// received it.
func (h *Hub) Publish(c Change) int {
	if !c.Type.Valid() {
		logging.Warn("Dropping change with unknown type", "table", c.Table, "type", c.Type)
		return 0
	}

	if h.metrics != nil {
		h.metrics.RealtimeEventsPublished.WithLabelValues(c.Table, string(c.Type)).Inc()
	}

	// Filters are checked against the new row, or the old one for deletes.
	image := c.New
	if c.Type == constants.ChangeDelete {
		image = c.Old
	}

	var (
		row     map[string]interface{}
		decoded bool
	)

	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for _, sub := range h.subs {
		if sub.table != c.Table {
			continue
		}
		if len(sub.filter) > 0 || len(sub.except) > 0 {
			if !decoded {
				decoded = true
				if err := json.Unmarshal(image, &row); err != nil {
					logging.Warn("Cannot decode change record for filtering", "table", c.Table, "error", err)
				}
			}
			if !filterMatches(sub.filter, row) || excluded(sub.except, row) {
				continue
			}
		}

		select {
		case sub.ch <- c:
			delivered++
		default:
			if h.metrics != nil {
				h.metrics.RealtimeEventsDropped.WithLabelValues(c.Table).Inc()
			}
			logging.Warn("Realtime subscriber buffer full, dropping change", "table", c.Table, "subscription", sub.id)
		}
	}
	return delivered
}

func filterMatches(filter map[string]string, row map[string]interface{}) bool {
	if row == nil {
		return false
	}
	for col, want := range filter {
		got, ok := row[col]
		if !ok || got == nil {
			return false
		}
		if fmt.Sprint(got) != want {
			return false
		}
	}
	return true
}

func excluded(except map[string]string, row map[string]interface{}) bool {
	if len(except) == 0 {
		return false
	}
	if row == nil {
		return true
	}
	for col, hidden := range except {
		if got, ok := row[col]; ok && got != nil && fmt.Sprint(got) == hidden {
			return true
		}
	}
	return false
}
