package realtime

import (
	"context"
	"maps"
	"reflect"
	"sync"
)

// Watch keeps one live subscription for a table and swaps it whenever the
// filter changes. The old channel is left before the new one is joined.
type Watch[T any] struct {
	b     *Bridge
	table string
	h     Handler[T]

	mu     sync.Mutex
	filter map[string]string
	sub    *Subscription
	closed bool
}

func NewWatch[T any](b *Bridge, table string, h Handler[T]) *Watch[T] {
	return &Watch[T]{b: b, table: table, h: h}
}

// SetFilter subscribes with a copy of filter. Re-applying an equal filter is
// a no-op once subscribed.
func (w *Watch[T]) SetFilter(ctx context.Context, filter map[string]string) error {
	if len(filter) == 0 {
		filter = nil
	}
	filter = maps.Clone(filter)

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrBridgeClosed
	}
	if w.sub != nil && reflect.DeepEqual(w.filter, filter) {
		return nil
	}

	if w.sub != nil {
		w.sub.Close()
		w.sub = nil
	}

	sub, err := Subscribe(ctx, w.b, w.table, filter, w.h)
	if err != nil {
		return err
	}
	w.sub = sub
	w.filter = filter
	return nil
}

// Topic of the current subscription, empty when none is open.
func (w *Watch[T]) Topic() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.sub == nil {
		return ""
	}
	return w.sub.Topic()
}

func (w *Watch[T]) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	if w.sub != nil {
		w.sub.Close()
		w.sub = nil
	}
}
