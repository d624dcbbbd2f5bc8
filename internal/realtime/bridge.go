// Package realtime keeps client state in step with row changes pushed over
// the server's realtime websocket. Delivery is at-most-once and in arrival
// order per subscription; nothing is replayed after a disconnect, so callers
// that need a consistent view refetch through the gateway.
package realtime

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"
	"time"

	"infinite-experiment/hangar/internal/client"
	"infinite-experiment/hangar/internal/models/dtos"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Conn is one multiplexed realtime connection.
type Conn interface {
	Send(ctx context.Context, msg dtos.RealtimeMessage) error
	Receive(ctx context.Context) (dtos.RealtimeMessage, error)
	Close() error
}

var (
	ErrBridgeClosed = errors.New("realtime bridge is closed")
	ErrJoinTimeout  = errors.New("timed out waiting for the join reply")
)

const (
	defaultJoinTimeout = 10 * time.Second
	leaveTimeout       = 2 * time.Second
	subscriptionBuffer = 256
)

type Bridge struct {
	conn        Conn
	log         *zap.SugaredLogger
	joinTimeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu      sync.Mutex
	subs    map[string]*Subscription
	pending map[string]chan dtos.RealtimeMessage
	err     error

	closeOnce sync.Once
}

// Connect dials the server described by c and starts a bridge on it.
func Connect(ctx context.Context, c *client.Client) (*Bridge, error) {
	conn, err := Dial(ctx, c)
	if err != nil {
		return nil, err
	}
	return NewBridge(conn, c.Logger()), nil
}

// NewBridge starts reading from conn. log may be nil.
func NewBridge(conn Conn, log *zap.SugaredLogger) *Bridge {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	ctx, cancel := context.WithCancel(context.Background())
	b := &Bridge{
		conn:        conn,
		log:         log.Named("realtime"),
		joinTimeout: defaultJoinTimeout,
		ctx:         ctx,
		cancel:      cancel,
		done:        make(chan struct{}),
		subs:        make(map[string]*Subscription),
		pending:     make(map[string]chan dtos.RealtimeMessage),
	}
	go b.readLoop()
	return b
}

// Done is closed when the connection ends. Changes made while disconnected
// are never delivered.
func (b *Bridge) Done() <-chan struct{} { return b.done }

// Err reports why the connection ended.
func (b *Bridge) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

// Active is the number of open subscriptions.
func (b *Bridge) Active() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close ends the connection. Open subscriptions stop receiving; their Close
// is still safe to call.
func (b *Bridge) Close() error {
	var err error
	b.closeOnce.Do(func() {
		b.cancel()
		err = b.conn.Close()
		<-b.done
	})
	return err
}

func (b *Bridge) readLoop() {
	defer close(b.done)

	for {
		msg, err := b.conn.Receive(b.ctx)
		if err != nil {
			if b.ctx.Err() == nil {
				b.log.Warnw("Realtime connection lost", "error", err)
			}
			b.mu.Lock()
			b.err = err
			b.mu.Unlock()
			return
		}
		b.route(msg)
	}
}

func (b *Bridge) route(msg dtos.RealtimeMessage) {
	b.mu.Lock()
	reply, waiting := b.pending[msg.Topic]
	sub := b.subs[msg.Topic]
	b.mu.Unlock()

	switch msg.Type {
	case dtos.RealtimeJoined:
		if waiting {
			deliverReply(reply, msg)
		}
	case dtos.RealtimeError:
		if waiting {
			deliverReply(reply, msg)
			return
		}
		b.log.Warnw("Realtime error", "topic", msg.Topic, "error", msg.Error)
	case dtos.RealtimeChange:
		if sub == nil {
			return
		}
		sub.enqueue(msg.Payload)
	case dtos.RealtimeLeft, dtos.RealtimeClosing:
	default:
		b.log.Debugw("Ignoring realtime frame", "type", msg.Type, "topic", msg.Topic)
	}
}

// deliverReply never blocks the reader on a duplicate reply.
func deliverReply(ch chan dtos.RealtimeMessage, msg dtos.RealtimeMessage) {
	select {
	case ch <- msg:
	default:
	}
}

func (b *Bridge) closed() bool {
	select {
	case <-b.done:
		return true
	default:
		return false
	}
}

// join registers sub before sending so no change after the reply is lost.
func (b *Bridge) join(ctx context.Context, sub *Subscription, filter map[string]string) error {
	if b.closed() {
		return ErrBridgeClosed
	}

	reply := make(chan dtos.RealtimeMessage, 1)
	b.mu.Lock()
	b.subs[sub.topic] = sub
	b.pending[sub.topic] = reply
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		delete(b.pending, sub.topic)
		b.mu.Unlock()
	}()

	err := b.conn.Send(ctx, dtos.RealtimeMessage{
		Type:   dtos.RealtimeJoin,
		Topic:  sub.topic,
		Table:  sub.table,
		Filter: maps.Clone(filter),
	})
	if err != nil {
		b.release(sub.topic)
		return fmt.Errorf("failed to send join: %w", err)
	}

	timer := time.NewTimer(b.joinTimeout)
	defer timer.Stop()

	select {
	case msg := <-reply:
		if msg.Type == dtos.RealtimeError {
			b.release(sub.topic)
			return fmt.Errorf("join rejected: %s", msg.Error)
		}
		return nil
	case <-timer.C:
		b.release(sub.topic)
		b.sendLeave(sub.topic)
		return ErrJoinTimeout
	case <-ctx.Done():
		b.release(sub.topic)
		b.sendLeave(sub.topic)
		return ctx.Err()
	case <-b.done:
		b.release(sub.topic)
		return ErrBridgeClosed
	}
}

func (b *Bridge) release(topic string) {
	b.mu.Lock()
	delete(b.subs, topic)
	b.mu.Unlock()
}

func (b *Bridge) sendLeave(topic string) {
	if b.closed() {
		return
	}
	ctx, cancel := context.WithTimeout(b.ctx, leaveTimeout)
	defer cancel()
	if err := b.conn.Send(ctx, dtos.RealtimeMessage{Type: dtos.RealtimeLeave, Topic: topic}); err != nil {
		b.log.Warnw("Failed to send leave", "topic", topic, "error", err)
	}
}

// Subscription is one joined channel. Close must be called on every exit
// path; it is idempotent.
type Subscription struct {
	b       *Bridge
	topic   string
	table   string
	deliver func(*dtos.ChangePayload)

	events chan *dtos.ChangePayload
	stop   chan struct{}
	done   chan struct{}
	once   sync.Once
}

func (s *Subscription) Topic() string { return s.topic }
func (s *Subscription) Table() string { return s.table }

func (s *Subscription) enqueue(p *dtos.ChangePayload) {
	select {
	case s.events <- p:
	case <-s.stop:
	default:
		s.b.log.Warnw("Subscriber is behind, dropping change", "topic", s.topic)
	}
}

// run is the single delivery goroutine, which keeps callbacks in arrival order.
func (s *Subscription) run() {
	defer close(s.done)
	for {
		select {
		case <-s.stop:
			return
		case p := <-s.events:
			s.deliver(p)
		}
	}
}

// Close leaves the channel and waits for an in-flight callback to return, so
// it must not be called from this subscription's own handler.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.b.release(s.topic)
		s.b.sendLeave(s.topic)
		close(s.stop)
		<-s.done
	})
}

// Subscribe joins a new uniquely named channel for table, filtered by
// equality on filter, and delivers decoded changes to h. Undecodable changes
// are logged and dropped.
func Subscribe[T any](ctx context.Context, b *Bridge, table string, filter map[string]string, h Handler[T]) (*Subscription, error) {
	topic := fmt.Sprintf("realtime:%s:%s", table, uuid.NewString())
	log := b.log.With("table", table, "topic", topic)

	sub := &Subscription{
		b:      b,
		topic:  topic,
		table:  table,
		events: make(chan *dtos.ChangePayload, subscriptionBuffer),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	sub.deliver = func(p *dtos.ChangePayload) {
		c, err := Decode[T](p)
		if err != nil {
			log.Warnw("Dropping realtime change", "error", err)
			return
		}
		Dispatch(h, c)
	}

	if err := b.join(ctx, sub, filter); err != nil {
		log.Errorw("Realtime subscribe failed", "error", err)
		return nil, err
	}

	go sub.run()
	return sub, nil
}
