package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"infinite-experiment/hangar/internal/auth"
	"infinite-experiment/hangar/internal/changefeed"
	"infinite-experiment/hangar/internal/client"
	"infinite-experiment/hangar/internal/constants"
	"infinite-experiment/hangar/internal/models/dtos"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flightRow struct {
	ID      string `json:"id"`
	PilotID string `json:"pilot_id"`
}

// fakeServer implements Conn and plays the server side of the protocol.
type fakeServer struct {
	mu      sync.Mutex
	sent    []dtos.RealtimeMessage
	replies chan dtos.RealtimeMessage
	silent  bool
	reject  bool
	closed  chan struct{}
	once    sync.Once
}

func newFakeServer() *fakeServer {
	return &fakeServer{
		replies: make(chan dtos.RealtimeMessage, 64),
		closed:  make(chan struct{}),
	}
}

func (f *fakeServer) Send(ctx context.Context, msg dtos.RealtimeMessage) error {
	f.mu.Lock()
	f.sent = append(f.sent, msg)
	silent, reject := f.silent, f.reject
	f.mu.Unlock()

	switch msg.Type {
	case dtos.RealtimeJoin:
		if silent {
			return nil
		}
		if reject {
			f.replies <- dtos.RealtimeMessage{Type: dtos.RealtimeError, Topic: msg.Topic, Error: "unknown table"}
			return nil
		}
		f.replies <- dtos.RealtimeMessage{Type: dtos.RealtimeJoined, Topic: msg.Topic, Table: msg.Table}
	case dtos.RealtimeLeave:
		f.replies <- dtos.RealtimeMessage{Type: dtos.RealtimeLeft, Topic: msg.Topic}
	}
	return nil
}

func (f *fakeServer) Receive(ctx context.Context) (dtos.RealtimeMessage, error) {
	select {
	case msg := <-f.replies:
		return msg, nil
	case <-f.closed:
		return dtos.RealtimeMessage{}, errors.New("connection closed")
	case <-ctx.Done():
		return dtos.RealtimeMessage{}, ctx.Err()
	}
}

func (f *fakeServer) Close() error {
	f.once.Do(func() { close(f.closed) })
	return nil
}

func (f *fakeServer) push(topic string, p *dtos.ChangePayload) {
	f.replies <- dtos.RealtimeMessage{Type: dtos.RealtimeChange, Topic: topic, Payload: p}
}

func (f *fakeServer) count(typ string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, m := range f.sent {
		if m.Type == typ {
			n++
		}
	}
	return n
}

func (f *fakeServer) joins() []dtos.RealtimeMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []dtos.RealtimeMessage
	for _, m := range f.sent {
		if m.Type == dtos.RealtimeJoin {
			out = append(out, m)
		}
	}
	return out
}

func raw(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestDecode(t *testing.T) {
	row := flightRow{ID: "f1", PilotID: "p1"}

	c, err := Decode[flightRow](&dtos.ChangePayload{EventType: constants.ChangeInsert, Table: "flights", New: raw(t, row)})
	require.NoError(t, err)
	ins, ok := c.(Insert[flightRow])
	require.True(t, ok)
	assert.Equal(t, row, ins.New)
	assert.Equal(t, "flights", ins.Table)

	c, err = Decode[flightRow](&dtos.ChangePayload{EventType: constants.ChangeUpdate, New: raw(t, row)})
	require.NoError(t, err)
	upd := c.(Update[flightRow])
	assert.Nil(t, upd.Old)

	c, err = Decode[flightRow](&dtos.ChangePayload{EventType: constants.ChangeDelete, Old: raw(t, row)})
	require.NoError(t, err)
	assert.Equal(t, constants.ChangeDelete, c.Kind())

	_, err = Decode[flightRow](&dtos.ChangePayload{New: raw(t, row)})
	assert.ErrorIs(t, err, ErrUnknownEvent)

	_, err = Decode[flightRow](&dtos.ChangePayload{EventType: constants.ChangeDelete})
	assert.ErrorIs(t, err, ErrMissingRecord)

	_, err = Decode[flightRow](nil)
	assert.ErrorIs(t, err, ErrMissingPayload)
}

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, s)
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func (r *recorder) handler() HandlerFuncs[flightRow] {
	return HandlerFuncs[flightRow]{
		Insert: func(c Insert[flightRow]) { r.add("insert:" + c.New.ID) },
		Update: func(c Update[flightRow]) { r.add("update:" + c.New.ID) },
		Delete: func(c Delete[flightRow]) { r.add("delete:" + c.Old.ID) },
	}
}

func TestSubscribe_DeliversInOrderAndSkipsUndecodable(t *testing.T) {
	srv := newFakeServer()
	b := NewBridge(srv, nil)
	defer b.Close()

	rec := &recorder{}
	sub, err := Subscribe[flightRow](context.Background(), b, "flights", nil, rec.handler())
	require.NoError(t, err)
	defer sub.Close()

	assert.Regexp(t, `^realtime:flights:[0-9a-f-]{36}$`, sub.Topic())

	srv.push(sub.Topic(), &dtos.ChangePayload{EventType: constants.ChangeInsert, New: raw(t, flightRow{ID: "1"})})
	srv.push(sub.Topic(), &dtos.ChangePayload{New: raw(t, flightRow{ID: "no-type"})})
	srv.push(sub.Topic(), &dtos.ChangePayload{EventType: constants.ChangeUpdate, New: raw(t, flightRow{ID: "1"})})
	srv.push(sub.Topic(), &dtos.ChangePayload{EventType: constants.ChangeDelete, Old: raw(t, flightRow{ID: "1"})})
	srv.push("realtime:flights:someone-else", &dtos.ChangePayload{EventType: constants.ChangeInsert, New: raw(t, flightRow{ID: "x"})})

	require.Eventually(t, func() bool { return len(rec.snapshot()) == 3 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"insert:1", "update:1", "delete:1"}, rec.snapshot())
}

func TestSubscription_CloseLeavesOnce(t *testing.T) {
	srv := newFakeServer()
	b := NewBridge(srv, nil)
	defer b.Close()

	sub, err := Subscribe[flightRow](context.Background(), b, "flights", nil, HandlerFuncs[flightRow]{})
	require.NoError(t, err)
	assert.Equal(t, 1, b.Active())

	sub.Close()
	sub.Close()

	assert.Equal(t, 1, srv.count(dtos.RealtimeLeave))
	assert.Equal(t, 0, b.Active())
}

func TestSubscribe_RejectedJoin(t *testing.T) {
	srv := newFakeServer()
	srv.reject = true
	b := NewBridge(srv, nil)
	defer b.Close()

	_, err := Subscribe[flightRow](context.Background(), b, "secrets", nil, HandlerFuncs[flightRow]{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown table")
	assert.Equal(t, 0, b.Active())
}

func TestSubscribe_JoinTimeoutSendsLeave(t *testing.T) {
	srv := newFakeServer()
	srv.silent = true
	b := NewBridge(srv, nil)
	b.joinTimeout = 20 * time.Millisecond
	defer b.Close()

	_, err := Subscribe[flightRow](context.Background(), b, "flights", nil, HandlerFuncs[flightRow]{})
	assert.ErrorIs(t, err, ErrJoinTimeout)
	assert.Equal(t, 1, srv.count(dtos.RealtimeLeave))
	assert.Equal(t, 0, b.Active())
}

func TestSubscribe_AfterBridgeClosed(t *testing.T) {
	srv := newFakeServer()
	b := NewBridge(srv, nil)
	require.NoError(t, b.Close())

	_, err := Subscribe[flightRow](context.Background(), b, "flights", nil, HandlerFuncs[flightRow]{})
	assert.ErrorIs(t, err, ErrBridgeClosed)
}

func TestWatch_FilterChangesResubscribe(t *testing.T) {
	srv := newFakeServer()
	b := NewBridge(srv, nil)
	defer b.Close()

	w := NewWatch[flightRow](b, "flights", HandlerFuncs[flightRow]{})
	ctx := context.Background()

	require.NoError(t, w.SetFilter(ctx, map[string]string{"pilot_id": "p1"}))
	first := w.Topic()
	require.NoError(t, w.SetFilter(ctx, map[string]string{"pilot_id": "p1"}))
	assert.Equal(t, first, w.Topic())
	assert.Equal(t, 1, len(srv.joins()))

	require.NoError(t, w.SetFilter(ctx, map[string]string{"pilot_id": "p2"}))
	assert.NotEqual(t, first, w.Topic())
	assert.Equal(t, 1, srv.count(dtos.RealtimeLeave))

	require.NoError(t, w.SetFilter(ctx, map[string]string{}))
	require.NoError(t, w.SetFilter(ctx, nil))
	joins := srv.joins()
	require.Len(t, joins, 3)
	assert.Nil(t, joins[2].Filter)

	w.Close()
	w.Close()
	assert.Equal(t, 3, srv.count(dtos.RealtimeLeave))
	assert.Equal(t, 0, b.Active())
}

func TestWatch_InPlaceFilterEditResubscribes(t *testing.T) {
	srv := newFakeServer()
	b := NewBridge(srv, nil)
	defer b.Close()

	w := NewWatch[flightRow](b, "flights", HandlerFuncs[flightRow]{})
	defer w.Close()
	ctx := context.Background()

	filter := map[string]string{"pilot_id": "p1"}
	require.NoError(t, w.SetFilter(ctx, filter))
	filter["pilot_id"] = "p2"
	require.NoError(t, w.SetFilter(ctx, filter))

	joins := srv.joins()
	require.Len(t, joins, 2)
	assert.Equal(t, "p1", joins[0].Filter["pilot_id"])
	assert.Equal(t, "p2", joins[1].Filter["pilot_id"])
	assert.Equal(t, 1, srv.count(dtos.RealtimeLeave))
}

var pilotViewer = changefeed.ViewerResolverFunc(func(context.Context, auth.UserClaims) (changefeed.Viewer, error) {
	return changefeed.Viewer{PilotID: "p1"}, nil
})

func TestBridge_AgainstChangefeed(t *testing.T) {
	const secret = "rt-secret"
	hub := changefeed.NewHub(16, nil)
	srv := httptest.NewServer(changefeed.NewWSHandler(hub, auth.NewAuthenticator(secret, "anon", "svc"), pilotViewer))
	defer srv.Close()

	token, err := auth.IssueToken(secret, "user-1", "", time.Hour)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	b, err := Connect(ctx, client.New(srv.URL, "anon", client.WithAccessToken(token)))
	require.NoError(t, err)
	defer b.Close()

	got := make(chan flightRow, 4)
	sub, err := Subscribe[flightRow](ctx, b, "flights", map[string]string{"pilot_id": "p1"}, HandlerFuncs[flightRow]{
		Insert: func(c Insert[flightRow]) { got <- c.New },
	})
	require.NoError(t, err)
	require.Eventually(t, func() bool { return hub.Count() == 1 }, 2*time.Second, 10*time.Millisecond)

	for _, r := range []flightRow{{ID: "skip", PilotID: "p2"}, {ID: "keep", PilotID: "p1"}} {
		c, err := changefeed.NewChange(constants.TableFlights, constants.ChangeInsert, r, nil)
		require.NoError(t, err)
		hub.Publish(c)
	}

	select {
	case row := <-got:
		assert.Equal(t, "keep", row.ID)
	case <-ctx.Done():
		t.Fatal("no change delivered")
	}

	sub.Close()
	assert.Eventually(t, func() bool { return hub.Count() == 0 }, 2*time.Second, 10*time.Millisecond)
}
