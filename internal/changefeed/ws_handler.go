package changefeed

import (
	"context"
	"errors"
	"maps"
	"net/http"
	"sync"
	"time"

	"infinite-experiment/hangar/internal/auth"
	"infinite-experiment/hangar/internal/common"
	"infinite-experiment/hangar/internal/constants"
	"infinite-experiment/hangar/internal/logging"
	"infinite-experiment/hangar/internal/models/dtos"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.uber.org/zap"
)

// RequestAuthenticator checks the apikey / access token pair.
type RequestAuthenticator interface {
	Authenticate(apiKey, bearer string) (auth.UserClaims, error)
}

// Viewer is what one connection may read. A privileged viewer sees every
// row; anyone else sees visible pilots and only their own safety reports.
type Viewer struct {
	PilotID    string
	Privileged bool
}

// ViewerResolver maps authenticated claims to a Viewer.
type ViewerResolver interface {
	ResolveViewer(ctx context.Context, claims auth.UserClaims) (Viewer, error)
}

type ViewerResolverFunc func(ctx context.Context, claims auth.UserClaims) (Viewer, error)

func (f ViewerResolverFunc) ResolveViewer(ctx context.Context, claims auth.UserClaims) (Viewer, error) {
	return f(ctx, claims)
}

var errNotPermitted = errors.New("not permitted")

// scope narrows a join to the rows v may read.
func scope(v Viewer, table string, filter map[string]string) (map[string]string, map[string]string, error) {
	if v.Privileged {
		return filter, nil, nil
	}

	switch constants.Table(table) {
	case constants.TableSafetyReport:
		if v.PilotID == "" {
			return nil, nil, errNotPermitted
		}
		if want, ok := filter["reporter_id"]; ok && want != v.PilotID {
			return nil, nil, errNotPermitted
		}
		scoped := maps.Clone(filter)
		if scoped == nil {
			scoped = make(map[string]string, 1)
		}
		scoped["reporter_id"] = v.PilotID
		return scoped, nil, nil
	case constants.TablePilots:
		return filter, map[string]string{"is_hidden": "true"}, nil
	}
	return filter, nil, nil
}

// WSHandler serves the realtime websocket. One connection multiplexes any
// number of topics; each joined topic owns one hub subscription.
type WSHandler struct {
	hub          *Hub
	auth         RequestAuthenticator
	viewers      ViewerResolver
	writeTimeout time.Duration
}

func NewWSHandler(hub *Hub, authenticator RequestAuthenticator, viewers ViewerResolver) *WSHandler {
	return &WSHandler{
		hub:          hub,
		auth:         authenticator,
		viewers:      viewers,
		writeTimeout: 5 * time.Second,
	}
}

func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	apiKey := q.Get("apikey")
	if apiKey == "" {
		apiKey = r.Header.Get(constants.HeaderAPIKey)
	}
	token := q.Get("access_token")
	if token == "" {
		token = common.BearerToken(r)
	}

	claims, err := h.auth.Authenticate(apiKey, token)
	if err != nil {
		common.RespondError(w, constants.GetErrorMessage(constants.ErrCodeUnauthenticated), http.StatusUnauthorized)
		return
	}

	viewer, err := h.viewers.ResolveViewer(r.Context(), claims)
	if err != nil {
		logging.Error("Failed to resolve realtime viewer", "user", claims.UserID(), "error", err)
		common.RespondError(w, constants.GetErrorMessage(constants.ErrCodeInternal), http.StatusInternalServerError)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: []string{"*"}})
	if err != nil {
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	s := &wsSession{
		h:      h,
		viewer: viewer,
		conn:   conn,
		ctx:    ctx,
		topics: make(map[string]*Subscription),
		log:    logging.WithRequest(auth.GetRequestID(r.Context()), claims.UserID(), "realtime"),
	}
	defer s.closeAll()

	s.readLoop()
}

type wsSession struct {
	h      *WSHandler
	viewer Viewer
	conn   *websocket.Conn
	ctx    context.Context
	log    *zap.SugaredLogger

	mu     sync.Mutex
	topics map[string]*Subscription
	wg     sync.WaitGroup
}

func (s *wsSession) readLoop() {
	for {
		var msg dtos.RealtimeMessage
		if err := wsjson.Read(s.ctx, s.conn, &msg); err != nil {
			status := websocket.CloseStatus(err)
			if status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway && !errors.Is(err, context.Canceled) {
				s.log.Warnw("Realtime read failed", "error", err)
			}
			_ = s.conn.Close(websocket.StatusNormalClosure, "closed")
			return
		}

		switch msg.Type {
		case dtos.RealtimeJoin:
			s.join(msg)
		case dtos.RealtimeLeave:
			s.leave(msg.Topic)
		default:
			s.write(dtos.RealtimeMessage{Type: dtos.RealtimeError, Topic: msg.Topic, Error: "unknown message type"})
		}
	}
}

func (s *wsSession) join(msg dtos.RealtimeMessage) {
	if msg.Topic == "" || !constants.KnownTables[msg.Table] {
		s.write(dtos.RealtimeMessage{Type: dtos.RealtimeError, Topic: msg.Topic, Error: "unknown table"})
		return
	}

	filter, except, err := scope(s.viewer, msg.Table, msg.Filter)
	if err != nil {
		s.log.Infow("Realtime join refused", "table", msg.Table, "filter", msg.Filter)
		s.write(dtos.RealtimeMessage{Type: dtos.RealtimeError, Topic: msg.Topic, Error: err.Error()})
		return
	}

	s.mu.Lock()
	if _, exists := s.topics[msg.Topic]; exists {
		s.mu.Unlock()
		s.write(dtos.RealtimeMessage{Type: dtos.RealtimeError, Topic: msg.Topic, Error: "topic already joined"})
		return
	}
	sub := s.h.hub.SubscribeExcept(msg.Table, filter, except)
	s.topics[msg.Topic] = sub
	s.mu.Unlock()

	s.write(dtos.RealtimeMessage{Type: dtos.RealtimeJoined, Topic: msg.Topic, Table: msg.Table})

	s.wg.Add(1)
	go s.forward(msg.Topic, sub)
}

// forward runs until the subscription is closed.
func (s *wsSession) forward(topic string, sub *Subscription) {
	defer s.wg.Done()

	for c := range sub.C() {
		s.write(dtos.RealtimeMessage{
			Type:  dtos.RealtimeChange,
			Topic: topic,
			Table: c.Table,
			Payload: &dtos.ChangePayload{
				EventType:       c.Type,
				Table:           c.Table,
				New:             c.New,
				Old:             c.Old,
				CommitTimestamp: c.CommitTimestamp,
			},
		})
	}
}

func (s *wsSession) leave(topic string) {
	s.mu.Lock()
	sub, ok := s.topics[topic]
	delete(s.topics, topic)
	s.mu.Unlock()

	if ok {
		sub.Close()
	}
	s.write(dtos.RealtimeMessage{Type: dtos.RealtimeLeft, Topic: topic})
}

func (s *wsSession) closeAll() {
	s.mu.Lock()
	for topic, sub := range s.topics {
		sub.Close()
		delete(s.topics, topic)
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *wsSession) write(msg dtos.RealtimeMessage) {
	ctx, cancel := context.WithTimeout(s.ctx, s.h.writeTimeout)
	defer cancel()

	if err := wsjson.Write(ctx, s.conn, msg); err != nil && s.ctx.Err() == nil {
		s.log.Warnw("Realtime write failed", "topic", msg.Topic, "type", msg.Type, "error", err)
	}
}
