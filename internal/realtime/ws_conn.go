package realtime

import (
	"context"
	"fmt"

	"infinite-experiment/hangar/internal/client"
	"infinite-experiment/hangar/internal/models/dtos"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

const maxFrameBytes = 1 << 20

type wsConn struct {
	conn *websocket.Conn
}

// Dial opens the realtime websocket using c's key and access token.
func Dial(ctx context.Context, c *client.Client) (Conn, error) {
	url, err := c.RealtimeURL()
	if err != nil {
		return nil, err
	}

	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial realtime: %w", err)
	}
	conn.SetReadLimit(maxFrameBytes)
	return &wsConn{conn: conn}, nil
}

func (w *wsConn) Send(ctx context.Context, msg dtos.RealtimeMessage) error {
	return wsjson.Write(ctx, w.conn, msg)
}

func (w *wsConn) Receive(ctx context.Context) (dtos.RealtimeMessage, error) {
	var msg dtos.RealtimeMessage
	err := wsjson.Read(ctx, w.conn, &msg)
	return msg, err
}

func (w *wsConn) Close() error {
	return w.conn.Close(websocket.StatusNormalClosure, "client closed")
}
