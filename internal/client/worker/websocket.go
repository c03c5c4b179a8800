package worker

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/posmart/internal/client/messages"
	"github.com/gorilla/websocket"
)

const (
	writeWait     = 10 * time.Second
	pageBuffer    = 32
	maxPageMsgLen = 64 << 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// pages are served by this gateway, on the same loopback origin
	CheckOrigin: func(*http.Request) bool { return true },
}

// serveWebSocket attaches a page: bus messages are written to it, and the
// messages it sends are applied with HandleMessage.
func (w *Worker) serveWebSocket(rw http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(rw, r, nil)
	if err != nil {
		w.logger.Warn(r.Context(), "websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	ch, unsubscribe := w.bus.Subscribe(pageBuffer)
	defer unsubscribe()

	w.logger.Debug(ctx, "page connected", "remote", r.RemoteAddr)

	go w.readPump(ctx, cancel, conn)

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			w.logger.Debug(ctx, "page disconnected", "remote", r.RemoteAddr)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				w.logger.Debug(ctx, "page write failed", "error", err)
				return
			}
		}
	}
}

func (w *Worker) readPump(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn) {
	defer cancel()
	conn.SetReadLimit(maxPageMsgLen)

	for {
		var msg messages.Message
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				w.logger.Debug(ctx, "page read failed", "error", err)
			}
			return
		}
		if err := w.HandleMessage(ctx, msg); err != nil {
			w.logger.Warn(ctx, "page message rejected", "type", msg.Type, "error", err)
		}
	}
}
