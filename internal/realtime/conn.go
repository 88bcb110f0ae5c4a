package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type conn struct {
	hub     *Hub
	ws      *websocket.Conn
	send    chan []byte
	authID  string
	userID  string // set once the join-room frame is accepted
	closing sync.Once

	mu     sync.Mutex
	closed bool
}

// ServeWS upgrades the request and runs the connection until either side
// closes it. authID is the user id from the verified access token; the
// connection only delivers events once the client sends a join-room frame
// for that same id.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, authID string) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn(h.log.WithField(r.Context(), "error", err.Error()), "realtime: upgrade failed")
		return
	}

	c := &conn{
		hub:    h,
		ws:     ws,
		send:   make(chan []byte, h.cfg.SendBufferSize),
		authID: authID,
	}
	h.metrics.ConnOpened()

	go c.writePump()
	c.readPump()
}

func (c *conn) close() {
	c.closing.Do(func() {
		c.mu.Lock()
		c.closed = true
		close(c.send)
		c.mu.Unlock()
	})
}

// trySend queues a frame without blocking. It reports false when the buffer
// is full or the connection is already closing.
func (c *conn) trySend(frame []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

func (c *conn) readPump() {
	h := c.hub
	defer func() {
		h.leave(context.Background(), c)
		c.close()
		c.ws.Close()
		h.metrics.ConnClosed()
	}()

	c.ws.SetReadLimit(h.cfg.ReadLimitBytes)
	_ = c.ws.SetReadDeadline(time.Now().Add(h.cfg.PongTimeout))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(h.cfg.PongTimeout))
	})

	for {
		_, payload, err := c.ws.ReadMessage()
		if err != nil {
			return
		}

		var frame Frame
		if err := json.Unmarshal(payload, &frame); err != nil {
			continue
		}
		if frame.Event != EventJoinRoom || c.userID != "" {
			continue
		}

		var target string
		if err := json.Unmarshal(frame.Data, &target); err != nil {
			continue
		}
		if target != c.authID {
			ctx := h.log.WithFields(context.Background(), map[string]any{
				"authenticated": c.authID,
				"requested":     target,
			})
			h.log.Warn(ctx, "realtime: join-room for foreign user refused")
			continue
		}

		c.userID = target
		h.join(context.Background(), c)
	}
}

func (c *conn) writePump() {
	h := c.hub
	ticker := time.NewTicker(h.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if !ok {
				_ = c.ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(h.cfg.WriteTimeout))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
