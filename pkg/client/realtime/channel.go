// Package realtime maintains the client's single live push connection and
// dispatches server events to subscribers.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/custconnect/custconnect-backend/pkg/client"
	"github.com/custconnect/custconnect-backend/pkg/logger"
)

// Event names the backend pushes.
const (
	EventNotification   = "notification"
	EventNewMessage     = "new-message"
	EventPresenceUpdate = "presence-update"
	EventNewStory       = "new-story"

	eventJoinRoom = "join-room"
)

// Status is the channel's connection state.
type Status string

const (
	StatusIdle       Status = "IDLE"
	StatusConnecting Status = "CONNECTING"
	StatusOpen       Status = "OPEN"
	StatusClosed     Status = "CLOSED"
)

// Handler receives the raw data payload of one event.
type Handler func(data json.RawMessage)

type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Channel holds at most one websocket at a time. It joins the user's room
// exactly once per connection, reconnects with exponential backoff up to
// maxReconnectAttempts, and after that stays closed until Open is called
// again on the next session transition.
type Channel struct {
	wsURL   string
	tokens  client.TokenStore
	log     *logger.Logger
	dialer  *websocket.Dialer
	backoff time.Duration

	mu       sync.Mutex
	status   Status
	userID   string
	ws       *websocket.Conn
	handlers map[string][]Handler
	events   chan frame
	done     chan struct{}
	gen      int
}

const (
	maxReconnectAttempts = 5
	defaultBackoff       = time.Second
	dispatchBuffer       = 64
)

// ChannelParams configures NewChannel.
type ChannelParams struct {
	// BaseURL is the backend origin (http or https); the websocket scheme is
	// derived from it.
	BaseURL string
	Tokens  client.TokenStore
	Logger  *logger.Logger

	// Backoff overrides the first reconnect delay. Tests shrink it.
	Backoff time.Duration
}

func NewChannel(params ChannelParams) (*Channel, error) {
	if params.BaseURL == "" {
		return nil, errors.New("realtime: BaseURL is required")
	}
	if params.Tokens == nil {
		return nil, errors.New("realtime: Tokens is required")
	}
	if params.Logger == nil {
		return nil, errors.New("realtime: Logger is required")
	}

	wsURL, err := websocketURL(params.BaseURL)
	if err != nil {
		return nil, err
	}
	backoff := params.Backoff
	if backoff <= 0 {
		backoff = defaultBackoff
	}
	return &Channel{
		wsURL:    wsURL,
		tokens:   params.Tokens,
		log:      params.Logger,
		dialer:   &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
		backoff:  backoff,
		status:   StatusIdle,
		handlers: make(map[string][]Handler),
	}, nil
}

func websocketURL(base string) (string, error) {
	parsed, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return "", err
	}
	switch parsed.Scheme {
	case "https":
		parsed.Scheme = "wss"
	case "http", "":
		parsed.Scheme = "ws"
	}
	parsed.Path = strings.TrimRight(parsed.Path, "/") + "/api/v1/ws"
	return parsed.String(), nil
}

// On registers a handler for one event name. Handlers for the same event run
// in the order frames arrived; ordering across event names is unspecified.
// All handlers run on the single dispatch goroutine, so they must not block.
func (c *Channel) On(event string, fn Handler) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[event] = append(c.handlers[event], fn)
}

// Status reports the connection state.
func (c *Channel) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Open connects for the given user id. The join-room frame is sent once per
// established connection, after the dial succeeds. A channel that already
// has a live socket for the same user is left alone; a different user id
// replaces the old connection.
func (c *Channel) Open(ctx context.Context, userID string) error {
	if userID == "" {
		return errors.New("realtime: user id is required")
	}

	c.mu.Lock()
	if c.status == StatusOpen && c.userID == userID {
		c.mu.Unlock()
		return nil
	}
	c.teardownLocked()
	c.userID = userID
	c.status = StatusConnecting
	c.gen++
	gen := c.gen
	done := make(chan struct{})
	events := make(chan frame, dispatchBuffer)
	c.done = done
	c.events = events
	c.mu.Unlock()

	go c.dispatch(events, done)

	if err := c.connect(ctx, gen); err != nil {
		c.mu.Lock()
		if c.gen == gen {
			c.teardownLocked()
		}
		c.mu.Unlock()
		return err
	}
	return nil
}

// Close tears the connection down. No automatic reconnect fires afterwards.
func (c *Channel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.teardownLocked()
}

// caller holds c.mu
func (c *Channel) teardownLocked() {
	if c.ws != nil {
		_ = c.ws.Close()
		c.ws = nil
	}
	if c.done != nil {
		close(c.done)
		c.done = nil
	}
	c.events = nil
	c.status = StatusClosed
	c.gen++
}

// connect dials and, on success, sends the deferred join-room frame exactly
// once for this connection before the read loop starts.
func (c *Channel) connect(ctx context.Context, gen int) error {
	target := c.wsURL
	if token := c.tokens.Token(); token != "" {
		target += "?token=" + url.QueryEscape(token)
	}

	ws, _, err := c.dialer.DialContext(ctx, target, http.Header{})
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		_ = ws.Close()
		return errors.New("realtime: connection superseded")
	}
	userID := c.userID
	c.ws = ws
	c.status = StatusOpen
	done := c.done
	events := c.events
	c.mu.Unlock()

	join, _ := json.Marshal(frame{Event: eventJoinRoom, Data: mustJSON(userID)})
	if err := ws.WriteMessage(websocket.TextMessage, join); err != nil {
		_ = ws.Close()
		return err
	}

	go c.readLoop(ws, gen, events, done)
	return nil
}

func (c *Channel) readLoop(ws *websocket.Conn, gen int, events chan frame, done chan struct{}) {
	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			c.onDisconnect(gen)
			return
		}
		var f frame
		if err := json.Unmarshal(raw, &f); err != nil || f.Event == "" {
			continue
		}
		select {
		case events <- f:
		case <-done:
			return
		}
	}
}

// onDisconnect runs the reconnect loop: up to maxReconnectAttempts dials
// with exponentially increasing delay. Exhausting them leaves the channel
// closed; only the next Open re-establishes it.
func (c *Channel) onDisconnect(gen int) {
	c.mu.Lock()
	if c.gen != gen {
		c.mu.Unlock()
		return
	}
	c.ws = nil
	c.status = StatusConnecting
	c.mu.Unlock()

	delay := c.backoff
	for attempt := 1; attempt <= maxReconnectAttempts; attempt++ {
		time.Sleep(delay)
		delay *= 2

		c.mu.Lock()
		superseded := c.gen != gen
		c.mu.Unlock()
		if superseded {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := c.connect(ctx, gen)
		cancel()
		if err == nil {
			return
		}
		c.log.Warn(c.log.WithFields(context.Background(), map[string]any{
			"attempt": attempt,
			"error":   err.Error(),
		}), "realtime.reconnect_failed")
	}

	c.mu.Lock()
	if c.gen == gen {
		c.teardownLocked()
	}
	c.mu.Unlock()
}

// dispatch is the single goroutine that invokes handlers, giving FIFO
// delivery per event name.
func (c *Channel) dispatch(events chan frame, done chan struct{}) {
	for {
		select {
		case f := <-events:
			c.mu.Lock()
			handlers := append([]Handler(nil), c.handlers[f.Event]...)
			c.mu.Unlock()
			for _, fn := range handlers {
				fn(f.Data)
			}
		case <-done:
			return
		}
	}
}

func mustJSON(v any) json.RawMessage {
	raw, _ := json.Marshal(v)
	return raw
}
