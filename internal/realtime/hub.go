package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/custconnect/custconnect-backend/pkg/config"
	"github.com/custconnect/custconnect-backend/pkg/logger"
	"github.com/custconnect/custconnect-backend/pkg/metrics"
)

// presenceStore is the subset of the redis client the hub needs to keep the
// shared online set current across instances.
type presenceStore interface {
	SAdd(ctx context.Context, key string, members ...any) error
	SRem(ctx context.Context, key string, members ...any) error
	PresenceKey() string
}

// fanout publishes envelopes to the shared pub/sub channel so peer instances
// deliver to connections they own.
type fanout interface {
	Publish(ctx context.Context, channel string, payload any) error
}

// Hub owns every websocket connection on this instance and routes envelopes
// to the rooms clients joined. Each room is keyed by a user id; a connection
// belongs to at most one room.
type Hub struct {
	cfg      config.RealtimeConfig
	log      *logger.Logger
	metrics  *metrics.RealtimeMetrics
	presence presenceStore
	fanout   fanout
	upgrader websocket.Upgrader

	mu    sync.RWMutex
	rooms map[string]map[*conn]struct{}
}

// NewHub wires a hub. presence and fan may be nil, in which case presence
// tracking and cross-instance delivery are skipped (single-instance mode).
func NewHub(cfg config.RealtimeConfig, log *logger.Logger, m *metrics.RealtimeMetrics, presence presenceStore, fan fanout) *Hub {
	h := &Hub{
		cfg:      cfg,
		log:      log,
		metrics:  m,
		presence: presence,
		rooms:    make(map[string]map[*conn]struct{}),
	}
	if !cfg.DisableFanout {
		h.fanout = fan
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	if len(h.cfg.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range h.cfg.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// Publish delivers an event to every connection joined as userID. When a
// fan-out channel is configured the envelope goes through redis so peer
// instances see it too; local delivery happens via the subscriber loop in
// that case, keeping ordering identical on every path.
func (h *Hub) Publish(ctx context.Context, userID, event string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	env := Envelope{UserID: userID, Event: event, Data: raw}
	if h.fanout != nil {
		payload, err := json.Marshal(env)
		if err != nil {
			return err
		}
		return h.fanout.Publish(ctx, h.cfg.PubSubChannel, payload)
	}
	h.deliver(env)
	return nil
}

// Broadcast delivers an event to every joined connection on every instance.
func (h *Hub) Broadcast(ctx context.Context, event string, data any) error {
	return h.Publish(ctx, BroadcastTarget, event, data)
}

// HandleFanout feeds an envelope received from the pub/sub channel into local
// delivery. Exposed for the subscriber loop in cmd/api.
func (h *Hub) HandleFanout(payload []byte) {
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		ctx := h.log.WithField(context.Background(), "error", err.Error())
		h.log.Warn(ctx, "realtime: dropping malformed fanout payload")
		return
	}
	h.deliver(env)
}

func (h *Hub) deliver(env Envelope) {
	frame, err := json.Marshal(Frame{Event: env.Event, Data: env.Data})
	if err != nil {
		return
	}

	h.mu.RLock()
	var targets []*conn
	if env.UserID == BroadcastTarget {
		for _, room := range h.rooms {
			for c := range room {
				targets = append(targets, c)
			}
		}
	} else {
		for c := range h.rooms[env.UserID] {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if c.trySend(frame) {
			h.metrics.EventDelivered(env.Event)
		} else {
			// Slow consumer: drop the frame rather than block every
			// other connection behind it.
			h.metrics.EventDropped(env.Event)
		}
	}
}

// join binds a connection to its user room and updates shared presence. The
// first connection for a user flips them online.
func (h *Hub) join(ctx context.Context, c *conn) {
	h.mu.Lock()
	room, ok := h.rooms[c.userID]
	if !ok {
		room = make(map[*conn]struct{})
		h.rooms[c.userID] = room
	}
	first := len(room) == 0
	room[c] = struct{}{}
	h.mu.Unlock()

	if !first {
		return
	}
	if h.presence != nil {
		if err := h.presence.SAdd(ctx, h.presence.PresenceKey(), c.userID); err != nil {
			h.log.Warn(h.log.WithField(ctx, "error", err.Error()), "realtime: presence add failed")
		}
	}
	_ = h.Broadcast(ctx, EventPresenceUpdate, PresencePayload{UserID: c.userID, Online: true})
}

// leave removes a connection from its room. The last connection for a user
// flips them offline.
func (h *Hub) leave(ctx context.Context, c *conn) {
	if c.userID == "" {
		return
	}

	h.mu.Lock()
	room := h.rooms[c.userID]
	delete(room, c)
	last := len(room) == 0
	if last {
		delete(h.rooms, c.userID)
	}
	h.mu.Unlock()

	if !last {
		return
	}
	if h.presence != nil {
		if err := h.presence.SRem(ctx, h.presence.PresenceKey(), c.userID); err != nil {
			h.log.Warn(h.log.WithField(ctx, "error", err.Error()), "realtime: presence remove failed")
		}
	}
	_ = h.Broadcast(ctx, EventPresenceUpdate, PresencePayload{UserID: c.userID, Online: false})
}

// RoomSize reports how many connections a user currently holds on this
// instance.
func (h *Hub) RoomSize(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[userID])
}

// Shutdown closes every connection gracefully.
func (h *Hub) Shutdown(ctx context.Context) {
	h.mu.Lock()
	var all []*conn
	for _, room := range h.rooms {
		for c := range room {
			all = append(all, c)
		}
	}
	h.rooms = make(map[string]map[*conn]struct{})
	h.mu.Unlock()

	for _, c := range all {
		c.close()
	}
}
