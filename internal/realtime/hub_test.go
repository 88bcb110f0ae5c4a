package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custconnect/custconnect-backend/pkg/config"
	"github.com/custconnect/custconnect-backend/pkg/logger"
)

func testRealtimeConfig() config.RealtimeConfig {
	return config.RealtimeConfig{
		WriteTimeout:   2 * time.Second,
		PongTimeout:    5 * time.Second,
		PingInterval:   1 * time.Second,
		SendBufferSize: 8,
		ReadLimitBytes: 4096,
		DisableFanout:  true,
	}
}

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	log := logger.New(logger.Options{ServiceName: "realtime-test"})
	return NewHub(testRealtimeConfig(), log, nil, nil, nil)
}

func dialHub(t *testing.T, hub *Hub, authID string) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, authID)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })
	return ws
}

func joinRoom(t *testing.T, ws *websocket.Conn, userID string) {
	t.Helper()
	id, err := json.Marshal(userID)
	require.NoError(t, err)
	require.NoError(t, ws.WriteJSON(Frame{Event: EventJoinRoom, Data: id}))
}

func readFrame(t *testing.T, ws *websocket.Conn) Frame {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(3*time.Second)))
	var frame Frame
	require.NoError(t, ws.ReadJSON(&frame))
	return frame
}

func waitForRoom(t *testing.T, hub *Hub, userID string, size int) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if hub.RoomSize(userID) == size {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("room %s never reached size %d", userID, size)
}

func TestHubDeliversToJoinedUser(t *testing.T) {
	hub := newTestHub(t)
	ws := dialHub(t, hub, "user-1")

	joinRoom(t, ws, "user-1")
	waitForRoom(t, hub, "user-1", 1)

	// Joining emits a broadcast presence-update first.
	frame := readFrame(t, ws)
	require.Equal(t, EventPresenceUpdate, frame.Event)
	var presence PresencePayload
	require.NoError(t, json.Unmarshal(frame.Data, &presence))
	assert.Equal(t, "user-1", presence.UserID)
	assert.True(t, presence.Online)

	require.NoError(t, hub.Publish(context.Background(), "user-1", EventNotification, map[string]string{"title": "hi"}))

	frame = readFrame(t, ws)
	assert.Equal(t, EventNotification, frame.Event)
	assert.JSONEq(t, `{"title":"hi"}`, string(frame.Data))
}

func TestHubPreservesOrderPerEvent(t *testing.T) {
	hub := newTestHub(t)
	ws := dialHub(t, hub, "user-1")

	joinRoom(t, ws, "user-1")
	waitForRoom(t, hub, "user-1", 1)
	readFrame(t, ws) // presence-update

	for i := 0; i < 5; i++ {
		require.NoError(t, hub.Publish(context.Background(), "user-1", EventNewMessage, map[string]int{"seq": i}))
	}

	for i := 0; i < 5; i++ {
		frame := readFrame(t, ws)
		require.Equal(t, EventNewMessage, frame.Event)
		var payload struct {
			Seq int `json:"seq"`
		}
		require.NoError(t, json.Unmarshal(frame.Data, &payload))
		assert.Equal(t, i, payload.Seq)
	}
}

func TestHubRefusesForeignJoin(t *testing.T) {
	hub := newTestHub(t)
	ws := dialHub(t, hub, "user-1")

	joinRoom(t, ws, "user-2")

	// The foreign join is ignored, so nothing published to user-2 arrives.
	require.NoError(t, hub.Publish(context.Background(), "user-2", EventNotification, map[string]string{"title": "secret"}))

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(300*time.Millisecond)))
	var frame Frame
	err := ws.ReadJSON(&frame)
	assert.Error(t, err)
	assert.Equal(t, 0, hub.RoomSize("user-2"))
}

func TestHubBroadcastReachesAllRooms(t *testing.T) {
	hub := newTestHub(t)
	wsA := dialHub(t, hub, "user-a")
	wsB := dialHub(t, hub, "user-b")

	joinRoom(t, wsA, "user-a")
	waitForRoom(t, hub, "user-a", 1)
	readFrame(t, wsA) // own presence-update

	joinRoom(t, wsB, "user-b")
	waitForRoom(t, hub, "user-b", 1)
	readFrame(t, wsA) // user-b presence-update
	readFrame(t, wsB)

	require.NoError(t, hub.Broadcast(context.Background(), EventNewStory, map[string]string{"story_id": "s1"}))

	for _, ws := range []*websocket.Conn{wsA, wsB} {
		frame := readFrame(t, ws)
		assert.Equal(t, EventNewStory, frame.Event)
	}
}

func TestHubPresenceClearsOnDisconnect(t *testing.T) {
	hub := newTestHub(t)
	wsA := dialHub(t, hub, "user-a")
	wsB := dialHub(t, hub, "user-b")

	joinRoom(t, wsA, "user-a")
	waitForRoom(t, hub, "user-a", 1)
	readFrame(t, wsA)

	joinRoom(t, wsB, "user-b")
	waitForRoom(t, hub, "user-b", 1)
	readFrame(t, wsA)

	require.NoError(t, wsB.Close())

	frame := readFrame(t, wsA)
	require.Equal(t, EventPresenceUpdate, frame.Event)
	var presence PresencePayload
	require.NoError(t, json.Unmarshal(frame.Data, &presence))
	assert.Equal(t, "user-b", presence.UserID)
	assert.False(t, presence.Online)
}

func TestHubFanoutEnvelopeRoundTrip(t *testing.T) {
	hub := newTestHub(t)
	ws := dialHub(t, hub, "user-1")

	joinRoom(t, ws, "user-1")
	waitForRoom(t, hub, "user-1", 1)
	readFrame(t, ws)

	payload, err := json.Marshal(Envelope{UserID: "user-1", Event: EventNotification, Data: json.RawMessage(`{"title":"via redis"}`)})
	require.NoError(t, err)
	hub.HandleFanout(payload)

	frame := readFrame(t, ws)
	assert.Equal(t, EventNotification, frame.Event)
	assert.JSONEq(t, `{"title":"via redis"}`, string(frame.Data))
}
