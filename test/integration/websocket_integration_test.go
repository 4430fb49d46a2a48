package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alviansyahburhani/RealTimeChatLocationApp/api/ws"
	"github.com/alviansyahburhani/RealTimeChatLocationApp/config"
	"github.com/alviansyahburhani/RealTimeChatLocationApp/internal/domain"
	natsclient "github.com/alviansyahburhani/RealTimeChatLocationApp/internal/nats"
	redisclient "github.com/alviansyahburhani/RealTimeChatLocationApp/internal/redis"
	"github.com/alviansyahburhani/RealTimeChatLocationApp/internal/registry"
	"github.com/alviansyahburhani/RealTimeChatLocationApp/internal/session"
	wsocket "github.com/alviansyahburhani/RealTimeChatLocationApp/internal/websocket"
	"github.com/alviansyahburhani/RealTimeChatLocationApp/pkg/logger"
	"github.com/alviansyahburhani/RealTimeChatLocationApp/service"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testClient struct {
	conn *websocket.Conn
	id   string
	t    *testing.T
}

// setupRelayServer wires the full stack the way internal/app does, minus
// signal handling: hub, bus subscription, relay service, HTTP routes.
func setupRelayServer(t *testing.T) *httptest.Server {
	cfg := config.MustReadConfig("../../config_test.json")
	baseLogger := logger.NewLogger(cfg.LogLevel, cfg.LogFile)
	ctx := logger.NewContext(context.Background(), baseLogger)

	nc, err := natsclient.NewNATSClient(ctx, cfg.NATSURL)
	require.NoError(t, err)

	rc, err := redisclient.NewRedisClient(ctx, cfg.RedisURL)
	require.NoError(t, err)
	require.NoError(t, rc.FlushAll(ctx))

	relay := service.NewRelayService(ctx, registry.New(), session.NewTracker(), nc, rc)

	hub := wsocket.NewHub(baseLogger.WithModule("hub"))
	go hub.Run()
	require.NoError(t, nc.SubscribeEvents(ctx, func(env domain.Envelope) {
		hub.Broadcast <- env
	}))

	server := httptest.NewServer(ws.SetupRoutes(ws.WSConfig{
		Hub:          hub,
		RelayService: relay,
		RootCtx:      ctx,
	}))

	t.Cleanup(func() {
		server.Close()
		hub.Close()
		_ = rc.FlushAll(ctx)
		rc.Close()
		nc.Close()
	})

	return server
}

// connectClient dials the relay and consumes the welcome frame so the
// client knows its assigned id.
func connectClient(t *testing.T, server *httptest.Server) *testClient {
	wsURL := "ws" + server.URL[4:] + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)

	c := &testClient{conn: conn, t: t}

	event := c.receive()
	require.Equal(t, domain.EventWelcome, event.Type)
	var welcome struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(event.Payload, &welcome))
	require.NotEmpty(t, welcome.ID)
	c.id = welcome.ID
	return c
}

func (c *testClient) receive() domain.Event {
	c.conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var event domain.Event
	require.NoError(c.t, c.conn.ReadJSON(&event), "no event within timeout")
	return event
}

func (c *testClient) expect(eventType domain.EventType) domain.Event {
	event := c.receive()
	require.Equal(c.t, eventType, event.Type)
	return event
}

func (c *testClient) send(eventType domain.EventType, payload interface{}) {
	event, err := domain.NewEvent(eventType, payload)
	require.NoError(c.t, err)
	require.NoError(c.t, c.conn.WriteJSON(event))
}

func (c *testClient) initialUsers() map[string]domain.Participant {
	event := c.expect(domain.EventInitialUsers)
	var users map[string]domain.Participant
	require.NoError(c.t, json.Unmarshal(event.Payload, &users))
	return users
}

func TestConnectSnapshotAndJoinNotice(t *testing.T) {
	server := setupRelayServer(t)

	clientA := connectClient(t, server)
	usersA := clientA.initialUsers()
	assert.Len(t, usersA, 1)
	_, hasSelf := usersA[clientA.id]
	assert.True(t, hasSelf, "snapshot includes the joining participant")

	clientB := connectClient(t, server)
	usersB := clientB.initialUsers()
	assert.Len(t, usersB, 2, "second snapshot carries the earlier participant")
	_, hasA := usersB[clientA.id]
	assert.True(t, hasA)

	joined := clientA.expect(domain.EventUserJoined)
	var p domain.Participant
	require.NoError(t, json.Unmarshal(joined.Payload, &p))
	assert.Equal(t, clientB.id, p.ID)
	assert.Nil(t, p.Latitude, "new participants start with null coordinates")
}

func TestChatLocationAndDisconnectFlow(t *testing.T) {
	server := setupRelayServer(t)

	clientA := connectClient(t, server)
	clientA.initialUsers()
	clientB := connectClient(t, server)
	clientB.initialUsers()
	clientA.expect(domain.EventUserJoined)

	// Chat: both sides receive the authoritative echo, sender included.
	clientA.send(domain.EventChatMessage, domain.ChatMessage{
		ID:     1700000000001,
		Type:   domain.MessageTypeText,
		Sender: clientA.id,
		Text:   "hi",
		Time:   "10:15",
	})
	for _, c := range []*testClient{clientA, clientB} {
		event := c.expect(domain.EventNewChatMessage)
		var msg domain.ChatMessage
		require.NoError(t, json.Unmarshal(event.Payload, &msg))
		assert.Equal(t, "hi", msg.Text)
		assert.Equal(t, clientA.id, msg.Sender)
	}

	// Location tick: everyone gets A's full updated record.
	clientA.send(domain.EventLocationUpdate, domain.Coordinates{Latitude: 1, Longitude: 2})
	for _, c := range []*testClient{clientA, clientB} {
		event := c.expect(domain.EventLocationUpdate)
		var p domain.Participant
		require.NoError(t, json.Unmarshal(event.Payload, &p))
		assert.Equal(t, clientA.id, p.ID)
		assert.Equal(t, 1.0, *p.Latitude)
		assert.Equal(t, 2.0, *p.Longitude)
	}

	// Ending a share notifies everyone, keyed by the bubble's message id.
	clientA.send(domain.EventSharingStopped, domain.SharingStopped{MsgID: 1700000000001})
	for _, c := range []*testClient{clientA, clientB} {
		event := c.expect(domain.EventLocationShareEnded)
		var stop domain.SharingStopped
		require.NoError(t, json.Unmarshal(event.Payload, &stop))
		assert.Equal(t, int64(1700000000001), stop.MsgID)
	}

	// Disconnect: B hears about A exactly once.
	require.NoError(t, clientA.conn.Close())
	event := clientB.expect(domain.EventUserDisconnected)
	var goneID string
	require.NoError(t, json.Unmarshal(event.Payload, &goneID))
	assert.Equal(t, clientA.id, goneID)
}

func TestMalformedPayloadDoesNotDisconnect(t *testing.T) {
	server := setupRelayServer(t)

	clientA := connectClient(t, server)
	clientA.initialUsers()

	// A location update with a missing field is dropped silently.
	require.NoError(t, clientA.conn.WriteJSON(map[string]interface{}{
		"type":    "locationUpdate",
		"payload": map[string]interface{}{"latitude": 1.0},
	}))

	// The connection survives and keeps relaying.
	clientA.send(domain.EventChatMessage, domain.ChatMessage{
		ID:     1700000000002,
		Type:   domain.MessageTypeText,
		Sender: clientA.id,
		Text:   "still here",
	})
	event := clientA.expect(domain.EventNewChatMessage)
	var msg domain.ChatMessage
	require.NoError(t, json.Unmarshal(event.Payload, &msg))
	assert.Equal(t, "still here", msg.Text)
}

func TestHealthzReportsPresence(t *testing.T) {
	server := setupRelayServer(t)

	clientA := connectClient(t, server)
	clientA.initialUsers()
	clientB := connectClient(t, server)
	clientB.initialUsers()

	resp, err := http.Get(server.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Status       string   `json:"status"`
		Participants int      `json:"participants"`
		Connected    []string `json:"connected"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, 2, body.Participants)
	assert.ElementsMatch(t, []string{clientA.id, clientB.id}, body.Connected,
		"healthz reports the in-process registry alongside the mirror count")
}
