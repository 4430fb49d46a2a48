package websocket

import (
	"context"
	"encoding/json"

	"github.com/alviansyahburhani/RealTimeChatLocationApp/internal/domain"
	"github.com/alviansyahburhani/RealTimeChatLocationApp/pkg/logger"
	"github.com/alviansyahburhani/RealTimeChatLocationApp/service"
	"github.com/gorilla/websocket"
)

// Connection represents a single client socket. ID is the server-assigned
// participant id, stable for the connection lifetime and never reused
// while the connection lives.
type Connection struct {
	ID           string
	Ws           *websocket.Conn
	Send         chan domain.Event
	Hub          *Hub
	RelayService service.RelayService
	Ctx          context.Context
	Logger       logger.Logger
}

// ReadPump consumes inbound frames one at a time, which preserves arrival
// order per connection all the way to the broadcast. It exits on the first
// read error (scheduled close or transport failure alike) and runs the
// disconnect path exactly once.
func (c *Connection) ReadPump() {
	defer func() {
		c.Hub.Unregister <- c
		c.Ws.Close()
		if err := c.RelayService.Leave(c.Ctx, c.ID); err != nil {
			c.Logger.Errorf("leave failed for %s: %v", c.ID, err)
		}
	}()

	for {
		var event domain.Event
		if err := c.Ws.ReadJSON(&event); err != nil {
			c.Logger.Debugf("connection %s closed: %v", c.ID, err)
			return
		}
		c.dispatch(event)
	}
}

// dispatch routes one inbound event. Malformed payloads are dropped
// without disconnecting the sender; one participant's bad input must not
// corrupt shared state or take anyone down.
func (c *Connection) dispatch(event domain.Event) {
	switch event.Type {
	case domain.EventChatMessage:
		var msg domain.ChatMessage
		if err := json.Unmarshal(event.Payload, &msg); err != nil {
			c.Logger.Debugf("dropping undecodable chat message from %s: %v", c.ID, err)
			return
		}
		if err := c.RelayService.BroadcastChat(c.Ctx, c.ID, msg); err != nil {
			c.Logger.Debugf("dropping chat message from %s: %v", c.ID, err)
		}

	case domain.EventLocationUpdate:
		coords, err := domain.DecodeCoordinates(event.Payload)
		if err != nil {
			c.Logger.Debugf("dropping location update from %s: %v", c.ID, err)
			return
		}
		if err := c.RelayService.UpdateLocation(c.Ctx, c.ID, coords); err != nil {
			c.Logger.Errorf("location update from %s failed: %v", c.ID, err)
		}

	case domain.EventSharingStopped:
		var stop domain.SharingStopped
		if err := json.Unmarshal(event.Payload, &stop); err != nil {
			c.Logger.Debugf("dropping undecodable stop event from %s: %v", c.ID, err)
			return
		}
		if err := c.RelayService.StopSharing(c.Ctx, stop.MsgID); err != nil {
			c.Logger.Errorf("stop sharing from %s failed: %v", c.ID, err)
		}

	default:
		c.Logger.Debugf("ignoring unknown event %q from %s", event.Type, c.ID)
	}
}

// WritePump drains the send channel onto the socket. A write error ends
// the pump; the read pump notices the closed socket and cleans up.
func (c *Connection) WritePump() {
	defer c.Ws.Close()

	for event := range c.Send {
		if err := c.Ws.WriteJSON(event); err != nil {
			c.Logger.Debugf("write to %s failed: %v", c.ID, err)
			return
		}
	}
}
