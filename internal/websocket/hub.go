package websocket

import (
	"sync"

	"github.com/alviansyahburhani/RealTimeChatLocationApp/internal/domain"
	"github.com/alviansyahburhani/RealTimeChatLocationApp/pkg/logger"
)

// Hub owns the set of live connections and fans broadcast envelopes out to
// them. Membership changes and fan-out are serialized through the Run loop
// so a broadcast never sends to or skips a connection mid-transition.
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Connection]bool
	Unregister chan *Connection
	Broadcast  chan domain.Envelope
	logger     logger.Logger
}

func NewHub(logg logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Connection]bool),
		Unregister: make(chan *Connection),
		Broadcast:  make(chan domain.Envelope, 64),
		logger:     logg,
	}
}

// Run is the hub's main loop. It terminates when Close shuts the channels'
// owner down; in practice it lives for the process lifetime.
func (h *Hub) Run() {
	for {
		select {
		case conn := <-h.Unregister:
			h.removeClient(conn)
		case env := <-h.Broadcast:
			h.broadcastEnvelope(env)
		}
	}
}

// RegisterClient adds the connection to the hub, queuing the events that
// prepare produces (the welcome and snapshot frames) ahead of any
// broadcast. Holding the write lock across prepare serializes the
// insert+snapshot+register sequence against fan-out: every broadcast
// whose state change postdates the snapshot is delivered to the new
// connection, and everything older is in the snapshot. If prepare fails
// the connection is not registered.
func (h *Hub) RegisterClient(conn *Connection, prepare func() ([]domain.Event, error)) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	events, err := prepare()
	if err != nil {
		return err
	}
	for _, event := range events {
		conn.Send <- event
	}
	h.clients[conn] = true
	return nil
}

// Close tears down every connection. Used on shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.clients {
		delete(h.clients, conn)
		close(conn.Send)
		conn.Ws.Close()
	}
}

func (h *Hub) removeClient(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.clients[conn]; exists {
		delete(h.clients, conn)
		close(conn.Send)
	}
}

// broadcastEnvelope delivers the event to every connection except the one
// the envelope excludes. Sends never block: a client whose buffer is full
// is dropped and cleaned up through the normal disconnect path.
func (h *Hub) broadcastEnvelope(env domain.Envelope) {
	var slow []*Connection

	h.mu.RLock()
	for conn := range h.clients {
		if env.Exclude != "" && conn.ID == env.Exclude {
			continue
		}
		select {
		case conn.Send <- env.Event:
		default:
			slow = append(slow, conn)
		}
	}
	h.mu.RUnlock()

	for _, conn := range slow {
		h.logger.Warnf("dropping slow connection %s", conn.ID)
		h.removeClient(conn)
	}
}
