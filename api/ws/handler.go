package ws

import (
	"context"
	"net/http"

	"github.com/alviansyahburhani/RealTimeChatLocationApp/internal/domain"
	"github.com/alviansyahburhani/RealTimeChatLocationApp/internal/websocket"
	"github.com/alviansyahburhani/RealTimeChatLocationApp/pkg/logger"
	"github.com/alviansyahburhani/RealTimeChatLocationApp/service"
	"github.com/google/uuid"
	gws "github.com/gorilla/websocket"
)

var upgrader = gws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for testing; restrict in production.
	},
}

func HandleWebSocket(
	hub *websocket.Hub,
	relayService service.RelayService,
	rootCtx context.Context,
	logg logger.Logger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logg.Errorf("[WS HANDLER] Upgrade error: %v", err)
			http.Error(w, "Failed to upgrade", http.StatusInternalServerError)
			return
		}

		// The relay assigns the id; clients never supply one.
		id := uuid.NewString()

		client := &websocket.Connection{
			ID:           id,
			Ws:           conn,
			Send:         make(chan domain.Event, 256),
			Hub:          hub,
			RelayService: relayService,
			Ctx:          rootCtx,
			Logger:       logg,
		}

		// Registration, snapshot and the direct welcome/initialUsers
		// frames happen as one step inside the hub, so no broadcast can
		// fall between the snapshot and this connection joining fan-out.
		err = hub.RegisterClient(client, func() ([]domain.Event, error) {
			snapshot, err := relayService.Join(rootCtx, id)
			if err != nil {
				return nil, err
			}
			welcome, err := domain.NewEvent(domain.EventWelcome, map[string]string{"id": id})
			if err != nil {
				_ = relayService.Leave(rootCtx, id)
				return nil, err
			}
			initial, err := domain.NewEvent(domain.EventInitialUsers, snapshot)
			if err != nil {
				_ = relayService.Leave(rootCtx, id)
				return nil, err
			}
			return []domain.Event{welcome, initial}, nil
		})
		if err != nil {
			logg.Errorf("[WS HANDLER] Join failed for %s: %v", id, err)
			conn.Close()
			return
		}

		logg.Infof("[WS HANDLER] New connection from %s (id=%s)", conn.RemoteAddr(), id)

		go client.ReadPump()
		go client.WritePump()
	}
}
