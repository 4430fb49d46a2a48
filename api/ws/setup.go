package ws

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/alviansyahburhani/RealTimeChatLocationApp/internal/websocket"
	"github.com/alviansyahburhani/RealTimeChatLocationApp/pkg/logger"
	"github.com/alviansyahburhani/RealTimeChatLocationApp/service"
)

type WSConfig struct {
	Hub          *websocket.Hub
	RelayService service.RelayService
	RootCtx      context.Context
}

func SetupRoutes(cfg WSConfig) http.Handler {
	mux := http.NewServeMux()
	log := logger.FromContext(cfg.RootCtx).WithModule("websocket")

	mux.HandleFunc("/ws", HandleWebSocket(cfg.Hub, cfg.RelayService, cfg.RootCtx, log))
	mux.HandleFunc("/healthz", handleHealthz(cfg.RelayService, cfg.RootCtx, log))
	return mux
}

// handleHealthz reports liveness plus the mirrored participant count.
func handleHealthz(relayService service.RelayService, rootCtx context.Context, logg logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		participants, err := relayService.ActiveParticipants(rootCtx)
		if err != nil {
			logg.Errorf("[HEALTHZ] presence lookup failed: %v", err)
			http.Error(w, "presence mirror unavailable", http.StatusServiceUnavailable)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":       "ok",
			"participants": len(participants),
			"connected":    relayService.ConnectedIDs(),
		})
	}
}
