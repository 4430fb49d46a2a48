package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alviansyahburhani/RealTimeChatLocationApp/api/ws"
	"github.com/alviansyahburhani/RealTimeChatLocationApp/config"
	"github.com/alviansyahburhani/RealTimeChatLocationApp/internal/domain"
	"github.com/alviansyahburhani/RealTimeChatLocationApp/internal/nats"
	"github.com/alviansyahburhani/RealTimeChatLocationApp/internal/redis"
	"github.com/alviansyahburhani/RealTimeChatLocationApp/internal/registry"
	"github.com/alviansyahburhani/RealTimeChatLocationApp/internal/session"
	"github.com/alviansyahburhani/RealTimeChatLocationApp/internal/websocket"
	"github.com/alviansyahburhani/RealTimeChatLocationApp/pkg/logger"
	"github.com/alviansyahburhani/RealTimeChatLocationApp/service"
	"github.com/rs/cors"
)

// App represents the main application structure holding all dependencies
type App struct {
	cfg          config.Config
	logger       logger.Logger
	natsClient   *nats.NATSClient
	redisClient  *redis.RedisClient
	hub          *websocket.Hub
	relayService service.RelayService
	httpServer   *http.Server
	rootCtx      context.Context
	cancel       context.CancelFunc
}

// NewApp initializes and connects all application dependencies
func NewApp(cfg config.Config) (*App, error) {
	baseLogger := logger.NewLogger(cfg.LogLevel, cfg.LogFile)
	rootCtx := logger.NewContext(context.Background(), baseLogger)
	rootCtx, rootCancel := context.WithCancel(rootCtx)

	log := logger.FromContext(rootCtx).WithModule("app")
	log.Infof("Initializing application components...")

	natsClient, err := nats.NewNATSClient(rootCtx, cfg.NATSURL)
	if err != nil {
		rootCancel()
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	redisClient, err := redis.NewRedisClient(rootCtx, cfg.RedisURL)
	if err != nil {
		rootCancel()
		natsClient.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	// A previous run may have crashed without unmirroring presence.
	if err := redisClient.ClearActiveParticipants(rootCtx); err != nil {
		log.Warnf("failed to reset presence mirror: %v", err)
	}

	relayService := service.NewRelayService(
		rootCtx,
		registry.New(),
		session.NewTracker(),
		natsClient,
		redisClient,
	)

	hub := websocket.NewHub(baseLogger.WithModule("hub"))
	go hub.Run()

	// Every broadcast flows through the bus and back into the hub, so
	// relays in future multi-instance setups share one code path.
	if err := natsClient.SubscribeEvents(rootCtx, func(env domain.Envelope) {
		hub.Broadcast <- env
	}); err != nil {
		rootCancel()
		natsClient.Close()
		redisClient.Close()
		return nil, fmt.Errorf("failed to subscribe to relay events: %w", err)
	}

	httpServer := createHTTPServer(rootCtx, cfg.Port, hub, relayService)

	app := &App{
		cfg:          cfg,
		logger:       log,
		natsClient:   natsClient,
		redisClient:  redisClient,
		hub:          hub,
		relayService: relayService,
		httpServer:   httpServer,
		rootCtx:      rootCtx,
		cancel:       rootCancel,
	}

	log.Infof("Application initialized successfully")
	return app, nil
}

func createHTTPServer(ctx context.Context, port int, hub *websocket.Hub, relayService service.RelayService) *http.Server {
	wsConfig := ws.WSConfig{
		Hub:          hub,
		RelayService: relayService,
		RootCtx:      ctx,
	}

	handler := cors.AllowAll().Handler(ws.SetupRoutes(wsConfig))

	return &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: handler,
	}
}

// Start runs the application and handles graceful shutdown on signal
func (a *App) Start() error {
	log := a.logger.WithFields(map[string]interface{}{
		"port": a.cfg.Port,
	})

	log.Infof("Starting relay server")

	go func() {
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithFields(map[string]interface{}{
				"error": err.Error(),
			}).Fatalf("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	log.WithFields(map[string]interface{}{
		"signal": sig.String(),
	}).Warnf("Received shutdown signal")

	return a.Stop()
}

// Stop gracefully shuts down the server and closes all connections
func (a *App) Stop() error {
	log := a.logger.WithFields(map[string]interface{}{
		"shutdown_timeout": "5s",
	})

	log.Infof("Initiating graceful shutdown")

	a.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(ctx); err != nil {
		log.WithFields(map[string]interface{}{
			"error": err.Error(),
		}).Errorf("HTTP server shutdown error")
	}

	log.Infof("Closing client connections")
	a.hub.Close()

	log.Infof("Closing NATS connection")
	a.natsClient.Close()

	log.Infof("Closing Redis connection")
	a.redisClient.Close()

	log.Infof("Shutdown completed successfully")
	return nil
}
