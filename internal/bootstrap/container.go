package bootstrap

import (
	"context"
	"log"

	"dyor-ai-be/internal/config"
	"dyor-ai-be/internal/controller"
	"dyor-ai-be/internal/pkg/logger"
	"dyor-ai-be/internal/repository/unitofwork"
	"dyor-ai-be/internal/service"
	"dyor-ai-be/internal/websocket"
	"dyor-ai-be/pkg/events"

	pktNats "dyor-ai-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ChatController     controller.IChatController
	AgentController    controller.IAgentController
	SettingsController controller.ISettingsController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// WebSockets
	WebSocketHub   *websocket.Hub
	AgentWsHandler *websocket.AgentHandler

	// Shared logger, exposed so main can Sync on shutdown.
	Logger logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus (in-process)
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 2.5 Infrastructure
	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/websocket.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 3. Services
	publisherService := service.NewPublisherService(cfg.Keys.AgentTopic, pubSub)
	consumerService := service.NewConsumerService(pubSub, cfg.Keys.AgentTopic, wsHub)

	chatService := service.NewChatService(uowFactory, natsPub, sysLogger)
	agentService := service.NewAgentService(publisherService, sysLogger)
	settingsService := service.NewSettingsService(cfg.Settings.FilePath, sysLogger)

	agentWsHandler := websocket.NewAgentHandler(wsHub, agentService, wsLogger)

	// 3.5 Relay durable chat lifecycle events to connected clients.
	if natsSub != nil {
		err := natsSub.Subscribe("chat.events.>", "ws-relay", func(ctx context.Context, evt events.Event) error {
			wsHub.Broadcast("chat_event", map[string]interface{}{
				"type": evt.EventType(),
				"data": evt.Payload(),
			})
			return nil
		})
		if err != nil {
			log.Printf("[WARN] Failed to subscribe to chat events: %v", err)
		}
	}

	// 4. Controllers
	return &Container{
		ChatController:     controller.NewChatController(chatService),
		AgentController:    controller.NewAgentController(agentService),
		SettingsController: controller.NewSettingsController(settingsService),

		ConsumerService: consumerService,

		WebSocketHub:   wsHub,
		AgentWsHandler: agentWsHandler,

		Logger: sysLogger,
	}
}
