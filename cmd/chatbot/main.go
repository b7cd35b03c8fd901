package main

import (
	"storagechat/internal/chat/events"
	"storagechat/internal/chat/handler"
	"storagechat/internal/chat/service"
	"storagechat/internal/chat/validator"
	"storagechat/pkg/app"
	"storagechat/pkg/client"
	"storagechat/pkg/config"
	"storagechat/pkg/kafka"
	kafka_config "storagechat/pkg/kafka/config"
	kafka_middleware "storagechat/pkg/kafka/middleware"
)

const ServiceName = "chatbot"

func main() {
	cfg := config.Load(ServiceName)

	cfg.Log.Info("Starting storage chat service")
	store := service.NewStore(cfg.SessionTTL, cfg.SessionCleanupInterval, cfg.Log)
	publisher := initPublisher(cfg)
	chatService := initServices(cfg, store, publisher)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(
		handler.NewHealthHandler(store, cfg.WebhookURL, cfg.Log),
		handler.NewSessionHandler(chatService, cfg.Log),
	)
	serverApp.OnShutdown(store)
	serverApp.OnClose(publisher.Close)
	serverApp.Run()
}

func initServices(cfg *config.Config, store *service.Store, publisher events.Publisher) service.ChatService {
	chatValidator := validator.NewChatValidator(cfg.Log, cfg.Facilities)
	webhookClient := client.NewHttpClient(cfg.WebhookURL)
	chatService := service.NewChatService(
		store,
		webhookClient,
		chatValidator,
		publisher,
		cfg,
	)

	cfg.Log.Info("Chat service initialized", "facilities", len(cfg.Facilities))
	return chatService
}

func initPublisher(cfg *config.Config) events.Publisher {
	if len(cfg.KafkaBrokers) == 0 {
		cfg.Log.Info("Kafka brokers not configured, chat events disabled")
		return events.NopPublisher{}
	}

	kafkaCfg, err := kafka_config.Load(cfg.KafkaBrokers)
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}
	kafkaCfg.LogConfiguration(cfg.Log.Info)

	producer, err := kafka.NewProducer(kafkaCfg, cfg.KafkaTopic, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))

	return events.NewKafkaPublisher(producer)
}
