package main

import (
	"context"
	"errors"

	activityconsumer "mesa/internal/activity/consumer"
	"mesa/internal/activity/handler"
	"mesa/internal/activity/repository"
	"mesa/pkg/app"
	"mesa/pkg/config"
	"mesa/pkg/kafka"
	kafka_config "mesa/pkg/kafka/config"
	kafka_middleware "mesa/pkg/kafka/middleware"
)

const ServiceName = "activity"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting Activity worker")

	activityRepo := repository.NewMongoActivityRepository(cfg)
	eventConsumer := activityconsumer.NewReservationEventConsumer(activityRepo, cfg.Log)

	kafkaCfg := kafka_config.Load()
	kafkaCfg.LogConfiguration(func(msg string, args ...any) {
		cfg.Log.Info(msg, args...)
	})

	consumer, err := kafka.NewConsumer(
		kafkaCfg,
		cfg.ReservationEventsTopic,
		cfg.ActivityConsumerGroup,
		cfg.ReservationEventsDLQTopic,
		eventConsumer.Handle,
	)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
	}
	consumer.Use(kafka_middleware.LoggingConsumerMiddleware(cfg.Log))

	consumerCtx, cancelConsumer := context.WithCancel(context.Background())
	go func() {
		if err := consumer.Start(consumerCtx); err != nil && !errors.Is(err, context.Canceled) {
			cfg.Log.Error("Kafka consumer stopped", "error", err)
		}
	}()

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewActivityHandler(activityRepo, cfg.Log))
	serverApp.OnShutdown(func() {
		cancelConsumer()
		if err := consumer.Close(); err != nil {
			cfg.Log.Error("Failed to close Kafka consumer", "error", err)
		}
	})

	cfg.Log.Info("Activity worker initialized",
		"database", cfg.MongoDatabaseName,
		"events_topic", cfg.ReservationEventsTopic,
		"group_id", cfg.ActivityConsumerGroup,
	)
	serverApp.Run()
}
