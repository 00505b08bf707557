package main

import (
	"mesa/internal/reservations/handler"
	"mesa/internal/reservations/repository"
	"mesa/internal/reservations/service"
	"mesa/internal/reservations/validator"
	locationsrepo "mesa/internal/locations/repository"
	"mesa/pkg/app"
	"mesa/pkg/config"
	"mesa/pkg/kafka"
	kafka_config "mesa/pkg/kafka/config"
	kafka_middleware "mesa/pkg/kafka/middleware"
)

const ServiceName = "reservations"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting Reservations service")
	reservationService, producer := initServices(cfg)
	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewReservationHandler(reservationService, cfg.Log))
	serverApp.OnShutdown(func() {
		if err := producer.Close(); err != nil {
			cfg.Log.Error("Failed to close Kafka producer", "error", err)
		}
	})
	serverApp.Run()
}

func initServices(cfg *config.Config) (service.ReservationService, *kafka.Producer) {
	kafkaCfg := kafka_config.Load()
	kafkaCfg.LogConfiguration(func(msg string, args ...any) {
		cfg.Log.Info(msg, args...)
	})

	producer, err := kafka.NewProducer(kafkaCfg, cfg.ReservationEventsTopic, cfg.ReservationEventsDLQTopic)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))

	reservationValidator := validator.NewReservationValidator(cfg.Log)
	reservationRepo := repository.NewMongoReservationRepository(cfg)
	lockRepo := repository.NewReservationLockRepository(cfg)
	ledgerRepo := repository.NewMongoLedgerRepository(cfg)
	locationRepo := locationsrepo.NewMongoLocationRepository(cfg)

	reservationService := service.NewReservationService(
		reservationRepo,
		lockRepo,
		ledgerRepo,
		locationRepo,
		reservationValidator,
		producer,
		cfg,
	)

	cfg.Log.Info("Reservations service initialized",
		"database", cfg.MongoDatabaseName,
		"events_topic", cfg.ReservationEventsTopic,
	)
	return reservationService, producer
}
