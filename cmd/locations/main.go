package main

import (
	"mesa/internal/locations/handler"
	"mesa/internal/locations/repository"
	"mesa/internal/locations/service"
	"mesa/internal/locations/validator"
	"mesa/pkg/app"
	"mesa/pkg/config"
)

const ServiceName = "locations"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting Locations service")
	locationService := initServices(cfg)
	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewLocationHandler(locationService, cfg.Log))
	serverApp.Run()
}

func initServices(cfg *config.Config) service.LocationService {
	locationValidator := validator.NewLocationValidator(cfg.Log)
	locationRepo := repository.NewMongoLocationRepository(cfg)
	locationService := service.NewLocationService(
		locationRepo,
		locationValidator,
		cfg,
	)

	cfg.Log.Info("Locations service initialized", "database", cfg.MongoDatabaseName)
	return locationService
}
