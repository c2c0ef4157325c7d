package main

import (
	"opatam/internal/providers/handler"
	"opatam/internal/providers/repository"
	"opatam/internal/providers/service"
	"opatam/internal/providers/validator"
	"opatam/pkg/app"
	"opatam/pkg/config"
)

const ServiceName = "providers"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting Providers service")
	providerService := initServices(cfg)
	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewProviderHandler(providerService, cfg.Log))
	serverApp.Run()
}

func initServices(cfg *config.Config) service.ProviderService {
	providerValidator := validator.NewProviderValidator(cfg.Log)
	providerRepo := repository.NewMongoProviderRepository(cfg)
	providerService := service.NewProviderService(
		providerRepo,
		providerValidator,
		cfg,
	)

	cfg.Log.Info("Provider service initialized", "database", cfg.MongoDatabaseName)
	return providerService
}
