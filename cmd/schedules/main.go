package main

import (
	availabilityservice "opatam/internal/availability/service"
	providersrepo "opatam/internal/providers/repository"
	providersservice "opatam/internal/providers/service"
	providersvalidator "opatam/internal/providers/validator"
	"opatam/internal/schedules/handler"
	"opatam/internal/schedules/repository"
	"opatam/internal/schedules/service"
	"opatam/internal/schedules/validator"
	"opatam/pkg/app"
	"opatam/pkg/config"
)

const ServiceName = "schedules"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	cfg.SetRedis()

	cfg.Log.Info("Starting Schedules service")
	scheduleService := initServices(cfg)
	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewScheduleHandler(scheduleService, cfg.Log))
	serverApp.Run()
}

func initServices(cfg *config.Config) service.ScheduleService {
	providers := providersservice.NewProviderService(
		providersrepo.NewMongoProviderRepository(cfg),
		providersvalidator.NewProviderValidator(cfg.Log),
		cfg,
	)

	scheduleValidator := validator.NewScheduleValidator(cfg.Log)
	scheduleRepo := repository.NewMongoScheduleRepository(cfg)
	scheduleService := service.NewScheduleService(
		scheduleRepo,
		providers,
		scheduleValidator,
		availabilityservice.NewRedisNextAvailableCache(cfg.Client.Redis, cfg.NextAvailableCacheTTL),
		cfg,
	)

	cfg.Log.Info("Schedules service initialized", "database", cfg.MongoDatabaseName)
	return scheduleService
}
