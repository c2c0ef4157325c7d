package main

import (
	"opatam/internal/availability"
	availabilityhandler "opatam/internal/availability/handler"
	availabilityservice "opatam/internal/availability/service"
	bookingsrepo "opatam/internal/bookings/repository"
	bookingsservice "opatam/internal/bookings/service"
	"opatam/internal/events"
	providersrepo "opatam/internal/providers/repository"
	providersservice "opatam/internal/providers/service"
	providersvalidator "opatam/internal/providers/validator"
	"opatam/internal/recalculation"
	recalculationhandler "opatam/internal/recalculation/handler"
	schedulesrepo "opatam/internal/schedules/repository"
	schedulesservice "opatam/internal/schedules/service"
	schedulesvalidator "opatam/internal/schedules/validator"
	"opatam/pkg/app"
	"opatam/pkg/config"
	kafka_config "opatam/pkg/kafka/config"
	"opatam/pkg/sealer"
)

const ServiceName = "availability"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	cfg.SetRedis()

	kafkaCfg := kafka_config.Load()
	kafkaCfg.LogConfiguration(cfg.Log.Info)

	publisher, closePublisher, err := events.NewPublisher(kafkaCfg, cfg.KafkaAvailabilityTopic, ServiceName, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create event publisher", "error", err)
	}

	cfg.Log.Info("Starting Availability service")
	availabilityHandler, recalculationHandler := initServices(cfg, publisher)
	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(availabilityHandler, recalculationHandler)
	serverApp.OnShutdown(func() {
		if err := closePublisher(); err != nil {
			cfg.Log.Error("Failed to close event publisher", "error", err)
		}
	})
	serverApp.Run()
}

func initServices(cfg *config.Config, publisher events.Publisher) (*availabilityhandler.AvailabilityHandler, *recalculationhandler.RecalculationHandler) {
	providers := providersservice.NewProviderService(
		providersrepo.NewMongoProviderRepository(cfg),
		providersvalidator.NewProviderValidator(cfg.Log),
		cfg,
	)
	schedules := schedulesservice.NewScheduleService(
		schedulesrepo.NewMongoScheduleRepository(cfg),
		providers,
		schedulesvalidator.NewScheduleValidator(cfg.Log),
		nil,
		cfg,
	)
	engine := availability.NewEngine(
		schedules,
		bookingsservice.NewRangeReader(bookingsrepo.NewMongoBookingRepository(cfg), cfg),
		cfg.Log,
		availability.WithGranularity(cfg.SlotGranularityMin),
	)

	if cfg.SlotTokenKey == "" {
		cfg.Log.Warn("SLOT_TOKEN_KEY is not set, issued slot tokens cannot be redeemed by the bookings service")
	}
	tokens, err := sealer.FromKey(cfg.SlotTokenKey, cfg.SlotTokenTTL)
	if err != nil {
		cfg.Log.Fatal("Failed to create slot token sealer", "error", err)
	}

	cache := availabilityservice.NewRedisNextAvailableCache(cfg.Client.Redis, cfg.NextAvailableCacheTTL)
	availabilityService := availabilityservice.NewAvailabilityService(providers, engine, tokens, cache, cfg)

	runs := recalculation.NewRedisRunStore(cfg.Client.Redis)
	job := recalculation.NewJob(providers, engine, publisher, runs, cache, cfg)

	cfg.Log.Info("Availability service initialized", "database", cfg.MongoDatabaseName)
	return availabilityhandler.NewAvailabilityHandler(availabilityService, cfg.Log),
		recalculationhandler.NewRecalculationHandler(job, runs, cfg.Log)
}
