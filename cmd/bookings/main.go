package main

import (
	"opatam/internal/availability"
	availabilityservice "opatam/internal/availability/service"
	"opatam/internal/bookings/handler"
	"opatam/internal/bookings/repository"
	"opatam/internal/bookings/service"
	"opatam/internal/bookings/validator"
	"opatam/internal/events"
	providersrepo "opatam/internal/providers/repository"
	providersservice "opatam/internal/providers/service"
	providersvalidator "opatam/internal/providers/validator"
	schedulesrepo "opatam/internal/schedules/repository"
	schedulesservice "opatam/internal/schedules/service"
	schedulesvalidator "opatam/internal/schedules/validator"
	"opatam/pkg/app"
	"opatam/pkg/config"
	kafka_config "opatam/pkg/kafka/config"
	"opatam/pkg/sealer"
)

const ServiceName = "bookings"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	cfg.SetRedis()

	kafkaCfg := kafka_config.Load()
	kafkaCfg.LogConfiguration(cfg.Log.Info)

	publisher, closePublisher, err := events.NewPublisher(kafkaCfg, cfg.KafkaBookingTopic, ServiceName, cfg.Log)
	if err != nil {
		cfg.Log.Fatal("Failed to create event publisher", "error", err)
	}

	cfg.Log.Info("Starting Bookings service")
	bookingService := initServices(cfg, publisher)
	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewBookingHandler(bookingService, cfg.Log))
	serverApp.OnShutdown(func() {
		if err := closePublisher(); err != nil {
			cfg.Log.Error("Failed to close event publisher", "error", err)
		}
	})
	serverApp.Run()
}

func initServices(cfg *config.Config, publisher events.Publisher) service.BookingService {
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

	bookingRepo := repository.NewMongoBookingRepository(cfg)
	engine := availability.NewEngine(
		schedules,
		service.NewRangeReader(bookingRepo, cfg),
		cfg.Log,
		availability.WithGranularity(cfg.SlotGranularityMin),
	)

	if cfg.SlotTokenKey == "" {
		cfg.Log.Warn("SLOT_TOKEN_KEY is not set, only tokens issued by this process are accepted")
	}
	tokens, err := sealer.FromKey(cfg.SlotTokenKey, cfg.SlotTokenTTL)
	if err != nil {
		cfg.Log.Fatal("Failed to create slot token sealer", "error", err)
	}

	bookingService := service.NewBookingService(
		bookingRepo,
		repository.NewBookingLockRepository(cfg),
		providers,
		engine,
		tokens,
		publisher,
		availabilityservice.NewRedisNextAvailableCache(cfg.Client.Redis, cfg.NextAvailableCacheTTL),
		validator.NewBookingValidator(cfg.Log),
		cfg,
	)

	cfg.Log.Info("Booking service initialized", "database", cfg.MongoDatabaseName)
	return bookingService
}
