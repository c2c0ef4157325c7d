package main

import (
	"context"
	"time"

	"opatam/internal/availability"
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
)

const ServiceName = "recalculator"

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

	job, runs := initJob(cfg, publisher)
	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(recalculationhandler.NewRecalculationHandler(job, runs, cfg.Log))

	scheduler := recalculation.NewScheduler(job, cfg.RecalcCron, cfg.Log)
	serverApp.AddWorker("recalculation-cron", scheduler.Start)

	if kafkaCfg.Enabled {
		consumer, err := recalculation.NewBookingEventConsumer(kafkaCfg, cfg.KafkaBookingTopic, job, cfg.Log)
		if err != nil {
			cfg.Log.Fatal("Failed to create booking event consumer", "error", err)
		}
		serverApp.AddWorker("booking-events", consumer.Start)
		serverApp.OnShutdown(func() {
			if err := consumer.Close(); err != nil {
				cfg.Log.Error("Failed to close booking event consumer", "error", err)
			}
		})
	}

	serverApp.OnShutdown(func() {
		if err := closePublisher(); err != nil {
			cfg.Log.Error("Failed to close event publisher", "error", err)
		}
	})

	cfg.Log.Info("Starting Recalculator", "cron", cfg.RecalcCron, "kafka_enabled", kafkaCfg.Enabled)
	serverApp.Run()
}

func initJob(cfg *config.Config, publisher events.Publisher) (*recalculation.Job, recalculation.RunStore) {
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

	cache := availabilityservice.NewRedisNextAvailableCache(cfg.Client.Redis, cfg.NextAvailableCacheTTL)
	runs := recalculation.NewRedisRunStore(cfg.Client.Redis)
	job := recalculation.NewJob(providers, engine, publisher, runs, cache, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if last, err := runs.Last(ctx); err == nil && last != nil {
		cfg.Log.Info("Previous recalculation run", "run_id", last.RunID, "finished_at", last.FinishedAt, "truncated", last.Truncated)
	}

	cfg.Log.Info("Recalculation job initialized", "concurrency", cfg.RecalcConcurrency, "horizon_days", cfg.SearchHorizonDays)
	return job, runs
}
