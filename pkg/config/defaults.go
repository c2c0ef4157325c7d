package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "opatam"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultRedisAddr = "localhost:6379"
	DefaultRedisDB   = 0

	DefaultPort = "8080"

	DefaultRateLimitRequests = 60
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultSlotGranularityMin    = 15
	DefaultSearchHorizonDays     = 60
	DefaultRecalcConcurrency     = 8
	DefaultRecalcCron            = "0 3 * * *"
	DefaultRecalcTimeout         = 30 * time.Minute
	DefaultNextAvailableCacheTTL = 10 * time.Minute
	DefaultSlotTokenTTL          = 30 * time.Minute

	DefaultKafkaBookingTopic      = "booking-events"
	DefaultKafkaAvailabilityTopic = "availability-events"

	DefaultMetricsPath = "/metrics"

	DefaultPhoneRegions = "IL,US"

	DefaultPaginationLimit = 100
)
