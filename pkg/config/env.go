package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvRedisAddr     = "REDIS_ADDR"
	EnvRedisPassword = "REDIS_PASSWORD"
	EnvRedisDB       = "REDIS_DB"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvSlotGranularityMin    = "SLOT_GRANULARITY_MIN"
	EnvSearchHorizonDays     = "SEARCH_HORIZON_DAYS"
	EnvRecalcConcurrency     = "RECALC_CONCURRENCY"
	EnvRecalcCron            = "RECALC_CRON"
	EnvRecalcTimeout         = "RECALC_TIMEOUT"
	EnvNextAvailableCacheTTL = "NEXT_AVAILABLE_CACHE_TTL"
	EnvSlotTokenKey          = "SLOT_TOKEN_KEY"
	EnvSlotTokenTTL          = "SLOT_TOKEN_TTL"

	EnvKafkaBookingTopic      = "KAFKA_BOOKING_TOPIC"
	EnvKafkaAvailabilityTopic = "KAFKA_AVAILABILITY_TOPIC"

	EnvMetricsPath = "METRICS_PATH"

	EnvPhoneRegions = "PHONE_REGIONS"
)
