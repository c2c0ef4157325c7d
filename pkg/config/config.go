package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"opatam/pkg/client"
	"opatam/pkg/logger"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	Port string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	SlotGranularityMin    int
	SearchHorizonDays     int
	RecalcConcurrency     int
	RecalcCron            string
	RecalcTimeout         time.Duration
	NextAvailableCacheTTL time.Duration
	SlotTokenKey          string
	SlotTokenTTL          time.Duration

	KafkaBookingTopic      string
	KafkaAvailabilityTopic string

	MetricsPath string

	PhoneRegions []string

	Log    *logger.Logger
	Client *client.Client
}

func Load(serviceName string) *Config {
	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		RedisAddr:     getEnvStr(EnvRedisAddr, DefaultRedisAddr),
		RedisPassword: getEnvStr(EnvRedisPassword, ""),
		RedisDB:       getEnvNum(EnvRedisDB, DefaultRedisDB),

		Port: getEnvStr(EnvPort, DefaultPort),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		SlotGranularityMin:    getEnvNum(EnvSlotGranularityMin, DefaultSlotGranularityMin),
		SearchHorizonDays:     getEnvNum(EnvSearchHorizonDays, DefaultSearchHorizonDays),
		RecalcConcurrency:     getEnvNum(EnvRecalcConcurrency, DefaultRecalcConcurrency),
		RecalcCron:            getEnvStr(EnvRecalcCron, DefaultRecalcCron),
		RecalcTimeout:         getEnvDuration(EnvRecalcTimeout, DefaultRecalcTimeout),
		NextAvailableCacheTTL: getEnvDuration(EnvNextAvailableCacheTTL, DefaultNextAvailableCacheTTL),
		SlotTokenKey:          getEnvStr(EnvSlotTokenKey, ""),
		SlotTokenTTL:          getEnvDuration(EnvSlotTokenTTL, DefaultSlotTokenTTL),

		KafkaBookingTopic:      getEnvStr(EnvKafkaBookingTopic, DefaultKafkaBookingTopic),
		KafkaAvailabilityTopic: getEnvStr(EnvKafkaAvailabilityTopic, DefaultKafkaAvailabilityTopic),

		MetricsPath: getEnvStr(EnvMetricsPath, DefaultMetricsPath),

		PhoneRegions: getEnvList(EnvPhoneRegions, DefaultPhoneRegions),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, logger.INFO),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	err := cfg.Validate()
	if err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) SetRedis() {
	cfg.Client.SetRedis(cfg.Log, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.MongoConnTimeout)
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errors = append(errors, "MongoURI cannot be empty")
	} else if len(cfg.MongoURI) < 10 || !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
		errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", redactMongoURI(cfg.MongoURI)))
	}
	if cfg.MongoDatabaseName == "" {
		errors = append(errors, "MongoDatabaseName cannot be empty")
	}
	if cfg.MongoConnTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
	}

	if cfg.RedisAddr == "" {
		errors = append(errors, "RedisAddr cannot be empty")
	}
	if cfg.RedisDB < 0 {
		errors = append(errors, fmt.Sprintf("RedisDB cannot be negative, got: %d", cfg.RedisDB))
	}

	if cfg.RateLimitWindow <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitWindow must be positive, got: %s", cfg.RateLimitWindow))
	}
	if cfg.RequestTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
	}
	if cfg.IdempotencyTTL <= 0 {
		errors = append(errors, fmt.Sprintf("IdempotencyTTL must be positive, got: %s", cfg.IdempotencyTTL))
	}
	if cfg.ReadTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ReadTimeout must be positive, got: %s", cfg.ReadTimeout))
	}
	if cfg.WriteTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("WriteTimeout must be positive, got: %s", cfg.WriteTimeout))
	}
	if cfg.IdleTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("IdleTimeout must be positive, got: %s", cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ShutdownTimeout must be positive, got: %s", cfg.ShutdownTimeout))
	}
	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.MaxRequestSize <= 0 {
		errors = append(errors, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}

	if cfg.SlotGranularityMin <= 0 || 60%cfg.SlotGranularityMin != 0 {
		errors = append(errors, fmt.Sprintf("SlotGranularityMin must divide 60, got: %d", cfg.SlotGranularityMin))
	}
	if cfg.SearchHorizonDays <= 0 || cfg.SearchHorizonDays > 366 {
		errors = append(errors, fmt.Sprintf("SearchHorizonDays must be between 1 and 366, got: %d", cfg.SearchHorizonDays))
	}
	if cfg.RecalcConcurrency <= 0 {
		errors = append(errors, fmt.Sprintf("RecalcConcurrency must be positive, got: %d", cfg.RecalcConcurrency))
	}
	if _, err := cron.ParseStandard(cfg.RecalcCron); err != nil {
		errors = append(errors, fmt.Sprintf("RecalcCron is not a valid cron expression (%s): %v", cfg.RecalcCron, err))
	}
	if cfg.RecalcTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("RecalcTimeout must be positive, got: %s", cfg.RecalcTimeout))
	}
	if cfg.NextAvailableCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("NextAvailableCacheTTL cannot be negative, got: %s", cfg.NextAvailableCacheTTL))
	}
	if cfg.SlotTokenKey != "" {
		key, err := base64.StdEncoding.DecodeString(cfg.SlotTokenKey)
		if err != nil || (len(key) != 16 && len(key) != 24 && len(key) != 32) {
			errors = append(errors, "SlotTokenKey must be a base64 encoded 16, 24 or 32 byte key")
		}
	}
	if cfg.SlotTokenTTL <= 0 {
		errors = append(errors, fmt.Sprintf("SlotTokenTTL must be positive, got: %s", cfg.SlotTokenTTL))
	}

	if cfg.KafkaBookingTopic == "" {
		errors = append(errors, "KafkaBookingTopic cannot be empty")
	}
	if cfg.KafkaAvailabilityTopic == "" {
		errors = append(errors, "KafkaAvailabilityTopic cannot be empty")
	}
	if len(cfg.MetricsPath) < 2 || cfg.MetricsPath[0] != '/' {
		errors = append(errors, fmt.Sprintf("MetricsPath must be an absolute path, got: %q", cfg.MetricsPath))
	}

	if len(cfg.PhoneRegions) == 0 {
		errors = append(errors, "PhoneRegions cannot be empty")
	}
	for _, region := range cfg.PhoneRegions {
		if len(region) != 2 {
			errors = append(errors, fmt.Sprintf("PhoneRegions entries must be ISO 3166 alpha-2 codes, got: %q", region))
		}
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"redis_addr", cfg.RedisAddr,
		"redis_password_set", cfg.RedisPassword != "",
		"redis_db", cfg.RedisDB,
		"port", cfg.Port,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"slot_granularity_min", cfg.SlotGranularityMin,
		"search_horizon_days", cfg.SearchHorizonDays,
		"recalc_concurrency", cfg.RecalcConcurrency,
		"recalc_cron", cfg.RecalcCron,
		"recalc_timeout", cfg.RecalcTimeout,
		"next_available_cache_ttl", cfg.NextAvailableCacheTTL,
		"slot_token_key_set", cfg.SlotTokenKey != "",
		"slot_token_ttl", cfg.SlotTokenTTL,
		"kafka_booking_topic", cfg.KafkaBookingTopic,
		"kafka_availability_topic", cfg.KafkaAvailabilityTopic,
		"metrics_path", cfg.MetricsPath,
		"phone_regions", cfg.PhoneRegions,
	)
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown(cfg.Log, cfg.ShutdownTimeout)
}

func NormalizePaginationLimit(limit int) int {
	if limit <= 0 {
		limit = 10
	} else if limit > DefaultPaginationLimit {
		limit = DefaultPaginationLimit
	}
	return limit
}

func NormalizeOffset(offset int64) int64 {
	return max(0, offset)
}

func getEnvList(key, fallback string) []string {
	value := getEnvStr(key, fallback)
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.ToUpper(strings.TrimSpace(item)); item != "" {
			out = append(out, item)
		}
	}
	return out
}
