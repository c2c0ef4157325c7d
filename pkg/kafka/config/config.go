package kafka_config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the broker settings shared by the booking event producer and
// the recalculator's consumer.
type Config struct {
	// Enabled switches event publishing and consumption on. Services run
	// without Kafka when it is false.
	Enabled bool
	Brokers []string

	ProducerMaxAttempts  int
	ProducerBatchTimeout time.Duration
	ProducerRequireAcks  int    // -1 = all, 0 = none, 1 = leader only
	ProducerCompression  string // "none", "gzip", "snappy", "lz4", "zstd"
	ProducerAsync        bool

	ConsumerStartOffset       int64 // -1 = newest, -2 = oldest
	ConsumerMinBytes          int
	ConsumerMaxBytes          int
	ConsumerMaxWait           time.Duration
	ConsumerCommitInterval    time.Duration
	ConsumerHeartbeatInterval time.Duration
	ConsumerSessionTimeout    time.Duration
	ConsumerRebalanceTimeout  time.Duration
	ConsumerMaxRetries        int

	EnableMiddleware bool
}

// Load reads the config from the environment. It panics on an invalid config
// only when Kafka is enabled.
func Load() *Config {
	var brokers []string
	for _, b := range strings.Split(env(EnvKafkaBrokers, DefaultKafkaBrokers, parseString), ",") {
		brokers = append(brokers, strings.TrimSpace(b))
	}

	cfg := &Config{
		Enabled: env(EnvKafkaEnabled, DefaultKafkaEnabled, strconv.ParseBool),
		Brokers: brokers,

		ProducerMaxAttempts:  env(EnvKafkaProducerMaxAttempts, DefaultProducerMaxAttempts, strconv.Atoi),
		ProducerBatchTimeout: env(EnvKafkaProducerBatchTimeout, DefaultProducerBatchTimeout, time.ParseDuration),
		ProducerRequireAcks:  env(EnvKafkaProducerRequireAcks, DefaultProducerRequireAcks, strconv.Atoi),
		ProducerCompression:  env(EnvKafkaProducerCompression, DefaultProducerCompression, parseString),
		ProducerAsync:        env(EnvKafkaProducerAsync, DefaultProducerAsync, strconv.ParseBool),

		ConsumerStartOffset:       env(EnvKafkaConsumerStartOffset, int64(DefaultConsumerStartOffset), parseInt64),
		ConsumerMinBytes:          env(EnvKafkaConsumerMinBytes, DefaultConsumerMinBytes, strconv.Atoi),
		ConsumerMaxBytes:          env(EnvKafkaConsumerMaxBytes, DefaultConsumerMaxBytes, strconv.Atoi),
		ConsumerMaxWait:           env(EnvKafkaConsumerMaxWait, DefaultConsumerMaxWait, time.ParseDuration),
		ConsumerCommitInterval:    env(EnvKafkaConsumerCommitInterval, DefaultConsumerCommitInterval, time.ParseDuration),
		ConsumerHeartbeatInterval: env(EnvKafkaConsumerHeartbeatInterval, DefaultConsumerHeartbeatInterval, time.ParseDuration),
		ConsumerSessionTimeout:    env(EnvKafkaConsumerSessionTimeout, DefaultConsumerSessionTimeout, time.ParseDuration),
		ConsumerRebalanceTimeout:  env(EnvKafkaConsumerRebalanceTimeout, DefaultConsumerRebalanceTimeout, time.ParseDuration),
		ConsumerMaxRetries:        env(EnvKafkaConsumerMaxRetries, DefaultConsumerMaxRetries, strconv.Atoi),

		EnableMiddleware: env(EnvKafkaEnableMiddleware, DefaultEnableMiddleware, strconv.ParseBool),
	}

	if cfg.Enabled {
		if err := cfg.Validate(); err != nil {
			panic(fmt.Sprintf("Kafka configuration validation failed: %v", err))
		}
	}
	return cfg
}

var (
	validCompressions = map[string]bool{"none": true, "gzip": true, "snappy": true, "lz4": true, "zstd": true}
	validAcks         = map[int]bool{-1: true, 0: true, 1: true}
)

func (cfg *Config) Validate() error {
	var problems []string

	if len(cfg.Brokers) == 0 {
		problems = append(problems, "At least one Kafka broker is required")
	}
	for i, broker := range cfg.Brokers {
		if broker == "" {
			problems = append(problems, fmt.Sprintf("Broker %d cannot be empty", i))
		}
	}

	for _, c := range []struct {
		name  string
		value int
	}{
		{"ProducerMaxAttempts", cfg.ProducerMaxAttempts},
		{"ConsumerMinBytes", cfg.ConsumerMinBytes},
		{"ConsumerMaxBytes", cfg.ConsumerMaxBytes},
	} {
		if c.value <= 0 {
			problems = append(problems, fmt.Sprintf("%s must be positive, got: %d", c.name, c.value))
		}
	}

	for _, c := range []struct {
		name  string
		value time.Duration
	}{
		{"ProducerBatchTimeout", cfg.ProducerBatchTimeout},
		{"ConsumerMaxWait", cfg.ConsumerMaxWait},
		{"ConsumerCommitInterval", cfg.ConsumerCommitInterval},
		{"ConsumerHeartbeatInterval", cfg.ConsumerHeartbeatInterval},
		{"ConsumerSessionTimeout", cfg.ConsumerSessionTimeout},
		{"ConsumerRebalanceTimeout", cfg.ConsumerRebalanceTimeout},
	} {
		if c.value <= 0 {
			problems = append(problems, fmt.Sprintf("%s must be positive, got: %s", c.name, c.value))
		}
	}

	if !validCompressions[cfg.ProducerCompression] {
		problems = append(problems, fmt.Sprintf("ProducerCompression must be one of [none, gzip, snappy, lz4, zstd], got: %s", cfg.ProducerCompression))
	}
	if !validAcks[cfg.ProducerRequireAcks] {
		problems = append(problems, fmt.Sprintf("ProducerRequireAcks must be -1, 0, or 1, got: %d", cfg.ProducerRequireAcks))
	}
	if cfg.ConsumerStartOffset < -2 {
		problems = append(problems, fmt.Sprintf("ConsumerStartOffset must be -1 (newest), -2 (oldest), or >= 0, got: %d", cfg.ConsumerStartOffset))
	}
	if cfg.ConsumerMaxRetries < 0 {
		problems = append(problems, fmt.Sprintf("ConsumerMaxRetries cannot be negative, got: %d", cfg.ConsumerMaxRetries))
	}

	if len(problems) == 0 {
		return nil
	}
	var b strings.Builder
	b.WriteString("Configuration validation failed:\n")
	for i, p := range problems {
		fmt.Fprintf(&b, "  %d. %s\n", i+1, p)
	}
	return fmt.Errorf("%s", b.String())
}

func (cfg *Config) LogConfiguration(logFunc func(msg string, keysAndValues ...interface{})) {
	if logFunc == nil {
		return
	}
	if !cfg.Enabled {
		logFunc("Kafka disabled, events are not published or consumed")
		return
	}

	logFunc("Kafka configuration loaded",
		"brokers", cfg.Brokers,
		"producer_max_attempts", cfg.ProducerMaxAttempts,
		"producer_require_acks", cfg.ProducerRequireAcks,
		"producer_compression", cfg.ProducerCompression,
		"producer_async", cfg.ProducerAsync,
		"consumer_start_offset", cfg.ConsumerStartOffset,
		"consumer_max_wait", cfg.ConsumerMaxWait,
		"consumer_commit_interval", cfg.ConsumerCommitInterval,
		"consumer_max_retries", cfg.ConsumerMaxRetries,
		"enable_middleware", cfg.EnableMiddleware,
	)
}

// env falls back to def when key is unset or does not parse.
func env[T any](key string, def T, parse func(string) (T, error)) T {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := parse(raw)
	if err != nil {
		return def
	}
	return v
}

func parseString(s string) (string, error) { return s, nil }

func parseInt64(s string) (int64, error) { return strconv.ParseInt(s, 10, 64) }
