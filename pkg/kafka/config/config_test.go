package kafka_config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Brokers:                   []string{"localhost:9092"},
		ProducerMaxAttempts:       DefaultProducerMaxAttempts,
		ProducerBatchTimeout:      DefaultProducerBatchTimeout,
		ProducerRequireAcks:       DefaultProducerRequireAcks,
		ProducerCompression:       DefaultProducerCompression,
		ConsumerStartOffset:       DefaultConsumerStartOffset,
		ConsumerMinBytes:          DefaultConsumerMinBytes,
		ConsumerMaxBytes:          DefaultConsumerMaxBytes,
		ConsumerMaxWait:           DefaultConsumerMaxWait,
		ConsumerCommitInterval:    DefaultConsumerCommitInterval,
		ConsumerHeartbeatInterval: DefaultConsumerHeartbeatInterval,
		ConsumerSessionTimeout:    DefaultConsumerSessionTimeout,
		ConsumerRebalanceTimeout:  DefaultConsumerRebalanceTimeout,
		ConsumerMaxRetries:        DefaultConsumerMaxRetries,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{name: "oldest offset", mutate: func(c *Config) { c.ConsumerStartOffset = -2 }},
		{name: "no brokers", mutate: func(c *Config) { c.Brokers = nil }, wantErr: "broker"},
		{name: "empty broker", mutate: func(c *Config) { c.Brokers = []string{""} }, wantErr: "Broker 0"},
		{name: "bad compression", mutate: func(c *Config) { c.ProducerCompression = "brotli" }, wantErr: "ProducerCompression"},
		{name: "bad acks", mutate: func(c *Config) { c.ProducerRequireAcks = 2 }, wantErr: "ProducerRequireAcks"},
		{name: "bad offset", mutate: func(c *Config) { c.ConsumerStartOffset = -3 }, wantErr: "ConsumerStartOffset"},
		{name: "zero max wait", mutate: func(c *Config) { c.ConsumerMaxWait = 0 * time.Second }, wantErr: "ConsumerMaxWait"},
		{name: "negative retries", mutate: func(c *Config) { c.ConsumerMaxRetries = -1 }, wantErr: "ConsumerMaxRetries"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoad_Enabled(t *testing.T) {
	t.Setenv(EnvKafkaEnabled, "true")
	t.Setenv(EnvKafkaBrokers, " broker-1:9092 , broker-2:9092")

	cfg := Load()
	if !cfg.Enabled {
		t.Error("expected Kafka to be enabled")
	}
	if len(cfg.Brokers) != 2 || cfg.Brokers[1] != "broker-2:9092" {
		t.Errorf("Brokers = %v", cfg.Brokers)
	}
}

func TestLoad_DisabledSkipsValidation(t *testing.T) {
	t.Setenv(EnvKafkaEnabled, "false")
	t.Setenv(EnvKafkaProducerCompression, "brotli")

	cfg := Load()
	if cfg.Enabled {
		t.Error("expected Kafka to be disabled")
	}
	if cfg.ProducerCompression != "brotli" {
		t.Errorf("ProducerCompression = %q", cfg.ProducerCompression)
	}
}

func TestLoad_UnparsableValueFallsBack(t *testing.T) {
	t.Setenv(EnvKafkaConsumerMaxWait, "soon")
	t.Setenv(EnvKafkaProducerMaxAttempts, "5")

	cfg := Load()
	if cfg.ConsumerMaxWait != DefaultConsumerMaxWait {
		t.Errorf("ConsumerMaxWait = %s, want default", cfg.ConsumerMaxWait)
	}
	if cfg.ProducerMaxAttempts != 5 {
		t.Errorf("ProducerMaxAttempts = %d, want 5", cfg.ProducerMaxAttempts)
	}
}
