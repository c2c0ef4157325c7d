package events

import (
	"opatam/pkg/kafka"
	kafka_config "opatam/pkg/kafka/config"
	kafka_middleware "opatam/pkg/kafka/middleware"
	"opatam/pkg/logger"
)

// NewPublisher returns a Kafka backed publisher for topic, or a NopPublisher
// when Kafka is disabled. The returned close func is never nil.
func NewPublisher(cfg *kafka_config.Config, topic, source string, log *logger.Logger) (Publisher, func() error, error) {
	if !cfg.Enabled {
		log.Info("Kafka disabled, events are dropped", "topic", topic)
		return NopPublisher{}, func() error { return nil }, nil
	}

	producer, err := kafka.NewProducer(cfg, topic, topic+".dlq", log)
	if err != nil {
		return nil, nil, err
	}
	if cfg.EnableMiddleware {
		producer.Use(kafka_middleware.MetricsProducerMiddleware())
		producer.Use(kafka_middleware.LoggingProducerMiddleware(log))
	}

	log.Info("Kafka publisher ready", "topic", topic, "brokers", cfg.Brokers)
	return NewKafkaPublisher(producer, source), producer.Close, nil
}
