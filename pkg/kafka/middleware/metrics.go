package kafka_middleware

import (
	"context"
	"time"

	"opatam/pkg/kafka"
	"opatam/pkg/metrics"
)

const (
	directionPublish = "publish"
	directionConsume = "consume"
)

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func MetricsProducerMiddleware() kafka.ProducerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next func(ctx context.Context, msg kafka.Message) error) error {
		start := time.Now()
		err := next(ctx, msg)

		metrics.KafkaDuration.WithLabelValues(directionPublish, msg.Topic).Observe(time.Since(start).Seconds())
		metrics.KafkaMessages.WithLabelValues(directionPublish, msg.Topic, outcome(err)).Inc()
		return err
	}
}

func MetricsConsumerMiddleware() kafka.ConsumerMiddleware {
	return func(ctx context.Context, msg kafka.Message, next kafka.MessageHandler) error {
		start := time.Now()
		err := next(ctx, msg)

		metrics.KafkaDuration.WithLabelValues(directionConsume, msg.Topic).Observe(time.Since(start).Seconds())
		metrics.KafkaMessages.WithLabelValues(directionConsume, msg.Topic, outcome(err)).Inc()
		return err
	}
}
