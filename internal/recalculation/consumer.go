package recalculation

import (
	"context"
	"errors"

	"opatam/internal/events"
	apperrors "opatam/pkg/errors"
	"opatam/pkg/kafka"
	kafka_config "opatam/pkg/kafka/config"
	kafka_middleware "opatam/pkg/kafka/middleware"
	"opatam/pkg/logger"
)

const ConsumerGroup = "opatam-recalculator"

// BookingEventHandler drops the cached next-available answers of the provider a
// booking event belongs to and recalculates it.
// Undecodable payloads and unknown providers are permanent failures so they go
// straight to the DLQ.
func BookingEventHandler(job *Job, log *logger.Logger) kafka.MessageHandler {
	return func(ctx context.Context, msg kafka.Message) error {
		switch msg.GetEventType() {
		case events.TypeBookingCreated, events.TypeBookingStatusChanged:
		default:
			log.Debug("Ignoring event", "event_type", msg.GetEventType(), "offset", msg.Offset)
			return nil
		}

		var evt events.BookingEvent
		if err := msg.DecodeValue(&evt); err != nil {
			return kafka.NewPermanentError("decode booking event", err)
		}
		if evt.ProviderID == "" {
			return kafka.NewPermanentError("booking event "+evt.BookingID+" has no provider_id", nil)
		}

		// any booking change can fill the last slot of a member or service the
		// stored date does not track
		job.invalidate(ctx, evt.ProviderID)

		diff, err := job.RecalculateOne(ctx, evt.ProviderID)
		if err != nil {
			if apperrors.HasCode(err, apperrors.CodeNotFound) || apperrors.HasCode(err, apperrors.CodeInvalidInput) {
				return kafka.NewPermanentError("recalculate provider "+evt.ProviderID, err)
			}
			return kafka.NewTransientError("recalculate provider "+evt.ProviderID, err)
		}
		if diff.Status == StatusError {
			return kafka.NewTransientError("recalculate provider "+evt.ProviderID, errors.New(diff.Error))
		}

		log.Info("Provider recalculated from booking event",
			"provider_id", evt.ProviderID,
			"booking_id", evt.BookingID,
			"status", diff.Status,
			"correlation_id", msg.GetCorrelationID(),
		)
		return nil
	}
}

// NewBookingEventConsumer subscribes the handler to the booking topic. Failed
// messages end up in <topic>.dlq.
func NewBookingEventConsumer(cfg *kafka_config.Config, topic string, job *Job, log *logger.Logger) (*kafka.Consumer, error) {
	consumer, err := kafka.NewConsumer(cfg, topic, ConsumerGroup, topic+".dlq", BookingEventHandler(job, log), log)
	if err != nil {
		return nil, err
	}
	if cfg.EnableMiddleware {
		consumer.Use(kafka_middleware.MetricsConsumerMiddleware())
		consumer.Use(kafka_middleware.LoggingConsumerMiddleware(log))
	}
	return consumer, nil
}
