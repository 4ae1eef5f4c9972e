package events

import (
	"context"

	"github.com/DriveNow-Rental/service-booking/internal/application"
	"github.com/DriveNow-Rental/service-booking/pkg/kafka"
	"go.uber.org/zap"
)

// Source identifies this service in CloudEvent envelopes.
const Source = "service-booking"

// Publisher queues a CloudEvent on a topic.
type Publisher interface {
	PublishEvent(ctx context.Context, topic, key string, ce kafka.CloudEvent) error
}

// KafkaNotifier publishes booking lifecycle events, keyed by booking ID so
// every event of one booking lands on the same partition.
type KafkaNotifier struct {
	publisher Publisher
	topic     string
	logger    *zap.Logger
}

// NewKafkaNotifier creates a new KafkaNotifier.
func NewKafkaNotifier(publisher Publisher, topic string, logger *zap.Logger) *KafkaNotifier {
	return &KafkaNotifier{
		publisher: publisher,
		topic:     topic,
		logger:    logger,
	}
}

// Notify implements application.NotificationSink. Failures are logged only.
func (n *KafkaNotifier) Notify(ctx context.Context, event application.Event) {
	ce, err := kafka.NewCloudEvent(Source, string(event.Type), event.Payload)
	if err != nil {
		n.logger.Error("failed to build cloud event",
			zap.String("type", string(event.Type)),
			zap.String("booking_id", event.BookingID.String()),
			zap.Error(err),
		)
		return
	}
	ce.Subject = event.BookingNumber
	if !event.OccurredAt.IsZero() {
		ce.Time = event.OccurredAt
	}

	if err := n.publisher.PublishEvent(ctx, n.topic, event.BookingID.String(), ce); err != nil {
		n.logger.Error("failed to publish booking event",
			zap.String("type", string(event.Type)),
			zap.String("booking_id", event.BookingID.String()),
			zap.Error(err),
		)
		return
	}

	n.logger.Debug("booking event published",
		zap.String("type", string(event.Type)),
		zap.String("booking_id", event.BookingID.String()),
	)
}
