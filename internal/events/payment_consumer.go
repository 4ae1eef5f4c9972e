package events

import (
	"context"
	"errors"

	"github.com/DriveNow-Rental/service-booking/internal/application"
	"github.com/DriveNow-Rental/service-booking/pkg/domain"
	"github.com/DriveNow-Rental/service-booking/pkg/kafka"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// PaymentCompleted is the payment service event that settles a booking.
const PaymentCompleted = "payment.completed"

// PaymentCompletedEvent is the data of a payment.completed event.
type PaymentCompletedEvent struct {
	PaymentID   uuid.UUID `json:"payment_id"`
	BookingID   uuid.UUID `json:"booking_id"`
	AmountCents int64     `json:"amount_cents"`
	Currency    string    `json:"currency"`
}

// PaymentConfirmer marks a booking's payment as completed.
type PaymentConfirmer interface {
	ConfirmPayment(ctx context.Context, bookingID uuid.UUID) (*application.BookingDTO, error)
}

// PaymentEventConsumer listens to payment events and confirms booking payments.
type PaymentEventConsumer struct {
	consumer *kafka.Consumer
	service  PaymentConfirmer
	logger   *zap.Logger
}

// NewPaymentEventConsumer creates a new PaymentEventConsumer.
func NewPaymentEventConsumer(
	brokers []string,
	groupID string,
	topic string,
	service PaymentConfirmer,
	logger *zap.Logger,
) *PaymentEventConsumer {
	return &PaymentEventConsumer{
		consumer: kafka.NewConsumer(brokers, groupID, topic, logger),
		service:  service,
		logger:   logger,
	}
}

// Start begins consuming payment events. This blocks until the context is cancelled.
func (c *PaymentEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.HandleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *PaymentEventConsumer) Close() error {
	return c.consumer.Close()
}

// HandleMessage processes one payment message. Only transient failures are
// returned; the consumer retries the same message until it is handled.
func (c *PaymentEventConsumer) HandleMessage(ctx context.Context, msg kafkago.Message) error {
	cloudEvent, err := kafka.ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from payment topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}

	switch cloudEvent.Type {
	case PaymentCompleted:
		return c.handlePaymentCompleted(ctx, cloudEvent)
	default:
		c.logger.Debug("ignoring unhandled payment event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

func (c *PaymentEventConsumer) handlePaymentCompleted(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	var evt PaymentCompletedEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse PaymentCompletedEvent data", zap.Error(err))
		return nil
	}
	if evt.BookingID == uuid.Nil {
		c.logger.Error("payment event has no booking id", zap.String("event_id", cloudEvent.ID))
		return nil
	}

	c.logger.Info("processing payment completed event",
		zap.String("booking_id", evt.BookingID.String()),
		zap.String("payment_id", evt.PaymentID.String()),
	)

	_, err := c.service.ConfirmPayment(ctx, evt.BookingID)
	switch {
	case err == nil:
		c.logger.Info("booking payment confirmed",
			zap.String("booking_id", evt.BookingID.String()),
		)
		return nil
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrInvalidState):
		// Redelivery of an already applied event, or a booking that cannot be paid.
		c.logger.Warn("payment event not applied",
			zap.String("booking_id", evt.BookingID.String()),
			zap.Error(err),
		)
		return nil
	default:
		c.logger.Error("failed to confirm payment",
			zap.String("booking_id", evt.BookingID.String()),
			zap.Error(err),
		)
		return err
	}
}
