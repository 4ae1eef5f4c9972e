package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DriveNow-Rental/service-booking/internal/application"
	"github.com/DriveNow-Rental/service-booking/pkg/domain"
	"github.com/DriveNow-Rental/service-booking/pkg/kafka"
	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishEvent(ctx context.Context, topic, key string, ce kafka.CloudEvent) error {
	args := m.Called(ctx, topic, key, ce)
	return args.Error(0)
}

type mockConfirmer struct {
	mock.Mock
}

func (m *mockConfirmer) ConfirmPayment(ctx context.Context, bookingID uuid.UUID) (*application.BookingDTO, error) {
	args := m.Called(ctx, bookingID)
	dto, _ := args.Get(0).(*application.BookingDTO)
	return dto, args.Error(1)
}

func TestKafkaNotifier_PublishesCloudEventKeyedByBooking(t *testing.T) {
	pub := new(mockPublisher)
	notifier := NewKafkaNotifier(pub, "booking.events", zap.NewNop())

	bookingID := uuid.New()
	occurred := time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)
	pub.On("PublishEvent", mock.Anything, "booking.events", bookingID.String(), mock.MatchedBy(func(ce kafka.CloudEvent) bool {
		var data application.StatusChangedPayload
		if err := json.Unmarshal(ce.Data, &data); err != nil {
			return false
		}
		return ce.Type == "booking.status_changed" &&
			ce.Source == Source &&
			ce.Subject == "BK1" &&
			ce.Time.Equal(occurred) &&
			data.To == "CONFIRMED"
	})).Return(nil).Once()

	notifier.Notify(context.Background(), application.Event{
		Type:          application.EventStatusChanged,
		BookingID:     bookingID,
		BookingNumber: "BK1",
		OccurredAt:    occurred,
		Payload:       application.StatusChangedPayload{BookingID: bookingID, From: "PENDING", To: "CONFIRMED"},
	})

	pub.AssertExpectations(t)
}

func TestKafkaNotifier_SwallowsPublishFailure(t *testing.T) {
	pub := new(mockPublisher)
	notifier := NewKafkaNotifier(pub, "booking.events", zap.NewNop())
	pub.On("PublishEvent", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(errors.New("broker down")).Once()

	assert.NotPanics(t, func() {
		notifier.Notify(context.Background(), application.Event{Type: application.EventBookingCreated, BookingID: uuid.New()})
	})
	pub.AssertExpectations(t)
}

func newTestConsumer(confirmer PaymentConfirmer) *PaymentEventConsumer {
	return &PaymentEventConsumer{service: confirmer, logger: zap.NewNop()}
}

func paymentMessage(t *testing.T, eventType string, data any) kafkago.Message {
	t.Helper()
	ce, err := kafka.NewCloudEvent("service-payment", eventType, data)
	require.NoError(t, err)
	raw, err := json.Marshal(ce)
	require.NoError(t, err)
	return kafkago.Message{Topic: "payment.events", Value: raw}
}

func TestPaymentEventConsumer_ConfirmsPayment(t *testing.T) {
	confirmer := new(mockConfirmer)
	bookingID := uuid.New()
	confirmer.On("ConfirmPayment", mock.Anything, bookingID).Return(&application.BookingDTO{ID: bookingID}, nil).Once()

	msg := paymentMessage(t, PaymentCompleted, PaymentCompletedEvent{PaymentID: uuid.New(), BookingID: bookingID, AmountCents: 1000})
	require.NoError(t, newTestConsumer(confirmer).HandleMessage(context.Background(), msg))
	confirmer.AssertExpectations(t)
}

func TestPaymentEventConsumer_CommitsNonRetryableOutcomes(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"already paid", domain.NewInvalidStateMessage("payment already confirmed")},
		{"unknown booking", domain.NewNotFoundError("Booking", "x")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			confirmer := new(mockConfirmer)
			confirmer.On("ConfirmPayment", mock.Anything, mock.Anything).Return(nil, tt.err).Once()

			msg := paymentMessage(t, PaymentCompleted, PaymentCompletedEvent{BookingID: uuid.New()})
			assert.NoError(t, newTestConsumer(confirmer).HandleMessage(context.Background(), msg))
			confirmer.AssertExpectations(t)
		})
	}
}

func TestPaymentEventConsumer_ReturnsTransientFailure(t *testing.T) {
	confirmer := new(mockConfirmer)
	confirmer.On("ConfirmPayment", mock.Anything, mock.Anything).Return(nil, errors.New("connection reset")).Once()

	msg := paymentMessage(t, PaymentCompleted, PaymentCompletedEvent{BookingID: uuid.New()})
	assert.Error(t, newTestConsumer(confirmer).HandleMessage(context.Background(), msg))
}

func TestPaymentEventConsumer_SkipsMalformedAndUnknown(t *testing.T) {
	confirmer := new(mockConfirmer)
	c := newTestConsumer(confirmer)

	assert.NoError(t, c.HandleMessage(context.Background(), kafkago.Message{Value: []byte("not json")}))
	assert.NoError(t, c.HandleMessage(context.Background(), paymentMessage(t, "payment.refunded", map[string]string{})))
	assert.NoError(t, c.HandleMessage(context.Background(), paymentMessage(t, PaymentCompleted, PaymentCompletedEvent{})))

	confirmer.AssertNotCalled(t, "ConfirmPayment", mock.Anything, mock.Anything)
}
