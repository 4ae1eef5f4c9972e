//go:build integration

package main_test

import (
	"context"
	"testing"
	"time"

	"github.com/DriveNow-Rental/service-booking/internal/application"
	bookingDomain "github.com/DriveNow-Rental/service-booking/internal/domain/booking"
	bookingEvents "github.com/DriveNow-Rental/service-booking/internal/events"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPaymentCompleted_ConfirmsPayment drives a booking to COMPLETED, publishes
// payment.completed on payment.events and expects the booking to be marked paid
// with a booking.payment_confirmed event on booking.events.
func TestPaymentCompleted_ConfirmsPayment(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupBookingStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()
	defer func() { _ = stack.Consumer.Close() }()

	ctx := context.Background()
	customer, driver, vehicle := seedResources(t, infra.DB)

	created, err := stack.Bookings.CreateBooking(ctx, application.CreateBookingRequest{
		CustomerID: customer,
		VehicleID:  vehicle,
		StartDate:  "2024-07-01",
		EndDate:    "2024-07-03",
		Pickup:     bookingDomain.Location{Address: "1 Depot Way"},
		Dropoff:    bookingDomain.Location{Address: "22 Airport Rd"},
	})
	require.NoError(t, err)

	_, err = stack.Assignment.AssignDriver(ctx, created.ID, &driver)
	require.NoError(t, err)
	_, err = stack.Bookings.UpdateTripStatus(ctx, created.ID, driver, bookingDomain.StatusOngoing)
	require.NoError(t, err)
	_, err = stack.Bookings.UpdateTripStatus(ctx, created.ID, driver, bookingDomain.StatusCompleted)
	require.NoError(t, err)

	v, err := stack.Store.Vehicles().Resolve(ctx, vehicle)
	require.NoError(t, err)
	assert.True(t, v.Available, "completed booking releases the vehicle")

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() { _ = stack.Consumer.Start(runCtx) }()
	time.Sleep(3 * time.Second) // Wait for consumer group join.

	publishTestEvent(t, infra.KafkaBrokers, topicPaymentEvents, created.ID.String(),
		"service-payment", bookingEvents.PaymentCompleted, bookingEvents.PaymentCompletedEvent{
			PaymentID:   uuid.New(),
			BookingID:   created.ID,
			AmountCents: created.TotalPriceCents,
			Currency:    created.Currency,
		})

	model := waitForPaymentStatus(t, infra.DB, created.ID, "COMPLETED", 15*time.Second)
	assert.Equal(t, "COMPLETED", model.Status)
	assert.Equal(t, int64(12000), model.TotalPriceCents)

	ce := consumeOneEvent(t, infra.KafkaBrokers, topicBookingEvents,
		string(application.EventPaymentConfirmed), 15*time.Second)

	var confirmed application.PaymentConfirmedPayload
	require.NoError(t, ce.ParseData(&confirmed))
	assert.Equal(t, created.ID, confirmed.BookingID)
	assert.Equal(t, created.BookingNumber, confirmed.BookingNumber)
	assert.Equal(t, int64(12000), confirmed.TotalPriceCents)
	assert.Equal(t, bookingEvents.Source, ce.Source)
}

// TestBookingCreated_PublishesEvent checks the created event reaches Kafka.
func TestBookingCreated_PublishesEvent(t *testing.T) {
	infra := setupContainers(t)
	defer infra.Cleanup()

	stack := setupBookingStack(t, infra.DB, infra.KafkaBrokers)
	defer stack.CleanupProducer()

	customer, _, vehicle := seedResources(t, infra.DB)
	created, err := stack.Bookings.CreateBooking(context.Background(), application.CreateBookingRequest{
		CustomerID: customer,
		VehicleID:  vehicle,
		StartDate:  "2024-09-10",
		EndDate:    "2024-09-10",
		Pickup:     bookingDomain.Location{Address: "1 Depot Way"},
		Dropoff:    bookingDomain.Location{Address: "22 Airport Rd"},
	})
	require.NoError(t, err)

	ce := consumeOneEvent(t, infra.KafkaBrokers, topicBookingEvents,
		string(application.EventBookingCreated), 15*time.Second)

	var payload application.BookingCreatedPayload
	require.NoError(t, ce.ParseData(&payload))
	assert.Equal(t, created.ID, payload.BookingID)
	assert.Equal(t, "2024-09-10", payload.StartDate)
	assert.Equal(t, int64(4000), payload.TotalPriceCents)
}
