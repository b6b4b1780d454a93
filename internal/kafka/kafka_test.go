package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/Domenick1991/seatbooking/internal/domain"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBookingEvent(t *testing.T) {
	at := time.Date(2025, 3, 10, 9, 0, 0, 0, time.FixedZone("x", 3600))
	b := &domain.Booking{
		ID:           "b1",
		UserID:       "aad-bob",
		SeatID:       "T1A1",
		BookingDate:  "2025-03-10",
		LunchOption:  domain.LunchVeg,
		DurationType: domain.DurationFullDay,
		Status:       domain.BookingStatusActive,
		Recurring:    &domain.Recurring{DaysOfWeek: []int{1}, StartDate: "2025-03-10"},
	}

	event := NewBookingEvent(EventBookingCreated, b, "aad-admin", at)

	assert.Equal(t, "booking_created", event.Type)
	assert.Equal(t, "aad-admin", event.ActorID)
	assert.Equal(t, "veg", event.LunchOption)
	assert.True(t, event.Recurring)
	assert.Equal(t, time.UTC, event.OccurredAt.Location())
}

func TestDecodeBookingEvent(t *testing.T) {
	payload, err := json.Marshal(BookingEvent{Type: EventBookingCanceled, BookingID: "b1", SeatID: "T2B1"})
	require.NoError(t, err)

	event, err := DecodeBookingEvent(kafka.Message{Value: payload})
	require.NoError(t, err)
	assert.Equal(t, EventBookingCanceled, event.Type)
	assert.Equal(t, "T2B1", event.SeatID)

	_, err = DecodeBookingEvent(kafka.Message{Value: []byte("{")})
	assert.Error(t, err)
}

func TestProducer_PublishRejectsUnmarshalable(t *testing.T) {
	p := NewProducer([]string{"localhost:9092"}, nil)
	defer p.Close()

	err := p.Publish(context.Background(), "topic", "key", map[string]any{"bad": make(chan int)})
	assert.ErrorContains(t, err, "failed to marshal payload")
}

func TestProducer_PublishWithRetry(t *testing.T) {
	p := NewProducer([]string{"localhost:9092"}, nil)
	defer p.Close()
	bad := map[string]any{"bad": make(chan int)}

	err := p.PublishWithRetry(context.Background(), "topic", "key", bad, 1)
	assert.ErrorContains(t, err, "failed after 1 retries")
	assert.ErrorContains(t, err, "failed to marshal payload")

	err = p.PublishWithRetry(context.Background(), "topic", "key", bad, 0)
	assert.ErrorContains(t, err, "failed after 1 retries")
}

func TestProducer_PublishWithRetryStopsOnCanceledContext(t *testing.T) {
	p := NewProducer([]string{"localhost:9092"}, nil)
	defer p.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := p.PublishWithRetry(ctx, "topic", "key", map[string]any{"bad": make(chan int)}, 3)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 400*time.Millisecond, "no backoff after cancel")
}

func TestProducer_CheckConnectionWithoutBrokers(t *testing.T) {
	p := NewProducer(nil, nil)
	assert.Error(t, p.CheckConnection(context.Background()))
}

func TestConsumer_CloseNil(t *testing.T) {
	var c *Consumer
	assert.NoError(t, c.Close())
}
