package kafka

import (
	"time"

	"github.com/Domenick1991/seatbooking/internal/domain"
)

const (
	EventBookingCreated  = "booking_created"
	EventBookingUpdated  = "booking_updated"
	EventBookingCanceled = "booking_canceled"
)

type BookingEvent struct {
	Type           string    `json:"type"`
	BookingID      string    `json:"booking_id"`
	UserID         string    `json:"user_id"`
	ActorID        string    `json:"actor_id,omitempty"`
	SeatID         string    `json:"seat_id"`
	BookingDate    string    `json:"booking_date"`
	OccurrenceDate string    `json:"occurrence_date,omitempty"`
	LunchOption    string    `json:"lunch_option,omitempty"`
	DurationType   string    `json:"duration_type"`
	Status         string    `json:"status"`
	Recurring      bool      `json:"recurring"`
	OccurredAt     time.Time `json:"occurred_at"`
}

func NewBookingEvent(eventType string, b *domain.Booking, actorID string, at time.Time) BookingEvent {
	return BookingEvent{
		Type:         eventType,
		BookingID:    b.ID,
		UserID:       b.UserID,
		ActorID:      actorID,
		SeatID:       b.SeatID,
		BookingDate:  b.BookingDate,
		LunchOption:  string(b.LunchOption),
		DurationType: string(b.DurationType),
		Status:       string(b.Status),
		Recurring:    b.IsRecurring(),
		OccurredAt:   at.UTC(),
	}
}
