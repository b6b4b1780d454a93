package email

import (
	"context"
	"log/slog"

	"github.com/Domenick1991/seatbooking/internal/kafka"
	"github.com/Domenick1991/seatbooking/internal/logging"
)

type MealNotification struct {
	To          string
	Name        string
	Date        string
	SeatID      string
	LunchOption string
}

// Sender records outgoing mail in the log. Delivery is done by the mail
// relay that tails these entries.
type Sender struct {
	log *slog.Logger
}

func NewSender(logger *slog.Logger) *Sender {
	return &Sender{log: logging.OrDiscard(logger)}
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	s.log.InfoContext(ctx, "send booking email",
		slog.String("type", event.Type),
		slog.String("user_id", event.UserID),
		slog.String("booking_id", event.BookingID),
		slog.String("seat_id", event.SeatID),
		slog.String("date", event.BookingDate),
	)
	return nil
}

func (s *Sender) SendMealNotification(ctx context.Context, n MealNotification) error {
	s.log.InfoContext(ctx, "send meal email",
		slog.String("to", n.To),
		slog.String("date", n.Date),
		slog.String("seat_id", n.SeatID),
		slog.String("lunch_option", n.LunchOption),
	)
	return nil
}
