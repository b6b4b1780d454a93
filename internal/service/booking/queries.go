package booking

import (
	"context"
	"sort"

	"github.com/Domenick1991/seatbooking/internal/apperror"
	"github.com/Domenick1991/seatbooking/internal/domain"
)

func (s *BookingService) GetBooking(ctx context.Context, bookingID string, actor domain.Actor) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, s.internal(ctx, "failed to retrieve booking", err)
	}
	if b == nil {
		return nil, apperror.NotFound("booking not found")
	}
	if b.UserID != actor.UserID && !actor.IsAdmin {
		return nil, apperror.Forbidden("you can only view your own bookings")
	}
	return b, nil
}

// ListUpcoming returns the user's days in the office from today on. Recurring
// bookings are expanded up to the configured horizon.
func (s *BookingService) ListUpcoming(ctx context.Context, userID string) ([]domain.Occurrence, error) {
	today := s.today()
	bookings, err := s.bookings.FindUserUpcomingBookings(ctx, userID, today)
	if err != nil {
		return nil, s.internal(ctx, "failed to list bookings", err)
	}

	start, _ := domain.ParseDate(today)
	horizon := domain.FormatDate(start.AddDate(0, 0, s.horizonDays))

	occurrences := make([]domain.Occurrence, 0, len(bookings))
	for i := range bookings {
		b := &bookings[i]
		dates := []string{b.BookingDate}
		if b.IsRecurring() {
			dates = append(dates, b.Recurring.Occurrences(today, horizon)...)
		}
		seen := make(map[string]bool, len(dates))
		for _, date := range dates {
			if seen[date] || date < today {
				continue
			}
			seen[date] = true
			if occ, ok := b.OccurrenceOn(date); ok {
				occurrences = append(occurrences, occ)
			}
		}
	}

	sort.SliceStable(occurrences, func(i, j int) bool {
		if occurrences[i].Date != occurrences[j].Date {
			return occurrences[i].Date < occurrences[j].Date
		}
		return occurrences[i].SeatID < occurrences[j].SeatID
	})
	return occurrences, nil
}
