package booking

import (
	"context"
	"log/slog"

	"github.com/Domenick1991/seatbooking/internal/apperror"
	"github.com/Domenick1991/seatbooking/internal/domain"
)

type Availability struct {
	Date              string
	DefaultSeatCount  int
	OverrideSeatCount *int
	BookingsCount     int
	AvailableSeats    int
	BookedSeatIDs     []string
	MyBooking         *MyBooking
}

type MyBooking struct {
	BookingID string
	SeatID    string
}

// GetSeatAvailability summarizes capacity and occupancy for date. When userID
// is set, the caller's own booking on that date is included.
func (s *BookingService) GetSeatAvailability(ctx context.Context, date, userID string) (*Availability, error) {
	if _, err := domain.ParseDate(date); err != nil {
		return nil, apperror.BadRequest("invalid date format, expected YYYY-MM-DD")
	}

	capacity, err := s.capacity.ResolveCapacity(ctx, date)
	if err != nil {
		return nil, s.availabilityFailed(ctx, date, err)
	}
	bookings, err := s.bookings.FindAllBookingsByDate(ctx, date)
	if err != nil {
		return nil, s.availabilityFailed(ctx, date, err)
	}

	a := &Availability{
		Date:              date,
		DefaultSeatCount:  capacity.DefaultSeatCount,
		OverrideSeatCount: capacity.OverrideCount,
		BookingsCount:     len(bookings),
		AvailableSeats:    max(0, capacity.Effective()-len(bookings)),
		BookedSeatIDs:     make([]string, 0, len(bookings)),
	}
	for _, b := range bookings {
		a.BookedSeatIDs = append(a.BookedSeatIDs, b.SeatID)
		if userID != "" && a.MyBooking == nil && b.UserID == userID {
			a.MyBooking = &MyBooking{BookingID: b.ID, SeatID: b.SeatID}
		}
	}
	return a, nil
}

func (s *BookingService) availabilityFailed(ctx context.Context, date string, err error) error {
	s.log.ErrorContext(ctx, "availability lookup failed", slog.String("date", date), slog.Any("error", err))
	return apperror.Internal("failed to retrieve availability", err)
}
