package repository

import (
	"context"

	"github.com/Domenick1991/seatbooking/internal/domain"
)

// Lookups return (nil, nil) when nothing matches. Errors are storage failures
// or the domain conflict errors listed on each method.

type BookingRepository interface {
	// FindAllBookingsByDate returns the active bookings whose booking date is date.
	FindAllBookingsByDate(ctx context.Context, date string) ([]domain.Booking, error)
	HasUserBookingOnDate(ctx context.Context, userID, date string) (bool, error)
	CountBookingsByDate(ctx context.Context, date string) (int, error)
	// FindUserUpcomingBookings returns active bookings of the user dated on or
	// after fromDate, plus recurring series that are still running on fromDate.
	FindUserUpcomingBookings(ctx context.Context, userID, fromDate string) ([]domain.Booking, error)
	// FindRecurringActive returns active recurring series of all users that
	// have not ended before fromDate.
	FindRecurringActive(ctx context.Context, fromDate string) ([]domain.Booking, error)
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	// Create fails with domain.ErrSeatAlreadyBooked or domain.ErrUserAlreadyBooked
	// when another active booking holds the seat or the user on that date.
	Create(ctx context.Context, booking *domain.Booking) (*domain.Booking, error)
	Update(ctx context.Context, id string, patch domain.BookingPatch) (*domain.Booking, error)
}

type SeatConfigurationRepository interface {
	GetDefaultConfig(ctx context.Context) (*domain.SeatConfiguration, error)
	// Create fails with domain.ErrConfigurationExists when a configuration is already stored.
	Create(ctx context.Context, cfg *domain.SeatConfiguration) (*domain.SeatConfiguration, error)
}

type DaySeatOverrideRepository interface {
	GetByDate(ctx context.Context, date string) (*domain.DaySeatOverride, error)
	Upsert(ctx context.Context, override *domain.DaySeatOverride) (*domain.DaySeatOverride, error)
}

type UserRepository interface {
	GetByAzureAdID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// Store groups the repositories of one storage driver.
type Store struct {
	Bookings  BookingRepository
	SeatsConf SeatConfigurationRepository
	Overrides DaySeatOverrideRepository
	Users     UserRepository
	Close     func()
}
