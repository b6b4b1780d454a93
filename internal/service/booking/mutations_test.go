package booking

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/Domenick1991/seatbooking/internal/apperror"
	"github.com/Domenick1991/seatbooking/internal/domain"
	"github.com/Domenick1991/seatbooking/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestBookingService_GetSeatAvailability(t *testing.T) {
	service, _, seatService := newScenario(t)
	ctx := context.Background()

	_, err := seatService.SetDayOverride(ctx, actorOf(admin), "2025-03-11", 10)
	require.NoError(t, err)
	mine, err := service.BookSeat(ctx, BookSeatInput{Actor: actorOf(alice), Date: "2025-03-11", SeatID: "T1A1"})
	require.NoError(t, err)
	_, err = service.BookSeat(ctx, BookSeatInput{Actor: actorOf(bob), Date: "2025-03-11", SeatID: "T1B3"})
	require.NoError(t, err)

	a, err := service.GetSeatAvailability(ctx, "2025-03-11", "aad-alice")

	require.NoError(t, err)
	assert.Equal(t, 40, a.DefaultSeatCount)
	require.NotNil(t, a.OverrideSeatCount)
	assert.Equal(t, 10, *a.OverrideSeatCount)
	assert.Equal(t, 2, a.BookingsCount)
	assert.Equal(t, 8, a.AvailableSeats)
	assert.ElementsMatch(t, []string{"T1A1", "T1B3"}, a.BookedSeatIDs)
	require.NotNil(t, a.MyBooking)
	assert.Equal(t, mine.ID, a.MyBooking.BookingID)
	assert.Equal(t, "T1A1", a.MyBooking.SeatID)

	anon, err := service.GetSeatAvailability(ctx, "2025-03-11", "")
	require.NoError(t, err)
	assert.Nil(t, anon.MyBooking)
}

func TestBookingService_GetSeatAvailability_NeverNegative(t *testing.T) {
	bookings := &MockBookingRepository{}
	capacity := &MockCapacityResolver{}
	service := NewBookingService(bookings, memory.NewUserRepository(), capacity, WithClock(fixedClock))
	ctx := context.Background()

	zero := 0
	existing := make([]domain.Booking, 3)
	for i := range existing {
		existing[i] = domain.Booking{ID: fmt.Sprintf("b%d", i), SeatID: fmt.Sprintf("T1A%d", i+1), UserID: fmt.Sprintf("u%d", i)}
	}
	capacity.On("ResolveCapacity", ctx, "2025-03-11").Return(domain.Capacity{DefaultSeatCount: 40, OverrideCount: &zero}, nil).Once()
	bookings.On("FindAllBookingsByDate", ctx, "2025-03-11").Return(existing, nil).Once()

	a, err := service.GetSeatAvailability(ctx, "2025-03-11", "")

	require.NoError(t, err)
	assert.Equal(t, 0, a.AvailableSeats)
	assert.Equal(t, 3, a.BookingsCount)
}

func TestBookingService_GetSeatAvailability_Errors(t *testing.T) {
	bookings := &MockBookingRepository{}
	capacity := &MockCapacityResolver{}
	service := NewBookingService(bookings, memory.NewUserRepository(), capacity, WithClock(fixedClock))
	ctx := context.Background()

	_, err := service.GetSeatAvailability(ctx, "tomorrow", "")
	assertStatus(t, err, http.StatusBadRequest)

	capacity.On("ResolveCapacity", ctx, "2025-03-11").Return(domain.Capacity{DefaultSeatCount: 40}, nil)
	bookings.On("FindAllBookingsByDate", ctx, "2025-03-11").Return(nil, errors.New("timeout")).Once()

	_, err = service.GetSeatAvailability(ctx, "2025-03-11", "")
	assertStatus(t, err, http.StatusInternalServerError)
	assert.Equal(t, "failed to retrieve availability", apperror.Message(err))
}

func TestBookingService_CancelBooking(t *testing.T) {
	service, store, _ := newScenario(t)
	ctx := context.Background()

	past, err := store.Bookings.Create(ctx, &domain.Booking{ID: "past", UserID: "aad-alice", SeatID: "T1A1",
		BookingDate: "2025-03-07", Status: domain.BookingStatusActive})
	require.NoError(t, err)
	upcoming, err := service.BookSeat(ctx, BookSeatInput{Actor: actorOf(alice), Date: "2025-03-12", SeatID: "T1A1"})
	require.NoError(t, err)

	t.Run("past booking is rejected", func(t *testing.T) {
		_, err := service.CancelBooking(ctx, past.ID, actorOf(alice), CancelInput{})
		assertStatus(t, err, http.StatusBadRequest)
		assert.Equal(t, "cannot cancel past bookings", apperror.Message(err))
	})

	t.Run("unknown booking", func(t *testing.T) {
		_, err := service.CancelBooking(ctx, "missing", actorOf(alice), CancelInput{})
		assertStatus(t, err, http.StatusNotFound)
	})

	t.Run("someone else's booking", func(t *testing.T) {
		_, err := service.CancelBooking(ctx, upcoming.ID, actorOf(bob), CancelInput{})
		assertStatus(t, err, http.StatusForbidden)
	})

	t.Run("owner cancels", func(t *testing.T) {
		canceled, err := service.CancelBooking(ctx, upcoming.ID, actorOf(alice), CancelInput{})
		require.NoError(t, err)
		assert.Equal(t, domain.BookingStatusCanceled, canceled.Status)
		require.NotNil(t, canceled.CanceledAt)
		assert.Equal(t, "aad-alice", canceled.CanceledBy)
	})

	t.Run("canceling again is a no-op", func(t *testing.T) {
		again, err := service.CancelBooking(ctx, upcoming.ID, actorOf(alice), CancelInput{})
		require.NoError(t, err)
		assert.Equal(t, domain.BookingStatusCanceled, again.Status)
	})
}

func TestBookingService_CancelBooking_ByAdmin(t *testing.T) {
	service, _, _ := newScenario(t)
	ctx := context.Background()

	b, err := service.BookSeat(ctx, BookSeatInput{Actor: actorOf(bob), Date: "2025-03-12", SeatID: "T4B5"})
	require.NoError(t, err)

	canceled, err := service.CancelBooking(ctx, b.ID, actorOf(admin), CancelInput{})

	require.NoError(t, err)
	assert.Equal(t, "aad-admin", canceled.CanceledBy)
}

func TestBookingService_CancelBooking_SingleOccurrence(t *testing.T) {
	service, _, _ := newScenario(t)
	ctx := context.Background()

	b, err := service.BookSeat(ctx, BookSeatInput{
		Actor:     actorOf(alice),
		Date:      "2025-03-11",
		SeatID:    "T2A2",
		Recurring: &domain.Recurring{DaysOfWeek: []int{2, 4}},
	})
	require.NoError(t, err)

	_, err = service.CancelBooking(ctx, b.ID, actorOf(alice), CancelInput{Date: "2025-03-12"})
	assertStatus(t, err, http.StatusBadRequest)

	updated, err := service.CancelBooking(ctx, b.ID, actorOf(alice), CancelInput{Date: "2025-03-13"})
	require.NoError(t, err)
	assert.Equal(t, domain.BookingStatusActive, updated.Status)
	require.Len(t, updated.Overrides, 1)
	assert.True(t, updated.Overrides[0].Canceled)

	upcoming, err := service.ListUpcoming(ctx, "aad-alice")
	require.NoError(t, err)
	for _, occ := range upcoming {
		assert.NotEqual(t, "2025-03-13", occ.Date)
	}
}

func TestBookingService_UpdateBooking_Direct(t *testing.T) {
	service, _, _ := newScenario(t)
	ctx := context.Background()

	b, err := service.BookSeat(ctx, BookSeatInput{Actor: actorOf(alice), Date: "2025-03-11", SeatID: "T1A1", Duration: "Full day"})
	require.NoError(t, err)

	updated, err := service.UpdateBooking(ctx, b.ID, "aad-alice", UpdateInput{
		LunchOption: strPtr("vegan"),
		Duration:    strPtr("1 hour"),
	}, UpdateOptions{})

	require.NoError(t, err)
	assert.Equal(t, domain.LunchVegan, updated.LunchOption)
	assert.Equal(t, "1 hour", updated.Duration)
	assert.Equal(t, domain.DurationHour, updated.DurationType)
	assert.Empty(t, updated.Overrides)
}

func TestBookingService_UpdateBooking_Rules(t *testing.T) {
	service, store, _ := newScenario(t)
	ctx := context.Background()

	b, err := service.BookSeat(ctx, BookSeatInput{Actor: actorOf(alice), Date: "2025-03-11", SeatID: "T1A1"})
	require.NoError(t, err)
	past, err := store.Bookings.Create(ctx, &domain.Booking{ID: "past", UserID: "aad-alice", SeatID: "T1A1",
		BookingDate: "2025-03-03", Status: domain.BookingStatusActive})
	require.NoError(t, err)

	_, err = service.UpdateBooking(ctx, b.ID, "aad-admin", UpdateInput{LunchOption: strPtr("veg")}, UpdateOptions{})
	assertStatus(t, err, http.StatusForbidden)

	_, err = service.UpdateBooking(ctx, b.ID, "aad-alice", UpdateInput{}, UpdateOptions{})
	assertStatus(t, err, http.StatusBadRequest)

	_, err = service.UpdateBooking(ctx, b.ID, "aad-alice", UpdateInput{LunchOption: strPtr("sushi")}, UpdateOptions{})
	assertStatus(t, err, http.StatusBadRequest)

	_, err = service.UpdateBooking(ctx, past.ID, "aad-alice", UpdateInput{LunchOption: strPtr("veg")}, UpdateOptions{})
	assertStatus(t, err, http.StatusBadRequest)

	_, err = service.UpdateBooking(ctx, "missing", "aad-alice", UpdateInput{LunchOption: strPtr("veg")}, UpdateOptions{})
	assertStatus(t, err, http.StatusNotFound)

	_, err = service.CancelBooking(ctx, b.ID, actorOf(alice), CancelInput{})
	require.NoError(t, err)
	_, err = service.UpdateBooking(ctx, b.ID, "aad-alice", UpdateInput{LunchOption: strPtr("veg")}, UpdateOptions{})
	assertStatus(t, err, http.StatusBadRequest)
}

func TestBookingService_UpdateBooking_RecurringOverride(t *testing.T) {
	service, _, _ := newScenario(t)
	ctx := context.Background()

	b, err := service.BookSeat(ctx, BookSeatInput{
		Actor:       actorOf(alice),
		Date:        "2025-03-11",
		SeatID:      "T2A2",
		LunchOption: "non-veg",
		Recurring:   &domain.Recurring{DaysOfWeek: []int{2, 4}},
	})
	require.NoError(t, err)

	updated, err := service.UpdateBooking(ctx, b.ID, "aad-alice",
		UpdateInput{LunchOption: strPtr("veg")}, UpdateOptions{Date: "2025-03-13"})
	require.NoError(t, err)
	require.Len(t, updated.Overrides, 1)
	assert.Equal(t, "2025-03-13", updated.Overrides[0].Date)
	assert.Equal(t, domain.LunchVeg, updated.Overrides[0].LunchOption)
	assert.Equal(t, domain.LunchNonVeg, updated.LunchOption, "the series itself is untouched")

	updated, err = service.UpdateBooking(ctx, b.ID, "aad-alice",
		UpdateInput{LunchOption: strPtr("vegan")}, UpdateOptions{Date: "2025-03-13"})
	require.NoError(t, err)
	require.Len(t, updated.Overrides, 1)
	assert.Equal(t, domain.LunchVegan, updated.Overrides[0].LunchOption)

	occ, ok := updated.OccurrenceOn("2025-03-13")
	require.True(t, ok)
	assert.Equal(t, domain.LunchVegan, occ.LunchOption)

	_, err = service.UpdateBooking(ctx, b.ID, "aad-alice",
		UpdateInput{LunchOption: strPtr("veg")}, UpdateOptions{Date: "2025-03-14"})
	assertStatus(t, err, http.StatusBadRequest)
}

func TestBookingService_UpdateBooking_PublishesEvent(t *testing.T) {
	store := memory.NewStore(alice)
	producer := &MockProducer{}
	service := NewBookingService(store.Bookings, store.Users, &MockCapacityResolver{},
		WithClock(fixedClock), WithProducer(producer, "booking-events"))
	ctx := context.Background()

	_, err := store.Bookings.Create(ctx, &domain.Booking{ID: "b1", UserID: "aad-alice", SeatID: "T1A1",
		BookingDate: "2025-03-11", Status: domain.BookingStatusActive})
	require.NoError(t, err)
	producer.On("PublishWithRetry", ctx, "booking-events", "b1", mock.Anything, publishAttempts).Return(nil).Once()

	_, err = service.UpdateBooking(ctx, "b1", "aad-alice", UpdateInput{LunchOption: strPtr("veg")}, UpdateOptions{})

	require.NoError(t, err)
	producer.AssertExpectations(t)
}

func TestBookingService_GetBooking(t *testing.T) {
	service, _, _ := newScenario(t)
	ctx := context.Background()

	b, err := service.BookSeat(ctx, BookSeatInput{Actor: actorOf(alice), Date: "2025-03-11", SeatID: "T1A1"})
	require.NoError(t, err)

	got, err := service.GetBooking(ctx, b.ID, actorOf(alice))
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)

	_, err = service.GetBooking(ctx, b.ID, actorOf(admin))
	assert.NoError(t, err)

	_, err = service.GetBooking(ctx, b.ID, actorOf(bob))
	assertStatus(t, err, http.StatusForbidden)

	_, err = service.GetBooking(ctx, "nope", actorOf(alice))
	assertStatus(t, err, http.StatusNotFound)
}

func TestBookingService_ListUpcoming(t *testing.T) {
	service, store, _ := newScenario(t)
	ctx := context.Background()

	_, err := store.Bookings.Create(ctx, &domain.Booking{ID: "old", UserID: "aad-alice", SeatID: "T1A1",
		BookingDate: "2025-03-03", Status: domain.BookingStatusActive})
	require.NoError(t, err)
	_, err = service.BookSeat(ctx, BookSeatInput{Actor: actorOf(alice), Date: "2025-03-12", SeatID: "T4A4"})
	require.NoError(t, err)
	_, err = service.BookSeat(ctx, BookSeatInput{
		Actor:     actorOf(alice),
		Date:      "2025-03-11",
		SeatID:    "T2A2",
		Recurring: &domain.Recurring{DaysOfWeek: []int{2}, EndDate: "2025-03-25"},
	})
	require.NoError(t, err)
	_, err = service.BookSeat(ctx, BookSeatInput{Actor: actorOf(bob), Date: "2025-03-12", SeatID: "T4A3"})
	require.NoError(t, err)

	upcoming, err := service.ListUpcoming(ctx, "aad-alice")
	require.NoError(t, err)

	dates := make([]string, 0, len(upcoming))
	for _, occ := range upcoming {
		assert.Equal(t, "aad-alice", occ.UserID)
		dates = append(dates, occ.Date)
	}
	assert.Equal(t, []string{"2025-03-11", "2025-03-12", "2025-03-18", "2025-03-25"}, dates)
}

func TestBookingService_ListUpcoming_RepositoryError(t *testing.T) {
	bookings := &MockBookingRepository{}
	service := NewBookingService(bookings, memory.NewUserRepository(), &MockCapacityResolver{}, WithClock(fixedClock))
	ctx := context.Background()

	bookings.On("FindUserUpcomingBookings", ctx, "aad-alice", "2025-03-10").Return(nil, errors.New("boom")).Once()

	_, err := service.ListUpcoming(ctx, "aad-alice")
	assertStatus(t, err, http.StatusInternalServerError)
	assert.Equal(t, "failed to list bookings", apperror.Message(err))
}
