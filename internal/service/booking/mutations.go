package booking

import (
	"context"
	"log/slog"

	"github.com/Domenick1991/seatbooking/internal/apperror"
	"github.com/Domenick1991/seatbooking/internal/domain"
	"github.com/Domenick1991/seatbooking/internal/kafka"
)

// CancelInput optionally names one occurrence of a recurring booking. Without
// it the whole booking is canceled.
type CancelInput struct {
	Date string
}

type UpdateInput struct {
	LunchOption *string
	Duration    *string
}

type UpdateOptions struct {
	// Date selects one occurrence of a recurring booking.
	Date string
}

func (s *BookingService) CancelBooking(ctx context.Context, bookingID string, actor domain.Actor, input CancelInput) (*domain.Booking, error) {
	current, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, s.internal(ctx, "failed to cancel booking", err)
	}
	if current == nil {
		return nil, apperror.NotFound("booking not found")
	}
	if actor.UserID != current.UserID && !actor.IsAdmin {
		return nil, apperror.Forbidden("you can only cancel your own bookings")
	}
	if !current.IsActive() {
		return current, nil
	}

	if input.Date != "" && current.IsRecurring() {
		return s.cancelOccurrence(ctx, current, actor, input.Date)
	}

	if current.BookingDate < s.today() {
		return nil, apperror.BadRequest("cannot cancel past bookings")
	}

	now := s.now().UTC()
	status := domain.BookingStatusCanceled
	updated, err := s.bookings.Update(ctx, current.ID, domain.BookingPatch{
		Status:     &status,
		CanceledAt: &now,
		CanceledBy: &actor.UserID,
	})
	if err != nil {
		return nil, s.internal(ctx, "failed to cancel booking", err)
	}
	if updated == nil {
		return nil, apperror.NotFound("booking not found")
	}

	s.log.InfoContext(ctx, "booking canceled",
		slog.String("booking_id", updated.ID), slog.String("by", actor.UserID))
	s.publish(ctx, kafka.EventBookingCanceled, updated, actor.UserID, "")
	return updated, nil
}

func (s *BookingService) cancelOccurrence(ctx context.Context, current *domain.Booking, actor domain.Actor, date string) (*domain.Booking, error) {
	if err := s.checkOccurrence(current, date); err != nil {
		return nil, err
	}
	if date < s.today() {
		return nil, apperror.BadRequest("cannot cancel past bookings")
	}

	updated, err := s.bookings.Update(ctx, current.ID, domain.BookingPatch{
		Overrides: current.MergeOverride(domain.Override{Date: date, Canceled: true}),
	})
	if err != nil {
		return nil, s.internal(ctx, "failed to cancel booking", err)
	}
	if updated == nil {
		return nil, apperror.NotFound("booking not found")
	}

	s.log.InfoContext(ctx, "booking occurrence canceled",
		slog.String("booking_id", updated.ID), slog.String("date", date), slog.String("by", actor.UserID))
	s.publish(ctx, kafka.EventBookingCanceled, updated, actor.UserID, date)
	return updated, nil
}

// UpdateBooking changes the meal choice or duration. Only the owner may do so.
// For recurring bookings with opts.Date set, the change is stored as an
// override of that single occurrence.
func (s *BookingService) UpdateBooking(ctx context.Context, bookingID, userID string, updates UpdateInput, opts UpdateOptions) (*domain.Booking, error) {
	current, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, s.internal(ctx, "failed to update booking", err)
	}
	if current == nil {
		return nil, apperror.NotFound("booking not found")
	}
	if current.UserID != userID {
		return nil, apperror.Forbidden("you can only update your own bookings")
	}
	if !current.IsActive() {
		return nil, apperror.BadRequest("cannot update a canceled booking")
	}
	if updates.LunchOption == nil && updates.Duration == nil {
		return nil, apperror.BadRequest("nothing to update")
	}

	var lunch *domain.LunchOption
	if updates.LunchOption != nil {
		opt, err := domain.ParseLunchOption(*updates.LunchOption)
		if err != nil {
			return nil, apperror.BadRequest("%s", err.Error())
		}
		lunch = &opt
	}

	var patch domain.BookingPatch
	occurrence := ""
	if current.IsRecurring() && opts.Date != "" {
		if err := s.checkOccurrence(current, opts.Date); err != nil {
			return nil, err
		}
		if opts.Date < s.today() {
			return nil, apperror.BadRequest("cannot update past occurrences")
		}
		override := domain.Override{Date: opts.Date}
		if lunch != nil {
			override.LunchOption = *lunch
		}
		if updates.Duration != nil {
			override.Duration = *updates.Duration
			override.DurationType = domain.MapDurationToEnum(*updates.Duration)
		}
		patch.Overrides = current.MergeOverride(override)
		occurrence = opts.Date
	} else {
		if !current.IsRecurring() && current.BookingDate < s.today() {
			return nil, apperror.BadRequest("cannot update past bookings")
		}
		patch.LunchOption = lunch
		if updates.Duration != nil {
			durationType := domain.MapDurationToEnum(*updates.Duration)
			patch.Duration = updates.Duration
			patch.DurationType = &durationType
		}
	}

	updated, err := s.bookings.Update(ctx, current.ID, patch)
	if err != nil {
		return nil, s.internal(ctx, "failed to update booking", err)
	}
	if updated == nil {
		return nil, apperror.NotFound("booking not found")
	}

	s.log.InfoContext(ctx, "booking updated",
		slog.String("booking_id", updated.ID), slog.String("occurrence", occurrence))
	s.publish(ctx, kafka.EventBookingUpdated, updated, userID, occurrence)
	return updated, nil
}

func (s *BookingService) checkOccurrence(b *domain.Booking, date string) error {
	if _, err := domain.ParseDate(date); err != nil {
		return apperror.BadRequest("invalid date format, expected YYYY-MM-DD")
	}
	if date != b.BookingDate && !b.Recurring.OccursOn(date) {
		return apperror.BadRequest("booking does not occur on %s", date)
	}
	return nil
}
