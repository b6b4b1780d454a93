package notifications

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Domenick1991/seatbooking/internal/domain"
	"github.com/Domenick1991/seatbooking/internal/email"
	"github.com/Domenick1991/seatbooking/internal/logging"
	"github.com/Domenick1991/seatbooking/internal/repository"
)

type MealSender interface {
	SendMealNotification(ctx context.Context, n email.MealNotification) error
}

// MealService tells each person with a meal choice what they ordered for the
// next office day.
type MealService struct {
	bookings repository.BookingRepository
	users    repository.UserRepository
	sender   MealSender
	now      func() time.Time
	loc      *time.Location
	sendHour int
	log      *slog.Logger

	mu       sync.Mutex
	lastSent string
}

type MealServiceOption func(*MealService)

func WithClock(now func() time.Time) MealServiceOption {
	return func(s *MealService) {
		s.now = now
	}
}

func WithLocation(loc *time.Location) MealServiceOption {
	return func(s *MealService) {
		s.loc = loc
	}
}

// WithSendHour sets the local hour from which RunDue sends tomorrow's batch.
func WithSendHour(hour int) MealServiceOption {
	return func(s *MealService) {
		s.sendHour = hour
	}
}

func WithLogger(logger *slog.Logger) MealServiceOption {
	return func(s *MealService) {
		s.log = logger
	}
}

func NewMealService(
	bookings repository.BookingRepository,
	users repository.UserRepository,
	sender MealSender,
	opts ...MealServiceOption,
) *MealService {
	s := &MealService{
		bookings: bookings,
		users:    users,
		sender:   sender,
		now:      time.Now,
		loc:      time.UTC,
		sendHour: 16,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = logging.OrDiscard(s.log)
	return s
}

// NotifyMeals sends one notification per user with a meal on date. Failures
// for single users are logged and skipped.
func (s *MealService) NotifyMeals(ctx context.Context, date string) (int, error) {
	occurrences, err := s.mealsOn(ctx, date)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, occ := range occurrences {
		user, err := s.users.GetByAzureAdID(ctx, occ.UserID)
		if err != nil {
			s.log.WarnContext(ctx, "meal notification: user lookup failed",
				slog.String("user_id", occ.UserID), slog.Any("error", err))
			continue
		}
		if user == nil || user.Email == "" {
			s.log.WarnContext(ctx, "meal notification: no email for user", slog.String("user_id", occ.UserID))
			continue
		}

		err = s.sender.SendMealNotification(ctx, email.MealNotification{
			To:          user.Email,
			Name:        user.DisplayName(),
			Date:        date,
			SeatID:      occ.SeatID,
			LunchOption: string(occ.LunchOption),
		})
		if err != nil {
			s.log.WarnContext(ctx, "meal notification failed",
				slog.String("user_id", occ.UserID), slog.Any("error", err))
			continue
		}
		sent++
	}

	s.log.InfoContext(ctx, "meal notifications sent",
		slog.String("date", date), slog.Int("sent", sent), slog.Int("candidates", len(occurrences)))
	return sent, nil
}

// mealsOn returns at most one occurrence per user, single bookings first.
func (s *MealService) mealsOn(ctx context.Context, date string) ([]domain.Occurrence, error) {
	single, err := s.bookings.FindAllBookingsByDate(ctx, date)
	if err != nil {
		return nil, err
	}
	series, err := s.bookings.FindRecurringActive(ctx, date)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var out []domain.Occurrence
	for _, list := range [][]domain.Booking{single, series} {
		for i := range list {
			occ, ok := list[i].OccurrenceOn(date)
			if !ok || seen[occ.UserID] || !occ.LunchOption.WantsMeal() {
				continue
			}
			seen[occ.UserID] = true
			out = append(out, occ)
		}
	}
	return out, nil
}

// RunDue sends tomorrow's batch once the send hour has passed. It returns
// false when nothing was due.
func (s *MealService) RunDue(ctx context.Context) (bool, int, error) {
	local := s.now().In(s.loc)
	if local.Hour() < s.sendHour {
		return false, 0, nil
	}
	tomorrow := domain.FormatDate(local.AddDate(0, 0, 1))

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastSent == tomorrow {
		return false, 0, nil
	}

	sent, err := s.NotifyMeals(ctx, tomorrow)
	if err != nil {
		return true, 0, err
	}
	s.lastSent = tomorrow
	return true, sent, nil
}
