package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Domenick1991/seatbooking/internal/apperror"
	"github.com/Domenick1991/seatbooking/internal/domain"
	"github.com/Domenick1991/seatbooking/internal/kafka"
	"github.com/Domenick1991/seatbooking/internal/logging"
	"github.com/Domenick1991/seatbooking/internal/repository"
	"github.com/google/uuid"
)

type BookingUseCase interface {
	BookSeat(ctx context.Context, input BookSeatInput) (*domain.Booking, error)
	GetSeatAvailability(ctx context.Context, date, userID string) (*Availability, error)
	CancelBooking(ctx context.Context, bookingID string, actor domain.Actor, input CancelInput) (*domain.Booking, error)
	UpdateBooking(ctx context.Context, bookingID, userID string, updates UpdateInput, opts UpdateOptions) (*domain.Booking, error)
	GetBooking(ctx context.Context, bookingID string, actor domain.Actor) (*domain.Booking, error)
	ListUpcoming(ctx context.Context, userID string) ([]domain.Occurrence, error)
}

type CapacityResolver interface {
	ResolveCapacity(ctx context.Context, date string) (domain.Capacity, error)
}

// Locker serializes allocations for one date between instances. Acquire
// returns a token that Release must present, so a holder whose lock expired
// cannot release the lock of the next holder.
type Locker interface {
	AcquireDateLock(ctx context.Context, date string, ttl time.Duration) (string, bool, error)
	ReleaseDateLock(ctx context.Context, date, token string) error
}

type Producer interface {
	PublishWithRetry(ctx context.Context, topic, key string, value interface{}, maxRetries int) error
}

// publishAttempts bounds how long a request waits on the broker.
const publishAttempts = 3

// lockPollInterval is how often a busy date lock is retried.
const lockPollInterval = 50 * time.Millisecond

type BookingService struct {
	bookings           repository.BookingRepository
	users              repository.UserRepository
	capacity           CapacityResolver
	locker             Locker
	producer           Producer
	bookingTopic       string
	notificationsTopic string
	lockTTL            time.Duration
	lockWait           time.Duration
	horizonDays        int
	now                func() time.Time
	loc                *time.Location
	log                *slog.Logger
}

type BookingServiceOption func(*BookingService)

func WithLocker(locker Locker, ttl, wait time.Duration) BookingServiceOption {
	return func(s *BookingService) {
		s.locker = locker
		s.lockTTL = ttl
		s.lockWait = wait
	}
}

func WithProducer(producer Producer, bookingTopic string) BookingServiceOption {
	return func(s *BookingService) {
		s.producer = producer
		s.bookingTopic = bookingTopic
	}
}

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) {
		s.now = now
	}
}

// WithLocation sets the timezone that decides what "today" is.
func WithLocation(loc *time.Location) BookingServiceOption {
	return func(s *BookingService) {
		s.loc = loc
	}
}

func WithRecurringHorizon(days int) BookingServiceOption {
	return func(s *BookingService) {
		s.horizonDays = days
	}
}

func WithLogger(logger *slog.Logger) BookingServiceOption {
	return func(s *BookingService) {
		s.log = logger
	}
}

func NewBookingService(
	bookings repository.BookingRepository,
	users repository.UserRepository,
	capacity CapacityResolver,
	opts ...BookingServiceOption,
) *BookingService {
	s := &BookingService{
		bookings:    bookings,
		users:       users,
		capacity:    capacity,
		lockTTL:     10 * time.Second,
		lockWait:    2 * time.Second,
		horizonDays: 28,
		now:         time.Now,
		loc:         time.UTC,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = logging.OrDiscard(s.log)
	return s
}

type BookSeatInput struct {
	Actor         domain.Actor
	Date          string
	Duration      string
	SeatID        string
	LunchOption   string
	Recurring     *domain.Recurring
	BookForUserID string
}

// BookSeat validates a request and stores a new booking for the caller, or
// for BookForUserID when an admin books on behalf of someone else.
func (s *BookingService) BookSeat(ctx context.Context, input BookSeatInput) (*domain.Booking, error) {
	if input.SeatID == "" {
		return nil, apperror.BadRequest("seatId is required")
	}

	target, err := s.resolveTarget(ctx, input)
	if err != nil {
		return nil, err
	}

	if _, err := domain.ParseDate(input.Date); err != nil {
		return nil, apperror.BadRequest("invalid date format, expected YYYY-MM-DD")
	}
	if input.Date < s.today() {
		return nil, apperror.BadRequest("cannot book a date in the past")
	}
	lunch, err := domain.ParseLunchOption(input.LunchOption)
	if err != nil {
		return nil, apperror.BadRequest("%s", err.Error())
	}

	var recurring *domain.Recurring
	if input.Recurring != nil {
		rec := *input.Recurring
		if rec.StartDate == "" {
			rec.StartDate = input.Date
		}
		if err := rec.Validate(); err != nil {
			return nil, apperror.BadRequest("invalid recurring booking: %s", err.Error())
		}
		recurring = &rec
	}

	release, err := s.lockDate(ctx, input.Date)
	if err != nil {
		return nil, err
	}
	defer release()

	existing, err := s.bookings.FindAllBookingsByDate(ctx, input.Date)
	if err != nil {
		return nil, s.internal(ctx, "failed to create booking", err)
	}
	series, err := s.seriesOn(ctx, input.Date)
	if err != nil {
		return nil, s.internal(ctx, "failed to create booking", err)
	}
	for _, b := range existing {
		if b.SeatID == input.SeatID {
			return nil, apperror.Conflict("seat already booked")
		}
	}
	for _, occ := range series {
		if occ.SeatID == input.SeatID {
			return nil, apperror.Conflict("seat already booked")
		}
	}

	hasBooking, err := s.bookings.HasUserBookingOnDate(ctx, target.id, input.Date)
	if err != nil {
		return nil, s.internal(ctx, "failed to create booking", err)
	}
	for _, occ := range series {
		hasBooking = hasBooking || occ.UserID == target.id
	}
	if hasBooking {
		return nil, target.conflict(input.Date)
	}

	capacity, err := s.capacity.ResolveCapacity(ctx, input.Date)
	if err != nil {
		return nil, s.internal(ctx, "failed to create booking", err)
	}
	count, err := s.bookings.CountBookingsByDate(ctx, input.Date)
	if err != nil {
		return nil, s.internal(ctx, "failed to create booking", err)
	}
	if count >= capacity.Effective() {
		return nil, apperror.Conflict("no seats available")
	}

	created, err := s.bookings.Create(ctx, &domain.Booking{
		ID:           uuid.NewString(),
		UserID:       target.id,
		BookingDate:  input.Date,
		SeatID:       input.SeatID,
		DurationType: domain.MapDurationToEnum(input.Duration),
		Duration:     input.Duration,
		LunchOption:  lunch,
		Recurring:    recurring,
		Status:       domain.BookingStatusActive,
	})
	switch {
	case errors.Is(err, domain.ErrSeatAlreadyBooked):
		return nil, apperror.Conflict("seat already booked")
	case errors.Is(err, domain.ErrUserAlreadyBooked):
		return nil, target.conflict(input.Date)
	case err != nil:
		return nil, s.internal(ctx, "failed to create booking", err)
	}

	s.log.InfoContext(ctx, "seat booked",
		slog.String("booking_id", created.ID),
		slog.String("user_id", created.UserID),
		slog.String("actor_id", input.Actor.UserID),
		slog.String("seat_id", created.SeatID),
		slog.String("date", created.BookingDate),
	)
	s.publish(ctx, kafka.EventBookingCreated, created, input.Actor.UserID, "")
	return created, nil
}

// seriesOn returns the occurrences of running recurring bookings on date.
// The seat and the user of such an occurrence are taken even though no
// record is stored for that day.
func (s *BookingService) seriesOn(ctx context.Context, date string) ([]domain.Occurrence, error) {
	running, err := s.bookings.FindRecurringActive(ctx, date)
	if err != nil {
		return nil, err
	}
	var out []domain.Occurrence
	for i := range running {
		if occ, ok := running[i].OccurrenceOn(date); ok {
			out = append(out, occ)
		}
	}
	return out, nil
}

// bookingTarget is the user a booking is made for.
type bookingTarget struct {
	id        string
	user      *domain.User
	delegated bool
}

func (t bookingTarget) conflict(date string) error {
	if !t.delegated {
		return apperror.Conflict(fmt.Sprintf("you already have a booking on %s", date))
	}
	name := t.id
	if t.user != nil {
		name = t.user.DisplayName()
	}
	return apperror.Conflict(fmt.Sprintf("%s already has a booking on %s", name, date))
}

func (s *BookingService) resolveTarget(ctx context.Context, input BookSeatInput) (bookingTarget, error) {
	if input.BookForUserID == "" || input.BookForUserID == input.Actor.UserID {
		return bookingTarget{id: input.Actor.UserID}, nil
	}

	user, err := s.users.GetByAzureAdID(ctx, input.BookForUserID)
	if err != nil {
		return bookingTarget{}, s.internal(ctx, "failed to create booking", err)
	}
	if user == nil {
		user, err = s.users.GetByEmail(ctx, input.BookForUserID)
		if err != nil {
			return bookingTarget{}, s.internal(ctx, "failed to create booking", err)
		}
	}
	if user == nil {
		return bookingTarget{}, apperror.BadRequest("no account found for %s", input.BookForUserID)
	}

	target := bookingTarget{id: user.AzureAdID, user: user, delegated: user.AzureAdID != input.Actor.UserID}
	if !target.delegated {
		return target, nil
	}
	if !input.Actor.IsAdmin {
		return bookingTarget{}, apperror.Forbidden("only admins can book on behalf of other users")
	}
	if input.Recurring != nil {
		return bookingTarget{}, apperror.Unprocessable("bookings made on behalf of another user cannot be recurring")
	}
	return target, nil
}

// lockDate takes the per date allocation lock. When the lock store is
// unreachable the booking goes ahead and the storage unique indexes decide.
func (s *BookingService) lockDate(ctx context.Context, date string) (func(), error) {
	noop := func() {}
	if s.locker == nil {
		return noop, nil
	}

	// Measured in wall time. s.now may be a fixed clock.
	deadline := time.Now().Add(s.lockWait)
	for {
		token, ok, err := s.locker.AcquireDateLock(ctx, date, s.lockTTL)
		if err != nil {
			s.log.WarnContext(ctx, "date lock unavailable", slog.String("date", date), slog.Any("error", err))
			return noop, nil
		}
		if ok {
			return func() {
				if err := s.locker.ReleaseDateLock(context.WithoutCancel(ctx), date, token); err != nil {
					s.log.WarnContext(ctx, "release date lock", slog.String("date", date), slog.Any("error", err))
				}
			}, nil
		}
		if !time.Now().Before(deadline) {
			return nil, apperror.Conflict("another booking for this date is in progress, please retry")
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockPollInterval):
		}
	}
}

func (s *BookingService) today() string {
	return domain.Today(s.now(), s.loc)
}

// internal logs the cause and hides it behind a generic message.
func (s *BookingService) internal(ctx context.Context, message string, err error) error {
	s.log.ErrorContext(ctx, message, slog.Any("error", err))
	return apperror.Internal(message, err)
}

// publish is best effort. Retries stay within the request context and a
// failed event never fails the request.
func (s *BookingService) publish(ctx context.Context, eventType string, b *domain.Booking, actorID, occurrence string) {
	if s.producer == nil || s.bookingTopic == "" {
		return
	}
	event := kafka.NewBookingEvent(eventType, b, actorID, s.now())
	event.OccurrenceDate = occurrence

	if err := s.producer.PublishWithRetry(ctx, s.bookingTopic, b.ID, event, publishAttempts); err != nil {
		s.log.WarnContext(ctx, "failed to publish booking event",
			slog.String("type", eventType), slog.String("booking_id", b.ID), slog.Any("error", err))
		return
	}
	if s.notificationsTopic != "" {
		if err := s.producer.PublishWithRetry(ctx, s.notificationsTopic, b.ID, event, publishAttempts); err != nil {
			s.log.WarnContext(ctx, "failed to publish notification event",
				slog.String("type", eventType), slog.String("booking_id", b.ID), slog.Any("error", err))
		}
	}
}

var _ BookingUseCase = (*BookingService)(nil)
