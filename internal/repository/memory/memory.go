// Package memory keeps repositories in process memory. It enforces the same
// uniqueness rules as the database drivers and is used for local runs and tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Domenick1991/seatbooking/internal/domain"
	"github.com/Domenick1991/seatbooking/internal/repository"
)

type BookingRepository struct {
	mu       sync.RWMutex
	bookings map[string]*domain.Booking
	order    []string
	now      func() time.Time
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{bookings: make(map[string]*domain.Booking), now: time.Now}
}

func (r *BookingRepository) FindAllBookingsByDate(_ context.Context, date string) ([]domain.Booking, error) {
	return r.filter(func(b *domain.Booking) bool {
		return b.IsActive() && b.BookingDate == date
	}), nil
}

func (r *BookingRepository) HasUserBookingOnDate(_ context.Context, userID, date string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.activeOn(func(b *domain.Booking) bool { return b.UserID == userID }, date) != nil, nil
}

func (r *BookingRepository) CountBookingsByDate(ctx context.Context, date string) (int, error) {
	found, _ := r.FindAllBookingsByDate(ctx, date)
	return len(found), nil
}

func (r *BookingRepository) FindUserUpcomingBookings(_ context.Context, userID, fromDate string) ([]domain.Booking, error) {
	found := r.filter(func(b *domain.Booking) bool {
		if b.UserID != userID || !b.IsActive() {
			return false
		}
		return b.BookingDate >= fromDate || seriesRunning(b, fromDate)
	})
	sort.SliceStable(found, func(i, j int) bool { return found[i].BookingDate < found[j].BookingDate })
	return found, nil
}

func (r *BookingRepository) FindRecurringActive(_ context.Context, fromDate string) ([]domain.Booking, error) {
	return r.filter(func(b *domain.Booking) bool {
		return b.IsActive() && seriesRunning(b, fromDate)
	}), nil
}

func (r *BookingRepository) GetByID(_ context.Context, id string) (*domain.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, nil
	}
	return cloneBooking(b), nil
}

func (r *BookingRepository) Create(_ context.Context, booking *domain.Booking) (*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := cloneBooking(booking)
	if stored.Status == "" {
		stored.Status = domain.BookingStatusActive
	}
	if stored.IsActive() {
		if r.activeOn(func(b *domain.Booking) bool { return b.SeatID == stored.SeatID }, stored.BookingDate) != nil {
			return nil, domain.ErrSeatAlreadyBooked
		}
		if r.activeOn(func(b *domain.Booking) bool { return b.UserID == stored.UserID }, stored.BookingDate) != nil {
			return nil, domain.ErrUserAlreadyBooked
		}
	}
	now := r.now().UTC()
	stored.CreatedAt = now
	stored.UpdatedAt = now

	r.bookings[stored.ID] = stored
	r.order = append(r.order, stored.ID)
	return cloneBooking(stored), nil
}

func (r *BookingRepository) Update(_ context.Context, id string, patch domain.BookingPatch) (*domain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.bookings[id]
	if !ok {
		return nil, nil
	}
	b := cloneBooking(current)
	if patch.LunchOption != nil {
		b.LunchOption = *patch.LunchOption
	}
	if patch.Duration != nil {
		b.Duration = *patch.Duration
	}
	if patch.DurationType != nil {
		b.DurationType = *patch.DurationType
	}
	if patch.Overrides != nil {
		b.Overrides = append([]domain.Override(nil), patch.Overrides...)
	}
	if patch.Status != nil {
		b.Status = *patch.Status
	}
	if patch.CanceledAt != nil {
		at := *patch.CanceledAt
		b.CanceledAt = &at
	}
	if patch.CanceledBy != nil {
		b.CanceledBy = *patch.CanceledBy
	}
	b.UpdatedAt = r.now().UTC()

	r.bookings[id] = b
	return cloneBooking(b), nil
}

// activeOn must be called with the lock held.
func (r *BookingRepository) activeOn(match func(*domain.Booking) bool, date string) *domain.Booking {
	for _, id := range r.order {
		b := r.bookings[id]
		if b.IsActive() && b.BookingDate == date && match(b) {
			return b
		}
	}
	return nil
}

func (r *BookingRepository) filter(keep func(*domain.Booking) bool) []domain.Booking {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []domain.Booking
	for _, id := range r.order {
		if b := r.bookings[id]; keep(b) {
			out = append(out, *cloneBooking(b))
		}
	}
	return out
}

func seriesRunning(b *domain.Booking, fromDate string) bool {
	if b.Recurring == nil {
		return false
	}
	return b.Recurring.EndDate == "" || b.Recurring.EndDate >= fromDate
}

func cloneBooking(b *domain.Booking) *domain.Booking {
	c := *b
	if b.Recurring != nil {
		rec := *b.Recurring
		rec.DaysOfWeek = append([]int(nil), b.Recurring.DaysOfWeek...)
		c.Recurring = &rec
	}
	if b.Overrides != nil {
		c.Overrides = append([]domain.Override(nil), b.Overrides...)
	}
	if b.CanceledAt != nil {
		at := *b.CanceledAt
		c.CanceledAt = &at
	}
	return &c
}

type SeatConfigurationRepository struct {
	mu  sync.RWMutex
	cfg *domain.SeatConfiguration
	now func() time.Time
}

func NewSeatConfigurationRepository() *SeatConfigurationRepository {
	return &SeatConfigurationRepository{now: time.Now}
}

func (r *SeatConfigurationRepository) GetDefaultConfig(_ context.Context) (*domain.SeatConfiguration, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.cfg == nil {
		return nil, nil
	}
	return cloneConfig(r.cfg), nil
}

func (r *SeatConfigurationRepository) Create(_ context.Context, cfg *domain.SeatConfiguration) (*domain.SeatConfiguration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cfg != nil {
		return nil, domain.ErrConfigurationExists
	}
	stored := cloneConfig(cfg)
	stored.LastModified = r.now().UTC()
	r.cfg = stored
	return cloneConfig(stored), nil
}

func cloneConfig(cfg *domain.SeatConfiguration) *domain.SeatConfiguration {
	c := *cfg
	c.Tables = make([]domain.Table, len(cfg.Tables))
	for i, t := range cfg.Tables {
		c.Tables[i] = domain.Table{Name: t.Name, Seats: append([]domain.Seat(nil), t.Seats...)}
	}
	return &c
}

type DaySeatOverrideRepository struct {
	mu        sync.RWMutex
	overrides map[string]domain.DaySeatOverride
	now       func() time.Time
}

func NewDaySeatOverrideRepository() *DaySeatOverrideRepository {
	return &DaySeatOverrideRepository{overrides: make(map[string]domain.DaySeatOverride), now: time.Now}
}

func (r *DaySeatOverrideRepository) GetByDate(_ context.Context, date string) (*domain.DaySeatOverride, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.overrides[date]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

func (r *DaySeatOverrideRepository) Upsert(_ context.Context, override *domain.DaySeatOverride) (*domain.DaySeatOverride, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o := *override
	o.CreatedAt = r.now().UTC()
	r.overrides[o.Date] = o
	return &o, nil
}

type UserRepository struct {
	mu      sync.RWMutex
	byID    map[string]domain.User
	byEmail map[string]string
}

func NewUserRepository(users ...domain.User) *UserRepository {
	r := &UserRepository{byID: make(map[string]domain.User), byEmail: make(map[string]string)}
	for _, u := range users {
		r.Put(u)
	}
	return r
}

// Put adds or replaces a user.
func (r *UserRepository) Put(u domain.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[u.AzureAdID] = u
	r.byEmail[strings.ToLower(u.Email)] = u.AzureAdID
}

func (r *UserRepository) GetByAzureAdID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, nil
	}
	u := r.byID[id]
	return &u, nil
}

// NewStore wires a complete in-memory store.
func NewStore(users ...domain.User) *repository.Store {
	return &repository.Store{
		Bookings:  NewBookingRepository(),
		SeatsConf: NewSeatConfigurationRepository(),
		Overrides: NewDaySeatOverrideRepository(),
		Users:     NewUserRepository(users...),
		Close:     func() {},
	}
}

var (
	_ repository.BookingRepository           = (*BookingRepository)(nil)
	_ repository.SeatConfigurationRepository = (*SeatConfigurationRepository)(nil)
	_ repository.DaySeatOverrideRepository   = (*DaySeatOverrideRepository)(nil)
	_ repository.UserRepository              = (*UserRepository)(nil)
)
