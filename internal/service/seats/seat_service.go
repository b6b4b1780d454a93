package seats

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/Domenick1991/seatbooking/internal/apperror"
	"github.com/Domenick1991/seatbooking/internal/domain"
	"github.com/Domenick1991/seatbooking/internal/logging"
	"github.com/Domenick1991/seatbooking/internal/repository"
	"github.com/google/uuid"
)

type SeatUseCase interface {
	GetLayout(ctx context.Context) (*domain.SeatConfiguration, error)
	ResolveCapacity(ctx context.Context, date string) (domain.Capacity, error)
	EffectiveCapacity(ctx context.Context, date string) (int, error)
	SetDayOverride(ctx context.Context, actor domain.Actor, date string, seatCount int) (*domain.DaySeatOverride, error)
}

type LayoutCache interface {
	GetLayout(ctx context.Context) (*domain.SeatConfiguration, error)
	SetLayout(ctx context.Context, cfg *domain.SeatConfiguration) error
}

type SeatService struct {
	configs   repository.SeatConfigurationRepository
	overrides repository.DaySeatOverrideRepository
	cache     LayoutCache
	log       *slog.Logger
}

type SeatServiceOption func(*SeatService)

func WithLayoutCache(cache LayoutCache) SeatServiceOption {
	return func(s *SeatService) {
		s.cache = cache
	}
}

func WithLogger(logger *slog.Logger) SeatServiceOption {
	return func(s *SeatService) {
		s.log = logger
	}
}

func NewSeatService(
	configs repository.SeatConfigurationRepository,
	overrides repository.DaySeatOverrideRepository,
	opts ...SeatServiceOption,
) *SeatService {
	s := &SeatService{configs: configs, overrides: overrides}
	for _, opt := range opts {
		opt(s)
	}
	s.log = logging.OrDiscard(s.log)
	return s
}

// GetLayout returns the stored floor plan, creating the default one on first use.
func (s *SeatService) GetLayout(ctx context.Context) (*domain.SeatConfiguration, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetLayout(ctx); err == nil && cached != nil {
			return cached, nil
		} else if err != nil {
			s.log.WarnContext(ctx, "layout cache read failed", slog.Any("error", err))
		}
	}

	cfg, err := s.loadOrCreate(ctx)
	if err != nil {
		s.log.ErrorContext(ctx, "load seat layout", slog.Any("error", err))
		return nil, apperror.Internal("failed to retrieve seat layout", err)
	}

	if s.cache != nil {
		if err := s.cache.SetLayout(ctx, cfg); err != nil {
			s.log.WarnContext(ctx, "layout cache write failed", slog.Any("error", err))
		}
	}
	return cfg, nil
}

func (s *SeatService) loadOrCreate(ctx context.Context) (*domain.SeatConfiguration, error) {
	cfg, err := s.configs.GetDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	if cfg != nil {
		return cfg, nil
	}

	created, err := s.configs.Create(ctx, &domain.SeatConfiguration{
		ID:               uuid.NewString(),
		DefaultSeatCount: domain.DefaultSeatCount,
		Tables:           domain.DefaultLayout(),
		ModifiedBy:       "system",
	})
	if errors.Is(err, domain.ErrConfigurationExists) {
		// Another request created it first.
		return s.configs.GetDefaultConfig(ctx)
	}
	if err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "created default seat layout", slog.Int("seats", created.SeatCount()))
	return created, nil
}

// ResolveCapacity reads the default seat count and the override for date.
// It never creates a configuration.
func (s *SeatService) ResolveCapacity(ctx context.Context, date string) (domain.Capacity, error) {
	capacity := domain.Capacity{Date: date, DefaultSeatCount: domain.FallbackCapacity}

	cfg, err := s.configs.GetDefaultConfig(ctx)
	if err != nil {
		return capacity, err
	}
	if cfg != nil {
		capacity.DefaultSeatCount = cfg.DefaultSeatCount
	}

	override, err := s.overrides.GetByDate(ctx, date)
	if err != nil {
		return capacity, err
	}
	if override != nil {
		n := override.SeatCount
		capacity.OverrideCount = &n
	}
	return capacity, nil
}

func (s *SeatService) EffectiveCapacity(ctx context.Context, date string) (int, error) {
	c, err := s.ResolveCapacity(ctx, date)
	if err != nil {
		return 0, err
	}
	return c.Effective(), nil
}

func (s *SeatService) SetDayOverride(ctx context.Context, actor domain.Actor, date string, seatCount int) (*domain.DaySeatOverride, error) {
	if !actor.IsAdmin {
		return nil, apperror.Forbidden("only admins can change seat capacity")
	}
	if _, err := domain.ParseDate(date); err != nil {
		return nil, apperror.BadRequest("invalid date format, expected YYYY-MM-DD")
	}
	if seatCount < 0 {
		return nil, apperror.BadRequest("seat count must not be negative")
	}

	saved, err := s.overrides.Upsert(ctx, &domain.DaySeatOverride{
		Date:      date,
		SeatCount: seatCount,
		CreatedBy: actor.UserID,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		s.log.ErrorContext(ctx, "save day override", slog.String("date", date), slog.Any("error", err))
		return nil, apperror.Internal("failed to save seat override", err)
	}
	s.log.InfoContext(ctx, "day seat override saved",
		slog.String("date", date), slog.Int("seat_count", seatCount), slog.String("by", actor.UserID))
	return saved, nil
}

var _ SeatUseCase = (*SeatService)(nil)
