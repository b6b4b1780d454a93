package seats

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/Domenick1991/seatbooking/internal/apperror"
	"github.com/Domenick1991/seatbooking/internal/domain"
	"github.com/Domenick1991/seatbooking/internal/repository/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockLayoutCache struct {
	mock.Mock
}

func (m *MockLayoutCache) GetLayout(ctx context.Context) (*domain.SeatConfiguration, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SeatConfiguration), args.Error(1)
}

func (m *MockLayoutCache) SetLayout(ctx context.Context, cfg *domain.SeatConfiguration) error {
	args := m.Called(ctx, cfg)
	return args.Error(0)
}

type MockSeatConfigurationRepository struct {
	mock.Mock
}

func (m *MockSeatConfigurationRepository) GetDefaultConfig(ctx context.Context) (*domain.SeatConfiguration, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SeatConfiguration), args.Error(1)
}

func (m *MockSeatConfigurationRepository) Create(ctx context.Context, cfg *domain.SeatConfiguration) (*domain.SeatConfiguration, error) {
	args := m.Called(ctx, cfg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SeatConfiguration), args.Error(1)
}

func TestSeatService_GetLayout_BootstrapIsIdempotent(t *testing.T) {
	ctx := context.Background()
	configs := memory.NewSeatConfigurationRepository()
	service := NewSeatService(configs, memory.NewDaySeatOverrideRepository())

	first, err := service.GetLayout(ctx)
	require.NoError(t, err)
	require.Len(t, first.Tables, 4)
	for _, table := range first.Tables {
		assert.Len(t, table.Seats, 10)
	}
	assert.Equal(t, 40, first.DefaultSeatCount)

	second, err := service.GetLayout(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.Tables, second.Tables)
}

func TestSeatService_GetLayout_ConcurrentFirstCalls(t *testing.T) {
	ctx := context.Background()
	service := NewSeatService(memory.NewSeatConfigurationRepository(), memory.NewDaySeatOverrideRepository())

	ids := make([]string, 10)
	var wg sync.WaitGroup
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cfg, err := service.GetLayout(ctx)
			if assert.NoError(t, err) {
				ids[i] = cfg.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
}

func TestSeatService_GetLayout_CreateRaceRereads(t *testing.T) {
	ctx := context.Background()
	configs := &MockSeatConfigurationRepository{}
	service := NewSeatService(configs, memory.NewDaySeatOverrideRepository())

	winner := &domain.SeatConfiguration{ID: "winner", DefaultSeatCount: 40, Tables: domain.DefaultLayout()}
	configs.On("GetDefaultConfig", ctx).Return(nil, nil).Once()
	configs.On("Create", ctx, mock.Anything).Return(nil, domain.ErrConfigurationExists).Once()
	configs.On("GetDefaultConfig", ctx).Return(winner, nil).Once()

	cfg, err := service.GetLayout(ctx)
	require.NoError(t, err)
	assert.Equal(t, "winner", cfg.ID)
	configs.AssertExpectations(t)
}

func TestSeatService_GetLayout_UsesCache(t *testing.T) {
	ctx := context.Background()
	cache := &MockLayoutCache{}
	configs := &MockSeatConfigurationRepository{}
	service := NewSeatService(configs, memory.NewDaySeatOverrideRepository(), WithLayoutCache(cache))

	cached := &domain.SeatConfiguration{ID: "cached", DefaultSeatCount: 40}
	cache.On("GetLayout", ctx).Return(cached, nil).Once()

	cfg, err := service.GetLayout(ctx)
	require.NoError(t, err)
	assert.Equal(t, "cached", cfg.ID)
	configs.AssertNotCalled(t, "GetDefaultConfig", mock.Anything)
	cache.AssertExpectations(t)
}

func TestSeatService_GetLayout_CacheFailureFallsThrough(t *testing.T) {
	ctx := context.Background()
	cache := &MockLayoutCache{}
	service := NewSeatService(memory.NewSeatConfigurationRepository(), memory.NewDaySeatOverrideRepository(), WithLayoutCache(cache))

	cache.On("GetLayout", ctx).Return(nil, errors.New("redis down")).Once()
	cache.On("SetLayout", ctx, mock.AnythingOfType("*domain.SeatConfiguration")).Return(errors.New("redis down")).Once()

	cfg, err := service.GetLayout(ctx)
	require.NoError(t, err)
	assert.Len(t, cfg.Tables, 4)
	cache.AssertExpectations(t)
}

func TestSeatService_GetLayout_StorageErrorIsInternal(t *testing.T) {
	ctx := context.Background()
	configs := &MockSeatConfigurationRepository{}
	service := NewSeatService(configs, memory.NewDaySeatOverrideRepository())

	configs.On("GetDefaultConfig", ctx).Return(nil, errors.New("connection refused")).Once()

	_, err := service.GetLayout(ctx)
	assert.Equal(t, http.StatusInternalServerError, apperror.Status(err))
	assert.Equal(t, "failed to retrieve seat layout", apperror.Message(err))
}

func TestSeatService_EffectiveCapacity(t *testing.T) {
	ctx := context.Background()
	configs := memory.NewSeatConfigurationRepository()
	overrides := memory.NewDaySeatOverrideRepository()
	service := NewSeatService(configs, overrides)

	// No configuration stored yet.
	n, err := service.EffectiveCapacity(ctx, "2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, domain.FallbackCapacity, n)

	_, err = configs.Create(ctx, &domain.SeatConfiguration{ID: "c", DefaultSeatCount: 40})
	require.NoError(t, err)
	n, err = service.EffectiveCapacity(ctx, "2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, 40, n)

	_, err = overrides.Upsert(ctx, &domain.DaySeatOverride{Date: "2025-03-10", SeatCount: 12})
	require.NoError(t, err)
	c, err := service.ResolveCapacity(ctx, "2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, 40, c.DefaultSeatCount)
	require.NotNil(t, c.OverrideCount)
	assert.Equal(t, 12, c.Effective())

	n, err = service.EffectiveCapacity(ctx, "2025-03-11")
	require.NoError(t, err)
	assert.Equal(t, 40, n)
}

func TestSeatService_SetDayOverride(t *testing.T) {
	ctx := context.Background()
	service := NewSeatService(memory.NewSeatConfigurationRepository(), memory.NewDaySeatOverrideRepository())
	admin := domain.Actor{UserID: "aad-admin", IsAdmin: true}

	_, err := service.SetDayOverride(ctx, domain.Actor{UserID: "aad-bob"}, "2025-03-10", 10)
	assert.Equal(t, http.StatusForbidden, apperror.Status(err))

	_, err = service.SetDayOverride(ctx, admin, "10/03/2025", 10)
	assert.Equal(t, http.StatusBadRequest, apperror.Status(err))

	_, err = service.SetDayOverride(ctx, admin, "2025-03-10", -1)
	assert.Equal(t, http.StatusBadRequest, apperror.Status(err))

	saved, err := service.SetDayOverride(ctx, admin, "2025-03-10", 0)
	require.NoError(t, err)
	assert.Equal(t, "aad-admin", saved.CreatedBy)

	n, err := service.EffectiveCapacity(ctx, "2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
