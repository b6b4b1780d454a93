package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Domenick1991/seatbooking/internal/apperror"
	"github.com/Domenick1991/seatbooking/internal/domain"
	"github.com/Domenick1991/seatbooking/internal/service/booking"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSeatUseCase struct {
	mock.Mock
}

func (m *MockSeatUseCase) GetLayout(ctx context.Context) (*domain.SeatConfiguration, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SeatConfiguration), args.Error(1)
}

func (m *MockSeatUseCase) ResolveCapacity(ctx context.Context, date string) (domain.Capacity, error) {
	args := m.Called(ctx, date)
	return args.Get(0).(domain.Capacity), args.Error(1)
}

func (m *MockSeatUseCase) EffectiveCapacity(ctx context.Context, date string) (int, error) {
	args := m.Called(ctx, date)
	return args.Int(0), args.Error(1)
}

func (m *MockSeatUseCase) SetDayOverride(ctx context.Context, actor domain.Actor, date string, seatCount int) (*domain.DaySeatOverride, error) {
	args := m.Called(ctx, actor, date, seatCount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DaySeatOverride), args.Error(1)
}

func TestSeatHandler_availability(t *testing.T) {
	bookingService := &MockBookingUseCase{}
	handler := NewSeatHandler(&MockSeatUseCase{}, bookingService)
	c, w := newTestContext(http.MethodGet, "/api/seats/availability?date=2025-03-11", nil)

	bookingService.On("GetSeatAvailability", c.Request.Context(), "2025-03-11", "aad-alice").Return(&booking.Availability{
		Date:             "2025-03-11",
		DefaultSeatCount: 40,
		BookingsCount:    45,
		AvailableSeats:   0,
		BookedSeatIDs:    []string{"T1A1"},
		MyBooking:        &booking.MyBooking{BookingID: "b-1", SeatID: "T1A1"},
	}, nil)

	handler.availability(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"date": "2025-03-11",
		"defaultSeatCount": 40,
		"bookingsCount": 45,
		"availableSeats": 0,
		"bookedSeatIds": ["T1A1"],
		"myBooking": {"bookingId": "b-1", "seatId": "T1A1"}
	}`, w.Body.String())
}

func TestSeatHandler_availability_EmptyDay(t *testing.T) {
	bookingService := &MockBookingUseCase{}
	handler := NewSeatHandler(&MockSeatUseCase{}, bookingService)
	c, w := newTestContext(http.MethodGet, "/api/seats/availability?date=2025-03-11", nil)

	override := 12
	bookingService.On("GetSeatAvailability", c.Request.Context(), "2025-03-11", "aad-alice").Return(&booking.Availability{
		Date:              "2025-03-11",
		DefaultSeatCount:  40,
		OverrideSeatCount: &override,
		AvailableSeats:    12,
	}, nil)

	handler.availability(c)

	var resp availabilityResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{}, resp.BookedSeatIDs)
	assert.Nil(t, resp.MyBooking)
	require.NotNil(t, resp.OverrideSeatCount)
	assert.Equal(t, 12, *resp.OverrideSeatCount)
}

func TestSeatHandler_availability_Errors(t *testing.T) {
	bookingService := &MockBookingUseCase{}
	handler := NewSeatHandler(&MockSeatUseCase{}, bookingService)

	c, w := newTestContext(http.MethodGet, "/api/seats/availability", nil)
	handler.availability(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	c, w = newTestContext(http.MethodGet, "/api/seats/availability?date=2025-03-11", nil)
	bookingService.On("GetSeatAvailability", c.Request.Context(), "2025-03-11", "aad-alice").
		Return(nil, apperror.Internal("failed to retrieve availability", errors.New("db down")))
	handler.availability(c)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"failed to retrieve availability"}`, w.Body.String())
}

func TestSeatHandler_layout(t *testing.T) {
	seatService := &MockSeatUseCase{}
	handler := NewSeatHandler(seatService, &MockBookingUseCase{})
	c, w := newTestContext(http.MethodGet, "/api/seats/layout", nil)

	seatService.On("GetLayout", c.Request.Context()).Return(&domain.SeatConfiguration{
		ID:               "default",
		DefaultSeatCount: domain.DefaultSeatCount,
		Tables:           domain.DefaultLayout(),
		ModifiedBy:       "system",
	}, nil)

	handler.layout(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp layoutResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 40, resp.DefaultSeatCount)
	require.Len(t, resp.Tables, 4)
	assert.Equal(t, "T1", resp.Tables[0].Name)
	assert.Equal(t, seatDTO{ID: "T1A1", Side: "A", Index: 1}, resp.Tables[0].Seats[0])
}

func TestSeatHandler_setOverride(t *testing.T) {
	seatService := &MockSeatUseCase{}
	handler := NewSeatHandler(seatService, &MockBookingUseCase{})
	c, w := newTestContext(http.MethodPut, "/api/seats/overrides/2025-03-11", map[string]int{"seatCount": 0})
	c.Params = gin.Params{{Key: "date", Value: "2025-03-11"}}

	seatService.On("SetDayOverride", c.Request.Context(), testActor, "2025-03-11", 0).Return(&domain.DaySeatOverride{
		Date:      "2025-03-11",
		SeatCount: 0,
		CreatedBy: "aad-alice",
		CreatedAt: time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC),
	}, nil)

	handler.setOverride(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"date":"2025-03-11","seatCount":0,"createdBy":"aad-alice","createdAt":"2025-03-10T08:00:00Z"}`, w.Body.String())
}

func TestSeatHandler_setOverride_Errors(t *testing.T) {
	seatService := &MockSeatUseCase{}
	handler := NewSeatHandler(seatService, &MockBookingUseCase{})

	c, w := newTestContext(http.MethodPut, "/api/seats/overrides/2025-03-11", map[string]string{})
	c.Params = gin.Params{{Key: "date", Value: "2025-03-11"}}
	handler.setOverride(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	c, w = newTestContext(http.MethodPut, "/api/seats/overrides/2025-03-11", map[string]int{"seatCount": 5})
	c.Params = gin.Params{{Key: "date", Value: "2025-03-11"}}
	seatService.On("SetDayOverride", c.Request.Context(), testActor, "2025-03-11", 5).
		Return(nil, apperror.Forbidden("only admins can change seat capacity"))
	handler.setOverride(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHealthHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	healthy := NewHealthHandler(map[string]Pinger{
		"redis": PingFunc(func(context.Context) error { return nil }),
	})
	router := gin.New()
	healthy.Register(router)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"OK","checks":{"redis":"ok"}}`, w.Body.String())

	broken := NewHealthHandler(map[string]Pinger{
		"kafka": PingFunc(func(context.Context) error { return errors.New("no brokers") }),
	})
	router = gin.New()
	broken.Register(router)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "no brokers")
}
