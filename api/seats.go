package api

import (
	"net/http"

	"github.com/Domenick1991/seatbooking/internal/service/booking"
	"github.com/Domenick1991/seatbooking/internal/service/seats"
	"github.com/gin-gonic/gin"
)

type SeatHandler struct {
	seats    seats.SeatUseCase
	bookings booking.BookingUseCase
}

func NewSeatHandler(seatService seats.SeatUseCase, bookingService booking.BookingUseCase) *SeatHandler {
	return &SeatHandler{seats: seatService, bookings: bookingService}
}

func (h *SeatHandler) Register(router *gin.RouterGroup) {
	router.GET("/availability", h.availability)
	router.GET("/layout", h.layout)
	router.PUT("/overrides/:date", h.setOverride)
}

func (h *SeatHandler) availability(c *gin.Context) {
	caller, ok := actor(c)
	if !ok {
		return
	}

	date := c.Query("date")
	if date == "" {
		badRequest(c, "date query parameter is required")
		return
	}

	a, err := h.bookings.GetSeatAvailability(c.Request.Context(), date, caller.UserID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toAvailabilityResponse(a))
}

func (h *SeatHandler) layout(c *gin.Context) {
	cfg, err := h.seats.GetLayout(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toLayoutResponse(cfg))
}

func (h *SeatHandler) setOverride(c *gin.Context) {
	caller, ok := actor(c)
	if !ok {
		return
	}

	var req setOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.SeatCount == nil {
		badRequest(c, "seatCount is required")
		return
	}

	saved, err := h.seats.SetDayOverride(c.Request.Context(), caller, c.Param("date"), *req.SeatCount)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toOverrideResponse(saved))
}
