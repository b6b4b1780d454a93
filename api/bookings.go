package api

import (
	"net/http"

	"github.com/Domenick1991/seatbooking/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.create)
	router.GET("/upcoming", h.upcoming)
	router.GET("/:id", h.get)
	router.PATCH("/:id", h.update)
	router.DELETE("/:id", h.cancel)
}

func (h *BookingHandler) create(c *gin.Context) {
	caller, ok := actor(c)
	if !ok {
		return
	}

	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	created, err := h.service.BookSeat(c.Request.Context(), booking.BookSeatInput{
		Actor:         caller,
		Date:          req.Date,
		Duration:      req.Duration,
		SeatID:        req.SeatID,
		LunchOption:   req.LunchOption,
		Recurring:     req.Recurring.toDomain(),
		BookForUserID: req.BookForUserID,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toBookingResponse(created))
}

func (h *BookingHandler) upcoming(c *gin.Context) {
	caller, ok := actor(c)
	if !ok {
		return
	}

	list, err := h.service.ListUpcoming(c.Request.Context(), caller.UserID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"bookings": toOccurrenceResponses(list)})
}

func (h *BookingHandler) get(c *gin.Context) {
	caller, ok := actor(c)
	if !ok {
		return
	}

	b, err := h.service.GetBooking(c.Request.Context(), c.Param("id"), caller)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toBookingResponse(b))
}

func (h *BookingHandler) update(c *gin.Context) {
	caller, ok := actor(c)
	if !ok {
		return
	}

	var req updateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	updated, err := h.service.UpdateBooking(c.Request.Context(), c.Param("id"), caller.UserID,
		booking.UpdateInput{LunchOption: req.LunchOption, Duration: req.Duration},
		booking.UpdateOptions{Date: req.Date},
	)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toBookingResponse(updated))
}

// cancel accepts ?date= to drop a single occurrence of a recurring booking.
func (h *BookingHandler) cancel(c *gin.Context) {
	caller, ok := actor(c)
	if !ok {
		return
	}

	canceled, err := h.service.CancelBooking(c.Request.Context(), c.Param("id"), caller,
		booking.CancelInput{Date: c.Query("date")})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toBookingResponse(canceled))
}
