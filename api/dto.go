package api

import (
	"time"

	"github.com/Domenick1991/seatbooking/internal/domain"
	"github.com/Domenick1991/seatbooking/internal/service/booking"
)

type recurringDTO struct {
	DaysOfWeek []int  `json:"daysOfWeek"`
	StartDate  string `json:"startDate,omitempty"`
	EndDate    string `json:"endDate,omitempty"`
}

func (r *recurringDTO) toDomain() *domain.Recurring {
	if r == nil {
		return nil
	}
	return &domain.Recurring{DaysOfWeek: r.DaysOfWeek, StartDate: r.StartDate, EndDate: r.EndDate}
}

func toRecurringDTO(r *domain.Recurring) *recurringDTO {
	if r == nil {
		return nil
	}
	return &recurringDTO{DaysOfWeek: r.DaysOfWeek, StartDate: r.StartDate, EndDate: r.EndDate}
}

type createBookingRequest struct {
	Date          string        `json:"date"`
	Duration      string        `json:"duration"`
	SeatID        string        `json:"seatId"`
	LunchOption   string        `json:"lunchOption"`
	Recurring     *recurringDTO `json:"recurring"`
	BookForUserID string        `json:"bookForUserId"`
}

type updateBookingRequest struct {
	LunchOption *string `json:"lunchOption"`
	Duration    *string `json:"duration"`
	// Date picks one occurrence of a recurring booking.
	Date string `json:"date"`
}

type setOverrideRequest struct {
	SeatCount *int `json:"seatCount"`
}

type overrideDTO struct {
	Date         string `json:"date"`
	LunchOption  string `json:"lunchOption,omitempty"`
	Duration     string `json:"duration,omitempty"`
	DurationType string `json:"durationType,omitempty"`
	Canceled     bool   `json:"canceled,omitempty"`
}

type bookingResponse struct {
	ID           string        `json:"id"`
	UserID       string        `json:"userId"`
	BookingDate  string        `json:"bookingDate"`
	SeatID       string        `json:"seatId"`
	DurationType string        `json:"durationType"`
	Duration     string        `json:"duration,omitempty"`
	LunchOption  string        `json:"lunchOption,omitempty"`
	Recurring    *recurringDTO `json:"recurring,omitempty"`
	Overrides    []overrideDTO `json:"overrides,omitempty"`
	Status       string        `json:"status"`
	CanceledAt   *string       `json:"canceledAt"`
	CanceledBy   string        `json:"canceledBy,omitempty"`
	CreatedAt    string        `json:"createdAt"`
	UpdatedAt    string        `json:"updatedAt"`
}

func toBookingResponse(b *domain.Booking) bookingResponse {
	resp := bookingResponse{
		ID:           b.ID,
		UserID:       b.UserID,
		BookingDate:  b.BookingDate,
		SeatID:       b.SeatID,
		DurationType: string(b.DurationType),
		Duration:     b.Duration,
		LunchOption:  string(b.LunchOption),
		Recurring:    toRecurringDTO(b.Recurring),
		Status:       string(b.Status),
		CanceledBy:   b.CanceledBy,
		CreatedAt:    formatTime(b.CreatedAt),
		UpdatedAt:    formatTime(b.UpdatedAt),
	}
	if b.CanceledAt != nil {
		at := formatTime(*b.CanceledAt)
		resp.CanceledAt = &at
	}
	for _, o := range b.Overrides {
		resp.Overrides = append(resp.Overrides, overrideDTO{
			Date:         o.Date,
			LunchOption:  string(o.LunchOption),
			Duration:     o.Duration,
			DurationType: string(o.DurationType),
			Canceled:     o.Canceled,
		})
	}
	return resp
}

type occurrenceResponse struct {
	BookingID    string `json:"bookingId"`
	Date         string `json:"date"`
	SeatID       string `json:"seatId"`
	DurationType string `json:"durationType"`
	Duration     string `json:"duration,omitempty"`
	LunchOption  string `json:"lunchOption,omitempty"`
	Recurring    bool   `json:"recurring"`
}

func toOccurrenceResponses(list []domain.Occurrence) []occurrenceResponse {
	out := make([]occurrenceResponse, 0, len(list))
	for _, o := range list {
		out = append(out, occurrenceResponse{
			BookingID:    o.BookingID,
			Date:         o.Date,
			SeatID:       o.SeatID,
			DurationType: string(o.DurationType),
			Duration:     o.Duration,
			LunchOption:  string(o.LunchOption),
			Recurring:    o.Recurring,
		})
	}
	return out
}

type myBookingResponse struct {
	BookingID string `json:"bookingId"`
	SeatID    string `json:"seatId"`
}

type availabilityResponse struct {
	Date              string             `json:"date"`
	DefaultSeatCount  int                `json:"defaultSeatCount"`
	OverrideSeatCount *int               `json:"overrideSeatCount,omitempty"`
	BookingsCount     int                `json:"bookingsCount"`
	AvailableSeats    int                `json:"availableSeats"`
	BookedSeatIDs     []string           `json:"bookedSeatIds"`
	MyBooking         *myBookingResponse `json:"myBooking,omitempty"`
}

func toAvailabilityResponse(a *booking.Availability) availabilityResponse {
	resp := availabilityResponse{
		Date:              a.Date,
		DefaultSeatCount:  a.DefaultSeatCount,
		OverrideSeatCount: a.OverrideSeatCount,
		BookingsCount:     a.BookingsCount,
		AvailableSeats:    a.AvailableSeats,
		BookedSeatIDs:     a.BookedSeatIDs,
	}
	if resp.BookedSeatIDs == nil {
		resp.BookedSeatIDs = []string{}
	}
	if a.MyBooking != nil {
		resp.MyBooking = &myBookingResponse{BookingID: a.MyBooking.BookingID, SeatID: a.MyBooking.SeatID}
	}
	return resp
}

type seatDTO struct {
	ID    string `json:"id"`
	Side  string `json:"side"`
	Index int    `json:"index"`
}

type tableDTO struct {
	Name  string    `json:"name"`
	Seats []seatDTO `json:"seats"`
}

type layoutResponse struct {
	DefaultSeatCount int        `json:"defaultSeatCount"`
	Tables           []tableDTO `json:"tables"`
	ModifiedBy       string     `json:"modifiedBy,omitempty"`
	LastModified     string     `json:"lastModified,omitempty"`
}

func toLayoutResponse(cfg *domain.SeatConfiguration) layoutResponse {
	resp := layoutResponse{
		DefaultSeatCount: cfg.DefaultSeatCount,
		Tables:           make([]tableDTO, 0, len(cfg.Tables)),
		ModifiedBy:       cfg.ModifiedBy,
		LastModified:     formatTime(cfg.LastModified),
	}
	for _, t := range cfg.Tables {
		table := tableDTO{Name: t.Name, Seats: make([]seatDTO, 0, len(t.Seats))}
		for _, s := range t.Seats {
			table.Seats = append(table.Seats, seatDTO{ID: s.ID, Side: string(s.Side), Index: s.Index})
		}
		resp.Tables = append(resp.Tables, table)
	}
	return resp
}

type overrideResponse struct {
	Date      string `json:"date"`
	SeatCount int    `json:"seatCount"`
	CreatedBy string `json:"createdBy"`
	CreatedAt string `json:"createdAt"`
}

func toOverrideResponse(o *domain.DaySeatOverride) overrideResponse {
	return overrideResponse{Date: o.Date, SeatCount: o.SeatCount, CreatedBy: o.CreatedBy, CreatedAt: formatTime(o.CreatedAt)}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
