package domain

import "time"

type BookingStatus string

const (
	BookingStatusActive   BookingStatus = "active"
	BookingStatusCanceled BookingStatus = "canceled"
)

type Booking struct {
	ID           string        `json:"id" bson:"_id"`
	UserID       string        `json:"user_id" bson:"user_id"`
	BookingDate  string        `json:"booking_date" bson:"booking_date"`
	SeatID       string        `json:"seat_id" bson:"seat_id"`
	DurationType DurationType  `json:"duration_type" bson:"duration_type"`
	Duration     string        `json:"duration,omitempty" bson:"duration,omitempty"`
	LunchOption  LunchOption   `json:"lunch_option,omitempty" bson:"lunch_option,omitempty"`
	Recurring    *Recurring    `json:"recurring,omitempty" bson:"recurring,omitempty"`
	Overrides    []Override    `json:"overrides,omitempty" bson:"overrides,omitempty"`
	Status       BookingStatus `json:"status" bson:"status"`
	CanceledAt   *time.Time    `json:"canceled_at,omitempty" bson:"canceled_at,omitempty"`
	CanceledBy   string        `json:"canceled_by,omitempty" bson:"canceled_by,omitempty"`
	CreatedAt    time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at" bson:"updated_at"`
}

// Override replaces fields of a single occurrence of a recurring booking.
// Empty fields keep the value of the series.
type Override struct {
	Date         string       `json:"date" bson:"date"`
	LunchOption  LunchOption  `json:"lunch_option,omitempty" bson:"lunch_option,omitempty"`
	Duration     string       `json:"duration,omitempty" bson:"duration,omitempty"`
	DurationType DurationType `json:"duration_type,omitempty" bson:"duration_type,omitempty"`
	Canceled     bool         `json:"canceled,omitempty" bson:"canceled,omitempty"`
}

// BookingPatch lists the fields an update may touch. Nil fields are left as
// they are; a non-nil Overrides slice replaces the stored list.
type BookingPatch struct {
	LunchOption  *LunchOption
	Duration     *string
	DurationType *DurationType
	Overrides    []Override
	Status       *BookingStatus
	CanceledAt   *time.Time
	CanceledBy   *string
}

// Occurrence is one materialized day of a booking.
type Occurrence struct {
	BookingID    string       `json:"booking_id"`
	UserID       string       `json:"user_id"`
	Date         string       `json:"date"`
	SeatID       string       `json:"seat_id"`
	Duration     string       `json:"duration,omitempty"`
	DurationType DurationType `json:"duration_type"`
	LunchOption  LunchOption  `json:"lunch_option,omitempty"`
	Recurring    bool         `json:"recurring"`
}

func (b *Booking) IsActive() bool {
	return b.Status != BookingStatusCanceled
}

func (b *Booking) IsRecurring() bool {
	return b.Recurring != nil
}

// OverrideFor returns the override stored for date, if any.
func (b *Booking) OverrideFor(date string) (Override, bool) {
	for _, o := range b.Overrides {
		if o.Date == date {
			return o, true
		}
	}
	return Override{}, false
}

// MergeOverride returns a copy of the overrides with o merged into the entry
// for o.Date, or appended when no entry exists for that date.
func (b *Booking) MergeOverride(o Override) []Override {
	merged := make([]Override, 0, len(b.Overrides)+1)
	found := false
	for _, existing := range b.Overrides {
		if existing.Date != o.Date {
			merged = append(merged, existing)
			continue
		}
		found = true
		if o.LunchOption != "" {
			existing.LunchOption = o.LunchOption
		}
		if o.Duration != "" {
			existing.Duration = o.Duration
			existing.DurationType = o.DurationType
		}
		if o.Canceled {
			existing.Canceled = true
		}
		merged = append(merged, existing)
	}
	if !found {
		merged = append(merged, o)
	}
	return merged
}

// OccurrenceOn materializes the booking on date with any override applied.
// The second value is false when the booking does not take place that day.
func (b *Booking) OccurrenceOn(date string) (Occurrence, bool) {
	if !b.IsActive() {
		return Occurrence{}, false
	}
	if b.IsRecurring() {
		if date != b.BookingDate && !b.Recurring.OccursOn(date) {
			return Occurrence{}, false
		}
	} else if b.BookingDate != date {
		return Occurrence{}, false
	}

	occ := Occurrence{
		BookingID:    b.ID,
		UserID:       b.UserID,
		Date:         date,
		SeatID:       b.SeatID,
		Duration:     b.Duration,
		DurationType: b.DurationType,
		LunchOption:  b.LunchOption,
		Recurring:    b.IsRecurring(),
	}
	if o, ok := b.OverrideFor(date); ok {
		if o.Canceled {
			return Occurrence{}, false
		}
		if o.LunchOption != "" {
			occ.LunchOption = o.LunchOption
		}
		if o.Duration != "" {
			occ.Duration = o.Duration
			occ.DurationType = o.DurationType
		}
	}
	return occ, true
}
