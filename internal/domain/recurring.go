package domain

import (
	"errors"
	"fmt"
	"time"
)

const DateLayout = "2006-01-02"

var ErrInvalidDate = errors.New("invalid date, expected YYYY-MM-DD")

// ParseDate parses a calendar date in YYYY-MM-DD form. The result is at
// midnight UTC so that dates compare as plain calendar days.
func ParseDate(s string) (time.Time, error) {
	if len(s) != len(DateLayout) {
		return time.Time{}, ErrInvalidDate
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return t, nil
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Today returns the calendar date of now as observed in loc.
func Today(now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return now.In(loc).Format(DateLayout)
}

// Recurring describes a weekly series. DaysOfWeek uses 0 for Sunday.
type Recurring struct {
	DaysOfWeek []int  `json:"days_of_week" bson:"days_of_week"`
	StartDate  string `json:"start_date" bson:"start_date"`
	EndDate    string `json:"end_date,omitempty" bson:"end_date,omitempty"`
}

func (r Recurring) Validate() error {
	if len(r.DaysOfWeek) == 0 {
		return errors.New("recurring booking needs at least one day of week")
	}
	for _, d := range r.DaysOfWeek {
		if d < 0 || d > 6 {
			return fmt.Errorf("day of week %d out of range 0-6", d)
		}
	}
	start, err := ParseDate(r.StartDate)
	if err != nil {
		return fmt.Errorf("start date: %w", err)
	}
	if r.EndDate != "" {
		end, err := ParseDate(r.EndDate)
		if err != nil {
			return fmt.Errorf("end date: %w", err)
		}
		if end.Before(start) {
			return errors.New("end date is before start date")
		}
	}
	return nil
}

// OccursOn reports whether the series covers date. Malformed dates never match.
func (r Recurring) OccursOn(date string) bool {
	if date < r.StartDate || (r.EndDate != "" && date > r.EndDate) {
		return false
	}
	t, err := ParseDate(date)
	if err != nil {
		return false
	}
	wd := int(t.Weekday())
	for _, d := range r.DaysOfWeek {
		if d == wd {
			return true
		}
	}
	return false
}

// Occurrences lists the dates of the series between from and to inclusive.
func (r Recurring) Occurrences(from, to string) []string {
	start, err := ParseDate(from)
	if err != nil {
		return nil
	}
	end, err := ParseDate(to)
	if err != nil {
		return nil
	}
	var dates []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		date := FormatDate(d)
		if r.OccursOn(date) {
			dates = append(dates, date)
		}
	}
	return dates
}
