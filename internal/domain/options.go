package domain

import (
	"fmt"
	"strings"
)

type DurationType string

const (
	DurationHour    DurationType = "hour"
	DurationHalfDay DurationType = "half-day"
	DurationFullDay DurationType = "full-day"
)

// MapDurationToEnum classifies a free-text duration label.
func MapDurationToEnum(label string) DurationType {
	l := strings.ToLower(strings.TrimSpace(label))
	switch {
	case strings.Contains(l, "1 hour") || l == "hour":
		return DurationHour
	case strings.Contains(l, "half") || strings.Contains(l, "4 hours"):
		return DurationHalfDay
	default:
		return DurationFullDay
	}
}

type LunchOption string

const (
	LunchNone   LunchOption = "none"
	LunchVeg    LunchOption = "veg"
	LunchNonVeg LunchOption = "non-veg"
	LunchVegan  LunchOption = "vegan"
)

// ParseLunchOption accepts the empty string as "not chosen".
func ParseLunchOption(raw string) (LunchOption, error) {
	v := LunchOption(strings.ToLower(strings.TrimSpace(raw)))
	switch v {
	case "", LunchNone, LunchVeg, LunchNonVeg, LunchVegan:
		return v, nil
	}
	return "", fmt.Errorf("unknown lunch option %q", raw)
}

// WantsMeal is true for options that need catering.
func (o LunchOption) WantsMeal() bool {
	return o != "" && o != LunchNone
}
