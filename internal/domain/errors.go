package domain

import "errors"

// Storage level conflicts. Repositories return them when a uniqueness rule
// for active bookings or the configuration singleton is violated.
var (
	ErrSeatAlreadyBooked   = errors.New("seat already booked")
	ErrUserAlreadyBooked   = errors.New("user already has a booking on this date")
	ErrConfigurationExists = errors.New("seat configuration already exists")
)
