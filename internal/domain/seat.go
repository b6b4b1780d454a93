package domain

import (
	"fmt"
	"time"
)

const (
	DefaultSeatCount = 40
	// FallbackCapacity applies when no seat configuration has been stored yet.
	FallbackCapacity = 50

	defaultTables       = 4
	defaultSeatsPerSide = 5
)

type SeatSide string

const (
	SeatSideA SeatSide = "A"
	SeatSideB SeatSide = "B"
)

type Seat struct {
	ID    string   `json:"id" bson:"id"`
	Side  SeatSide `json:"side" bson:"side"`
	Index int      `json:"index" bson:"index"`
}

type Table struct {
	Name  string `json:"name" bson:"name"`
	Seats []Seat `json:"seats" bson:"seats"`
}

type SeatConfiguration struct {
	ID               string    `json:"id" bson:"_id"`
	DefaultSeatCount int       `json:"default_seat_count" bson:"default_seat_count"`
	Tables           []Table   `json:"tables" bson:"tables"`
	ModifiedBy       string    `json:"modified_by,omitempty" bson:"modified_by,omitempty"`
	LastModified     time.Time `json:"last_modified" bson:"last_modified"`
}

func (c *SeatConfiguration) SeatCount() int {
	n := 0
	for _, t := range c.Tables {
		n += len(t.Seats)
	}
	return n
}

type DaySeatOverride struct {
	Date      string    `json:"date" bson:"_id"`
	SeatCount int       `json:"seat_count" bson:"seat_count"`
	CreatedBy string    `json:"created_by" bson:"created_by"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// Capacity is the resolved seat capacity for one date.
type Capacity struct {
	Date             string
	DefaultSeatCount int
	OverrideCount    *int
}

func (c Capacity) Effective() int {
	if c.OverrideCount != nil {
		return *c.OverrideCount
	}
	return c.DefaultSeatCount
}

// DefaultLayout builds tables T1..T4 with five seats on each side.
func DefaultLayout() []Table {
	tables := make([]Table, 0, defaultTables)
	for n := 1; n <= defaultTables; n++ {
		name := fmt.Sprintf("T%d", n)
		seats := make([]Seat, 0, 2*defaultSeatsPerSide)
		for _, side := range []SeatSide{SeatSideA, SeatSideB} {
			for i := 1; i <= defaultSeatsPerSide; i++ {
				seats = append(seats, Seat{
					ID:    fmt.Sprintf("%s%s%d", name, side, i),
					Side:  side,
					Index: i,
				})
			}
		}
		tables = append(tables, Table{Name: name, Seats: seats})
	}
	return tables
}
