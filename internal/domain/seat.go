package domain

import (
	"fmt"
	"time"
)

type Aircraft struct {
	ID           int64
	Registration string
	Model        string
}

// Seat is a physical seat in an aircraft's catalog.
type Seat struct {
	ID          int64
	AircraftID  int64
	SeatNumber  string
	TravelClass TravelClass
	Active      bool
}

// FlightSeat is a seat-slot: one catalog seat on one flight.
type FlightSeat struct {
	ID          int64
	FlightID    int64
	SeatID      int64
	SeatNumber  string
	TravelClass TravelClass
	IsAvailable bool
}

type SeatAllocation struct {
	ID              int64
	BookingFlightID int64
	FlightSeatID    int64
	PassengerID     int64
	SeatNumber      string
	CreatedAt       time.Time
}

const seatsPerRow = 6

// CabinLayout numbers a seat catalog row by row, six abreast, first class at the front.
// AircraftID and ID are left for the caller.
func CabinLayout(counts map[TravelClass]int) []Seat {
	var seats []Seat
	row := 1
	for _, class := range []TravelClass{TravelClassFirst, TravelClassBusiness, TravelClassEconomy} {
		n := counts[class]
		for i := 0; i < n; i++ {
			seats = append(seats, Seat{
				SeatNumber:  fmt.Sprintf("%d%c", row+i/seatsPerRow, 'A'+rune(i%seatsPerRow)),
				TravelClass: class,
				Active:      true,
			})
		}
		if n > 0 {
			row += (n + seatsPerRow - 1) / seatsPerRow
		}
	}
	return seats
}
