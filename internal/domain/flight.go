package domain

import (
	"fmt"
	"time"
)

type FlightStatus string

const (
	FlightStatusScheduled FlightStatus = "SCHEDULED"
	FlightStatusBoarding  FlightStatus = "BOARDING"
	FlightStatusDeparted  FlightStatus = "DEPARTED"
	FlightStatusArrived   FlightStatus = "ARRIVED"
	FlightStatusDelayed   FlightStatus = "DELAYED"
	FlightStatusCancelled FlightStatus = "CANCELLED"
)

func (s FlightStatus) IsValid() bool {
	switch s {
	case FlightStatusScheduled, FlightStatusBoarding, FlightStatusDeparted,
		FlightStatusArrived, FlightStatusDelayed, FlightStatusCancelled:
		return true
	}
	return false
}

// Bookable reports whether new seats may still be sold on a flight in this status.
func (s FlightStatus) Bookable() bool {
	return s == FlightStatusScheduled || s == FlightStatusDelayed
}

type TravelClass string

const (
	TravelClassEconomy  TravelClass = "ECONOMY"
	TravelClassBusiness TravelClass = "BUSINESS"
	TravelClassFirst    TravelClass = "FIRST"
)

var TravelClasses = []TravelClass{TravelClassEconomy, TravelClassBusiness, TravelClassFirst}

func (c TravelClass) IsValid() bool {
	switch c {
	case TravelClassEconomy, TravelClassBusiness, TravelClassFirst:
		return true
	}
	return false
}

func ParseTravelClass(s string) (TravelClass, error) {
	c := TravelClass(s)
	if !c.IsValid() {
		return "", fmt.Errorf("%w: unknown travel class %q", ErrInvariantViolation, s)
	}
	return c, nil
}

type Flight struct {
	ID                 int64
	FlightNumber       string
	AircraftID         int64
	FromAirport        string
	ToAirport          string
	DepartureTime      time.Time
	ArrivalTime        time.Time
	DurationMinutes    int
	Status             FlightStatus
	EconomyPriceCents  int64
	BusinessPriceCents int64
	FirstPriceCents    int64
	EconomyAvailable   int
	BusinessAvailable  int
	FirstAvailable     int
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (f *Flight) PriceFor(c TravelClass) int64 {
	switch c {
	case TravelClassEconomy:
		return f.EconomyPriceCents
	case TravelClassBusiness:
		return f.BusinessPriceCents
	case TravelClassFirst:
		return f.FirstPriceCents
	}
	return 0
}

func (f *Flight) AvailableFor(c TravelClass) int {
	switch c {
	case TravelClassEconomy:
		return f.EconomyAvailable
	case TravelClassBusiness:
		return f.BusinessAvailable
	case TravelClassFirst:
		return f.FirstAvailable
	}
	return 0
}

func (f *Flight) SetAvailable(c TravelClass, n int) {
	switch c {
	case TravelClassEconomy:
		f.EconomyAvailable = n
	case TravelClassBusiness:
		f.BusinessAvailable = n
	case TravelClassFirst:
		f.FirstAvailable = n
	}
}
