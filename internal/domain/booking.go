package domain

import "time"

type BookingStatus string

const (
	BookingStatusReserved  BookingStatus = "RESERVED"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
	BookingStatusCompleted BookingStatus = "COMPLETED"
)

// CanTransitionTo encodes the booking lifecycle:
// RESERVED -> CONFIRMED -> COMPLETED, and RESERVED|CONFIRMED -> CANCELLED.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	switch s {
	case BookingStatusReserved:
		return next == BookingStatusConfirmed || next == BookingStatusCancelled
	case BookingStatusConfirmed:
		return next == BookingStatusCompleted || next == BookingStatusCancelled
	}
	return false
}

func (s BookingStatus) IsActive() bool {
	return s == BookingStatusReserved || s == BookingStatusConfirmed
}

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusPaid     PaymentStatus = "PAID"
	PaymentStatusFailed   PaymentStatus = "FAILED"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
)

type PassengerType string

const (
	PassengerTypeAdult  PassengerType = "ADULT"
	PassengerTypeChild  PassengerType = "CHILD"
	PassengerTypeInfant PassengerType = "INFANT"
)

func (t PassengerType) IsValid() bool {
	switch t {
	case PassengerTypeAdult, PassengerTypeChild, PassengerTypeInfant:
		return true
	}
	return false
}

// FarePercent is the share of the class price charged for this passenger type.
func (t PassengerType) FarePercent() int64 {
	switch t {
	case PassengerTypeChild:
		return 75
	case PassengerTypeInfant:
		return 10
	}
	return 100
}

type Booking struct {
	ID               int64
	Reference        string
	UserID           int64
	ContactName      string
	ContactEmail     string
	ContactPhone     string
	TotalAmountCents int64
	PaymentStatus    PaymentStatus
	Status           BookingStatus
	ExpiresAt        time.Time
	CancelledAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time

	Flights     []BookingFlight
	Passengers  []Passenger
	Allocations []SeatAllocation
	Payments    []Payment
}

// BookingFlight is one leg of a booking.
type BookingFlight struct {
	ID          int64
	BookingID   int64
	FlightID    int64
	TravelClass TravelClass
	FareCents   int64
	BaggageKg   int
}

type Passenger struct {
	ID        int64
	BookingID int64
	FirstName string
	LastName  string
	Type      PassengerType
	Position  int
}

type Payment struct {
	ID            int64
	BookingID     int64
	AmountCents   int64
	Status        PaymentStatus
	TransactionID string
	CreatedAt     time.Time
	ProcessedAt   *time.Time
}

// SeatNumbers returns the seat assigned to each passenger on the given leg, keyed by passenger id.
func (b *Booking) SeatNumbers(bookingFlightID int64) map[int64]string {
	seats := make(map[int64]string)
	for _, a := range b.Allocations {
		if a.BookingFlightID == bookingFlightID {
			seats[a.PassengerID] = a.SeatNumber
		}
	}
	return seats
}

func (b *Booking) LatestPayment() *Payment {
	if len(b.Payments) == 0 {
		return nil
	}
	latest := &b.Payments[0]
	for i := range b.Payments {
		if b.Payments[i].ID > latest.ID {
			latest = &b.Payments[i]
		}
	}
	return latest
}

func (b *Booking) Leg(bookingFlightID int64) *BookingFlight {
	for i := range b.Flights {
		if b.Flights[i].ID == bookingFlightID {
			return &b.Flights[i]
		}
	}
	return nil
}

type CancelHistory struct {
	ID            int64
	BookingID     int64
	Actor         string
	Reason        string
	FeeCents      int64
	RefundCents   int64
	SeatsReleased int
	CreatedAt     time.Time
}

type RefundStatus string

const (
	RefundStatusPending RefundStatus = "PENDING"
)

type RefundHistory struct {
	ID              int64
	BookingID       int64
	CancelHistoryID int64
	AmountCents     int64
	Status          RefundStatus
	CreatedAt       time.Time
}
