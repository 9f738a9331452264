package repository

import (
	"context"
	"time"

	"github.com/Domenick1991/seatledger/internal/domain"
)

// Store hands out transactions. Every mutation of inventory, allocations and bookings
// happens inside WithinTx; reads that must be consistent use View.
type Store interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	View(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

type Tx interface {
	FlightRepository
	LedgerRepository
	SeatRepository
	AllocationRepository
	BookingRepository
	CancellationRepository

	// Savepoint runs fn in a nested transaction. An error from fn undoes only fn's writes.
	Savepoint(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

type FlightRepository interface {
	List(ctx context.Context) ([]domain.Flight, error)
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	// CreateFlight inserts the flight, copies the aircraft's active seats into seat-slots
	// and sets the class counters from them.
	CreateFlight(ctx context.Context, flight *domain.Flight) error
	UpdateFlightStatus(ctx context.Context, id int64, status domain.FlightStatus) (*domain.Flight, error)
}

type LedgerRepository interface {
	// LockFlights locks the flight rows in ascending id order and returns them fresh.
	LockFlights(ctx context.Context, ids []int64) ([]domain.Flight, error)
	DecrementAvailable(ctx context.Context, flightID int64, class domain.TravelClass) (int, error)
	IncrementAvailable(ctx context.Context, flightID int64, class domain.TravelClass) (int, error)
	AvailableSeats(ctx context.Context, flightID int64, class domain.TravelClass) (int, error)
}

type SeatRepository interface {
	LockFlightSeat(ctx context.Context, flightSeatID int64) (*domain.FlightSeat, error)
	LockFlightSeatByNumber(ctx context.Context, flightID int64, seatNumber string) (*domain.FlightSeat, error)
	// NextAvailableSeats returns up to limit free seat-slots, skipping rows locked by others.
	NextAvailableSeats(ctx context.Context, flightID int64, class domain.TravelClass, limit int) ([]domain.FlightSeat, error)
	SetSeatAvailable(ctx context.Context, flightSeatID int64, available bool) error
	CountAvailableSeats(ctx context.Context, flightID int64, class domain.TravelClass) (int, error)
	ListFlightSeats(ctx context.Context, flightID int64) ([]domain.FlightSeat, error)
}

type AllocationRepository interface {
	CreateAllocation(ctx context.Context, allocation *domain.SeatAllocation) error
	GetAllocation(ctx context.Context, id int64) (*domain.SeatAllocation, error)
	FindAllocation(ctx context.Context, bookingFlightID, passengerID int64) (*domain.SeatAllocation, error)
	DeleteAllocation(ctx context.Context, id int64) error
	ListAllocationsByBooking(ctx context.Context, bookingID int64) ([]domain.SeatAllocation, error)
}

type BookingRepository interface {
	CreateBooking(ctx context.Context, booking *domain.Booking) error
	CreatePassenger(ctx context.Context, passenger *domain.Passenger) error
	CreateBookingFlight(ctx context.Context, leg *domain.BookingFlight) error
	CreatePayment(ctx context.Context, payment *domain.Payment) error
	UpdatePayment(ctx context.Context, payment *domain.Payment) error
	GetBookingFlight(ctx context.Context, id int64) (*domain.BookingFlight, error)
	GetPassenger(ctx context.Context, id int64) (*domain.Passenger, error)
	// GetBooking loads the booking aggregate (legs, passengers, allocations, payments).
	GetBooking(ctx context.Context, reference string) (*domain.Booking, error)
	// GetBookingForUpdate is GetBooking with the booking row locked until the transaction ends.
	GetBookingForUpdate(ctx context.Context, reference string) (*domain.Booking, error)
	UpdateBookingTotal(ctx context.Context, bookingID int64, totalCents int64) error
	UpdateBookingStatus(ctx context.Context, bookingID int64, status domain.BookingStatus, payment domain.PaymentStatus) error
	ListExpiredReserved(ctx context.Context, now time.Time, limit int) ([]string, error)
	ListCompletable(ctx context.Context, now time.Time, limit int) ([]string, error)
}

type CancellationRepository interface {
	CreateCancelHistory(ctx context.Context, history *domain.CancelHistory) error
	GetCancelHistory(ctx context.Context, bookingID int64) (*domain.CancelHistory, error)
	CreateRefundHistory(ctx context.Context, refund *domain.RefundHistory) error
	ListRefundHistory(ctx context.Context, bookingID int64) ([]domain.RefundHistory, error)
}
