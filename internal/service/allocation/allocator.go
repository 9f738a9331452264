package allocation

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/seatledger/internal/domain"
	"github.com/Domenick1991/seatledger/internal/metrics"
	"github.com/Domenick1991/seatledger/internal/repository"
	"github.com/Domenick1991/seatledger/internal/service/inventory"
)

const DefaultMaxSeatAttempts = 5

// Allocator binds passengers to seat-slots. Every call runs inside the caller's transaction and
// takes locks in a fixed order: flight row, then seat-slot.
type Allocator struct {
	ledger          *inventory.Ledger
	maxSeatAttempts int
	metrics         *metrics.Metrics
}

type Option func(*Allocator)

func WithMaxSeatAttempts(n int) Option {
	return func(a *Allocator) {
		if n > 0 {
			a.maxSeatAttempts = n
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Allocator) {
		a.metrics = m
	}
}

func NewAllocator(ledger *inventory.Ledger, opts ...Option) *Allocator {
	a := &Allocator{ledger: ledger, maxSeatAttempts: DefaultMaxSeatAttempts}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Allocate gives the seat-slot to the passenger on the leg. The ledger reserve, the allocation
// row and the seat flag change together or not at all.
func (a *Allocator) Allocate(ctx context.Context, tx repository.Tx, bookingFlightID, flightSeatID, passengerID int64) (*domain.SeatAllocation, error) {
	leg, err := tx.GetBookingFlight(ctx, bookingFlightID)
	if err != nil {
		return nil, err
	}
	if _, err := tx.LockFlights(ctx, []int64{leg.FlightID}); err != nil {
		return nil, err
	}
	return a.allocate(ctx, tx, leg, flightSeatID, passengerID)
}

func (a *Allocator) allocate(ctx context.Context, tx repository.Tx, leg *domain.BookingFlight, flightSeatID, passengerID int64) (*domain.SeatAllocation, error) {
	passenger, err := tx.GetPassenger(ctx, passengerID)
	if err != nil {
		return nil, err
	}
	if passenger.BookingID != leg.BookingID {
		return nil, fmt.Errorf("%w: passenger %d is not on booking %d", domain.ErrInvariantViolation, passengerID, leg.BookingID)
	}

	seat, err := tx.LockFlightSeat(ctx, flightSeatID)
	if err != nil {
		return nil, err
	}
	if seat.FlightID != leg.FlightID || seat.TravelClass != leg.TravelClass {
		return nil, fmt.Errorf("%w: seat %s is not a %s seat of flight %d",
			domain.ErrInvariantViolation, seat.SeatNumber, leg.TravelClass, leg.FlightID)
	}
	if !seat.IsAvailable {
		return nil, fmt.Errorf("%w: seat %s on flight %d is taken", domain.ErrAllocationConflict, seat.SeatNumber, seat.FlightID)
	}

	_, err = tx.FindAllocation(ctx, leg.ID, passengerID)
	switch {
	case err == nil:
		return nil, fmt.Errorf("%w: passenger %d already has a seat on leg %d", domain.ErrInvariantViolation, passengerID, leg.ID)
	case !errors.Is(err, domain.ErrNotFound):
		return nil, err
	}

	if err := a.ledger.Reserve(ctx, tx, leg.FlightID, leg.TravelClass); err != nil {
		return nil, err
	}

	allocation := &domain.SeatAllocation{
		BookingFlightID: leg.ID,
		FlightSeatID:    seat.ID,
		PassengerID:     passengerID,
		SeatNumber:      seat.SeatNumber,
	}
	if err := tx.CreateAllocation(ctx, allocation); err != nil {
		return nil, err
	}
	if err := tx.SetSeatAvailable(ctx, seat.ID, false); err != nil {
		return nil, err
	}
	return allocation, nil
}

// AllocateAny seats the passenger on the first free seat-slot of the leg's class. Each candidate
// is tried in its own savepoint; a lost race moves on to the next one.
func (a *Allocator) AllocateAny(ctx context.Context, tx repository.Tx, bookingFlightID, passengerID int64) (*domain.SeatAllocation, error) {
	leg, err := tx.GetBookingFlight(ctx, bookingFlightID)
	if err != nil {
		return nil, err
	}
	if _, err := tx.LockFlights(ctx, []int64{leg.FlightID}); err != nil {
		return nil, err
	}

	candidates, err := tx.NextAvailableSeats(ctx, leg.FlightID, leg.TravelClass, a.maxSeatAttempts)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: no free %s seat on flight %d", domain.ErrOutOfInventory, leg.TravelClass, leg.FlightID)
	}

	var lastErr error
	for _, seat := range candidates {
		var allocation *domain.SeatAllocation
		err := tx.Savepoint(ctx, func(ctx context.Context, sp repository.Tx) error {
			var err error
			allocation, err = a.allocate(ctx, sp, leg, seat.ID, passengerID)
			return err
		})
		a.metrics.SeatAttempt(err)
		if err == nil {
			return allocation, nil
		}
		if !errors.Is(err, domain.ErrAllocationConflict) {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("no seat after %d candidates: %w", len(candidates), lastErr)
}

// AllocateByNumber seats the passenger on a named seat of the leg's flight.
func (a *Allocator) AllocateByNumber(ctx context.Context, tx repository.Tx, bookingFlightID int64, seatNumber string, passengerID int64) (*domain.SeatAllocation, error) {
	leg, err := tx.GetBookingFlight(ctx, bookingFlightID)
	if err != nil {
		return nil, err
	}
	if _, err := tx.LockFlights(ctx, []int64{leg.FlightID}); err != nil {
		return nil, err
	}

	seat, err := tx.LockFlightSeatByNumber(ctx, leg.FlightID, seatNumber)
	if err != nil {
		return nil, err
	}
	allocation, err := a.allocate(ctx, tx, leg, seat.ID, passengerID)
	a.metrics.SeatAttempt(err)
	return allocation, err
}

// Release undoes an allocation: the row goes, the seat-slot is free again and the counter
// goes back up.
func (a *Allocator) Release(ctx context.Context, tx repository.Tx, allocationID int64) (*domain.SeatAllocation, error) {
	allocation, err := tx.GetAllocation(ctx, allocationID)
	if err != nil {
		return nil, err
	}
	leg, err := tx.GetBookingFlight(ctx, allocation.BookingFlightID)
	if err != nil {
		return nil, err
	}
	if _, err := tx.LockFlights(ctx, []int64{leg.FlightID}); err != nil {
		return nil, err
	}
	if _, err := tx.LockFlightSeat(ctx, allocation.FlightSeatID); err != nil {
		return nil, err
	}

	if err := tx.DeleteAllocation(ctx, allocation.ID); err != nil {
		return nil, err
	}
	if err := tx.SetSeatAvailable(ctx, allocation.FlightSeatID, true); err != nil {
		return nil, err
	}
	if err := a.ledger.Release(ctx, tx, leg.FlightID, leg.TravelClass); err != nil {
		return nil, err
	}
	return allocation, nil
}
