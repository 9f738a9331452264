// Package memory is an in-process repository.Store. Transactions are serialized by a single
// mutex and run against a private copy of the data that replaces the shared copy on commit.
package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/Domenick1991/seatledger/internal/domain"
	"github.com/Domenick1991/seatledger/internal/repository"
)

type state struct {
	aircraft    map[int64]domain.Aircraft
	seats       map[int64]domain.Seat
	flights     map[int64]domain.Flight
	flightSeats map[int64]domain.FlightSeat
	bookings    map[int64]domain.Booking
	legs        map[int64]domain.BookingFlight
	passengers  map[int64]domain.Passenger
	allocations map[int64]domain.SeatAllocation
	payments    map[int64]domain.Payment
	cancels     map[int64]domain.CancelHistory
	refunds     map[int64]domain.RefundHistory
}

func newState() *state {
	return &state{
		aircraft:    make(map[int64]domain.Aircraft),
		seats:       make(map[int64]domain.Seat),
		flights:     make(map[int64]domain.Flight),
		flightSeats: make(map[int64]domain.FlightSeat),
		bookings:    make(map[int64]domain.Booking),
		legs:        make(map[int64]domain.BookingFlight),
		passengers:  make(map[int64]domain.Passenger),
		allocations: make(map[int64]domain.SeatAllocation),
		payments:    make(map[int64]domain.Payment),
		cancels:     make(map[int64]domain.CancelHistory),
		refunds:     make(map[int64]domain.RefundHistory),
	}
}

func (s *state) clone() *state {
	return &state{
		aircraft:    maps.Clone(s.aircraft),
		seats:       maps.Clone(s.seats),
		flights:     maps.Clone(s.flights),
		flightSeats: maps.Clone(s.flightSeats),
		bookings:    maps.Clone(s.bookings),
		legs:        maps.Clone(s.legs),
		passengers:  maps.Clone(s.passengers),
		allocations: maps.Clone(s.allocations),
		payments:    maps.Clone(s.payments),
		cancels:     maps.Clone(s.cancels),
		refunds:     maps.Clone(s.refunds),
	}
}

// AllocationHook runs before a seat allocation row is inserted. A non-nil error fails the insert.
type AllocationHook func(allocation domain.SeatAllocation) error

type Store struct {
	mu    sync.Mutex
	data  *state
	seq   int64
	now   func() time.Time
	hook  AllocationHook
	txs   int
	fails int
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func NewStore(opts ...Option) *Store {
	s := &Store{data: newState(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	return s.run(ctx, true, fn)
}

func (s *Store) View(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	return s.run(ctx, false, fn)
}

func (s *Store) run(ctx context.Context, commit bool, fn func(ctx context.Context, tx repository.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.txs++
	work := s.data.clone()
	if err := fn(ctx, &memTx{store: s, st: work}); err != nil {
		s.fails++
		return err
	}
	if err := ctx.Err(); err != nil {
		s.fails++
		return err
	}
	if commit {
		s.data = work
	}
	return nil
}

// SetAllocationHook installs h for every later allocation insert; nil removes it.
func (s *Store) SetAllocationHook(h AllocationHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hook = h
}

// Stats reports how many transactions ran and how many rolled back.
func (s *Store) Stats() (transactions, rolledBack int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.txs, s.fails
}

// Counts is a row count per table, for assertions on atomicity.
type Counts struct {
	Flights         int
	FlightSeats     int
	Bookings        int
	BookingFlights  int
	Passengers      int
	Allocations     int
	Payments        int
	CancelHistories int
	RefundHistories int
}

func (s *Store) Counts() Counts {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Counts{
		Flights:         len(s.data.flights),
		FlightSeats:     len(s.data.flightSeats),
		Bookings:        len(s.data.bookings),
		BookingFlights:  len(s.data.legs),
		Passengers:      len(s.data.passengers),
		Allocations:     len(s.data.allocations),
		Payments:        len(s.data.payments),
		CancelHistories: len(s.data.cancels),
		RefundHistories: len(s.data.refunds),
	}
}

// AddAircraft registers an aircraft with the given seat catalog.
func (s *Store) AddAircraft(registration, model string, seats []domain.Seat) (domain.Aircraft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.data.aircraft {
		if a.Registration == registration {
			return domain.Aircraft{}, fmt.Errorf("%w: aircraft %s already registered", domain.ErrInvariantViolation, registration)
		}
	}

	a := domain.Aircraft{ID: s.nextID(), Registration: registration, Model: model}
	s.data.aircraft[a.ID] = a
	for _, seat := range seats {
		seat.ID = s.nextID()
		seat.AircraftID = a.ID
		s.data.seats[seat.ID] = seat
	}
	return a, nil
}

// DeactivateSeat takes a catalog seat out of service; flights created afterwards do not get it.
func (s *Store) DeactivateSeat(aircraftID int64, seatNumber string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, seat := range s.data.seats {
		if seat.AircraftID == aircraftID && seat.SeatNumber == seatNumber {
			seat.Active = false
			s.data.seats[id] = seat
			return nil
		}
	}
	return fmt.Errorf("%w: seat %s on aircraft %d", domain.ErrNotFound, seatNumber, aircraftID)
}

// nextID must be called with mu held. Ids are not reused after a rollback.
func (s *Store) nextID() int64 {
	s.seq++
	return s.seq
}

func sortedIDs[V any](m map[int64]V) []int64 {
	return slices.Sorted(maps.Keys(m))
}

var _ repository.Store = (*Store)(nil)

// AddFlight creates f on an already registered aircraft in its own transaction.
func (s *Store) AddFlight(ctx context.Context, f *domain.Flight) error {
	return s.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		return tx.CreateFlight(ctx, f)
	})
}
