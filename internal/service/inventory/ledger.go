package inventory

import (
	"context"
	"fmt"
	"sort"

	"github.com/Domenick1991/seatledger/internal/domain"
	"github.com/Domenick1991/seatledger/internal/repository"
)

// Key identifies one counter of the ledger.
type Key struct {
	FlightID int64
	Class    domain.TravelClass
}

// Demand is the number of seats a booking needs per flight and class.
type Demand map[Key]int

func (d Demand) Add(flightID int64, class domain.TravelClass, seats int) {
	d[Key{FlightID: flightID, Class: class}] += seats
}

func (d Demand) FlightIDs() []int64 {
	seen := make(map[int64]struct{}, len(d))
	ids := make([]int64, 0, len(d))
	for k := range d {
		if _, ok := seen[k.FlightID]; ok {
			continue
		}
		seen[k.FlightID] = struct{}{}
		ids = append(ids, k.FlightID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Drift is a counter that disagrees with the number of free seat-slots it stands for.
type Drift struct {
	FlightID  int64
	Class     domain.TravelClass
	Counter   int
	FreeSlots int
}

type AuditRepository interface {
	repository.LedgerRepository
	repository.SeatRepository
}

// Ledger owns the per flight and class free-seat counters. It never caches: every read goes
// to the caller's transaction.
type Ledger struct{}

func NewLedger() *Ledger {
	return &Ledger{}
}

// Reserve takes one seat off the counter, or fails with ErrOutOfInventory when it is zero.
func (l *Ledger) Reserve(ctx context.Context, tx repository.LedgerRepository, flightID int64, class domain.TravelClass) error {
	_, err := tx.DecrementAvailable(ctx, flightID, class)
	return err
}

func (l *Ledger) Release(ctx context.Context, tx repository.LedgerRepository, flightID int64, class domain.TravelClass) error {
	_, err := tx.IncrementAvailable(ctx, flightID, class)
	return err
}

func (l *Ledger) Available(ctx context.Context, tx repository.LedgerRepository, flightID int64, class domain.TravelClass) (int, error) {
	return tx.AvailableSeats(ctx, flightID, class)
}

// EnsureCapacity locks every flight in the demand in ascending id order and checks each
// counter covers what is asked of it. The locks are held until the transaction ends, so the
// answer stays true for the caller. The locked flights are returned keyed by id.
func (l *Ledger) EnsureCapacity(ctx context.Context, tx repository.LedgerRepository, demand Demand) (map[int64]domain.Flight, error) {
	flights, err := tx.LockFlights(ctx, demand.FlightIDs())
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]domain.Flight, len(flights))
	for _, f := range flights {
		byID[f.ID] = f
	}

	keys := make([]Key, 0, len(demand))
	for k := range demand {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].FlightID != keys[j].FlightID {
			return keys[i].FlightID < keys[j].FlightID
		}
		return keys[i].Class < keys[j].Class
	})

	for _, k := range keys {
		if !k.Class.IsValid() {
			return nil, fmt.Errorf("%w: unknown travel class %q", domain.ErrInvariantViolation, k.Class)
		}
		f := byID[k.FlightID]
		if free := f.AvailableFor(k.Class); free < demand[k] {
			return nil, fmt.Errorf("%w: flight %s has %d %s seats, %d requested",
				domain.ErrOutOfInventory, f.FlightNumber, free, k.Class, demand[k])
		}
	}
	return byID, nil
}

// Audit compares each class counter of a flight with its free seat-slots.
func (l *Ledger) Audit(ctx context.Context, tx AuditRepository, flightID int64) ([]Drift, error) {
	var drifts []Drift
	for _, class := range domain.TravelClasses {
		counter, err := tx.AvailableSeats(ctx, flightID, class)
		if err != nil {
			return nil, err
		}
		free, err := tx.CountAvailableSeats(ctx, flightID, class)
		if err != nil {
			return nil, err
		}
		if counter != free {
			drifts = append(drifts, Drift{FlightID: flightID, Class: class, Counter: counter, FreeSlots: free})
		}
	}
	return drifts, nil
}
