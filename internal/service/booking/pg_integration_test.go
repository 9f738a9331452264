//go:build integration

package booking

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Domenick1991/seatledger/internal/domain"
	"github.com/Domenick1991/seatledger/internal/migrations"
	"github.com/Domenick1991/seatledger/internal/repository"
	"github.com/Domenick1991/seatledger/internal/service/allocation"
	"github.com/Domenick1991/seatledger/internal/service/cancellation"
	"github.com/Domenick1991/seatledger/internal/service/flights"
	"github.com/Domenick1991/seatledger/internal/service/inventory"
	"github.com/Domenick1991/seatledger/pkg/logger"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Run with: DATABASE_URL=postgres://... go test -tags integration ./internal/service/booking/

type pgFixture struct {
	db            *gorm.DB
	pool          *pgxpool.Pool
	store         *repository.PGStore
	ledger        *inventory.Ledger
	allocator     *allocation.Allocator
	cancellations *cancellation.CancellationService
	bookings      *BookingService
}

func newPGFixture(t *testing.T) *pgFixture {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL is not set")
	}
	ctx := context.Background()

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	require.NoError(t, migrations.Migrate(ctx, db))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	f := &pgFixture{
		db:     db,
		pool:   pool,
		store:  repository.NewPGStore(pool, 5*time.Second),
		ledger: inventory.NewLedger(),
	}
	f.allocator = allocation.NewAllocator(f.ledger)
	f.cancellations = cancellation.NewCancellationService(f.store, f.allocator, cancellation.NoFeePolicy{}, logger.NewNop())
	f.bookings = NewBookingService(f.store, f.ledger, f.allocator, f.cancellations, logger.NewNop(), WithRetry(5, 10*time.Millisecond))
	return f
}

// flight creates a scheduled flight on a fresh aircraft with the given economy seats.
func (f *pgFixture) flight(t *testing.T, economy int) *domain.Flight {
	t.Helper()
	ctx := context.Background()
	tag := strings.ToUpper(uuid.NewString()[:6])

	aircraftID, err := migrations.Seed(ctx, f.db, "IT-"+tag, "A320", map[domain.TravelClass]int{domain.TravelClassEconomy: economy})
	require.NoError(t, err)

	departure := time.Now().UTC().Add(72 * time.Hour).Truncate(time.Minute)
	flight, err := flights.NewFlightService(f.store, nil, logger.NewNop()).CreateFlight(ctx, flights.CreateFlightInput{
		FlightNumber:      "I" + tag,
		AircraftID:        aircraftID,
		FromAirport:       "DUB",
		ToAirport:         "LIS",
		DepartureTime:     departure,
		ArrivalTime:       departure.Add(3 * time.Hour),
		EconomyPriceCents: 10000,
	})
	require.NoError(t, err)
	return flight
}

func (f *pgFixture) input(flights ...*domain.Flight) CreateBookingInput {
	in := CreateBookingInput{
		Contact:    ContactInput{Name: "Ann Lee", Email: "ann@example.com"},
		Passengers: []PassengerInput{{FirstName: "Ann", LastName: "Lee", Type: "ADULT"}},
	}
	for _, flight := range flights {
		in.Legs = append(in.Legs, LegInput{FlightID: flight.ID, TravelClass: "ECONOMY"})
	}
	return in
}

func (f *pgFixture) available(t *testing.T, flightID int64) int {
	t.Helper()
	var n int
	require.NoError(t, f.store.View(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		var err error
		n, err = tx.AvailableSeats(ctx, flightID, domain.TravelClassEconomy)
		return err
	}))
	return n
}

func (f *pgFixture) seats(t *testing.T, flightID int64) []domain.FlightSeat {
	t.Helper()
	var seats []domain.FlightSeat
	require.NoError(t, f.store.View(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		var err error
		seats, err = tx.ListFlightSeats(ctx, flightID)
		return err
	}))
	return seats
}

func (f *pgFixture) drift(t *testing.T, flightID int64) []inventory.Drift {
	t.Helper()
	var drifts []inventory.Drift
	require.NoError(t, f.store.View(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		var err error
		drifts, err = f.ledger.Audit(ctx, tx, flightID)
		return err
	}))
	return drifts
}

func (f *pgFixture) count(t *testing.T, query string, args ...interface{}) int {
	t.Helper()
	var n int
	require.NoError(t, f.pool.QueryRow(context.Background(), query, args...).Scan(&n))
	return n
}

func (f *pgFixture) allocationsOn(t *testing.T, flightID int64) int {
	return f.count(t, `SELECT count(*) FROM seat_allocations sa
		JOIN booking_flights bf ON bf.id = sa.booking_flight_id
		WHERE bf.flight_id = $1`, flightID)
}

func TestPG_LastSeatGoesToExactlyOneBuyer(t *testing.T) {
	f := newPGFixture(t)
	flight := f.flight(t, 1)

	const buyers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		refused   int
	)
	start := make(chan struct{})
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := f.bookings.CreateBooking(context.Background(), f.input(flight))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, domain.ErrOutOfInventory), errors.Is(err, domain.ErrAllocationConflict):
				refused++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, buyers-1, refused)
	assert.Equal(t, 0, f.available(t, flight.ID))
	assert.Equal(t, 1, f.allocationsOn(t, flight.ID))
	assert.Empty(t, f.drift(t, flight.ID))
}

func TestPG_FailureOnSecondLegRollsBackFirst(t *testing.T) {
	f := newPGFixture(t)
	first := f.flight(t, 3)
	second := f.flight(t, 1)

	_, err := f.bookings.CreateBooking(context.Background(), f.input(second))
	require.NoError(t, err)
	seatsBefore := f.seats(t, first.ID)

	_, err = f.bookings.CreateBooking(context.Background(), f.input(first, second))
	require.ErrorIs(t, err, domain.ErrOutOfInventory)

	assert.Equal(t, 3, f.available(t, first.ID))
	assert.Equal(t, seatsBefore, f.seats(t, first.ID))
	assert.Zero(t, f.allocationsOn(t, first.ID))
	assert.Zero(t, f.count(t, `SELECT count(*) FROM booking_flights WHERE flight_id = $1`, first.ID))
	assert.Empty(t, f.drift(t, first.ID))
	assert.Empty(t, f.drift(t, second.ID))
}

func TestPG_CancelTwiceKeepsFirstHistory(t *testing.T) {
	f := newPGFixture(t)
	flight := f.flight(t, 4)
	ctx := context.Background()

	b, err := f.bookings.CreateBooking(ctx, f.input(flight))
	require.NoError(t, err)
	require.Equal(t, 3, f.available(t, flight.ID))

	const workers = 4
	var wg sync.WaitGroup
	ids := make([]int64, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h, err := f.cancellations.Cancel(ctx, b.Reference, "customer", "plans changed")
			if assert.NoError(t, err) {
				ids[i] = h.ID
			}
		}(i)
	}
	wg.Wait()

	again, err := f.cancellations.Cancel(ctx, b.Reference, "agent", "duplicate click")
	require.NoError(t, err)

	for _, id := range ids {
		assert.Equal(t, again.ID, id)
	}
	assert.Equal(t, "customer", again.Actor)
	assert.Equal(t, 4, f.available(t, flight.ID))
	assert.Zero(t, f.allocationsOn(t, flight.ID))
	assert.Equal(t, 1, f.count(t, `SELECT count(*) FROM cancel_histories WHERE booking_id = $1`, b.ID))
	assert.Empty(t, f.drift(t, flight.ID))
}

func TestPG_AllocateAndRelease_RoundTrip(t *testing.T) {
	f := newPGFixture(t)
	flight := f.flight(t, 3)
	ctx := context.Background()
	seatsBefore := f.seats(t, flight.ID)

	b, err := f.bookings.CreateBooking(ctx, f.input(flight))
	require.NoError(t, err)
	require.Len(t, b.Allocations, 1)
	held := b.Allocations[0]
	assert.Equal(t, 2, f.available(t, flight.ID))

	require.NoError(t, f.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		released, err := f.allocator.Release(ctx, tx, held.ID)
		if err != nil {
			return err
		}
		assert.Equal(t, held.FlightSeatID, released.FlightSeatID)
		return nil
	}))
	assert.Equal(t, 3, f.available(t, flight.ID))
	assert.Equal(t, seatsBefore, f.seats(t, flight.ID))

	// The freed slot can be taken again by number.
	var again *domain.SeatAllocation
	require.NoError(t, f.store.WithinTx(ctx, func(ctx context.Context, tx repository.Tx) error {
		var err error
		again, err = f.allocator.AllocateByNumber(ctx, tx, held.BookingFlightID, held.SeatNumber, held.PassengerID)
		return err
	}))
	assert.Equal(t, held.FlightSeatID, again.FlightSeatID)
	assert.Equal(t, 2, f.available(t, flight.ID))
	assert.Equal(t, 1, f.allocationsOn(t, flight.ID))
	assert.Empty(t, f.drift(t, flight.ID))
}
