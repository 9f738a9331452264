package cancellation

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Domenick1991/seatledger/config"
	"github.com/Domenick1991/seatledger/internal/domain"
	"github.com/Domenick1991/seatledger/internal/repository"
	"github.com/Domenick1991/seatledger/internal/repository/memory"
	"github.com/Domenick1991/seatledger/internal/service/allocation"
	"github.com/Domenick1991/seatledger/internal/service/inventory"
	"github.com/Domenick1991/seatledger/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	store     *memory.Store
	allocator *allocation.Allocator
	service   *CancellationService
	flights   []*domain.Flight
}

func newFixture(t *testing.T, legs int) *fixture {
	t.Helper()
	store := memory.NewStore(memory.WithClock(func() time.Time { return now }))
	aircraft, err := store.AddAircraft("EI-CXL", "B737", domain.CabinLayout(map[domain.TravelClass]int{
		domain.TravelClassEconomy: 6,
	}))
	require.NoError(t, err)

	f := &fixture{store: store, allocator: allocation.NewAllocator(inventory.NewLedger())}
	for i := 0; i < legs; i++ {
		flight := &domain.Flight{
			FlightNumber:  fmt.Sprintf("SL4%02d", i),
			AircraftID:    aircraft.ID,
			DepartureTime: now.Add(time.Duration(10*24+i*4) * time.Hour),
			ArrivalTime:   now.Add(time.Duration(10*24+i*4+2) * time.Hour),
			Status:        domain.FlightStatusScheduled,
		}
		require.NoError(t, store.AddFlight(context.Background(), flight))
		f.flights = append(f.flights, flight)
	}

	policy := NewTieredPolicy([]config.FeeTier{{HoursBefore: 168, FeePercent: 10}, {HoursBefore: 0, FeePercent: 50}})
	f.service = NewCancellationService(store, f.allocator, policy, logger.NewNop(),
		WithClock(func() time.Time { return now }))
	return f
}

// book writes a booking with one seat per passenger on every fixture flight.
func (f *fixture) book(t *testing.T, reference string, passengers int, status domain.BookingStatus, payment domain.PaymentStatus) {
	t.Helper()
	require.NoError(t, f.store.WithinTx(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		b := &domain.Booking{
			Reference:        reference,
			ContactEmail:     "ann@example.com",
			TotalAmountCents: 20000,
			Status:           status,
			PaymentStatus:    payment,
			ExpiresAt:        now.Add(-time.Minute),
		}
		require.NoError(t, tx.CreateBooking(ctx, b))

		var people []domain.Passenger
		for i := 0; i < passengers; i++ {
			p := &domain.Passenger{BookingID: b.ID, FirstName: fmt.Sprintf("P%d", i), Type: domain.PassengerTypeAdult, Position: i}
			require.NoError(t, tx.CreatePassenger(ctx, p))
			people = append(people, *p)
		}
		for _, flight := range f.flights {
			leg := &domain.BookingFlight{BookingID: b.ID, FlightID: flight.ID, TravelClass: domain.TravelClassEconomy}
			require.NoError(t, tx.CreateBookingFlight(ctx, leg))
			for _, p := range people {
				if _, err := f.allocator.AllocateAny(ctx, tx, leg.ID, p.ID); err != nil {
					return err
				}
			}
		}
		return nil
	}))
}

func (f *fixture) available(t *testing.T, flightID int64) int {
	t.Helper()
	var n int
	require.NoError(t, f.store.View(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		var err error
		n, err = tx.AvailableSeats(ctx, flightID, domain.TravelClassEconomy)
		return err
	}))
	return n
}

func TestCancel_ConfirmedBookingReleasesEverySeat(t *testing.T) {
	f := newFixture(t, 2)
	f.book(t, "CXL001", 1, domain.BookingStatusConfirmed, domain.PaymentStatusPaid)
	assert.Equal(t, 5, f.available(t, f.flights[0].ID))
	assert.Equal(t, 5, f.available(t, f.flights[1].ID))

	history, err := f.service.Cancel(context.Background(), "CXL001", "customer", "change of plans")
	require.NoError(t, err)

	assert.Equal(t, 2, history.SeatsReleased)
	assert.Equal(t, int64(2000), history.FeeCents)
	assert.Equal(t, int64(18000), history.RefundCents)
	assert.Equal(t, 6, f.available(t, f.flights[0].ID))
	assert.Equal(t, 6, f.available(t, f.flights[1].ID))

	counts := f.store.Counts()
	assert.Equal(t, 0, counts.Allocations)
	assert.Equal(t, 1, counts.CancelHistories)
	assert.Equal(t, 1, counts.RefundHistories)

	c, err := f.service.GetCancellation(context.Background(), "CXL001")
	require.NoError(t, err)
	assert.Equal(t, history.ID, c.History.ID)
	require.Len(t, c.Refunds, 1)
	assert.Equal(t, int64(18000), c.Refunds[0].AmountCents)

	_ = f.store.View(context.Background(), func(ctx context.Context, tx repository.Tx) error {
		b, err := tx.GetBooking(ctx, "CXL001")
		require.NoError(t, err)
		assert.Equal(t, domain.BookingStatusCancelled, b.Status)
		assert.Equal(t, domain.PaymentStatusRefunded, b.PaymentStatus)
		assert.NotNil(t, b.CancelledAt)
		return nil
	})
}

func TestCancel_IsIdempotent(t *testing.T) {
	f := newFixture(t, 1)
	f.book(t, "CXL002", 2, domain.BookingStatusConfirmed, domain.PaymentStatusPaid)

	first, err := f.service.Cancel(context.Background(), "CXL002", "customer", "")
	require.NoError(t, err)
	second, err := f.service.Cancel(context.Background(), "CXL002", "agent", "duplicate click")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "customer", second.Actor)
	assert.Equal(t, 6, f.available(t, f.flights[0].ID))
	assert.Equal(t, 1, f.store.Counts().CancelHistories)
	assert.Equal(t, 1, f.store.Counts().RefundHistories)
}

func TestCancel_UnpaidReservationOwesNothing(t *testing.T) {
	f := newFixture(t, 1)
	f.book(t, "CXL003", 1, domain.BookingStatusReserved, domain.PaymentStatusPending)

	history, err := f.service.Cancel(context.Background(), "CXL003", "customer", "")
	require.NoError(t, err)
	assert.Zero(t, history.FeeCents)
	assert.Zero(t, history.RefundCents)
	assert.Equal(t, 0, f.store.Counts().RefundHistories)
}

func TestCancel_Rejections(t *testing.T) {
	f := newFixture(t, 1)
	f.book(t, "CXL004", 1, domain.BookingStatusCompleted, domain.PaymentStatusPaid)

	_, err := f.service.Cancel(context.Background(), "CXL004", "customer", "")
	assert.ErrorIs(t, err, domain.ErrInvariantViolation)

	_, err = f.service.Cancel(context.Background(), "NOPE00", "customer", "")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = f.service.Cancel(context.Background(), "CXL004", "", "")
	assert.ErrorIs(t, err, domain.ErrInvariantViolation)

	_, err = f.service.GetCancellation(context.Background(), "CXL004")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestExpire(t *testing.T) {
	f := newFixture(t, 1)
	f.book(t, "EXP001", 1, domain.BookingStatusReserved, domain.PaymentStatusPending)
	f.book(t, "EXP002", 1, domain.BookingStatusConfirmed, domain.PaymentStatusPaid)

	history, err := f.service.Expire(context.Background(), "EXP001")
	require.NoError(t, err)
	assert.Equal(t, ActorSystem, history.Actor)
	assert.Equal(t, ReasonExpired, history.Reason)

	_, err = f.service.Expire(context.Background(), "EXP002")
	assert.ErrorIs(t, err, domain.ErrInvariantViolation)
	assert.Equal(t, 5, f.available(t, f.flights[0].ID))
}

func TestCancel_ConcurrentCallsCancelOnce(t *testing.T) {
	f := newFixture(t, 1)
	f.book(t, "CXL005", 3, domain.BookingStatusConfirmed, domain.PaymentStatusPaid)

	const workers = 6
	var wg sync.WaitGroup
	ids := make([]int64, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			h, err := f.service.Cancel(context.Background(), "CXL005", "customer", "")
			if assert.NoError(t, err) {
				ids[i] = h.ID
			}
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	assert.Equal(t, 6, f.available(t, f.flights[0].ID))
	assert.Equal(t, 1, f.store.Counts().CancelHistories)
}
