package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/Domenick1991/seatledger/internal/domain"
	"github.com/Domenick1991/seatledger/internal/repository"
)

// memTx works on a private state; the store's mutex is held for its whole lifetime.
type memTx struct {
	store *Store
	st    *state
}

func (t *memTx) Savepoint(ctx context.Context, fn func(ctx context.Context, tx repository.Tx) error) error {
	nested := t.st.clone()
	if err := fn(ctx, &memTx{store: t.store, st: nested}); err != nil {
		return err
	}
	*t.st = *nested
	return nil
}

func notFound(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", domain.ErrNotFound, fmt.Sprintf(format, args...))
}

// flights

func (t *memTx) List(ctx context.Context) ([]domain.Flight, error) {
	flights := make([]domain.Flight, 0, len(t.st.flights))
	for _, f := range t.st.flights {
		flights = append(flights, f)
	}
	sort.Slice(flights, func(i, j int) bool {
		if flights[i].DepartureTime.Equal(flights[j].DepartureTime) {
			return flights[i].ID < flights[j].ID
		}
		return flights[i].DepartureTime.Before(flights[j].DepartureTime)
	})
	return flights, nil
}

func (t *memTx) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	f, ok := t.st.flights[id]
	if !ok {
		return nil, notFound("flight %d", id)
	}
	return &f, nil
}

func (t *memTx) CreateFlight(ctx context.Context, f *domain.Flight) error {
	if _, ok := t.st.aircraft[f.AircraftID]; !ok {
		return notFound("aircraft %d", f.AircraftID)
	}

	now := t.store.now()
	f.ID = t.store.nextID()
	f.CreatedAt, f.UpdatedAt = now, now
	f.EconomyAvailable, f.BusinessAvailable, f.FirstAvailable = 0, 0, 0

	copied := 0
	for _, id := range sortedIDs(t.st.seats) {
		seat := t.st.seats[id]
		if seat.AircraftID != f.AircraftID || !seat.Active {
			continue
		}
		fs := domain.FlightSeat{
			ID:          t.store.nextID(),
			FlightID:    f.ID,
			SeatID:      seat.ID,
			SeatNumber:  seat.SeatNumber,
			TravelClass: seat.TravelClass,
			IsAvailable: true,
		}
		t.st.flightSeats[fs.ID] = fs
		f.SetAvailable(seat.TravelClass, f.AvailableFor(seat.TravelClass)+1)
		copied++
	}
	if copied == 0 {
		return fmt.Errorf("%w: aircraft %d has no active seats", domain.ErrInvariantViolation, f.AircraftID)
	}

	t.st.flights[f.ID] = *f
	return nil
}

func (t *memTx) UpdateFlightStatus(ctx context.Context, id int64, status domain.FlightStatus) (*domain.Flight, error) {
	f, ok := t.st.flights[id]
	if !ok {
		return nil, notFound("flight %d", id)
	}
	f.Status = status
	f.UpdatedAt = t.store.now()
	t.st.flights[id] = f
	return &f, nil
}

// ledger

func (t *memTx) LockFlights(ctx context.Context, ids []int64) ([]domain.Flight, error) {
	unique := slices.Clone(ids)
	slices.Sort(unique)
	unique = slices.Compact(unique)

	flights := make([]domain.Flight, 0, len(unique))
	var missing []int64
	for _, id := range unique {
		f, ok := t.st.flights[id]
		if !ok {
			missing = append(missing, id)
			continue
		}
		flights = append(flights, f)
	}
	if len(missing) > 0 {
		return nil, notFound("flights %v", missing)
	}
	return flights, nil
}

func (t *memTx) DecrementAvailable(ctx context.Context, flightID int64, class domain.TravelClass) (int, error) {
	return t.adjust(flightID, class, -1)
}

func (t *memTx) IncrementAvailable(ctx context.Context, flightID int64, class domain.TravelClass) (int, error) {
	return t.adjust(flightID, class, 1)
}

func (t *memTx) adjust(flightID int64, class domain.TravelClass, delta int) (int, error) {
	if !class.IsValid() {
		return 0, fmt.Errorf("%w: unknown travel class %q", domain.ErrInvariantViolation, class)
	}
	f, ok := t.st.flights[flightID]
	if !ok {
		return 0, notFound("flight %d", flightID)
	}
	next := f.AvailableFor(class) + delta
	if next < 0 {
		return 0, fmt.Errorf("%w: flight %d has no %s seats left", domain.ErrOutOfInventory, flightID, class)
	}
	f.SetAvailable(class, next)
	f.UpdatedAt = t.store.now()
	t.st.flights[flightID] = f
	return next, nil
}

func (t *memTx) AvailableSeats(ctx context.Context, flightID int64, class domain.TravelClass) (int, error) {
	if !class.IsValid() {
		return 0, fmt.Errorf("%w: unknown travel class %q", domain.ErrInvariantViolation, class)
	}
	f, ok := t.st.flights[flightID]
	if !ok {
		return 0, notFound("flight %d", flightID)
	}
	return f.AvailableFor(class), nil
}

// seats

func (t *memTx) LockFlightSeat(ctx context.Context, flightSeatID int64) (*domain.FlightSeat, error) {
	fs, ok := t.st.flightSeats[flightSeatID]
	if !ok {
		return nil, notFound("seat-slot %d", flightSeatID)
	}
	return &fs, nil
}

func (t *memTx) LockFlightSeatByNumber(ctx context.Context, flightID int64, seatNumber string) (*domain.FlightSeat, error) {
	for _, fs := range t.st.flightSeats {
		if fs.FlightID == flightID && fs.SeatNumber == seatNumber {
			return &fs, nil
		}
	}
	return nil, notFound("seat %s on flight %d", seatNumber, flightID)
}

func (t *memTx) NextAvailableSeats(ctx context.Context, flightID int64, class domain.TravelClass, limit int) ([]domain.FlightSeat, error) {
	seats := make([]domain.FlightSeat, 0, limit)
	for _, id := range sortedIDs(t.st.flightSeats) {
		if len(seats) == limit {
			break
		}
		fs := t.st.flightSeats[id]
		if fs.FlightID == flightID && fs.TravelClass == class && fs.IsAvailable {
			seats = append(seats, fs)
		}
	}
	return seats, nil
}

func (t *memTx) SetSeatAvailable(ctx context.Context, flightSeatID int64, available bool) error {
	fs, ok := t.st.flightSeats[flightSeatID]
	if !ok {
		return notFound("seat-slot %d", flightSeatID)
	}
	fs.IsAvailable = available
	t.st.flightSeats[flightSeatID] = fs
	return nil
}

func (t *memTx) CountAvailableSeats(ctx context.Context, flightID int64, class domain.TravelClass) (int, error) {
	n := 0
	for _, fs := range t.st.flightSeats {
		if fs.FlightID == flightID && fs.TravelClass == class && fs.IsAvailable {
			n++
		}
	}
	return n, nil
}

func (t *memTx) ListFlightSeats(ctx context.Context, flightID int64) ([]domain.FlightSeat, error) {
	seats := make([]domain.FlightSeat, 0)
	for _, id := range sortedIDs(t.st.flightSeats) {
		if fs := t.st.flightSeats[id]; fs.FlightID == flightID {
			seats = append(seats, fs)
		}
	}
	return seats, nil
}

// allocations

func (t *memTx) CreateAllocation(ctx context.Context, a *domain.SeatAllocation) error {
	if _, ok := t.st.legs[a.BookingFlightID]; !ok {
		return notFound("booking leg %d", a.BookingFlightID)
	}
	if _, ok := t.st.flightSeats[a.FlightSeatID]; !ok {
		return notFound("seat-slot %d", a.FlightSeatID)
	}
	if _, ok := t.st.passengers[a.PassengerID]; !ok {
		return notFound("passenger %d", a.PassengerID)
	}
	for _, existing := range t.st.allocations {
		if existing.FlightSeatID == a.FlightSeatID {
			return fmt.Errorf("%w: seat-slot %d already allocated", domain.ErrAllocationConflict, a.FlightSeatID)
		}
		if existing.BookingFlightID == a.BookingFlightID && existing.PassengerID == a.PassengerID {
			return fmt.Errorf("%w: passenger %d already seated on leg %d", domain.ErrAllocationConflict, a.PassengerID, a.BookingFlightID)
		}
	}
	if h := t.store.hook; h != nil {
		if err := h(*a); err != nil {
			return err
		}
	}

	a.ID = t.store.nextID()
	a.CreatedAt = t.store.now()
	t.st.allocations[a.ID] = *a
	return nil
}

func (t *memTx) GetAllocation(ctx context.Context, id int64) (*domain.SeatAllocation, error) {
	a, ok := t.st.allocations[id]
	if !ok {
		return nil, notFound("seat allocation %d", id)
	}
	return &a, nil
}

func (t *memTx) FindAllocation(ctx context.Context, bookingFlightID, passengerID int64) (*domain.SeatAllocation, error) {
	for _, a := range t.st.allocations {
		if a.BookingFlightID == bookingFlightID && a.PassengerID == passengerID {
			return &a, nil
		}
	}
	return nil, notFound("seat allocation for passenger %d on leg %d", passengerID, bookingFlightID)
}

func (t *memTx) DeleteAllocation(ctx context.Context, id int64) error {
	if _, ok := t.st.allocations[id]; !ok {
		return notFound("seat allocation %d", id)
	}
	delete(t.st.allocations, id)
	return nil
}

func (t *memTx) ListAllocationsByBooking(ctx context.Context, bookingID int64) ([]domain.SeatAllocation, error) {
	allocations := make([]domain.SeatAllocation, 0)
	for _, id := range sortedIDs(t.st.allocations) {
		a := t.st.allocations[id]
		if leg, ok := t.st.legs[a.BookingFlightID]; ok && leg.BookingID == bookingID {
			allocations = append(allocations, a)
		}
	}
	return allocations, nil
}

// bookings

func (t *memTx) CreateBooking(ctx context.Context, b *domain.Booking) error {
	for _, existing := range t.st.bookings {
		if existing.Reference == b.Reference {
			return fmt.Errorf("%w: booking reference %s already taken", domain.ErrTransactionAborted, b.Reference)
		}
	}

	now := t.store.now()
	b.ID = t.store.nextID()
	b.CreatedAt, b.UpdatedAt = now, now

	row := *b
	row.Flights, row.Passengers, row.Allocations, row.Payments = nil, nil, nil, nil
	t.st.bookings[b.ID] = row
	return nil
}

func (t *memTx) CreatePassenger(ctx context.Context, p *domain.Passenger) error {
	if _, ok := t.st.bookings[p.BookingID]; !ok {
		return notFound("booking %d", p.BookingID)
	}
	p.ID = t.store.nextID()
	t.st.passengers[p.ID] = *p
	return nil
}

func (t *memTx) CreateBookingFlight(ctx context.Context, leg *domain.BookingFlight) error {
	if _, ok := t.st.bookings[leg.BookingID]; !ok {
		return notFound("booking %d", leg.BookingID)
	}
	if _, ok := t.st.flights[leg.FlightID]; !ok {
		return notFound("flight %d", leg.FlightID)
	}
	leg.ID = t.store.nextID()
	t.st.legs[leg.ID] = *leg
	return nil
}

func (t *memTx) CreatePayment(ctx context.Context, p *domain.Payment) error {
	if _, ok := t.st.bookings[p.BookingID]; !ok {
		return notFound("booking %d", p.BookingID)
	}
	for _, existing := range t.st.payments {
		if existing.TransactionID == p.TransactionID {
			return fmt.Errorf("%w: payment transaction %s already recorded", domain.ErrInvariantViolation, p.TransactionID)
		}
	}
	p.ID = t.store.nextID()
	p.CreatedAt = t.store.now()
	t.st.payments[p.ID] = *p
	return nil
}

func (t *memTx) UpdatePayment(ctx context.Context, p *domain.Payment) error {
	existing, ok := t.st.payments[p.ID]
	if !ok {
		return notFound("payment %d", p.ID)
	}
	existing.Status = p.Status
	existing.ProcessedAt = p.ProcessedAt
	t.st.payments[p.ID] = existing
	return nil
}

func (t *memTx) GetBookingFlight(ctx context.Context, id int64) (*domain.BookingFlight, error) {
	leg, ok := t.st.legs[id]
	if !ok {
		return nil, notFound("booking leg %d", id)
	}
	return &leg, nil
}

func (t *memTx) GetPassenger(ctx context.Context, id int64) (*domain.Passenger, error) {
	p, ok := t.st.passengers[id]
	if !ok {
		return nil, notFound("passenger %d", id)
	}
	return &p, nil
}

func (t *memTx) GetBooking(ctx context.Context, reference string) (*domain.Booking, error) {
	for _, id := range sortedIDs(t.st.bookings) {
		if b := t.st.bookings[id]; b.Reference == reference {
			return t.assemble(ctx, b)
		}
	}
	return nil, notFound("booking %s", reference)
}

func (t *memTx) GetBookingForUpdate(ctx context.Context, reference string) (*domain.Booking, error) {
	return t.GetBooking(ctx, reference)
}

func (t *memTx) assemble(ctx context.Context, b domain.Booking) (*domain.Booking, error) {
	b.Flights = make([]domain.BookingFlight, 0)
	for _, id := range sortedIDs(t.st.legs) {
		if leg := t.st.legs[id]; leg.BookingID == b.ID {
			b.Flights = append(b.Flights, leg)
		}
	}

	b.Passengers = make([]domain.Passenger, 0)
	for _, id := range sortedIDs(t.st.passengers) {
		if p := t.st.passengers[id]; p.BookingID == b.ID {
			b.Passengers = append(b.Passengers, p)
		}
	}
	sort.SliceStable(b.Passengers, func(i, j int) bool { return b.Passengers[i].Position < b.Passengers[j].Position })

	b.Payments = make([]domain.Payment, 0)
	for _, id := range sortedIDs(t.st.payments) {
		if p := t.st.payments[id]; p.BookingID == b.ID {
			b.Payments = append(b.Payments, p)
		}
	}

	var err error
	b.Allocations, err = t.ListAllocationsByBooking(ctx, b.ID)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (t *memTx) UpdateBookingTotal(ctx context.Context, bookingID int64, totalCents int64) error {
	b, ok := t.st.bookings[bookingID]
	if !ok {
		return notFound("booking %d", bookingID)
	}
	b.TotalAmountCents = totalCents
	b.UpdatedAt = t.store.now()
	t.st.bookings[bookingID] = b
	return nil
}

func (t *memTx) UpdateBookingStatus(ctx context.Context, bookingID int64, status domain.BookingStatus, payment domain.PaymentStatus) error {
	b, ok := t.st.bookings[bookingID]
	if !ok {
		return notFound("booking %d", bookingID)
	}
	now := t.store.now()
	b.Status = status
	b.PaymentStatus = payment
	b.UpdatedAt = now
	if status == domain.BookingStatusCancelled && b.CancelledAt == nil {
		b.CancelledAt = &now
	}
	t.st.bookings[bookingID] = b
	return nil
}

func (t *memTx) ListExpiredReserved(ctx context.Context, now time.Time, limit int) ([]string, error) {
	var expired []domain.Booking
	for _, b := range t.st.bookings {
		if b.Status == domain.BookingStatusReserved && b.PaymentStatus != domain.PaymentStatusPaid && b.ExpiresAt.Before(now) {
			expired = append(expired, b)
		}
	}
	sort.Slice(expired, func(i, j int) bool { return expired[i].ExpiresAt.Before(expired[j].ExpiresAt) })

	refs := make([]string, 0, len(expired))
	for _, b := range expired {
		if len(refs) == limit {
			break
		}
		refs = append(refs, b.Reference)
	}
	return refs, nil
}

func (t *memTx) ListCompletable(ctx context.Context, now time.Time, limit int) ([]string, error) {
	refs := make([]string, 0)
	for _, id := range sortedIDs(t.st.bookings) {
		if len(refs) == limit {
			break
		}
		b := t.st.bookings[id]
		if b.Status != domain.BookingStatusConfirmed {
			continue
		}
		landed := true
		for _, leg := range t.st.legs {
			if leg.BookingID != b.ID {
				continue
			}
			if f := t.st.flights[leg.FlightID]; !f.ArrivalTime.Before(now) {
				landed = false
				break
			}
		}
		if landed {
			refs = append(refs, b.Reference)
		}
	}
	return refs, nil
}

// cancellations

func (t *memTx) CreateCancelHistory(ctx context.Context, h *domain.CancelHistory) error {
	for _, existing := range t.st.cancels {
		if existing.BookingID == h.BookingID {
			return fmt.Errorf("%w: booking %d already has a cancellation", domain.ErrInvariantViolation, h.BookingID)
		}
	}
	h.ID = t.store.nextID()
	h.CreatedAt = t.store.now()
	t.st.cancels[h.ID] = *h
	return nil
}

func (t *memTx) GetCancelHistory(ctx context.Context, bookingID int64) (*domain.CancelHistory, error) {
	for _, h := range t.st.cancels {
		if h.BookingID == bookingID {
			return &h, nil
		}
	}
	return nil, notFound("cancellation of booking %d", bookingID)
}

func (t *memTx) CreateRefundHistory(ctx context.Context, r *domain.RefundHistory) error {
	if _, ok := t.st.bookings[r.BookingID]; !ok {
		return notFound("booking %d", r.BookingID)
	}
	r.ID = t.store.nextID()
	r.CreatedAt = t.store.now()
	t.st.refunds[r.ID] = *r
	return nil
}

func (t *memTx) ListRefundHistory(ctx context.Context, bookingID int64) ([]domain.RefundHistory, error) {
	refunds := make([]domain.RefundHistory, 0)
	for _, id := range sortedIDs(t.st.refunds) {
		if r := t.st.refunds[id]; r.BookingID == bookingID {
			refunds = append(refunds, r)
		}
	}
	return refunds, nil
}

var _ repository.Tx = (*memTx)(nil)
