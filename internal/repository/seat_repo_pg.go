package repository

import (
	"context"
	"errors"

	"github.com/Domenick1991/seatledger/internal/domain"
	"github.com/jackc/pgx/v5"
)

const flightSeatColumns = `id, flight_id, seat_id, seat_number, travel_class, is_available`

func scanFlightSeat(row pgx.Row) (*domain.FlightSeat, error) {
	var s domain.FlightSeat
	if err := row.Scan(&s.ID, &s.FlightID, &s.SeatID, &s.SeatNumber, &s.TravelClass, &s.IsAvailable); err != nil {
		return nil, err
	}
	return &s, nil
}

func (t *pgTx) LockFlightSeat(ctx context.Context, flightSeatID int64) (*domain.FlightSeat, error) {
	s, err := scanFlightSeat(t.tx.QueryRow(ctx, `SELECT `+flightSeatColumns+` FROM flight_seats WHERE id=$1 FOR UPDATE`, flightSeatID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("seat-slot %d", flightSeatID)
	}
	if err != nil {
		return nil, classify(err)
	}
	return s, nil
}

func (t *pgTx) LockFlightSeatByNumber(ctx context.Context, flightID int64, seatNumber string) (*domain.FlightSeat, error) {
	s, err := scanFlightSeat(t.tx.QueryRow(ctx, `SELECT `+flightSeatColumns+` FROM flight_seats
		WHERE flight_id=$1 AND seat_number=$2 FOR UPDATE`, flightID, seatNumber))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("seat %s on flight %d", seatNumber, flightID)
	}
	if err != nil {
		return nil, classify(err)
	}
	return s, nil
}

func (t *pgTx) NextAvailableSeats(ctx context.Context, flightID int64, class domain.TravelClass, limit int) ([]domain.FlightSeat, error) {
	rows, err := t.tx.Query(ctx, `SELECT `+flightSeatColumns+` FROM flight_seats
		WHERE flight_id=$1 AND travel_class=$2 AND is_available
		ORDER BY id LIMIT $3 FOR UPDATE SKIP LOCKED`, flightID, class, limit)
	if err != nil {
		return nil, classify(err)
	}
	return collectFlightSeats(rows)
}

func (t *pgTx) SetSeatAvailable(ctx context.Context, flightSeatID int64, available bool) error {
	cmd, err := t.tx.Exec(ctx, `UPDATE flight_seats SET is_available=$2 WHERE id=$1`, flightSeatID, available)
	if err != nil {
		return classify(err)
	}
	if cmd.RowsAffected() == 0 {
		return notFound("seat-slot %d", flightSeatID)
	}
	return nil
}

func (t *pgTx) CountAvailableSeats(ctx context.Context, flightID int64, class domain.TravelClass) (int, error) {
	var n int
	err := t.tx.QueryRow(ctx, `SELECT count(*) FROM flight_seats WHERE flight_id=$1 AND travel_class=$2 AND is_available`,
		flightID, class).Scan(&n)
	return n, classify(err)
}

func (t *pgTx) ListFlightSeats(ctx context.Context, flightID int64) ([]domain.FlightSeat, error) {
	rows, err := t.tx.Query(ctx, `SELECT `+flightSeatColumns+` FROM flight_seats WHERE flight_id=$1 ORDER BY id`, flightID)
	if err != nil {
		return nil, classify(err)
	}
	return collectFlightSeats(rows)
}

func collectFlightSeats(rows pgx.Rows) ([]domain.FlightSeat, error) {
	defer rows.Close()
	seats := make([]domain.FlightSeat, 0)
	for rows.Next() {
		s, err := scanFlightSeat(rows)
		if err != nil {
			return nil, classify(err)
		}
		seats = append(seats, *s)
	}
	return seats, classify(rows.Err())
}

const allocationColumns = `id, booking_flight_id, flight_seat_id, passenger_id, seat_number, created_at`

func scanAllocation(row pgx.Row) (*domain.SeatAllocation, error) {
	var a domain.SeatAllocation
	if err := row.Scan(&a.ID, &a.BookingFlightID, &a.FlightSeatID, &a.PassengerID, &a.SeatNumber, &a.CreatedAt); err != nil {
		return nil, err
	}
	return &a, nil
}

func (t *pgTx) CreateAllocation(ctx context.Context, a *domain.SeatAllocation) error {
	return classify(t.tx.QueryRow(ctx, `INSERT INTO seat_allocations (booking_flight_id, flight_seat_id, passenger_id, seat_number)
		VALUES ($1, $2, $3, $4) RETURNING id, created_at`,
		a.BookingFlightID, a.FlightSeatID, a.PassengerID, a.SeatNumber).Scan(&a.ID, &a.CreatedAt))
}

func (t *pgTx) GetAllocation(ctx context.Context, id int64) (*domain.SeatAllocation, error) {
	a, err := scanAllocation(t.tx.QueryRow(ctx, `SELECT `+allocationColumns+` FROM seat_allocations WHERE id=$1 FOR UPDATE`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("seat allocation %d", id)
	}
	if err != nil {
		return nil, classify(err)
	}
	return a, nil
}

func (t *pgTx) FindAllocation(ctx context.Context, bookingFlightID, passengerID int64) (*domain.SeatAllocation, error) {
	a, err := scanAllocation(t.tx.QueryRow(ctx, `SELECT `+allocationColumns+` FROM seat_allocations
		WHERE booking_flight_id=$1 AND passenger_id=$2`, bookingFlightID, passengerID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("seat allocation for passenger %d on leg %d", passengerID, bookingFlightID)
	}
	if err != nil {
		return nil, classify(err)
	}
	return a, nil
}

func (t *pgTx) DeleteAllocation(ctx context.Context, id int64) error {
	cmd, err := t.tx.Exec(ctx, `DELETE FROM seat_allocations WHERE id=$1`, id)
	if err != nil {
		return classify(err)
	}
	if cmd.RowsAffected() == 0 {
		return notFound("seat allocation %d", id)
	}
	return nil
}

func (t *pgTx) ListAllocationsByBooking(ctx context.Context, bookingID int64) ([]domain.SeatAllocation, error) {
	rows, err := t.tx.Query(ctx, `SELECT `+allocationColumns+` FROM seat_allocations
		WHERE booking_flight_id IN (SELECT id FROM booking_flights WHERE booking_id=$1)
		ORDER BY id`, bookingID)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	allocations := make([]domain.SeatAllocation, 0)
	for rows.Next() {
		a, err := scanAllocation(rows)
		if err != nil {
			return nil, classify(err)
		}
		allocations = append(allocations, *a)
	}
	return allocations, classify(rows.Err())
}
