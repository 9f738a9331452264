package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/Domenick1991/seatledger/internal/domain"
	"github.com/jackc/pgx/v5"
)

const flightColumns = `id, flight_number, aircraft_id, from_airport, to_airport, departure_time, arrival_time,
	duration_minutes, status, economy_price_cents, business_price_cents, first_price_cents,
	economy_available, business_available, first_available, created_at, updated_at`

func scanFlight(row pgx.Row) (*domain.Flight, error) {
	var f domain.Flight
	if err := row.Scan(&f.ID, &f.FlightNumber, &f.AircraftID, &f.FromAirport, &f.ToAirport, &f.DepartureTime, &f.ArrivalTime,
		&f.DurationMinutes, &f.Status, &f.EconomyPriceCents, &f.BusinessPriceCents, &f.FirstPriceCents,
		&f.EconomyAvailable, &f.BusinessAvailable, &f.FirstAvailable, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return nil, err
	}
	return &f, nil
}

func (t *pgTx) List(ctx context.Context) ([]domain.Flight, error) {
	rows, err := t.tx.Query(ctx, `SELECT `+flightColumns+` FROM flights ORDER BY departure_time`)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	flights := make([]domain.Flight, 0)
	for rows.Next() {
		f, err := scanFlight(rows)
		if err != nil {
			return nil, classify(err)
		}
		flights = append(flights, *f)
	}
	return flights, classify(rows.Err())
}

func (t *pgTx) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	f, err := scanFlight(t.tx.QueryRow(ctx, `SELECT `+flightColumns+` FROM flights WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("flight %d", id)
		}
		return nil, classify(err)
	}
	return f, nil
}

func (t *pgTx) CreateFlight(ctx context.Context, f *domain.Flight) error {
	if err := t.tx.QueryRow(ctx, `INSERT INTO flights (flight_number, aircraft_id, from_airport, to_airport, departure_time, arrival_time,
		duration_minutes, status, economy_price_cents, business_price_cents, first_price_cents,
		economy_available, business_available, first_available)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, 0, 0, 0)
		RETURNING id, created_at, updated_at`,
		f.FlightNumber, f.AircraftID, f.FromAirport, f.ToAirport, f.DepartureTime, f.ArrivalTime,
		f.DurationMinutes, f.Status, f.EconomyPriceCents, f.BusinessPriceCents, f.FirstPriceCents).
		Scan(&f.ID, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return classify(err)
	}

	cmd, err := t.tx.Exec(ctx, `INSERT INTO flight_seats (flight_id, seat_id, seat_number, travel_class, is_available)
		SELECT $1, id, seat_number, travel_class, true FROM seats WHERE aircraft_id = $2 AND active
		ORDER BY id`, f.ID, f.AircraftID)
	if err != nil {
		return classify(err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: aircraft %d has no active seats", domain.ErrInvariantViolation, f.AircraftID)
	}

	return classify(t.tx.QueryRow(ctx, `UPDATE flights SET
		economy_available = (SELECT count(*) FROM flight_seats WHERE flight_id = $1 AND travel_class = 'ECONOMY' AND is_available),
		business_available = (SELECT count(*) FROM flight_seats WHERE flight_id = $1 AND travel_class = 'BUSINESS' AND is_available),
		first_available = (SELECT count(*) FROM flight_seats WHERE flight_id = $1 AND travel_class = 'FIRST' AND is_available)
		WHERE id = $1
		RETURNING economy_available, business_available, first_available`, f.ID).
		Scan(&f.EconomyAvailable, &f.BusinessAvailable, &f.FirstAvailable))
}

func (t *pgTx) UpdateFlightStatus(ctx context.Context, id int64, status domain.FlightStatus) (*domain.Flight, error) {
	f, err := scanFlight(t.tx.QueryRow(ctx, `UPDATE flights SET status=$2, updated_at=now() WHERE id=$1 RETURNING `+flightColumns, id, status))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFound("flight %d", id)
		}
		return nil, classify(err)
	}
	return f, nil
}

func (t *pgTx) LockFlights(ctx context.Context, ids []int64) ([]domain.Flight, error) {
	unique := uniqueSorted(ids)
	rows, err := t.tx.Query(ctx, `SELECT `+flightColumns+` FROM flights WHERE id = ANY($1) ORDER BY id FOR UPDATE`, unique)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	flights := make([]domain.Flight, 0, len(unique))
	for rows.Next() {
		f, err := scanFlight(rows)
		if err != nil {
			return nil, classify(err)
		}
		flights = append(flights, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}
	if len(flights) != len(unique) {
		return nil, notFound("flights %v", missingIDs(unique, flights))
	}
	return flights, nil
}

func (t *pgTx) DecrementAvailable(ctx context.Context, flightID int64, class domain.TravelClass) (int, error) {
	col, err := classColumn(class)
	if err != nil {
		return 0, err
	}

	var available int
	err = t.tx.QueryRow(ctx, fmt.Sprintf(`UPDATE flights SET %[1]s = %[1]s - 1, updated_at = now()
		WHERE id=$1 AND %[1]s > 0 RETURNING %[1]s`, col), flightID).Scan(&available)
	if errors.Is(err, pgx.ErrNoRows) {
		if _, getErr := t.GetByID(ctx, flightID); getErr != nil {
			return 0, getErr
		}
		return 0, fmt.Errorf("%w: flight %d has no %s seats left", domain.ErrOutOfInventory, flightID, class)
	}
	if err != nil {
		return 0, classify(err)
	}
	return available, nil
}

func (t *pgTx) IncrementAvailable(ctx context.Context, flightID int64, class domain.TravelClass) (int, error) {
	col, err := classColumn(class)
	if err != nil {
		return 0, err
	}

	var available int
	err = t.tx.QueryRow(ctx, fmt.Sprintf(`UPDATE flights SET %[1]s = %[1]s + 1, updated_at = now()
		WHERE id=$1 RETURNING %[1]s`, col), flightID).Scan(&available)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, notFound("flight %d", flightID)
	}
	if err != nil {
		return 0, classify(err)
	}
	return available, nil
}

func (t *pgTx) AvailableSeats(ctx context.Context, flightID int64, class domain.TravelClass) (int, error) {
	col, err := classColumn(class)
	if err != nil {
		return 0, err
	}

	var available int
	err = t.tx.QueryRow(ctx, fmt.Sprintf(`SELECT %s FROM flights WHERE id=$1`, col), flightID).Scan(&available)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, notFound("flight %d", flightID)
	}
	return available, classify(err)
}

func uniqueSorted(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func missingIDs(want []int64, got []domain.Flight) []int64 {
	found := make(map[int64]struct{}, len(got))
	for _, f := range got {
		found[f.ID] = struct{}{}
	}
	var missing []int64
	for _, id := range want {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}
