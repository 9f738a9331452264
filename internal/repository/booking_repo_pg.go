package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Domenick1991/seatledger/internal/domain"
	"github.com/jackc/pgx/v5"
)

const bookingColumns = `id, reference, user_id, contact_name, contact_email, contact_phone, total_amount_cents,
	payment_status, status, expires_at, cancelled_at, created_at, updated_at`

func (t *pgTx) CreateBooking(ctx context.Context, b *domain.Booking) error {
	return classify(t.tx.QueryRow(ctx, `INSERT INTO bookings (reference, user_id, contact_name, contact_email, contact_phone,
		total_amount_cents, payment_status, status, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`,
		b.Reference, b.UserID, b.ContactName, b.ContactEmail, b.ContactPhone,
		b.TotalAmountCents, b.PaymentStatus, b.Status, b.ExpiresAt).
		Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt))
}

func (t *pgTx) CreatePassenger(ctx context.Context, p *domain.Passenger) error {
	return classify(t.tx.QueryRow(ctx, `INSERT INTO passengers (booking_id, first_name, last_name, passenger_type, position)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		p.BookingID, p.FirstName, p.LastName, p.Type, p.Position).Scan(&p.ID))
}

func (t *pgTx) CreateBookingFlight(ctx context.Context, leg *domain.BookingFlight) error {
	return classify(t.tx.QueryRow(ctx, `INSERT INTO booking_flights (booking_id, flight_id, travel_class, fare_cents, baggage_kg)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		leg.BookingID, leg.FlightID, leg.TravelClass, leg.FareCents, leg.BaggageKg).Scan(&leg.ID))
}

func (t *pgTx) CreatePayment(ctx context.Context, p *domain.Payment) error {
	return classify(t.tx.QueryRow(ctx, `INSERT INTO payments (booking_id, amount_cents, status, transaction_id)
		VALUES ($1, $2, $3, $4) RETURNING id, created_at`,
		p.BookingID, p.AmountCents, p.Status, p.TransactionID).Scan(&p.ID, &p.CreatedAt))
}

func (t *pgTx) UpdatePayment(ctx context.Context, p *domain.Payment) error {
	cmd, err := t.tx.Exec(ctx, `UPDATE payments SET status=$2, processed_at=$3 WHERE id=$1`, p.ID, p.Status, p.ProcessedAt)
	if err != nil {
		return classify(err)
	}
	if cmd.RowsAffected() == 0 {
		return notFound("payment %d", p.ID)
	}
	return nil
}

func (t *pgTx) GetBookingFlight(ctx context.Context, id int64) (*domain.BookingFlight, error) {
	var leg domain.BookingFlight
	err := t.tx.QueryRow(ctx, `SELECT id, booking_id, flight_id, travel_class, fare_cents, baggage_kg
		FROM booking_flights WHERE id=$1`, id).
		Scan(&leg.ID, &leg.BookingID, &leg.FlightID, &leg.TravelClass, &leg.FareCents, &leg.BaggageKg)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("booking leg %d", id)
	}
	if err != nil {
		return nil, classify(err)
	}
	return &leg, nil
}

func (t *pgTx) GetPassenger(ctx context.Context, id int64) (*domain.Passenger, error) {
	var p domain.Passenger
	err := t.tx.QueryRow(ctx, `SELECT id, booking_id, first_name, last_name, passenger_type, position
		FROM passengers WHERE id=$1`, id).
		Scan(&p.ID, &p.BookingID, &p.FirstName, &p.LastName, &p.Type, &p.Position)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("passenger %d", id)
	}
	if err != nil {
		return nil, classify(err)
	}
	return &p, nil
}

func (t *pgTx) GetBooking(ctx context.Context, reference string) (*domain.Booking, error) {
	return t.loadBooking(ctx, reference, false)
}

func (t *pgTx) GetBookingForUpdate(ctx context.Context, reference string) (*domain.Booking, error) {
	return t.loadBooking(ctx, reference, true)
}

func (t *pgTx) loadBooking(ctx context.Context, reference string, forUpdate bool) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE reference=$1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var b domain.Booking
	err := t.tx.QueryRow(ctx, query, reference).Scan(&b.ID, &b.Reference, &b.UserID, &b.ContactName, &b.ContactEmail,
		&b.ContactPhone, &b.TotalAmountCents, &b.PaymentStatus, &b.Status, &b.ExpiresAt, &b.CancelledAt,
		&b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("booking %s", reference)
	}
	if err != nil {
		return nil, classify(err)
	}

	if b.Flights, err = t.listBookingFlights(ctx, b.ID); err != nil {
		return nil, err
	}
	if b.Passengers, err = t.listPassengers(ctx, b.ID); err != nil {
		return nil, err
	}
	if b.Allocations, err = t.ListAllocationsByBooking(ctx, b.ID); err != nil {
		return nil, err
	}
	if b.Payments, err = t.listPayments(ctx, b.ID); err != nil {
		return nil, err
	}
	return &b, nil
}

func (t *pgTx) listBookingFlights(ctx context.Context, bookingID int64) ([]domain.BookingFlight, error) {
	rows, err := t.tx.Query(ctx, `SELECT id, booking_id, flight_id, travel_class, fare_cents, baggage_kg
		FROM booking_flights WHERE booking_id=$1 ORDER BY id`, bookingID)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	legs := make([]domain.BookingFlight, 0)
	for rows.Next() {
		var leg domain.BookingFlight
		if err := rows.Scan(&leg.ID, &leg.BookingID, &leg.FlightID, &leg.TravelClass, &leg.FareCents, &leg.BaggageKg); err != nil {
			return nil, classify(err)
		}
		legs = append(legs, leg)
	}
	return legs, classify(rows.Err())
}

func (t *pgTx) listPassengers(ctx context.Context, bookingID int64) ([]domain.Passenger, error) {
	rows, err := t.tx.Query(ctx, `SELECT id, booking_id, first_name, last_name, passenger_type, position
		FROM passengers WHERE booking_id=$1 ORDER BY position`, bookingID)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	passengers := make([]domain.Passenger, 0)
	for rows.Next() {
		var p domain.Passenger
		if err := rows.Scan(&p.ID, &p.BookingID, &p.FirstName, &p.LastName, &p.Type, &p.Position); err != nil {
			return nil, classify(err)
		}
		passengers = append(passengers, p)
	}
	return passengers, classify(rows.Err())
}

func (t *pgTx) listPayments(ctx context.Context, bookingID int64) ([]domain.Payment, error) {
	rows, err := t.tx.Query(ctx, `SELECT id, booking_id, amount_cents, status, transaction_id, created_at, processed_at
		FROM payments WHERE booking_id=$1 ORDER BY id`, bookingID)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	payments := make([]domain.Payment, 0)
	for rows.Next() {
		var p domain.Payment
		if err := rows.Scan(&p.ID, &p.BookingID, &p.AmountCents, &p.Status, &p.TransactionID, &p.CreatedAt, &p.ProcessedAt); err != nil {
			return nil, classify(err)
		}
		payments = append(payments, p)
	}
	return payments, classify(rows.Err())
}

func (t *pgTx) UpdateBookingTotal(ctx context.Context, bookingID int64, totalCents int64) error {
	cmd, err := t.tx.Exec(ctx, `UPDATE bookings SET total_amount_cents=$2, updated_at=now() WHERE id=$1`, bookingID, totalCents)
	if err != nil {
		return classify(err)
	}
	if cmd.RowsAffected() == 0 {
		return notFound("booking %d", bookingID)
	}
	return nil
}

func (t *pgTx) UpdateBookingStatus(ctx context.Context, bookingID int64, status domain.BookingStatus, payment domain.PaymentStatus) error {
	cmd, err := t.tx.Exec(ctx, `UPDATE bookings SET status=$2, payment_status=$3, updated_at=now(),
		cancelled_at = CASE WHEN $2 = 'CANCELLED' THEN coalesce(cancelled_at, now()) ELSE cancelled_at END
		WHERE id=$1`, bookingID, status, payment)
	if err != nil {
		return classify(err)
	}
	if cmd.RowsAffected() == 0 {
		return notFound("booking %d", bookingID)
	}
	return nil
}

func (t *pgTx) ListExpiredReserved(ctx context.Context, now time.Time, limit int) ([]string, error) {
	return t.listReferences(ctx, `SELECT reference FROM bookings
		WHERE status='RESERVED' AND payment_status <> 'PAID' AND expires_at < $1
		ORDER BY expires_at LIMIT $2`, now, limit)
}

func (t *pgTx) ListCompletable(ctx context.Context, now time.Time, limit int) ([]string, error) {
	return t.listReferences(ctx, `SELECT b.reference FROM bookings b
		WHERE b.status='CONFIRMED'
		AND NOT EXISTS (
			SELECT 1 FROM booking_flights bf JOIN flights f ON f.id = bf.flight_id
			WHERE bf.booking_id = b.id AND f.arrival_time >= $1
		)
		ORDER BY b.id LIMIT $2`, now, limit)
}

func (t *pgTx) listReferences(ctx context.Context, query string, args ...interface{}) ([]string, error) {
	rows, err := t.tx.Query(ctx, query, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	refs := make([]string, 0)
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			return nil, classify(err)
		}
		refs = append(refs, ref)
	}
	return refs, classify(rows.Err())
}

func (t *pgTx) CreateCancelHistory(ctx context.Context, h *domain.CancelHistory) error {
	return classify(t.tx.QueryRow(ctx, `INSERT INTO cancel_histories (booking_id, actor, reason, fee_cents, refund_cents, seats_released)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_at`,
		h.BookingID, h.Actor, h.Reason, h.FeeCents, h.RefundCents, h.SeatsReleased).Scan(&h.ID, &h.CreatedAt))
}

func (t *pgTx) GetCancelHistory(ctx context.Context, bookingID int64) (*domain.CancelHistory, error) {
	var h domain.CancelHistory
	err := t.tx.QueryRow(ctx, `SELECT id, booking_id, actor, reason, fee_cents, refund_cents, seats_released, created_at
		FROM cancel_histories WHERE booking_id=$1`, bookingID).
		Scan(&h.ID, &h.BookingID, &h.Actor, &h.Reason, &h.FeeCents, &h.RefundCents, &h.SeatsReleased, &h.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("cancellation of booking %d", bookingID)
	}
	if err != nil {
		return nil, classify(err)
	}
	return &h, nil
}

func (t *pgTx) CreateRefundHistory(ctx context.Context, r *domain.RefundHistory) error {
	return classify(t.tx.QueryRow(ctx, `INSERT INTO refund_histories (booking_id, cancel_history_id, amount_cents, status)
		VALUES ($1, $2, $3, $4) RETURNING id, created_at`,
		r.BookingID, r.CancelHistoryID, r.AmountCents, r.Status).Scan(&r.ID, &r.CreatedAt))
}

func (t *pgTx) ListRefundHistory(ctx context.Context, bookingID int64) ([]domain.RefundHistory, error) {
	rows, err := t.tx.Query(ctx, `SELECT id, booking_id, cancel_history_id, amount_cents, status, created_at
		FROM refund_histories WHERE booking_id=$1 ORDER BY id`, bookingID)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	refunds := make([]domain.RefundHistory, 0)
	for rows.Next() {
		var r domain.RefundHistory
		if err := rows.Scan(&r.ID, &r.BookingID, &r.CancelHistoryID, &r.AmountCents, &r.Status, &r.CreatedAt); err != nil {
			return nil, classify(err)
		}
		refunds = append(refunds, r)
	}
	return refunds, classify(rows.Err())
}
