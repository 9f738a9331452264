package repository

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Domenick1991/seatledger/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want error
	}{
		{"no rows", pgx.ErrNoRows, domain.ErrNotFound},
		{"booking reference collision", &pgconn.PgError{Code: codeUniqueViolation, ConstraintName: constraintBookingReference}, domain.ErrTransactionAborted},
		{"seat taken", &pgconn.PgError{Code: codeUniqueViolation, ConstraintName: "uq_seat_allocations_flight_seat"}, domain.ErrAllocationConflict},
		{"passenger already seated", &pgconn.PgError{Code: codeUniqueViolation, ConstraintName: "uq_seat_allocations_leg_passenger"}, domain.ErrAllocationConflict},
		{"other unique", &pgconn.PgError{Code: codeUniqueViolation, ConstraintName: "uq_payments_transaction_id"}, domain.ErrInvariantViolation},
		{"negative counter", &pgconn.PgError{Code: codeCheckViolation, ConstraintName: "chk_flights_economy_available"}, domain.ErrOutOfInventory},
		{"other check", &pgconn.PgError{Code: codeCheckViolation, ConstraintName: "chk_payments_amount"}, domain.ErrInvariantViolation},
		{"missing parent", &pgconn.PgError{Code: codeForeignKeyViolation}, domain.ErrNotFound},
		{"deadlock", &pgconn.PgError{Code: codeDeadlockDetected}, domain.ErrTransactionAborted},
		{"serialization", &pgconn.PgError{Code: codeSerializationFailure}, domain.ErrTransactionAborted},
		{"lock timeout", fmt.Errorf("lock flights: %w", &pgconn.PgError{Code: codeLockNotAvailable}), domain.ErrTransactionAborted},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := classify(tc.err)
			assert.ErrorIs(t, got, tc.want)
			assert.ErrorIs(t, got, tc.err)
		})
	}
}

func TestClassify_PassThrough(t *testing.T) {
	assert.NoError(t, classify(nil))

	plain := errors.New("connection reset")
	assert.Same(t, plain, classify(plain))
	assert.Equal(t, domain.KindInternal, domain.KindOf(classify(&pgconn.PgError{Code: "XX000"})))
}

func TestClassColumn(t *testing.T) {
	col, err := classColumn(domain.TravelClassBusiness)
	assert.NoError(t, err)
	assert.Equal(t, "business_available", col)

	_, err = classColumn("PREMIUM")
	assert.ErrorIs(t, err, domain.ErrInvariantViolation)
}
