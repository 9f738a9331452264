package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Domenick1991/seatledger/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeCheckViolation       = "23514"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
	codeQueryCanceled        = "57014"
)

// Constraint names created by internal/migrations.
const (
	constraintBookingReference  = "uq_bookings_reference"
	constraintAllocationPrefix  = "uq_seat_allocations_"
	constraintFlightCountPrefix = "chk_flights_"
)

// classify maps driver errors onto the domain error kinds, keeping the original in the chain.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %w", domain.ErrNotFound, err)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case codeUniqueViolation:
		switch {
		case pgErr.ConstraintName == constraintBookingReference:
			return fmt.Errorf("%w: %w", domain.ErrTransactionAborted, err)
		case strings.HasPrefix(pgErr.ConstraintName, constraintAllocationPrefix):
			return fmt.Errorf("%w: %w", domain.ErrAllocationConflict, err)
		}
		return fmt.Errorf("%w: %w", domain.ErrInvariantViolation, err)
	case codeCheckViolation:
		if strings.HasPrefix(pgErr.ConstraintName, constraintFlightCountPrefix) {
			return fmt.Errorf("%w: %w", domain.ErrOutOfInventory, err)
		}
		return fmt.Errorf("%w: %w", domain.ErrInvariantViolation, err)
	case codeForeignKeyViolation:
		return fmt.Errorf("%w: %w", domain.ErrNotFound, err)
	case codeSerializationFailure, codeDeadlockDetected, codeLockNotAvailable, codeQueryCanceled:
		return fmt.Errorf("%w: %w", domain.ErrTransactionAborted, err)
	}
	return err
}

func notFound(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", domain.ErrNotFound, fmt.Sprintf(format, args...))
}

func classColumn(class domain.TravelClass) (string, error) {
	switch class {
	case domain.TravelClassEconomy:
		return "economy_available", nil
	case domain.TravelClassBusiness:
		return "business_available", nil
	case domain.TravelClassFirst:
		return "first_available", nil
	}
	return "", fmt.Errorf("%w: unknown travel class %q", domain.ErrInvariantViolation, class)
}
