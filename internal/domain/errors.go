package domain

import "errors"

type ErrorKind string

const (
	KindOutOfInventory     ErrorKind = "OUT_OF_INVENTORY"
	KindAllocationConflict ErrorKind = "ALLOCATION_CONFLICT"
	KindNotFound           ErrorKind = "NOT_FOUND"
	KindInvariantViolation ErrorKind = "INVARIANT_VIOLATION"
	KindTransactionAborted ErrorKind = "TRANSACTION_ABORTED"
	KindInternal           ErrorKind = "INTERNAL"
)

var (
	ErrOutOfInventory     = errors.New("out of inventory")
	ErrAllocationConflict = errors.New("allocation conflict")
	ErrNotFound           = errors.New("not found")
	ErrInvariantViolation = errors.New("invariant violation")
	ErrTransactionAborted = errors.New("transaction aborted")
)

// KindOf returns the error kind carried by err, or KindInternal for anything unclassified.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrOutOfInventory):
		return KindOutOfInventory
	case errors.Is(err, ErrAllocationConflict):
		return KindAllocationConflict
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrInvariantViolation):
		return KindInvariantViolation
	case errors.Is(err, ErrTransactionAborted):
		return KindTransactionAborted
	}
	return KindInternal
}
