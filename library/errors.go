package library

import (
	"errors"
	"fmt"
)

// Error kinds. Every business rejection wraps exactly one of these.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrInvalidInput = errors.New("invalid input")
)

var (
	ErrBookNotFound   = fmt.Errorf("book %w", ErrNotFound)
	ErrCardNotFound   = fmt.Errorf("card %w", ErrNotFound)
	ErrBorrowNotFound = fmt.Errorf("borrow record %w", ErrNotFound)

	ErrBookAlreadyExists     = fmt.Errorf("%w: book with the same category, title, press, publish year and author already exists", ErrConflict)
	ErrDuplicateBooksInBatch = fmt.Errorf("%w: batch contains the same book more than once", ErrConflict)
	ErrCardAlreadyExists     = fmt.Errorf("%w: card with the same name, department and type already exists", ErrConflict)
	ErrAlreadyBorrowed       = fmt.Errorf("%w: book is already borrowed with this card and not yet returned", ErrConflict)

	ErrNegativeStock      = fmt.Errorf("%w: stock cannot go negative", ErrInvalidState)
	ErrOutOfStock         = fmt.Errorf("%w: book out of stock", ErrInvalidState)
	ErrBookHasOpenBorrows = fmt.Errorf("%w: book has unreturned records", ErrInvalidState)
	ErrCardHasOpenBorrows = fmt.Errorf("%w: card has unreturned books", ErrInvalidState)
	ErrInvalidReturnTime  = fmt.Errorf("%w: return time must be after borrow time", ErrInvalidState)

	ErrEmptyNaturalKeyField = fmt.Errorf("%w: category, title, press and author must not be empty", ErrInvalidInput)
	ErrNegativePrice        = fmt.Errorf("%w: price must not be negative", ErrInvalidInput)
	ErrNegativeInitialStock = fmt.Errorf("%w: stock must not be negative", ErrInvalidInput)
	ErrEmptyCardName        = fmt.Errorf("%w: card name must not be empty", ErrInvalidInput)
	ErrUnknownCardType      = fmt.Errorf("%w: unknown card type", ErrInvalidInput)
	ErrMissingTimestamp     = fmt.Errorf("%w: timestamp must be set", ErrInvalidInput)
	ErrUnknownSortColumn    = fmt.Errorf("%w: unknown sort column", ErrInvalidInput)
	ErrUnknownSortOrder     = fmt.Errorf("%w: unknown sort order", ErrInvalidInput)
)

var ErrNilDatabaseConnection = errors.New("database connection must not be nil")
var ErrEmptyTableNameSupplied = errors.New("empty table name supplied")

var ErrBeginTxFailed = errors.New("beginning the transaction failed")
var ErrCommitTxFailed = errors.New("committing the transaction failed")
var ErrBuildingQueryFailed = errors.New("building the query failed")
var ErrQueryFailed = errors.New("querying the database failed")
var ErrExecFailed = errors.New("executing the statement failed")
var ErrScanningRowFailed = errors.New("scanning the db row failed")
var ErrGettingRowsAffectedFailed = errors.New("getting rows affected failed")
var ErrSchemaChangeFailed = errors.New("changing the database schema failed")

// ErrorKind classifies an error returned by a store operation.
type ErrorKind string

const (
	KindNone         ErrorKind = ""
	KindNotFound     ErrorKind = "NotFound"
	KindConflict     ErrorKind = "Conflict"
	KindInvalidState ErrorKind = "InvalidState"
	KindInvalidInput ErrorKind = "InvalidInput"
	KindInternal     ErrorKind = "Internal"
)

// KindOf maps err to its ErrorKind.
// A nil error is KindNone, anything not wrapping one of the four business kinds is KindInternal.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrInvalidState):
		return KindInvalidState
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	default:
		return KindInternal
	}
}

// IsBusinessError reports whether err is a rule rejection rather than an infrastructure failure.
func IsBusinessError(err error) bool {
	kind := KindOf(err)

	return kind != KindNone && kind != KindInternal
}
