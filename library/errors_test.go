package library_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/library-lending-go/library"
)

func Test_KindOf(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected library.ErrorKind
	}{
		{name: "nil", err: nil, expected: library.KindNone},
		{name: "book_not_found", err: library.ErrBookNotFound, expected: library.KindNotFound},
		{name: "card_not_found", err: library.ErrCardNotFound, expected: library.KindNotFound},
		{name: "borrow_not_found", err: library.ErrBorrowNotFound, expected: library.KindNotFound},
		{name: "book_already_exists", err: library.ErrBookAlreadyExists, expected: library.KindConflict},
		{name: "duplicates_in_batch", err: library.ErrDuplicateBooksInBatch, expected: library.KindConflict},
		{name: "card_already_exists", err: library.ErrCardAlreadyExists, expected: library.KindConflict},
		{name: "already_borrowed", err: library.ErrAlreadyBorrowed, expected: library.KindConflict},
		{name: "negative_stock", err: library.ErrNegativeStock, expected: library.KindInvalidState},
		{name: "out_of_stock", err: library.ErrOutOfStock, expected: library.KindInvalidState},
		{name: "book_has_open_borrows", err: library.ErrBookHasOpenBorrows, expected: library.KindInvalidState},
		{name: "card_has_open_borrows", err: library.ErrCardHasOpenBorrows, expected: library.KindInvalidState},
		{name: "invalid_return_time", err: library.ErrInvalidReturnTime, expected: library.KindInvalidState},
		{name: "empty_natural_key_field", err: library.ErrEmptyNaturalKeyField, expected: library.KindInvalidInput},
		{name: "unknown_card_type", err: library.ErrUnknownCardType, expected: library.KindInvalidInput},
		{name: "missing_timestamp", err: library.ErrMissingTimestamp, expected: library.KindInvalidInput},
		{
			name:     "wrapped_business_error",
			err:      fmt.Errorf("book 2 of batch: %w", library.ErrNegativePrice),
			expected: library.KindInvalidInput,
		},
		{
			name:     "joined_infrastructure_error",
			err:      errors.Join(library.ErrQueryFailed, errors.New("connection reset")),
			expected: library.KindInternal,
		},
		{name: "foreign_error", err: errors.New("boom"), expected: library.KindInternal},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, library.KindOf(tc.err))
		})
	}
}

func Test_IsBusinessError(t *testing.T) {
	assert.False(t, library.IsBusinessError(nil))
	assert.False(t, library.IsBusinessError(errors.Join(library.ErrCommitTxFailed, errors.New("timeout"))))
	assert.True(t, library.IsBusinessError(library.ErrOutOfStock))
	assert.True(t, library.IsBusinessError(fmt.Errorf("wrapped: %w", library.ErrCardNotFound)))
}

func Test_SpecificErrors_WrapTheirKind(t *testing.T) {
	assert.ErrorIs(t, library.ErrBookNotFound, library.ErrNotFound)
	assert.ErrorIs(t, library.ErrAlreadyBorrowed, library.ErrConflict)
	assert.ErrorIs(t, library.ErrOutOfStock, library.ErrInvalidState)
	assert.ErrorIs(t, library.ErrUnknownSortColumn, library.ErrInvalidInput)
	assert.NotErrorIs(t, library.ErrOutOfStock, library.ErrConflict)
}
