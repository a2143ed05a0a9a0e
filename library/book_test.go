package library_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/library-lending-go/library"
)

func validBook() library.Book {
	return library.Book{
		Category:    "Computer Science",
		Title:       "Database System Concepts",
		Press:       "McGraw-Hill",
		PublishYear: 2019,
		Author:      "Silberschatz",
		Price:       120.5,
		Stock:       2,
	}
}

func Test_Book_Validate(t *testing.T) {
	tests := []struct {
		name     string
		modify   func(b *library.Book)
		expected error
	}{
		{name: "valid", modify: func(*library.Book) {}, expected: nil},
		{name: "zero_price_and_stock", modify: func(b *library.Book) { b.Price, b.Stock = 0, 0 }, expected: nil},
		{name: "empty_category", modify: func(b *library.Book) { b.Category = "" }, expected: library.ErrEmptyNaturalKeyField},
		{name: "blank_title", modify: func(b *library.Book) { b.Title = "   " }, expected: library.ErrEmptyNaturalKeyField},
		{name: "empty_press", modify: func(b *library.Book) { b.Press = "" }, expected: library.ErrEmptyNaturalKeyField},
		{name: "empty_author", modify: func(b *library.Book) { b.Author = "" }, expected: library.ErrEmptyNaturalKeyField},
		{name: "negative_price", modify: func(b *library.Book) { b.Price = -0.01 }, expected: library.ErrNegativePrice},
		{name: "negative_stock", modify: func(b *library.Book) { b.Stock = -1 }, expected: library.ErrNegativeInitialStock},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// arrange
			book := validBook()
			tc.modify(&book)

			// act
			err := book.Validate()

			// assert
			if tc.expected == nil {
				assert.NoError(t, err)
				return
			}

			assert.ErrorIs(t, err, tc.expected)
			assert.Equal(t, library.KindInvalidInput, library.KindOf(err))
		})
	}
}

func Test_Book_NaturalKey_IgnoresIDPriceAndStock(t *testing.T) {
	// arrange
	first := validBook()
	second := validBook()
	second.ID = 42
	second.Price = 1
	second.Stock = 100

	// act + assert
	assert.Equal(t, first.NaturalKey(), second.NaturalKey())
}

func Test_FindDuplicateNaturalKeys(t *testing.T) {
	other := validBook()
	other.PublishYear = 2020

	withDifferentStock := validBook()
	withDifferentStock.Stock = 9

	assert.Equal(t, -1, library.FindDuplicateNaturalKeys(nil))
	assert.Equal(t, -1, library.FindDuplicateNaturalKeys([]library.Book{validBook(), other}))
	assert.Equal(t, 2, library.FindDuplicateNaturalKeys([]library.Book{validBook(), other, withDifferentStock}))
}
