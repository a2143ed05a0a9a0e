package helper

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/library-lending-go/library"
	"github.com/AntonStoeckl/library-lending-go/library/postgresengine"
)

func GivenUniqueID(t testing.TB) uuid.UUID {
	id, err := uuid.NewV7()
	assert.NoError(t, err, "error in arranging test data")

	return id
}

// GivenUniqueSuffix returns a short random string to keep natural keys of fixtures apart.
func GivenUniqueSuffix(t testing.TB) string {
	return GivenUniqueID(t).String()[24:]
}

// FixtureBook returns a valid book with a unique title and category.
func FixtureBook(t testing.TB) library.Book {
	suffix := GivenUniqueSuffix(t)

	return library.Book{
		Category:    "Software Design " + suffix,
		Title:       "Learning Domain-Driven Design " + suffix,
		Press:       "O'Reilly Media, Inc.",
		PublishYear: 2021,
		Author:      "Vlad Khononov",
		Price:       59.99,
		Stock:       3,
	}
}

// FixtureCard returns a valid student card with a unique name.
func FixtureCard(t testing.TB) library.Card {
	return library.Card{
		Name:       "Reader " + GivenUniqueSuffix(t),
		Department: "Computer Science",
		Type:       library.CardTypeStudent,
	}
}

// FakeClock returns a fixed point in time truncated to the stored precision.
func FakeClock() time.Time {
	return time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC)
}

func GivenBookWasAdded(t testing.TB, ctx context.Context, service postgresengine.Service, book library.Book) library.BookID {
	bookID, err := service.AddBook(ctx, book)
	assert.NoError(t, err, "error in arranging test data")

	return bookID
}

func GivenBookWithStockWasAdded(t testing.TB, ctx context.Context, service postgresengine.Service, stock int) library.BookID {
	book := FixtureBook(t)
	book.Stock = stock

	return GivenBookWasAdded(t, ctx, service, book)
}

func GivenCardWasRegistered(t testing.TB, ctx context.Context, service postgresengine.Service) library.CardID {
	cardID, err := service.RegisterCard(ctx, FixtureCard(t))
	assert.NoError(t, err, "error in arranging test data")

	return cardID
}

func GivenBookWasBorrowed(
	t testing.TB,
	ctx context.Context,
	service postgresengine.Service,
	bookID library.BookID,
	cardID library.CardID,
	borrowTime time.Time,
) {

	err := service.Borrow(ctx, bookID, cardID, borrowTime)
	assert.NoError(t, err, "error in arranging test data")
}

func GivenBookWasReturned(
	t testing.TB,
	ctx context.Context,
	service postgresengine.Service,
	bookID library.BookID,
	cardID library.CardID,
	returnTime time.Time,
) {

	err := service.Return(ctx, bookID, cardID, returnTime)
	assert.NoError(t, err, "error in arranging test data")
}

// StockOf reads the current stock of a book through QueryBooks.
func StockOf(t testing.TB, ctx context.Context, service postgresengine.Service, bookID library.BookID) int {
	books, err := service.QueryBooks(ctx, library.BuildBookQuery().Finalize())
	assert.NoError(t, err, "error in reading test data")

	for _, book := range books {
		if book.ID == bookID {
			return book.Stock
		}
	}

	t.Fatalf("book %d not found", bookID)

	return 0
}
