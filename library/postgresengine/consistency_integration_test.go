//go:build integration

package postgresengine_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/library-lending-go/library"
	. "github.com/AntonStoeckl/library-lending-go/testutil/postgresengine/helper"                 //nolint:revive
	. "github.com/AntonStoeckl/library-lending-go/testutil/postgresengine/helper/postgreswrapper" //nolint:revive
)

func Test_Consistency_ReadsWorkWithBothLevels(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := CreatePGXPoolWrapperWithReplica(t)
	defer wrapper.Close()
	service := wrapper.GetService()

	// arrange
	CleanUp(t, wrapper)
	bookID := GivenBookWithStockWasAdded(t, ctxWithTimeout, service, 2)
	cardID := GivenCardWasRegistered(t, ctxWithTimeout, service)
	GivenBookWasBorrowed(t, ctxWithTimeout, service, bookID, cardID, FakeClock())

	for _, ctx := range []context.Context{
		library.WithStrongConsistency(ctxWithTimeout),
		library.WithEventualConsistency(ctxWithTimeout),
	} {
		// act
		books, booksErr := service.QueryBooks(ctx, library.BuildBookQuery().Finalize())
		cards, cardsErr := service.ListCards(ctx)
		history, historyErr := service.History(ctx, cardID)

		// assert
		assert.NoError(t, booksErr)
		assert.NoError(t, cardsErr)
		assert.NoError(t, historyErr)
		assert.Len(t, books, 1)
		assert.Len(t, cards, 1)
		assert.Len(t, history, 1)
	}
}

func Test_Consistency_WritesIgnoreEventualConsistency(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wrapper := CreatePGXPoolWrapperWithReplica(t)
	defer wrapper.Close()
	service := wrapper.GetService()

	// arrange
	CleanUp(t, wrapper)
	ctx := library.WithEventualConsistency(ctxWithTimeout)

	// act
	bookID, err := service.AddBook(ctx, FixtureBook(t))

	// assert
	assert.NoError(t, err, "writes always go to the primary")
	assert.NoError(t, service.AdjustStock(ctx, bookID, 1))
}
