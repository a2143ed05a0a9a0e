//go:build integration

package postgresengine_test

import (
	"context"
	"log/slog"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/library-lending-go/library"
	"github.com/AntonStoeckl/library-lending-go/library/postgresengine"
	. "github.com/AntonStoeckl/library-lending-go/testutil/postgresengine/helper"                 //nolint:revive
	. "github.com/AntonStoeckl/library-lending-go/testutil/postgresengine/helper/postgreswrapper" //nolint:revive
)

func Test_Observability_WithLogger_LogsSQLAndOperations(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logHandler := NewLogHandlerSpy(false)

	wrapper := CreateWrapperWithTestConfig(t, postgresengine.WithLogger(slog.New(logHandler)))
	defer wrapper.Close()
	service := wrapper.GetService()

	// arrange
	CleanUp(t, wrapper)
	logHandler.Reset()

	// act
	_, err := service.AddBook(ctxWithTimeout, FixtureBook(t))

	// assert
	assert.NoError(t, err)
	assert.True(t,
		logHandler.HasDebugLogWithMessage("executed sql for: insert book").WithDurationMS().WithAttr("query").Assert(),
		"should log the insert statement with its duration",
	)
	assert.True(t,
		logHandler.HasInfoLogWithMessage("library operation: add_book").WithDurationMS().WithAttr("book_id").Assert(),
		"should log the completed operation with duration and book id",
	)
	assert.False(t, logHandler.HasLogAtLevel(slog.LevelError))
}

func Test_Observability_WithLogger_LogsRejectionsAtInfo(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logHandler := NewLogHandlerSpy(false)

	wrapper := CreateWrapperWithTestConfig(t, postgresengine.WithLogger(slog.New(logHandler)))
	defer wrapper.Close()
	service := wrapper.GetService()

	// arrange
	CleanUp(t, wrapper)
	bookID := GivenBookWithStockWasAdded(t, ctxWithTimeout, service, 0)
	cardID := GivenCardWasRegistered(t, ctxWithTimeout, service)
	logHandler.Reset()

	// act
	err := service.Borrow(ctxWithTimeout, bookID, cardID, FakeClock())

	// assert
	assert.ErrorIs(t, err, library.ErrOutOfStock)
	assert.True(t,
		logHandler.HasInfoLogWithMessage("library operation rejected: borrow").
			WithErrorKind(string(library.KindInvalidState)).
			WithDurationMS().
			Assert(),
		"should log the rejection with its error kind",
	)
	assert.False(t, logHandler.HasLogAtLevel(slog.LevelError), "business rejections are no errors")
}

func Test_Observability_WithContextualLogger(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logHandler := NewLogHandlerSpy(false)

	wrapper := CreateWrapperWithTestConfig(t, postgresengine.WithContextualLogger(slog.New(logHandler)))
	defer wrapper.Close()
	service := wrapper.GetService()

	// arrange
	CleanUp(t, wrapper)
	logHandler.Reset()

	// act
	_, err := service.ListCards(ctxWithTimeout)

	// assert
	assert.NoError(t, err)
	assert.True(t,
		logHandler.HasInfoLogWithMessage("library operation: list_cards").WithAttr("card_count").Assert(),
	)
}

func Test_Observability_WithMetrics_RecordsDurationsErrorsAndRows(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	metrics := NewMetricsCollectorSpy(true)

	wrapper := CreateWrapperWithTestConfig(t, postgresengine.WithMetrics(metrics))
	defer wrapper.Close()
	service := wrapper.GetService()

	// arrange
	CleanUp(t, wrapper)
	bookID := GivenBookWithStockWasAdded(t, ctxWithTimeout, service, 1)
	metrics.Reset()

	// act
	_, queryErr := service.QueryBooks(ctxWithTimeout, library.BuildBookQuery().Finalize())
	adjustErr := service.AdjustStock(ctxWithTimeout, bookID, -2)

	// assert
	assert.NoError(t, queryErr)
	assert.ErrorIs(t, adjustErr, library.ErrNegativeStock)

	assert.True(t, metrics.HasDurationRecord("library_operation_duration_seconds",
		map[string]string{"operation": "query_books", "status": "success"}))
	assert.True(t, metrics.HasValueRecord("library_rows_returned", 1,
		map[string]string{"operation": "query_books"}))
	assert.True(t, metrics.HasDurationRecord("library_operation_duration_seconds",
		map[string]string{"operation": "adjust_stock", "status": "rejected"}))
	assert.True(t, metrics.HasCounterRecord("library_operation_errors_total",
		map[string]string{"operation": "adjust_stock", "error_kind": "InvalidState"}))

	for _, record := range metrics.GetDurationRecords() {
		assert.False(t, record.WithCtx, "plain collectors are called without context")
	}
}

func Test_Observability_WithContextualMetrics_PrefersContextMethods(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	metrics := NewContextualMetricsCollectorSpy(true)

	wrapper := CreateWrapperWithTestConfig(t, postgresengine.WithMetrics(metrics))
	defer wrapper.Close()
	service := wrapper.GetService()

	// arrange
	CleanUp(t, wrapper)
	metrics.Reset()

	// act
	_, err := service.History(ctxWithTimeout, library.CardID(1))

	// assert
	assert.NoError(t, err)
	assert.NotEmpty(t, metrics.GetDurationRecords())

	for _, record := range metrics.GetDurationRecords() {
		assert.True(t, record.WithCtx)
	}

	for _, record := range metrics.GetValueRecords() {
		assert.True(t, record.WithCtx)
	}
}

func Test_Observability_WithTracing_OneSpanPerOperation(t *testing.T) {
	// setup
	ctxWithTimeout, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	tracing := NewTracingCollectorSpy(true)

	wrapper := CreateWrapperWithTestConfig(t, postgresengine.WithTracing(tracing))
	defer wrapper.Close()
	service := wrapper.GetService()
	fakeClock := FakeClock()

	// arrange
	CleanUp(t, wrapper)
	bookID := GivenBookWithStockWasAdded(t, ctxWithTimeout, service, 1)
	cardID := GivenCardWasRegistered(t, ctxWithTimeout, service)
	tracing.Reset()

	// act
	borrowErr := service.Borrow(ctxWithTimeout, bookID, cardID, fakeClock)
	returnErr := service.Return(ctxWithTimeout, bookID, cardID, fakeClock)
	_, historyErr := service.History(ctxWithTimeout, cardID)

	// assert
	assert.NoError(t, borrowErr)
	assert.ErrorIs(t, returnErr, library.ErrInvalidReturnTime)
	assert.NoError(t, historyErr)
	assert.Len(t, tracing.GetSpanRecords(), 3)

	assert.True(t,
		tracing.HasSpanRecordForName("library.borrow").
			WithStatus("success").
			WithStartAttribute("operation", "borrow").
			WithStartAttribute("book_id", strconv.FormatInt(int64(bookID), 10)).
			Assert(),
	)
	assert.True(t,
		tracing.HasSpanRecordForName("library.return").
			WithStatus("rejected").
			WithEndAttribute("error_kind", "InvalidState").
			Assert(),
	)
	assert.True(t,
		tracing.HasSpanRecordForName("library.history").
			WithStatus("success").
			WithSpanAttribute("row_count", "1").
			Assert(),
	)
}
