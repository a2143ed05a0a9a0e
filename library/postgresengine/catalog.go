package postgresengine

import (
	"context"
	"fmt"
	"strconv"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/AntonStoeckl/library-lending-go/library"
	"github.com/AntonStoeckl/library-lending-go/library/postgresengine/internal/adapters"
)

const (
	actionLockBook             = "lock book"
	actionCheckBookNaturalKey  = "check book natural key"
	actionCheckBatchConflicts  = "check batch natural keys"
	actionInsertBook           = "insert book"
	actionUpdateBookStock      = "update book stock"
	actionUpdateBookInfo       = "update book info"
	actionCheckBookOpenBorrows = "check open borrows of book"
	actionDeleteBook           = "delete book"

	// Keeps the natural key check of large batches below the PostgreSQL bind parameter limit.
	batchConflictCheckChunkSize = 1000
)

// AddBook inserts a new book and returns its assigned id.
//
// It fails with library.ErrInvalidInput for empty natural key fields or negative price/stock
// and with library.ErrBookAlreadyExists if a book with the same natural key exists.
func (s Service) AddBook(ctx context.Context, book library.Book) (library.BookID, error) {
	observer, ctx := s.startOperation(ctx, operationAddBook, nil)

	if err := book.Validate(); err != nil {
		observer.finish(err)
		return 0, err
	}

	var bookID library.BookID

	err := s.withTx(ctx, false, func(tx adapters.DBTx) error {
		taken, checkErr := s.exists(ctx, tx, actionCheckBookNaturalKey,
			s.from(s.booksTableName).Where(naturalKeyExpression(book.NaturalKey())))
		if checkErr != nil {
			return checkErr
		}

		if taken {
			return library.ErrBookAlreadyExists
		}

		var insertErr error
		bookID, insertErr = s.insertBook(ctx, tx, book)

		return insertErr
	})

	observer.finish(err, logAttrBookID, bookID)

	if err != nil {
		return 0, err
	}

	return bookID, nil
}

// AddBooks inserts all books or none of them.
//
// The batch is rejected with library.ErrDuplicateBooksInBatch if two of its books share a natural key
// and with library.ErrBookAlreadyExists if any of them collides with an existing book.
// On success the assigned ids are written to books[i].ID in input order. An empty batch succeeds without effect.
func (s Service) AddBooks(ctx context.Context, books []library.Book) error {
	observer, ctx := s.startOperation(ctx, operationAddBooks, map[string]string{
		spanAttrRowCount: strconv.Itoa(len(books)),
	})

	if len(books) == 0 {
		observer.finish(nil, logAttrBookCount, 0)
		return nil
	}

	for i, book := range books {
		if err := book.Validate(); err != nil {
			err = fmt.Errorf("book %d of batch: %w", i, err)
			observer.finish(err)

			return err
		}
	}

	if i := library.FindDuplicateNaturalKeys(books); i >= 0 {
		err := fmt.Errorf("book %d of batch: %w", i, library.ErrDuplicateBooksInBatch)
		observer.finish(err)

		return err
	}

	bookIDs := make([]library.BookID, len(books))

	err := s.withTx(ctx, false, func(tx adapters.DBTx) error {
		if checkErr := s.checkBatchConflicts(ctx, tx, books); checkErr != nil {
			return checkErr
		}

		for i, book := range books {
			bookID, insertErr := s.insertBook(ctx, tx, book)
			if insertErr != nil {
				return insertErr
			}

			bookIDs[i] = bookID
		}

		return nil
	})

	observer.finish(err, logAttrBookCount, len(books))

	if err != nil {
		return err
	}

	for i := range books {
		books[i].ID = bookIDs[i]
	}

	return nil
}

// AdjustStock adds delta to the stock of a book. The book row is locked for the duration of the transaction.
//
// It fails with library.ErrBookNotFound and with library.ErrNegativeStock if the stock would drop below zero.
func (s Service) AdjustStock(ctx context.Context, bookID library.BookID, delta int) error {
	observer, ctx := s.startOperation(ctx, operationAdjustStock, bookSpanAttrs(bookID))

	err := s.withTx(ctx, false, func(tx adapters.DBTx) error {
		book, found, lockErr := s.lockBook(ctx, tx, bookID)
		if lockErr != nil {
			return lockErr
		}

		if !found {
			return library.ErrBookNotFound
		}

		newStock := book.Stock + delta
		if newStock < 0 {
			return library.ErrNegativeStock
		}

		return s.updateStock(ctx, tx, bookID, newStock)
	})

	observer.finish(err, logAttrBookID, bookID, logAttrDelta, delta)

	return err
}

// ModifyBookInfo overwrites all catalog fields of the book identified by book.ID except its stock.
//
// It fails with library.ErrBookNotFound and with library.ErrBookAlreadyExists if another book already has the new natural key.
func (s Service) ModifyBookInfo(ctx context.Context, book library.Book) error {
	observer, ctx := s.startOperation(ctx, operationModifyBookInfo, bookSpanAttrs(book.ID))

	info := book
	info.Stock = 0

	if err := info.Validate(); err != nil {
		observer.finish(err, logAttrBookID, book.ID)
		return err
	}

	err := s.withTx(ctx, false, func(tx adapters.DBTx) error {
		_, found, lockErr := s.lockBook(ctx, tx, book.ID)
		if lockErr != nil {
			return lockErr
		}

		if !found {
			return library.ErrBookNotFound
		}

		taken, checkErr := s.exists(ctx, tx, actionCheckBookNaturalKey,
			s.from(s.booksTableName).Where(
				naturalKeyExpression(book.NaturalKey()),
				goqu.C(colBookID).Neq(int64(book.ID)),
			))
		if checkErr != nil {
			return checkErr
		}

		if taken {
			return library.ErrBookAlreadyExists
		}

		_, updateErr := s.exec(ctx, tx, actionUpdateBookInfo,
			s.update(s.booksTableName).
				Set(goqu.Record{
					colCategory:    book.Category,
					colTitle:       book.Title,
					colPress:       book.Press,
					colPublishYear: book.PublishYear,
					colAuthor:      book.Author,
					colPrice:       book.Price,
				}).
				Where(goqu.C(colBookID).Eq(int64(book.ID))))

		if adapters.IsUniqueViolation(updateErr) {
			return library.ErrBookAlreadyExists
		}

		return updateErr
	})

	observer.finish(err, logAttrBookID, book.ID)

	return err
}

// RemoveBook deletes a book.
//
// It fails with library.ErrBookNotFound and with library.ErrBookHasOpenBorrows while any copy is still borrowed.
// Closed borrows of the book stay in the ledger.
func (s Service) RemoveBook(ctx context.Context, bookID library.BookID) error {
	observer, ctx := s.startOperation(ctx, operationRemoveBook, bookSpanAttrs(bookID))

	err := s.withTx(ctx, false, func(tx adapters.DBTx) error {
		_, found, lockErr := s.lockBook(ctx, tx, bookID)
		if lockErr != nil {
			return lockErr
		}

		if !found {
			return library.ErrBookNotFound
		}

		borrowed, checkErr := s.exists(ctx, tx, actionCheckBookOpenBorrows,
			s.from(s.borrowsTableName).Where(
				goqu.C(colBookID).Eq(int64(bookID)),
				goqu.C(colReturnTime).IsNull(),
			))
		if checkErr != nil {
			return checkErr
		}

		if borrowed {
			return library.ErrBookHasOpenBorrows
		}

		_, deleteErr := s.exec(ctx, tx, actionDeleteBook,
			s.deleteFrom(s.booksTableName).Where(goqu.C(colBookID).Eq(int64(bookID))))

		return deleteErr
	})

	observer.finish(err, logAttrBookID, bookID)

	return err
}

// lockBook reads a book with SELECT ... FOR UPDATE.
func (s Service) lockBook(
	ctx context.Context,
	tx adapters.DBTx,
	bookID library.BookID,
) (library.Book, bool, error) {

	var book library.Book

	found, err := s.queryFirst(ctx, tx, actionLockBook,
		s.from(s.booksTableName).
			Select(bookColumns()...).
			Where(goqu.C(colBookID).Eq(int64(bookID))).
			ForUpdate(exp.Wait),
		bookScanDestinations(&book)...)

	return book, found, err
}

// insertBook inserts book and returns the assigned id. A unique violation maps to library.ErrBookAlreadyExists.
func (s Service) insertBook(ctx context.Context, tx adapters.DBTx, book library.Book) (library.BookID, error) {
	var bookID library.BookID

	_, err := s.queryFirst(ctx, tx, actionInsertBook,
		s.insertInto(s.booksTableName).
			Rows(goqu.Record{
				colCategory:    book.Category,
				colTitle:       book.Title,
				colPress:       book.Press,
				colPublishYear: book.PublishYear,
				colAuthor:      book.Author,
				colPrice:       book.Price,
				colStock:       book.Stock,
			}).
			Returning(colBookID),
		&bookID)

	if adapters.IsUniqueViolation(err) {
		return 0, library.ErrBookAlreadyExists
	}

	return bookID, err
}

func (s Service) updateStock(ctx context.Context, tx adapters.DBTx, bookID library.BookID, stock int) error {
	_, err := s.exec(ctx, tx, actionUpdateBookStock,
		s.update(s.booksTableName).
			Set(goqu.Record{colStock: stock}).
			Where(goqu.C(colBookID).Eq(int64(bookID))))

	return err
}

// checkBatchConflicts fails with library.ErrBookAlreadyExists if any natural key of books is already stored.
func (s Service) checkBatchConflicts(ctx context.Context, tx adapters.DBTx, books []library.Book) error {
	for start := 0; start < len(books); start += batchConflictCheckChunkSize {
		end := min(start+batchConflictCheckChunkSize, len(books))

		keyExpressions := make([]exp.Expression, 0, end-start)
		for _, book := range books[start:end] {
			keyExpressions = append(keyExpressions, naturalKeyExpression(book.NaturalKey()))
		}

		taken, err := s.exists(ctx, tx, actionCheckBatchConflicts,
			s.from(s.booksTableName).Where(goqu.Or(keyExpressions...)))
		if err != nil {
			return err
		}

		if taken {
			return library.ErrBookAlreadyExists
		}
	}

	return nil
}

func naturalKeyExpression(key library.NaturalKey) goqu.Ex {
	return goqu.Ex{
		colCategory:    key.Category,
		colTitle:       key.Title,
		colPress:       key.Press,
		colPublishYear: key.PublishYear,
		colAuthor:      key.Author,
	}
}

func bookColumns() []any {
	return []any{colBookID, colCategory, colTitle, colPress, colPublishYear, colAuthor, colPrice, colStock}
}

func bookScanDestinations(book *library.Book) []any {
	return []any{
		&book.ID,
		&book.Category,
		&book.Title,
		&book.Press,
		&book.PublishYear,
		&book.Author,
		&book.Price,
		&book.Stock,
	}
}

func bookSpanAttrs(bookID library.BookID) map[string]string {
	return map[string]string{spanAttrBookID: strconv.FormatInt(int64(bookID), 10)}
}
