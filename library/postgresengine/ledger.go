package postgresengine

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/AntonStoeckl/library-lending-go/library"
	"github.com/AntonStoeckl/library-lending-go/library/postgresengine/internal/adapters"
)

const (
	actionCheckOpenBorrow = "check open borrow"
	actionLockOpenBorrow  = "lock open borrow"
	actionInsertBorrow    = "insert borrow"
	actionCloseBorrow     = "close borrow"
	actionHistory         = "borrow history"
)

// Borrow lends one copy of a book to a card at borrowTime.
//
// The book row stays locked until commit, so concurrent borrows of the last copy serialize and at most one succeeds.
// Checks run in this order: library.ErrBookNotFound, library.ErrOutOfStock, library.ErrCardNotFound, library.ErrAlreadyBorrowed.
// borrowTime is stored with millisecond precision.
func (s Service) Borrow(ctx context.Context, bookID library.BookID, cardID library.CardID, borrowTime time.Time) error {
	observer, ctx := s.startOperation(ctx, operationBorrow, borrowSpanAttrs(bookID, cardID))

	if borrowTime.IsZero() {
		observer.finish(library.ErrMissingTimestamp, logAttrBookID, bookID, logAttrCardID, cardID)
		return library.ErrMissingTimestamp
	}

	err := s.withTx(ctx, false, func(tx adapters.DBTx) error {
		book, found, lockErr := s.lockBook(ctx, tx, bookID)
		if lockErr != nil {
			return lockErr
		}

		if !found {
			return library.ErrBookNotFound
		}

		if book.Stock <= 0 {
			return library.ErrOutOfStock
		}

		cardFound, cardErr := s.lockCard(ctx, tx, cardID, false)
		if cardErr != nil {
			return cardErr
		}

		if !cardFound {
			return library.ErrCardNotFound
		}

		borrowing, checkErr := s.exists(ctx, tx, actionCheckOpenBorrow,
			s.from(s.borrowsTableName).Where(openBorrowExpression(bookID, cardID)))
		if checkErr != nil {
			return checkErr
		}

		if borrowing {
			return library.ErrAlreadyBorrowed
		}

		_, insertErr := s.exec(ctx, tx, actionInsertBorrow,
			s.insertInto(s.borrowsTableName).Rows(goqu.Record{
				colCardID:     int64(cardID),
				colBookID:     int64(bookID),
				colBorrowTime: library.ToMillis(borrowTime),
			}))

		if adapters.IsUniqueViolation(insertErr) {
			return library.ErrAlreadyBorrowed
		}

		if insertErr != nil {
			return insertErr
		}

		return s.updateStock(ctx, tx, bookID, book.Stock-1)
	})

	observer.finish(err, logAttrBookID, bookID, logAttrCardID, cardID)

	return err
}

// Return closes the open borrow of a book by a card at returnTime and puts the copy back into stock.
//
// It fails with library.ErrBorrowNotFound if there is no open borrow
// and with library.ErrInvalidReturnTime unless returnTime is after the borrow time.
func (s Service) Return(ctx context.Context, bookID library.BookID, cardID library.CardID, returnTime time.Time) error {
	observer, ctx := s.startOperation(ctx, operationReturn, borrowSpanAttrs(bookID, cardID))

	if returnTime.IsZero() {
		observer.finish(library.ErrMissingTimestamp, logAttrBookID, bookID, logAttrCardID, cardID)
		return library.ErrMissingTimestamp
	}

	err := s.withTx(ctx, false, func(tx adapters.DBTx) error {
		// Books with open borrows cannot be removed, so a missing book means there is nothing to return.
		book, bookFound, lockErr := s.lockBook(ctx, tx, bookID)
		if lockErr != nil {
			return lockErr
		}

		if !bookFound {
			return library.ErrBorrowNotFound
		}

		var borrowMillis int64

		borrowFound, borrowErr := s.queryFirst(ctx, tx, actionLockOpenBorrow,
			s.from(s.borrowsTableName).
				Select(colBorrowTime).
				Where(openBorrowExpression(bookID, cardID)).
				ForUpdate(exp.Wait),
			&borrowMillis)
		if borrowErr != nil {
			return borrowErr
		}

		if !borrowFound {
			return library.ErrBorrowNotFound
		}

		returnMillis := library.ToMillis(returnTime)
		if returnMillis <= borrowMillis {
			return library.ErrInvalidReturnTime
		}

		closed, closeErr := s.exec(ctx, tx, actionCloseBorrow,
			s.update(s.borrowsTableName).
				Set(goqu.Record{colReturnTime: returnMillis}).
				Where(
					goqu.C(colCardID).Eq(int64(cardID)),
					goqu.C(colBookID).Eq(int64(bookID)),
					goqu.C(colBorrowTime).Eq(borrowMillis),
					goqu.C(colReturnTime).IsNull(),
				))
		if closeErr != nil {
			return closeErr
		}

		if closed != 1 {
			return library.ErrBorrowNotFound
		}

		return s.updateStock(ctx, tx, bookID, book.Stock+1)
	})

	observer.finish(err, logAttrBookID, bookID, logAttrCardID, cardID)

	return err
}

// History returns all borrows of a card, open and closed, newest first and by book id within the same borrow time.
// Borrows of books that were removed from the catalog are not included.
func (s Service) History(ctx context.Context, cardID library.CardID) ([]library.HistoryItem, error) {
	observer, ctx := s.startOperation(ctx, operationHistory, cardSpanAttrs(cardID))

	items := make([]library.HistoryItem, 0)

	err := s.withTx(ctx, true, func(tx adapters.DBTx) error {
		return s.queryEach(ctx, tx, actionHistory, s.buildHistoryQuery(cardID),
			func(rows adapters.DBRows) (bool, error) {
				item, scanErr := scanHistoryItem(rows)
				if scanErr != nil {
					return false, scanErr
				}

				items = append(items, item)

				return true, nil
			})
	})

	observer.finishWithCount(err, len(items), logAttrItemCount)

	if err != nil {
		return nil, err
	}

	return items, nil
}

func (s Service) buildHistoryQuery(cardID library.CardID) *goqu.SelectDataset {
	br := func(col string) exp.IdentifierExpression { return goqu.T(aliasBorrow).Col(col) }
	bk := func(col string) exp.IdentifierExpression { return goqu.T(aliasBook).Col(col) }

	return s.from(goqu.T(s.borrowsTableName).As(aliasBorrow)).
		Join(
			goqu.T(s.booksTableName).As(aliasBook),
			goqu.On(br(colBookID).Eq(bk(colBookID))),
		).
		Select(
			br(colCardID),
			br(colBookID),
			br(colBorrowTime),
			br(colReturnTime),
			bk(colCategory),
			bk(colTitle),
			bk(colPress),
			bk(colPublishYear),
			bk(colAuthor),
			bk(colPrice),
			bk(colStock),
		).
		Where(br(colCardID).Eq(int64(cardID))).
		Order(br(colBorrowTime).Desc(), br(colBookID).Asc())
}

func scanHistoryItem(rows adapters.DBRows) (library.HistoryItem, error) {
	var item library.HistoryItem
	var borrowMillis int64
	var returnMillis sql.NullInt64

	err := rows.Scan(
		&item.CardID,
		&item.BookID,
		&borrowMillis,
		&returnMillis,
		&item.Book.Category,
		&item.Book.Title,
		&item.Book.Press,
		&item.Book.PublishYear,
		&item.Book.Author,
		&item.Book.Price,
		&item.Book.Stock,
	)
	if err != nil {
		return library.HistoryItem{}, err
	}

	item.Book.ID = item.BookID
	item.BorrowTime = library.FromMillis(borrowMillis)

	if returnMillis.Valid {
		item.ReturnTime = library.FromMillis(returnMillis.Int64)
	}

	return item, nil
}

func openBorrowExpression(bookID library.BookID, cardID library.CardID) exp.ExpressionList {
	return goqu.And(
		goqu.C(colCardID).Eq(int64(cardID)),
		goqu.C(colBookID).Eq(int64(bookID)),
		goqu.C(colReturnTime).IsNull(),
	)
}

func borrowSpanAttrs(bookID library.BookID, cardID library.CardID) map[string]string {
	return map[string]string{
		spanAttrBookID: fmt.Sprintf("%d", bookID),
		spanAttrCardID: fmt.Sprintf("%d", cardID),
	}
}
