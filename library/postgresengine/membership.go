package postgresengine

import (
	"context"
	"strconv"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/AntonStoeckl/library-lending-go/library"
	"github.com/AntonStoeckl/library-lending-go/library/postgresengine/internal/adapters"
)

const (
	actionLockCard             = "lock card"
	actionCheckCardNaturalKey  = "check card natural key"
	actionInsertCard           = "insert card"
	actionUpdateCardInfo       = "update card info"
	actionCheckCardOpenBorrows = "check open borrows of card"
	actionDeleteCard           = "delete card"
	actionListCards            = "list cards"
)

// RegisterCard inserts a new card and returns its assigned id.
//
// It fails with library.ErrInvalidInput for an empty name or unknown type
// and with library.ErrCardAlreadyExists if a card with the same name, department and type exists.
func (s Service) RegisterCard(ctx context.Context, card library.Card) (library.CardID, error) {
	observer, ctx := s.startOperation(ctx, operationRegisterCard, nil)

	if err := card.Validate(); err != nil {
		observer.finish(err)
		return 0, err
	}

	var cardID library.CardID

	err := s.withTx(ctx, false, func(tx adapters.DBTx) error {
		taken, checkErr := s.exists(ctx, tx, actionCheckCardNaturalKey,
			s.from(s.cardsTableName).Where(cardKeyExpression(card)))
		if checkErr != nil {
			return checkErr
		}

		if taken {
			return library.ErrCardAlreadyExists
		}

		_, insertErr := s.queryFirst(ctx, tx, actionInsertCard,
			s.insertInto(s.cardsTableName).
				Rows(goqu.Record{
					colName:       card.Name,
					colDepartment: card.Department,
					colType:       card.Type.String(),
				}).
				Returning(colCardID),
			&cardID)

		if adapters.IsUniqueViolation(insertErr) {
			return library.ErrCardAlreadyExists
		}

		return insertErr
	})

	observer.finish(err, logAttrCardID, cardID)

	if err != nil {
		return 0, err
	}

	return cardID, nil
}

// ModifyCardInfo overwrites name, department and type of the card identified by card.ID.
//
// It fails with library.ErrCardNotFound and with library.ErrCardAlreadyExists if another card already has the new values.
func (s Service) ModifyCardInfo(ctx context.Context, card library.Card) error {
	observer, ctx := s.startOperation(ctx, operationModifyCardInfo, cardSpanAttrs(card.ID))

	if err := card.Validate(); err != nil {
		observer.finish(err, logAttrCardID, card.ID)
		return err
	}

	err := s.withTx(ctx, false, func(tx adapters.DBTx) error {
		found, lockErr := s.lockCard(ctx, tx, card.ID, true)
		if lockErr != nil {
			return lockErr
		}

		if !found {
			return library.ErrCardNotFound
		}

		taken, checkErr := s.exists(ctx, tx, actionCheckCardNaturalKey,
			s.from(s.cardsTableName).Where(
				cardKeyExpression(card),
				goqu.C(colCardID).Neq(int64(card.ID)),
			))
		if checkErr != nil {
			return checkErr
		}

		if taken {
			return library.ErrCardAlreadyExists
		}

		_, updateErr := s.exec(ctx, tx, actionUpdateCardInfo,
			s.update(s.cardsTableName).
				Set(goqu.Record{
					colName:       card.Name,
					colDepartment: card.Department,
					colType:       card.Type.String(),
				}).
				Where(goqu.C(colCardID).Eq(int64(card.ID))))

		if adapters.IsUniqueViolation(updateErr) {
			return library.ErrCardAlreadyExists
		}

		return updateErr
	})

	observer.finish(err, logAttrCardID, card.ID)

	return err
}

// RemoveCard deletes a card.
//
// It fails with library.ErrCardHasOpenBorrows while the card holds unreturned books and with library.ErrCardNotFound.
// The card row is locked first, so a concurrent Borrow either completes before the check or finds no card.
func (s Service) RemoveCard(ctx context.Context, cardID library.CardID) error {
	observer, ctx := s.startOperation(ctx, operationRemoveCard, cardSpanAttrs(cardID))

	err := s.withTx(ctx, false, func(tx adapters.DBTx) error {
		found, lockErr := s.lockCard(ctx, tx, cardID, true)
		if lockErr != nil {
			return lockErr
		}

		borrowing, checkErr := s.exists(ctx, tx, actionCheckCardOpenBorrows,
			s.from(s.borrowsTableName).Where(
				goqu.C(colCardID).Eq(int64(cardID)),
				goqu.C(colReturnTime).IsNull(),
			))
		if checkErr != nil {
			return checkErr
		}

		if borrowing {
			return library.ErrCardHasOpenBorrows
		}

		if !found {
			return library.ErrCardNotFound
		}

		_, deleteErr := s.exec(ctx, tx, actionDeleteCard,
			s.deleteFrom(s.cardsTableName).Where(goqu.C(colCardID).Eq(int64(cardID))))

		return deleteErr
	})

	observer.finish(err, logAttrCardID, cardID)

	return err
}

// ListCards returns all cards ordered by id.
func (s Service) ListCards(ctx context.Context) ([]library.Card, error) {
	observer, ctx := s.startOperation(ctx, operationListCards, nil)

	cards := make([]library.Card, 0)

	err := s.withTx(ctx, true, func(tx adapters.DBTx) error {
		return s.queryEach(ctx, tx, actionListCards,
			s.from(s.cardsTableName).
				Select(colCardID, colName, colDepartment, colType).
				Order(goqu.C(colCardID).Asc()),
			func(rows adapters.DBRows) (bool, error) {
				var card library.Card
				if scanErr := rows.Scan(&card.ID, &card.Name, &card.Department, &card.Type); scanErr != nil {
					return false, scanErr
				}

				cards = append(cards, card)

				return true, nil
			})
	})

	observer.finishWithCount(err, len(cards), logAttrCardCount)

	if err != nil {
		return nil, err
	}

	return cards, nil
}

// lockCard checks that a card exists and locks its row, exclusively or shared.
func (s Service) lockCard(ctx context.Context, tx adapters.DBTx, cardID library.CardID, exclusive bool) (bool, error) {
	stmt := s.from(s.cardsTableName).
		Select(colCardID).
		Where(goqu.C(colCardID).Eq(int64(cardID)))

	if exclusive {
		stmt = stmt.ForUpdate(exp.Wait)
	} else {
		stmt = stmt.ForShare(exp.Wait)
	}

	var lockedID library.CardID

	return s.queryFirst(ctx, tx, actionLockCard, stmt, &lockedID)
}

func cardKeyExpression(card library.Card) goqu.Ex {
	return goqu.Ex{
		colName:       card.Name,
		colDepartment: card.Department,
		colType:       card.Type.String(),
	}
}

func cardSpanAttrs(cardID library.CardID) map[string]string {
	return map[string]string{spanAttrCardID: strconv.FormatInt(int64(cardID), 10)}
}
