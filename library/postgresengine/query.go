package postgresengine

import (
	"context"
	"fmt"
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/AntonStoeckl/library-lending-go/library"
	"github.com/AntonStoeckl/library-lending-go/library/postgresengine/internal/adapters"
)

const actionQueryBooks = "query books"

var bookFieldColumns = map[library.BookField]string{
	library.FieldID:          colBookID,
	library.FieldCategory:    colCategory,
	library.FieldTitle:       colTitle,
	library.FieldPress:       colPress,
	library.FieldPublishYear: colPublishYear,
	library.FieldAuthor:      colAuthor,
	library.FieldPrice:       colPrice,
	library.FieldStock:       colStock,
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// QueryBooks returns all books matching every predicate of query, ordered by its sort column
// and then by book id ascending.
func (s Service) QueryBooks(ctx context.Context, query library.BookQuery) ([]library.Book, error) {
	observer, ctx := s.startOperation(ctx, operationQueryBooks, map[string]string{
		"sort_column": string(query.SortColumn()),
		"sort_order":  string(query.SortOrder()),
	})

	books := make([]library.Book, 0)

	stmt, buildErr := s.buildBookQuery(query)
	if buildErr != nil {
		observer.finish(buildErr)
		return nil, buildErr
	}

	err := s.withTx(ctx, true, func(tx adapters.DBTx) error {
		return s.queryEach(ctx, tx, actionQueryBooks, stmt, func(rows adapters.DBRows) (bool, error) {
			var book library.Book
			if scanErr := rows.Scan(bookScanDestinations(&book)...); scanErr != nil {
				return false, scanErr
			}

			books = append(books, book)

			return true, nil
		})
	})

	observer.finishWithCount(err, len(books), logAttrBookCount)

	if err != nil {
		return nil, err
	}

	return books, nil
}

func (s Service) buildBookQuery(query library.BookQuery) (*goqu.SelectDataset, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	stmt := s.from(s.booksTableName).Select(bookColumns()...)

	for _, predicate := range query.Predicates() {
		expression, err := predicateExpression(predicate)
		if err != nil {
			return nil, err
		}

		stmt = stmt.Where(expression)
	}

	sortColumn := bookFieldColumns[query.SortColumn()]

	if query.SortOrder() == library.Descending {
		stmt = stmt.Order(goqu.C(sortColumn).Desc())
	} else {
		stmt = stmt.Order(goqu.C(sortColumn).Asc())
	}

	if sortColumn != colBookID {
		stmt = stmt.OrderAppend(goqu.C(colBookID).Asc())
	}

	return stmt, nil
}

// predicateExpression translates one predicate into a parameterized goqu expression.
func predicateExpression(predicate library.BookPredicate) (exp.Expression, error) {
	column, ok := bookFieldColumns[predicate.Field()]
	if !ok {
		return nil, fmt.Errorf("%w: predicate on unknown field %q", library.ErrInvalidInput, predicate.Field())
	}

	value := predicate.Value()

	switch predicate.Operator() {
	case library.OpEquals:
		return goqu.C(column).Eq(value), nil

	case library.OpContains:
		fragment, isString := value.(string)
		if !isString {
			return nil, fmt.Errorf("%w: contains predicate on %q needs a string", library.ErrInvalidInput, predicate.Field())
		}

		return goqu.C(column).Like("%" + likeEscaper.Replace(fragment) + "%"), nil

	case library.OpAtLeast:
		return goqu.C(column).Gte(value), nil

	case library.OpAtMost:
		return goqu.C(column).Lte(value), nil

	default:
		return nil, fmt.Errorf("%w: unknown predicate operator %q", library.ErrInvalidInput, predicate.Operator())
	}
}
