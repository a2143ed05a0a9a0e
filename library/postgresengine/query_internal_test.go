package postgresengine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/library-lending-go/library"
)

func newServiceForQueryBuilding() Service {
	return Service{
		booksTableName:   defaultBooksTableName,
		cardsTableName:   defaultCardsTableName,
		borrowsTableName: defaultBorrowsTableName,
	}
}

func Test_BuildBookQuery_DefaultsToIDOrder(t *testing.T) {
	// arrange
	s := newServiceForQueryBuilding()

	// act
	stmt, err := s.buildBookQuery(library.BuildBookQuery().Finalize())
	assert.NoError(t, err)
	sqlQuery, args, err := stmt.ToSQL()

	// assert
	assert.NoError(t, err)
	assert.Contains(t, sqlQuery, `FROM "book"`)
	assert.NotContains(t, sqlQuery, "WHERE")
	assert.Contains(t, sqlQuery, `ORDER BY "book_id" ASC`)
	assert.NotContains(t, sqlQuery, `"book_id" ASC, "book_id"`)
	assert.Empty(t, args)
}

func Test_BuildBookQuery_PredicatesAreParameterized(t *testing.T) {
	// arrange
	s := newServiceForQueryBuilding()
	query := library.BuildBookQuery().
		CategoryIs("CS'; DROP TABLE book; --").
		TitleContains(`50%_off\`).
		PublishYearFrom(2000).
		PriceUntil(49.5).
		Finalize()

	// act
	stmt, err := s.buildBookQuery(query)
	assert.NoError(t, err)
	sqlQuery, args, err := stmt.ToSQL()

	// assert
	assert.NoError(t, err)
	assert.NotContains(t, sqlQuery, "DROP TABLE")
	assert.Contains(t, sqlQuery, `"category" = $1`)
	assert.Contains(t, sqlQuery, `"title" LIKE $2`)
	assert.Contains(t, sqlQuery, `"publish_year" >= $3`)
	assert.Contains(t, sqlQuery, `"price" <= $4`)
	assert.Len(t, args, 4)
	assert.Equal(t, "CS'; DROP TABLE book; --", args[0])
	assert.Equal(t, `%50\%\_off\\%`, args[1])
	assert.EqualValues(t, 2000, args[2])
	assert.EqualValues(t, 49.5, args[3])
}

func Test_BuildBookQuery_SortColumnGetsIDTieBreak(t *testing.T) {
	tests := []struct {
		name          string
		column        library.BookField
		order         library.SortOrder
		expectedOrder string
	}{
		{name: "price_desc", column: library.SortByPrice, order: library.Descending, expectedOrder: `ORDER BY "price" DESC, "book_id" ASC`},
		{name: "title_asc", column: library.SortByTitle, order: library.Ascending, expectedOrder: `ORDER BY "title" ASC, "book_id" ASC`},
		{name: "publish_year_desc", column: library.SortByPublishYear, order: library.Descending, expectedOrder: `ORDER BY "publish_year" DESC, "book_id" ASC`},
		{name: "id_desc", column: library.SortByID, order: library.Descending, expectedOrder: `ORDER BY "book_id" DESC`},
	}

	s := newServiceForQueryBuilding()

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			stmt, err := s.buildBookQuery(library.BuildBookQuery().SortBy(tc.column, tc.order).Finalize())
			assert.NoError(t, err)

			sqlQuery, _, err := stmt.ToSQL()
			assert.NoError(t, err)
			assert.Contains(t, sqlQuery, tc.expectedOrder)
		})
	}
}

func Test_BuildBookQuery_RejectsUnknownSortColumn(t *testing.T) {
	s := newServiceForQueryBuilding()

	_, err := s.buildBookQuery(library.BuildBookQuery().SortBy("isbn", library.Ascending).Finalize())

	assert.ErrorIs(t, err, library.ErrUnknownSortColumn)
	assert.Equal(t, library.KindInvalidInput, library.KindOf(err))
}

func Test_BuildBookQuery_UsesConfiguredTableName(t *testing.T) {
	s := newServiceForQueryBuilding()
	s.booksTableName = "catalog_books"

	stmt, err := s.buildBookQuery(library.BuildBookQuery().Finalize())
	assert.NoError(t, err)

	sqlQuery, _, err := stmt.ToSQL()
	assert.NoError(t, err)
	assert.Contains(t, sqlQuery, `FROM "catalog_books"`)
}

func Test_BuildHistoryQuery(t *testing.T) {
	// arrange
	s := newServiceForQueryBuilding()

	// act
	sqlQuery, args, err := s.buildHistoryQuery(library.CardID(42)).ToSQL()

	// assert
	assert.NoError(t, err)
	assert.Contains(t, sqlQuery, `FROM "borrow" AS "br"`)
	assert.Contains(t, sqlQuery, `INNER JOIN "book" AS "bk" ON ("br"."book_id" = "bk"."book_id")`)
	assert.Contains(t, sqlQuery, `WHERE ("br"."card_id" = $1)`)
	assert.Contains(t, sqlQuery, `ORDER BY "br"."borrow_time" DESC, "br"."book_id" ASC`)
	assert.Len(t, args, 1)
	assert.EqualValues(t, 42, args[0])
}

func Test_SchemaStatements_QuoteTableNames(t *testing.T) {
	s := newServiceForQueryBuilding()
	s.borrowsTableName = `loan"s`

	statements := s.createStatements()

	assert.Len(t, statements, 5)
	assert.Contains(t, statements[2], `CREATE TABLE IF NOT EXISTS "loan""s"`)
	assert.Contains(t, statements[3], `"loan""s_open_uidx"`)
	assert.Contains(t, s.dropStatements()[0], `"loan""s"`)
}
