package library_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/library-lending-go/library"
)

//nolint:funlen
func Test_BookQueryBuilder_ValidCombinations(t *testing.T) {
	tests := []struct {
		name     string
		build    func() library.BookQuery
		validate func(t *testing.T, q library.BookQuery)
	}{
		{
			name: "empty_query_matches_everything_in_id_order",
			build: func() library.BookQuery {
				return library.BuildBookQuery().Finalize()
			},
			validate: func(t *testing.T, q library.BookQuery) {
				assert.Empty(t, q.Predicates())
				assert.Equal(t, library.FieldID, q.SortColumn())
				assert.Equal(t, library.Ascending, q.SortOrder())
			},
		},
		{
			name: "zero_value_query_has_defaults",
			build: func() library.BookQuery {
				return library.BookQuery{}
			},
			validate: func(t *testing.T, q library.BookQuery) {
				assert.Equal(t, library.FieldID, q.SortColumn())
				assert.Equal(t, library.Ascending, q.SortOrder())
				assert.NoError(t, q.Validate())
			},
		},
		{
			name: "category_equals",
			build: func() library.BookQuery {
				return library.BuildBookQuery().CategoryIs("Computer Science").Finalize()
			},
			validate: func(t *testing.T, q library.BookQuery) {
				assert.Len(t, q.Predicates(), 1)
				assert.Equal(t, library.FieldCategory, q.Predicates()[0].Field())
				assert.Equal(t, library.OpEquals, q.Predicates()[0].Operator())
				assert.Equal(t, "Computer Science", q.Predicates()[0].Value())
			},
		},
		{
			name: "substring_predicates",
			build: func() library.BookQuery {
				return library.BuildBookQuery().
					TitleContains("Go").
					PressContains("Reilly").
					AuthorContains("Pike").
					Finalize()
			},
			validate: func(t *testing.T, q library.BookQuery) {
				assert.Len(t, q.Predicates(), 3)

				for i, field := range []library.BookField{library.FieldTitle, library.FieldPress, library.FieldAuthor} {
					assert.Equal(t, field, q.Predicates()[i].Field())
					assert.Equal(t, library.OpContains, q.Predicates()[i].Operator())
				}
			},
		},
		{
			name: "inclusive_ranges",
			build: func() library.BookQuery {
				return library.BuildBookQuery().
					PublishYearFrom(2000).
					PublishYearUntil(2010).
					PriceFrom(10).
					PriceUntil(49.99).
					Finalize()
			},
			validate: func(t *testing.T, q library.BookQuery) {
				assert.Len(t, q.Predicates(), 4)
				assert.Equal(t, library.OpAtLeast, q.Predicates()[0].Operator())
				assert.Equal(t, 2000, q.Predicates()[0].Value())
				assert.Equal(t, library.OpAtMost, q.Predicates()[1].Operator())
				assert.Equal(t, library.FieldPrice, q.Predicates()[2].Field())
				assert.Equal(t, 10.0, q.Predicates()[2].Value())
				assert.Equal(t, 49.99, q.Predicates()[3].Value())
			},
		},
		{
			name: "empty_strings_are_ignored",
			build: func() library.BookQuery {
				return library.BuildBookQuery().
					CategoryIs("").
					TitleContains("").
					PressContains("").
					AuthorContains("").
					Finalize()
			},
			validate: func(t *testing.T, q library.BookQuery) {
				assert.Empty(t, q.Predicates())
			},
		},
		{
			name: "sort_by_price_descending",
			build: func() library.BookQuery {
				return library.BuildBookQuery().SortBy(library.SortByPrice, library.Descending).Finalize()
			},
			validate: func(t *testing.T, q library.BookQuery) {
				assert.Equal(t, library.FieldPrice, q.SortColumn())
				assert.Equal(t, library.Descending, q.SortOrder())
				assert.NoError(t, q.Validate())
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.validate(t, tc.build())
		})
	}
}

func Test_BookQueryBuilder_DerivedBuildersDoNotShareState(t *testing.T) {
	// arrange
	base := library.BuildBookQuery().CategoryIs("CS").PriceFrom(1)

	// act
	first := base.TitleContains("first").Finalize()
	second := base.TitleContains("second").Finalize()

	// assert
	assert.Len(t, first.Predicates(), 3)
	assert.Len(t, second.Predicates(), 3)
	assert.Equal(t, "first", first.Predicates()[2].Value())
	assert.Equal(t, "second", second.Predicates()[2].Value())
}

func Test_BookQuery_Validate_RejectsUnknownSort(t *testing.T) {
	unknownColumn := library.BuildBookQuery().SortBy("isbn", library.Ascending).Finalize()
	assert.ErrorIs(t, unknownColumn.Validate(), library.ErrUnknownSortColumn)

	unknownOrder := library.BuildBookQuery().SortBy(library.SortByTitle, "sideways").Finalize()
	assert.ErrorIs(t, unknownOrder.Validate(), library.ErrUnknownSortOrder)
}

func Test_ParseSortColumn(t *testing.T) {
	tests := []struct {
		input    string
		expected library.BookField
	}{
		{input: "", expected: library.FieldID},
		{input: "book_id", expected: library.FieldID},
		{input: "id", expected: library.FieldID},
		{input: "Title", expected: library.FieldTitle},
		{input: "publishYear", expected: library.FieldPublishYear},
		{input: "publish_year", expected: library.FieldPublishYear},
		{input: " price ", expected: library.FieldPrice},
		{input: "stock", expected: library.FieldStock},
	}

	for _, tc := range tests {
		t.Run("input_"+tc.input, func(t *testing.T) {
			column, err := library.ParseSortColumn(tc.input)

			assert.NoError(t, err)
			assert.Equal(t, tc.expected, column)
		})
	}

	_, err := library.ParseSortColumn("isbn")
	assert.ErrorIs(t, err, library.ErrUnknownSortColumn)
}

func Test_ParseSortOrder(t *testing.T) {
	for input, expected := range map[string]library.SortOrder{
		"":           library.Ascending,
		"asc":        library.Ascending,
		"ASCENDING":  library.Ascending,
		"desc":       library.Descending,
		"Descending": library.Descending,
	} {
		order, err := library.ParseSortOrder(input)

		assert.NoError(t, err, input)
		assert.Equal(t, expected, order, input)
	}

	_, err := library.ParseSortOrder("random")
	assert.ErrorIs(t, err, library.ErrUnknownSortOrder)
}
