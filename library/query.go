package library

import (
	"strings"
)

/***** BookPredicate *****/

// BookField names the book attribute a predicate or sort applies to.
type BookField string

const (
	FieldID          BookField = "id"
	FieldCategory    BookField = "category"
	FieldTitle       BookField = "title"
	FieldPress       BookField = "press"
	FieldPublishYear BookField = "publish_year"
	FieldAuthor      BookField = "author"
	FieldPrice       BookField = "price"
	FieldStock       BookField = "stock"
)

// PredicateOperator is the comparison a BookPredicate performs.
type PredicateOperator string

const (
	OpEquals   PredicateOperator = "eq"
	OpContains PredicateOperator = "contains"
	OpAtLeast  PredicateOperator = "gte"
	OpAtMost   PredicateOperator = "lte"
)

// BookPredicate is one typed condition of a BookQuery. Predicates are combined with AND.
type BookPredicate struct {
	field    BookField
	operator PredicateOperator
	value    any
}

func (p BookPredicate) Field() BookField {
	return p.field
}

func (p BookPredicate) Operator() PredicateOperator {
	return p.operator
}

// Value is a string for OpEquals and OpContains, an int for publish year bounds and a float64 for price bounds.
func (p BookPredicate) Value() any {
	return p.value
}

/***** Sorting *****/

// SortOrder is the direction of the primary sort column.
type SortOrder string

const (
	Ascending  SortOrder = "asc"
	Descending SortOrder = "desc"
)

// Sort columns accepted by SortBy.
const (
	SortByID          = FieldID
	SortByCategory    = FieldCategory
	SortByTitle       = FieldTitle
	SortByPress       = FieldPress
	SortByPublishYear = FieldPublishYear
	SortByAuthor      = FieldAuthor
	SortByPrice       = FieldPrice
	SortByStock       = FieldStock
)

var sortableFields = []BookField{
	FieldID, FieldCategory, FieldTitle, FieldPress, FieldPublishYear, FieldAuthor, FieldPrice, FieldStock,
}

// ParseSortColumn accepts the field names plus "book_id" and "publishYear".
func ParseSortColumn(s string) (BookField, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))

	switch normalized {
	case "", "book_id":
		return FieldID, nil
	case "publishyear":
		return FieldPublishYear, nil
	}

	for _, field := range sortableFields {
		if string(field) == normalized {
			return field, nil
		}
	}

	return "", ErrUnknownSortColumn
}

// ParseSortOrder accepts "asc", "desc" and their long forms, case-insensitive. Empty means Ascending.
func ParseSortOrder(s string) (SortOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "asc", "ascending":
		return Ascending, nil
	case "desc", "descending":
		return Descending, nil
	default:
		return "", ErrUnknownSortOrder
	}
}

/***** BookQuery *****/

// BookQuery selects books by a conjunction of predicates, ordered by one column plus the book id as tie-breaker.
// The zero value matches the whole catalog in id order.
type BookQuery struct {
	predicates []BookPredicate
	sortColumn BookField
	sortOrder  SortOrder
}

func (q BookQuery) Predicates() []BookPredicate {
	return q.predicates
}

// SortColumn defaults to FieldID.
func (q BookQuery) SortColumn() BookField {
	if q.sortColumn == "" {
		return FieldID
	}

	return q.sortColumn
}

// SortOrder defaults to Ascending.
func (q BookQuery) SortOrder() SortOrder {
	if q.sortOrder == "" {
		return Ascending
	}

	return q.sortOrder
}

// Validate rejects sort specifications that were not built from the exported constants.
func (q BookQuery) Validate() error {
	column := q.SortColumn()
	known := false

	for _, field := range sortableFields {
		if field == column {
			known = true
			break
		}
	}

	if !known {
		return ErrUnknownSortColumn
	}

	if order := q.SortOrder(); order != Ascending && order != Descending {
		return ErrUnknownSortOrder
	}

	return nil
}

/***** BookQueryBuilder *****/

// BookQueryBuilder collects predicates and a sort specification.
//
// String predicates with an empty value are ignored, so optional search form fields can be passed through unchecked.
// Calling the same predicate twice adds both conditions.
type BookQueryBuilder interface {
	// CategoryIs matches the category exactly.
	CategoryIs(category string) BookQueryBuilder

	// TitleContains, PressContains and AuthorContains match a case-sensitive substring.
	TitleContains(fragment string) BookQueryBuilder
	PressContains(fragment string) BookQueryBuilder
	AuthorContains(fragment string) BookQueryBuilder

	// PublishYearFrom and PublishYearUntil are inclusive bounds.
	PublishYearFrom(year int) BookQueryBuilder
	PublishYearUntil(year int) BookQueryBuilder

	// PriceFrom and PriceUntil are inclusive bounds.
	PriceFrom(price float64) BookQueryBuilder
	PriceUntil(price float64) BookQueryBuilder

	// SortBy sets the primary sort column and its direction.
	SortBy(column BookField, order SortOrder) BookQueryBuilder

	Finalize() BookQuery
}

type bookQueryBuilder struct {
	query BookQuery
}

// BuildBookQuery creates a BookQueryBuilder which must eventually be finalized with Finalize().
func BuildBookQuery() BookQueryBuilder {
	return bookQueryBuilder{}
}

func (b bookQueryBuilder) CategoryIs(category string) BookQueryBuilder {
	return b.withString(FieldCategory, OpEquals, category)
}

func (b bookQueryBuilder) TitleContains(fragment string) BookQueryBuilder {
	return b.withString(FieldTitle, OpContains, fragment)
}

func (b bookQueryBuilder) PressContains(fragment string) BookQueryBuilder {
	return b.withString(FieldPress, OpContains, fragment)
}

func (b bookQueryBuilder) AuthorContains(fragment string) BookQueryBuilder {
	return b.withString(FieldAuthor, OpContains, fragment)
}

func (b bookQueryBuilder) PublishYearFrom(year int) BookQueryBuilder {
	return b.with(BookPredicate{field: FieldPublishYear, operator: OpAtLeast, value: year})
}

func (b bookQueryBuilder) PublishYearUntil(year int) BookQueryBuilder {
	return b.with(BookPredicate{field: FieldPublishYear, operator: OpAtMost, value: year})
}

func (b bookQueryBuilder) PriceFrom(price float64) BookQueryBuilder {
	return b.with(BookPredicate{field: FieldPrice, operator: OpAtLeast, value: price})
}

func (b bookQueryBuilder) PriceUntil(price float64) BookQueryBuilder {
	return b.with(BookPredicate{field: FieldPrice, operator: OpAtMost, value: price})
}

func (b bookQueryBuilder) SortBy(column BookField, order SortOrder) BookQueryBuilder {
	b.query.sortColumn = column
	b.query.sortOrder = order

	return b
}

func (b bookQueryBuilder) Finalize() BookQuery {
	return b.query
}

func (b bookQueryBuilder) withString(field BookField, operator PredicateOperator, value string) BookQueryBuilder {
	if value == "" {
		return b
	}

	return b.with(BookPredicate{field: field, operator: operator, value: value})
}

// with copies the predicate slice so builders derived from the same parent do not share a backing array.
func (b bookQueryBuilder) with(predicate BookPredicate) BookQueryBuilder {
	predicates := make([]BookPredicate, 0, len(b.query.predicates)+1)
	predicates = append(predicates, b.query.predicates...)
	b.query.predicates = append(predicates, predicate)

	return b
}
