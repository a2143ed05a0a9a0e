// Package library provides the core types for a library's catalog, membership cards and lending ledger.
//
// This package defines the domain values (Book, Card, Borrow, HistoryItem), the typed book query
// builder, the error taxonomy and the observability contracts used by the storage engines.
// It has no database dependencies; the PostgreSQL implementation lives in package postgresengine.
//
// Key types:
//   - Book, Card, Borrow, HistoryItem: the persisted records
//   - BookQuery: typed predicates plus a sort specification for catalog searches
//   - Result: a transport-ready {ok, kind, message, payload} envelope
//
// Common usage pattern:
//
//	query := library.BuildBookQuery().
//		CategoryIs("Computer Science").
//		TitleContains("Go").
//		PriceUntil(80).
//		SortBy(library.SortByPrice, library.Descending).
//		Finalize()
//
//	books, err := service.QueryBooks(ctx, query)
//	if errors.Is(err, library.ErrInvalidInput) {
//		// handle error
//	}
package library
