// Package postgresengine provides the PostgreSQL implementation of the library store.
//
// Service runs every operation in its own transaction on one of the supported database adapters
// (pgx, sql.DB, sqlx). Rows that a decision depends on are read with SELECT ... FOR UPDATE,
// so concurrent borrows, returns and stock adjustments of the same book serialize on its row lock.
//
// Key features:
//   - Multiple database adapter support (PGX, SQL, SQLX), optional read replica for pgx
//   - Catalog, membership and lending operations with typed business errors (see package library)
//   - Parameterized book search built from typed predicates with deterministic ordering
//   - Configurable table names, logging, metrics and tracing
//   - Schema creation and reset
//
// Usage examples:
//
//	// Basic usage
//	db, _ := pgxpool.New(context.Background(), dsn)
//	service, _ := postgresengine.NewServiceFromPGXPool(db)
//	_ = service.EnsureSchema(ctx)
//
//	// With logging and custom table names
//	service, _ := postgresengine.NewServiceFromPGXPool(
//		db,
//		postgresengine.WithBooksTableName("books"),
//		postgresengine.WithLogger(slog.Default()),
//	)
//
//	bookID, _ := service.AddBook(ctx, library.Book{Category: "CS", Title: "Go", Press: "P", PublishYear: 2024, Author: "A", Price: 42, Stock: 1})
//	err := service.Borrow(ctx, bookID, cardID, time.Now())
package postgresengine
