// Package adapters provide database adapter implementations for the PostgreSQL library store.
//
// This package implements the adapter pattern to support multiple PostgreSQL database libraries:
// pgx.Pool, sql.DB, and sqlx.DB. Every store operation runs inside one transaction, so the common
// DBAdapter interface only begins transactions; statements are executed on the returned DBTx.
//
// The adapters also hide the driver-specific error types, see IsUniqueViolation.
package adapters
