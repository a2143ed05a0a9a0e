// Package postgreswrapper creates a library store on top of the database adapter selected for a test run.
//
// The adapter is chosen with LIBRARY_TEST_ADAPTER_TYPE (or ADAPTER_TYPE):
//
//	pgx.pool (default), sql.db, sqlx.db
//
// Without LIBRARY_TEST_DATABASE_URL, RunWithDatabase starts a PostgreSQL container for the test binary.
package postgreswrapper
