// Package config provides PostgreSQL database configuration for library store testing.
//
// This package contains factory functions for creating database connections
// using the store's supported PostgreSQL adapters (pgx.Pool, sql.DB, sqlx.DB).
//
// The DSN is read from the environment with viper (LIBRARY_TEST_DATABASE_URL).
// When it is not set, the test suites start a PostgreSQL container and register its DSN
// with UsePostgresTestDSN before any connection is opened.
package config
