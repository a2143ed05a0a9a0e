// Package helper provides fixtures, spies and database setup shared by the library store tests.
package helper
