// Package testdb opens PostgreSQL connections for integration tests and
// isolates each test in a transaction that is always rolled back.
package testdb
