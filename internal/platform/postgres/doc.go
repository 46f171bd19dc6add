// Package postgres implements the store interfaces on PostgreSQL through
// database/sql and the pgx stdlib driver, and carries the embedded goose
// migrations for the schema those stores use.
package postgres
