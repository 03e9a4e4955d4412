// Package postgres implements the internal/store interfaces on PostgreSQL
// through database/sql and the pgx stdlib driver. It also carries the
// embedded goose migrations that create the schema.
package postgres
