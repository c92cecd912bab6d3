// Package store is the sole gateway to persistent state. Every other
// component reads and mutates the database through it; it has no knowledge
// of HTTP. Multi-statement operations on the review path run as single
// transactions.
package store

import (
	stdsql "database/sql"
	"errors"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/kotoba-lab/sensei/pkg/database"
)

var (
	// ErrNotFound is returned when no entity matches the given key.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an insert violates a unique constraint,
	// e.g. a second memory card for the same (item_type, item_id) pair.
	ErrDuplicate = errors.New("entity already exists")
)

// Store provides typed operations over the relational database.
type Store struct {
	db *stdsql.DB
}

// New creates a Store over an open database client.
func New(client *database.Client) *Store {
	return &Store{db: client.DB()}
}

// builder returns a Postgres-dialect SQL builder for dynamic queries.
func builder() *sql.DialectBuilder {
	return sql.Dialect(dialect.Postgres)
}

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
