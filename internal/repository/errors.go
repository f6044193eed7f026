package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound covers both a missing row and a row owned by another
	// user. Callers must not be able to tell the two apart.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate maps unique-constraint violations (email, username,
	// label name).
	ErrDuplicate = errors.New("duplicate")
)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
