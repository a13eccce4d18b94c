package db

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres error codes this service distinguishes between. Everything else is
// treated as opaque.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
	codeInvalidEnumInput    = "22P02"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func IsUniqueViolation(err error) bool {
	return pgCode(err) == codeUniqueViolation
}

func IsForeignKeyViolation(err error) bool {
	return pgCode(err) == codeForeignKeyViolation
}

// IsValueRejection reports whether the database rejected a literal value
// (check constraint or enum input), as opposed to a structural failure such
// as a missing foreign key. The trip join negotiation only advances past a
// candidate status on this class of error.
func IsValueRejection(err error) bool {
	code := pgCode(err)
	return code == codeCheckViolation || code == codeInvalidEnumInput
}
