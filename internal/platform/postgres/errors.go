// Package postgres provides PostgreSQL-backed implementations of the
// store interfaces.
package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL error codes we branch on.
const (
	uniqueViolationCode     = "23505" // duplicate key
	undefinedTableCode      = "42P01" // relation does not exist
	featureNotSupportedCode = "0A000" // e.g. REFRESH CONCURRENTLY without a unique index
	objectInUseCode         = "55006" // view locked by another refresh
)

// isUniqueViolation checks if the error is a unique constraint violation,
// used to detect idempotency-key conflicts and duplicate cards.
func isUniqueViolation(err error) bool {
	return hasPgCode(err, uniqueViolationCode)
}

// isUndefinedTable checks if the error means the relation does not exist.
func isUndefinedTable(err error) bool {
	return hasPgCode(err, undefinedTableCode)
}

// isConcurrentRefreshUnsupported checks if a CONCURRENTLY refresh failed
// because the view lacks the required unique index or is already locked.
// Callers fall back to an exclusive refresh in that case.
func isConcurrentRefreshUnsupported(err error) bool {
	return hasPgCode(err, featureNotSupportedCode) || hasPgCode(err, objectInUseCode)
}

func hasPgCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
