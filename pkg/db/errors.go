package db

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgCodeLockNotAvailable    = "55P03"
	pgCodeQueryCanceled       = "57014"
	pgCodeSerializationFailed = "40001"
	pgCodeDeadlockDetected    = "40P01"
)

// IsUniqueViolation reports whether the provided error references a Postgres
// unique violation constraint. When constraintName is provided, the helper looks
// for the constraint text in the error message.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	if constraintName != "" {
		return strings.Contains(msg, constraintName)
	}
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

// IsTimeout reports whether the error means the transaction exceeded a lock
// wait or overall deadline and the caller may retry.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgCodeLockNotAvailable, pgCodeQueryCanceled,
			pgCodeSerializationFailed, pgCodeDeadlockDetected:
			return true
		}
	}
	return false
}
