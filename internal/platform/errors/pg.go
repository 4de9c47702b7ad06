package errors

// Postgres helpers: SQLSTATE classification and retry semantics for the
// contention cases the resolution path relies on

import (
	"context"
	stderrs "errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgErrUniqueViolation     = "23505"
	pgErrForeignKeyViolation = "23503"
	pgErrNotNullViolation    = "23502"
	pgErrCheckViolation      = "23514"
	pgErrInvalidText         = "22P02"

	pgErrSerializationFailure = "40001"
	pgErrDeadlockDetected     = "40P01"
	pgErrLockNotAvailable     = "55P03"
	pgErrReadOnlyTx           = "25006"
	pgErrCannotConnectNow     = "57P03"
)

// ExtractPgError returns (*pgconn.PgError, true) if the chain carries a PgError
func ExtractPgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if stderrs.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

// IsSQLState reports whether the error is a Postgres error with the given SQLSTATE code
func IsSQLState(err error, code string) bool {
	pgErr, ok := ExtractPgError(err)
	return ok && pgErr.Code == code
}

// IsDuplicateKey reports a unique constraint violation
func IsDuplicateKey(err error) bool { return IsSQLState(err, pgErrUniqueViolation) }

// IsForeignKeyViolation reports a foreign key violation
func IsForeignKeyViolation(err error) bool { return IsSQLState(err, pgErrForeignKeyViolation) }

// IsCheckViolation reports a check constraint violation
func IsCheckViolation(err error) bool { return IsSQLState(err, pgErrCheckViolation) }

// IsSerializationFailure reports a serialization failure
func IsSerializationFailure(err error) bool { return IsSQLState(err, pgErrSerializationFailure) }

// IsDeadlock reports a detected deadlock
func IsDeadlock(err error) bool { return IsSQLState(err, pgErrDeadlockDetected) }

// IsNoRows reports pgx.ErrNoRows anywhere in the chain
func IsNoRows(err error) bool { return stderrs.Is(err, pgx.ErrNoRows) }

// DBErrorCode maps a Postgres error to an ErrorCode; !ok means err was not a PgError
func DBErrorCode(err error) (ErrorCode, bool) {
	pgErr, ok := ExtractPgError(err)
	if !ok {
		return ErrorCodeUnknown, false
	}
	switch pgErr.Code {
	case pgErrUniqueViolation:
		return ErrorCodeDuplicateKey, true
	case pgErrForeignKeyViolation:
		return ErrorCodeIntegrity, true
	case pgErrNotNullViolation, pgErrCheckViolation:
		return ErrorCodeValidation, true
	case pgErrInvalidText:
		return ErrorCodeInvalidArgument, true
	case pgErrReadOnlyTx, pgErrCannotConnectNow:
		return ErrorCodeUnavailable, true
	}
	return ErrorCodeDB, true
}

// FromPostgres wraps a pg error with a mapped ErrorCode. nil stays nil and
// pgx.ErrNoRows becomes NotFound
func FromPostgres(err error, msg string) error {
	if err == nil {
		return nil
	}
	if IsNoRows(err) {
		return Wrap(err, ErrorCodeNotFound, msg)
	}
	if code, ok := DBErrorCode(err); ok {
		return Wrap(err, code, msg)
	}
	return Wrap(err, ErrorCodeDB, msg)
}

// FromPostgresf is the formatted variant of FromPostgres
func FromPostgresf(err error, format string, a ...any) error {
	if err == nil {
		return nil
	}
	return FromPostgres(err, fmt.Sprintf(format, a...))
}

// IsRetryable reports whether a database error is transient contention worth
// replaying the whole transaction for. Local cancellation is never retryable
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if stderrs.Is(err, context.Canceled) || stderrs.Is(err, context.DeadlineExceeded) {
		return false
	}
	if pgErr, ok := ExtractPgError(err); ok {
		switch pgErr.Code {
		case pgErrSerializationFailure, pgErrDeadlockDetected, pgErrLockNotAvailable:
			return true
		}
		return false
	}

	// pgx reports some aborts only as text on commit
	s := strings.ToLower(Root(err).Error())
	switch {
	case strings.Contains(s, "commit unexpectedly resulted in rollback"),
		strings.Contains(s, "deadlock detected"),
		strings.Contains(s, "could not serialize access"),
		strings.Contains(s, "canceling statement due to lock timeout"):
		return true
	}
	return false
}
