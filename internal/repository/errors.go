package repository

import (
	"errors"
	"fmt"

	"github.com/DriveNow-Rental/service-booking/pkg/domain"
	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres SQLSTATE codes surfaced to callers as conflicts.
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgUniqueViolation      = "23505"
)

// translateError maps driver errors onto the domain taxonomy. AppErrors pass
// through unchanged; anything unrecognized is wrapped with op.
func translateError(err error, op string) error {
	if err == nil {
		return nil
	}
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgSerializationFailure, pgDeadlockDetected:
			return domain.NewConflictErrorWithCause("concurrent update detected, retry the request", err)
		case pgUniqueViolation:
			return domain.NewConflictErrorWithCause(fmt.Sprintf("duplicate value violates %s", pgErr.ConstraintName), err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
