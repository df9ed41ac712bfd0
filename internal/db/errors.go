package db

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/TobiasDeBruijn/invoicex/internal/platform/apperr"
)

const (
	pgErrUniqueViolation     = "23505"
	pgErrForeignKeyViolation = "23503"
)

// MapError classifies constraint violations into application error kinds.
// Unique violations become apperr.ErrConflict and foreign-key violations apperr.ErrNotFound;
// every other error, including nil, is returned unchanged.
func MapError(err error, what string) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgErrUniqueViolation:
		return fmt.Errorf("%w: %s already exists", apperr.ErrConflict, what)
	case pgErrForeignKeyViolation:
		return fmt.Errorf("%w: %s references a missing row", apperr.ErrNotFound, what)
	}
	return err
}
