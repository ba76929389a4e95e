package db

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/paisaid/paisaid-cms/internal/shared"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// MapError translates driver errors into shared sentinels. The entity name is
// used to build client-facing messages.
func MapError(entity string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %s not found", shared.ErrNotFound, entity)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%w: %s already exists", shared.ErrDuplicate, entity)
		case pgForeignKeyViolation:
			return fmt.Errorf("%w: %s references a missing or dependent record", shared.ErrConflict, entity)
		}
	}
	return err
}
