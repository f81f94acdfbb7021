package postgres

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/platinummonkey/folio/pkg/auth"
)

// uniqueViolation is the SQLSTATE of a unique constraint failure
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// notFound converts sql.ErrNoRows to auth.ErrNotFound and passes anything
// else through
func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return auth.ErrNotFound
	}
	return err
}
