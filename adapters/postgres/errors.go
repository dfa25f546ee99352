package postgres

import (
	"database/sql"
	stderrors "errors"
	"strconv"

	"kisanrakshak/internal/errors"

	"github.com/lib/pq"
)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// translate maps driver errors onto application error codes
func translate(err error, resource string) error {
	if err == nil {
		return nil
	}
	if stderrors.Is(err, sql.ErrNoRows) {
		return errors.NotFound(resource)
	}
	var pqErr *pq.Error
	if stderrors.As(err, &pqErr) {
		switch pqErr.Code {
		case pqUniqueViolation:
			return errors.WithCode(errors.CodeConflict, errors.Wrapf(err, "%s already exists", resource))
		case pqForeignKeyViolation:
			return errors.WithCode(errors.CodeInvalidInput, errors.Wrapf(err, "%s references a missing record", resource))
		}
	}
	return errors.WithCode(errors.CodeDatabaseError, errors.Wrapf(err, "%s query failed", resource))
}

// expectOne turns a zero-row update or delete into NotFound
func expectOne(res sql.Result, err error, resource string) error {
	if err != nil {
		return translate(err, resource)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return translate(err, resource)
	}
	if n == 0 {
		return errors.NotFound(resource)
	}
	return nil
}

func placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}
