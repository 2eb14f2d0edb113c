package store

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

func asPQError(err error, target **pq.Error) bool {
	return errors.As(err, target)
}

// requireRows maps zero-row updates to sql.ErrNoRows so callers can treat
// missing rows uniformly.
func requireRows(res sql.Result) error {
	if rows, _ := res.RowsAffected(); rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
