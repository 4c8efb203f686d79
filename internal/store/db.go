package store

import (
	"database/sql"
	"errors"

	"github.com/uptrace/bun"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrStudentIDTaken is returned when binding a student id that another
// user already holds.
var ErrStudentIDTaken = errors.New("student id already bound to another account")

// DB wraps the bun connection. The ledger methods (ledger.go) are the only
// write path for the remain_tickets counter, and the registry methods
// (registry.go) are the only write path for ticket statuses.
type DB struct {
	Bun *bun.DB
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
