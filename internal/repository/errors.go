// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow the service layer to
// distinguish between different failure scenarios without inspecting
// driver errors.  For example, ErrDuplicate signals that a unique key
// (email, library pair) already exists, while ErrConflict signals that a
// delete cannot proceed because other rows still reference the target.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when the requested row does not exist or the
// update/delete matched no rows.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned by UserRepo.Create when the normalized email
// is already registered.
var ErrEmailExists = errors.New("email already exists")

// ErrDuplicate is returned when an insert violates a unique key other
// than the user email.
var ErrDuplicate = errors.New("duplicate entry")

// ErrConflict is returned when a delete cannot be performed because of
// dependent records, such as library entries referencing a book.
// Handlers translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// isDuplicateKey reports whether err is a MySQL unique key violation.
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
