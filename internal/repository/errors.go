// Package repository defines error types that are reused across the
// seat and passenger stores.  These sentinel values allow higher layers
// such as services to distinguish between different failure scenarios
// without inspecting driver errors.  The in-memory store returns the same
// values so callers behave identically against either backend.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrSeatNotFound is returned when no seat row matches the lookup.
var ErrSeatNotFound = errors.New("seat not found")

// ErrPassengerNotFound is returned when no passenger row matches the lookup.
var ErrPassengerNotFound = errors.New("passenger not found")

// ErrEmailExists is returned by passenger creation when another row already
// holds the email.  Callers treat it as "someone else created it first".
var ErrEmailExists = errors.New("email already exists")

// ErrForbidden is returned when the caller attempts to change a seat it
// does not own.  Services translate this into a Forbidden outcome.
var ErrForbidden = errors.New("forbidden")

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
