// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values allow higher layers such as the
// booking workflow and the handlers to distinguish between different
// failure scenarios without inspecting driver errors.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a lookup by id yields no rows.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write cannot be performed because of
// conflicting state, such as a second booking on a seat that already has a
// pending or active one, or a duplicate unique key.
var ErrConflict = errors.New("conflict")

// ErrSeatUnavailable is returned when a booking targets a seat whose
// is_available flag is false.  It wraps ErrConflict.
var ErrSeatUnavailable = errors.Join(ErrConflict, errors.New("seat unavailable"))

// ErrBookingInsert and ErrPaymentInsert tag which insert of the booking
// transaction failed so callers can report the right failure kind.
var (
	ErrBookingInsert = errors.New("insert booking")
	ErrPaymentInsert = errors.New("insert payment")
)

// ErrBookingMismatch is returned when a payment decision names a booking
// (or seat) that the payment does not belong to.
var ErrBookingMismatch = errors.New("payment does not belong to booking")

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// isDuplicate reports whether err is a MySQL unique key violation.
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
