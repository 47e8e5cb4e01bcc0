package repository

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

// MySQL server error numbers inspected by the repositories.
const (
	mysqlErrBadField  = 1054 // ER_BAD_FIELD_ERROR: unknown column
	mysqlErrDupEntry  = 1062 // ER_DUP_ENTRY
	mysqlErrNoSuchCol = 1166 // ER_WRONG_COLUMN_NAME
)

var (
	// ErrMissingColumn marks a write that referenced a column the schema does not have.
	ErrMissingColumn = errors.New("column missing in database schema")
	// ErrDuplicatePayment marks a second loan payment for the same loan and period.
	ErrDuplicatePayment = errors.New("loan payment already recorded for period")
	// ErrDuplicate marks any other unique-key violation.
	ErrDuplicate = errors.New("duplicate entry")
)

// translate maps driver errors onto repository sentinels, keeping the original in the chain.
func translate(err error) error {
	if err == nil {
		return nil
	}
	var myErr *mysql.MySQLError
	if !errors.As(err, &myErr) {
		return err
	}
	switch myErr.Number {
	case mysqlErrBadField, mysqlErrNoSuchCol:
		return fmt.Errorf("%w: %w", ErrMissingColumn, err)
	case mysqlErrDupEntry:
		return fmt.Errorf("%w: %w", ErrDuplicate, err)
	default:
		return err
	}
}

// IsMissingColumn reports whether err came from an unknown column.
func IsMissingColumn(err error) bool {
	return errors.Is(err, ErrMissingColumn)
}
