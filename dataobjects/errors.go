package dataobjects

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ErrSchemaViolation matches every error caused by a uniqueness or
// referential integrity conflict on write
var ErrSchemaViolation = errors.New("schema violation")

// ErrDuplicateObservation is the cause of a SchemaViolationError raised when
// an observation for the same timestamp, mode and line already exists
var ErrDuplicateObservation = errors.New("observation already exists")

// ErrInvalidFilter is returned when an ObservationFilter can't be turned into a query
var ErrInvalidFilter = errors.New("invalid observation filter")

// SchemaViolationError describes a write rejected by a store constraint
type SchemaViolationError struct {
	Table string
	Key   string
	Err   error
}

func (e *SchemaViolationError) Error() string {
	return fmt.Sprintf("%s %s: %s: %s", e.Table, e.Key, ErrSchemaViolation, e.Err)
}

// Unwrap returns the underlying cause
func (e *SchemaViolationError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrSchemaViolation) hold for every SchemaViolationError
func (e *SchemaViolationError) Is(target error) bool {
	return target == ErrSchemaViolation
}

// isConstraintViolation reports whether err was raised by the driver because
// a constraint (unique, primary key, foreign key, not null, check) was violated
func isConstraintViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// class 23: integrity constraint violation
		return pqErr.Code.Class() == "23"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
	}
	return false
}

// classify turns constraint violations into SchemaViolationErrors and leaves
// every other error untouched
func classify(err error, table, key string) error {
	if isConstraintViolation(err) {
		return &SchemaViolationError{Table: table, Key: key, Err: err}
	}
	return err
}
