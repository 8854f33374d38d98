package repository

import "errors"

var (
	// ErrNotFound is returned when a record does not exist
	ErrNotFound = errors.New("not found")
	// ErrInvalidCategory is returned when saving a contact outside the category set
	ErrInvalidCategory = errors.New("invalid category")
	// ErrStoreUnavailable wraps every underlying database failure
	ErrStoreUnavailable = errors.New("store unavailable")
)

func storeError(op string, err error) error {
	return &opError{op: op, err: err}
}

type opError struct {
	op  string
	err error
}

func (e *opError) Error() string {
	return e.op + ": " + e.err.Error()
}

func (e *opError) Unwrap() []error {
	return []error{ErrStoreUnavailable, e.err}
}
