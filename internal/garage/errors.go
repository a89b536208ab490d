package garage

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is wrapped by ParseError when the key is absent.
	ErrNotFound = errors.New("key not found")

	// ErrReservedKey is returned when a tracked operation targets the index key.
	ErrReservedKey = errors.New("reserved key")

	// ErrInvalidExpiration is returned for expiration values that are neither
	// numeric nor numeric strings.
	ErrInvalidExpiration = errors.New("invalid expiration")
)

// ParseError reports a stored value that could not be decoded as JSON.
type ParseError struct {
	Key string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %q: %v", e.Key, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
