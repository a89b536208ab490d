package datastore

import (
	"errors"
	"fmt"
)

// ErrQuotaExceeded is returned when a write would grow the store past its quota.
var ErrQuotaExceeded = errors.New("quota exceeded")

// WriteError reports a write the underlying store rejected.
type WriteError struct {
	Key string
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %q: %v", e.Key, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Datastore is a flat string-keyed, string-valued namespace.
// Get reports absence with ok == false, never with an error.
type Datastore interface {
	Get(key string) (string, bool, error)
	Put(key, value string) error
	Delete(key string) error
	Clear() error
	List() (map[string]string, error)
	Close() error
}
