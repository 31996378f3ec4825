package journal

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound  = errors.New("trade not found")
	ErrDuplicate = errors.New("trade already exists")
)

// StorageError reports a failed storage operation.
type StorageError struct {
	Op  string
	ID  string
	Err error
}

func (e *StorageError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("journal %s %s: %v", e.Op, e.ID, e.Err)
	}
	return fmt.Sprintf("journal %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Fail wraps err as a *StorageError. It returns nil for a nil err and
// leaves an existing *StorageError alone.
func Fail(op, id string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, ID: id, Err: err}
}
