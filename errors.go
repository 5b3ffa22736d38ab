package testapi

import (
	"errors"
	"fmt"
)

var (
	// ErrUnprocessed is returned when a batch request still has unprocessed
	// items after all retries are spent.
	ErrUnprocessed = errors.New("unprocessed items remain")

	// ErrInvalidRecord is returned when a record lacks an attribute required by
	// its table's key schema or secondary indexes.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrEmptyFixture is returned when a fixture contains no records.
	ErrEmptyFixture = errors.New("fixture is empty")
)

// OpError records a failed harness operation along with the resource it was
// acting on.
type OpError struct {
	Op       string // operation, e.g. "create-table" or "purge-queue"
	Resource string // table, queue or function name; may be empty
	Err      error
}

func (e *OpError) Error() string {
	if e.Resource == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Resource, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

// Fail wraps err in an *OpError. It returns nil when err is nil.
func Fail(op, resource string, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Op: op, Resource: resource, Err: err}
}
