package storage

import "fmt"

// StoreError is a blob store read/write failure. It is a server fault and
// always propagates to the caller.
type StoreError struct {
    Op  string
    Key string
    Err error
}

func (e *StoreError) Error() string {
    return fmt.Sprintf("storage %s failed for key %s: %v", e.Op, e.Key, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// NotFoundError marks a missing stored object on the read side. Unlike
// StoreError it surfaces as a client fault.
type NotFoundError struct {
    Key string
}

func (e *NotFoundError) Error() string {
    return fmt.Sprintf("stored object not found: %s", e.Key)
}
