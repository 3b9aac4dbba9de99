package cacheflow

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument marks a rejected key or request construction.
	ErrInvalidArgument = errors.New("cacheflow: invalid argument")
	// ErrInvalidQuery marks a request method the called entry point does not serve.
	ErrInvalidQuery = errors.New("cacheflow: invalid cache query")
	// ErrValueTypeMismatch marks a value request built for another value type.
	ErrValueTypeMismatch = errors.New("cacheflow: request value type does not match manager")
)

// InvalidQueryError reports a request whose method is not handled by the
// entry point it was passed to. It matches ErrInvalidQuery.
type InvalidQueryError struct {
	Entry  string // "Process" or "ProcessWithValue"
	Method Method
}

func (e *InvalidQueryError) Error() string {
	return fmt.Sprintf("cacheflow: %s does not handle method %s", e.Entry, e.Method)
}

func (e *InvalidQueryError) Is(target error) bool { return target == ErrInvalidQuery }

// OpError wraps a backend or codec failure with the operation and the
// storage key it happened on.
type OpError struct {
	Method Method
	Key    string
	Op     string // "get", "set", "del", "refresh", "encode", "decode", "factory"
	Err    error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("cacheflow: %s %s %q: %v", e.Method, e.Op, e.Key, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }
