package api

import (
	"errors"
	"fmt"
)

// ErrUnauthenticated indicates a request was attempted without a token,
// or the server rejected the token. Callers fall back to the local
// question bank when they see it.
var ErrUnauthenticated = errors.New("not authenticated")

// StatusError is a non-2xx response from the quiz server.
type StatusError struct {
	Op     string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s: server returned %d: %s", e.Op, e.Status, e.Body)
	}
	return fmt.Sprintf("%s: server returned %d", e.Op, e.Status)
}

// DecodeError is a 2xx response whose body did not parse as the
// expected shape.
type DecodeError struct {
	Op  string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: decode response: %v", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
